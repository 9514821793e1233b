package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"tallerlink/internal/usecase"
	"tallerlink/pkg/response"
	"tallerlink/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type createChatRequest struct {
	CotizacionID string `json:"cotizacion_id" validate:"required"`
	TiendaID     string `json:"tienda_id" validate:"required"`
}

type sendMessageRequest struct {
	Content  string `json:"content"`
	ImageURL string `json:"image_url" validate:"omitempty,url"`
}

// CreateChat returns the chat for a (cotizacion, tienda) pair, creating
// it if this is the first message intent between the two parties.
func (h *ChatHandler) CreateChat(c echo.Context) error {
	var req createChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	chat, err := h.chatUseCase.GetOrCreateChat(c.Request().Context(), userID, usecase.CreateChatInput{
		CotizacionID: req.CotizacionID,
		TiendaID:     req.TiendaID,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, chat)
}

// GetUserChats lists the authenticated user's chats
func (h *ChatHandler) GetUserChats(c echo.Context) error {
	userID := c.Get("uid").(string)
	params := utils.GetPaginationParams(c, 20)

	chats, total, err := h.chatUseCase.GetUserChats(c.Request().Context(), userID, params.Limit, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, chats, total, params.Limit, params.Offset)
}

// ListChatsByCotizacion lists every tienda conversation for one
// cotizacion (oversight view, admin only)
func (h *ChatHandler) ListChatsByCotizacion(c echo.Context) error {
	cotizacionID := c.Param("id")

	chats, err := h.chatUseCase.ListChatsByCotizacion(c.Request().Context(), cotizacionID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chats)
}

// SendMessage appends a message to a chat and fans it out
func (h *ChatHandler) SendMessage(c echo.Context) error {
	chatID := c.Param("id")
	userID := c.Get("uid").(string)

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), userID, usecase.SendMessageInput{
		ChatID:   chatID,
		Content:  req.Content,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// GetChatMessages lists a chat's messages in ascending creation order
func (h *ChatHandler) GetChatMessages(c echo.Context) error {
	chatID := c.Param("id")
	userID := c.Get("uid").(string)
	params := utils.GetPaginationParams(c, 50)

	messages, total, err := h.chatUseCase.GetChatMessages(c.Request().Context(), userID, chatID, params.Limit, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, messages, total, params.Limit, params.Offset)
}

// MarkChatAsRead marks a chat as read for the authenticated user
func (h *ChatHandler) MarkChatAsRead(c echo.Context) error {
	chatID := c.Param("id")
	userID := c.Get("uid").(string)

	if err := h.chatUseCase.MarkChatAsRead(c.Request().Context(), userID, chatID); err != nil {
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusOK)
}
