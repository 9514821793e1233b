package usecase

import (
	"context"
	"sync"

	"tallerlink/internal/domain/entity"
	"tallerlink/internal/domain/repository"
	"tallerlink/internal/infrastructure/ratelimit"
	ws "tallerlink/internal/infrastructure/websocket"
	"tallerlink/pkg/errors"
	"tallerlink/pkg/logger"
)

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	wsManager   *ws.Manager
	dispatcher  *NotificationDispatcher
	rateLimiter *ratelimit.RateLimiter
	chatLocks   sync.Map // chat id -> *sync.Mutex
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	wsManager *ws.Manager,
	dispatcher *NotificationDispatcher,
) *ChatUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		wsManager:   wsManager,
		dispatcher:  dispatcher,
		rateLimiter: rateLimiter,
	}
}

type CreateChatInput struct {
	CotizacionID string
	TiendaID     string
}

type SendMessageInput struct {
	ChatID   string
	Content  string
	ImageURL string
}

type ChatResponse struct {
	*entity.Chat
	OtherUser *entity.User `json:"other_user,omitempty"`
}

type MessageResponse struct {
	*entity.Message
	Sender *entity.User `json:"sender,omitempty"`
}

// GetOrCreateChat returns the single chat for the (cotizacion, tienda)
// pair, creating it lazily on first message intent. Idempotent under
// concurrent calls for the same pair.
func (uc *ChatUseCase) GetOrCreateChat(ctx context.Context, userID string, input CreateChatInput) (*ChatResponse, error) {
	allowed, waitTime := uc.rateLimiter.Allow(userID, "create_chat")
	if !allowed {
		logger.Warn("GetOrCreateChat rate limited: user %s must wait %v", userID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before opening another chat")
	}

	if input.CotizacionID == "" || input.TiendaID == "" {
		return nil, errors.BadRequest("cotizacion_id and tienda_id are required", nil)
	}

	tienda, err := uc.userRepo.GetByID(ctx, input.TiendaID)
	if err != nil {
		logger.Error("GetOrCreateChat: tienda %s not found: %v", input.TiendaID, err)
		return nil, errors.NotFound("Tienda", err)
	}
	if tienda.Role != entity.RoleTienda {
		return nil, errors.BadRequest("Recipient is not a tienda", nil)
	}
	if userID == input.TiendaID {
		return nil, errors.BadRequest("You cannot open a chat with yourself", nil)
	}

	participants := []string{userID, input.TiendaID}
	chat, err := uc.chatRepo.GetOrCreateChat(ctx, input.CotizacionID, input.TiendaID, participants)
	if err != nil {
		logger.Error("GetOrCreateChat: repository failure for (%s, %s): %v", input.CotizacionID, input.TiendaID, err)
		return nil, err
	}

	return &ChatResponse{
		Chat:      chat,
		OtherUser: tienda,
	}, nil
}

func (uc *ChatUseCase) GetUserChats(ctx context.Context, userID string, limit, offset int) ([]*ChatResponse, int64, error) {
	chats, total, err := uc.chatRepo.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		logger.Error("GetUserChats: failed to list chats for user %s: %v", userID, err)
		return nil, 0, err
	}

	var chatResponses []*ChatResponse
	for _, chat := range chats {
		chatResp := &ChatResponse{Chat: chat}

		for _, participantID := range chat.Participants {
			if participantID != userID {
				otherUser, err := uc.userRepo.GetByID(ctx, participantID)
				if err == nil {
					chatResp.OtherUser = otherUser
				} else {
					logger.Warn("GetUserChats: other user %s not found for chat %s: %v", participantID, chat.ID, err)
				}
				break
			}
		}

		chatResponses = append(chatResponses, chatResp)
	}

	return chatResponses, total, nil
}

// ListChatsByCotizacion enumerates every tienda conversation for one
// cotizacion, in creation order. Oversight view.
func (uc *ChatUseCase) ListChatsByCotizacion(ctx context.Context, cotizacionID string) ([]*entity.Chat, error) {
	return uc.chatRepo.ListByCotizacion(ctx, cotizacionID)
}

func (uc *ChatUseCase) GetChatMessages(ctx context.Context, userID, chatID string, limit, offset int) ([]*MessageResponse, int64, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, 0, err
	}

	if !containsString(chat.Participants, userID) {
		logger.Warn("GetChatMessages: user %s is not a participant in chat %s", userID, chatID)
		return nil, 0, errors.Forbidden("User is not a participant in this chat", nil)
	}

	messages, total, err := uc.chatRepo.GetMessagesByChat(ctx, chatID, limit, offset)
	if err != nil {
		logger.Error("GetChatMessages: failed to get messages for chat %s: %v", chatID, err)
		return nil, 0, err
	}

	var messageResponses []*MessageResponse
	for _, message := range messages {
		messageResp := &MessageResponse{Message: message}

		sender, err := uc.userRepo.GetByID(ctx, message.SenderID)
		if err == nil {
			messageResp.Sender = sender
		}

		messageResponses = append(messageResponses, messageResp)
	}

	return messageResponses, total, nil
}

// SendMessage persists a message, then fans it out to every connection
// joined to the chat, the sender's own other tabs included. Persistence
// happens before fan-out: clients never see a message that was not
// durably stored, and a persistence failure produces no fan-out at all.
func (uc *ChatUseCase) SendMessage(ctx context.Context, userID string, input SendMessageInput) (*MessageResponse, error) {
	allowed, waitTime := uc.rateLimiter.Allow(userID, "send_message")
	if !allowed {
		logger.Warn("SendMessage rate limited: user %s must wait %v", userID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message")
	}

	if input.Content == "" && input.ImageURL == "" {
		return nil, errors.Validation("Message must have content or an image", nil)
	}

	chat, err := uc.chatRepo.GetByID(ctx, input.ChatID)
	if err != nil {
		return nil, err
	}

	if !containsString(chat.Participants, userID) {
		logger.Warn("SendMessage: user %s is not a participant in chat %s", userID, input.ChatID)
		return nil, errors.Forbidden("User is not a participant in this chat", nil)
	}

	sender, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.NotFound("Sender", err)
	}

	// One send in flight per chat: fan-out must happen in the same
	// order messages were persisted, on every connection.
	lock := uc.chatLock(input.ChatID)
	lock.Lock()
	defer lock.Unlock()

	message := &entity.Message{
		ChatID:     input.ChatID,
		SenderID:   userID,
		SenderRole: sender.Role,
		Content:    input.Content,
		ImageURL:   input.ImageURL,
		ReadBy:     []string{userID},
	}

	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		logger.Error("SendMessage: failed to persist message for chat %s: %v", input.ChatID, err)
		return nil, err
	}

	preview := input.Content
	if preview == "" {
		preview = "[imagen]"
	}

	var unreadFor []string
	for _, participantID := range chat.Participants {
		if participantID != userID {
			unreadFor = append(unreadFor, participantID)
		}
	}

	if err := uc.chatRepo.RecordMessageActivity(ctx, chat.ID, preview, message.CreatedAt, unreadFor); err != nil {
		logger.Error("SendMessage: failed to record activity on chat %s: %v", chat.ID, err)
	}

	messageResp := &MessageResponse{Message: message, Sender: sender}
	uc.dispatcher.PushToChat(ctx, input.ChatID, ws.NewEvent(ws.EventNewMessage, input.ChatID, messageResp))

	return messageResp, nil
}

// MarkChatAsRead marks every message not authored by the caller as read
// and resets the caller's unread counter. Idempotent; no fan-out.
func (uc *ChatUseCase) MarkChatAsRead(ctx context.Context, userID, chatID string) error {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}

	if !containsString(chat.Participants, userID) {
		logger.Warn("MarkChatAsRead: user %s is not a participant in chat %s", userID, chatID)
		return errors.Forbidden("User is not a participant in this chat", nil)
	}

	return uc.chatRepo.MarkChatAsRead(ctx, chatID, userID)
}

// HandleSendMessage implements websocket.EventHandler. Errors surface
// to the sending connection only; chat state is unchanged on failure.
func (uc *ChatUseCase) HandleSendMessage(ctx context.Context, client *ws.Client, chatID, content, imageURL string) {
	_, err := uc.SendMessage(ctx, client.UserID, SendMessageInput{
		ChatID:   chatID,
		Content:  content,
		ImageURL: imageURL,
	})
	if err != nil {
		logger.Warn("HandleSendMessage: send failed for user %s in chat %s: %v", client.UserID, chatID, err)
		uc.wsManager.SendErrorToClient(client, err.Error())
	}
}

// HandleMarkChatAsRead implements websocket.EventHandler.
func (uc *ChatUseCase) HandleMarkChatAsRead(ctx context.Context, client *ws.Client, chatID string) {
	if err := uc.MarkChatAsRead(ctx, client.UserID, chatID); err != nil {
		logger.Warn("HandleMarkChatAsRead: failed for user %s in chat %s: %v", client.UserID, chatID, err)
		uc.wsManager.SendErrorToClient(client, err.Error())
	}
}

func (uc *ChatUseCase) chatLock(chatID string) *sync.Mutex {
	lock, _ := uc.chatLocks.LoadOrStore(chatID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
