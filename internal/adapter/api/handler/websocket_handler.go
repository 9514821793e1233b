package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"tallerlink/internal/adapter/api/middleware"
	"tallerlink/internal/domain/repository"
	ws "tallerlink/internal/infrastructure/websocket"
	"tallerlink/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browser clients connect from the SPA origin; token auth is
		// what actually gates the connection.
		return true
	},
}

type WebSocketHandler struct {
	manager        *ws.Manager
	authMiddleware *middleware.AuthMiddleware
	userRepo       repository.UserRepository
}

func NewWebSocketHandler(manager *ws.Manager, authMiddleware *middleware.AuthMiddleware, userRepo repository.UserRepository) *WebSocketHandler {
	return &WebSocketHandler{
		manager:        manager,
		authMiddleware: authMiddleware,
		userRepo:       userRepo,
	}
}

// HandleConnection authenticates and upgrades a websocket client.
// The token arrives as a query parameter because browsers cannot set
// headers on websocket upgrade requests; a Bearer header is accepted
// as a fallback for non-browser clients.
func (h *WebSocketHandler) HandleConnection(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		authHeader := c.Request().Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	uid, err := h.authMiddleware.GetUIDFromToken(c.Request().Context(), token)
	if err != nil {
		logger.Warn("WebSocket auth failed: %v", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	user, err := h.userRepo.GetByID(c.Request().Context(), uid)
	if err != nil {
		logger.Warn("WebSocket user lookup failed for %s: %v", uid, err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed: %v", err)
		return err
	}

	client := &ws.Client{
		ID:     uuid.New().String(),
		UserID: user.ID,
		Role:   user.Role,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}

	h.manager.Register <- client

	go client.WritePump()
	go client.ReadPump(h.manager)

	return nil
}
