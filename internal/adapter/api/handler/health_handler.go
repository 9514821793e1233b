package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"tallerlink/internal/infrastructure/firebase"
	ws "tallerlink/internal/infrastructure/websocket"
)

type HealthHandler struct {
	firebaseAuth *firebase.FirebaseAuthClient
	wsManager    *ws.Manager
}

func NewHealthHandler(firebaseAuth *firebase.FirebaseAuthClient, wsManager *ws.Manager) *HealthHandler {
	return &HealthHandler{
		firebaseAuth: firebaseAuth,
		wsManager:    wsManager,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":          "Server is running",
		"time":            time.Now().Format(time.RFC3339),
		"connected_users": h.wsManager.ConnectedUserCount(),
	})
}

func (h *HealthHandler) CheckFirebaseHealth(c echo.Context) error {
	if err := h.firebaseAuth.TestConnection(c.Request().Context()); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"status": "Firebase Auth connection failed",
			"error":  err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "Firebase Auth connected successfully",
	})
}
