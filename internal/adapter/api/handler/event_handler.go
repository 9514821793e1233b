package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"tallerlink/internal/domain/entity"
	"tallerlink/internal/domain/repository"
	"tallerlink/internal/usecase"
	"tallerlink/pkg/response"
)

// EventHandler receives marketplace lifecycle events from the CRUD
// service and turns them into realtime pushes. The endpoints are
// internal: only service accounts with the admin role reach them.
type EventHandler struct {
	dispatcher *usecase.NotificationDispatcher
	userRepo   repository.UserRepository
}

func NewEventHandler(dispatcher *usecase.NotificationDispatcher, userRepo repository.UserRepository) *EventHandler {
	return &EventHandler{
		dispatcher: dispatcher,
		userRepo:   userRepo,
	}
}

type cotizacionCreatedRequest struct {
	ID           string `json:"id" validate:"required"`
	TallerUserID string `json:"taller_user_id" validate:"required"`
	Title        string `json:"title" validate:"required"`
	Category     string `json:"category" validate:"required"`
}

type ofertaCreatedRequest struct {
	ID              string  `json:"id" validate:"required"`
	CotizacionID    string  `json:"cotizacion_id" validate:"required"`
	CotizacionTitle string  `json:"cotizacion_title"`
	TallerUserID    string  `json:"taller_user_id" validate:"required"`
	TiendaID        string  `json:"tienda_id" validate:"required"`
	TiendaUserID    string  `json:"tienda_user_id" validate:"required"`
	StoreName       string  `json:"store_name"`
	Total           float64 `json:"total"`
}

type pedidoEventRequest struct {
	ID           string  `json:"id" validate:"required"`
	OfertaID     string  `json:"oferta_id"`
	CotizacionID string  `json:"cotizacion_id"`
	TallerUserID string  `json:"taller_user_id" validate:"required"`
	TiendaUserID string  `json:"tienda_user_id" validate:"required"`
	Status       string  `json:"status" validate:"required"`
	Total        float64 `json:"total"`
}

// CotizacionCreated notifies every connected tienda about a new
// request for parts.
func (h *EventHandler) CotizacionCreated(c echo.Context) error {
	var req cotizacionCreatedRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	ctx := c.Request().Context()

	tiendas, err := h.userRepo.ListByRole(ctx, entity.RoleTienda, 0)
	if err != nil {
		return response.Error(c, err)
	}

	recipients := make([]string, 0, len(tiendas))
	for _, tienda := range tiendas {
		recipients = append(recipients, tienda.ID)
	}

	cotizacion := &entity.Cotizacion{
		ID:           req.ID,
		TallerUserID: req.TallerUserID,
		Title:        req.Title,
		Category:     req.Category,
	}

	h.dispatcher.OnCotizacionCreated(ctx, cotizacion, recipients)

	return c.NoContent(http.StatusAccepted)
}

// OfertaCreated notifies the taller that owns the cotizacion
func (h *EventHandler) OfertaCreated(c echo.Context) error {
	var req ofertaCreatedRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	oferta := &entity.Oferta{
		ID:              req.ID,
		CotizacionID:    req.CotizacionID,
		CotizacionTitle: req.CotizacionTitle,
		TallerUserID:    req.TallerUserID,
		TiendaID:        req.TiendaID,
		TiendaUserID:    req.TiendaUserID,
		StoreName:       req.StoreName,
		Total:           req.Total,
	}

	h.dispatcher.OnOfertaCreated(c.Request().Context(), oferta)

	return c.NoContent(http.StatusAccepted)
}

// PedidoCreated notifies both sides of a new order
func (h *EventHandler) PedidoCreated(c echo.Context) error {
	return h.handlePedidoEvent(c, h.dispatcher.OnPedidoCreated)
}

// PedidoUpdated notifies both sides of an order status change
func (h *EventHandler) PedidoUpdated(c echo.Context) error {
	return h.handlePedidoEvent(c, h.dispatcher.OnPedidoStatusChanged)
}

func (h *EventHandler) handlePedidoEvent(c echo.Context, dispatch func(ctx context.Context, pedido *entity.Pedido)) error {
	var req pedidoEventRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	pedido := &entity.Pedido{
		ID:           req.ID,
		OfertaID:     req.OfertaID,
		CotizacionID: req.CotizacionID,
		TallerUserID: req.TallerUserID,
		TiendaUserID: req.TiendaUserID,
		Status:       req.Status,
		Total:        req.Total,
	}

	dispatch(c.Request().Context(), pedido)

	return c.NoContent(http.StatusAccepted)
}
