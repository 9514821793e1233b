package router

import (
	"github.com/labstack/echo/v4"

	"tallerlink/internal/adapter/api/handler"
	"tallerlink/internal/adapter/api/middleware"
)

// SetupEventRouter wires the internal endpoints the CRUD service calls
// when marketplace entities change. Admin-only on purpose: these are
// service-to-service, never hit by browsers.
func SetupEventRouter(e *echo.Echo, eventHandler *handler.EventHandler, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	eventGroup := e.Group("/v1/events")
	eventGroup.Use(authMiddleware.Authenticate)
	eventGroup.Use(adminMiddleware.AdminOnly)

	eventGroup.POST("/cotizacion-created", eventHandler.CotizacionCreated)
	eventGroup.POST("/oferta-created", eventHandler.OfertaCreated)
	eventGroup.POST("/pedido-created", eventHandler.PedidoCreated)
	eventGroup.POST("/pedido-updated", eventHandler.PedidoUpdated)
}
