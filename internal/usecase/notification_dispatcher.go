package usecase

import (
	"context"

	"tallerlink/internal/domain/entity"
	"tallerlink/internal/infrastructure/broadcast"
	ws "tallerlink/internal/infrastructure/websocket"
	"tallerlink/pkg/logger"
)

// NotificationDispatcher bridges domain events from the CRUD layer to
// pushes through the gateway. Recipients are chosen by role and
// ownership, not by chat membership. Every push is best effort: a miss
// (user offline, process restart) is simply not seen until the client's
// next reconnect.
type NotificationDispatcher struct {
	wsManager   *ws.Manager
	broadcaster broadcast.Broadcaster
}

func NewNotificationDispatcher(wsManager *ws.Manager, broadcaster broadcast.Broadcaster) *NotificationDispatcher {
	return &NotificationDispatcher{
		wsManager:   wsManager,
		broadcaster: broadcaster,
	}
}

// Run subscribes to cross-process pushes and replays them against the
// local gateway. A no-op with the default local broadcaster.
func (d *NotificationDispatcher) Run(ctx context.Context) error {
	return d.broadcaster.Subscribe(ctx, func(env broadcast.Envelope) {
		if env.ChatID != "" {
			d.wsManager.SendToChat(env.ChatID, env.Payload)
			return
		}
		for _, userID := range env.UserIDs {
			d.wsManager.SendToUser(userID, env.Payload)
		}
	})
}

// PushToChat fans an event out to every connection joined to chatID,
// locally and on peer processes.
func (d *NotificationDispatcher) PushToChat(ctx context.Context, chatID string, event ws.Event) {
	payload, err := event.Marshal()
	if err != nil {
		logger.Error("Failed to marshal %s event for chat %s: %v", event.Event, chatID, err)
		return
	}

	d.wsManager.SendToChat(chatID, payload)

	if err := d.broadcaster.Publish(ctx, broadcast.Envelope{ChatID: chatID, Payload: payload}); err != nil {
		logger.Warn("Broadcast publish for chat %s failed: %v", chatID, err)
	}
}

// PushToUsers pushes an event to every connection of each listed user.
func (d *NotificationDispatcher) PushToUsers(ctx context.Context, userIDs []string, event ws.Event) {
	payload, err := event.Marshal()
	if err != nil {
		logger.Error("Failed to marshal %s event: %v", event.Event, err)
		return
	}

	for _, userID := range userIDs {
		d.wsManager.SendToUser(userID, payload)
	}

	if err := d.broadcaster.Publish(ctx, broadcast.Envelope{UserIDs: userIDs, Payload: payload}); err != nil {
		logger.Warn("Broadcast publish to %d users failed: %v", len(userIDs), err)
	}
}

// OnCotizacionCreated notifies the tiendas whose coverage matched the
// new cotizacion. The CRUD layer pre-filters the recipient set; the
// dispatcher only pushes.
func (d *NotificationDispatcher) OnCotizacionCreated(ctx context.Context, cotizacion *entity.Cotizacion, recipientUserIDs []string) {
	if len(recipientUserIDs) == 0 {
		return
	}
	logger.Info("Dispatching newCotizacion %s to %d tiendas", cotizacion.ID, len(recipientUserIDs))
	d.PushToUsers(ctx, recipientUserIDs, ws.NewEvent(ws.EventNewCotizacion, "", cotizacion))
}

// OnOfertaCreated notifies the taller that owns the cotizacion.
func (d *NotificationDispatcher) OnOfertaCreated(ctx context.Context, oferta *entity.Oferta) {
	logger.Info("Dispatching newOferta %s to taller %s", oferta.ID, oferta.TallerUserID)
	d.PushToUsers(ctx, []string{oferta.TallerUserID}, ws.NewEvent(ws.EventNewOferta, "", oferta))
}

// OnPedidoCreated notifies both sides of the order.
func (d *NotificationDispatcher) OnPedidoCreated(ctx context.Context, pedido *entity.Pedido) {
	logger.Info("Dispatching newPedido %s to taller %s and tienda %s", pedido.ID, pedido.TallerUserID, pedido.TiendaUserID)
	d.PushToUsers(ctx, []string{pedido.TallerUserID, pedido.TiendaUserID}, ws.NewEvent(ws.EventNewPedido, "", pedido))
}

// OnPedidoStatusChanged notifies both sides of the status change.
func (d *NotificationDispatcher) OnPedidoStatusChanged(ctx context.Context, pedido *entity.Pedido) {
	logger.Info("Dispatching pedidoUpdate %s (status %s)", pedido.ID, pedido.Status)
	d.PushToUsers(ctx, []string{pedido.TallerUserID, pedido.TiendaUserID}, ws.NewEvent(ws.EventPedidoUpdate, "", pedido))
}
