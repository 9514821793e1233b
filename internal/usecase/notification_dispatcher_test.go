package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tallerlink/internal/domain/entity"
	"tallerlink/internal/infrastructure/broadcast"
	ws "tallerlink/internal/infrastructure/websocket"
)

type fakeBroadcaster struct {
	published []broadcast.Envelope
	handler   func(env broadcast.Envelope)
}

func (f *fakeBroadcaster) Publish(ctx context.Context, env broadcast.Envelope) error {
	f.published = append(f.published, env)
	return nil
}

func (f *fakeBroadcaster) Subscribe(ctx context.Context, handler func(env broadcast.Envelope)) error {
	f.handler = handler
	return nil
}

func (f *fakeBroadcaster) Close() error { return nil }

func newDispatcherFixture(t *testing.T) (*NotificationDispatcher, *ws.Manager, *fakeBroadcaster) {
	t.Helper()
	manager := ws.NewManager()
	manager.Start(context.Background())
	bc := &fakeBroadcaster{}
	d := NewNotificationDispatcher(manager, bc)
	require.NoError(t, d.Run(context.Background()))
	return d, manager, bc
}

func connect(t *testing.T, m *ws.Manager, connID, userID, role string) *ws.Client {
	t.Helper()
	c := testClient(connID, userID, role)
	want := m.ClientCount() + 1
	m.Register <- c
	require.Eventually(t, func() bool { return m.ClientCount() >= want }, time.Second, time.Millisecond)
	return c
}

func TestOnCotizacionCreatedReachesListedTiendasOnly(t *testing.T) {
	d, manager, _ := newDispatcherFixture(t)

	tienda1 := connect(t, manager, "conn-1", "tienda-1", entity.RoleTienda)
	tienda2 := connect(t, manager, "conn-2", "tienda-2", entity.RoleTienda)
	taller := connect(t, manager, "conn-3", "taller-1", entity.RoleTaller)

	d.OnCotizacionCreated(context.Background(), &entity.Cotizacion{
		ID:           "cot-1",
		TallerUserID: "taller-1",
		Title:        "Amortiguadores delanteros",
		Category:     "suspension",
	}, []string{"tienda-1", "tienda-2"})

	for _, c := range []*ws.Client{tienda1, tienda2} {
		events := drainEvents(t, c)
		require.Len(t, events, 1)
		assert.Equal(t, ws.EventNewCotizacion, events[0].Event)
	}
	assert.Empty(t, drainEvents(t, taller), "the authoring taller is not notified")
}

func TestOnCotizacionCreatedWithNoRecipientsIsNoOp(t *testing.T) {
	d, _, bc := newDispatcherFixture(t)

	d.OnCotizacionCreated(context.Background(), &entity.Cotizacion{ID: "cot-1"}, nil)

	assert.Empty(t, bc.published)
}

func TestOnOfertaCreatedNotifiesOwningTaller(t *testing.T) {
	d, manager, _ := newDispatcherFixture(t)

	taller := connect(t, manager, "conn-1", "taller-1", entity.RoleTaller)
	otherTaller := connect(t, manager, "conn-2", "taller-2", entity.RoleTaller)
	tienda := connect(t, manager, "conn-3", "tienda-1", entity.RoleTienda)

	d.OnOfertaCreated(context.Background(), &entity.Oferta{
		ID:           "of-1",
		CotizacionID: "cot-1",
		TallerUserID: "taller-1",
		TiendaUserID: "tienda-1",
		StoreName:    "Repuestos SA",
		Total:        1450,
	})

	events := drainEvents(t, taller)
	require.Len(t, events, 1)
	assert.Equal(t, ws.EventNewOferta, events[0].Event)

	assert.Empty(t, drainEvents(t, otherTaller))
	assert.Empty(t, drainEvents(t, tienda), "the offering tienda gets no self-notification")
}

func TestPedidoEventsReachBothSides(t *testing.T) {
	d, manager, _ := newDispatcherFixture(t)

	taller := connect(t, manager, "conn-1", "taller-1", entity.RoleTaller)
	tienda := connect(t, manager, "conn-2", "tienda-1", entity.RoleTienda)
	bystander := connect(t, manager, "conn-3", "tienda-2", entity.RoleTienda)

	pedido := &entity.Pedido{
		ID:           "ped-1",
		TallerUserID: "taller-1",
		TiendaUserID: "tienda-1",
		Status:       "confirmado",
	}

	d.OnPedidoCreated(context.Background(), pedido)
	d.OnPedidoStatusChanged(context.Background(), pedido)

	tallerEvents := drainEvents(t, taller)
	tiendaEvents := drainEvents(t, tienda)
	require.Len(t, tallerEvents, 2)
	require.Len(t, tiendaEvents, 2)
	assert.Equal(t, ws.EventNewPedido, tallerEvents[0].Event)
	assert.Equal(t, ws.EventPedidoUpdate, tallerEvents[1].Event)
	assert.Empty(t, drainEvents(t, bystander))
}

func TestOfflineRecipientIsSkippedSilently(t *testing.T) {
	d, manager, _ := newDispatcherFixture(t)

	online := connect(t, manager, "conn-1", "tienda-1", entity.RoleTienda)

	d.OnCotizacionCreated(context.Background(), &entity.Cotizacion{ID: "cot-1"}, []string{"tienda-1", "tienda-offline"})

	require.Len(t, drainEvents(t, online), 1, "online recipient still receives")
}

func TestPushToChatPublishesForPeerProcesses(t *testing.T) {
	d, _, bc := newDispatcherFixture(t)

	d.PushToChat(context.Background(), "chat-1", ws.NewEvent(ws.EventNewMessage, "chat-1", nil))

	require.Len(t, bc.published, 1)
	assert.Equal(t, "chat-1", bc.published[0].ChatID)
	assert.Empty(t, bc.published[0].UserIDs)
}

func TestRunReplaysPeerEnvelopesAgainstLocalGateway(t *testing.T) {
	_, manager, bc := newDispatcherFixture(t)
	require.NotNil(t, bc.handler)

	member := connect(t, manager, "conn-1", "taller-1", entity.RoleTaller)
	manager.JoinChat("chat-1", member.ID)
	byUser := connect(t, manager, "conn-2", "tienda-1", entity.RoleTienda)

	bc.handler(broadcast.Envelope{ChatID: "chat-1", Payload: []byte(`{"event":"newMessage"}`)})
	bc.handler(broadcast.Envelope{UserIDs: []string{"tienda-1"}, Payload: []byte(`{"event":"newOferta"}`)})

	assert.Len(t, drainEvents(t, member), 1)
	assert.Len(t, drainEvents(t, byUser), 1)
}
