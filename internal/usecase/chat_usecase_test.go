package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tallerlink/internal/domain/entity"
	"tallerlink/internal/infrastructure/broadcast"
	ws "tallerlink/internal/infrastructure/websocket"
	"tallerlink/pkg/errors"
)

type fakeChatRepo struct {
	chats      map[string]*entity.Chat
	messages   map[string][]*entity.Message
	createErr  error
	readCalls  int
	lastReader string
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		chats:    make(map[string]*entity.Chat),
		messages: make(map[string][]*entity.Message),
	}
}

func (f *fakeChatRepo) GetOrCreateChat(ctx context.Context, cotizacionID, tiendaID string, participants []string) (*entity.Chat, error) {
	id := cotizacionID + "_" + tiendaID
	if chat, ok := f.chats[id]; ok {
		return chat, nil
	}
	chat := &entity.Chat{
		ID:           id,
		CotizacionID: cotizacionID,
		TiendaID:     tiendaID,
		Participants: participants,
		UnreadCount:  make(map[string]int),
		CreatedAt:    time.Now(),
	}
	f.chats[id] = chat
	return chat, nil
}

func (f *fakeChatRepo) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	chat, ok := f.chats[id]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	return chat, nil
}

func (f *fakeChatRepo) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Chat, int64, error) {
	var out []*entity.Chat
	for _, chat := range f.chats {
		for _, p := range chat.Participants {
			if p == userID {
				out = append(out, chat)
				break
			}
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeChatRepo) ListByCotizacion(ctx context.Context, cotizacionID string) ([]*entity.Chat, error) {
	var out []*entity.Chat
	for _, chat := range f.chats {
		if chat.CotizacionID == cotizacionID {
			out = append(out, chat)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) RecordMessageActivity(ctx context.Context, chatID, preview string, at time.Time, unreadUserIDs []string) error {
	chat, ok := f.chats[chatID]
	if !ok {
		return errors.NotFound("Chat", nil)
	}
	chat.LastMessage = preview
	chat.LastMessageAt = at
	if chat.UnreadCount == nil {
		chat.UnreadCount = make(map[string]int)
	}
	for _, uid := range unreadUserIDs {
		chat.UnreadCount[uid]++
	}
	return nil
}

func (f *fakeChatRepo) CreateMessage(ctx context.Context, message *entity.Message) error {
	if f.createErr != nil {
		return f.createErr
	}
	message.ID = "msg-" + time.Now().Format("150405.000000000")
	message.CreatedAt = time.Now()
	f.messages[message.ChatID] = append(f.messages[message.ChatID], message)
	return nil
}

func (f *fakeChatRepo) GetMessagesByChat(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	msgs := f.messages[chatID]
	return msgs, int64(len(msgs)), nil
}

func (f *fakeChatRepo) MarkChatAsRead(ctx context.Context, chatID, readerID string) error {
	f.readCalls++
	f.lastReader = readerID
	if chat, ok := f.chats[chatID]; ok && chat.UnreadCount != nil {
		chat.UnreadCount[readerID] = 0
	}
	return nil
}

type fakeUserRepo struct {
	users map[string]*entity.User
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[string]*entity.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return user, nil
}

func (f *fakeUserRepo) ListByRole(ctx context.Context, role string, limit int) ([]*entity.User, error) {
	var out []*entity.User
	for _, u := range f.users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func testClient(connID, userID, role string) *ws.Client {
	return &ws.Client{ID: connID, UserID: userID, Role: role, Send: make(chan []byte, 8)}
}

func drainEvents(t *testing.T, c *ws.Client) []ws.Event {
	t.Helper()
	var out []ws.Event
	for {
		select {
		case payload := <-c.Send:
			var event ws.Event
			require.NoError(t, json.Unmarshal(payload, &event))
			out = append(out, event)
		default:
			return out
		}
	}
}

func newTestUseCase(t *testing.T) (*ChatUseCase, *fakeChatRepo, *fakeUserRepo, *ws.Manager) {
	t.Helper()

	chatRepo := newFakeChatRepo()
	userRepo := newFakeUserRepo(
		&entity.User{ID: "taller-1", Role: entity.RoleTaller, Username: "Taller Uno"},
		&entity.User{ID: "tienda-1", Role: entity.RoleTienda, Username: "Repuestos SA", StoreName: "Repuestos SA"},
		&entity.User{ID: "tienda-2", Role: entity.RoleTienda, Username: "Frenos MX"},
	)

	manager := ws.NewManager()
	dispatcher := NewNotificationDispatcher(manager, broadcast.NewNoop())
	uc := NewChatUseCase(chatRepo, userRepo, manager, dispatcher)
	manager.SetEventHandler(uc)

	return uc, chatRepo, userRepo, manager
}

// registerAndJoin pushes the client through the manager's register
// loop and waits for it to land before joining the chat.
func registerAndJoin(t *testing.T, m *ws.Manager, c *ws.Client, chatID string) {
	t.Helper()
	want := m.ClientCount() + 1
	m.Register <- c
	require.Eventually(t, func() bool { return m.ClientCount() >= want }, time.Second, time.Millisecond)
	m.JoinChat(chatID, c.ID)
}

func TestGetOrCreateChatIsIdempotent(t *testing.T) {
	uc, _, _, _ := newTestUseCase(t)
	ctx := context.Background()

	input := CreateChatInput{CotizacionID: "cot-1", TiendaID: "tienda-1"}

	first, err := uc.GetOrCreateChat(ctx, "taller-1", input)
	require.NoError(t, err)

	second, err := uc.GetOrCreateChat(ctx, "taller-1", input)
	require.NoError(t, err)

	assert.Equal(t, first.Chat.ID, second.Chat.ID)
	assert.ElementsMatch(t, []string{"taller-1", "tienda-1"}, first.Chat.Participants)
	assert.Equal(t, "Repuestos SA", first.OtherUser.StoreName)
}

func TestGetOrCreateChatRejectsNonTiendaRecipient(t *testing.T) {
	uc, _, userRepo, _ := newTestUseCase(t)
	userRepo.users["taller-2"] = &entity.User{ID: "taller-2", Role: entity.RoleTaller}

	_, err := uc.GetOrCreateChat(context.Background(), "taller-1", CreateChatInput{
		CotizacionID: "cot-1",
		TiendaID:     "taller-2",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestGetOrCreateChatRejectsSelfChat(t *testing.T) {
	uc, _, _, _ := newTestUseCase(t)

	_, err := uc.GetOrCreateChat(context.Background(), "tienda-1", CreateChatInput{
		CotizacionID: "cot-1",
		TiendaID:     "tienda-1",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestSendMessagePersistsThenFansOutToAllMembers(t *testing.T) {
	uc, chatRepo, _, manager := newTestUseCase(t)
	ctx := context.Background()
	manager.Start(ctx)

	chat, err := uc.GetOrCreateChat(ctx, "taller-1", CreateChatInput{CotizacionID: "cot-1", TiendaID: "tienda-1"})
	require.NoError(t, err)

	senderTab1 := testClient("conn-1", "taller-1", entity.RoleTaller)
	senderTab2 := testClient("conn-2", "taller-1", entity.RoleTaller)
	tienda := testClient("conn-3", "tienda-1", entity.RoleTienda)
	registerAndJoin(t, manager, senderTab1, chat.Chat.ID)
	registerAndJoin(t, manager, senderTab2, chat.Chat.ID)
	registerAndJoin(t, manager, tienda, chat.Chat.ID)

	msg, err := uc.SendMessage(ctx, "taller-1", SendMessageInput{ChatID: chat.Chat.ID, Content: "necesito pastillas de freno"})
	require.NoError(t, err)
	require.NotEmpty(t, msg.ID)

	require.Len(t, chatRepo.messages[chat.Chat.ID], 1, "message is persisted")

	for _, c := range []*ws.Client{senderTab1, senderTab2, tienda} {
		events := drainEvents(t, c)
		require.Len(t, events, 1, "every member receives, sender tabs included")
		assert.Equal(t, ws.EventNewMessage, events[0].Event)
		assert.Equal(t, chat.Chat.ID, events[0].ChatID)
	}

	stored := chatRepo.chats[chat.Chat.ID]
	assert.Equal(t, "necesito pastillas de freno", stored.LastMessage)
	assert.Equal(t, 1, stored.UnreadCount["tienda-1"])
	assert.Zero(t, stored.UnreadCount["taller-1"], "sender's counter is untouched")
}

func TestSendMessageRejectsEmptyPayloadWithoutSideEffects(t *testing.T) {
	uc, chatRepo, _, manager := newTestUseCase(t)
	ctx := context.Background()
	manager.Start(ctx)

	chat, err := uc.GetOrCreateChat(ctx, "taller-1", CreateChatInput{CotizacionID: "cot-1", TiendaID: "tienda-1"})
	require.NoError(t, err)

	member := testClient("conn-1", "tienda-1", entity.RoleTienda)
	registerAndJoin(t, manager, member, chat.Chat.ID)

	_, err = uc.SendMessage(ctx, "taller-1", SendMessageInput{ChatID: chat.Chat.ID})

	require.Error(t, err)
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))
	assert.Empty(t, chatRepo.messages[chat.Chat.ID], "nothing stored")
	assert.Empty(t, drainEvents(t, member), "nothing fanned out")
}

func TestSendMessageImageOnlyIsValid(t *testing.T) {
	uc, chatRepo, _, _ := newTestUseCase(t)
	ctx := context.Background()

	chat, err := uc.GetOrCreateChat(ctx, "taller-1", CreateChatInput{CotizacionID: "cot-1", TiendaID: "tienda-1"})
	require.NoError(t, err)

	msg, err := uc.SendMessage(ctx, "taller-1", SendMessageInput{ChatID: chat.Chat.ID, ImageURL: "https://storage/chat-images/x.png"})
	require.NoError(t, err)
	assert.Empty(t, msg.Content)
	assert.Equal(t, "https://storage/chat-images/x.png", msg.ImageURL)
	assert.Equal(t, "[imagen]", chatRepo.chats[chat.Chat.ID].LastMessage, "preview shows an attachment marker, not the stale text")
}

func TestSendMessageForbiddenForNonParticipant(t *testing.T) {
	uc, chatRepo, _, _ := newTestUseCase(t)
	ctx := context.Background()

	chat, err := uc.GetOrCreateChat(ctx, "taller-1", CreateChatInput{CotizacionID: "cot-1", TiendaID: "tienda-1"})
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, "tienda-2", SendMessageInput{ChatID: chat.Chat.ID, Content: "hola"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
	assert.Empty(t, chatRepo.messages[chat.Chat.ID])
}

func TestGetChatMessagesForbiddenForNonParticipant(t *testing.T) {
	uc, _, _, _ := newTestUseCase(t)
	ctx := context.Background()

	chat, err := uc.GetOrCreateChat(ctx, "taller-1", CreateChatInput{CotizacionID: "cot-1", TiendaID: "tienda-1"})
	require.NoError(t, err)

	_, _, err = uc.GetChatMessages(ctx, "tienda-2", chat.Chat.ID, 50, 0)

	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestMarkChatAsReadDelegatesAndIsIdempotent(t *testing.T) {
	uc, chatRepo, _, _ := newTestUseCase(t)
	ctx := context.Background()

	chat, err := uc.GetOrCreateChat(ctx, "taller-1", CreateChatInput{CotizacionID: "cot-1", TiendaID: "tienda-1"})
	require.NoError(t, err)

	_, err = uc.SendMessage(ctx, "taller-1", SendMessageInput{ChatID: chat.Chat.ID, Content: "hola"})
	require.NoError(t, err)

	require.NoError(t, uc.MarkChatAsRead(ctx, "tienda-1", chat.Chat.ID))
	require.NoError(t, uc.MarkChatAsRead(ctx, "tienda-1", chat.Chat.ID))

	assert.Equal(t, 2, chatRepo.readCalls)
	assert.Equal(t, "tienda-1", chatRepo.lastReader)
	assert.Zero(t, chatRepo.chats[chat.Chat.ID].UnreadCount["tienda-1"])
}

func TestMarkChatAsReadForbiddenForNonParticipant(t *testing.T) {
	uc, _, _, _ := newTestUseCase(t)
	ctx := context.Background()

	chat, err := uc.GetOrCreateChat(ctx, "taller-1", CreateChatInput{CotizacionID: "cot-1", TiendaID: "tienda-1"})
	require.NoError(t, err)

	err = uc.MarkChatAsRead(ctx, "tienda-2", chat.Chat.ID)

	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

// slowFirstPersistRepo stalls inside the first CreateMessage call,
// opening a window in which an unserialized second send could persist
// and fan out ahead of it.
type slowFirstPersistRepo struct {
	*fakeChatRepo
	mu        sync.Mutex
	calls     int
	persisted []string
}

func (r *slowFirstPersistRepo) CreateMessage(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	r.calls++
	first := r.calls == 1
	r.mu.Unlock()

	if err := r.fakeChatRepo.CreateMessage(ctx, message); err != nil {
		return err
	}

	r.mu.Lock()
	r.persisted = append(r.persisted, message.Content)
	r.mu.Unlock()

	if first {
		time.Sleep(30 * time.Millisecond)
	}
	return nil
}

func TestConcurrentSendsDeliverInPersistedOrder(t *testing.T) {
	chatRepo := &slowFirstPersistRepo{fakeChatRepo: newFakeChatRepo()}
	userRepo := newFakeUserRepo(
		&entity.User{ID: "taller-1", Role: entity.RoleTaller},
		&entity.User{ID: "tienda-1", Role: entity.RoleTienda},
	)

	manager := ws.NewManager()
	dispatcher := NewNotificationDispatcher(manager, broadcast.NewNoop())
	uc := NewChatUseCase(chatRepo, userRepo, manager, dispatcher)
	manager.SetEventHandler(uc)

	ctx := context.Background()
	manager.Start(ctx)

	chat, err := uc.GetOrCreateChat(ctx, "taller-1", CreateChatInput{CotizacionID: "cot-1", TiendaID: "tienda-1"})
	require.NoError(t, err)

	receiver := testClient("conn-1", "tienda-1", entity.RoleTienda)
	registerAndJoin(t, manager, receiver, chat.Chat.ID)

	var wg sync.WaitGroup
	send := func(content string) {
		defer wg.Done()
		_, sendErr := uc.SendMessage(ctx, "taller-1", SendMessageInput{ChatID: chat.Chat.ID, Content: content})
		assert.NoError(t, sendErr)
	}
	wg.Add(2)
	go send("M1")
	go send("M2")
	wg.Wait()

	events := drainEvents(t, receiver)
	require.Len(t, events, 2)

	var delivered []string
	for _, event := range events {
		require.Equal(t, ws.EventNewMessage, event.Event)
		data, ok := event.Data.(map[string]interface{})
		require.True(t, ok)
		delivered = append(delivered, data["content"].(string))
	}

	assert.Equal(t, chatRepo.persisted, delivered, "a connection sees messages in the order they were persisted")
}

func TestHandleSendMessageSurfacesErrorToSenderOnly(t *testing.T) {
	uc, _, _, manager := newTestUseCase(t)
	ctx := context.Background()
	manager.Start(ctx)

	chat, err := uc.GetOrCreateChat(ctx, "taller-1", CreateChatInput{CotizacionID: "cot-1", TiendaID: "tienda-1"})
	require.NoError(t, err)

	sender := testClient("conn-1", "taller-1", entity.RoleTaller)
	peer := testClient("conn-2", "tienda-1", entity.RoleTienda)
	registerAndJoin(t, manager, sender, chat.Chat.ID)
	registerAndJoin(t, manager, peer, chat.Chat.ID)

	uc.HandleSendMessage(ctx, sender, chat.Chat.ID, "", "")

	senderEvents := drainEvents(t, sender)
	require.Len(t, senderEvents, 1)
	assert.Equal(t, ws.EventError, senderEvents[0].Event)
	assert.Empty(t, drainEvents(t, peer), "peer sees nothing on a failed send")
}
