package websocket

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"tallerlink/pkg/logger"
)

// Client represents one live authenticated socket. A user may hold
// several clients at once (multiple tabs); each gets its own id.
type Client struct {
	ID     string
	UserID string
	Role   string
	Conn   *websocket.Conn
	Send   chan []byte
}

// Manager owns all active connections and the channel registry. It is
// the single fan-out point: callers never touch sockets directly.
type Manager struct {
	clients     map[string]*Client            // connection id -> client
	userClients map[string]map[string]*Client // user id -> connection id -> client
	registry    *Registry
	handler     EventHandler
	Register    chan *Client
	Unregister  chan *Client
	mutex       sync.RWMutex
}

// EventHandler processes inbound client events that need persistence.
// Implemented by the chat use case; wired after construction to break
// the manager/use-case cycle.
type EventHandler interface {
	HandleSendMessage(ctx context.Context, client *Client, chatID, content, imageURL string)
	HandleMarkChatAsRead(ctx context.Context, client *Client, chatID string)
}

func NewManager() *Manager {
	return &Manager{
		clients:     make(map[string]*Client),
		userClients: make(map[string]map[string]*Client),
		registry:    NewRegistry(),
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
	}
}

func (m *Manager) SetEventHandler(handler EventHandler) {
	m.handler = handler
}

func (m *Manager) Registry() *Registry {
	return m.registry
}

// Start runs the manager's register/unregister loop in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.addClient(client)
				logger.Info("Client registered: conn=%s user=%s role=%s", client.ID, client.UserID, client.Role)

			case client := <-m.Unregister:
				m.RemoveClient(client.ID)
				logger.Info("Client unregistered: conn=%s user=%s", client.ID, client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *Manager) addClient(client *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.clients[client.ID] = client
	if m.userClients[client.UserID] == nil {
		m.userClients[client.UserID] = make(map[string]*Client)
	}
	m.userClients[client.UserID][client.ID] = client
}

// RemoveClient releases all channel memberships and drops the client.
// Idempotent: removing an already-gone connection is a no-op.
func (m *Manager) RemoveClient(connID string) {
	m.mutex.Lock()
	client, ok := m.clients[connID]
	if ok {
		delete(m.clients, connID)
		if conns, exists := m.userClients[client.UserID]; exists {
			delete(conns, connID)
			if len(conns) == 0 {
				delete(m.userClients, client.UserID)
			}
		}
		close(client.Send)
	}
	m.mutex.Unlock()

	if ok {
		m.registry.LeaveAll(connID)
	}
}

// JoinChat registers the connection under chatID in the registry.
func (m *Manager) JoinChat(chatID, connID string) {
	m.registry.Join(chatID, connID)
}

func (m *Manager) LeaveChat(chatID, connID string) {
	m.registry.Leave(chatID, connID)
}

// SendToChat fans one payload out to every member of chatID, the
// sender's own other connections included. Delivery is best effort per
// member: a dead connection is evicted, the rest still receive.
func (m *Manager) SendToChat(chatID string, payload []byte) {
	for _, connID := range m.registry.MembersOf(chatID) {
		m.mutex.RLock()
		client, ok := m.clients[connID]
		m.mutex.RUnlock()
		if !ok {
			continue
		}
		m.sendToClient(client, payload)
	}
}

// SendToUser pushes a payload to every live connection of one user.
// No-op when the user is not connected.
func (m *Manager) SendToUser(userID string, payload []byte) {
	m.mutex.RLock()
	conns := make([]*Client, 0, len(m.userClients[userID]))
	for _, client := range m.userClients[userID] {
		conns = append(conns, client)
	}
	m.mutex.RUnlock()

	for _, client := range conns {
		m.sendToClient(client, payload)
	}
}

// ConnectedUserCount reports how many distinct users are online.
func (m *Manager) ConnectedUserCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.userClients)
}

// ClientCount reports how many live connections exist.
func (m *Manager) ClientCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

func (m *Manager) sendToClient(client *Client, payload []byte) {
	defer func() {
		// Send races with the unregister path closing the channel; a
		// delivery failure to one member must never take down fan-out.
		if r := recover(); r != nil {
			logger.Warn("Dropped payload for closed connection %s", client.ID)
		}
	}()

	select {
	case client.Send <- payload:
	default:
		logger.Warn("Client %s send buffer full, evicting connection", client.ID)
		m.RemoveClient(client.ID)
	}
}

func (m *Manager) sendEvent(client *Client, event Event) {
	payload, err := event.Marshal()
	if err != nil {
		logger.Error("Failed to marshal %s event for client %s: %v", event.Event, client.ID, err)
		return
	}
	m.sendToClient(client, payload)
}

// SendErrorToClient surfaces an error to one connection only; other
// members of any chat are unaffected.
func (m *Manager) SendErrorToClient(client *Client, message string) {
	m.sendError(client, message)
}

func (m *Manager) sendError(client *Client, message string) {
	m.sendEvent(client, NewEvent(EventError, "", map[string]string{"error": message}))
}

// ReadPump reads inbound events from the socket until it closes, then
// unregisters the connection.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, payload, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("Read error on connection %s: %v", c.ID, err)
			}
			break
		}

		m.HandleClientMessage(c, payload)
	}
}

// WritePump drains the send channel to the socket. One writer per
// connection keeps per-chat delivery order intact.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		payload, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Warn("Write error on connection %s: %v", c.ID, err)
			return
		}
	}
}
