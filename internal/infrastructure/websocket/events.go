package websocket

import (
	"encoding/json"
	"time"
)

// Inbound event names
const (
	EventPing           = "ping"
	EventJoinChat       = "joinChat"
	EventLeaveChat      = "leaveChat"
	EventSendMessage    = "sendMessage"
	EventMarkChatAsRead = "markChatAsRead"
)

// Outbound event names
const (
	EventPong          = "pong"
	EventError         = "error"
	EventNewMessage    = "newMessage"
	EventNewCotizacion = "newCotizacion"
	EventNewOferta     = "newOferta"
	EventNewPedido     = "newPedido"
	EventPedidoUpdate  = "pedidoUpdate"
)

// Event is the wire envelope for both directions.
type Event struct {
	Event     string      `json:"event"`
	ChatID    string      `json:"chat_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func NewEvent(event, chatID string, data interface{}) Event {
	return Event{
		Event:     event,
		ChatID:    chatID,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

type sendMessageData struct {
	Content  string `json:"content"`
	ImageURL string `json:"image_url"`
}
