package websocket

import (
	"context"
	"encoding/json"

	"tallerlink/pkg/logger"
)

// HandleClientMessage decodes one inbound client event and dispatches
// it. Registry-only events (join/leave/ping) are handled here; events
// that touch persistence go through the EventHandler.
func (m *Manager) HandleClientMessage(client *Client, payload []byte) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		logger.Warn("Invalid event from connection %s: %v", client.ID, err)
		m.sendError(client, "Invalid event format")
		return
	}

	switch event.Event {
	case EventPing:
		m.sendEvent(client, NewEvent(EventPong, "", map[string]string{"status": "alive"}))

	case EventJoinChat:
		if event.ChatID == "" {
			m.sendError(client, "Missing chat_id")
			return
		}
		m.JoinChat(event.ChatID, client.ID)
		logger.Info("Connection %s (user %s) joined chat %s", client.ID, client.UserID, event.ChatID)

	case EventLeaveChat:
		if event.ChatID == "" {
			m.sendError(client, "Missing chat_id")
			return
		}
		m.LeaveChat(event.ChatID, client.ID)
		logger.Info("Connection %s (user %s) left chat %s", client.ID, client.UserID, event.ChatID)

	case EventSendMessage:
		if event.ChatID == "" {
			m.sendError(client, "Missing chat_id")
			return
		}
		if m.handler == nil {
			m.sendError(client, "Messaging unavailable")
			return
		}

		var data sendMessageData
		if event.Data != nil {
			raw, err := json.Marshal(event.Data)
			if err == nil {
				if err := json.Unmarshal(raw, &data); err != nil {
					m.sendError(client, "Invalid sendMessage payload")
					return
				}
			}
		}

		// A sender that never joined is joined implicitly so its own
		// tabs stay in sync with the fan-out.
		if !m.registry.IsMember(event.ChatID, client.ID) {
			m.JoinChat(event.ChatID, client.ID)
		}

		m.handler.HandleSendMessage(context.Background(), client, event.ChatID, data.Content, data.ImageURL)

	case EventMarkChatAsRead:
		if event.ChatID == "" {
			m.sendError(client, "Missing chat_id")
			return
		}
		if m.handler == nil {
			m.sendError(client, "Messaging unavailable")
			return
		}
		m.handler.HandleMarkChatAsRead(context.Background(), client, event.ChatID)

	default:
		logger.Warn("Unknown event '%s' from connection %s", event.Event, client.ID)
		m.sendError(client, "Unknown event type")
	}
}
