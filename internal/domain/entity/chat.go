package entity

import "time"

// Chat is a conversation scoped to exactly one (cotizacion, tienda) pair.
// At most one chat exists per pair; creation is idempotent.
type Chat struct {
	ID            string         `json:"id" firestore:"id"`
	CotizacionID  string         `json:"cotizacion_id" firestore:"cotizacionId"`
	TiendaID      string         `json:"tienda_id" firestore:"tiendaId"`
	Participants  []string       `json:"participants" firestore:"participants"`
	LastMessage   string         `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageAt time.Time      `json:"last_message_at" firestore:"lastMessageAt"`
	UnreadCount   map[string]int `json:"unread_count" firestore:"unreadCount"` // Map of userID to unread count
	CreatedAt     time.Time      `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time      `json:"updated_at" firestore:"updatedAt"`
}
