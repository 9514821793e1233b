package entity

import "time"

// Message belongs to exactly one Chat. Immutable after creation except ReadBy.
// At least one of Content or ImageURL is non-empty.
type Message struct {
	ID         string    `json:"id" firestore:"id"`
	ChatID     string    `json:"chat_id" firestore:"chatId"`
	SenderID   string    `json:"sender_id" firestore:"senderId"`
	SenderRole string    `json:"sender_role,omitempty" firestore:"senderRole,omitempty"`
	Content    string    `json:"content,omitempty" firestore:"content,omitempty"`
	ImageURL   string    `json:"image_url,omitempty" firestore:"imageUrl,omitempty"`
	ReadBy     []string  `json:"read_by" firestore:"readBy"`
	CreatedAt  time.Time `json:"created_at" firestore:"createdAt"`
}
