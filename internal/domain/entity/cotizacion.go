package entity

import "time"

// Cotizacion is a taller's request for parts, the anchor entity chats
// attach to. Owned by the CRUD layer; carried here as a notification
// payload only.
type Cotizacion struct {
	ID           string    `json:"id" firestore:"id"`
	TallerUserID string    `json:"taller_user_id" firestore:"tallerUserId"`
	Title        string    `json:"title" firestore:"title"`
	Category     string    `json:"category" firestore:"category"`
	Status       string    `json:"status" firestore:"status"`
	CreatedAt    time.Time `json:"created_at" firestore:"createdAt"`
}
