package entity

import "time"

// Pedido is a confirmed purchase derived from an accepted oferta.
// Notification payload only; persistence lives in the CRUD layer.
type Pedido struct {
	ID           string    `json:"id" firestore:"id"`
	OfertaID     string    `json:"oferta_id" firestore:"ofertaId"`
	CotizacionID string    `json:"cotizacion_id" firestore:"cotizacionId"`
	TallerUserID string    `json:"taller_user_id" firestore:"tallerUserId"`
	TiendaUserID string    `json:"tienda_user_id" firestore:"tiendaUserId"`
	Status       string    `json:"status" firestore:"status"`
	Total        float64   `json:"total" firestore:"total"`
	CreatedAt    time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt    time.Time `json:"updated_at" firestore:"updatedAt"`
}
