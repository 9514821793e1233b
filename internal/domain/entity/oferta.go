package entity

import "time"

// Oferta is a tienda's priced response to a cotizacion. Notification
// payload only; persistence lives in the CRUD layer.
type Oferta struct {
	ID              string    `json:"id" firestore:"id"`
	CotizacionID    string    `json:"cotizacion_id" firestore:"cotizacionId"`
	CotizacionTitle string    `json:"cotizacion_title,omitempty" firestore:"cotizacionTitle,omitempty"`
	TallerUserID    string    `json:"taller_user_id" firestore:"tallerUserId"`
	TiendaID        string    `json:"tienda_id" firestore:"tiendaId"`
	TiendaUserID    string    `json:"tienda_user_id" firestore:"tiendaUserId"`
	StoreName       string    `json:"store_name,omitempty" firestore:"storeName,omitempty"`
	Total           float64   `json:"total" firestore:"total"`
	CreatedAt       time.Time `json:"created_at" firestore:"createdAt"`
}
