package entity

import "time"

const (
	RoleTaller = "taller"
	RoleTienda = "tienda"
	RoleAdmin  = "admin"
)

type User struct {
	ID       string `json:"id" firestore:"id"`
	Email    string `json:"email" firestore:"email"`
	Username string `json:"username" firestore:"username"`
	Phone    string `json:"phone,omitempty" firestore:"phone,omitempty"`
	Role     string `json:"role" firestore:"role"` // "taller", "tienda", "admin"

	// Tienda-only profile fields
	StoreName  string   `json:"store_name,omitempty" firestore:"storeName,omitempty"`
	Categories []string `json:"categories,omitempty" firestore:"categories,omitempty"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}
