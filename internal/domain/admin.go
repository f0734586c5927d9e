package domain

import "time"

// Admin is a row in the admin role store. UserID is empty until the invited
// email signs in for the first time and the row is claimed.
type Admin struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// User is a known storefront user, assembled from admins and order history.
type User struct {
	ID        string    `json:"id,omitempty"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}
