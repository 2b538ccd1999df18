package model

import "time"

// User is an authenticated principal. API tokens are opaque and looked
// up verbatim; how tokens are issued is outside this service.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	APIToken  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
