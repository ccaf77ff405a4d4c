package models

import "time"

// User represents a registered account in the system
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // Not serialized
	Status       string    `json:"status"`
	Posts        []int64   `json:"posts"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Creator is the denormalized author summary attached to post responses
// and broadcast events.
type Creator struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
