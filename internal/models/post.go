package models

import "time"

// Post represents a single feed entry. CreatorID is set once, at creation,
// from the authenticated identity and never changes afterwards.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl"`
	CreatorID int64     `json:"-"`
	Creator   *Creator  `json:"creator,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
