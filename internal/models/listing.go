package models

import "time"

// Listing is a row in the apps table. UserID is nil for seeded entries.
type Listing struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Link        string    `json:"link"`
	UserID      *int64    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsSeeded reports whether the listing has no owning user.
func (l Listing) IsSeeded() bool { return l.UserID == nil }

// PublishRequest is the JSON body for POST /api/apps.
type PublishRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Link        string `json:"link"`
}

// Complete reports whether every field is present.
func (r PublishRequest) Complete() bool {
	return r.Name != "" && r.Description != "" && r.Image != "" && r.Link != ""
}
