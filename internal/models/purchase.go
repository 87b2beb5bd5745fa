package models

import "time"

// Purchase is a persisted purchase record. Any non-empty Token marks the album as purchased.
type Purchase struct {
	Key       string    `json:"key"`
	AlbumID   string    `json:"album_id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Valid reports whether the record counts as a purchase.
func (p Purchase) Valid() bool {
	return p.Token != ""
}
