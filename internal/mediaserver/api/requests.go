// Package api provides HTTP handlers for the reference media service API.
package api

import "time"

// MediaResponse represents a stored media item in API responses.
type MediaResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Name      string    `json:"name"`
	MIME      string    `json:"mime"`
	Size      int64     `json:"size"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Usage     string    `json:"usage"`
	CreatedAt time.Time `json:"created_at"`
}

// ListMediaResponse wraps a media listing.
type ListMediaResponse struct {
	Media []MediaResponse `json:"media"`
	Count int             `json:"count"`
}
