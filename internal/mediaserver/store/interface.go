// Package store persists metadata for uploaded media.
package store

import (
	"context"
	"time"
)

// Media is one stored upload.
type Media struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	MIME      string    `db:"mime" json:"mime"`
	Size      int64     `db:"size" json:"size"`
	Width     int       `db:"width" json:"width"`
	Height    int       `db:"height" json:"height"`
	Usage     string    `db:"usage" json:"usage"`
	Path      string    `db:"path" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Repository defines persistence operations for media metadata.
type Repository interface {
	Save(ctx context.Context, m *Media) error
	Get(ctx context.Context, id string) (*Media, error)
	List(ctx context.Context, limit int) ([]*Media, error)
	Close() error
}
