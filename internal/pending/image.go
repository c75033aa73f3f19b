// Package pending implements the authoritative in-memory queue of images
// staged for upload but not yet sent.
package pending

import (
	"github.com/google/uuid"

	"github.com/pastekit/pastekit/pkg/host"
)

// Status is the upload state of a queued image.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusError     Status = "error"
)

// Image is one queued, not-yet-sent image. Content is exclusively owned by
// the entity. Preview is a display-only resource derived from Content and
// is released exactly once, either on removal or on the post-send flush.
type Image struct {
	ID          string
	Name        string
	MIME        string
	Content     []byte
	Preview     *Preview
	Status      Status
	ErrorDetail string
}

// NewImage creates a queued image with a fresh process-unique id.
func NewImage(name, mime string, content []byte) *Image {
	return &Image{
		ID:      uuid.New().String(),
		Name:    name,
		MIME:    mime,
		Content: content,
		Status:  StatusPending,
	}
}

// View projects the image for host-side rendering. Removal is inert while
// the image is uploading.
func (img *Image) View() host.ImageView {
	v := host.ImageView{
		ID:          img.ID,
		Name:        img.Name,
		MIME:        img.MIME,
		Status:      string(img.Status),
		ErrorDetail: img.ErrorDetail,
		Removable:   img.Status != StatusUploading,
	}
	if img.Preview != nil {
		v.PreviewPath = img.Preview.Path()
	}
	return v
}

func (img *Image) releasePreview() {
	if img.Preview != nil {
		img.Preview.Release()
	}
}
