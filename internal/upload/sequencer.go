// Package upload drives the one-at-a-time upload of the pending queue.
package upload

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/pastekit/pastekit/internal/common/logger"
	"github.com/pastekit/pastekit/internal/events"
	"github.com/pastekit/pastekit/internal/events/bus"
	"github.com/pastekit/pastekit/internal/pending"
	"github.com/pastekit/pastekit/pkg/host"
)

// ErrSendInProgress signals that a send sequence is already running.
// Concurrent triggers are coalesced: the later one observes this error and
// treats the invocation as a no-op.
var ErrSendInProgress = errors.New("a send is already in progress")

// Result records one successful upload. The result list preserves queue
// order.
type Result struct {
	ID     string
	URL    string
	Width  int
	Height int
}

// Sequencer uploads queued images strictly in queue order, one at a time.
// Sequential processing bounds concurrent memory and network use for
// potentially large images and keeps per-item status transitions
// unambiguous to any observer.
type Sequencer struct {
	store    *pending.Store
	uploader host.Uploader
	bus      bus.EventBus
	inFlight atomic.Bool
	logger   *logger.Logger
}

// NewSequencer creates a sequencer over the pending queue. eventBus may be
// nil; upload progress is then not announced on the bus.
func NewSequencer(store *pending.Store, uploader host.Uploader, eventBus bus.EventBus, log *logger.Logger) *Sequencer {
	return &Sequencer{
		store:    store,
		uploader: uploader,
		bus:      eventBus,
		logger:   log.WithComponent("upload-sequencer"),
	}
}

// InFlight reports whether a send sequence is currently running.
func (s *Sequencer) InFlight() bool {
	return s.inFlight.Load()
}

// Run uploads the current queue snapshot in order. Each item transitions
// pending -> uploading -> pending on success. On the first failure the item
// is marked with the error detail, the sequence aborts, and none of this
// invocation's successful results are used.
func (s *Sequencer) Run(ctx context.Context) ([]Result, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSendInProgress
	}
	defer s.inFlight.Store(false)

	snapshot := s.store.Snapshot()
	results := make([]Result, 0, len(snapshot))
	for _, img := range snapshot {
		if err := s.store.SetStatus(img.ID, pending.StatusUploading, ""); err != nil {
			// Removed between snapshot and upload; nothing to send for it.
			continue
		}

		s.publish(ctx, events.UploadStarted, map[string]interface{}{
			"image_id": img.ID,
			"name":     img.Name,
		})

		res, err := s.uploadOne(ctx, img)
		if err != nil {
			_ = s.store.SetStatus(img.ID, pending.StatusError, err.Error())
			s.logger.Error("upload failed",
				zap.String("image_id", img.ID),
				zap.String("name", img.Name),
				zap.Error(err))
			s.publish(ctx, events.UploadFailed, map[string]interface{}{
				"image_id": img.ID,
				"name":     img.Name,
				"error":    err.Error(),
			})
			return nil, fmt.Errorf("upload of %q failed: %w", img.Name, err)
		}

		_ = s.store.SetStatus(img.ID, pending.StatusPending, "")
		s.logger.Info("image uploaded",
			zap.String("image_id", img.ID),
			zap.String("url", res.URL),
			zap.Int("width", res.Width),
			zap.Int("height", res.Height))
		s.publish(ctx, events.UploadCompleted, map[string]interface{}{
			"image_id": img.ID,
			"url":      res.URL,
		})
		results = append(results, *res)
	}
	return results, nil
}

func (s *Sequencer) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, events.SubjectUploads, bus.NewEvent(eventType, "pastekit", data)); err != nil {
		s.logger.Warn("failed to publish upload event",
			zap.String("type", eventType),
			zap.Error(err))
	}
}

func (s *Sequencer) uploadOne(ctx context.Context, img *pending.Image) (*Result, error) {
	width, height, err := ProbeDimensions(img.Content)
	if err != nil {
		return nil, err
	}

	out, err := s.uploader.Upload(ctx, img.Content, host.UploadOptions{Usage: "chat"})
	if err != nil {
		return nil, err
	}

	return &Result{
		ID:     img.ID,
		URL:    out.URL,
		Width:  width,
		Height: height,
	}, nil
}
