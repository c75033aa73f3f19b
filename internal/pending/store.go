package pending

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/pastekit/pastekit/internal/common/logger"
	"github.com/pastekit/pastekit/pkg/host"
)

// ErrUploading is returned when removal is attempted on an image whose
// upload is in flight. Its preview may still be in use, so removal is
// refused until the upload settles.
var ErrUploading = errors.New("image is currently uploading")

// Listener receives a fresh copy of the ordered queue after every mutation.
type Listener func(images []*Image)

// AddResult reports the outcome of an enqueue call.
type AddResult struct {
	Accepted           []*Image
	RejectedByCapacity int
}

// Store is the pending-image queue. Queue order is insertion order and is
// also upload order. Every mutation synchronously notifies all subscribers
// after the mutation is fully applied; listeners run outside the store lock
// so they may call back into the store.
type Store struct {
	mu        sync.Mutex
	images    []*Image
	listeners map[int]Listener
	nextSub   int
	capacity  int
	logger    *logger.Logger
}

// NewStore creates a store bounded by capacity.
func NewStore(capacity int, log *logger.Logger) *Store {
	return &Store{
		listeners: make(map[int]Listener),
		capacity:  capacity,
		logger:    log.WithComponent("pending-store"),
	}
}

// Capacity returns the fixed queue capacity.
func (s *Store) Capacity() int {
	return s.capacity
}

// Len returns the current queue length.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

// Add appends images in the order given, up to the available capacity.
// When no slots are available nothing is added, nothing is notified, and
// every image is reported as rejected by capacity.
func (s *Store) Add(images []*Image) AddResult {
	if len(images) == 0 {
		return AddResult{}
	}

	s.mu.Lock()
	available := s.capacity - len(s.images)
	if available <= 0 {
		s.mu.Unlock()
		s.logger.Warn("pending queue is full",
			zap.Int("capacity", s.capacity),
			zap.Int("rejected", len(images)))
		return AddResult{RejectedByCapacity: len(images)}
	}

	accepted := images
	rejected := 0
	if len(images) > available {
		accepted = images[:available]
		rejected = len(images) - available
	}
	s.images = append(s.images, accepted...)
	snapshot, listeners := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("images queued",
		zap.Int("accepted", len(accepted)),
		zap.Int("rejected_by_capacity", rejected),
		zap.Int("queue_length", len(snapshot)))

	notify(listeners, snapshot)
	return AddResult{Accepted: accepted, RejectedByCapacity: rejected}
}

// Remove deletes the image with the given id, releasing its preview before
// subscribers are notified. Removing an absent id is a no-op. Removing an
// image whose upload is in flight returns ErrUploading.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	idx := -1
	for i, img := range s.images {
		if img.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}

	img := s.images[idx]
	if img.Status == StatusUploading {
		s.mu.Unlock()
		return ErrUploading
	}

	img.releasePreview()
	s.images = append(s.images[:idx], s.images[idx+1:]...)
	snapshot, listeners := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("image removed",
		zap.String("image_id", id),
		zap.Int("queue_length", len(snapshot)))

	notify(listeners, snapshot)
	return nil
}

// Clear flushes the queue, releasing every preview.
func (s *Store) Clear() {
	s.mu.Lock()
	if len(s.images) == 0 {
		s.mu.Unlock()
		return
	}
	for _, img := range s.images {
		img.releasePreview()
	}
	cleared := len(s.images)
	s.images = nil
	snapshot, listeners := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("pending queue flushed", zap.Int("released", cleared))

	notify(listeners, snapshot)
}

// SetStatus mutates an image's upload status in place and notifies
// subscribers. ErrorDetail is set only for StatusError and cleared
// otherwise.
func (s *Store) SetStatus(id string, status Status, errorDetail string) error {
	s.mu.Lock()
	var target *Image
	for _, img := range s.images {
		if img.ID == id {
			target = img
			break
		}
	}
	if target == nil {
		s.mu.Unlock()
		return errors.New("image not found: " + id)
	}

	target.Status = status
	if status == StatusError {
		target.ErrorDetail = errorDetail
	} else {
		target.ErrorDetail = ""
	}
	snapshot, listeners := s.snapshotLocked()
	s.mu.Unlock()

	notify(listeners, snapshot)
	return nil
}

// Subscribe registers a listener for queue changes. The returned function
// removes the subscription.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Snapshot returns a copy of the ordered queue.
func (s *Store) Snapshot() []*Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Image, len(s.images))
	copy(out, s.images)
	return out
}

// Views projects the queue for host-side rendering.
func (s *Store) Views() []host.ImageView {
	s.mu.Lock()
	defer s.mu.Unlock()
	views := make([]host.ImageView, 0, len(s.images))
	for _, img := range s.images {
		views = append(views, img.View())
	}
	return views
}

// snapshotLocked copies the queue and the listener set while the lock is
// held, so notification can happen outside it.
func (s *Store) snapshotLocked() ([]*Image, []Listener) {
	snapshot := make([]*Image, len(s.images))
	copy(snapshot, s.images)
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	return snapshot, listeners
}

func notify(listeners []Listener, snapshot []*Image) {
	for _, fn := range listeners {
		fn(snapshot)
	}
}
