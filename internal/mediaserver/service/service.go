// Package service implements upload handling for the reference media
// service: validation, dimension probing, file storage, and metadata
// persistence.
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pastekit/pastekit/internal/common/config"
	"github.com/pastekit/pastekit/internal/common/errors"
	"github.com/pastekit/pastekit/internal/common/logger"
	"github.com/pastekit/pastekit/internal/mediaserver/store"
	"github.com/pastekit/pastekit/internal/upload"
)

// Service stores uploaded images and their metadata.
type Service struct {
	repo    store.Repository
	dir     string
	baseURL string
	allowed map[string]struct{}
	maxSize int64
	logger  *logger.Logger
}

// NewService creates the media service. Files go under mediaCfg.Dir,
// metadata into repo.
func NewService(repo store.Repository, mediaCfg config.MediaConfig, pendingCfg config.PendingConfig, log *logger.Logger) (*Service, error) {
	if err := os.MkdirAll(mediaCfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	allowed := make(map[string]struct{}, len(pendingCfg.AllowedTypes))
	for _, t := range pendingCfg.AllowedTypes {
		allowed[t] = struct{}{}
	}
	return &Service{
		repo:    repo,
		dir:     mediaCfg.Dir,
		baseURL: mediaCfg.BaseURL,
		allowed: allowed,
		maxSize: pendingCfg.MaxBytes,
		logger:  log.WithComponent("media-service"),
	}, nil
}

// Store validates and persists one uploaded image, returning its metadata.
func (s *Service) Store(ctx context.Context, name string, content []byte, usage string) (*store.Media, error) {
	if len(content) == 0 {
		return nil, errors.BadRequest("empty upload body")
	}
	if int64(len(content)) > s.maxSize {
		return nil, errors.TooLarge(fmt.Sprintf("upload exceeds the %d MiB limit", s.maxSize/(1024*1024)))
	}

	mtype := mimetype.Detect(content)
	mime := mtype.String()
	if _, ok := s.allowed[mime]; !ok {
		return nil, errors.UnsupportedMedia(mime)
	}

	width, height, err := upload.ProbeDimensions(content)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read image dimensions")
	}

	id := uuid.New().String()
	path := filepath.Join(s.dir, id+mtype.Extension())
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return nil, errors.InternalError("failed to store media file", err)
	}

	m := &store.Media{
		ID:        id,
		Name:      name,
		MIME:      mime,
		Size:      int64(len(content)),
		Width:     width,
		Height:    height,
		Usage:     usage,
		Path:      path,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Save(ctx, m); err != nil {
		// Keep the filesystem consistent with the metadata store.
		os.Remove(path)
		return nil, errors.InternalError("failed to save media metadata", err)
	}

	s.logger.Info("media stored",
		zap.String("media_id", id),
		zap.String("mime", mime),
		zap.Int64("size", m.Size),
		zap.Int("width", width),
		zap.Int("height", height))
	return m, nil
}

// Get returns metadata for one stored media item.
func (s *Service) Get(ctx context.Context, id string) (*store.Media, error) {
	return s.repo.Get(ctx, id)
}

// List returns recent media metadata.
func (s *Service) List(ctx context.Context, limit int) ([]*store.Media, error) {
	return s.repo.List(ctx, limit)
}

// URLFor returns the public URL for a stored media item.
func (s *Service) URLFor(m *store.Media) string {
	return fmt.Sprintf("%s/api/v1/media/%s", s.baseURL, m.ID)
}
