package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pastekit/pastekit/internal/common/errors"
	"github.com/pastekit/pastekit/internal/common/logger"
	"github.com/pastekit/pastekit/internal/mediaserver/service"
	"github.com/pastekit/pastekit/internal/mediaserver/store"
)

// Handler contains HTTP handlers for the media API.
type Handler struct {
	service *service.Service
	logger  *logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{
		service: svc,
		logger:  log,
	}
}

// UploadMedia stores an uploaded image.
// POST /api/v1/media
// Accepts a multipart form with a "file" field, or the raw image as the
// request body.
func (h *Handler) UploadMedia(c *gin.Context) {
	name, content, err := readUpload(c)
	if err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	usage := c.Query("usage")
	if usage == "" {
		usage = c.PostForm("usage")
	}

	m, err := h.service.Store(c.Request.Context(), name, content, usage)
	if err != nil {
		h.logger.Error("failed to store media", zap.Error(err))
		appErr := errors.Wrap(err, "failed to store media")
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusCreated, h.mediaToResponse(m))
}

// GetMedia serves a stored media file.
// GET /api/v1/media/:mediaId
func (h *Handler) GetMedia(c *gin.Context) {
	mediaID := c.Param("mediaId")
	if mediaID == "" {
		appErr := errors.BadRequest("mediaId is required")
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	m, err := h.service.Get(c.Request.Context(), mediaID)
	if err != nil {
		appErr := errors.NotFound("media", mediaID)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.Header("Content-Type", m.MIME)
	c.File(m.Path)
}

// ListMedia returns recent uploads.
// GET /api/v1/media
func (h *Handler) ListMedia(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	items, err := h.service.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list media", zap.Error(err))
		appErr := errors.InternalError("failed to list media", err)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	resp := ListMediaResponse{Media: make([]MediaResponse, 0, len(items))}
	for _, m := range items {
		resp.Media = append(resp.Media, h.mediaToResponse(m))
	}
	resp.Count = len(resp.Media)
	c.JSON(http.StatusOK, resp)
}

// HealthCheck reports service health.
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) mediaToResponse(m *store.Media) MediaResponse {
	return MediaResponse{
		ID:        m.ID,
		URL:       h.service.URLFor(m),
		Name:      m.Name,
		MIME:      m.MIME,
		Size:      m.Size,
		Width:     m.Width,
		Height:    m.Height,
		Usage:     m.Usage,
		CreatedAt: m.CreatedAt,
	}
}

// readUpload extracts the upload payload from either a multipart form or
// the raw request body.
func readUpload(c *gin.Context) (name string, content []byte, err error) {
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return "", nil, err
		}
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			return "", nil, err
		}
		return file.Filename, content, nil
	}

	content, err = io.ReadAll(c.Request.Body)
	if err != nil {
		return "", nil, err
	}
	return c.Query("name"), content, nil
}
