package api

import (
	"github.com/gin-gonic/gin"

	"github.com/pastekit/pastekit/internal/common/logger"
	"github.com/pastekit/pastekit/internal/mediaserver/service"
)

// SetupRoutes configures the media API routes.
func SetupRoutes(router *gin.RouterGroup, svc *service.Service, log *logger.Logger) {
	handler := NewHandler(svc, log)

	media := router.Group("/media")
	{
		media.POST("", handler.UploadMedia)
		media.GET("", handler.ListMedia)
		media.GET("/:mediaId", handler.GetMedia)
	}
}
