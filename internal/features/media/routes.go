package media

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the upload route behind the given middleware
func RegisterRoutes(router *gin.RouterGroup, uploader ImageUploader, guards ...gin.HandlerFunc) {
	handler := NewHandler(uploader)

	media := router.Group("/media")
	media.Use(guards...)
	{
		media.POST("/upload", handler.UploadImage)
	}
}
