package media

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/habitstreak/internal/pkg/cloudinary"
	"github.com/xyz-asif/habitstreak/internal/pkg/logger"
	"github.com/xyz-asif/habitstreak/internal/pkg/response"
)

// ImageUploader stores an image and returns where it can be fetched
type ImageUploader interface {
	UploadImage(ctx context.Context, file io.Reader, filename string) (*cloudinary.UploadResult, error)
}

type Handler struct {
	uploader ImageUploader
}

func NewHandler(uploader ImageUploader) *Handler {
	return &Handler{uploader: uploader}
}

// UploadImage godoc
// @Summary Upload a habit image
// @Description Uploads an image to Cloudinary. Put the returned url into the habit's imageUrl.
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image to upload"
// @Success 200 {object} response.SuccessResponse{data=cloudinary.UploadResult}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /media/upload [post]
func (h *Handler) UploadImage(c *gin.Context) {
	if h.uploader == nil {
		response.ServiceUnavailable(c, "Image uploads are not configured", "UPLOADS_DISABLED")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "File is required", "MISSING_FILE")
		return
	}
	defer file.Close()

	if err := cloudinary.ValidateImageFile(header); err != nil {
		response.BadRequest(c, err.Error(), "INVALID_FILE")
		return
	}

	result, err := h.uploader.UploadImage(c.Request.Context(), file, header.Filename)
	if err != nil {
		logger.Error("Image upload for %s failed: %v", c.GetString("email"), err)
		response.InternalServerError(c, "Failed to upload file", "UPLOAD_FAILED")
		return
	}

	response.Success(c, result)
}
