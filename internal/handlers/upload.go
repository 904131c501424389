package handlers

import (
	"net/http"

	"codenook/internal/services"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	uploader services.ImageUploader
	maxBytes int64
}

func NewUploadHandler(uploader services.ImageUploader, maxBytes int64) *UploadHandler {
	return &UploadHandler{uploader: uploader, maxBytes: maxBytes}
}

// Upload serves POST /api/upload for images embedded in posts.
func (h *UploadHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	if err := services.CheckImage(header.Header.Get("Content-Type"), header.Size, h.maxBytes); err != nil {
		JSONError(c, err, "")
		return
	}

	f, err := header.Open()
	if err != nil {
		JSONError(c, err, "Failed to read upload")
		return
	}
	defer f.Close()

	res, err := h.uploader.Upload(c.Request.Context(), f, header.Filename)
	if err != nil {
		JSONError(c, err, "Failed to upload image")
		return
	}
	c.JSON(http.StatusOK, res)
}
