// Image HTTP handlers.
//
//   - POST /images      (multipart upload of a playback screenshot)
//   - GET  /images/:id  (image metadata lookup)
//
// Uploaded bytes land in the configured depot directory; the row stores a
// depot-relative path so the explanation flow can read the file later.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docentlabs/go-docent-backend/internal/services"
)

// maxImageBytes caps a single screenshot upload.
const maxImageBytes = 10 << 20 // 10 MiB

// ImageResponse echoes stored image metadata.
type ImageResponse struct {
	ID          string    `json:"id"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// UploadImage accepts a multipart form with a single "file" part.
func (h *Handlers) UploadImage(c *gin.Context) {
	ctx := c.Request.Context()

	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "multipart field 'file' required")
		return
	}
	if fh.Size > maxImageBytes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "image too large")
		return
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "only image uploads are accepted")
		return
	}

	src, err := fh.Open()
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, "upload read failed")
		return
	}
	defer src.Close()

	img, err := h.imageSvc.Save(ctx, src, fh.Filename, contentType)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, "image store failed")
		return
	}

	ok(c, http.StatusCreated, ImageResponse{
		ID:          img.ID,
		ContentType: img.ContentType,
		Size:        img.Size,
		CreatedAt:   img.CreatedAt,
	})
}

// GetImage returns stored image metadata by id.
func (h *Handlers) GetImage(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	img, err := h.imageSvc.Get(ctx, id)
	if err != nil {
		if err == services.ErrImageNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "image not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "image lookup failed")
		return
	}

	ok(c, http.StatusOK, ImageResponse{
		ID:          img.ID,
		ContentType: img.ContentType,
		Size:        img.Size,
		CreatedAt:   img.CreatedAt,
	})
}
