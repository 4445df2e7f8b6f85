// Video HTTP handlers.
//
// This file exposes the registration endpoint:
//   - POST /videos   (register or update a video's metadata)
//
// The first registration of a video identifier kicks off background reference
// collection; subsequent registrations only refresh metadata. Both outcomes
// return 200 — clients cannot and should not distinguish them by status.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docentlabs/go-docent-backend/internal/services"
)

// RegisterVideoRequest is the JSON payload for registering a video.
type RegisterVideoRequest struct {
	// VideoID is the platform-scoped identifier. It must be non-empty.
	VideoID  string `json:"video_id" binding:"required,min=1"`
	Platform string `json:"platform"`
	Title    string `json:"title"`
	Lang     string `json:"lang"`
	Season   *int   `json:"season"`
	Episode  *int   `json:"episode"`
	Duration *int   `json:"duration"`
	URL      string `json:"url"`
}

// RegisterVideoResponse echoes the stored row after registration.
type RegisterVideoResponse struct {
	VideoID   string    `json:"video_id"`
	Platform  string    `json:"platform"`
	Title     string    `json:"title"`
	Lang      string    `json:"lang"`
	Created   bool      `json:"created"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RegisterVideo inserts or refreshes a video metadata record.
func (h *Handlers) RegisterVideo(c *gin.Context) {
	ctx := c.Request.Context()

	var req RegisterVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "video_id required")
		return
	}

	v, created, err := h.videoSvc.Register(ctx, services.RegisterInput{
		VideoID:  req.VideoID,
		Platform: req.Platform,
		Title:    req.Title,
		Lang:     req.Lang,
		Season:   req.Season,
		Episode:  req.Episode,
		Duration: req.Duration,
		URL:      req.URL,
	})
	if err != nil {
		switch err {
		case services.ErrMissingVideoID:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "video_id required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeRegisterFailed, "video registration failed")
		}
		return
	}

	ok(c, http.StatusOK, RegisterVideoResponse{
		VideoID:   v.VideoID,
		Platform:  v.Platform,
		Title:     v.Title,
		Lang:      v.Lang,
		Created:   created,
		UpdatedAt: v.UpdatedAt,
	})
}
