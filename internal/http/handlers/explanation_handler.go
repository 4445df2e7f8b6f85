// Explanation HTTP handlers.
//
// This file exposes the core endpoint:
//   - POST /explanations   (explain a selected subtitle span)
//
// The handler is transport-thin: input validation and the cache-or-generate
// decision live in the ExplainService. Generation-backend failures surface
// as retryable upstream codes; the backend itself never retries them.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docentlabs/go-docent-backend/internal/ai"
	"github.com/docentlabs/go-docent-backend/internal/services"
)

//
// DTOs
//

// SubtitleLine is one prior subtitle entry provided as context.
type SubtitleLine struct {
	Text      string  `json:"text"`
	Timestamp float64 `json:"timestamp"`
}

// ExplainRequest is the JSON payload for requesting an explanation.
type ExplainRequest struct {
	// VideoID is the platform-scoped identifier of the video being watched.
	VideoID string `json:"video_id" binding:"required,min=1"`
	// SelectedText is the subtitle span the viewer highlighted.
	SelectedText string `json:"selected_text" binding:"required,min=1"`
	// Timestamp is the playback position in seconds.
	Timestamp float64 `json:"timestamp"`
	// Language selects the answer language; defaults server-side.
	Language string `json:"language"`

	Context         []SubtitleLine `json:"context"`
	CurrentSubtitle string         `json:"current_subtitle"`
	NonverbalCues   string         `json:"nonverbal_cues"`
	ImageID         string         `json:"image_id"`

	// VideoTitle and Platform stand in when the video is not yet registered.
	VideoTitle string `json:"video_title"`
	Platform   string `json:"platform"`
}

// ExplainSourceDTO is one provenance entry in the response.
type ExplainSourceDTO struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// ExplainResponse is the JSON envelope for an explanation.
type ExplainResponse struct {
	Explanation    string             `json:"explanation"`
	Sources        []ExplainSourceDTO `json:"sources"`
	References     []ExplainSourceDTO `json:"references"`
	Cached         bool               `json:"cached"`
	ResponseTimeMs int64              `json:"response_time_ms"`
}

// Explain answers a selected-text explanation request, replaying the cached
// answer when an identical request was served before.
func (h *Handlers) Explain(c *gin.Context) {
	ctx := c.Request.Context()

	var req ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "video_id and selected_text required")
		return
	}

	in := services.ExplainInput{
		VideoID:          req.VideoID,
		SelectedText:     req.SelectedText,
		Timestamp:        req.Timestamp,
		Language:         req.Language,
		CurrentSubtitle:  req.CurrentSubtitle,
		NonverbalCues:    req.NonverbalCues,
		ImageID:          req.ImageID,
		FallbackTitle:    req.VideoTitle,
		FallbackPlatform: req.Platform,
		SessionID:        sessionID(c),
	}
	for _, line := range req.Context {
		in.Context = append(in.Context, services.ContextEntry{Text: line.Text, Timestamp: line.Timestamp})
	}

	res, err := h.explainSvc.Explain(ctx, in)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingVideoID), errors.Is(err, services.ErrEmptySelection):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrSettingNotFound):
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "explanation prompt not configured")
		case errors.Is(err, ai.ErrQuotaExceeded):
			fail(c, http.StatusTooManyRequests, ErrCodeQuotaExceeded, "generation quota exceeded, retry later")
		case errors.Is(err, ai.ErrTimeout):
			fail(c, http.StatusGatewayTimeout, ErrCodeUpstreamTimeout, "generation timed out, retry later")
		case errors.Is(err, ai.ErrMalformed), errors.Is(err, ai.ErrUnavailable):
			fail(c, http.StatusBadGateway, ErrCodeUpstreamError, "generation backend error, retry later")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "explanation failed")
		}
		return
	}

	out := ExplainResponse{
		Explanation:    res.Explanation,
		Sources:        make([]ExplainSourceDTO, 0, len(res.Sources)),
		References:     make([]ExplainSourceDTO, 0, len(res.References)),
		Cached:         res.Cached,
		ResponseTimeMs: res.Duration.Milliseconds(),
	}
	for _, s := range res.Sources {
		out.Sources = append(out.Sources, ExplainSourceDTO{Type: s.Type, Title: s.Title, URL: s.URL})
	}
	for _, r := range res.References {
		out.References = append(out.References, ExplainSourceDTO{Type: r.Type, Title: r.Title, URL: r.URL})
	}

	ok(c, http.StatusOK, out)
}
