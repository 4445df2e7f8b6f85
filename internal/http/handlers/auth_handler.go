// Auth HTTP handlers.
//
// This file exposes the session issuance endpoint:
//   - POST /auth/token   (mint or reuse a session for the calling profile)
//
// The profile identity arrives in the X-Profile-ID header; there is no
// password exchange. Reuse-first semantics mean repeated calls from the same
// profile return the same token with an extended expiry.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docentlabs/go-docent-backend/internal/services"
)

// TokenResponse is the JSON envelope for an issued (or reused) session.
type TokenResponse struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Reused    bool      `json:"reused"`
}

// IssueToken mints a session token for the calling profile, or returns the
// profile's existing valid token with a pushed-out expiry.
func (h *Handlers) IssueToken(c *gin.Context) {
	ctx := c.Request.Context()

	profile := profileID(c)
	if profile == "" {
		fail(c, http.StatusBadRequest, ErrCodeMissingProfile, "X-Profile-ID header required")
		return
	}

	issued, err := h.sessionSvc.IssueOrReuse(ctx, profile)
	if err != nil {
		if err == services.ErrMissingProfile {
			fail(c, http.StatusBadRequest, ErrCodeMissingProfile, "X-Profile-ID header required")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "session issuance failed")
		return
	}

	ok(c, http.StatusOK, TokenResponse{
		Token:     issued.Token,
		SessionID: issued.SessionID,
		ExpiresAt: issued.ExpiresAt,
		Reused:    issued.Reused,
	})
}
