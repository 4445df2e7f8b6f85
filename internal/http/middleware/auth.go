// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides Auth, the bearer-token gate for the API surface. It
// validates the session token minted by the auth endpoint, resolves it to a
// live session row, and stores the session and profile identities in the Gin
// context for downstream handlers and middleware (logging, rate limiting).
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/docentlabs/go-docent-backend/internal/domain"
	"github.com/docentlabs/go-docent-backend/internal/services"
)

const (
	// CtxKeySessionID is the Gin context key holding the validated session ID.
	CtxKeySessionID = "sessionID"
	// CtxKeyProfileID is the Gin context key holding the session's profile ID.
	CtxKeyProfileID = "profileID"
)

// TokenValidator resolves a bearer token to a live session.
// Implemented by *services.SessionService.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*domain.Session, error)
}

// Auth returns a Gin middleware that requires a valid Bearer token.
//
// Responses use the standard error envelope. Expired tokens get their own
// code so clients know to mint a new token rather than retry:
//
//	401 {"request_id": "...", "code": "token_expired", "message": "token expired"}
//	401 {"request_id": "...", "code": "unauthorized",  "message": "invalid or missing token"}
func Auth(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			abortUnauthorized(c, "unauthorized", "invalid or missing token")
			return
		}

		sess, err := v.Validate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrTokenExpired) {
				abortUnauthorized(c, "token_expired", "token expired")
				return
			}
			abortUnauthorized(c, "unauthorized", "invalid or missing token")
			return
		}

		c.Set(CtxKeySessionID, sess.ID)
		c.Set(CtxKeyProfileID, sess.ProfileID)
		c.Next()
	}
}

// bearerToken extracts the credential from an Authorization header value.
func bearerToken(h string) string {
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

func abortUnauthorized(c *gin.Context, code, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       code,
		"message":    msg,
	})
}
