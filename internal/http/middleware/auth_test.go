package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/docentlabs/go-docent-backend/internal/domain"
	"github.com/docentlabs/go-docent-backend/internal/services"
)

type fakeValidator struct {
	sess *domain.Session
	err  error

	gotToken string
}

func (f *fakeValidator) Validate(_ context.Context, token string) (*domain.Session, error) {
	f.gotToken = token
	if f.err != nil {
		return nil, f.err
	}
	return f.sess, nil
}

func authRouter(v TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Header("X-Request-ID", "rid-auth"); c.Next() })
	r.Use(Auth(v))
	r.GET("/who", func(c *gin.Context) {
		sid, _ := c.Get(CtxKeySessionID)
		pid, _ := c.Get(CtxKeyProfileID)
		c.JSON(http.StatusOK, gin.H{"session_id": sid, "profile_id": pid})
	})
	return r
}

func TestAuth_ValidToken(t *testing.T) {
	v := &fakeValidator{sess: &domain.Session{ID: "s-1", ProfileID: "p-1"}}
	r := authRouter(v)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Authorization", "Bearer tok-abc")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if v.gotToken != "tok-abc" {
		t.Fatalf("validator got token %q", v.gotToken)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["session_id"] != "s-1" || body["profile_id"] != "p-1" {
		t.Fatalf("identities not propagated: %v", body)
	}
}

func TestAuth_MissingOrMalformedHeader(t *testing.T) {
	v := &fakeValidator{sess: &domain.Session{ID: "s-1"}}
	r := authRouter(v)

	for _, hdr := range []string{"", "tok-abc", "Basic abc", "Bearer"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/who", nil)
		if hdr != "" {
			req.Header.Set("Authorization", hdr)
		}
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: status = %d, want 401", hdr, w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["code"] != "unauthorized" {
			t.Fatalf("header %q: code = %v", hdr, body["code"])
		}
	}
	if v.gotToken != "" {
		t.Fatalf("validator should not be called for malformed headers, got %q", v.gotToken)
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	v := &fakeValidator{err: services.ErrTokenExpired}
	r := authRouter(v)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Authorization", "Bearer stale")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["code"] != "token_expired" {
		t.Fatalf("code = %v, want token_expired", body["code"])
	}
	if body["request_id"] != "rid-auth" {
		t.Fatalf("request_id = %v", body["request_id"])
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	v := &fakeValidator{err: errors.New("signature mismatch")}
	r := authRouter(v)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Authorization", "Bearer forged")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["code"] != "unauthorized" {
		t.Fatalf("code = %v, want unauthorized", body["code"])
	}
}
