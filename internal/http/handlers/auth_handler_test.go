package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docentlabs/go-docent-backend/internal/services"
)

func issueTokenRequest(t *testing.T, h *Handlers, profile string) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.POST("/auth/token", h.IssueToken)

	req := httptest.NewRequest(http.MethodPost, "/auth/token", nil)
	if profile != "" {
		req.Header.Set("X-Profile-ID", profile)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIssueToken_Success(t *testing.T) {
	expires := time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)
	var gotProfile string
	h := New(stubSessionSvc{issue: func(ctx context.Context, profileID string) (*services.IssuedSession, error) {
		gotProfile = profileID
		return &services.IssuedSession{Token: "tok-1", SessionID: "sess-1", ExpiresAt: expires, Reused: true}, nil
	}}, nil, nil, nil, nil, nil, nil)

	w := issueTokenRequest(t, h, "profile-1")
	wantStatus(t, w, http.StatusOK)
	if gotProfile != "profile-1" {
		t.Fatalf("service got profile %q", gotProfile)
	}

	var body TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if body.Token != "tok-1" || body.SessionID != "sess-1" || !body.Reused {
		t.Fatalf("body = %+v", body)
	}
	if !body.ExpiresAt.Equal(expires) {
		t.Fatalf("expires_at = %v; want %v", body.ExpiresAt, expires)
	}
}

func TestIssueToken_MissingProfileHeader(t *testing.T) {
	h := New(stubSessionSvc{issue: func(ctx context.Context, profileID string) (*services.IssuedSession, error) {
		t.Fatal("service must not be called without a profile")
		return nil, nil
	}}, nil, nil, nil, nil, nil, nil)

	w := issueTokenRequest(t, h, "")
	wantStatus(t, w, http.StatusBadRequest)
	if e := decodeErr(t, w); e.Code != ErrCodeMissingProfile {
		t.Fatalf("code = %q; want %q", e.Code, ErrCodeMissingProfile)
	}
}

func TestIssueToken_ServiceFailure(t *testing.T) {
	h := New(stubSessionSvc{issue: func(ctx context.Context, profileID string) (*services.IssuedSession, error) {
		return nil, errors.New("db down")
	}}, nil, nil, nil, nil, nil, nil)

	w := issueTokenRequest(t, h, "p")
	wantStatus(t, w, http.StatusInternalServerError)
	if e := decodeErr(t, w); e.Code != ErrCodeInternal {
		t.Fatalf("code = %q; want %q", e.Code, ErrCodeInternal)
	}
}
