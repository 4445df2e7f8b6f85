package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/docentlabs/go-docent-backend/internal/domain"
	"github.com/docentlabs/go-docent-backend/internal/http/middleware"
	"github.com/docentlabs/go-docent-backend/internal/repo"
	"github.com/docentlabs/go-docent-backend/internal/services"
)

func init() { gin.SetMode(gin.TestMode) }

// ---------- service stubs (func fields; nil means "not expected") ----------

type stubSessionSvc struct {
	issue func(ctx context.Context, profileID string) (*services.IssuedSession, error)
}

func (s stubSessionSvc) IssueOrReuse(ctx context.Context, profileID string) (*services.IssuedSession, error) {
	return s.issue(ctx, profileID)
}

type stubVideoSvc struct {
	register func(ctx context.Context, in services.RegisterInput) (*domain.Video, bool, error)
}

func (s stubVideoSvc) Register(ctx context.Context, in services.RegisterInput) (*domain.Video, bool, error) {
	return s.register(ctx, in)
}

type stubExplainSvc struct {
	explain func(ctx context.Context, in services.ExplainInput) (*services.ExplainResult, error)
}

func (s stubExplainSvc) Explain(ctx context.Context, in services.ExplainInput) (*services.ExplainResult, error) {
	return s.explain(ctx, in)
}

type stubSettingsSvc struct {
	get    func(ctx context.Context, id string) (*domain.Setting, error)
	upsert func(ctx context.Context, id, value string, metadata datatypes.JSON) (*domain.Setting, error)
}

func (s stubSettingsSvc) Get(ctx context.Context, id string) (*domain.Setting, error) {
	return s.get(ctx, id)
}

func (s stubSettingsSvc) Upsert(ctx context.Context, id, value string, metadata datatypes.JSON) (*domain.Setting, error) {
	return s.upsert(ctx, id, value, metadata)
}

type stubImageSvc struct {
	save func(ctx context.Context, src io.Reader, filename, contentType string) (*domain.Image, error)
	get  func(ctx context.Context, id string) (*domain.Image, error)
}

func (s stubImageSvc) Save(ctx context.Context, src io.Reader, filename, contentType string) (*domain.Image, error) {
	return s.save(ctx, src, filename, contentType)
}

func (s stubImageSvc) Get(ctx context.Context, id string) (*domain.Image, error) {
	return s.get(ctx, id)
}

type stubStatsSvc struct {
	stats func(ctx context.Context) (*repo.RequestStats, error)
}

func (s stubStatsSvc) RequestStats(ctx context.Context) (*repo.RequestStats, error) {
	return s.stats(ctx)
}

type stubHistorySvc struct {
	history func(ctx context.Context, sessionID string, page, pageSize int) ([]domain.CachedRequest, int64, error)
}

func (s stubHistorySvc) History(ctx context.Context, sessionID string, page, pageSize int) ([]domain.CachedRequest, int64, error) {
	return s.history(ctx, sessionID, page, pageSize)
}

// ---------- request helpers ----------

// perform runs one request through a bare gin engine wired to fn.
func perform(t *testing.T, method, path string, body string, fn gin.HandlerFunc, pre ...gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	route := strings.SplitN(path, "?", 2)[0]
	hs := append(append([]gin.HandlerFunc{}, pre...), fn)
	r.Handle(method, routePattern(route), hs...)

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// routePattern rewrites concrete ids into gin params for registration.
func routePattern(path string) string {
	switch {
	case strings.HasPrefix(path, "/settings/"):
		return "/settings/:id"
	case strings.HasPrefix(path, "/images/") && path != "/images/":
		return "/images/:id"
	}
	return path
}

// withSession injects an authenticated session id, as the auth middleware does.
func withSession(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxKeySessionID, id)
		c.Next()
	}
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("error body not JSON: %v (%s)", err, w.Body.String())
	}
	return e
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d; want %d (body %s)", w.Code, status, w.Body.String())
	}
}
