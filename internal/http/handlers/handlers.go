// Handler wiring and service contracts.
//
// Handlers are transport-thin: they validate and normalize inputs, delegate to
// application services, and translate service errors into the standard
// envelope. All business decisions (session reuse, registration dedup, cache
// orchestration) live behind the interfaces below.
package handlers

import (
	"context"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/docentlabs/go-docent-backend/internal/domain"
	"github.com/docentlabs/go-docent-backend/internal/http/middleware"
	"github.com/docentlabs/go-docent-backend/internal/repo"
	"github.com/docentlabs/go-docent-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// SessionService issues and reuses profile-scoped sessions.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type SessionService interface {
	// IssueOrReuse returns the profile's live session (expiry extended) or a
	// freshly minted one.
	IssueOrReuse(ctx context.Context, profileID string) (*services.IssuedSession, error)
}

// VideoService registers video metadata and triggers first-time reference
// collection.
type VideoService interface {
	// Register inserts or updates a video row; the bool reports creation.
	Register(ctx context.Context, in services.RegisterInput) (*domain.Video, bool, error)
}

// ExplainService answers selected-text explanation requests.
type ExplainService interface {
	Explain(ctx context.Context, in services.ExplainInput) (*services.ExplainResult, error)
}

// SettingsService reads and updates persisted configuration values.
type SettingsService interface {
	Get(ctx context.Context, id string) (*domain.Setting, error)
	Upsert(ctx context.Context, id, value string, metadata datatypes.JSON) (*domain.Setting, error)
}

// ImageService stores uploaded screenshots and resolves them by id.
type ImageService interface {
	Save(ctx context.Context, src io.Reader, filename, contentType string) (*domain.Image, error)
	Get(ctx context.Context, id string) (*domain.Image, error)
}

// StatsService aggregates usage counters over answered requests.
type StatsService interface {
	RequestStats(ctx context.Context) (*repo.RequestStats, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the API surface. It depends on
// abstract service interfaces to keep transport concerns separate from
// business logic.
type Handlers struct {
	sessionSvc  SessionService
	videoSvc    VideoService
	explainSvc  ExplainService
	settingsSvc SettingsService
	imageSvc    ImageService
	statsSvc    StatsService
	historySvc  HistoryService
}

// New constructs a Handlers instance bound to the given services.
func New(sessionSvc SessionService, videoSvc VideoService, explainSvc ExplainService, settingsSvc SettingsService, imageSvc ImageService, statsSvc StatsService, historySvc HistoryService) *Handlers {
	return &Handlers{
		sessionSvc:  sessionSvc,
		videoSvc:    videoSvc,
		explainSvc:  explainSvc,
		settingsSvc: settingsSvc,
		imageSvc:    imageSvc,
		statsSvc:    statsSvc,
		historySvc:  historySvc,
	}
}

// sessionID extracts the authenticated session id from the Gin context (set
// by the auth middleware). Empty when the route is unauthenticated.
func sessionID(c *gin.Context) string {
	if v, ok := c.Get(middleware.CtxKeySessionID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// profileID extracts the caller's profile identifier from the X-Profile-ID
// header, trimmed. Empty when absent.
func profileID(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return ""
	}
	return strings.TrimSpace(c.GetHeader("X-Profile-ID"))
}
