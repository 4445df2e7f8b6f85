// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, authentication, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/docentlabs/go-docent-backend/internal/ai"
	"github.com/docentlabs/go-docent-backend/internal/config"
	"github.com/docentlabs/go-docent-backend/internal/domain"
	"github.com/docentlabs/go-docent-backend/internal/http/handlers"
	"github.com/docentlabs/go-docent-backend/internal/http/middleware"
	"github.com/docentlabs/go-docent-backend/internal/repo"
	"github.com/docentlabs/go-docent-backend/internal/services"
)

//
// Repo shims
//
// These adapt the repository free functions to the narrow interfaces the
// services declare. Services stay decoupled from the concrete repo package
// while reusing its functions.
//

type sessionRepoShim struct{}

func (sessionRepoShim) CreateSession(ctx context.Context, db *gorm.DB, id, profileID, token string, metadata datatypes.JSON, expiresAt time.Time) (*domain.Session, error) {
	return repo.CreateSession(ctx, db, id, profileID, token, metadata, expiresAt)
}

func (sessionRepoShim) GetValidSession(ctx context.Context, db *gorm.DB, id string, now time.Time) (*domain.Session, error) {
	return repo.GetValidSession(ctx, db, id, now)
}

func (sessionRepoShim) GetValidSessionByProfile(ctx context.Context, db *gorm.DB, profileID string, now time.Time) (*domain.Session, error) {
	return repo.GetValidSessionByProfile(ctx, db, profileID, now)
}

func (sessionRepoShim) RefreshSession(ctx context.Context, db *gorm.DB, id, token string, expiresAt time.Time) error {
	return repo.RefreshSession(ctx, db, id, token, expiresAt)
}

func (sessionRepoShim) DeleteExpiredSessions(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	return repo.DeleteExpiredSessions(ctx, db, now)
}

type videoRepoShim struct{}

func (videoRepoShim) CreateVideo(ctx context.Context, db *gorm.DB, videoID, platform, title, lang string, metadata datatypes.JSON) (*domain.Video, error) {
	return repo.CreateVideo(ctx, db, videoID, platform, title, lang, metadata)
}

func (videoRepoShim) GetVideo(ctx context.Context, db *gorm.DB, videoID string) (*domain.Video, error) {
	return repo.GetVideo(ctx, db, videoID)
}

func (videoRepoShim) UpdateVideo(ctx context.Context, db *gorm.DB, videoID, title, lang string, metadata datatypes.JSON) error {
	return repo.UpdateVideo(ctx, db, videoID, title, lang, metadata)
}

type referenceStoreShim struct{}

func (referenceStoreShim) CountReferences(ctx context.Context, db *gorm.DB, videoID string) (int64, error) {
	return repo.CountReferences(ctx, db, videoID)
}

func (referenceStoreShim) CreateReference(ctx context.Context, db *gorm.DB, videoID string, payload, metadata datatypes.JSON) error {
	_, err := repo.CreateReference(ctx, db, videoID, payload, metadata)
	return err
}

type explainStoreShim struct{}

func (explainStoreShim) GetVideo(ctx context.Context, db *gorm.DB, videoID string) (*domain.Video, error) {
	return repo.GetVideo(ctx, db, videoID)
}

func (explainStoreShim) ListReferences(ctx context.Context, db *gorm.DB, videoID string) ([]domain.Reference, error) {
	return repo.ListReferences(ctx, db, videoID)
}

func (explainStoreShim) GetCachedRequest(ctx context.Context, db *gorm.DB, requestKey string) (*domain.CachedRequest, error) {
	return repo.GetCachedRequest(ctx, db, requestKey)
}

func (explainStoreShim) CreateCachedRequest(ctx context.Context, db *gorm.DB, r *domain.CachedRequest) error {
	_, err := repo.CreateCachedRequest(ctx, db, r)
	return err
}

func (explainStoreShim) GetImage(ctx context.Context, db *gorm.DB, id string) (*domain.Image, error) {
	return repo.GetImage(ctx, db, id)
}

type settingsRepoShim struct{}

func (settingsRepoShim) GetSetting(ctx context.Context, db *gorm.DB, id string) (*domain.Setting, error) {
	return repo.GetSetting(ctx, db, id)
}

func (settingsRepoShim) UpsertSetting(ctx context.Context, db *gorm.DB, id, value string, metadata datatypes.JSON) (*domain.Setting, error) {
	return repo.UpsertSetting(ctx, db, id, value, metadata)
}

type imageRepoShim struct{}

func (imageRepoShim) CreateImage(ctx context.Context, db *gorm.DB, depotPath, contentType string, size int64, metadata datatypes.JSON) (*domain.Image, error) {
	return repo.CreateImage(ctx, db, depotPath, contentType, size, metadata)
}

func (imageRepoShim) GetImage(ctx context.Context, db *gorm.DB, id string) (*domain.Image, error) {
	return repo.GetImage(ctx, db, id)
}

// statsShim adapts the aggregate repo queries to the handlers.StatsService
// contract.
type statsShim struct{ db *gorm.DB }

func (s statsShim) RequestStats(ctx context.Context) (*repo.RequestStats, error) {
	return repo.CachedRequestStats(ctx, s.db)
}

// historyShim adapts the cache-listing repo queries to the
// handlers.HistoryService contract.
type historyShim struct{ db *gorm.DB }

func (s historyShim) History(ctx context.Context, sessionID string, page, pageSize int) ([]domain.CachedRequest, int64, error) {
	total, err := repo.CountCachedRequestsBySession(ctx, s.db, sessionID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := repo.ListCachedRequestsBySession(ctx, s.db, sessionID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting, CORS
// and security headers, health and metrics endpoints, and then mounts the
// public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. CORS and Security headers
//  8. Per-group: auth, then rate limiter keyed by session
//
// The returned Collector is constructed but not started; the caller owns its
// lifecycle (Start on boot, Stop on shutdown).
func RegisterRoutes(r *gin.Engine, db *gorm.DB, client ai.Client, cfg config.Config) *services.Collector {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (screenshot uploads are the largest payloads)
	r.Use(limitBody(12 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Profile-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Profile-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/AI client
	collector := services.NewCollector(db, referenceStoreShim{}, client, cfg.CollectorQueueSize, cfg.CollectorWorkers)
	sessionSvc := services.NewSessionService(db, sessionRepoShim{}, []byte(cfg.Session.Secret), cfg.Session.Validity)
	videoSvc := services.NewVideoService(db, videoRepoShim{}, collector)
	settingsSvc := services.NewSettingsService(db, settingsRepoShim{})
	explainSvc := services.NewExplainService(db, explainStoreShim{}, settingsSvc, client, cfg.ImageDepotPath)
	explainSvc.ContextMaxItems = cfg.ContextMaxItems
	imageSvc := services.NewImageService(db, imageRepoShim{}, cfg.ImageDepotPath)

	h := handlers.New(sessionSvc, videoSvc, explainSvc, settingsSvc, imageSvc, statsShim{db: db}, historyShim{db: db})

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(gzip.Gzip(gzip.DefaultCompression))

	// Session issuance is the only unauthenticated API route.
	api.POST("/auth/token", h.IssueToken)

	// Everything else requires a live session. The rate limiter keys by
	// session and therefore sits after Auth.
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyBySessionOrIP())
	authed := api.Group("")
	authed.Use(middleware.Auth(sessionSvc))
	authed.Use(rl.Handler())
	{
		// Videos
		authed.POST("/videos", h.RegisterVideo)

		// Explanations
		authed.POST("/explanations", h.Explain)
		authed.GET("/explanations", h.ListExplanations)

		// Settings
		authed.GET("/settings/:id", h.GetSetting)
		authed.PUT("/settings/:id", h.UpdateSetting)

		// Images
		authed.POST("/images", h.UploadImage)
		authed.GET("/images/:id", h.GetImage)

		// Statistics
		authed.GET("/statistics", h.GetStatistics)
	}

	return collector
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
