// Command server boots the subtitle-explanation API: configuration, logging,
// tracing, storage, the generation client, the background reference
// collector, and the HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/docentlabs/go-docent-backend/internal/ai"
	"github.com/docentlabs/go-docent-backend/internal/config"
	httpapi "github.com/docentlabs/go-docent-backend/internal/http"
	"github.com/docentlabs/go-docent-backend/internal/observability"
	"github.com/docentlabs/go-docent-backend/internal/repo"
	"github.com/docentlabs/go-docent-backend/internal/services"
	"github.com/docentlabs/go-docent-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// Local development convenience; absent .env is fine.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(c); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	for _, dir := range []string{filepath.Dir(cfg.DBPath), cfg.ImageDepotPath} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("data directory setup failed")
		}
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}
	seedExplainPrompt(ctx, db, cfg.PromptPath)

	client, err := ai.NewGeminiClient(ai.GeminiConfig{
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Endpoint:    cfg.AI.Endpoint,
		Timeout:     cfg.AI.Timeout,
		Temperature: cfg.AI.Temperature,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("generation client setup failed")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	collector := httpapi.RegisterRoutes(r, db, client, cfg)
	collector.Start()
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		collector.Stop(c)
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server stopped with error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// seedExplainPrompt installs the explanation prompt template from disk when
// the setting is missing. An existing row wins so operator edits via the
// settings API survive restarts.
func seedExplainPrompt(ctx context.Context, db *gorm.DB, path string) {
	if _, err := repo.GetSetting(ctx, db, services.SettingExplainPrompt); err == nil {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("explain prompt seed file missing")
		return
	}
	if _, err := repo.UpsertSetting(ctx, db, services.SettingExplainPrompt, string(data), nil); err != nil {
		log.Error().Err(err).Msg("explain prompt seed failed")
		return
	}
	log.Info().Str("path", path).Msg("explain prompt seeded")
}
