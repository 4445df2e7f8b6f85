// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver), schema migrations, and shared error values.
package repo

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/docentlabs/go-docent-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
//
// It aliases gorm.ErrRecordNotFound so callers can match either.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates that an insert hit a unique constraint. For videos
// this is how a losing concurrent registration is detected; for cached
// requests it means another request already wrote the same key.
var ErrDuplicate = errors.New("duplicate")

// OpenSQLite opens (or creates) a SQLite database, applies PRAGMAs, and
// installs the OpenTelemetry plugin so storage calls share request traces.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate creates or updates the full schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Session{},
		&domain.Video{},
		&domain.Reference{},
		&domain.CachedRequest{},
		&domain.Setting{},
		&domain.Image{},
	)
}

// isUniqueViolation reports whether err is a unique-constraint failure.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}
