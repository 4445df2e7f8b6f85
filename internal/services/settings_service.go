// Package services – SettingsService
//
// Runtime-tunable text values (notably the explanation prompt template) are
// read on every explanation request, so reads are served from an in-process
// cache in front of the settings table. The cache is an explicit object with
// an explicit Invalidate call — the update path invalidates, nothing else
// mutates it — rather than ambient global state.
package services

import (
	"context"
	"errors"
	"sync"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/docentlabs/go-docent-backend/internal/domain"
)

// SettingExplainPrompt is the identifier of the explanation prompt template.
const SettingExplainPrompt = "explain_prompt"

// SettingsRepo defines the repository contract required by SettingsService.
type SettingsRepo interface {
	// GetSetting fetches a setting row, or repo.ErrNotFound.
	GetSetting(ctx context.Context, db *gorm.DB, id string) (*domain.Setting, error)

	// UpsertSetting inserts or replaces a setting value.
	UpsertSetting(ctx context.Context, db *gorm.DB, id, value string, metadata datatypes.JSON) (*domain.Setting, error)
}

// SettingsService provides cached access to runtime settings.
type SettingsService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the settings repository used by this service.
	Repo SettingsRepo

	mu    sync.RWMutex
	cache map[string]string
}

// NewSettingsService constructs a SettingsService with an empty cache.
func NewSettingsService(db *gorm.DB, r SettingsRepo) *SettingsService {
	return &SettingsService{
		DB:    db,
		Repo:  r,
		cache: make(map[string]string),
	}
}

// Value returns the setting's current text, serving repeated reads from the
// in-process cache. A missing setting maps to ErrSettingNotFound.
func (s *SettingsService) Value(ctx context.Context, id string) (string, error) {
	s.mu.RLock()
	if v, ok := s.cache[id]; ok {
		s.mu.RUnlock()
		return v, nil
	}
	s.mu.RUnlock()

	row, err := s.Repo.GetSetting(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrSettingNotFound
		}
		return "", err
	}

	s.mu.Lock()
	s.cache[id] = row.Value
	s.mu.Unlock()
	return row.Value, nil
}

// Get returns the full setting row, bypassing the cache. Used by the settings
// API where metadata and timestamps matter.
func (s *SettingsService) Get(ctx context.Context, id string) (*domain.Setting, error) {
	row, err := s.Repo.GetSetting(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, err
	}
	return row, nil
}

// Upsert writes a setting and invalidates its cache entry, so the next Value
// call observes the new text.
func (s *SettingsService) Upsert(ctx context.Context, id, value string, metadata datatypes.JSON) (*domain.Setting, error) {
	row, err := s.Repo.UpsertSetting(ctx, s.DB, id, value, metadata)
	if err != nil {
		return nil, err
	}
	s.Invalidate(id)
	return row, nil
}

// Invalidate drops one cached entry.
func (s *SettingsService) Invalidate(id string) {
	s.mu.Lock()
	delete(s.cache, id)
	s.mu.Unlock()
}
