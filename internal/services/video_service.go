// Package services – VideoService
//
// This file implements video registration. The first registration of a video
// identifier inserts the row and hands the video to the reference collector;
// every later registration is a pure metadata update that must never
// re-trigger collection. The distinction is made by the database unique key,
// not by a read-then-write check, which closes the race between two
// concurrent first registrations: exactly one insert wins, the loser sees a
// duplicate and takes the update path.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/docentlabs/go-docent-backend/internal/domain"
	"github.com/docentlabs/go-docent-backend/internal/repo"
)

// VideoRepo defines the repository contract required by VideoService.
type VideoRepo interface {
	// CreateVideo inserts a row, or repo.ErrDuplicate when video_id exists.
	CreateVideo(ctx context.Context, db *gorm.DB, videoID, platform, title, lang string, metadata datatypes.JSON) (*domain.Video, error)

	// GetVideo fetches a row by platform identifier, or repo.ErrNotFound.
	GetVideo(ctx context.Context, db *gorm.DB, videoID string) (*domain.Video, error)

	// UpdateVideo replaces mutable metadata of an existing row.
	UpdateVideo(ctx context.Context, db *gorm.DB, videoID, title, lang string, metadata datatypes.JSON) error
}

// ReferenceEnqueuer accepts collection jobs for asynchronous processing.
// Implemented by *Collector; a no-op stand-in is fine for tests.
type ReferenceEnqueuer interface {
	Enqueue(job CollectionJob) bool
}

// RegisterInput carries the inbound registration payload.
type RegisterInput struct {
	VideoID  string
	Platform string
	Title    string
	Lang     string
	Season   *int
	Episode  *int
	Duration *int // seconds
	URL      string
}

// VideoService owns video metadata registration and updates.
type VideoService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the video repository used by this service.
	Repo VideoRepo
	// Collector receives a job exactly when a video row is newly inserted.
	Collector ReferenceEnqueuer
}

// NewVideoService constructs a VideoService.
func NewVideoService(db *gorm.DB, r VideoRepo, collector ReferenceEnqueuer) *VideoService {
	return &VideoService{DB: db, Repo: r, Collector: collector}
}

// Register inserts or updates the metadata record for in.VideoID. The
// returned bool reports whether this call created the row; reference
// collection is enqueued only in that case, after the insert is durable.
func (s *VideoService) Register(ctx context.Context, in RegisterInput) (*domain.Video, bool, error) {
	in.VideoID = strings.TrimSpace(in.VideoID)
	if in.VideoID == "" {
		return nil, false, ErrMissingVideoID
	}
	in.Lang = normalizeLang(in.Lang)

	meta := s.metadataJSON(in)

	v, err := s.Repo.CreateVideo(ctx, s.DB, in.VideoID, in.Platform, in.Title, in.Lang, meta)
	switch {
	case err == nil:
		// Insert won: this is the one and only collection trigger.
		if s.Collector != nil {
			s.Collector.Enqueue(CollectionJob{
				VideoID:  v.VideoID,
				Title:    v.Title,
				Platform: v.Platform,
			})
		}
		return v, true, nil

	case errors.Is(err, repo.ErrDuplicate):
		// Losing insert or repeat registration: metadata update only.
		if err := s.Repo.UpdateVideo(ctx, s.DB, in.VideoID, in.Title, in.Lang, meta); err != nil {
			return nil, false, err
		}
		updated, err := s.Repo.GetVideo(ctx, s.DB, in.VideoID)
		if err != nil {
			return nil, false, err
		}
		return updated, false, nil

	default:
		return nil, false, err
	}
}

// Get fetches a registered video, mapping missing rows to ErrVideoNotFound.
func (s *VideoService) Get(ctx context.Context, videoID string) (*domain.Video, error) {
	v, err := s.Repo.GetVideo(ctx, s.DB, videoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	return v, nil
}

// metadataJSON packs the optional structured fields into a JSON column value.
func (s *VideoService) metadataJSON(in RegisterInput) datatypes.JSON {
	m := map[string]any{
		"platform": in.Platform,
		"title":    in.Title,
		"lang":     in.Lang,
	}
	if in.Season != nil {
		m["season"] = *in.Season
	}
	if in.Episode != nil {
		m["episode"] = *in.Episode
	}
	if in.Duration != nil {
		m["duration"] = *in.Duration
	}
	if in.URL != "" {
		m["url"] = in.URL
	}
	b, _ := json.Marshal(m)
	return b
}
