// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the CachedRequest
// model: the explanation cache keyed by request digest.
//
// The unique index on request_key implements safe-replay semantics for the
// explanation endpoint: the first successful generation for a tuple is the
// authoritative row, and a concurrent second writer collapses into
// ErrDuplicate rather than producing divergent cached results.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/docentlabs/go-docent-backend/internal/domain"
)

// GetCachedRequest returns the cached explanation for a request key, or
// ErrNotFound on a cache miss.
func GetCachedRequest(ctx context.Context, db *gorm.DB, requestKey string) (*domain.CachedRequest, error) {
	var rec domain.CachedRequest
	err := db.WithContext(ctx).
		Where("request_key = ?", requestKey).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateCachedRequest inserts a cache row and returns ErrDuplicate when the
// key already exists. Callers on the explanation path treat both outcomes as
// success: either way an authoritative row exists for the key.
func CreateCachedRequest(ctx context.Context, db *gorm.DB, rec *domain.CachedRequest) (*domain.CachedRequest, error) {
	rec.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// ListCachedRequestsBySession returns recent cache rows written under a
// session, newest first.
func ListCachedRequestsBySession(ctx context.Context, db *gorm.DB, sessionID string, offset, limit int) ([]domain.CachedRequest, error) {
	var out []domain.CachedRequest
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountCachedRequestsBySession returns the number of cache rows written
// under a session. Pairs with ListCachedRequestsBySession for pagination.
func CountCachedRequestsBySession(ctx context.Context, db *gorm.DB, sessionID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.CachedRequest{}).
		Where("session_id = ?", sessionID).
		Count(&n).Error
	return n, err
}

// ListCachedRequestsByVideo returns recent cache rows for a video, newest
// first.
func ListCachedRequestsByVideo(ctx context.Context, db *gorm.DB, videoID string, offset, limit int) ([]domain.CachedRequest, error) {
	var out []domain.CachedRequest
	err := db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
