// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries over
// the explanation cache, used by the read-only statistics endpoint. Each
// function is context-aware and safe to call from services or handlers.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/docentlabs/go-docent-backend/internal/domain"
)

// LangCount is one row of the per-language request breakdown.
type LangCount struct {
	Lang  string `json:"lang"`
	Count int64  `json:"count"`
}

// RequestStats aggregates the explanation cache: total rows, a per-language
// breakdown, and how many requests carried an image.
type RequestStats struct {
	Total        int64       `json:"total_requests"`
	ByLanguage   []LangCount `json:"by_language"`
	WithImage    int64       `json:"with_image"`
	WithoutImage int64       `json:"without_image"`
}

// CachedRequestStats computes aggregate metadata over cached_requests.
//
// It executes three lightweight queries. When the table is empty the result
// has zero counts and an empty language list.
func CachedRequestStats(ctx context.Context, db *gorm.DB) (*RequestStats, error) {
	out := &RequestStats{ByLanguage: []LangCount{}}
	q := db.WithContext(ctx).Model(&domain.CachedRequest{})

	if err := q.Count(&out.Total).Error; err != nil {
		return nil, err
	}
	if out.Total == 0 {
		return out, nil
	}

	err := db.WithContext(ctx).
		Model(&domain.CachedRequest{}).
		Select("lang, COUNT(*) as count").
		Group("lang").
		Order("count DESC").
		Scan(&out.ByLanguage).Error
	if err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).
		Model(&domain.CachedRequest{}).
		Where("image_id IS NOT NULL").
		Count(&out.WithImage).Error
	if err != nil {
		return nil, err
	}
	out.WithoutImage = out.Total - out.WithImage
	return out, nil
}

// VideoRequestStats returns the number of cached explanations for one video
// together with the count of distinct sessions that asked about it.
func VideoRequestStats(ctx context.Context, db *gorm.DB, videoID string) (requests int64, sessions int64, err error) {
	q := db.WithContext(ctx).Model(&domain.CachedRequest{}).Where("video_id = ?", videoID)

	if err = q.Count(&requests).Error; err != nil {
		return 0, 0, err
	}
	if requests == 0 {
		return 0, 0, nil
	}

	err = db.WithContext(ctx).
		Model(&domain.CachedRequest{}).
		Where("video_id = ?", videoID).
		Distinct("session_id").
		Count(&sessions).Error
	return requests, sessions, err
}
