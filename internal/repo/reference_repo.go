// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Reference
// model: grounding results collected once per video.
package repo

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/docentlabs/go-docent-backend/internal/domain"
)

// CreateReference inserts one grounding-result row for a video.
func CreateReference(ctx context.Context, db *gorm.DB, videoID string, payload, metadata datatypes.JSON) (*domain.Reference, error) {
	r := &domain.Reference{
		VideoID:   videoID,
		Payload:   payload,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// ListReferences returns all grounding rows for a video, oldest first.
// An empty slice is a normal outcome (collection failed or never ran).
func ListReferences(ctx context.Context, db *gorm.DB, videoID string) ([]domain.Reference, error) {
	var out []domain.Reference
	err := db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CountReferences returns the number of grounding rows stored for a video.
// The collector uses this as its persisted-state duplicate guard.
func CountReferences(ctx context.Context, db *gorm.DB, videoID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Reference{}).
		Where("video_id = ?", videoID).
		Count(&total).Error
	return total, err
}
