// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Video
// model.
//
// The unique index on video_id is the single source of truth for "is this a
// first registration": CreateVideo maps a unique violation to ErrDuplicate so
// the service layer can downgrade the losing insert to a metadata update
// without a read-then-write race window.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/docentlabs/go-docent-backend/internal/domain"
)

// CreateVideo inserts a new video row and returns ErrDuplicate when a row for
// the same video_id already exists.
func CreateVideo(ctx context.Context, db *gorm.DB, videoID, platform, title, lang string, metadata datatypes.JSON) (*domain.Video, error) {
	now := time.Now().UTC()
	v := &domain.Video{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		Platform:  platform,
		Title:     title,
		Lang:      lang,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(v).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return v, nil
}

// GetVideo fetches a video by its platform identifier, or ErrNotFound.
func GetVideo(ctx context.Context, db *gorm.DB, videoID string) (*domain.Video, error) {
	var v domain.Video
	if err := db.WithContext(ctx).Where("video_id = ?", videoID).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// UpdateVideo replaces the mutable metadata of an existing video row.
// Returns ErrNotFound when no row exists for videoID.
func UpdateVideo(ctx context.Context, db *gorm.DB, videoID, title, lang string, metadata datatypes.JSON) error {
	res := db.WithContext(ctx).
		Model(&domain.Video{}).
		Where("video_id = ?", videoID).
		Updates(map[string]any{
			"title":      title,
			"lang":       lang,
			"metadata":   metadata,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// VideoExists reports whether a row exists for videoID.
func VideoExists(ctx context.Context, db *gorm.DB, videoID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Video{}).
		Where("video_id = ?", videoID).
		Count(&n).Error
	return n > 0, err
}

// DeleteVideo removes a video row; references cascade at the DB level.
func DeleteVideo(ctx context.Context, db *gorm.DB, videoID string) error {
	res := db.WithContext(ctx).Where("video_id = ?", videoID).Delete(&domain.Video{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
