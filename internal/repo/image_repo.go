// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Image
// model (uploaded still frames referenced by explanation requests).
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/docentlabs/go-docent-backend/internal/domain"
)

// CreateImage inserts a new image row pointing at a stored depot file.
func CreateImage(ctx context.Context, db *gorm.DB, depotPath, contentType string, size int64, metadata datatypes.JSON) (*domain.Image, error) {
	im := &domain.Image{
		ID:          uuid.NewString(),
		DepotPath:   depotPath,
		ContentType: contentType,
		Size:        size,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(im).Error; err != nil {
		return nil, err
	}
	return im, nil
}

// GetImage fetches an image row by identifier, or ErrNotFound.
func GetImage(ctx context.Context, db *gorm.DB, id string) (*domain.Image, error) {
	var im domain.Image
	if err := db.WithContext(ctx).Where("id = ?", id).First(&im).Error; err != nil {
		return nil, err
	}
	return &im, nil
}
