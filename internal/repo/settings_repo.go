// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Setting
// model (runtime-tunable text values such as prompt templates).
package repo

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/docentlabs/go-docent-backend/internal/domain"
)

// GetSetting fetches a setting row by identifier, or ErrNotFound.
func GetSetting(ctx context.Context, db *gorm.DB, id string) (*domain.Setting, error) {
	var s domain.Setting
	if err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertSetting inserts a setting or replaces its value and metadata when the
// identifier already exists.
func UpsertSetting(ctx context.Context, db *gorm.DB, id, value string, metadata datatypes.JSON) (*domain.Setting, error) {
	now := time.Now().UTC()
	s := &domain.Setting{
		ID:        id,
		Value:     value,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "metadata", "updated_at"}),
		}).
		Create(s).Error
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListSettings returns all settings ordered by identifier.
func ListSettings(ctx context.Context, db *gorm.DB) ([]domain.Setting, error) {
	var out []domain.Setting
	err := db.WithContext(ctx).Order("id ASC").Find(&out).Error
	return out, err
}
