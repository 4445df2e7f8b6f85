// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Session
// model.
//
// Error semantics:
//   - When a session is not found, functions return ErrNotFound.
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/docentlabs/go-docent-backend/internal/domain"
)

// CreateSession inserts a new session row. The session ID is minted by the
// caller (it is embedded in the signed token before persistence).
func CreateSession(ctx context.Context, db *gorm.DB, id, profileID, token string, metadata datatypes.JSON, expiresAt time.Time) (*domain.Session, error) {
	s := &domain.Session{
		ID:        id,
		ProfileID: profileID,
		Token:     token,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt.UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return s, nil
}

// GetSession fetches a session by ID regardless of expiry, or ErrNotFound.
func GetSession(ctx context.Context, db *gorm.DB, id string) (*domain.Session, error) {
	var s domain.Session
	if err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// GetValidSession fetches a session by ID only when it has not expired at
// `now`. Returns ErrNotFound for missing or expired rows.
func GetValidSession(ctx context.Context, db *gorm.DB, id string, now time.Time) (*domain.Session, error) {
	var s domain.Session
	err := db.WithContext(ctx).
		Where("id = ? AND expires_at > ?", id, now.UTC()).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetValidSessionByProfile returns the most recent non-expired session for a
// profile, or ErrNotFound. The store may retain several stale rows per
// profile; ordering by creation time makes the newest valid one "the" session.
func GetValidSessionByProfile(ctx context.Context, db *gorm.DB, profileID string, now time.Time) (*domain.Session, error) {
	var s domain.Session
	err := db.WithContext(ctx).
		Where("profile_id = ? AND expires_at > ?", profileID, now.UTC()).
		Order("created_at DESC, id DESC").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// RefreshSession replaces a session's token and pushes its expiry to the
// given instant. The two columns move together: the stored token must always
// be the one whose embedded expiry matches the row. The write is synchronous;
// the caller must not report a reused token until it succeeds.
// Returns ErrNotFound when the session row no longer exists.
func RefreshSession(ctx context.Context, db *gorm.DB, id, token string, expiresAt time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"token":      token,
			"expires_at": expiresAt.UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpiredSessions removes every session whose expiry is in the past
// and reports how many rows were deleted.
func DeleteExpiredSessions(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at < ?", now.UTC()).
		Delete(&domain.Session{})
	return res.RowsAffected, res.Error
}

// CountActiveSessions returns the number of non-expired sessions.
func CountActiveSessions(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("expires_at > ?", now.UTC()).
		Count(&total).Error
	return total, err
}

// IsNotFound reports whether err represents a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
