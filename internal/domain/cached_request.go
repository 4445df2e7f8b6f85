// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// CachedRequest records a previously generated explanation, keyed by a digest
// of (video id, selected text, timestamp, language). It enables the exact-key
// cache path in the explanation flow: a repeated request for the same tuple is
// replayed from this row without re-invoking the generative capability.
//
// The unique index on RequestKey makes concurrent duplicate writes collapse to
// a single authoritative row; later writes for the same key are treated as
// no-ops.
type CachedRequest struct {
	ID           uint           `gorm:"primaryKey;autoIncrement"`
	RequestKey   string         `gorm:"type:char(64);not null;uniqueIndex:ux_cached_request_key"`
	VideoID      string         `gorm:"type:varchar(128);not null;index:idx_cached_request_video"`
	ImageID      *string        `gorm:"type:char(36)"`
	SessionID    string         `gorm:"type:char(36);not null;index"`
	Lang         string         `gorm:"type:varchar(16);not null;default:'ko'"`
	SelectedText string         `gorm:"type:text;not null"`
	Timestamp    float64        `gorm:"not null"`
	Explanation  string         `gorm:"type:text;not null"`
	Sources      datatypes.JSON `gorm:""`
	Refs         datatypes.JSON `gorm:""`
	CreatedAt    time.Time      `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
}

// TableName implements the GORM tabler interface.
func (CachedRequest) TableName() string { return "cached_requests" }

// RequestKey derives the cache key digest for an explanation request tuple.
// Language is part of the key: a cached explanation in one language must never
// be replayed to a client asking in another.
//
// The timestamp is formatted with fixed precision so that 10.0 and 10.00
// produce the same key.
func RequestKey(videoID, selectedText string, timestamp float64, lang string) string {
	h := sha256.New()
	h.Write([]byte(strings.Join([]string{
		videoID,
		selectedText,
		fmt.Sprintf("%.3f", timestamp),
		lang,
	}, "\x1f")))
	return hex.EncodeToString(h.Sum(nil))
}
