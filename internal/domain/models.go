// Package domain defines the persistence models for sessions, videos,
// grounding references, and runtime settings. These types are mapped with
// GORM and form the core data layer of the subtitle-explanation backend.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Session represents an issued client session. One profile may accumulate
// several rows over time; lookups always prefer the most recent non-expired
// row, so stale rows are harmless until the expiry sweep removes them.
//
// Fields:
//   - ID: stable UUID primary key (char(36)), embedded in the signed token.
//   - ProfileID: client-supplied profile identifier; indexed for reuse lookups.
//   - Token: the signed bearer token currently associated with this session.
//   - Metadata: arbitrary JSON (profile hints, client info).
//   - CreatedAt / ExpiresAt: issuance and expiry instants (UTC).
type Session struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	ProfileID string         `json:"profile_id" gorm:"type:varchar(128);not null;index:idx_session_profile"`
	Token     string         `json:"-"          gorm:"type:text;not null"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at" gorm:"index"`
}

// TableName returns the database table name for Session.
func (Session) TableName() string { return "sessions" }

// Video is one metadata record per platform video identifier. The unique
// index on VideoID is the sole arbiter of "first registration": a losing
// concurrent insert surfaces as a unique violation and is downgraded to a
// metadata update, which never re-triggers reference collection.
type Video struct {
	ID        string         `json:"id"       gorm:"type:char(36);primaryKey"`
	VideoID   string         `json:"video_id" gorm:"type:varchar(128);not null;uniqueIndex:ux_videos_video_id"`
	Platform  string         `json:"platform" gorm:"type:varchar(64);not null"`
	Title     string         `json:"title"    gorm:"type:varchar(512)"`
	Lang      string         `json:"lang"     gorm:"type:varchar(16);default:'ko'"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"` // season/episode/duration/url
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName returns the database table name for Video.
func (Video) TableName() string { return "videos" }

// Reference is a stored grounding result for a video: the sources collected
// by the search-grounded AI call at registration time. Zero or more rows per
// video; written once per video in the normal path and never mutated after.
//
// Payload holds the serialized search result (query, items with title/url/
// snippet, the queries the model actually ran). Metadata records how the
// sources were obtained (grounding metadata vs. text fallback).
type Reference struct {
	ID        uint           `json:"id"       gorm:"primaryKey;autoIncrement"`
	VideoID   string         `json:"video_id" gorm:"type:varchar(128);not null;index:idx_reference_video"`
	Payload   datatypes.JSON `json:"payload"  gorm:"not null"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`

	// Video is the owning record. References are cascade-deleted when the
	// video row is removed.
	Video Video `json:"-" gorm:"foreignKey:VideoID;references:VideoID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Reference.
func (Reference) TableName() string { return "video_references" }

// Setting holds a single runtime-tunable text value (e.g. the explanation
// prompt template). Read-heavy, write-rare; services cache reads in memory
// and invalidate on update.
type Setting struct {
	ID        string         `json:"id"    gorm:"type:varchar(64);primaryKey"`
	Value     string         `json:"value" gorm:"type:text;not null"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName returns the database table name for Setting.
func (Setting) TableName() string { return "settings" }

// Image records an uploaded still frame stored on the local depot. Missing
// images are non-fatal to explanation requests, which degrade to text-only.
type Image struct {
	ID          string         `json:"id"           gorm:"type:char(36);primaryKey"`
	DepotPath   string         `json:"depot_path"   gorm:"type:varchar(512);not null"`
	ContentType string         `json:"content_type" gorm:"type:varchar(64)"`
	Size        int64          `json:"size"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// TableName returns the database table name for Image.
func (Image) TableName() string { return "images" }
