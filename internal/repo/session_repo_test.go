package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/docentlabs/go-docent-backend/internal/domain"
)

func TestCreateSession_RoundTrip(t *testing.T) {
	db := newTestDB(t, &domain.Session{})
	now := time.Now().UTC()

	s, err := CreateSession(context.Background(), db, "sess-1", "profile-1", "tok-1", nil, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if s.ID != "sess-1" || s.ProfileID != "profile-1" {
		t.Fatalf("unexpected Session fields: %+v", s)
	}

	got, err := GetSession(context.Background(), db, "sess-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Token != "tok-1" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestCreateSession_DuplicateID(t *testing.T) {
	db := newTestDB(t, &domain.Session{})
	now := time.Now().UTC()

	if _, err := CreateSession(context.Background(), db, "sess-1", "p", "t", nil, now.Add(time.Hour)); err != nil {
		t.Fatalf("first CreateSession: %v", err)
	}
	if _, err := CreateSession(context.Background(), db, "sess-1", "p", "t", nil, now.Add(time.Hour)); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetValidSession_ExpiryFilter(t *testing.T) {
	db := newTestDB(t, &domain.Session{})
	now := time.Now().UTC()

	if _, err := CreateSession(context.Background(), db, "live", "p", "t", nil, now.Add(time.Hour)); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := CreateSession(context.Background(), db, "stale", "p", "t", nil, now.Add(-time.Hour)); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if _, err := GetValidSession(context.Background(), db, "live", now); err != nil {
		t.Fatalf("live session should validate: %v", err)
	}
	if _, err := GetValidSession(context.Background(), db, "stale", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired session should be ErrNotFound, got %v", err)
	}
	if _, err := GetValidSession(context.Background(), db, "missing", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing session should be ErrNotFound, got %v", err)
	}
}

func TestGetValidSessionByProfile_PrefersNewest(t *testing.T) {
	db := newTestDB(t, &domain.Session{})
	now := time.Now().UTC()

	// Two valid rows for the same profile with distinct creation times.
	old := &domain.Session{ID: "old", ProfileID: "p1", Token: "t-old",
		CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(time.Hour)}
	newer := &domain.Session{ID: "new", ProfileID: "p1", Token: "t-new",
		CreatedAt: now.Add(-time.Minute), ExpiresAt: now.Add(time.Hour)}
	expired := &domain.Session{ID: "dead", ProfileID: "p1", Token: "t-dead",
		CreatedAt: now, ExpiresAt: now.Add(-time.Minute)}
	for _, s := range []*domain.Session{old, newer, expired} {
		if err := db.Create(s).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	got, err := GetValidSessionByProfile(context.Background(), db, "p1", now)
	if err != nil {
		t.Fatalf("GetValidSessionByProfile: %v", err)
	}
	if got.ID != "new" {
		t.Fatalf("expected newest valid row, got %q", got.ID)
	}

	if _, err := GetValidSessionByProfile(context.Background(), db, "p2", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown profile should be ErrNotFound, got %v", err)
	}
}

func TestRefreshSession(t *testing.T) {
	db := newTestDB(t, &domain.Session{})
	now := time.Now().UTC()

	if _, err := CreateSession(context.Background(), db, "sess-1", "p", "tok-old", nil, now.Add(time.Minute)); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	later := now.Add(2 * time.Hour)
	if err := RefreshSession(context.Background(), db, "sess-1", "tok-new", later); err != nil {
		t.Fatalf("RefreshSession: %v", err)
	}
	got, err := GetSession(context.Background(), db, "sess-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Token != "tok-new" {
		t.Fatalf("token = %q; want the refreshed token", got.Token)
	}
	if !got.ExpiresAt.Truncate(time.Second).Equal(later.Truncate(time.Second)) {
		t.Fatalf("expiry = %v; want %v", got.ExpiresAt, later)
	}

	if err := RefreshSession(context.Background(), db, "missing", "tok-x", later); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteExpiredSessions_AndCountActive(t *testing.T) {
	db := newTestDB(t, &domain.Session{})
	now := time.Now().UTC()

	for _, s := range []struct {
		id  string
		exp time.Time
	}{
		{"live-1", now.Add(time.Hour)},
		{"live-2", now.Add(2 * time.Hour)},
		{"dead-1", now.Add(-time.Hour)},
		{"dead-2", now.Add(-time.Minute)},
	} {
		if _, err := CreateSession(context.Background(), db, s.id, "p", "t", nil, s.exp); err != nil {
			t.Fatalf("seed %s: %v", s.id, err)
		}
	}

	active, err := CountActiveSessions(context.Background(), db, now)
	if err != nil || active != 2 {
		t.Fatalf("active = %d (err %v); want 2", active, err)
	}

	n, err := DeleteExpiredSessions(context.Background(), db, now)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions: %v", err)
	}
	if n != 2 {
		t.Fatalf("deleted = %d; want 2", n)
	}
	if _, err := GetSession(context.Background(), db, "live-1"); err != nil {
		t.Fatalf("live session removed: %v", err)
	}
}
