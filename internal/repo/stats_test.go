package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docentlabs/go-docent-backend/internal/domain"
)

func TestCachedRequestStats_EmptyTable(t *testing.T) {
	db := newTestDB(t, &domain.CachedRequest{})

	stats, err := CachedRequestStats(context.Background(), db)
	if err != nil {
		t.Fatalf("CachedRequestStats: %v", err)
	}
	if stats.Total != 0 || len(stats.ByLanguage) != 0 || stats.WithImage != 0 {
		t.Fatalf("empty table stats = %+v", stats)
	}
}

func TestCachedRequestStats_Aggregates(t *testing.T) {
	db := newTestDB(t, &domain.CachedRequest{})

	imageID := "img-1"
	rows := []*domain.CachedRequest{
		{RequestKey: "k1", VideoID: "v1", SessionID: "s1", Lang: "ko", SelectedText: "t", Explanation: "e"},
		{RequestKey: "k2", VideoID: "v1", SessionID: "s1", Lang: "ko", SelectedText: "t", Explanation: "e"},
		{RequestKey: "k3", VideoID: "v1", SessionID: "s2", Lang: "en", SelectedText: "t", Explanation: "e", ImageID: &imageID},
	}
	for i, r := range rows {
		r.CreatedAt = time.Date(2026, 2, 1, 10, i, 0, 0, time.UTC)
		if err := db.Create(r).Error; err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	stats, err := CachedRequestStats(context.Background(), db)
	if err != nil {
		t.Fatalf("CachedRequestStats: %v", err)
	}
	if stats.Total != 3 {
		t.Fatalf("total = %d; want 3", stats.Total)
	}
	if len(stats.ByLanguage) != 2 || stats.ByLanguage[0].Lang != "ko" || stats.ByLanguage[0].Count != 2 {
		t.Fatalf("by_language = %+v", stats.ByLanguage)
	}
	if stats.WithImage != 1 || stats.WithoutImage != 2 {
		t.Fatalf("image split = %d/%d; want 1/2", stats.WithImage, stats.WithoutImage)
	}
}

func TestVideoRequestStats(t *testing.T) {
	db := newTestDB(t, &domain.CachedRequest{})

	requests, sessions, err := VideoRequestStats(context.Background(), db, "vid-none")
	if err != nil || requests != 0 || sessions != 0 {
		t.Fatalf("empty video stats = %d/%d (err %v)", requests, sessions, err)
	}

	for i, sess := range []string{"s1", "s1", "s2"} {
		row := &domain.CachedRequest{
			RequestKey: fmt.Sprintf("vr-%d", i), VideoID: "vid-1", SessionID: sess,
			Lang: "ko", SelectedText: "t", Explanation: "e",
			CreatedAt: time.Date(2026, 2, 1, 10, i, 0, 0, time.UTC),
		}
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	requests, sessions, err = VideoRequestStats(context.Background(), db, "vid-1")
	if err != nil {
		t.Fatalf("VideoRequestStats: %v", err)
	}
	if requests != 3 || sessions != 2 {
		t.Fatalf("stats = %d/%d; want 3/2", requests, sessions)
	}
}
