package repo

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/docentlabs/go-docent-backend/internal/domain"
)

func TestReferenceLifecycle(t *testing.T) {
	db := newTestDB(t, &domain.Video{}, &domain.Reference{})

	if _, err := CreateVideo(context.Background(), db, "vid-1", "netflix", "T", "ko", nil); err != nil {
		t.Fatalf("seed video: %v", err)
	}

	n, err := CountReferences(context.Background(), db, "vid-1")
	if err != nil || n != 0 {
		t.Fatalf("count before insert = %d (err %v)", n, err)
	}

	p1, _ := json.Marshal(map[string]any{"query": "q1"})
	p2, _ := json.Marshal(map[string]any{"query": "q2"})
	if _, err := CreateReference(context.Background(), db, "vid-1", p1, nil); err != nil {
		t.Fatalf("CreateReference: %v", err)
	}
	if _, err := CreateReference(context.Background(), db, "vid-1", p2, nil); err != nil {
		t.Fatalf("CreateReference: %v", err)
	}

	n, err = CountReferences(context.Background(), db, "vid-1")
	if err != nil || n != 2 {
		t.Fatalf("count = %d (err %v); want 2", n, err)
	}

	refs, err := ListReferences(context.Background(), db, "vid-1")
	if err != nil {
		t.Fatalf("ListReferences: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("len = %d; want 2", len(refs))
	}
	// Oldest first.
	var first map[string]any
	if err := json.Unmarshal(refs[0].Payload, &first); err != nil || first["query"] != "q1" {
		t.Fatalf("order wrong, first payload = %s", refs[0].Payload)
	}
}

func TestListReferences_EmptyIsNormal(t *testing.T) {
	db := newTestDB(t, &domain.Video{}, &domain.Reference{})

	refs, err := ListReferences(context.Background(), db, "never-collected")
	if err != nil {
		t.Fatalf("ListReferences: %v", err)
	}
	if len(refs) != 0 {
		t.Fatalf("expected empty slice, got %d rows", len(refs))
	}
}
