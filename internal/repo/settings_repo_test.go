package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/docentlabs/go-docent-backend/internal/domain"
)

func TestGetSetting_NotFound(t *testing.T) {
	db := newTestDB(t, &domain.Setting{})
	if _, err := GetSetting(context.Background(), db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertSetting_InsertThenReplace(t *testing.T) {
	db := newTestDB(t, &domain.Setting{})

	if _, err := UpsertSetting(context.Background(), db, "explain_prompt", "v1", nil); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := GetSetting(context.Background(), db, "explain_prompt")
	if err != nil || got.Value != "v1" {
		t.Fatalf("after insert: %+v (err %v)", got, err)
	}

	if _, err := UpsertSetting(context.Background(), db, "explain_prompt", "v2", nil); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err = GetSetting(context.Background(), db, "explain_prompt")
	if err != nil || got.Value != "v2" {
		t.Fatalf("after replace: %+v (err %v)", got, err)
	}

	// Only one row for the identifier.
	all, err := ListSettings(context.Background(), db)
	if err != nil || len(all) != 1 {
		t.Fatalf("settings = %+v (err %v)", all, err)
	}
}

func TestListSettings_OrderedByID(t *testing.T) {
	db := newTestDB(t, &domain.Setting{})

	for _, id := range []string{"b-setting", "a-setting", "c-setting"} {
		if _, err := UpsertSetting(context.Background(), db, id, "v", nil); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}
	all, err := ListSettings(context.Background(), db)
	if err != nil {
		t.Fatalf("ListSettings: %v", err)
	}
	if len(all) != 3 || all[0].ID != "a-setting" || all[2].ID != "c-setting" {
		t.Fatalf("order wrong: %+v", all)
	}
}
