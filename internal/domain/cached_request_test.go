package domain

import (
	"encoding/hex"
	"testing"
)

func TestRequestKey_StableAndWellFormed(t *testing.T) {
	k1 := RequestKey("vid-1", "selected text", 12.5, "ko")
	k2 := RequestKey("vid-1", "selected text", 12.5, "ko")
	if k1 != k2 {
		t.Fatalf("identical tuples must share a key: %q != %q", k1, k2)
	}
	if len(k1) != 64 {
		t.Fatalf("key length = %d; want 64 hex chars", len(k1))
	}
	if _, err := hex.DecodeString(k1); err != nil {
		t.Fatalf("key is not hex: %v", err)
	}
}

func TestRequestKey_TimestampPrecision(t *testing.T) {
	if RequestKey("v", "t", 10.0, "ko") != RequestKey("v", "t", 10.0001, "ko") {
		t.Fatalf("sub-millisecond timestamp jitter must not change the key")
	}
	if RequestKey("v", "t", 10.0, "ko") == RequestKey("v", "t", 10.002, "ko") {
		t.Fatalf("millisecond-scale difference must change the key")
	}
}

func TestRequestKey_DistinguishesEveryComponent(t *testing.T) {
	base := RequestKey("v", "t", 1.0, "ko")
	variants := []string{
		RequestKey("v2", "t", 1.0, "ko"),
		RequestKey("v", "t2", 1.0, "ko"),
		RequestKey("v", "t", 2.0, "ko"),
		RequestKey("v", "t", 1.0, "en"),
	}
	for i, k := range variants {
		if k == base {
			t.Fatalf("variant %d collides with base key", i)
		}
	}
}

func TestRequestKey_FieldSeparatorPreventsAmbiguity(t *testing.T) {
	// "ab"+"c" and "a"+"bc" must not hash to the same key.
	if RequestKey("ab", "c", 1.0, "ko") == RequestKey("a", "bc", 1.0, "ko") {
		t.Fatalf("adjacent fields must be unambiguously delimited")
	}
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		Session{}.TableName():       "sessions",
		Video{}.TableName():         "videos",
		Reference{}.TableName():     "video_references",
		CachedRequest{}.TableName(): "cached_requests",
		Setting{}.TableName():       "settings",
		Image{}.TableName():         "images",
	}
	for got, want := range cases {
		if got != want {
			t.Errorf("table name = %q; want %q", got, want)
		}
	}
}
