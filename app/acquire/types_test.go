package acquire

import (
	"testing"
	"time"
)

func TestExtractVideoID(t *testing.T) {
	cases := map[string]string{
		"dQw4w9WgXcQ": "dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ":       "dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ":                      "dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s": "dQw4w9WgXcQ",
		"not a video":    "",
		"tooshort":       "",
		"":               "",
		"waytoolongtobeavideoid": "",
	}
	for in, want := range cases {
		if got := ExtractVideoID(in); got != want {
			t.Errorf("ExtractVideoID(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestLooksLikePlaylistID(t *testing.T) {
	if !LooksLikePlaylistID("PLxxxxxxxxxxx") {
		t.Errorf("PL-prefixed ID should look like a playlist")
	}
	if !LooksLikePlaylistID("UUxxxxxxxxxxx") {
		t.Errorf("UU-prefixed ID should look like a playlist")
	}
	if LooksLikePlaylistID("my watch list") {
		t.Errorf("Arbitrary text should not look like a playlist ID")
	}
	if LooksLikePlaylistID("PLshort") {
		t.Errorf("Too-short suffix should not look like a playlist ID")
	}
}

func TestDedupeByID(t *testing.T) {
	videos := []Video{
		{ID: "aaaaaaaaaaa", Title: "first"},
		{ID: "bbbbbbbbbbb"},
		{ID: "aaaaaaaaaaa", Title: "second"},
	}
	out := dedupeByID(videos)
	if len(out) != 2 {
		t.Fatalf("Expected 2 videos after dedupe, got %d", len(out))
	}
	if out[0].Title != "first" {
		t.Errorf("Dedupe should keep the first occurrence")
	}
}

func TestParseISO8601Duration(t *testing.T) {
	cases := map[string]int{
		"PT1H2M3S": 3723,
		"PT15M":    900,
		"PT45S":    45,
		"PT0S":     0,
		"P1D":      0,
		"":         0,
		"PT2H":     7200,
	}
	for in, want := range cases {
		if got := ParseISO8601Duration(in); got != want {
			t.Errorf("ParseISO8601Duration(%q): expected %d, got %d", in, want, got)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[int]string{
		45:    "0:45",
		200:   "3:20",
		3723:  "1:02:03",
		-5:    "0:00",
		0:     "0:00",
		59:    "0:59",
		3600:  "1:00:00",
	}
	for in, want := range cases {
		if got := FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%d): expected %q, got %q", in, want, got)
		}
	}
}

func TestParseURLArgs(t *testing.T) {
	ids, bad := ParseURLArgs([]string{
		"https://youtu.be/dQw4w9WgXcQ",
		"garbage",
		"aaaaaaaaaaa",
	})
	if len(ids) != 2 {
		t.Fatalf("Expected 2 IDs, got %v", ids)
	}
	if len(bad) != 1 || bad[0] != "garbage" {
		t.Errorf("Expected one bad argument, got %v", bad)
	}
}

func TestParsePublished(t *testing.T) {
	ts := parsePublished("2026-08-01T12:00:00Z")
	if ts.IsZero() {
		t.Fatalf("Valid RFC3339 timestamp should parse")
	}
	if ts.Year() != 2026 || ts.Month() != time.August {
		t.Errorf("Unexpected parsed time: %v", ts)
	}
	if !parsePublished("yesterday").IsZero() {
		t.Errorf("Invalid timestamp should parse to zero time")
	}
}
