// Package transcript resolves a text transcript for one video through
// a layered fallback chain: preferred-language fetch, any-language
// fetch, then raw caption tracks from the timed-text endpoint.
//
// Failures are typed. Terminal failures (disabled, not found,
// unretrievable) are recorded permanently by the caller and never
// retried across runs; an access-blocked condition is fatal to the
// whole run; anything else means "nothing usable right now".
package transcript

import (
	"context"
	"errors"
	"fmt"
)

// Result is a successfully resolved transcript. It is consumed
// immediately by summarization and rendering, never persisted.
type Result struct {
	Text       string
	Language   string
	Translated bool
}

// FailureKind classifies a terminal, never-retry transcript failure.
type FailureKind int

const (
	KindDisabled FailureKind = iota
	KindNotFound
	KindUnretrievable
)

// Tag returns the stable string persisted into the state file's error
// map. Changing these breaks dedup against existing state files.
func (k FailureKind) Tag() string {
	switch k {
	case KindDisabled:
		return "TranscriptsDisabled"
	case KindNotFound:
		return "NoTranscriptFound"
	default:
		return "CouldNotRetrieveTranscript"
	}
}

// TerminalError is a permanent per-video failure. Once recorded, the
// video is filtered out before the chain is ever invoked again.
type TerminalError struct {
	VideoID string
	Kind    FailureKind
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("%s: %s", e.VideoID, e.Kind.Tag())
}

// ErrAccessBlocked signals that the transcript source is actively
// refusing this network origin. Retrying only worsens the block, so
// it aborts the entire run.
var ErrAccessBlocked = errors.New("transcript source is blocking requests from this network origin")

// IsTerminal extracts the terminal classification from an error chain.
func IsTerminal(err error) (*TerminalError, bool) {
	var te *TerminalError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// Track describes one available caption track.
type Track struct {
	Language  string
	Name      string
	Generated bool
	BaseURL   string
}

func (t Track) String() string {
	kind := "manual"
	if t.Generated {
		kind = "generated"
	}
	if t.Name != "" {
		return fmt.Sprintf("%s (%s, %s)", t.Language, t.Name, kind)
	}
	return fmt.Sprintf("%s (%s)", t.Language, kind)
}

// Fetched is one fetched transcript before snippet text is joined.
type Fetched struct {
	Language string
	Snippets []string
}

// Source is the opaque caption retrieval capability: fetch a
// transcript keyed by language preference, or list what is available.
type Source interface {
	// Fetch retrieves a transcript. A nil languages slice selects the
	// source's default track.
	Fetch(ctx context.Context, videoID string, languages []string) (*Fetched, error)

	// Tracks lists the available caption tracks.
	Tracks(ctx context.Context, videoID string) ([]Track, error)

	// FetchTrack retrieves one track's raw payload in the given
	// timed-text format ("vtt", "srv3", "ttml").
	FetchTrack(ctx context.Context, track Track, format string) (string, error)
}

// Cache is an optional transcript cache consulted before any network
// fetch. Implementations must degrade to misses on internal failure.
type Cache interface {
	Get(videoID string) (*Result, bool)
	Put(videoID string, r *Result)
}
