package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Fallback formats in preference order: plain timed text parses most
// reliably, marked-up variants need cue extraction.
var fallbackFormats = []string{"vtt", "srv3", "ttml"}

// Chain tries increasingly expensive strategies in a fixed order and
// returns the first usable non-empty transcript.
type Chain struct {
	source    Source
	cache     Cache
	prefLangs []string
	acceptAny bool
	logSkips  bool
}

func NewChain(source Source, cache Cache, prefLangs []string, acceptAny, logSkips bool) *Chain {
	return &Chain{
		source:    source,
		cache:     cache,
		prefLangs: prefLangs,
		acceptAny: acceptAny,
		logSkips:  logSkips,
	}
}

// Resolve returns the first usable transcript for the video, or
// (nil, nil) when nothing usable exists right now. A *TerminalError
// must be persisted by the caller and never retried; ErrAccessBlocked
// must abort the run.
func (c *Chain) Resolve(ctx context.Context, videoID string) (*Result, error) {
	if c.cache != nil {
		if r, ok := c.cache.Get(videoID); ok {
			slog.Debug("Transcript cache hit", "id", videoID)
			return r, nil
		}
	}

	var reasons []string

	// Stage A: preferred languages. Everything except an access block
	// degrades to a recorded reason; later stages may still succeed.
	fetched, err := c.source.Fetch(ctx, videoID, c.prefLangs)
	switch {
	case errors.Is(err, ErrAccessBlocked):
		return nil, err
	case err != nil:
		reasons = append(reasons, "preferred: "+errString(err))
	default:
		if r := resultFrom(fetched); r != nil {
			return c.accept(videoID, r), nil
		}
		reasons = append(reasons, "preferred: empty snippets")
	}

	// Stage B: source default / any available language. Terminal
	// classifications surface here so the caller can persist them.
	fetched, err = c.source.Fetch(ctx, videoID, nil)
	switch {
	case errors.Is(err, ErrAccessBlocked):
		return nil, err
	case err != nil:
		if _, ok := IsTerminal(err); ok {
			return nil, err
		}
		reasons = append(reasons, "any: "+errString(err))
	default:
		if r := resultFrom(fetched); r != nil {
			if c.acceptAny || c.isPreferred(r.Language) {
				return c.accept(videoID, r), nil
			}
			reasons = append(reasons, fmt.Sprintf("any: non-preferred language %s", r.Language))
		} else {
			reasons = append(reasons, "any: empty snippets")
		}
	}

	// Stage C: raw caption tracks, English-tagged only, preferring
	// plain timed text over marked-up formats.
	if r, err := c.fromRawTracks(ctx, videoID, &reasons); err != nil {
		return nil, err
	} else if r != nil {
		slog.Info("Transcript fetched via raw caption tracks", "id", videoID, "language", r.Language)
		return c.accept(videoID, r), nil
	}

	if c.logSkips {
		if len(reasons) > 0 {
			slog.Warn("Transcript not retrievable", "id", videoID, "reasons", strings.Join(reasons, ", "))
		} else {
			slog.Warn("No transcript usable with current policy", "id", videoID)
		}
	}
	return nil, nil
}

func (c *Chain) fromRawTracks(ctx context.Context, videoID string, reasons *[]string) (*Result, error) {
	tracks, err := c.source.Tracks(ctx, videoID)
	if errors.Is(err, ErrAccessBlocked) {
		return nil, err
	}
	if err != nil {
		*reasons = append(*reasons, "tracks: "+errString(err))
		return nil, nil
	}

	for _, track := range tracks {
		if !strings.HasPrefix(track.Language, "en") {
			continue
		}
		for _, format := range fallbackFormats {
			raw, err := c.source.FetchTrack(ctx, track, format)
			if errors.Is(err, ErrAccessBlocked) {
				return nil, err
			}
			if err != nil || raw == "" {
				continue
			}
			var text string
			if format == "vtt" {
				text = ParseVTT(raw)
			} else {
				text = strings.Join(ParseTimedTextXML(raw), " ")
			}
			if strings.TrimSpace(text) != "" {
				return &Result{Text: text, Language: track.Language}, nil
			}
		}
	}
	return nil, nil
}

// ListAvailable lists caption tracks for dry-run display.
func (c *Chain) ListAvailable(ctx context.Context, videoID string) ([]Track, error) {
	return c.source.Tracks(ctx, videoID)
}

func (c *Chain) accept(videoID string, r *Result) *Result {
	if c.cache != nil {
		c.cache.Put(videoID, r)
	}
	return r
}

func (c *Chain) isPreferred(lang string) bool {
	for _, p := range c.prefLangs {
		if strings.EqualFold(p, lang) || strings.HasPrefix(lang, baseLang(p)) {
			return true
		}
	}
	return false
}

func baseLang(tag string) string {
	if i := strings.IndexByte(tag, '-'); i > 0 {
		return tag[:i]
	}
	return tag
}

// resultFrom joins non-empty snippets into a transcript body; nil
// when nothing remains. Empty snippets are "no result", not an error.
func resultFrom(f *Fetched) *Result {
	if f == nil || len(f.Snippets) == 0 {
		return nil
	}
	parts := make([]string, 0, len(f.Snippets))
	for _, s := range f.Snippets {
		if t := strings.TrimSpace(s); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return &Result{Text: strings.Join(parts, " "), Language: f.Language}
}

func errString(err error) string {
	if te, ok := IsTerminal(err); ok {
		return te.Kind.Tag()
	}
	return err.Error()
}
