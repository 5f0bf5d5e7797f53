// Package filter applies the ordered candidate pipeline: duration
// exclusion, state-store dedup, watch-history dedup, channel
// overrides, and the recency sort with a global cap. Each stage
// consumes and returns a list with no hidden cross-stage state.
package filter

import (
	"log/slog"

	"github.com/djinoz/yt-subs-transcripts-summarizer/app/acquire"
)

// DurationSource resolves durations for a set of video IDs. IDs whose
// lookup was abandoned (quota exhausted mid-lookup) must be absent
// from the returned map.
type DurationSource interface {
	Durations(ids []string) map[string]int
}

// ExcludeShorts drops videos at or below maxSeconds. Videos missing a
// duration are batch-resolved via src; a video whose duration cannot
// be resolved is kept rather than dropped.
func ExcludeShorts(src DurationSource, videos []acquire.Video, maxSeconds int, logSkips bool) []acquire.Video {
	if len(videos) == 0 {
		return videos
	}

	kept := make([]acquire.Video, 0, len(videos))
	var unresolved []acquire.Video

	for _, v := range videos {
		if v.DurationSeconds == nil {
			unresolved = append(unresolved, v)
			continue
		}
		if *v.DurationSeconds > maxSeconds {
			kept = append(kept, v)
		} else if logSkips {
			slog.Info("Skipping short", "seconds", *v.DurationSeconds, "channel", v.ChannelTitle, "title", v.Title)
		}
	}

	if len(unresolved) == 0 {
		return kept
	}

	ids := make([]string, len(unresolved))
	for i, v := range unresolved {
		ids[i] = v.ID
	}
	durations := src.Durations(ids)

	for _, v := range unresolved {
		secs, ok := durations[v.ID]
		if !ok {
			// Lookup abandoned, likely quota. Keep to avoid over-filtering.
			slog.Warn("Duration unresolved, keeping video", "id", v.ID, "title", v.Title)
			kept = append(kept, v)
			continue
		}
		d := secs
		v.DurationSeconds = &d
		if secs > maxSeconds {
			kept = append(kept, v)
		} else if logSkips {
			slog.Info("Skipping short", "seconds", secs, "channel", v.ChannelTitle, "title", v.Title)
		}
	}

	return kept
}
