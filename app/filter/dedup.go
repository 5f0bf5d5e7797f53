package filter

import (
	"log/slog"
	"sort"

	"github.com/djinoz/yt-subs-transcripts-summarizer/app/acquire"
	"github.com/djinoz/yt-subs-transcripts-summarizer/app/state"
)

// ExcludeSeen drops candidates already processed or permanently
// errored in the state store.
func ExcludeSeen(videos []acquire.Video, st *state.State, logSkips bool) []acquire.Video {
	out := make([]acquire.Video, 0, len(videos))
	for _, v := range videos {
		if st.IsProcessed(v.ID) {
			if logSkips {
				slog.Info("Skipping already processed", "channel", v.ChannelTitle, "title", v.Title)
			}
			continue
		}
		if tag, ok := st.HasError(v.ID); ok {
			if logSkips {
				slog.Info("Skipping previous error", "error", tag, "channel", v.ChannelTitle, "title", v.Title)
			}
			continue
		}
		out = append(out, v)
	}
	return out
}

// ExcludeWatched drops candidates present in the externally loaded
// watch-history ID set.
func ExcludeWatched(videos []acquire.Video, watched map[string]bool, logSkips bool) []acquire.Video {
	if len(watched) == 0 {
		return videos
	}
	out := make([]acquire.Video, 0, len(videos))
	for _, v := range videos {
		if watched[v.ID] {
			if logSkips {
				slog.Info("Skipping watched", "channel", v.ChannelTitle, "title", v.Title)
			}
			continue
		}
		out = append(out, v)
	}
	return out
}

// SortAndCap orders candidates newest-first and truncates to max when
// a positive cap is configured and the run is not processing an
// explicit ID list.
func SortAndCap(videos []acquire.Video, max int, explicitList bool) []acquire.Video {
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].PublishedAt.After(videos[j].PublishedAt)
	})
	if max > 0 && !explicitList && len(videos) > max {
		return videos[:max]
	}
	return videos
}
