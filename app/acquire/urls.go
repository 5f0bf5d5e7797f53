package acquire

import (
	"fmt"
	"log/slog"

	"google.golang.org/api/youtube/v3"

	"github.com/djinoz/yt-subs-transcripts-summarizer/app/ytapi"
)

// ParseURLArgs extracts video IDs from raw URL/ID arguments, reporting
// the arguments that parsed to nothing.
func ParseURLArgs(args []string) (ids []string, bad []string) {
	for _, arg := range args {
		if id := ExtractVideoID(arg); id != "" {
			ids = append(ids, id)
		} else {
			bad = append(bad, arg)
		}
	}
	return ids, bad
}

// ByIDs resolves explicit video IDs to candidates via videos.list in
// batches of 50. Durations are pre-filled since the lookup carries
// contentDetails anyway.
func (f *Fetcher) ByIDs(ids []string) ([]Video, error) {
	var out []Video
	for i := 0; i < len(ids); i += idBatchSize {
		chunk := ids[i:min(i+idBatchSize, len(ids))]
		resp, err := ytapi.Execute(f.ex, "videos.list:urls", func() (*youtube.VideoListResponse, error) {
			return f.svc.Videos.List([]string{"snippet", "contentDetails"}).
				Id(chunk...).
				Do()
		})
		if err != nil {
			return dedupeByID(out), fmt.Errorf("resolve explicit video IDs: %w", err)
		}
		if resp == nil {
			continue
		}
		for _, item := range resp.Items {
			if item.Snippet == nil {
				continue
			}
			v := Video{
				ID:                item.Id,
				PublishedAt:       parsePublished(item.Snippet.PublishedAt),
				Title:             item.Snippet.Title,
				ChannelTitle:      item.Snippet.ChannelTitle,
				OwnerChannelTitle: item.Snippet.ChannelTitle,
			}
			if item.ContentDetails != nil {
				secs := ParseISO8601Duration(item.ContentDetails.Duration)
				v.DurationSeconds = &secs
			}
			out = append(out, v)
		}
	}
	if len(out) < len(ids) {
		slog.Warn("Some explicit video IDs did not resolve", "requested", len(ids), "resolved", len(out))
	}
	return dedupeByID(out), nil
}
