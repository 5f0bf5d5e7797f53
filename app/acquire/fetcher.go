package acquire

import (
	"log/slog"
	"time"

	"google.golang.org/api/youtube/v3"

	"github.com/djinoz/yt-subs-transcripts-summarizer/app/ytapi"
)

const idBatchSize = 50

// Fetcher runs acquisition strategies against the Data API through the
// resilient executor. All strategies dedupe by video ID and return
// whatever was gathered when the quota latch trips mid-run.
type Fetcher struct {
	svc     *youtube.Service
	ex      *ytapi.Executor
	drainer *FeedDrainer
}

func NewFetcher(svc *youtube.Service, ex *ytapi.Executor, drainer *FeedDrainer) *Fetcher {
	return &Fetcher{svc: svc, ex: ex, drainer: drainer}
}

func (f *Fetcher) Latch() *ytapi.QuotaLatch {
	return f.ex.Latch()
}

// Efficient is the sampled-search strategy: a bounded top-relevance
// sample of subscriptions, then one date-ordered search per sampled
// channel with a recency cutoff, short-circuiting once maxVideos
// candidates are gathered. Cost is near-constant in subscription count.
//
// When the latch trips partway through the sample, the channels not
// yet searched are drained through their public uploads feed instead,
// at zero quota cost and with the same candidate shape.
func (f *Fetcher) Efficient(maxVideos, maxAgeDays int) ([]Video, error) {
	resp, err := ytapi.Execute(f.ex, "subscriptions.list:sample", func() (*youtube.SubscriptionListResponse, error) {
		return f.svc.Subscriptions.List([]string{"snippet"}).
			Mine(true).
			MaxResults(20).
			Order("relevance").
			Do()
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}

	var channels []Channel
	for _, item := range resp.Items {
		if item.Snippet == nil || item.Snippet.ResourceId == nil {
			continue
		}
		channels = append(channels, Channel{
			ID:    item.Snippet.ResourceId.ChannelId,
			Title: item.Snippet.Title,
		})
	}
	slog.Info("Searching recent videos from sampled subscriptions", "channels", len(channels))

	var cutoff time.Time
	if maxAgeDays > 0 {
		cutoff = time.Now().AddDate(0, 0, -maxAgeDays)
	}

	perChannel := min(15, maxVideos/15+5)
	var videos []Video

	for i, channel := range channels {
		if len(videos) >= maxVideos {
			break
		}

		call := f.svc.Search.List([]string{"snippet"}).
			ChannelId(channel.ID).
			Type("video").
			Order("date").
			MaxResults(int64(perChannel))
		if !cutoff.IsZero() {
			call = call.PublishedAfter(cutoff.Format(time.RFC3339))
		}

		resp, err := ytapi.Execute(f.ex, "search.list:"+channel.Title, func() (*youtube.SearchListResponse, error) {
			return call.Do()
		})
		if err != nil {
			return dedupeByID(videos), err
		}
		if resp == nil {
			// An abandoned search means the latch tripped on this very
			// channel, so the drain must start here, not at the next one.
			if f.ex.Latch().Tripped() {
				videos = append(videos, f.drainRemaining(channels[i:], cutoff, perChannel)...)
				break
			}
			continue
		}

		for _, item := range resp.Items {
			if len(videos) >= maxVideos {
				break
			}
			if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
				continue
			}
			videos = append(videos, Video{
				ID:                item.Id.VideoId,
				PublishedAt:       parsePublished(item.Snippet.PublishedAt),
				Title:             item.Snippet.Title,
				ChannelTitle:      item.Snippet.ChannelTitle,
				OwnerChannelTitle: item.Snippet.ChannelTitle,
			})
		}
	}

	return dedupeByID(videos), nil
}

func (f *Fetcher) drainRemaining(channels []Channel, cutoff time.Time, perChannel int) []Video {
	if f.drainer == nil || len(channels) == 0 {
		return nil
	}
	slog.Warn("Quota exhausted mid-acquisition, draining remaining channels via uploads feeds",
		"channels", len(channels))
	return f.drainer.Drain(channels, cutoff, perChannel)
}

// Exhaustive is the per-source enumeration strategy: every
// subscription is resolved to its uploads playlist and the first page
// of each playlist is scanned with a per-channel recency cutoff and
// cap. Cost scales linearly with subscription count.
func (f *Fetcher) Exhaustive(maxAgeDays, perChannelLimit int) ([]Video, error) {
	channels, err := f.subscribedUploadPlaylists()
	if err != nil {
		return nil, err
	}
	slog.Info("Found subscriptions with uploads playlists", "count", len(channels))

	var cutoff time.Time
	if maxAgeDays > 0 {
		cutoff = time.Now().AddDate(0, 0, -maxAgeDays)
	}

	// Pull a small buffer above the cap to survive later filters.
	pageSize := min(50, max(5, perChannelLimit*3))

	var videos []Video
	for _, channel := range channels {
		resp, err := ytapi.Execute(f.ex, "playlistItems.list:"+channel.Title, func() (*youtube.PlaylistItemListResponse, error) {
			return f.svc.PlaylistItems.List([]string{"snippet", "contentDetails"}).
				PlaylistId(channel.UploadsPlaylist).
				MaxResults(int64(pageSize)).
				Do()
		})
		if err != nil {
			return dedupeByID(videos), err
		}
		if resp == nil {
			continue
		}

		got := 0
		for _, item := range resp.Items {
			if item.ContentDetails == nil || item.Snippet == nil {
				continue
			}
			published := parsePublished(item.ContentDetails.VideoPublishedAt)
			if published.IsZero() {
				continue
			}
			if !cutoff.IsZero() && published.Before(cutoff) {
				continue
			}
			videos = append(videos, Video{
				ID:                item.ContentDetails.VideoId,
				PublishedAt:       published,
				Title:             item.Snippet.Title,
				ChannelTitle:      channel.Title,
				OwnerChannelTitle: channel.Title,
			})
			got++
			if got >= perChannelLimit {
				break
			}
		}
	}

	return dedupeByID(videos), nil
}

// subscribedUploadPlaylists pages through every subscription and
// resolves channels to their uploads playlists in batches of 50.
func (f *Fetcher) subscribedUploadPlaylists() ([]Channel, error) {
	var out []Channel
	pageToken := ""

	for {
		tok := pageToken
		resp, err := ytapi.Execute(f.ex, "subscriptions.list", func() (*youtube.SubscriptionListResponse, error) {
			return f.svc.Subscriptions.List([]string{"snippet", "contentDetails"}).
				Mine(true).
				MaxResults(50).
				PageToken(tok).
				Do()
		})
		if err != nil {
			return nil, err
		}
		if resp == nil {
			break
		}

		var channelIDs []string
		for _, item := range resp.Items {
			if item.Snippet != nil && item.Snippet.ResourceId != nil {
				channelIDs = append(channelIDs, item.Snippet.ResourceId.ChannelId)
			}
		}

		for i := 0; i < len(channelIDs); i += idBatchSize {
			chunk := channelIDs[i:min(i+idBatchSize, len(channelIDs))]
			chResp, err := ytapi.Execute(f.ex, "channels.list", func() (*youtube.ChannelListResponse, error) {
				return f.svc.Channels.List([]string{"contentDetails", "snippet"}).
					Id(chunk...).
					Do()
			})
			if err != nil {
				return nil, err
			}
			if chResp == nil {
				continue
			}
			for _, ch := range chResp.Items {
				if ch.ContentDetails == nil || ch.ContentDetails.RelatedPlaylists == nil || ch.Snippet == nil {
					continue
				}
				out = append(out, Channel{
					ID:              ch.Id,
					Title:           ch.Snippet.Title,
					UploadsPlaylist: ch.ContentDetails.RelatedPlaylists.Uploads,
				})
			}
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	// Dedupe by uploads playlist; a channel can appear once per page
	// boundary glitch.
	seen := make(map[string]bool, len(out))
	uniq := out[:0]
	for _, c := range out {
		if c.UploadsPlaylist == "" || seen[c.UploadsPlaylist] {
			continue
		}
		seen[c.UploadsPlaylist] = true
		uniq = append(uniq, c)
	}
	return uniq, nil
}

// Durations resolves durations for the given video IDs in batches of
// 50. IDs in a batch whose lookup was abandoned (quota) are absent
// from the result; IDs the API did not return within a successful
// batch resolve to 0.
func (f *Fetcher) Durations(ids []string) map[string]int {
	out := make(map[string]int, len(ids))
	for i := 0; i < len(ids); i += idBatchSize {
		chunk := ids[i:min(i+idBatchSize, len(ids))]
		resp, err := ytapi.Execute(f.ex, "videos.list:shorts_filter", func() (*youtube.VideoListResponse, error) {
			return f.svc.Videos.List([]string{"contentDetails"}).
				Id(chunk...).
				Do()
		})
		if err != nil || resp == nil {
			continue
		}
		found := make(map[string]int, len(resp.Items))
		for _, item := range resp.Items {
			if item.ContentDetails != nil {
				found[item.Id] = ParseISO8601Duration(item.ContentDetails.Duration)
			}
		}
		for _, id := range chunk {
			out[id] = found[id]
		}
	}
	return out
}

// Duration resolves a single video's duration, for artifact rendering
// when the filter never needed it. Returns -1 when unresolvable.
func (f *Fetcher) Duration(id string) int {
	resp, err := ytapi.Execute(f.ex, "videos.list:duration", func() (*youtube.VideoListResponse, error) {
		return f.svc.Videos.List([]string{"contentDetails"}).Id(id).Do()
	})
	if err != nil || resp == nil || len(resp.Items) == 0 || resp.Items[0].ContentDetails == nil {
		return -1
	}
	return ParseISO8601Duration(resp.Items[0].ContentDetails.Duration)
}

func parsePublished(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
