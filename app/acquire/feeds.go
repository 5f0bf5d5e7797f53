package acquire

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const uploadsFeedURL = "https://www.youtube.com/feeds/videos.xml?channel_id="

// FeedDrainer pulls recent uploads through a channel's public RSS
// feed. It costs no API quota, so it serves as the drain path for
// channels left unsearched after the quota latch trips.
type FeedDrainer struct {
	parser *gofeed.Parser
}

func NewFeedDrainer(client *http.Client) *FeedDrainer {
	p := gofeed.NewParser()
	if client != nil {
		p.Client = client
	}
	return &FeedDrainer{parser: p}
}

// Drain fetches each channel's uploads feed and converts entries to
// candidates, honoring the recency cutoff and per-channel cap. Feed
// failures skip that one channel.
func (d *FeedDrainer) Drain(channels []Channel, cutoff time.Time, perChannel int) []Video {
	var out []Video
	for _, channel := range channels {
		feed, err := d.parser.ParseURL(uploadsFeedURL + channel.ID)
		if err != nil {
			slog.Warn("Uploads feed unavailable", "channel", channel.Title, "error", err)
			continue
		}

		title := channel.Title
		if title == "" {
			title = feed.Title
		}

		got := 0
		for _, item := range feed.Items {
			if got >= perChannel {
				break
			}
			id := feedEntryVideoID(item)
			if id == "" || item.PublishedParsed == nil {
				continue
			}
			if !cutoff.IsZero() && item.PublishedParsed.Before(cutoff) {
				continue
			}
			out = append(out, Video{
				ID:                id,
				PublishedAt:       *item.PublishedParsed,
				Title:             item.Title,
				ChannelTitle:      title,
				OwnerChannelTitle: title,
			})
			got++
		}
	}
	return dedupeByID(out)
}

// feedEntryVideoID extracts the video ID from an uploads feed entry.
// Entries carry a "yt:video:<id>" GUID; the link is the fallback.
func feedEntryVideoID(item *gofeed.Item) string {
	if strings.HasPrefix(item.GUID, "yt:video:") {
		if id := strings.TrimPrefix(item.GUID, "yt:video:"); ExtractVideoID(id) != "" {
			return id
		}
	}
	return ExtractVideoID(item.Link)
}
