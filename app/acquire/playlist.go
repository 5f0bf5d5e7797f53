package acquire

import (
	"log/slog"
	"strings"
	"time"

	"google.golang.org/api/youtube/v3"

	"github.com/djinoz/yt-subs-transcripts-summarizer/app/ytapi"
)

// ResolvePlaylist resolves a playlist name or ID to (id, title).
// Resolution order: direct ID shape, then the caller's own playlists
// by exact title, then a public search by exact title. A near-miss in
// the public search logs the candidate titles as suggestions.
// Returns ("", "", false) when nothing matches.
func (f *Fetcher) ResolvePlaylist(query string) (string, string, bool) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", "", false
	}

	if LooksLikePlaylistID(q) {
		resp, err := ytapi.Execute(f.ex, "playlists.get:id", func() (*youtube.PlaylistListResponse, error) {
			return f.svc.Playlists.List([]string{"snippet"}).Id(q).MaxResults(1).Do()
		})
		title := q
		if err == nil && resp != nil && len(resp.Items) > 0 && resp.Items[0].Snippet != nil {
			title = resp.Items[0].Snippet.Title
		}
		return q, title, true
	}

	// Own playlists, exact title match.
	pageToken := ""
	for {
		tok := pageToken
		resp, err := ytapi.Execute(f.ex, "playlists.list:mine", func() (*youtube.PlaylistListResponse, error) {
			return f.svc.Playlists.List([]string{"snippet", "contentDetails"}).
				Mine(true).
				MaxResults(50).
				PageToken(tok).
				Do()
		})
		if err != nil || resp == nil {
			break
		}
		for _, item := range resp.Items {
			if item.Snippet == nil {
				continue
			}
			if strings.EqualFold(strings.TrimSpace(item.Snippet.Title), q) {
				return item.Id, item.Snippet.Title, true
			}
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	// Public search, exact title match; remember near-misses.
	resp, err := ytapi.Execute(f.ex, "search.list:"+q, func() (*youtube.SearchListResponse, error) {
		return f.svc.Search.List([]string{"snippet"}).Q(q).Type("playlist").MaxResults(5).Do()
	})
	if err == nil && resp != nil {
		type candidate struct{ title, id string }
		var candidates []candidate
		for _, item := range resp.Items {
			if item.Id == nil || item.Id.PlaylistId == "" || item.Snippet == nil {
				continue
			}
			if strings.EqualFold(strings.TrimSpace(item.Snippet.Title), q) {
				return item.Id.PlaylistId, item.Snippet.Title, true
			}
			candidates = append(candidates, candidate{item.Snippet.Title, item.Id.PlaylistId})
		}
		if len(candidates) > 0 {
			slog.Error("No exact playlist title match; did you mean one of these?")
			for _, c := range candidates {
				slog.Error("  candidate playlist", "title", c.title, "id", c.id)
			}
		}
	}

	return "", "", false
}

// Playlist lists the first page of a playlist's items, applying a
// recency cutoff when maxAgeDays is positive. Returns the videos and
// the playlist's title.
func (f *Fetcher) Playlist(playlistID string, maxAgeDays int) ([]Video, string) {
	title := "(playlist)"
	plResp, err := ytapi.Execute(f.ex, "playlists.get", func() (*youtube.PlaylistListResponse, error) {
		return f.svc.Playlists.List([]string{"snippet"}).Id(playlistID).MaxResults(1).Do()
	})
	if err == nil && plResp != nil && len(plResp.Items) > 0 && plResp.Items[0].Snippet != nil {
		title = plResp.Items[0].Snippet.Title
	}

	var cutoff time.Time
	if maxAgeDays > 0 {
		cutoff = time.Now().AddDate(0, 0, -maxAgeDays)
	}

	resp, err := ytapi.Execute(f.ex, "playlistItems.list:"+title, func() (*youtube.PlaylistItemListResponse, error) {
		return f.svc.PlaylistItems.List([]string{"snippet", "contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(50).
			Do()
	})
	if err != nil || resp == nil {
		return nil, title
	}

	var out []Video
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
		owner := item.Snippet.VideoOwnerChannelTitle
		if owner == "" {
			owner = item.Snippet.ChannelTitle
		}
		out = append(out, Video{
			ID:                item.ContentDetails.VideoId,
			PublishedAt:       published,
			Title:             item.Snippet.Title,
			ChannelTitle:      item.Snippet.ChannelTitle,
			OwnerChannelTitle: owner,
		})
	}
	return dedupeByID(out), title
}
