// Package acquire produces the candidate video list: the same flat
// Video shape regardless of whether candidates came from the sampled
// search strategy, the exhaustive uploads enumeration, a named
// playlist, an explicit URL list, or the RSS drain fallback.
package acquire

import (
	"regexp"
	"time"
)

// Video is one candidate: identified, minimally described, and not yet
// filtered. DurationSeconds is nil until resolved by the shorts filter
// (or pre-filled in URLs mode, where the lookup is free).
type Video struct {
	ID                string
	PublishedAt       time.Time
	Title             string
	ChannelTitle      string
	OwnerChannelTitle string
	DurationSeconds   *int
}

// Channel is a subscribed source.
type Channel struct {
	ID              string
	Title           string
	UploadsPlaylist string
}

var (
	videoURLRe   = regexp.MustCompile(`(?:v=|youtu\.be/)([A-Za-z0-9_\-]{11})`)
	videoIDRe    = regexp.MustCompile(`^[A-Za-z0-9_\-]{11}$`)
	playlistIDRe = regexp.MustCompile(`^(PL|UU|LL|WL|FL)[A-Za-z0-9_\-]{10,}$`)
)

// ExtractVideoID parses an 11-character video ID out of a raw ID, a
// watch URL, or a youtu.be short link. Returns "" when none is found.
func ExtractVideoID(s string) string {
	if videoIDRe.MatchString(s) {
		return s
	}
	if m := videoURLRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// LooksLikePlaylistID reports whether s has the shape of a playlist ID.
func LooksLikePlaylistID(s string) bool {
	return playlistIDRe.MatchString(s)
}

// dedupeByID keeps the first occurrence of each video ID, preserving
// order.
func dedupeByID(videos []Video) []Video {
	seen := make(map[string]bool, len(videos))
	out := make([]Video, 0, len(videos))
	for _, v := range videos {
		if seen[v.ID] {
			continue
		}
		seen[v.ID] = true
		out = append(out, v)
	}
	return out
}
