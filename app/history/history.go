// Package history loads the optional Google Takeout watch-history
// export, used by the filter pipeline as an "already watched" proxy.
package history

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/djinoz/yt-subs-transcripts-summarizer/app/acquire"
)

type entry struct {
	TitleURL string `json:"titleUrl"`
}

// Load parses the Takeout watch-history JSON at path into a video ID
// set. An empty path, a missing file, or a malformed export degrades
// to an empty set; watch history is advisory, never a hard dependency.
func Load(path string) map[string]bool {
	ids := make(map[string]bool)
	if path == "" {
		return ids
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Could not read Takeout watch history", "path", path, "error", err)
		}
		return ids
	}

	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("Could not parse Takeout watch history", "path", path, "error", err)
		return ids
	}

	for _, e := range entries {
		if id := acquire.ExtractVideoID(e.TitleURL); id != "" {
			ids[id] = true
		}
	}
	return ids
}
