package filter

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/djinoz/yt-subs-transcripts-summarizer/app/acquire"
)

// Override adjusts handling for a single channel, keyed by its display
// title in the overrides file.
type Override struct {
	Disabled   bool `yaml:"disabled"`
	MaxItems   int  `yaml:"max_items"`
	MinSeconds int  `yaml:"min_seconds"`
}

type Overrides map[string]Override

// LoadOverrides reads the optional per-channel overrides file. A
// missing path returns an empty set; a malformed file is an error so
// a typo does not silently disable the overrides.
func LoadOverrides(path string) (Overrides, error) {
	if path == "" {
		return Overrides{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("Channel overrides file not found, ignoring", "path", path)
			return Overrides{}, nil
		}
		return nil, fmt.Errorf("read channel overrides: %w", err)
	}

	var doc struct {
		Channels Overrides `yaml:"channels"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse channel overrides: %w", err)
	}
	if doc.Channels == nil {
		doc.Channels = Overrides{}
	}
	return doc.Channels, nil
}

// Apply enforces per-channel overrides: disabled channels are dropped
// entirely, per-channel caps bound how many of a channel's videos
// survive (in list order), and a per-channel minimum duration drops
// resolved-but-too-short videos.
func (o Overrides) Apply(videos []acquire.Video, logSkips bool) []acquire.Video {
	if len(o) == 0 {
		return videos
	}

	taken := make(map[string]int, len(o))
	out := make([]acquire.Video, 0, len(videos))
	for _, v := range videos {
		ov, ok := o[v.ChannelTitle]
		if !ok {
			out = append(out, v)
			continue
		}
		if ov.Disabled {
			if logSkips {
				slog.Info("Skipping disabled channel", "channel", v.ChannelTitle, "title", v.Title)
			}
			continue
		}
		if ov.MinSeconds > 0 && v.DurationSeconds != nil && *v.DurationSeconds <= ov.MinSeconds {
			if logSkips {
				slog.Info("Skipping below channel minimum duration",
					"channel", v.ChannelTitle, "title", v.Title, "seconds", *v.DurationSeconds)
			}
			continue
		}
		if ov.MaxItems > 0 && taken[v.ChannelTitle] >= ov.MaxItems {
			if logSkips {
				slog.Info("Skipping over channel cap", "channel", v.ChannelTitle, "title", v.Title)
			}
			continue
		}
		taken[v.ChannelTitle]++
		out = append(out, v)
	}
	return out
}
