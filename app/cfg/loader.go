package cfg

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Selection limits
	MaxVideos       int `long:"max-videos" env:"YT_MAX_VIDEOS" default:"30" description:"Global cap on videos per run (0 disables the cap)"`
	MaxAgeDays      int `long:"max-age-days" env:"YT_MAX_AGE_DAYS" default:"14" description:"Ignore videos older than this many days"`
	PerChannelLimit int `long:"per-channel-limit" env:"YT_PER_CHANNEL_LIMIT" default:"3" description:"Maximum videos taken per channel in subscriptions mode"`

	// Shorts exclusion
	ExcludeShorts    bool `long:"exclude-shorts" env:"YT_EXCLUDE_SHORTS" description:"Drop videos at or below the shorts duration threshold"`
	NoExcludeShorts  bool `long:"no-exclude-shorts" description:"Disable the shorts duration filter"`
	ShortsMaxSeconds int  `long:"shorts-max-seconds" env:"YT_SHORTS_MAX_SECONDS" default:"180" description:"Duration threshold in seconds for the shorts filter"`

	// Output
	OutputDir string `long:"output-dir" env:"OUTPUT_DIR" default:"./ToJoplin" description:"Directory for generated markdown files"`

	// Summarization
	OpenAIAPIKey string `long:"openai-api-key" env:"OPENAI_API_KEY" description:"OpenAI API key; local extractive summarizer is used when empty"`
	OpenAIModel  string `long:"openai-model" env:"OPENAI_MODEL" default:"gpt-4o-mini" description:"OpenAI model for summarization"`

	// Transcript language policy
	PrefLangs   string `long:"pref-langs" env:"YT_TRANSCR_PREF_LANGS" default:"en,en-US,en-GB,en-CA,en-AU" description:"Comma-separated preferred transcript languages, ranked"`
	TranslateTo string `long:"translate-to" env:"YT_TRANSLATE_TO" default:"en" description:"Target language for transcript translation"`
	AcceptNonEN bool   `long:"accept-non-en" env:"YT_ACCEPT_NON_EN" description:"Accept a transcript in a non-preferred language when no preferred one exists"`

	// State & history
	StateFile                   string `long:"state-file" env:"YT_STATE_FILE" default:"yt_state.json" description:"Path of the processed-videos state file"`
	TakeoutWatchJSON            string `long:"takeout-watch-json" env:"YT_TAKEOUT_WATCH_JSON" description:"Optional Google Takeout watch-history export used to skip watched videos"`
	MarkProcessedOnNoTranscript bool   `long:"mark-processed-on-no-transcript" env:"YT_MARK_PROCESSED_ON_NO_TRANSCRIPT" description:"Record videos with no retrievable transcript as processed"`

	// Transcript fetching
	CookiesFile string `long:"cookies-file" env:"YT_COOKIES_FILE" description:"Netscape-format cookie file for gated captions"`
	HTTPProxy   string `long:"http-proxy" env:"HTTP_PROXY" description:"Proxy URL for plain HTTP requests"`
	HTTPSProxy  string `long:"https-proxy" env:"HTTPS_PROXY" description:"Proxy URL for HTTPS requests"`
	CacheFile   string `long:"cache-file" env:"YT_CACHE_FILE" description:"Optional sqlite transcript cache path (disabled when empty)"`

	// Acquisition
	UseEfficientAPI bool   `long:"use-efficient-api" env:"YT_USE_EFFICIENT_API" description:"Use the sampled-search acquisition strategy (recommended)"`
	LegacyAPI       bool   `long:"legacy-api" description:"Use the exhaustive uploads-playlist acquisition strategy"`
	ChannelsFile    string `long:"channels-file" env:"YT_CHANNELS_FILE" description:"Optional YAML file with per-channel overrides"`

	// Auth
	ClientSecretFile string `long:"client-secret" env:"YT_CLIENT_SECRET" default:"client_secret.json" description:"OAuth client secret file"`
	TokenFile        string `long:"token-file" env:"YT_TOKEN_FILE" default:"token.json" description:"OAuth token cache file"`

	// Logging
	LogLevel string `long:"log-level" env:"YT_LOG_LEVEL" default:"ERROR" choice:"ERROR" choice:"WARN" choice:"INFO" choice:"DEBUG" description:"Log verbosity"`
	LogSkips bool   `long:"log-skips" env:"YT_LOG_SKIPS" description:"Log every skipped video with its reason"`

	// Run modes
	Playlist     string   `long:"playlist" description:"Process a playlist (name or ID) instead of subscriptions"`
	URLs         []string `long:"urls" description:"Explicit video URLs or IDs to process (repeatable)"`
	MarkExisting bool     `long:"mark-existing" description:"With --playlist, mark all current items processed without rendering (one-time backlog seed)"`

	// Run flags
	DryRun          bool `long:"dryrun" description:"Print what would be processed; write no files or state"`
	ShowTranscripts bool `long:"show-transcripts" description:"With --dryrun, list available caption tracks per video"`
	SkipState       bool `long:"skip-state" description:"Read state for filtering but never persist it"`
}

var globalCfg *Cfg

// Load parses configuration from environment variables and command-line
// flags. Returns (nil, nil) when help output was requested.
func Load() (*Cfg, error) {
	var raw rawCfg

	// Boolean env toggles default to on in the original tool; go-flags
	// bool flags default to off, so the enabled-by-default ones are
	// modelled as a pair (--x / --no-x) resolved here.
	raw.ExcludeShorts = envBoolDefaultTrue("YT_EXCLUDE_SHORTS")
	raw.AcceptNonEN = envBoolDefaultTrue("YT_ACCEPT_NON_EN")
	raw.LogSkips = envBoolDefaultTrue("YT_LOG_SKIPS")
	raw.UseEfficientAPI = envBoolDefaultTrue("YT_USE_EFFICIENT_API")

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.Playlist != "" && len(raw.URLs) > 0 {
		return nil, fmt.Errorf("--playlist and --urls are mutually exclusive")
	}
	if raw.MarkExisting && raw.Playlist == "" {
		return nil, fmt.Errorf("--mark-existing requires --playlist")
	}
	if raw.NoExcludeShorts {
		raw.ExcludeShorts = false
	}
	if raw.LegacyAPI {
		raw.UseEfficientAPI = false
	}

	cfg := &Cfg{
		MaxVideos:                   raw.MaxVideos,
		MaxAgeDays:                  raw.MaxAgeDays,
		PerChannelLimit:             raw.PerChannelLimit,
		ExcludeShorts:               raw.ExcludeShorts,
		ShortsMaxSeconds:            raw.ShortsMaxSeconds,
		OutputDir:                   raw.OutputDir,
		OpenAIAPIKey:                strings.TrimSpace(raw.OpenAIAPIKey),
		OpenAIModel:                 raw.OpenAIModel,
		PrefLangs:                   splitLangs(raw.PrefLangs),
		TranslateTo:                 cmp.Or(strings.TrimSpace(raw.TranslateTo), "en"),
		AcceptNonEN:                 raw.AcceptNonEN,
		StateFile:                   raw.StateFile,
		TakeoutWatchJSON:            strings.TrimSpace(raw.TakeoutWatchJSON),
		MarkProcessedOnNoTranscript: raw.MarkProcessedOnNoTranscript,
		CookiesFile:                 strings.TrimSpace(raw.CookiesFile),
		HTTPProxy:                   strings.TrimSpace(raw.HTTPProxy),
		HTTPSProxy:                  strings.TrimSpace(raw.HTTPSProxy),
		CacheFile:                   strings.TrimSpace(raw.CacheFile),
		UseEfficientAPI:             raw.UseEfficientAPI,
		ChannelsFile:                strings.TrimSpace(raw.ChannelsFile),
		ClientSecretFile:            raw.ClientSecretFile,
		TokenFile:                   raw.TokenFile,
		LogLevel:                    strings.ToUpper(strings.TrimSpace(raw.LogLevel)),
		LogSkips:                    raw.LogSkips,
		Playlist:                    strings.TrimSpace(raw.Playlist),
		URLs:                        raw.URLs,
		MarkExisting:                raw.MarkExisting,
		DryRun:                      raw.DryRun,
		ShowTranscripts:             raw.ShowTranscripts,
		SkipState:                   raw.SkipState,
		Version:                     GetVersion(),
	}

	globalCfg = cfg

	return cfg, nil
}

// Get returns the loaded configuration. Panics if Load has not been
// called; configuration access before Load is a programming error.
func Get() *Cfg {
	if globalCfg == nil {
		panic("cfg.Get called before cfg.Load")
	}
	return globalCfg
}

func splitLangs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
