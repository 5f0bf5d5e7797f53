package cfg

type Mode int

const (
	ModeSubscriptions Mode = iota
	ModePlaylist
	ModeURLs
)

type Cfg struct {
	// Selection limits
	MaxVideos       int
	MaxAgeDays      int
	PerChannelLimit int

	// Shorts exclusion
	ExcludeShorts    bool
	ShortsMaxSeconds int

	// Output
	OutputDir string

	// Summarization
	OpenAIAPIKey string
	OpenAIModel  string

	// Transcript language policy
	PrefLangs   []string
	TranslateTo string
	AcceptNonEN bool

	// State & history
	StateFile                   string
	TakeoutWatchJSON            string
	MarkProcessedOnNoTranscript bool

	// Transcript fetching
	CookiesFile string
	HTTPProxy   string
	HTTPSProxy  string
	CacheFile   string

	// Acquisition
	UseEfficientAPI bool
	ChannelsFile    string

	// Auth
	ClientSecretFile string
	TokenFile        string

	// Logging
	LogLevel string
	LogSkips bool

	// Run modes (mutually exclusive)
	Playlist string
	URLs     []string

	// One-time backlog seed for a playlist used as a processing queue
	MarkExisting bool

	// Run flags
	DryRun          bool
	ShowTranscripts bool
	SkipState       bool

	Version string
}

// Mode reports which of the three mutually exclusive invocation modes
// is selected.
func (c *Cfg) Mode() Mode {
	switch {
	case len(c.URLs) > 0:
		return ModeURLs
	case c.Playlist != "":
		return ModePlaylist
	default:
		return ModeSubscriptions
	}
}
