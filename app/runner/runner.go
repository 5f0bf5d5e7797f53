// Package runner sequences one complete pass: load state, acquire
// candidates for the selected mode, filter, then resolve, summarize
// and render each survivor before persisting state.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/djinoz/yt-subs-transcripts-summarizer/app/acquire"
	"github.com/djinoz/yt-subs-transcripts-summarizer/app/cfg"
	"github.com/djinoz/yt-subs-transcripts-summarizer/app/filter"
	"github.com/djinoz/yt-subs-transcripts-summarizer/app/history"
	"github.com/djinoz/yt-subs-transcripts-summarizer/app/state"
	"github.com/djinoz/yt-subs-transcripts-summarizer/app/summarize"
	"github.com/djinoz/yt-subs-transcripts-summarizer/app/transcript"
	"github.com/djinoz/yt-subs-transcripts-summarizer/app/ytapi"
)

// ErrPlaylistNotFound reports that a --playlist query matched nothing.
var ErrPlaylistNotFound = errors.New("playlist not found")

// ErrNoValidURLs reports that --urls carried no recognizable video
// IDs.
var ErrNoValidURLs = errors.New("no valid video URLs or IDs given")

// Acquirer is the candidate acquisition surface. *acquire.Fetcher
// satisfies it.
type Acquirer interface {
	Efficient(maxVideos, maxAgeDays int) ([]acquire.Video, error)
	Exhaustive(maxAgeDays, perChannelLimit int) ([]acquire.Video, error)
	ResolvePlaylist(query string) (string, string, bool)
	Playlist(playlistID string, maxAgeDays int) ([]acquire.Video, string)
	ByIDs(ids []string) ([]acquire.Video, error)
	Durations(ids []string) map[string]int
}

// Resolver is the transcript resolution surface. *transcript.Chain
// satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, videoID string) (*transcript.Result, error)
	ListAvailable(ctx context.Context, videoID string) ([]transcript.Track, error)
}

// NoteWriter renders one summarized video to disk. *render.Writer
// satisfies it.
type NoteWriter interface {
	Save(video acquire.Video, res *transcript.Result, summary string) (string, error)
}

// Runner holds the wired collaborators for one run.
type Runner struct {
	Cfg        *cfg.Cfg
	Acquirer   Acquirer
	Resolver   Resolver
	Summarizer summarize.Summarizer
	Writer     NoteWriter

	// Latch is consulted after processing to report a mid-run quota
	// exhaustion. Optional.
	Latch *ytapi.QuotaLatch

	// Out receives dry-run output. Defaults to stdout.
	Out io.Writer
}

func (r *Runner) out() io.Writer {
	if r.Out != nil {
		return r.Out
	}
	return os.Stdout
}

// Run executes one pass. A returned ErrPlaylistNotFound or
// ErrNoValidURLs is a usage-level failure; transcript.ErrAccessBlocked
// means the run aborted with state already persisted.
func (r *Runner) Run(ctx context.Context) error {
	c := r.Cfg

	st := state.Load(c.StateFile, c.MaxAgeDays)
	watched := history.Load(c.TakeoutWatchJSON)
	if len(watched) > 0 {
		slog.Info("Loaded watch history", "count", len(watched))
	}

	if c.MarkExisting {
		return r.markExisting(c, st)
	}

	videos, explicit, err := r.acquire(c)
	if err != nil {
		return err
	}
	slog.Info("Candidates acquired", "count", len(videos))

	videos, err = r.applyFilters(c, st, watched, videos, explicit)
	if err != nil {
		return err
	}
	slog.Info("Candidates after filtering", "count", len(videos))

	if c.DryRun {
		return r.dryRun(ctx, videos)
	}

	written := 0
	failed := 0
	for _, v := range videos {
		res, err := r.Resolver.Resolve(ctx, v.ID)
		if errors.Is(err, transcript.ErrAccessBlocked) {
			// Persist what this run learned before aborting, so the
			// next run does not repeat it.
			r.saveState(c, st)
			return err
		}
		if te, ok := transcript.IsTerminal(err); ok {
			slog.Warn("Transcript permanently unavailable", "id", v.ID, "title", v.Title, "error", te.Kind.Tag())
			st.RecordError(v.ID, te.Kind.Tag())
			continue
		}
		if err != nil {
			slog.Error("Transcript resolution failed", "id", v.ID, "error", err)
			failed++
			continue
		}
		if res == nil {
			if c.MarkProcessedOnNoTranscript {
				st.MarkProcessed(v.ID)
			}
			continue
		}

		summary, err := r.Summarizer.Summarize(ctx, res.Text)
		if err != nil {
			slog.Error("Summarization failed", "id", v.ID, "title", v.Title, "error", err)
			failed++
			continue
		}

		path, err := r.Writer.Save(v, res, summary)
		if err != nil {
			slog.Error("Note write failed", "id", v.ID, "title", v.Title, "error", err)
			failed++
			continue
		}

		st.MarkProcessed(v.ID)
		written++
		slog.Info("Note written", "path", path)
	}

	if r.Latch != nil && r.Latch.Tripped() {
		slog.Warn("API quota exhausted during run, remaining videos will be picked up on the next run")
	}

	if err := r.saveState(c, st); err != nil {
		return err
	}
	slog.Info("Run complete", "written", written, "failed", failed)
	return nil
}

// markExisting seeds the state file with every current item of the
// playlist, without transcripts or rendering. Run once when a playlist
// starts serving as a processing queue, so the existing backlog is
// never picked up.
func (r *Runner) markExisting(c *cfg.Cfg, st *state.State) error {
	id, title, ok := r.Acquirer.ResolvePlaylist(c.Playlist)
	if !ok {
		return fmt.Errorf("%w: %s", ErrPlaylistNotFound, c.Playlist)
	}

	// No age cutoff: the whole backlog gets marked.
	videos, _ := r.Acquirer.Playlist(id, 0)

	marked := 0
	for _, v := range videos {
		if st.IsProcessed(v.ID) {
			continue
		}
		st.MarkProcessed(v.ID)
		marked++
		slog.Info("Marked existing", "channel", v.ChannelTitle, "title", v.Title)
	}

	if err := r.saveState(c, st); err != nil {
		return err
	}
	slog.Info("Playlist backlog marked processed",
		"playlist", title, "marked", marked, "already_present", len(videos)-marked)
	return nil
}

func (r *Runner) acquire(c *cfg.Cfg) ([]acquire.Video, bool, error) {
	switch c.Mode() {
	case cfg.ModePlaylist:
		id, title, ok := r.Acquirer.ResolvePlaylist(c.Playlist)
		if !ok {
			return nil, false, fmt.Errorf("%w: %s", ErrPlaylistNotFound, c.Playlist)
		}
		slog.Info("Processing playlist", "title", title, "id", id)
		videos, _ := r.Acquirer.Playlist(id, c.MaxAgeDays)
		return videos, false, nil

	case cfg.ModeURLs:
		ids, bad := acquire.ParseURLArgs(c.URLs)
		for _, b := range bad {
			slog.Warn("Unrecognized video URL or ID", "arg", b)
		}
		if len(ids) == 0 {
			return nil, false, ErrNoValidURLs
		}
		videos, err := r.Acquirer.ByIDs(ids)
		return videos, true, err

	default:
		if c.UseEfficientAPI {
			videos, err := r.Acquirer.Efficient(c.MaxVideos, c.MaxAgeDays)
			return videos, false, err
		}
		videos, err := r.Acquirer.Exhaustive(c.MaxAgeDays, c.PerChannelLimit)
		return videos, false, err
	}
}

func (r *Runner) applyFilters(c *cfg.Cfg, st *state.State, watched map[string]bool, videos []acquire.Video, explicit bool) ([]acquire.Video, error) {
	if c.ExcludeShorts {
		videos = filter.ExcludeShorts(r.Acquirer, videos, c.ShortsMaxSeconds, c.LogSkips)
	}
	if c.ChannelsFile != "" {
		overrides, err := filter.LoadOverrides(c.ChannelsFile)
		if err != nil {
			return nil, err
		}
		videos = overrides.Apply(videos, c.LogSkips)
	}
	videos = filter.ExcludeSeen(videos, st, c.LogSkips)
	videos = filter.ExcludeWatched(videos, watched, c.LogSkips)
	return filter.SortAndCap(videos, c.MaxVideos, explicit), nil
}

// dryRun prints what a real run would process. No files are written
// and no state is touched.
func (r *Runner) dryRun(ctx context.Context, videos []acquire.Video) error {
	w := r.out()
	fmt.Fprintf(w, "Dry run: %d video(s) would be processed\n", len(videos))
	for i, v := range videos {
		duration := "unknown"
		if v.DurationSeconds != nil {
			duration = acquire.FormatDuration(*v.DurationSeconds)
		}
		fmt.Fprintf(w, "%2d. [%s] %s (%s, %s)\n    https://www.youtube.com/watch?v=%s\n",
			i+1, v.PublishedAt.Format("2006-01-02"), v.Title, v.ChannelTitle, duration, v.ID)

		if !r.Cfg.ShowTranscripts {
			continue
		}
		tracks, err := r.Resolver.ListAvailable(ctx, v.ID)
		if err != nil {
			fmt.Fprintf(w, "    captions: unavailable (%v)\n", err)
			continue
		}
		if len(tracks) == 0 {
			fmt.Fprintf(w, "    captions: none\n")
			continue
		}
		for _, t := range tracks {
			fmt.Fprintf(w, "    captions: %s\n", t)
		}
	}
	return nil
}

func (r *Runner) saveState(c *cfg.Cfg, st *state.State) error {
	if c.SkipState {
		slog.Info("State update skipped")
		return nil
	}
	if err := st.Save(c.StateFile); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}
