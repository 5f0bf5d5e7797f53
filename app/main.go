package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/djinoz/yt-subs-transcripts-summarizer/app/acquire"
	"github.com/djinoz/yt-subs-transcripts-summarizer/app/cache"
	"github.com/djinoz/yt-subs-transcripts-summarizer/app/cfg"
	"github.com/djinoz/yt-subs-transcripts-summarizer/app/render"
	"github.com/djinoz/yt-subs-transcripts-summarizer/app/runner"
	"github.com/djinoz/yt-subs-transcripts-summarizer/app/summarize"
	"github.com/djinoz/yt-subs-transcripts-summarizer/app/transcript"
	"github.com/djinoz/yt-subs-transcripts-summarizer/app/ytapi"
)

// Exit codes: 0 success, 1 fatal failure, 2 usage-level failure
// (unknown playlist, no valid URLs), 3 transcript source blocking this
// network origin.
func main() {
	os.Exit(run())
}

func run() int {
	c, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if c == nil {
		// Help was shown
		return 0
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: c.SlogLevel(),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting run", "version", c.Version)

	slog.Info("Authorizing with YouTube")
	svc, err := ytapi.NewService(ctx, c.ClientSecretFile, c.TokenFile)
	if err != nil {
		slog.Error("YouTube authorization failed", "error", err)
		return 1
	}

	httpClient, err := transcript.NewHTTPClient(c.CookiesFile, c.HTTPProxy, c.HTTPSProxy)
	if err != nil {
		slog.Error("Transcript client setup failed", "error", err)
		return 1
	}

	var transcriptCache transcript.Cache
	if c.CacheFile != "" {
		sqliteCache, err := cache.Open(c.CacheFile)
		if err != nil {
			slog.Error("Transcript cache unavailable", "error", err)
			return 1
		}
		defer sqliteCache.Close()
		transcriptCache = sqliteCache
	}

	latch := ytapi.NewQuotaLatch()
	executor := ytapi.NewExecutor(latch)
	fetcher := acquire.NewFetcher(svc, executor, acquire.NewFeedDrainer(httpClient))

	source := transcript.NewInnertubeSource(httpClient)
	chain := transcript.NewChain(source, transcriptCache, c.PrefLangs, c.AcceptNonEN, c.LogSkips)

	var summarizer summarize.Summarizer
	if c.OpenAIAPIKey != "" {
		summarizer, err = summarize.NewOpenAI(c.OpenAIAPIKey, c.OpenAIModel)
		if err != nil {
			slog.Error("OpenAI setup failed", "error", err)
			return 1
		}
		slog.Info("Summarizing with OpenAI", "model", c.OpenAIModel)
	} else {
		summarizer = summarize.NewTextRank()
		slog.Info("No OpenAI key set, summarizing locally")
	}

	r := &runner.Runner{
		Cfg:        c,
		Acquirer:   fetcher,
		Resolver:   chain,
		Summarizer: summarizer,
		Writer:     &render.Writer{OutDir: c.OutputDir, Resolver: fetcher},
		Latch:      latch,
	}

	if err := r.Run(ctx); err != nil {
		slog.Error("Run failed", "error", err)
		switch {
		case errors.Is(err, runner.ErrPlaylistNotFound), errors.Is(err, runner.ErrNoValidURLs):
			return 2
		case errors.Is(err, transcript.ErrAccessBlocked):
			return 3
		default:
			return 1
		}
	}
	return 0
}
