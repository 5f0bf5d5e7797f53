package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/djinoz/yt-subs-transcripts-summarizer/app/acquire"
	"github.com/djinoz/yt-subs-transcripts-summarizer/app/cfg"
	"github.com/djinoz/yt-subs-transcripts-summarizer/app/transcript"
)

type fakeAcquirer struct {
	videos    []acquire.Video
	durations map[string]int

	resolvedID    string
	resolvedTitle string
}

func (f *fakeAcquirer) Efficient(_, _ int) ([]acquire.Video, error) {
	return f.videos, nil
}

func (f *fakeAcquirer) Exhaustive(_, _ int) ([]acquire.Video, error) {
	return f.videos, nil
}

func (f *fakeAcquirer) ResolvePlaylist(string) (string, string, bool) {
	if f.resolvedID == "" {
		return "", "", false
	}
	return f.resolvedID, f.resolvedTitle, true
}

func (f *fakeAcquirer) Playlist(string, int) ([]acquire.Video, string) {
	return f.videos, "playlist"
}

func (f *fakeAcquirer) ByIDs(ids []string) ([]acquire.Video, error) {
	return f.videos, nil
}

func (f *fakeAcquirer) Durations(ids []string) map[string]int {
	out := make(map[string]int, len(ids))
	for _, id := range ids {
		if secs, ok := f.durations[id]; ok {
			out[id] = secs
		}
	}
	return out
}

type fakeResolver struct {
	results map[string]*transcript.Result
	errs    map[string]error
	calls   []string
}

func (f *fakeResolver) Resolve(_ context.Context, videoID string) (*transcript.Result, error) {
	f.calls = append(f.calls, videoID)
	if err, ok := f.errs[videoID]; ok {
		return nil, err
	}
	return f.results[videoID], nil
}

func (f *fakeResolver) ListAvailable(context.Context, string) ([]transcript.Track, error) {
	return nil, nil
}

type fakeSummarizer struct{ fail bool }

func (f *fakeSummarizer) Summarize(_ context.Context, text string) (string, error) {
	if f.fail {
		return "", errors.New("summarizer down")
	}
	return "summary of: " + text, nil
}

type fakeWriter struct {
	saved []string
	fail  bool
}

func (f *fakeWriter) Save(video acquire.Video, _ *transcript.Result, _ string) (string, error) {
	if f.fail {
		return "", errors.New("disk full")
	}
	f.saved = append(f.saved, video.ID)
	return "/notes/" + video.ID + ".md", nil
}

type stateFile struct {
	Processed map[string]int64  `json:"processed_timestamps"`
	Errors    map[string]string `json:"video_errors"`
}

func writeStateFile(t *testing.T, path string, ids ...string) {
	t.Helper()
	sf := stateFile{Processed: map[string]int64{}, Errors: map[string]string{}}
	for _, id := range ids {
		sf.Processed[id] = time.Now().Unix()
	}
	raw, err := json.Marshal(sf)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatal(err)
	}
}

func readStateFile(t *testing.T, path string) stateFile {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected state file readable, got %v", err)
	}
	var sf stateFile
	if err := json.Unmarshal(raw, &sf); err != nil {
		t.Fatalf("Expected valid state JSON, got %v", err)
	}
	return sf
}

func candidates() []acquire.Video {
	base := time.Now().Add(-24 * time.Hour)
	return []acquire.Video{
		{ID: "vidShort01x", Title: "Short clip", ChannelTitle: "Ch1", PublishedAt: base},
		{ID: "vidSeen002x", Title: "Already seen", ChannelTitle: "Ch2", PublishedAt: base.Add(time.Hour)},
		{ID: "vidFresh03x", Title: "Fresh upload", ChannelTitle: "Ch3", PublishedAt: base.Add(2 * time.Hour)},
	}
}

func baseCfg(stateFile string) *cfg.Cfg {
	return &cfg.Cfg{
		MaxVideos:        30,
		MaxAgeDays:       14,
		PerChannelLimit:  3,
		ExcludeShorts:    true,
		ShortsMaxSeconds: 60,
		StateFile:        stateFile,
		UseEfficientAPI:  true,
	}
}

func TestRunEndToEnd(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	writeStateFile(t, statePath, "vidShort01x", "vidSeen002x")

	acq := &fakeAcquirer{
		videos: candidates(),
		durations: map[string]int{
			"vidShort01x": 45,
			"vidSeen002x": 200,
			"vidFresh03x": 500,
		},
	}
	resolver := &fakeResolver{results: map[string]*transcript.Result{
		"vidFresh03x": {Text: "a transcript worth summarizing", Language: "en"},
	}}
	writer := &fakeWriter{}

	r := &Runner{
		Cfg:        baseCfg(statePath),
		Acquirer:   acq,
		Resolver:   resolver,
		Summarizer: &fakeSummarizer{},
		Writer:     writer,
	}

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Expected run to succeed, got %v", err)
	}

	if len(writer.saved) != 1 || writer.saved[0] != "vidFresh03x" {
		t.Errorf("Expected exactly the fresh video written, got %v", writer.saved)
	}
	if len(resolver.calls) != 1 {
		t.Errorf("Expected 1 transcript resolution, got %v", resolver.calls)
	}

	sf := readStateFile(t, statePath)
	if len(sf.Processed) != 3 {
		t.Errorf("Expected 3 processed ids saved, got %d: %v", len(sf.Processed), sf.Processed)
	}
	for _, id := range []string{"vidShort01x", "vidSeen002x", "vidFresh03x"} {
		if _, ok := sf.Processed[id]; !ok {
			t.Errorf("Expected %s in saved state", id)
		}
	}
}

func TestRunSecondPassIsIdempotent(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	writeStateFile(t, statePath, "vidShort01x", "vidSeen002x")

	acq := &fakeAcquirer{
		videos: candidates(),
		durations: map[string]int{
			"vidShort01x": 45,
			"vidSeen002x": 200,
			"vidFresh03x": 500,
		},
	}
	results := map[string]*transcript.Result{
		"vidFresh03x": {Text: "a transcript worth summarizing", Language: "en"},
	}

	for pass := 1; pass <= 2; pass++ {
		writer := &fakeWriter{}
		r := &Runner{
			Cfg:        baseCfg(statePath),
			Acquirer:   acq,
			Resolver:   &fakeResolver{results: results},
			Summarizer: &fakeSummarizer{},
			Writer:     writer,
		}
		if err := r.Run(context.Background()); err != nil {
			t.Fatalf("Pass %d: expected run to succeed, got %v", pass, err)
		}
		want := 0
		if pass == 1 {
			want = 1
		}
		if len(writer.saved) != want {
			t.Errorf("Pass %d: expected %d notes written, got %v", pass, want, writer.saved)
		}
	}
}

func TestRunTerminalErrorRecordedAndExcluded(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")

	video := acquire.Video{ID: "vidFresh03x", Title: "Disabled", PublishedAt: time.Now()}
	acq := &fakeAcquirer{videos: []acquire.Video{video}, durations: map[string]int{"vidFresh03x": 500}}

	resolver := &fakeResolver{errs: map[string]error{
		"vidFresh03x": &transcript.TerminalError{VideoID: "vidFresh03x", Kind: transcript.KindDisabled},
	}}
	r := &Runner{
		Cfg:        baseCfg(statePath),
		Acquirer:   acq,
		Resolver:   resolver,
		Summarizer: &fakeSummarizer{},
		Writer:     &fakeWriter{},
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Expected run to succeed, got %v", err)
	}

	sf := readStateFile(t, statePath)
	if sf.Errors["vidFresh03x"] != "TranscriptsDisabled" {
		t.Errorf("Expected terminal tag recorded, got %v", sf.Errors)
	}

	// Next run must filter the video out before resolution.
	resolver2 := &fakeResolver{}
	r.Resolver = resolver2
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Expected second run to succeed, got %v", err)
	}
	if len(resolver2.calls) != 0 {
		t.Errorf("Expected no resolution for permanently errored video, got %v", resolver2.calls)
	}
}

func TestRunAccessBlockedPersistsStateAndAborts(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")

	base := time.Now()
	acq := &fakeAcquirer{
		videos: []acquire.Video{
			{ID: "vidFresh03x", Title: "First", PublishedAt: base.Add(time.Hour)},
			{ID: "vidOther04x", Title: "Second", PublishedAt: base},
		},
		durations: map[string]int{"vidFresh03x": 500, "vidOther04x": 500},
	}
	resolver := &fakeResolver{
		results: map[string]*transcript.Result{
			"vidFresh03x": {Text: "text", Language: "en"},
		},
		errs: map[string]error{"vidOther04x": transcript.ErrAccessBlocked},
	}
	r := &Runner{
		Cfg:        baseCfg(statePath),
		Acquirer:   acq,
		Resolver:   resolver,
		Summarizer: &fakeSummarizer{},
		Writer:     &fakeWriter{},
	}

	err := r.Run(context.Background())
	if !errors.Is(err, transcript.ErrAccessBlocked) {
		t.Fatalf("Expected access-blocked error, got %v", err)
	}

	// Work done before the abort must survive.
	sf := readStateFile(t, statePath)
	if _, ok := sf.Processed["vidFresh03x"]; !ok {
		t.Errorf("Expected processed work persisted before abort, got %v", sf.Processed)
	}
}

func TestRunNoTranscriptOptionallyMarksProcessed(t *testing.T) {
	for _, mark := range []bool{false, true} {
		t.Run(fmt.Sprintf("mark=%v", mark), func(t *testing.T) {
			statePath := filepath.Join(t.TempDir(), "state.json")
			acq := &fakeAcquirer{
				videos:    []acquire.Video{{ID: "vidFresh03x", Title: "No captions", PublishedAt: time.Now()}},
				durations: map[string]int{"vidFresh03x": 500},
			}
			c := baseCfg(statePath)
			c.MarkProcessedOnNoTranscript = mark
			r := &Runner{
				Cfg:        c,
				Acquirer:   acq,
				Resolver:   &fakeResolver{},
				Summarizer: &fakeSummarizer{},
				Writer:     &fakeWriter{},
			}
			if err := r.Run(context.Background()); err != nil {
				t.Fatalf("Expected run to succeed, got %v", err)
			}
			sf := readStateFile(t, statePath)
			if _, ok := sf.Processed["vidFresh03x"]; ok != mark {
				t.Errorf("Expected processed=%v, got %v", mark, sf.Processed)
			}
		})
	}
}

func TestRunSummarizerFailureTolerated(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	acq := &fakeAcquirer{
		videos:    []acquire.Video{{ID: "vidFresh03x", Title: "Fails", PublishedAt: time.Now()}},
		durations: map[string]int{"vidFresh03x": 500},
	}
	writer := &fakeWriter{}
	r := &Runner{
		Cfg:      baseCfg(statePath),
		Acquirer: acq,
		Resolver: &fakeResolver{results: map[string]*transcript.Result{
			"vidFresh03x": {Text: "text", Language: "en"},
		}},
		Summarizer: &fakeSummarizer{fail: true},
		Writer:     writer,
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Expected per-item failure tolerated, got %v", err)
	}
	if len(writer.saved) != 0 {
		t.Errorf("Expected no notes written, got %v", writer.saved)
	}
	sf := readStateFile(t, statePath)
	if _, ok := sf.Processed["vidFresh03x"]; ok {
		t.Error("Expected failed item left unprocessed for retry next run")
	}
}

func TestRunSkipStateLeavesFileAlone(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	acq := &fakeAcquirer{
		videos:    []acquire.Video{{ID: "vidFresh03x", Title: "Fresh", PublishedAt: time.Now()}},
		durations: map[string]int{"vidFresh03x": 500},
	}
	c := baseCfg(statePath)
	c.SkipState = true
	r := &Runner{
		Cfg:      c,
		Acquirer: acq,
		Resolver: &fakeResolver{results: map[string]*transcript.Result{
			"vidFresh03x": {Text: "text", Language: "en"},
		}},
		Summarizer: &fakeSummarizer{},
		Writer:     &fakeWriter{},
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Expected run to succeed, got %v", err)
	}
	if _, err := os.Stat(statePath); !os.IsNotExist(err) {
		t.Error("Expected no state file written with skip-state")
	}
}

func TestRunNoValidURLs(t *testing.T) {
	c := baseCfg(filepath.Join(t.TempDir(), "state.json"))
	c.URLs = []string{"not-a-url", "also?bad"}
	r := &Runner{
		Cfg:        c,
		Acquirer:   &fakeAcquirer{},
		Resolver:   &fakeResolver{},
		Summarizer: &fakeSummarizer{},
		Writer:     &fakeWriter{},
	}
	if err := r.Run(context.Background()); !errors.Is(err, ErrNoValidURLs) {
		t.Errorf("Expected ErrNoValidURLs, got %v", err)
	}
}

func TestRunPlaylistNotFound(t *testing.T) {
	c := baseCfg(filepath.Join(t.TempDir(), "state.json"))
	c.Playlist = "nonexistent playlist"
	r := &Runner{
		Cfg:        c,
		Acquirer:   &fakeAcquirer{},
		Resolver:   &fakeResolver{},
		Summarizer: &fakeSummarizer{},
		Writer:     &fakeWriter{},
	}
	if err := r.Run(context.Background()); !errors.Is(err, ErrPlaylistNotFound) {
		t.Errorf("Expected ErrPlaylistNotFound, got %v", err)
	}
}

func TestRunMarkExistingSeedsStateWithoutProcessing(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	writeStateFile(t, statePath, "vidSeen002x")

	acq := &fakeAcquirer{
		videos: []acquire.Video{
			{ID: "vidSeen002x", Title: "Already seeded", PublishedAt: time.Now()},
			{ID: "vidFresh03x", Title: "Backlog item", PublishedAt: time.Now()},
		},
		resolvedID:    "PLqueue00000",
		resolvedTitle: "queue",
	}
	resolver := &fakeResolver{}
	writer := &fakeWriter{}

	c := baseCfg(statePath)
	c.Playlist = "queue"
	c.MarkExisting = true

	r := &Runner{
		Cfg:        c,
		Acquirer:   acq,
		Resolver:   resolver,
		Summarizer: &fakeSummarizer{},
		Writer:     writer,
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Expected seeding run to succeed, got %v", err)
	}

	if len(resolver.calls) != 0 {
		t.Errorf("Expected no transcript resolution while seeding, got %v", resolver.calls)
	}
	if len(writer.saved) != 0 {
		t.Errorf("Expected no notes while seeding, got %v", writer.saved)
	}

	sf := readStateFile(t, statePath)
	if len(sf.Processed) != 2 {
		t.Fatalf("Expected both playlist items in state, got %v", sf.Processed)
	}
	for _, id := range []string{"vidSeen002x", "vidFresh03x"} {
		if _, ok := sf.Processed[id]; !ok {
			t.Errorf("Expected %s marked processed", id)
		}
	}
}

func TestRunMarkExistingUnknownPlaylist(t *testing.T) {
	c := baseCfg(filepath.Join(t.TempDir(), "state.json"))
	c.Playlist = "nonexistent"
	c.MarkExisting = true
	r := &Runner{
		Cfg:        c,
		Acquirer:   &fakeAcquirer{},
		Resolver:   &fakeResolver{},
		Summarizer: &fakeSummarizer{},
		Writer:     &fakeWriter{},
	}
	if err := r.Run(context.Background()); !errors.Is(err, ErrPlaylistNotFound) {
		t.Errorf("Expected ErrPlaylistNotFound, got %v", err)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	acq := &fakeAcquirer{
		videos:    candidates(),
		durations: map[string]int{"vidShort01x": 45, "vidSeen002x": 200, "vidFresh03x": 500},
	}
	writer := &fakeWriter{}
	c := baseCfg(statePath)
	c.DryRun = true

	var buf bytes.Buffer
	r := &Runner{
		Cfg:        c,
		Acquirer:   acq,
		Resolver:   &fakeResolver{},
		Summarizer: &fakeSummarizer{},
		Writer:     writer,
		Out:        &buf,
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Expected dry run to succeed, got %v", err)
	}
	if len(writer.saved) != 0 {
		t.Errorf("Expected no notes in dry run, got %v", writer.saved)
	}
	if _, err := os.Stat(statePath); !os.IsNotExist(err) {
		t.Error("Expected no state file after dry run")
	}
	if !strings.Contains(buf.String(), "vidFresh03x") {
		t.Errorf("Expected dry-run listing to mention survivors, got %q", buf.String())
	}
	if strings.Contains(buf.String(), "vidShort01x") {
		t.Errorf("Expected short video filtered from dry-run listing, got %q", buf.String())
	}
}
