// Package state persists the set of already-processed video IDs with
// timestamps, plus permanent per-video error classifications.
//
// The file is optional infrastructure: any read failure yields an empty
// state and never fails the run. Processed entries are pruned by age at
// load time; error entries are deliberately never pruned, so a video
// with a permanently broken transcript is not retried when its
// processed-entry TTL would have expired.
package state

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"
)

type State struct {
	// ProcessedAt maps video ID to the epoch second it was first
	// processed. Presence in this map precludes reprocessing.
	ProcessedAt map[string]int64

	// Errors maps video ID to a permanent failure tag such as
	// "TranscriptsDisabled". Never pruned by age.
	Errors map[string]string

	now func() time.Time
}

// stateFile is the on-disk representation. The legacy
// processed_video_ids list is read for migration but never written.
type stateFile struct {
	ProcessedTimestamps map[string]int64  `json:"processed_timestamps"`
	VideoErrors         map[string]string `json:"video_errors"`
	LegacyProcessedIDs  []string          `json:"processed_video_ids,omitempty"`
}

func New() *State {
	return &State{
		ProcessedAt: make(map[string]int64),
		Errors:      make(map[string]string),
		now:         time.Now,
	}
}

// Load reads the state file at path, migrates the legacy unordered-list
// format by stamping entries with the current time, and prunes
// processed entries older than maxAgeDays. Read or parse failures
// return an empty state.
func Load(path string, maxAgeDays int) *State {
	s := New()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("State file unreadable, starting empty", "path", path, "error", err)
		}
		return s
	}

	var f stateFile
	if err := json.Unmarshal(data, &f); err != nil {
		slog.Warn("State file malformed, starting empty", "path", path, "error", err)
		return s
	}

	now := s.now().Unix()
	for id, ts := range f.ProcessedTimestamps {
		s.ProcessedAt[id] = ts
	}

	// One-way migration: legacy entries get a load-time timestamp
	// unless the new map already carries them.
	migrated := 0
	for _, id := range f.LegacyProcessedIDs {
		if _, ok := s.ProcessedAt[id]; !ok {
			s.ProcessedAt[id] = now
			migrated++
		}
	}
	if migrated > 0 {
		slog.Info("Migrated legacy state entries", "count", migrated)
	}

	pruned := s.prune(maxAgeDays)
	if pruned > 0 {
		slog.Info("Pruned stale processed entries", "count", pruned, "max_age_days", maxAgeDays)
	}

	for id, tag := range f.VideoErrors {
		s.Errors[id] = tag
	}

	return s
}

func (s *State) prune(maxAgeDays int) int {
	if maxAgeDays <= 0 {
		return 0
	}
	cutoff := s.now().Unix() - int64(maxAgeDays)*86400
	pruned := 0
	for id, ts := range s.ProcessedAt {
		if ts <= cutoff {
			delete(s.ProcessedAt, id)
			pruned++
		}
	}
	return pruned
}

// MarkProcessed records a video as processed at the current time. A
// video already present keeps its original timestamp.
func (s *State) MarkProcessed(id string) {
	if _, ok := s.ProcessedAt[id]; !ok {
		s.ProcessedAt[id] = s.now().Unix()
	}
}

// RecordError records a permanent failure tag for a video.
func (s *State) RecordError(id, tag string) {
	s.Errors[id] = tag
}

func (s *State) IsProcessed(id string) bool {
	_, ok := s.ProcessedAt[id]
	return ok
}

func (s *State) HasError(id string) (string, bool) {
	tag, ok := s.Errors[id]
	return tag, ok
}

// Save writes the state as a whole-file overwrite. Entries lacking a
// timestamp are stamped with the current time before serializing.
func (s *State) Save(path string) error {
	now := s.now().Unix()
	for id, ts := range s.ProcessedAt {
		if ts == 0 {
			s.ProcessedAt[id] = now
		}
	}

	f := stateFile{
		ProcessedTimestamps: s.ProcessedAt,
		VideoErrors:         s.Errors,
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
