// Package cache persists resolved transcripts in a local SQLite file
// so repeated runs against overlapping candidate sets skip the
// network entirely.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/djinoz/yt-subs-transcripts-summarizer/app/transcript"
)

// SQLite implements transcript.Cache over a single-file database.
// Lookup and store failures degrade to misses so a corrupt cache can
// never fail a run.
type SQLite struct {
	db *sql.DB
}

// Open opens or creates the cache file and applies pending
// migrations.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript cache: %w", err)
	}
	// modernc's driver is not safe for concurrent writers on one
	// connection pool entry.
	db.SetMaxOpenConns(1)

	version, dirty, err := runMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	slog.Debug("Transcript cache ready", "path", path, "version", version, "dirty", dirty)

	return &SQLite{db: db}, nil
}

func (c *SQLite) Close() error {
	return c.db.Close()
}

func (c *SQLite) Get(videoID string) (*transcript.Result, bool) {
	var r transcript.Result
	err := c.db.QueryRow(
		"SELECT text, language, translated FROM transcripts WHERE video_id = ?",
		videoID,
	).Scan(&r.Text, &r.Language, &r.Translated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		slog.Warn("Transcript cache lookup failed", "id", videoID, "error", err)
		return nil, false
	}
	return &r, true
}

func (c *SQLite) Put(videoID string, r *transcript.Result) {
	_, err := c.db.Exec(
		`INSERT INTO transcripts (video_id, text, language, translated)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (video_id) DO UPDATE SET
		   text = excluded.text,
		   language = excluded.language,
		   translated = excluded.translated`,
		videoID, r.Text, r.Language, r.Translated,
	)
	if err != nil {
		slog.Warn("Transcript cache store failed", "id", videoID, "error", err)
	}
}
