// Package render writes one Markdown note per summarized video, laid
// out for import into a note-taking app: header block, summary,
// trailing YAML metadata, full transcript.
package render

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/djinoz/yt-subs-transcripts-summarizer/app/acquire"
	"github.com/djinoz/yt-subs-transcripts-summarizer/app/transcript"
)

// The two-space line suffixes are markdown hard line breaks; they are
// emitted as template literals so editors cannot trim them away.
const noteTemplate = `# {{.Title}}
**Channel:** {{.Channel}}{{"  "}}
**Duration:** {{.Duration}}{{"  "}}
**Published:** {{.Published}}{{"  "}}
**Link:** {{.URL}}

## Summary
{{.Summary}}

---
title: "{{.Title}}"
channel: "{{.Channel}}"
video_id: "{{.VideoID}}"
published_at: "{{.Published}}"
source_url: "{{.URL}}"
transcript_language: "{{.Language}}"
transcript_translated: {{.Translated}}
---

## Transcript

{{.Transcript}}
`

var tmpl = template.Must(template.New("note").Parse(noteTemplate))

// DurationResolver looks up a video duration in seconds, -1 when it
// cannot be resolved. *acquire.Fetcher satisfies it.
type DurationResolver interface {
	Duration(id string) int
}

// Writer renders notes into OutDir. Resolver is optional and only
// consulted when a video reaches rendering without a known duration.
type Writer struct {
	OutDir   string
	Resolver DurationResolver
}

type noteData struct {
	Title      string
	Channel    string
	Duration   string
	Published  string
	URL        string
	VideoID    string
	Summary    string
	Language   string
	Translated bool
	Transcript string
}

// Save writes the note and returns its path.
func (w *Writer) Save(video acquire.Video, res *transcript.Result, summary string) (string, error) {
	if err := os.MkdirAll(w.OutDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	title := html.UnescapeString(video.Title)
	channel := video.ChannelTitle
	if video.OwnerChannelTitle != "" {
		channel = video.OwnerChannelTitle
	}

	lang := res.Language
	if lang == "" {
		lang = "unknown"
	}

	data := noteData{
		Title:      title,
		Channel:    html.UnescapeString(channel),
		Duration:   w.durationDisplay(video),
		Published:  video.PublishedAt.Format(time.RFC3339),
		URL:        "https://www.youtube.com/watch?v=" + video.ID,
		VideoID:    video.ID,
		Summary:    summary,
		Language:   lang,
		Translated: res.Translated,
		Transcript: res.Text,
	}

	path := filepath.Join(w.OutDir, Filename(video))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create note file: %w", err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return "", fmt.Errorf("failed to render note: %w", err)
	}
	return path, nil
}

func (w *Writer) durationDisplay(video acquire.Video) string {
	if video.DurationSeconds != nil {
		return acquire.FormatDuration(*video.DurationSeconds)
	}
	if w.Resolver != nil {
		if secs := w.Resolver.Duration(video.ID); secs >= 0 {
			return acquire.FormatDuration(secs)
		}
	}
	return "Unknown"
}

// Filename builds "<title> - <date>.md" with filesystem-hostile
// characters stripped from the entity-decoded title.
func Filename(video acquire.Video) string {
	title := sanitizeTitle(video.Title)
	date := video.PublishedAt.Local().Format("2006-01-02")
	return fmt.Sprintf("%s - %s.md", title, date)
}

func sanitizeTitle(title string) string {
	clean := html.UnescapeString(title)
	var b strings.Builder
	for _, r := range clean {
		if strings.ContainsRune(`\/:*?"<>|`, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
