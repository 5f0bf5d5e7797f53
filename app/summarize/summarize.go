// Package summarize turns a transcript into a summary block, through
// an LLM when an API key is configured and through a local extractive
// ranker otherwise.
package summarize

import "context"

// Summarizer produces a summary block for one transcript.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}
