package summarize

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"
)

const (
	defaultSentences = 5

	rankDamping    = 0.85
	rankIterations = 30

	// Degenerate inputs fall back to a clipped head of the text.
	fallbackHeadChars = 800
)

// TextRank is the offline fallback summarizer: it ranks sentences by
// mutual word overlap and keeps the top few in original order. It
// never fails; unrankable input degrades to a clipped head of the
// transcript.
type TextRank struct {
	Sentences int
}

func NewTextRank() *TextRank {
	return &TextRank{Sentences: defaultSentences}
}

func (t *TextRank) Summarize(_ context.Context, text string) (string, error) {
	sentences := splitSentences(text)
	if len(sentences) <= t.Sentences {
		// Too few sentences to rank. Covers unpunctuated transcripts
		// that parse as one giant sentence, so the head clip applies.
		if len(sentences) == 0 {
			return clipHead(text), nil
		}
		return clipHead(strings.Join(sentences, " ")), nil
	}

	tokens := make([][]string, len(sentences))
	for i, s := range sentences {
		tokens[i] = tokenize(s)
	}

	scores := rankSentences(tokens)

	type ranked struct {
		index int
		score float64
	}
	order := make([]ranked, len(sentences))
	for i, score := range scores {
		order[i] = ranked{index: i, score: score}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return order[a].score > order[b].score
	})

	keep := make([]int, 0, t.Sentences)
	for _, r := range order[:t.Sentences] {
		keep = append(keep, r.index)
	}
	sort.Ints(keep)

	parts := make([]string, 0, len(keep))
	for _, i := range keep {
		parts = append(parts, sentences[i])
	}
	return strings.Join(parts, " "), nil
}

// rankSentences runs the power iteration over the sentence similarity
// graph and returns one score per sentence.
func rankSentences(tokens [][]string) []float64 {
	n := len(tokens)
	sim := make([][]float64, n)
	rowSums := make([]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := similarity(tokens[i], tokens[j])
			sim[i][j] = s
			sim[j][i] = s
			rowSums[i] += s
			rowSums[j] += s
		}
	}

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = 1.0 / float64(n)
	}
	next := make([]float64, n)
	for iter := 0; iter < rankIterations; iter++ {
		for i := 0; i < n; i++ {
			sum := 0.0
			for j := 0; j < n; j++ {
				if j == i || sim[j][i] == 0 || rowSums[j] == 0 {
					continue
				}
				sum += scores[j] * sim[j][i] / rowSums[j]
			}
			next[i] = (1 - rankDamping) + rankDamping*sum
		}
		copy(scores, next)
	}
	return scores
}

// similarity is the classic TextRank measure: shared words normalized
// by the log lengths of both sentences.
func similarity(a, b []string) float64 {
	if len(a) < 2 || len(b) < 2 {
		return 0
	}
	seen := make(map[string]bool, len(a))
	for _, w := range a {
		seen[w] = true
	}
	shared := 0
	for _, w := range b {
		if seen[w] {
			shared++
			seen[w] = false
		}
	}
	if shared == 0 {
		return 0
	}
	return float64(shared) / (math.Log(float64(len(a))) + math.Log(float64(len(b))))
}

func splitSentences(text string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			out = append(out, s)
		}
		b.Reset()
	}
	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			flush()
		}
	}
	flush()
	return out
}

func tokenize(sentence string) []string {
	return strings.FieldsFunc(strings.ToLower(sentence), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func clipHead(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > fallbackHeadChars {
		return text[:fallbackHeadChars] + "…"
	}
	return text
}
