package summarize

import (
	"context"
	"strings"
	"testing"
)

func TestTextRankKeepsOriginalOrder(t *testing.T) {
	text := "The cat sat on the mat near the window. " +
		"Dogs bark loudly at strangers passing the house. " +
		"The cat on the mat watched the window all day. " +
		"Quantum physics describes subatomic particle behavior. " +
		"Strangers passing the house heard the dogs bark. " +
		"A mat near the window is where the cat sat. " +
		"Particle behavior follows quantum physics rules."

	tr := &TextRank{Sentences: 3}
	got, err := tr.Summarize(context.Background(), text)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	sentences := splitSentences(got)
	if len(sentences) != 3 {
		t.Fatalf("Expected 3 sentences, got %d: %q", len(sentences), got)
	}

	// Kept sentences must appear in their original positions.
	lastIndex := -1
	for _, s := range sentences {
		i := strings.Index(text, s)
		if i < 0 {
			t.Fatalf("Expected summary sentence to come from the input, got %q", s)
		}
		if i < lastIndex {
			t.Errorf("Expected original order preserved, got %q out of order", s)
		}
		lastIndex = i
	}
}

func TestTextRankShortInputReturnedWhole(t *testing.T) {
	text := "Only one sentence here. And a second one."
	tr := NewTextRank()
	got, err := tr.Summarize(context.Background(), text)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != text {
		t.Errorf("Expected short input back unchanged, got %q", got)
	}
}

func TestTextRankDegenerateInputClipsHead(t *testing.T) {
	// No sentence punctuation at all, longer than the clip limit.
	text := strings.Repeat("word ", 300)
	tr := NewTextRank()
	got, err := tr.Summarize(context.Background(), text)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("Expected clipped head with ellipsis, got %q", got[len(got)-20:])
	}
	if len(got) > fallbackHeadChars+len("…") {
		t.Errorf("Expected at most %d chars plus ellipsis, got %d", fallbackHeadChars, len(got))
	}
}

func TestTextRankFewLongSentencesClipped(t *testing.T) {
	// Two sentences, but far beyond the clip limit in total.
	text := strings.Repeat("alpha beta gamma ", 40) + ". " + strings.Repeat("delta epsilon ", 40) + "."
	tr := NewTextRank()
	got, err := tr.Summarize(context.Background(), text)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(got) > fallbackHeadChars+len("…") {
		t.Errorf("Expected clip to %d chars, got %d", fallbackHeadChars, len(got))
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("Expected ellipsis suffix, got %q", got[len(got)-10:])
	}
}

func TestTextRankEmptyInput(t *testing.T) {
	tr := NewTextRank()
	got, err := tr.Summarize(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != "" {
		t.Errorf("Expected empty summary, got %q", got)
	}
}
