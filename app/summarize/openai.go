package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const summaryPrompt = "You are a concise assistant. Summarize the following YouTube transcript into:\n" +
	"1) A 120-200 word paragraph TL;DR\n" +
	"2) 5 bullet key takeaways\n" +
	"3) 3 suggested follow-up actions (if relevant)\n" +
	"4) 1 direct quote (up to 50 words) that captures the most salient point - could be the spiciest take, heterodoxical viewpoint, or crisp encapsulation\n" +
	"Keep it faithful and non-speculative."

// Long transcripts are clipped before prompting to stay inside the
// model context window.
const maxPromptChars = 150000

// OpenAI summarizes through a chat completion model.
type OpenAI struct {
	llm llms.Model
}

func NewOpenAI(apiKey, model string) (*OpenAI, error) {
	llm, err := openai.New(openai.WithToken(apiKey), openai.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return &OpenAI{llm: llm}, nil
}

func (o *OpenAI) Summarize(ctx context.Context, text string) (string, error) {
	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}
	prompt := summaryPrompt + "\n\n" + text

	out, err := llms.GenerateFromSinglePrompt(ctx, o.llm, prompt, llms.WithTemperature(0.2))
	if err != nil {
		return "", fmt.Errorf("summary completion failed: %w", err)
	}
	return strings.TrimSpace(out), nil
}
