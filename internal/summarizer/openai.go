package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

const (
	baseMaxOutputTokens  int64 = 512
	limitMaxOutputTokens int64 = 2048

	systemPrompt = `Summarize the person's journal entries for the given period as a short reflection addressed to them.

Rules:
- 3 to 5 sentences, plain prose, no lists.
- Mention recurring moods and themes, and notable events.
- Warm, neutral tone. No advice, no diagnosis.
- Do not invent facts that are not in the entries.
- Output in the same language as the entries.`
)

// OpenAISummarizer calls OpenAI's Responses API to produce period narratives.
type OpenAISummarizer struct {
	client openai.Client
}

// NewOpenAISummarizer builds a new summarizer instance.
func NewOpenAISummarizer(apiKey string) (*OpenAISummarizer, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("API key is empty")
	}

	return &OpenAISummarizer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
	}, nil
}

// Summarize produces a single narrative for the period.
func (s *OpenAISummarizer) Summarize(
	ctx context.Context,
	input Input,
) (string, error) {
	prompt := BuildPrompt(input)
	if prompt == "" {
		return "", errors.New("input is empty")
	}

	maxOutputTokens := baseMaxOutputTokens
	for {
		resp, err := s.client.Responses.New(ctx, responses.ResponseNewParams{
			Model:           openai.ChatModelGPT5Mini2025_08_07,
			ServiceTier:     responses.ResponseNewParamsServiceTierFlex,
			MaxOutputTokens: openai.Int(maxOutputTokens),
			Reasoning: responses.ReasoningParam{
				Effort: openai.ReasoningEffortLow,
			},
			Instructions: openai.String(systemPrompt),
			Input: responses.ResponseNewParamsInputUnion{
				OfString: openai.String(prompt),
			},
		})
		if err != nil {
			return "", fmt.Errorf("do request: %w", err)
		}

		if resp.Status == "incomplete" {
			if resp.IncompleteDetails.Reason == "max_output_tokens" && maxOutputTokens < limitMaxOutputTokens {
				maxOutputTokens = nextMaxOutputTokens(maxOutputTokens)
				continue
			}
			return "", fmt.Errorf(
				"response is incomplete (reason = %s, maxOutputTokens = %d)",
				resp.IncompleteDetails.Reason,
				maxOutputTokens,
			)
		}

		summary := strings.TrimSpace(resp.OutputText())
		if summary == "" {
			return "", fmt.Errorf("output text is missing (status = %s)", resp.Status)
		}
		return summary, nil
	}
}

// BuildPrompt is empty when there is no text to summarize.
func BuildPrompt(input Input) string {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return ""
	}

	var b strings.Builder
	if period := strings.TrimSpace(input.Period); period != "" {
		b.WriteString("Period:\n")
		b.WriteString(period)
		b.WriteString("\n")
	}
	b.WriteString("Entries:\n")
	b.WriteString(text)

	return b.String()
}

func nextMaxOutputTokens(current int64) int64 {
	return min(current*2, limitMaxOutputTokens)
}
