package summarizer

import (
	"context"
)

// Input describes the journal text of one period to condense.
type Input struct {
	// Text contains the entries of the period as plain text.
	Text string
	// Period is "daily", "weekly" or "monthly" and shapes the wording.
	Period string
}

// Summarizer produces a single narrative for a period of journal entries.
type Summarizer interface {
	Summarize(ctx context.Context, input Input) (string, error)
}
