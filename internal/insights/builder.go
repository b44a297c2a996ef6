package insights

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"reflectivejournal/internal/domain"
	"reflectivejournal/internal/summarizer"
)

type EntryLister interface {
	ListEntries(ctx context.Context, token string) ([]domain.Entry, error)
}

type SummaryStore interface {
	AddPeriodSummary(ctx context.Context, summary *domain.PeriodSummary) error
}

// Builder produces and stores period summaries. The AI summarizer is
// optional; without it, or when it fails, the extractive digest is kept.
type Builder struct {
	entries    EntryLister
	store      SummaryStore
	summarizer summarizer.Summarizer
	cache      *narrativeCache
	log        *slog.Logger
}

func NewBuilder(
	entries EntryLister,
	store SummaryStore,
	s summarizer.Summarizer,
	log *slog.Logger,
) *Builder {
	return &Builder{
		entries:    entries,
		store:      store,
		summarizer: s,
		cache:      newNarrativeCache(narrativeCacheMaxEntries),
		log:        log,
	}
}

// Build summarizes the entries created between start and end (inclusive
// dates, in start's location). A range without entries yields an unsaved
// summary with ID 0.
func (b *Builder) Build(
	ctx context.Context,
	userID int64,
	token string,
	start time.Time,
	end time.Time,
) (*domain.PeriodSummary, error) {
	start = dateOf(start)
	end = dateOf(end.In(start.Location()))

	all, err := b.entries.ListEntries(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	entries := entriesBetween(all, start, end)

	summary := &domain.PeriodSummary{
		UserID:    userID,
		Period:    PeriodFor(start, end),
		StartDate: start,
		EndDate:   end,
		CreatedAt: time.Now().UTC(),
	}

	if len(entries) == 0 {
		summary.SummaryText = NoEntriesRangeText
		summary.Themes = domain.Themes{EntryCount: 0}

		return summary, nil
	}

	summary.SummaryText = SummarizeEntries(entries, DefaultMaxLength)
	summary.Themes = ExtractThemes(entries)

	if narrative, ok := b.narrative(ctx, userID, summary.Period, entries); ok {
		summary.SummaryText = narrative
	}

	if err = b.store.AddPeriodSummary(ctx, summary); err != nil {
		return nil, fmt.Errorf("add period summary: %w", err)
	}

	b.log.InfoContext(ctx, "Period summary is stored",
		"userID", userID,
		"period", summary.Period,
		"summaryID", summary.ID,
		"entryCount", len(entries),
		"startDate", start.Format(time.DateOnly),
		"endDate", end.Format(time.DateOnly))

	return summary, nil
}

func (b *Builder) narrative(
	ctx context.Context,
	userID int64,
	period domain.Period,
	entries []domain.Entry,
) (string, bool) {
	if b.summarizer == nil {
		return "", false
	}

	text := entriesAsText(entries)

	now := time.Now()
	key := narrativeCacheKey(string(period), text)
	if narrative, ok := b.cache.get(key, now); ok {
		b.log.DebugContext(ctx, "Using cached narrative",
			"userID", userID,
			"period", period)

		return narrative, true
	}

	narrative, err := b.summarizer.Summarize(ctx, summarizer.Input{
		Text:   text,
		Period: string(period),
	})
	if err != nil {
		b.log.ErrorContext(ctx, "Failed to summarize period",
			"error", err,
			"userID", userID,
			"period", period,
			"fallback", true,
			"textLen", len(text))

		return "", false
	}

	narrative = strings.TrimSpace(narrative)
	if narrative == "" {
		return "", false
	}

	b.cache.set(key, narrative, now)

	return narrative, true
}

func entriesBetween(entries []domain.Entry, start time.Time, end time.Time) []domain.Entry {
	var matched []domain.Entry

	for _, entry := range entries {
		if entry.CreatedAt.IsZero() {
			continue
		}

		day := dateOf(entry.CreatedAt.In(start.Location()))
		if day.Before(start) || day.After(end) {
			continue
		}

		matched = append(matched, entry)
	}

	return matched
}

func entriesAsText(entries []domain.Entry) string {
	var b strings.Builder

	for i, entry := range entries {
		if i > 0 {
			b.WriteString("\n\n")
		}

		b.WriteString(entry.CreatedAt.Format(time.DateOnly))
		b.WriteString(" | ")
		b.WriteString(string(entry.Mood))
		b.WriteString(" | ")
		b.WriteString(entryTitle(entry))
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(entry.Content))
	}

	return b.String()
}
