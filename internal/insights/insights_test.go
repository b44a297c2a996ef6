package insights

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"reflectivejournal/internal/domain"
	"reflectivejournal/internal/summarizer"
)

type stubLister struct {
	entries []domain.Entry
	err     error
	tokens  []string
}

func (s *stubLister) ListEntries(_ context.Context, token string) ([]domain.Entry, error) {
	s.tokens = append(s.tokens, token)

	return s.entries, s.err
}

type memoryStore struct {
	mu        sync.Mutex
	summaries []domain.PeriodSummary
}

func (m *memoryStore) AddPeriodSummary(_ context.Context, summary *domain.PeriodSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	summary.ID = int64(len(m.summaries) + 1)
	m.summaries = append(m.summaries, *summary)

	return nil
}

type stubSummarizer struct {
	summary string
	err     error
	inputs  []summarizer.Input
}

func (s *stubSummarizer) Summarize(_ context.Context, input summarizer.Input) (string, error) {
	s.inputs = append(s.inputs, input)

	return s.summary, s.err
}

func day(d int) time.Time {
	return time.Date(2025, 6, d, 12, 0, 0, 0, time.UTC)
}

func TestSummarizeEntriesEmpty(t *testing.T) {
	if got := SummarizeEntries(nil, DefaultMaxLength); got != NoEntriesText {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestSummarizeEntriesFormat(t *testing.T) {
	entries := []domain.Entry{
		{Title: "Run", Content: "Ran 5k.", Mood: domain.MoodHappy},
		{Content: "Quiet day."},
		{Mood: domain.MoodSad},
	}

	got := SummarizeEntries(entries, DefaultMaxLength)
	want := strings.Join([]string{
		"[😊 Happy] Run",
		"Ran 5k....",
		"---",
		"Quiet day....",
		"---",
		"[😢 Sad] Untitled",
		"---",
	}, "\n")

	if got != want {
		t.Fatalf("unexpected digest:\ngot  %q\nwant %q", got, want)
	}
}

func TestSummarizeEntriesTruncates(t *testing.T) {
	entries := []domain.Entry{{Content: strings.Repeat("é", 300)}}

	excerpt := SummarizeEntries(entries, 1000)
	if !strings.HasPrefix(excerpt, strings.Repeat("é", 200)+"...") {
		t.Fatalf("expected content to be cut at 200 characters, got %q", excerpt)
	}

	capped := SummarizeEntries(entries, 50)
	if len([]rune(capped)) != 53 || !strings.HasSuffix(capped, "...") {
		t.Fatalf("expected digest capped at 50 characters plus marker, got %d runes", len([]rune(capped)))
	}
}

func TestExtractThemes(t *testing.T) {
	entries := []domain.Entry{
		{Mood: domain.MoodSad, Tags: []string{"work"}},
		{Mood: domain.MoodHappy, Tags: []string{"family", "work"}},
		{Mood: domain.MoodHappy, Tags: []string{"family"}},
		{Mood: domain.MoodSad, Tags: []string{"sleep", " "}},
		{Tags: []string{"work"}},
	}

	themes := ExtractThemes(entries)

	if themes.EntryCount != 5 {
		t.Fatalf("unexpected entry count: %d", themes.EntryCount)
	}

	if themes.MostCommonMood != domain.MoodSad {
		t.Fatalf("expected first seen mood to win the tie, got %q", themes.MostCommonMood)
	}

	if themes.MoodDistribution[domain.MoodHappy] != 2 || themes.MoodDistribution[domain.MoodSad] != 2 {
		t.Fatalf("unexpected mood distribution: %v", themes.MoodDistribution)
	}

	want := []domain.TagCount{{Tag: "work", Count: 3}, {Tag: "family", Count: 2}, {Tag: "sleep", Count: 1}}
	if len(themes.TopTags) != len(want) {
		t.Fatalf("unexpected top tags: %+v", themes.TopTags)
	}

	for i := range want {
		if themes.TopTags[i] != want[i] {
			t.Fatalf("unexpected tag at %d: got %+v want %+v", i, themes.TopTags[i], want[i])
		}
	}
}

func TestExtractThemesCapsTags(t *testing.T) {
	var tags []string
	for i := range 15 {
		tags = append(tags, strings.Repeat("t", i+1))
	}

	themes := ExtractThemes([]domain.Entry{{Tags: tags}})
	if len(themes.TopTags) != maxTopTags {
		t.Fatalf("expected %d tags, got %d", maxTopTags, len(themes.TopTags))
	}

	if themes.MostCommonMood != "" {
		t.Fatalf("expected no mood, got %q", themes.MostCommonMood)
	}
}

func TestPeriodFor(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  domain.Period
	}{
		{"Same day", day(1), day(1).Add(5 * time.Hour), domain.PeriodDaily},
		{"Six days", day(1), day(7), domain.PeriodWeekly},
		{"Seven days", day(1), day(8), domain.PeriodWeekly},
		{"Eight days", day(1), day(9), domain.PeriodMonthly},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := PeriodFor(test.start, test.end); got != test.want {
				t.Fatalf("unexpected period: got %q want %q", got, test.want)
			}
		})
	}
}

func TestLastDaysAndPreviousWeek(t *testing.T) {
	start, end := LastDays(day(10), 7)
	if start.Day() != 4 || end.Day() != 10 || end.Hour() != 0 {
		t.Fatalf("unexpected range: %v - %v", start, end)
	}

	start, end = LastDays(day(10), 0)
	if !start.Equal(end) {
		t.Fatalf("expected single day range, got %v - %v", start, end)
	}

	start, end = PreviousWeek(day(16))
	if start.Day() != 9 || end.Day() != 15 {
		t.Fatalf("unexpected previous week: %v - %v", start, end)
	}
}

func TestBuilderStoresExtractiveSummary(t *testing.T) {
	lister := &stubLister{entries: []domain.Entry{
		{ID: 3, Title: "Late", Content: "Outside range.", Mood: domain.MoodHappy, CreatedAt: day(20)},
		{ID: 2, Title: "Walk", Content: "Long walk.", Mood: domain.MoodExcited, CreatedAt: day(5)},
		{ID: 1, Title: "Early", Content: "Outside range.", Mood: domain.MoodSad, CreatedAt: day(1)},
	}}
	store := &memoryStore{}
	builder := NewBuilder(lister, store, nil, slog.Default())

	summary, err := builder.Build(context.Background(), 9, "tok", day(3), day(9))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if lister.tokens[0] != "tok" {
		t.Fatalf("expected token to be passed through, got %q", lister.tokens[0])
	}

	if summary.ID == 0 || len(store.summaries) != 1 {
		t.Fatalf("expected summary to be stored, got %+v", summary)
	}

	if summary.Period != domain.PeriodWeekly || summary.Themes.EntryCount != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	if !strings.Contains(summary.SummaryText, "[🤩 Excited] Walk") {
		t.Fatalf("unexpected summary text: %q", summary.SummaryText)
	}
}

func TestBuilderEmptyRangeIsNotStored(t *testing.T) {
	store := &memoryStore{}
	builder := NewBuilder(&stubLister{}, store, nil, slog.Default())

	summary, err := builder.Build(context.Background(), 9, "tok", day(3), day(3))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if summary.SummaryText != NoEntriesRangeText || summary.ID != 0 || len(store.summaries) != 0 {
		t.Fatalf("unexpected empty summary: %+v", summary)
	}
}

func TestBuilderUsesNarrative(t *testing.T) {
	lister := &stubLister{entries: []domain.Entry{
		{Title: "Walk", Content: "Long walk.", Mood: domain.MoodHappy, CreatedAt: day(5)},
	}}
	ai := &stubSummarizer{summary: "  A calm week of walks.  "}
	builder := NewBuilder(lister, &memoryStore{}, ai, slog.Default())

	summary, err := builder.Build(context.Background(), 1, "tok", day(5), day(5))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if summary.SummaryText != "A calm week of walks." {
		t.Fatalf("expected AI narrative, got %q", summary.SummaryText)
	}

	if len(ai.inputs) != 1 || ai.inputs[0].Period != "daily" || !strings.Contains(ai.inputs[0].Text, "Long walk.") {
		t.Fatalf("unexpected summarizer input: %+v", ai.inputs)
	}
}

func TestBuilderReusesNarrativeForSameEntries(t *testing.T) {
	lister := &stubLister{entries: []domain.Entry{
		{Title: "Walk", Content: "Long walk.", Mood: domain.MoodHappy, CreatedAt: day(5)},
	}}
	ai := &stubSummarizer{summary: "A calm week of walks."}
	builder := NewBuilder(lister, &memoryStore{}, ai, slog.Default())

	for range 2 {
		if _, err := builder.Build(context.Background(), 1, "tok", day(5), day(5)); err != nil {
			t.Fatalf("build: %v", err)
		}
	}

	if len(ai.inputs) != 1 {
		t.Fatalf("expected one summarizer call, got %d", len(ai.inputs))
	}
}

func TestBuilderFallsBackWhenNarrativeFails(t *testing.T) {
	lister := &stubLister{entries: []domain.Entry{
		{Title: "Walk", Content: "Long walk.", Mood: domain.MoodHappy, CreatedAt: day(5)},
	}}
	ai := &stubSummarizer{err: errors.New("quota exceeded")}
	builder := NewBuilder(lister, &memoryStore{}, ai, slog.Default())

	summary, err := builder.Build(context.Background(), 1, "tok", day(5), day(5))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if !strings.HasPrefix(summary.SummaryText, "[😊 Happy] Walk") {
		t.Fatalf("expected extractive fallback, got %q", summary.SummaryText)
	}
}

func TestBuilderPropagatesListError(t *testing.T) {
	listErr := errors.New("backend down")
	builder := NewBuilder(&stubLister{err: listErr}, &memoryStore{}, nil, slog.Default())

	if _, err := builder.Build(context.Background(), 1, "tok", day(1), day(2)); !errors.Is(err, listErr) {
		t.Fatalf("expected wrapped list error, got %v", err)
	}
}
