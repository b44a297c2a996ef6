package insights

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"reflectivejournal/internal/domain"
)

const (
	DefaultMaxLength   = 500
	entryExcerptLength = 200
	maxTopTags         = 10
	truncationMarker   = "..."
	entrySeparator     = "---"
	untitled           = "Untitled"
	daysPerWeek        = 7

	NoEntriesText      = "No entries to summarize."
	NoEntriesRangeText = "No entries found for this date range."
)

// SummarizeEntries builds an extractive digest: a mood/title line and an
// excerpt per entry, capped at maxLength characters.
func SummarizeEntries(entries []domain.Entry, maxLength int) string {
	if len(entries) == 0 {
		return NoEntriesText
	}

	var parts []string

	for _, entry := range entries {
		if entry.Mood != "" {
			parts = append(parts, "["+entry.Mood.Label()+"] "+entryTitle(entry))
		}

		if entry.Content != "" {
			parts = append(parts, truncateRunes(entry.Content, entryExcerptLength)+truncationMarker)
		}

		parts = append(parts, entrySeparator)
	}

	text := strings.Join(parts, "\n")
	if len([]rune(text)) > maxLength {
		text = truncateRunes(text, maxLength) + truncationMarker
	}

	return text
}

// ExtractThemes counts moods and tags. Ties go to whichever value was seen
// first.
func ExtractThemes(entries []domain.Entry) domain.Themes {
	if len(entries) == 0 {
		return domain.Themes{EntryCount: 0}
	}

	moodCounts := make(map[domain.Mood]int)
	var moodOrder []domain.Mood

	tagCounts := make(map[string]int)
	var tagOrder []string

	for _, entry := range entries {
		if entry.Mood != "" {
			if _, seen := moodCounts[entry.Mood]; !seen {
				moodOrder = append(moodOrder, entry.Mood)
			}
			moodCounts[entry.Mood]++
		}

		for _, tag := range entry.Tags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}

			if _, seen := tagCounts[tag]; !seen {
				tagOrder = append(tagOrder, tag)
			}
			tagCounts[tag]++
		}
	}

	themes := domain.Themes{
		EntryCount:       len(entries),
		MoodDistribution: moodCounts,
	}

	best := 0
	for _, mood := range moodOrder {
		if moodCounts[mood] > best {
			best = moodCounts[mood]
			themes.MostCommonMood = mood
		}
	}

	topTags := make([]domain.TagCount, 0, len(tagOrder))
	for _, tag := range tagOrder {
		topTags = append(topTags, domain.TagCount{Tag: tag, Count: tagCounts[tag]})
	}

	slices.SortStableFunc(topTags, func(a, b domain.TagCount) int {
		return cmp.Compare(b.Count, a.Count)
	})

	if len(topTags) > maxTopTags {
		topTags = topTags[:maxTopTags]
	}
	themes.TopTags = topTags

	return themes
}

// PeriodFor classifies a date range: same day is daily, up to a week is
// weekly, anything longer is monthly.
func PeriodFor(start time.Time, end time.Time) domain.Period {
	days := daysBetween(start, end)

	switch {
	case days == 0:
		return domain.PeriodDaily
	case days <= daysPerWeek:
		return domain.PeriodWeekly
	default:
		return domain.PeriodMonthly
	}
}

// LastDays is the inclusive date range of the given number of days ending on
// now's date.
func LastDays(now time.Time, days int) (time.Time, time.Time) {
	end := dateOf(now)
	if days < 1 {
		days = 1
	}

	return end.AddDate(0, 0, -(days - 1)), end
}

// PreviousWeek is the seven days ending the day before now.
func PreviousWeek(now time.Time) (time.Time, time.Time) {
	end := dateOf(now).AddDate(0, 0, -1)

	return end.AddDate(0, 0, -(daysPerWeek - 1)), end
}

func entryTitle(entry domain.Entry) string {
	if title := strings.TrimSpace(entry.Title); title != "" {
		return title
	}

	return untitled
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func daysBetween(start time.Time, end time.Time) int {
	s := dateOf(start)
	e := dateOf(end.In(start.Location()))

	// Calendar arithmetic in UTC avoids DST days being 23 or 25 hours long.
	su := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)
	eu := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, time.UTC)

	return int(eu.Sub(su).Hours() / 24) //nolint:mnd // Hours per day.
}
