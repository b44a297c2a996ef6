package domain

import (
	"strings"
	"time"
)

type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodSad     Mood = "sad"
	MoodNeutral Mood = "neutral"
	MoodAnxious Mood = "anxious"
	MoodExcited Mood = "excited"

	DefaultMood = MoodNeutral
)

//nolint:gochecknoglobals // Lookup table meant to be immutable.
var moodEmojis = map[Mood]string{
	MoodHappy:   "😊",
	MoodSad:     "😢",
	MoodNeutral: "😐",
	MoodAnxious: "😰",
	MoodExcited: "🤩",
}

// Moods lists every mood in the order they are offered to users.
func Moods() []Mood {
	return []Mood{MoodHappy, MoodSad, MoodNeutral, MoodAnxious, MoodExcited}
}

// ParseMood reports whether raw names a known mood.
func ParseMood(raw string) (Mood, bool) {
	m := Mood(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := moodEmojis[m]

	return m, ok
}

// Emoji falls back to the neutral face for unknown moods.
func (m Mood) Emoji() string {
	if emoji, ok := moodEmojis[m]; ok {
		return emoji
	}

	return moodEmojis[MoodNeutral]
}

// Label is the human readable form, e.g. "😊 Happy".
func (m Mood) Label() string {
	name := string(m)
	if _, ok := moodEmojis[m]; !ok || name == "" {
		return string(m)
	}

	return m.Emoji() + " " + strings.ToUpper(name[:1]) + name[1:]
}

type Entry struct {
	ID        int64
	Title     string
	Content   string
	Summary   string
	Mood      Mood
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type NewEntry struct {
	Title   string
	Content string
	Mood    Mood
}

type Credentials struct {
	Email string
	Token string
}

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type Themes struct {
	EntryCount       int          `json:"entry_count"`
	MostCommonMood   Mood         `json:"most_common_mood,omitempty"`
	MoodDistribution map[Mood]int `json:"mood_distribution,omitempty"`
	TopTags          []TagCount   `json:"top_tags,omitempty"`
}

type PeriodSummary struct {
	ID          int64
	UserID      int64
	Period      Period
	SummaryText string
	Themes      Themes
	StartDate   time.Time
	EndDate     time.Time
	CreatedAt   time.Time
}
