package reflection

import (
	"strings"
	"time"
)

const tagSeparator = ","

// Record is a reflection as it is kept in local storage under its date key.
type Record struct {
	Date    string   `json:"date"`
	Summary Summary  `json:"summary"`
	Tags    []string `json:"tags"`
}

// NewRecord summarizes text and stamps the result with the date of now.
func NewRecord(text string, rawTags string, style Style, now time.Time) Record {
	return Record{
		Date:    DateKey(now),
		Summary: Summarize(text, style),
		Tags:    ParseTags(rawTags),
	}
}

// DateKey is the storage key for the day t falls on, in t's location.
func DateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// ParseTags splits a comma-separated tag list. Blank tags are dropped.
func ParseTags(raw string) []string {
	tags := []string{}

	for tag := range strings.SplitSeq(raw, tagSeparator) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}

		tags = append(tags, tag)
	}

	return tags
}
