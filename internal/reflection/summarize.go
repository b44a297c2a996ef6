package reflection

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	maxKeyPoints    = 3
	sentenceBreak   = "."
	narrativeJoiner = ". "
	BulletMarker    = "• "
)

// Style selects how key points are presented.
type Style string

const (
	StyleBullets   Style = "bullets"
	StyleNarrative Style = "narrative"
)

// ParseStyle never fails: anything that is not narrative is bullets.
func ParseStyle(raw string) Style {
	if Style(strings.ToLower(strings.TrimSpace(raw))) == StyleNarrative {
		return StyleNarrative
	}

	return StyleBullets
}

// Summary is the condensed form of a reflection. Exactly one of Bullets and
// Narrative is meaningful, depending on Style.
type Summary struct {
	Style     Style
	Bullets   []string
	Narrative string
}

// Summarize keeps the first three sentences of text. Narrative style joins
// them into one sentence run; every other style returns them as bullets.
func Summarize(text string, style Style) Summary {
	keyPoints := KeyPoints(text)

	if style == StyleNarrative {
		return Summary{
			Style:     StyleNarrative,
			Narrative: strings.Join(keyPoints, narrativeJoiner) + sentenceBreak,
		}
	}

	bullets := make([]string, 0, len(keyPoints))
	for _, point := range keyPoints {
		bullets = append(bullets, BulletMarker+point)
	}

	return Summary{
		Style:   StyleBullets,
		Bullets: bullets,
	}
}

// KeyPoints returns up to three trimmed, non-empty sentence fragments in
// their original order.
func KeyPoints(text string) []string {
	var points []string

	for fragment := range strings.SplitSeq(text, sentenceBreak) {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}

		points = append(points, fragment)
		if len(points) == maxKeyPoints {
			break
		}
	}

	return points
}

// Lines is the summary as display lines.
func (s Summary) Lines() []string {
	if s.Style == StyleNarrative {
		return []string{s.Narrative}
	}

	return s.Bullets
}

// MarshalJSON writes bullets as an array and narrative as a string, the same
// shape the stored blobs have always had.
func (s Summary) MarshalJSON() ([]byte, error) {
	if s.Style == StyleNarrative {
		return json.Marshal(s.Narrative)
	}

	bullets := s.Bullets
	if bullets == nil {
		bullets = []string{}
	}

	return json.Marshal(bullets)
}

// UnmarshalJSON reads either stored shape; null decodes as empty bullets.
func (s *Summary) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		*s = Summary{Style: StyleBullets, Bullets: []string{}}

		return nil
	}

	var narrative string
	if err := json.Unmarshal(data, &narrative); err == nil {
		*s = Summary{Style: StyleNarrative, Narrative: narrative}

		return nil
	}

	var bullets []string
	if err := json.Unmarshal(data, &bullets); err != nil {
		return errors.Join(
			errors.New("summary must be a string or an array of strings"),
			fmt.Errorf("unmarshal bullets: %w", err),
		)
	}

	if bullets == nil {
		bullets = []string{}
	}

	*s = Summary{Style: StyleBullets, Bullets: bullets}

	return nil
}
