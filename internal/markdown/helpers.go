package markdown

import (
	"strings"

	"mvdan.cc/xurls/v2"
)

// Taken from https://core.telegram.org/bots/api#markdownv2-style.
const mdV2SpecialChars = `._[](){}#|!+-=*~>` + "`" + `\`

var (
	mdV2Lookup = mdV2SpecialCharLookup() //nolint:gochecknoglobals // Immutable lookup table.
	urlRe      = xurls.Strict()          //nolint:gochecknoglobals // Compiled once.
)

func EscapeV2(input string) string {
	return escape(input, &mdV2Lookup)
}

// EscapeLinkURL escapes the characters MarkdownV2 requires inside the (...)
// part of an inline link.
func EscapeLinkURL(url string) string {
	var lookup [256]bool
	lookup[')'] = true
	lookup['\\'] = true

	return escape(url, &lookup)
}

// Linkify escapes text for MarkdownV2 and turns every URL in it into an
// inline link.
func Linkify(text string) string {
	matches := urlRe.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return EscapeV2(text)
	}

	var b strings.Builder
	b.Grow(len(text) * 2) //nolint:mnd // Rough room for escapes and links.

	prev := 0
	for _, m := range matches {
		b.WriteString(EscapeV2(text[prev:m[0]]))

		url := text[m[0]:m[1]]
		b.WriteString("[")
		b.WriteString(EscapeV2(url))
		b.WriteString("](")
		b.WriteString(EscapeLinkURL(url))
		b.WriteString(")")

		prev = m[1]
	}
	b.WriteString(EscapeV2(text[prev:]))

	return b.String()
}

func escape(input string, lookup *[256]bool) string {
	charsToEscape := 0

	for i := 0; i < len(input); i++ {
		if lookup[input[i]] {
			charsToEscape++
		}
	}
	if charsToEscape == 0 {
		return input
	}

	var b strings.Builder
	b.Grow(len(input) + charsToEscape)

	for i := 0; i < len(input); i++ {
		c := input[i]
		if lookup[c] {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	return b.String()
}

func mdV2SpecialCharLookup() [256]bool {
	var m [256]bool
	for _, c := range []byte(mdV2SpecialChars) {
		m[c] = true
	}
	return m
}
