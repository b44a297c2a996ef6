package view

import (
	"fmt"
	"strings"
	"time"

	"reflectivejournal/internal/domain"
	"reflectivejournal/internal/markdown"
	"reflectivejournal/internal/reflection"
)

const (
	MaxRenderedEntries     = 10
	MaxRenderedSummaries   = 10
	MaxRenderedReflections = 5
	maxEntryContentRunes   = 300
	maxSummaryTextRunes    = 400
	ellipsis               = "…"
	entryDateLayout        = "Jan 2, 2006"

	AppTitle         = "✨ Reflective Journal"
	AppSubtitle      = "Your safe space for thoughts"
	EmptyEntriesText = "No entries yet. Start writing! 📝"
	LoadingText      = "Loading entries..."
	SummaryHeading   = "Today's Summary:"
)

type Button struct {
	Text string
	Data string
}

// Message is a rendered screen: MarkdownV2 text and inline keyboard rows.
type Message struct {
	Text     string
	Keyboard [][]Button
}

// Render draws the state. It has no side effects.
func Render(s State) Message {
	var d doc

	d.bold(AppTitle).line()
	if s.Screen == ScreenLogin {
		d.italic(AppSubtitle).line()
	}
	d.line()

	if s.Notice != "" {
		d.text("✅ " + s.Notice).line().line()
	}
	if s.Error != "" {
		d.text("❌ " + s.Error).line().line()
	}

	keyboard := renderScreen(&d, s)

	return Message{Text: d.String(), Keyboard: keyboard}
}

func renderScreen(d *doc, s State) [][]Button {
	switch s.Screen {
	case ScreenAuthEmail:
		d.bold(authTitle(s.SignUp)).line()
		d.text("Send your email address.")
		return authKeyboard(s.SignUp)

	case ScreenAuthPassword:
		d.bold(authTitle(s.SignUp)).line()
		if s.Loading {
			d.text("⏳ Checking your credentials...")
			return nil
		}
		d.text("Email: " + s.Email).line()
		if s.SignUp {
			d.text("Create a password (at least 8 characters).").line()
		} else {
			d.text("Send your password.").line()
		}
		d.italic("Password messages are deleted right after they are read.")
		return authKeyboard(s.SignUp)

	case ScreenAuthConfirm:
		d.bold(authTitle(s.SignUp)).line()
		if s.Loading {
			d.text("⏳ Creating your account...")
			return nil
		}
		d.text("Re-enter your password.")
		return authKeyboard(s.SignUp)

	case ScreenJournal:
		renderEntries(d, s)
		return menuKeyboard()

	case ScreenEntryTitle:
		d.bold("New Entry").line()
		d.text("Send a title, or skip it.")
		return [][]Button{{{Text: "⏭ Skip", Data: ActionSkip}}, cancelRow()}

	case ScreenEntryContent:
		d.bold("New Entry").line()
		if s.Draft.Title != "" {
			d.text("Title: " + s.Draft.Title).line()
		}
		d.text("What's on your mind?")
		return [][]Button{cancelRow()}

	case ScreenEntryMood:
		d.bold("New Entry").line()
		if s.Loading {
			d.text("⏳ Saving entry...")
			return nil
		}
		d.text("How are you feeling?")
		return moodKeyboard()

	case ScreenReflectText:
		d.bold("🪞 Reflection").line()
		if s.Reflection != nil {
			d.text("Already saved today:").line()
			for _, line := range s.Reflection.Summary.Lines() {
				d.text(line).line()
			}
			d.italic("A new reflection replaces it.").line().line()
		}
		d.text("Write your reflection.")
		return [][]Button{cancelRow()}

	case ScreenReflectTags:
		d.bold("🪞 Reflection").line()
		d.text("Send tags separated by commas (e.g. gratitude, challenge), or skip.")
		return [][]Button{{{Text: "⏭ Skip", Data: ActionSkip}}, cancelRow()}

	case ScreenReflectStyle:
		d.bold("🪞 Reflection").line()
		if s.Loading {
			d.text("⏳ Saving reflection...")
			return nil
		}
		d.text("Choose a summary style:")
		return styleKeyboard()

	case ScreenReflectDone:
		renderReflection(d, s.Reflection)
		return returnKeyboard()

	case ScreenInsights:
		renderInsight(d, s)
		return returnKeyboard()

	case ScreenSummaries:
		renderSummaries(d, s)
		return returnKeyboard()

	case ScreenImport:
		d.bold("📥 Import").line()
		if s.Loading {
			d.text("⏳ Importing feed...")
			return nil
		}
		d.text("Send an https link to an RSS, Atom or JSON feed. The newest 20 items become entries.")
		return [][]Button{cancelRow()}

	default:
		d.text("Log in or create an account to start writing.")
		return [][]Button{{
			{Text: "🔑 Log In", Data: ActionLogin},
			{Text: "✍️ Sign Up", Data: ActionSignUp},
		}}
	}
}

func renderEntries(d *doc, s State) {
	if s.RecentOnly {
		d.bold("Last 7 Days").line().line()
	} else {
		d.bold("Your Entries").line().line()
	}

	switch {
	case s.Loading:
		d.italic(LoadingText)
		return
	case len(s.Entries) == 0:
		d.text(EmptyEntriesText)
		return
	}

	shown := s.Entries[:min(len(s.Entries), MaxRenderedEntries)]

	for i, entry := range shown {
		if i > 0 {
			d.line().line()
		}

		title := strings.TrimSpace(entry.Title)
		if title == "" {
			title = "Untitled"
		}

		d.bold(title).text(" " + entry.Mood.Emoji()).line()
		if content := strings.TrimSpace(entry.Content); content != "" {
			d.raw(markdown.Linkify(truncate(content, maxEntryContentRunes))).line()
		}
		if !entry.CreatedAt.IsZero() {
			d.italic(entry.CreatedAt.Format(entryDateLayout))
		}
	}

	if len(s.Entries) > len(shown) {
		d.line().line().italic(fmt.Sprintf("Showing %d of %d entries.", len(shown), len(s.Entries)))
	}
}

func renderReflection(d *doc, record *reflection.Record) {
	d.bold(SummaryHeading).line()

	if record == nil {
		d.italic("Nothing saved yet.")
		return
	}

	lines := record.Summary.Lines()
	if len(lines) == 0 {
		d.italic("Nothing to summarize.").line()
	}

	for _, line := range lines {
		d.text(line).line()
	}

	d.line().text("Date: " + record.Date)
	if len(record.Tags) > 0 {
		d.line().text("Tags: " + strings.Join(record.Tags, ", "))
	}
}

func renderInsight(d *doc, s State) {
	d.bold("📊 Insights").line()

	if s.Loading {
		d.text("⏳ Building your insights...")
		return
	}

	if s.Insight == nil {
		d.italic("No insights yet.")
		return
	}

	in := s.Insight
	d.italic(dateRange(in.StartDate, in.EndDate)).line().line()
	d.text(in.SummaryText)

	if in.Themes.EntryCount == 0 {
		return
	}

	d.line().line().text(fmt.Sprintf("Entries: %d", in.Themes.EntryCount))
	if in.Themes.MostCommonMood != "" {
		d.line().text("Most common mood: " + in.Themes.MostCommonMood.Label())
	}
	if len(in.Themes.TopTags) > 0 {
		d.line().text("Top tags: " + formatTags(in.Themes.TopTags))
	}
}

func renderSummaries(d *doc, s State) {
	d.bold("🗂 Summaries").line().line()

	if s.Loading {
		d.text("⏳ Loading summaries...")
		return
	}

	if len(s.Summaries) == 0 {
		d.text("No summaries yet. A weekly summary is stored every Monday.")
	}

	shown := s.Summaries[:min(len(s.Summaries), MaxRenderedSummaries)]

	for i, summary := range shown {
		if i > 0 {
			d.line().line()
		}

		d.bold(periodLabel(summary.Period)).
			text(" ").
			italic(dateRange(summary.StartDate, summary.EndDate)).
			line()
		d.text(truncate(summary.SummaryText, maxSummaryTextRunes))
	}

	if len(s.Reflections) == 0 {
		return
	}

	d.line().line().bold("🪞 Reflections")

	for _, record := range s.Reflections[:min(len(s.Reflections), MaxRenderedReflections)] {
		d.line().line().italic(record.Date).line()
		d.text(truncate(strings.Join(record.Summary.Lines(), "\n"), maxSummaryTextRunes))
	}
}

func periodLabel(p domain.Period) string {
	if p == "" {
		return "Summary"
	}

	return strings.ToUpper(string(p[:1])) + string(p[1:])
}

func authTitle(signUp bool) string {
	if signUp {
		return "Create Account"
	}

	return "Log In"
}

func dateRange(start time.Time, end time.Time) string {
	if start.Equal(end) {
		return start.Format(time.DateOnly)
	}

	return start.Format(time.DateOnly) + " – " + end.Format(time.DateOnly)
}

func formatTags(tags []domain.TagCount) string {
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		parts = append(parts, fmt.Sprintf("%s (%d)", tag.Tag, tag.Count))
	}

	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return strings.TrimSpace(string(runes[:n])) + ellipsis
}

// doc accumulates MarkdownV2; text, bold and italic escape their input.
type doc struct {
	b strings.Builder
}

func (d *doc) text(s string) *doc {
	d.b.WriteString(markdown.EscapeV2(s))
	return d
}

func (d *doc) bold(s string) *doc {
	d.b.WriteString("*" + markdown.EscapeV2(s) + "*")
	return d
}

func (d *doc) italic(s string) *doc {
	d.b.WriteString("_" + markdown.EscapeV2(s) + "_")
	return d
}

func (d *doc) raw(s string) *doc {
	d.b.WriteString(s)
	return d
}

func (d *doc) line() *doc {
	d.b.WriteByte('\n')
	return d
}

func (d *doc) String() string {
	return strings.TrimRight(d.b.String(), "\n")
}
