package view

import (
	"reflectivejournal/internal/domain"
	"reflectivejournal/internal/reflection"
)

const moodKeyboardRowSize = 3

func menuKeyboard() [][]Button {
	return [][]Button{
		{
			{Text: "📝 New entry", Data: CmdNew},
			{Text: "🪞 Reflect", Data: CmdReflect},
		},
		{
			{Text: "📚 Entries", Data: CmdEntries},
			{Text: "🗓 Last 7 days", Data: CmdRecent},
		},
		{
			{Text: "📊 Insights", Data: CmdInsights},
			{Text: "🗂 Summaries", Data: CmdSummaries},
		},
		{
			{Text: "📥 Import", Data: CmdImport},
			{Text: "🚪 Logout", Data: CmdLogout},
		},
	}
}

func returnKeyboard() [][]Button {
	return [][]Button{
		{{Text: "⬅️ Return to menu", Data: CmdMenu}},
	}
}

func cancelRow() []Button {
	return []Button{{Text: "✖️ Cancel", Data: CmdCancel}}
}

func authKeyboard(signUp bool) [][]Button {
	toggle := Button{Text: "Don't have an account? Sign Up", Data: ActionToggleSignUp}
	if signUp {
		toggle.Text = "Already have an account? Log In"
	}

	return [][]Button{{toggle}, cancelRow()}
}

func moodKeyboard() [][]Button {
	var keyboard [][]Button
	var row []Button

	for _, mood := range domain.Moods() {
		row = append(row, Button{Text: mood.Label(), Data: MoodPrefix + string(mood)})

		if len(row) == moodKeyboardRowSize {
			keyboard = append(keyboard, row)
			row = nil
		}
	}

	if len(row) > 0 {
		keyboard = append(keyboard, row)
	}

	return append(keyboard, cancelRow())
}

func styleKeyboard() [][]Button {
	return [][]Button{
		{
			{Text: "• Bullets", Data: StylePrefix + string(reflection.StyleBullets)},
			{Text: "📜 Narrative", Data: StylePrefix + string(reflection.StyleNarrative)},
		},
		cancelRow(),
	}
}
