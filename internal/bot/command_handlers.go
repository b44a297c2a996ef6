package bot

import (
	"fmt"
	"strings"

	"reflectivejournal/internal/view"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

//nolint:gochecknoglobals // Read-only command descriptions.
var commandDescriptions = map[string]string{
	view.CmdStart:     "Start or resume your journal",
	view.CmdMenu:      "Show the menu",
	view.CmdNew:       "Write a new entry",
	view.CmdReflect:   "Save today's reflection",
	view.CmdEntries:   "List your latest entries",
	view.CmdRecent:    "List entries of the last 7 days",
	view.CmdInsights:  "Summarize recent entries",
	view.CmdSummaries: "Show stored weekly summaries",
	view.CmdImport:    "Import entries from a feed URL",
	view.CmdLogout:    "Log out",
	view.CmdCancel:    "Cancel the current step",
}

func (b *Bot) registerCommands() error {
	commands := make([]tgbotapi.BotCommand, 0, len(commandDescriptions))

	for _, name := range view.Commands() {
		commands = append(commands, tgbotapi.BotCommand{
			Command:     name,
			Description: commandDescriptions[name],
		})
	}

	if _, err := b.rateLimiter.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		return fmt.Errorf("set my commands: %w", err)
	}

	return nil
}

// parseCommand splits "/name@bot args" into a view command. Unknown names are
// kept so the view can answer them.
func parseCommand(text string) (view.Command, bool) {
	text = strings.TrimSpace(text)

	rest, ok := strings.CutPrefix(text, "/")
	if !ok || rest == "" {
		return view.Command{}, false
	}

	name, args, _ := strings.Cut(rest, " ")
	name, _, _ = strings.Cut(name, "@")

	return view.Command{
		Name: strings.ToLower(name),
		Args: strings.TrimSpace(args),
	}, true
}
