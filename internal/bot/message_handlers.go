package bot

import (
	"context"

	"reflectivejournal/internal/view"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleMessage ignores messages without text, such as stickers and photos.
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if message.Text == "" {
		b.log.DebugContext(ctx, "Skipping message without text",
			"chatID", message.Chat.ID,
			"messageID", message.MessageID)

		return nil
	}

	return b.withSpinner(ctx, message.Chat.ID, func() error {
		var event view.Event = view.TextEntered{
			Text:      message.Text,
			MessageID: message.MessageID,
		}

		if command, ok := parseCommand(message.Text); ok {
			event = command
		}

		return b.dispatch(ctx, message.Chat.ID, message.From.ID, event)
	})
}

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback.Message == nil || callback.Message.Chat == nil {
		return b.errorCallbackAnswer(callback, errCallbackWithoutMessage)
	}

	return b.withSpinner(ctx, callback.Message.Chat.ID, func() error {
		return b.withEmptyCallbackAnswer(callback, func() error {
			return b.dispatch(ctx, callback.Message.Chat.ID, callback.From.ID, view.Pressed{Data: callback.Data})
		})
	})
}
