package bot

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"reflectivejournal/internal/database"
	"reflectivejournal/internal/importer"
	"reflectivejournal/internal/insights"
	"reflectivejournal/internal/journalapi"
	"reflectivejournal/internal/ratelimiter"
	"reflectivejournal/internal/view"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	maxBackoffSeconds         = 60
	initialBackoffSeconds     = 3
	backoffGrowthFactor       = 2
	resetOffsetBackoffSeconds = 30
	updateProcessingTimeout   = 60 * time.Second

	BotUpdateTimeout = 60
)

type Options struct {
	DB           *database.Database
	Client       *journalapi.Client
	Builder      *insights.Builder
	Importer     *importer.Importer
	AllowedUsers []int64
	Location     *time.Location
	InsightsDays int
}

// chatKey scopes a view.State to one user in one chat.
type chatKey struct {
	chatID int64
	userID int64
}

// Bot keeps one view.State per user and chat and turns updates into view
// events. Only private chats are served.
type Bot struct {
	api          *tgbotapi.BotAPI
	rateLimiter  *ratelimiter.RateLimiter
	db           *database.Database
	client       *journalapi.Client
	builder      *insights.Builder
	importer     *importer.Importer
	allowedUsers []int64
	loc          *time.Location
	insightsDays int
	chats        map[chatKey]view.State
	mu           sync.Mutex
	log          *slog.Logger
}

func New(token string, opts Options, log *slog.Logger) (*Bot, error) {
	token = strings.TrimSpace(token)

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	return &Bot{
		api:          api,
		rateLimiter:  ratelimiter.New(api, log),
		db:           opts.DB,
		client:       opts.Client,
		builder:      opts.Builder,
		importer:     opts.Importer,
		allowedUsers: opts.AllowedUsers,
		loc:          loc,
		insightsDays: max(opts.InsightsDays, 1),
		chats:        make(map[chatKey]view.State),
		log:          log,
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	if err := b.registerCommands(); err != nil {
		b.log.WarnContext(ctx, "Failed to register bot commands",
			"error", err)
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = BotUpdateTimeout

	backoffSeconds := initialBackoffSeconds

	for {
		select {
		case <-ctx.Done():
			b.log.InfoContext(ctx, "Bot context is done",
				"error", ctx.Err())
			return
		default:
		}

		updates := b.api.GetUpdatesChan(updateConfig)
		updatesClosed := false

		for !updatesClosed {
			select {
			case <-ctx.Done():
				b.log.InfoContext(ctx, "Bot context is done",
					"error", ctx.Err())
				b.api.StopReceivingUpdates()
				return

			case update, ok := <-updates:
				if !ok {
					updatesClosed = true
					continue
				}
				updateConfig.Offset = update.UpdateID + 1

				b.handleUpdate(ctx, &update)
			}
		}

		if ctx.Err() != nil {
			return
		}

		b.log.WarnContext(ctx, "Update channel is closed, reconnecting...",
			"offset", updateConfig.Offset,
			"backoffSeconds", backoffSeconds)

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(backoffSeconds) * time.Second):
		}

		backoffSeconds = updateBackoffSeconds(backoffSeconds)

		if backoffSeconds >= resetOffsetBackoffSeconds {
			updateConfig.Offset = 0
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	updateCtx, cancel := context.WithTimeout(ctx, updateProcessingTimeout)
	defer cancel()

	switch {
	case update.Message != nil && update.Message.From != nil && update.Message.Chat != nil:
		chatID, chatType := chatContext(update.Message.Chat)

		userID := update.Message.From.ID
		if !update.Message.Chat.IsPrivate() {
			b.log.DebugContext(updateCtx, "Chat is not private",
				"userID", userID,
				"chatID", chatID,
				"chatType", chatType)

			return
		}

		if !b.userAllowed(userID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", userID,
				"chatID", chatID,
				"username", update.Message.From.UserName,
				"chatType", chatType)

			return
		}

		if err := b.handleMessage(updateCtx, update.Message); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle message",
				"error", err,
				"chatID", chatID,
				"userID", userID,
				"chatType", chatType,
				"messageID", update.Message.MessageID)
		}

	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		chatID := callbackChatID(update.CallbackQuery)

		if !callbackFromPrivateChat(update.CallbackQuery) {
			b.log.DebugContext(updateCtx, "Chat is not private",
				"userID", update.CallbackQuery.From.ID,
				"chatID", chatID,
				"data", update.CallbackQuery.Data)

			return
		}

		if !b.userAllowed(update.CallbackQuery.From.ID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", update.CallbackQuery.From.ID,
				"chatID", chatID,
				"username", update.CallbackQuery.From.UserName,
				"data", update.CallbackQuery.Data)

			return
		}

		if err := b.handleCallbackQuery(updateCtx, update.CallbackQuery); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle callback query",
				"error", err,
				"chatID", chatID,
				"userID", update.CallbackQuery.From.ID,
				"data", update.CallbackQuery.Data,
				"messageID", callbackMessageID(update.CallbackQuery))
		}
	}
}

// userAllowed accepts everyone when no allow list is configured.
func (b *Bot) userAllowed(userID int64) bool {
	return len(b.allowedUsers) == 0 || slices.Contains(b.allowedUsers, userID)
}

func chatContext(chat *tgbotapi.Chat) (int64, string) {
	if chat == nil {
		return 0, ""
	}

	return chat.ID, chat.Type
}

func callbackChatID(cb *tgbotapi.CallbackQuery) int64 {
	if cb != nil && cb.Message != nil && cb.Message.Chat != nil {
		return cb.Message.Chat.ID
	}

	return 0
}

// callbackFromPrivateChat also accepts presses on messages Telegram no longer
// attaches, which handleCallbackQuery answers with an error.
func callbackFromPrivateChat(cb *tgbotapi.CallbackQuery) bool {
	if cb.Message == nil || cb.Message.Chat == nil {
		return true
	}

	return cb.Message.Chat.IsPrivate()
}

func callbackMessageID(cb *tgbotapi.CallbackQuery) int {
	if cb != nil && cb.Message != nil {
		return cb.Message.MessageID
	}

	return 0
}

func (b *Bot) Stop() {
	if b.rateLimiter != nil {
		b.rateLimiter.Stop()
	}
}

func updateBackoffSeconds(backoffSeconds int) int {
	if backoffSeconds < maxBackoffSeconds {
		backoffSeconds *= backoffGrowthFactor
		if backoffSeconds > maxBackoffSeconds {
			backoffSeconds = maxBackoffSeconds
		}
	}
	return backoffSeconds
}
