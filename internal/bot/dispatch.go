package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reflectivejournal/internal/domain"
	"reflectivejournal/internal/importer"
	"reflectivejournal/internal/insights"
	"reflectivejournal/internal/journalapi"
	"reflectivejournal/internal/reflection"
	"reflectivejournal/internal/session"
	"reflectivejournal/internal/view"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	maxEventsPerUpdate = 16

	authFailedText           = "Authentication failed"
	fetchFailedText          = "Failed to fetch entries"
	createFailedText         = "Failed to create entry"
	reflectionFailedText     = "Failed to save reflection"
	reflectionLoadFailedText = "Failed to load reflection"
	insightFailedText        = "Failed to build insights"
	summariesFailedText      = "Failed to load summaries"
	importFailedText         = "Failed to import feed"
	noFeedURLText            = "Please send an https feed URL."
)

var errTooManyEvents = errors.New("too many events for one update")

// dispatch reduces the event and every event its effects produce, then
// renders the final state once.
func (b *Bot) dispatch(ctx context.Context, chatID int64, userID int64, event view.Event) error {
	state := b.chatState(ctx, chatID, userID)

	queue := []view.Event{event}
	processed := 0

	for len(queue) > 0 {
		if processed == maxEventsPerUpdate {
			return fmt.Errorf("%w: %d", errTooManyEvents, processed)
		}
		processed++

		next := queue[0]
		queue = queue[1:]

		var effects []view.Effect
		state, effects = view.Reduce(state, next)

		for _, effect := range effects {
			if result := b.runEffect(ctx, chatID, userID, effect); result != nil {
				queue = append(queue, result)
			}
		}
	}

	b.setChatState(chatID, userID, state)

	message := view.Render(state)
	if err := b.sendMessageWithKeyboard(chatID, message.Text, inlineKeyboard(message.Keyboard)); err != nil {
		return fmt.Errorf("send message with keyboard: %w", err)
	}

	return nil
}

func (b *Bot) chatState(ctx context.Context, chatID int64, userID int64) view.State {
	b.mu.Lock()
	state, ok := b.chats[chatKey{chatID: chatID, userID: userID}]
	b.mu.Unlock()

	if ok {
		return state
	}

	creds, found, err := session.NewHolder(b.db, userID).Load(ctx)
	if err != nil {
		b.log.ErrorContext(ctx, "Failed to restore session",
			"error", err,
			"userID", userID,
			"chatID", chatID)

		return view.Initial()
	}

	if !found {
		return view.Initial()
	}

	b.log.InfoContext(ctx, "Session is restored",
		"userID", userID,
		"chatID", chatID)

	return view.Restored(creds)
}

func (b *Bot) setChatState(chatID int64, userID int64, state view.State) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.chats[chatKey{chatID: chatID, userID: userID}] = state
}

func (b *Bot) runEffect(ctx context.Context, chatID int64, userID int64, effect view.Effect) view.Event {
	switch e := effect.(type) {
	case view.Authenticate:
		return b.authenticate(ctx, userID, e)

	case view.SaveSession:
		if err := session.NewHolder(b.db, userID).Save(ctx, e.Credentials); err != nil {
			b.log.ErrorContext(ctx, "Failed to save session",
				"error", err,
				"userID", userID)
		}
		return nil

	case view.ClearSession:
		if err := session.NewHolder(b.db, userID).Clear(ctx); err != nil {
			b.log.ErrorContext(ctx, "Failed to clear session",
				"error", err,
				"userID", userID)
		}
		return nil

	case view.DeleteInput:
		if _, err := b.rateLimiter.Request(tgbotapi.NewDeleteMessage(chatID, e.MessageID)); err != nil {
			b.log.WarnContext(ctx, "Failed to delete sensitive message",
				"error", err,
				"chatID", chatID,
				"messageID", e.MessageID)
		}
		return nil

	case view.FetchEntries:
		list := b.client.ListEntries
		if e.Recent {
			list = b.client.RecentEntries
		}
		entries, err := list(ctx, e.Token)
		if err != nil {
			return b.failed(ctx, userID, effect, err, fetchFailedText, func(msg string) view.Event {
				return view.EntriesFailed{Message: msg}
			})
		}
		for i := range entries {
			entries[i] = b.localize(entries[i])
		}
		return view.EntriesLoaded{Entries: entries}

	case view.CreateEntry:
		entry, err := b.client.CreateEntry(ctx, e.Token, e.Entry)
		if err != nil {
			return b.failed(ctx, userID, effect, err, createFailedText, func(msg string) view.Event {
				return view.EntryFailed{Message: msg}
			})
		}
		return view.EntryCreated{Entry: b.localize(entry)}

	case view.LoadReflection:
		record, err := b.db.GetReflection(ctx, userID, reflection.DateKey(time.Now().In(b.loc)))
		if err != nil {
			return b.failed(ctx, userID, effect, err, reflectionLoadFailedText, func(msg string) view.Event {
				return view.ReflectionFailed{Message: msg}
			})
		}
		return view.ReflectionLoaded{Record: record}

	case view.SaveReflection:
		record := reflection.NewRecord(e.Text, e.RawTags, e.Style, time.Now().In(b.loc))
		if err := b.db.SaveReflection(ctx, userID, record); err != nil {
			return b.failed(ctx, userID, effect, err, reflectionFailedText, func(msg string) view.Event {
				return view.ReflectionFailed{Message: msg}
			})
		}
		return view.ReflectionSaved{Record: record}

	case view.BuildInsight:
		start, end := insights.LastDays(time.Now().In(b.loc), b.insightsDays)
		summary, err := b.builder.Build(ctx, userID, e.Token, start, end)
		if err != nil {
			return b.failed(ctx, userID, effect, err, insightFailedText, func(msg string) view.Event {
				return view.InsightFailed{Message: msg}
			})
		}
		return view.InsightBuilt{Summary: *summary}

	case view.LoadSummaries:
		summaries, err := b.db.ListPeriodSummaries(ctx, userID, view.MaxRenderedSummaries)
		if err != nil {
			return b.failed(ctx, userID, effect, err, summariesFailedText, func(msg string) view.Event {
				return view.SummariesFailed{Message: msg}
			})
		}
		records, err := b.db.ListReflections(ctx, userID, view.MaxRenderedReflections)
		if err != nil {
			return b.failed(ctx, userID, effect, err, summariesFailedText, func(msg string) view.Event {
				return view.SummariesFailed{Message: msg}
			})
		}
		return view.SummariesLoaded{Summaries: summaries, Reflections: records}

	case view.ImportFeed:
		return b.importFeed(ctx, userID, e)

	default:
		b.log.ErrorContext(ctx, "Unknown effect",
			"effect", fmt.Sprintf("%T", effect),
			"userID", userID)
		return nil
	}
}

func (b *Bot) authenticate(ctx context.Context, userID int64, e view.Authenticate) view.Event {
	var (
		token string
		err   error
	)

	if e.SignUp {
		token, err = b.client.Register(ctx, e.Email, e.Password)
	} else {
		token, err = b.client.Login(ctx, e.Email, e.Password)
	}

	if err != nil {
		b.log.WarnContext(ctx, "Authentication failed",
			"error", err,
			"userID", userID,
			"signUp", e.SignUp)

		return view.AuthFailed{Message: journalapi.UserMessage(err, authFailedText)}
	}

	b.log.InfoContext(ctx, "User is authenticated",
		"userID", userID,
		"signUp", e.SignUp)

	return view.Authenticated{Email: e.Email, Token: token}
}

func (b *Bot) importFeed(ctx context.Context, userID int64, e view.ImportFeed) view.Event {
	created, err := b.importer.Import(ctx, e.Token, e.Text)

	switch {
	case errors.Is(err, importer.ErrNoFeedURL):
		return view.ImportFailed{Message: noFeedURLText}
	case err != nil && created == 0:
		return b.failed(ctx, userID, e, err, importFailedText, func(msg string) view.Event {
			return view.ImportFailed{Message: msg}
		})
	case err != nil:
		b.log.WarnContext(ctx, "Feed is partially imported",
			"error", err,
			"userID", userID,
			"created", created)

		return view.FeedImported{Created: created, Partial: true}
	default:
		return view.FeedImported{Created: created}
	}
}

// failed turns an effect error into the view's failure event. A token the
// backend rejects ends the session instead.
func (b *Bot) failed(
	ctx context.Context,
	userID int64,
	effect view.Effect,
	err error,
	fallback string,
	event func(message string) view.Event,
) view.Event {
	var apiErr *journalapi.APIError
	if errors.As(err, &apiErr) && apiErr.Unauthorized() {
		b.log.WarnContext(ctx, "Backend rejected session token",
			"userID", userID,
			"effect", fmt.Sprintf("%T", effect),
			"statusCode", apiErr.StatusCode)

		return view.SessionExpired{}
	}

	b.log.ErrorContext(ctx, "Failed to run effect",
		"error", err,
		"userID", userID,
		"effect", fmt.Sprintf("%T", effect))

	return event(journalapi.UserMessage(err, fallback))
}

func (b *Bot) localize(entry domain.Entry) domain.Entry {
	if !entry.CreatedAt.IsZero() {
		entry.CreatedAt = entry.CreatedAt.In(b.loc)
	}
	if !entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = entry.UpdatedAt.In(b.loc)
	}

	return entry
}
