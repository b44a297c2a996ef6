package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"reflectivejournal/internal/database"
	"reflectivejournal/internal/domain"
	"reflectivejournal/internal/importer"
	"reflectivejournal/internal/insights"
	"reflectivejournal/internal/journalapi"
	"reflectivejournal/internal/ratelimiter"
	"reflectivejournal/internal/reflection"
	"reflectivejournal/internal/view"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	userA int64 = 1001
	userB int64 = 1002
)

type recordingSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
}

func (r *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := c.(tgbotapi.MessageConfig); ok {
		r.sent = append(r.sent, m)
	}

	return tgbotapi.Message{MessageID: len(r.sent)}, nil
}

func (r *recordingSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests = append(r.requests, c)

	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (r *recordingSender) lastText() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sent) == 0 {
		return ""
	}

	return r.sent[len(r.sent)-1].Text
}

// backend is a fake journal REST API that records the tokens it sees.
type backend struct {
	mu          sync.Mutex
	tokens      []string
	status      int
	failTitle   string
	entriesJSON string
}

func (f *backend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/login/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"key":"tok-login"}`)
	})

	mux.HandleFunc("/api/entries/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.tokens = append(f.tokens, r.Header.Get("Authorization"))
		status, failTitle, entriesJSON := f.status, f.failTitle, f.entriesJSON
		f.mu.Unlock()

		if status != 0 {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"detail":"Backend says no."}`)
			return
		}

		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, entriesJSON)
			return
		}

		var payload struct {
			Title   string `json:"title"`
			Content string `json:"content"`
			Mood    string `json:"mood"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if failTitle != "" && payload.Title == failTitle {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"detail":"Rejected."}`)
			return
		}

		w.WriteHeader(http.StatusCreated)
		_, _ = fmt.Fprintf(w, `{"id":7,"title":%q,"content":%q,"mood":%q,"created_at":"2025-06-03T22:30:00Z"}`,
			payload.Title, payload.Content, payload.Mood)
	})

	return mux
}

func (f *backend) seenTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.tokens...)
}

func newTestBot(t *testing.T, api *backend, feedClient *http.Client) (*Bot, *recordingSender) {
	t.Helper()

	ctx := context.Background()
	log := slog.Default()

	db, err := database.New(ctx, filepath.Join(t.TempDir(), "bot.sqlite"), log)
	if err != nil {
		t.Fatalf("create database: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Errorf("close database: %v", closeErr)
		}
	})

	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	client, err := journalapi.New(server.URL, 5*time.Second, log)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	sender := &recordingSender{}
	limiter := ratelimiter.New(sender, log)
	t.Cleanup(limiter.Stop)

	return &Bot{
		rateLimiter:  limiter,
		db:           db,
		client:       client,
		builder:      insights.NewBuilder(client, db, nil, log),
		importer:     importer.New(client, feedClient, log),
		loc:          time.UTC,
		insightsDays: 7,
		chats:        make(map[chatKey]view.State),
		log:          log,
	}, sender
}

func storeSession(t *testing.T, b *Bot, userID int64, token string) {
	t.Helper()

	err := b.db.UpsertSession(context.Background(), userID, domain.Credentials{
		Email: fmt.Sprintf("user%d@example.com", userID),
		Token: token,
	})
	if err != nil {
		t.Fatalf("store session: %v", err)
	}
}

func TestDispatchRestoresSessionOnFirstInteraction(t *testing.T) {
	api := &backend{entriesJSON: `[{"id":1,"title":"Walk","content":"Long walk.","mood":"happy"}]`}
	b, sender := newTestBot(t, api, nil)
	storeSession(t, b, userA, "token-of-A")

	if err := b.dispatch(context.Background(), userA, userA, view.Command{Name: view.CmdEntries}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	state := b.chats[chatKey{chatID: userA, userID: userA}]
	if !state.Authenticated || state.Token != "token-of-A" || len(state.Entries) != 1 {
		t.Fatalf("unexpected restored state: %+v", state)
	}

	if tokens := api.seenTokens(); len(tokens) != 1 || tokens[0] != "Token token-of-A" {
		t.Fatalf("unexpected tokens: %v", tokens)
	}

	if !strings.Contains(sender.lastText(), "Walk") {
		t.Fatalf("expected entry in sent message: %q", sender.lastText())
	}
}

func TestDispatchKeepsUsersInSameChatApart(t *testing.T) {
	api := &backend{entriesJSON: `[]`}
	b, _ := newTestBot(t, api, nil)
	storeSession(t, b, userA, "token-of-A")

	const sharedChat int64 = 555
	b.setChatState(sharedChat, userA, view.Restored(domain.Credentials{Email: "a@example.com", Token: "token-of-A"}))

	if err := b.dispatch(context.Background(), sharedChat, userB, view.Command{Name: view.CmdEntries}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if tokens := api.seenTokens(); len(tokens) != 0 {
		t.Fatalf("expected no backend calls for a user without a session, got %v", tokens)
	}

	state := b.chats[chatKey{chatID: sharedChat, userID: userB}]
	if state.Authenticated || state.Error != view.ErrLoginFirst {
		t.Fatalf("unexpected state for second user: %+v", state)
	}

	if kept := b.chats[chatKey{chatID: sharedChat, userID: userA}]; kept.Token != "token-of-A" {
		t.Fatalf("first user's state was changed: %+v", kept)
	}
}

func TestDispatchExpiredTokenClearsSession(t *testing.T) {
	api := &backend{status: http.StatusUnauthorized}
	b, sender := newTestBot(t, api, nil)
	storeSession(t, b, userA, "stale")

	if err := b.dispatch(context.Background(), userA, userA, view.Command{Name: view.CmdEntries}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	state := b.chats[chatKey{chatID: userA, userID: userA}]
	if state.Authenticated || state.Error != view.ErrSessionExpired {
		t.Fatalf("expected expired session, got %+v", state)
	}

	creds, err := b.db.GetSession(context.Background(), userA)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}

	if creds != nil {
		t.Fatalf("expected stored session to be cleared, got %+v", creds)
	}

	if !strings.Contains(sender.lastText(), "expired") {
		t.Fatalf("expected expiry notice in sent message: %q", sender.lastText())
	}
}

func TestFailedMapsErrors(t *testing.T) {
	b, _ := newTestBot(t, &backend{}, nil)
	ctx := context.Background()
	toEvent := func(msg string) view.Event { return view.EntriesFailed{Message: msg} }

	tests := []struct {
		name string
		err  error
		want view.Event
	}{
		{"Unauthorized", &journalapi.APIError{StatusCode: http.StatusUnauthorized}, view.SessionExpired{}},
		{"Forbidden", &journalapi.APIError{StatusCode: http.StatusForbidden}, view.SessionExpired{}},
		{"Backend message", &journalapi.APIError{StatusCode: http.StatusBadRequest, Message: "Bad."}, view.EntriesFailed{Message: "Bad."}},
		{"Other error", fmt.Errorf("dial: %w", io.ErrUnexpectedEOF), view.EntriesFailed{Message: fetchFailedText}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := b.failed(ctx, userA, view.FetchEntries{}, test.err, fetchFailedText, toEvent)
			if got != test.want {
				t.Fatalf("unexpected event: %#v", got)
			}
		})
	}
}

func TestRunEffectRoundTrips(t *testing.T) {
	today := time.Now().UTC().Format(time.RFC3339)
	api := &backend{entriesJSON: `[{"id":1,"title":"Walk","content":"Long walk.","mood":"happy","created_at":"` + today + `"}]`}
	b, sender := newTestBot(t, api, nil)
	ctx := context.Background()

	if got := b.runEffect(ctx, userA, userA, view.Authenticate{Email: "a@example.com", Password: "pw"}); got != (view.Authenticated{Email: "a@example.com", Token: "tok-login"}) {
		t.Fatalf("unexpected authenticate event: %#v", got)
	}

	created, ok := b.runEffect(ctx, userA, userA, view.CreateEntry{
		Token: "tok",
		Entry: domain.NewEntry{Title: "Run", Content: "Ran 5k.", Mood: domain.MoodHappy},
	}).(view.EntryCreated)
	if !ok || created.Entry.Title != "Run" || created.Entry.CreatedAt.Location() != time.UTC {
		t.Fatalf("unexpected create event: %#v", created)
	}

	loaded, ok := b.runEffect(ctx, userA, userA, view.LoadReflection{}).(view.ReflectionLoaded)
	if !ok || loaded.Record != nil {
		t.Fatalf("expected no stored reflection, got %#v", loaded)
	}

	saved, ok := b.runEffect(ctx, userA, userA, view.SaveReflection{
		Text:    "Slept well. Ran.",
		RawTags: "health",
		Style:   reflection.StyleBullets,
	}).(view.ReflectionSaved)
	if !ok || len(saved.Record.Summary.Bullets) != 2 {
		t.Fatalf("unexpected save event: %#v", saved)
	}

	loaded, ok = b.runEffect(ctx, userA, userA, view.LoadReflection{}).(view.ReflectionLoaded)
	if !ok || loaded.Record == nil || loaded.Record.Date != saved.Record.Date {
		t.Fatalf("expected today's reflection, got %#v", loaded)
	}

	built, ok := b.runEffect(ctx, userA, userA, view.BuildInsight{Token: "tok"}).(view.InsightBuilt)
	if !ok || built.Summary.Themes.EntryCount != 1 || built.Summary.ID == 0 {
		t.Fatalf("unexpected insight event: %#v", built)
	}

	summaries, ok := b.runEffect(ctx, userA, userA, view.LoadSummaries{}).(view.SummariesLoaded)
	if !ok || len(summaries.Summaries) != 1 || len(summaries.Reflections) != 1 {
		t.Fatalf("unexpected summaries event: %#v", summaries)
	}

	if got := b.runEffect(ctx, userA, userA, view.DeleteInput{MessageID: 42}); got != nil {
		t.Fatalf("expected no event for delete, got %#v", got)
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()

	if len(sender.requests) != 1 {
		t.Fatalf("expected one delete request, got %d", len(sender.requests))
	}

	if del, isDelete := sender.requests[0].(tgbotapi.DeleteMessageConfig); !isDelete || del.MessageID != 42 {
		t.Fatalf("unexpected request: %#v", sender.requests[0])
	}
}

const importFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Blog</title>
  <item><title>Older post</title><description>First.</description><pubDate>Mon, 02 Jun 2025 10:00:00 +0000</pubDate></item>
  <item><title>Newer post</title><description>Second.</description><pubDate>Tue, 03 Jun 2025 10:00:00 +0000</pubDate></item>
</channel>
</rss>`

func TestImportFeedOutcomes(t *testing.T) {
	feed := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, importFeedXML)
	}))
	t.Cleanup(feed.Close)

	tests := []struct {
		name string
		api  *backend
		text string
		want view.Event
	}{
		{"All imported", &backend{}, feed.URL, view.FeedImported{Created: 2}},
		{"Partial", &backend{failTitle: "Older post"}, feed.URL, view.FeedImported{Created: 1, Partial: true}},
		{"Nothing imported", &backend{status: http.StatusInternalServerError}, feed.URL, view.ImportFailed{Message: "Backend says no."}},
		{"Token rejected", &backend{status: http.StatusUnauthorized}, feed.URL, view.SessionExpired{}},
		{"No URL", &backend{}, "my feed", view.ImportFailed{Message: noFeedURLText}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b, _ := newTestBot(t, test.api, feed.Client())

			got := b.runEffect(context.Background(), userA, userA, view.ImportFeed{Token: "tok", Text: test.text})
			if got != test.want {
				t.Fatalf("unexpected event: %#v", got)
			}
		})
	}
}

func TestCallbackFromPrivateChat(t *testing.T) {
	tests := []struct {
		name string
		cb   *tgbotapi.CallbackQuery
		want bool
	}{
		{"Private", &tgbotapi.CallbackQuery{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1, Type: "private"}}}, true},
		{"Group", &tgbotapi.CallbackQuery{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: -100, Type: "group"}}}, false},
		{"Without message", &tgbotapi.CallbackQuery{}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := callbackFromPrivateChat(test.cb); got != test.want {
				t.Fatalf("unexpected result: %v", got)
			}
		})
	}
}

func TestHandleUpdateIgnoresGroupChats(t *testing.T) {
	api := &backend{entriesJSON: `[]`}
	b, sender := newTestBot(t, api, nil)
	storeSession(t, b, userA, "token-of-A")

	b.handleUpdate(context.Background(), &tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userA},
		Chat:      &tgbotapi.Chat{ID: -100, Type: "group"},
		Text:      "/entries",
	}})

	if len(api.seenTokens()) != 0 || sender.lastText() != "" || len(b.chats) != 0 {
		t.Fatalf("expected group update to be ignored")
	}
}

func TestHandleMessageSkipsNonText(t *testing.T) {
	api := &backend{}
	b, sender := newTestBot(t, api, nil)

	b.setChatState(userA, userA, view.State{Screen: view.ScreenAuthPassword, Email: "a@example.com"})

	err := b.handleMessage(context.Background(), &tgbotapi.Message{
		MessageID: 9,
		From:      &tgbotapi.User{ID: userA},
		Chat:      &tgbotapi.Chat{ID: userA, Type: "private"},
		Sticker:   &tgbotapi.Sticker{FileID: "sticker"},
	})
	if err != nil {
		t.Fatalf("handle message: %v", err)
	}

	if state := b.chats[chatKey{chatID: userA, userID: userA}]; state.Loading || state.Screen != view.ScreenAuthPassword {
		t.Fatalf("expected state to be unchanged, got %+v", state)
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()

	if len(sender.sent) != 0 || len(sender.requests) != 0 {
		t.Fatalf("expected no Telegram calls, got %d sends and %d requests", len(sender.sent), len(sender.requests))
	}
}
