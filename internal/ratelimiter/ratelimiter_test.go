package ratelimiter

import (
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeSender struct {
	mu       sync.Mutex
	sentAt   []time.Time
	requests []tgbotapi.Chattable
	err      error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sentAt = append(f.sentAt, time.Now())

	return tgbotapi.Message{MessageID: len(f.sentAt)}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, c)

	return &tgbotapi.APIResponse{Ok: f.err == nil}, f.err
}

func TestGetDelay(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		chatID   int64
		lastSent time.Time
		wantZero bool
	}{
		{
			"Private chat - no delay needed",
			123456789,
			now.Add(-2 * time.Second),
			true,
		},
		{
			"Private chat - delay needed",
			123456789,
			now.Add(-500 * time.Millisecond),
			false,
		},
		{
			"Group chat - no delay needed",
			-123456789,
			now.Add(-4 * time.Second),
			true,
		},
		{
			"Group chat - delay needed",
			-123456789,
			now.Add(-1 * time.Second),
			false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := getDelay(test.chatID, test.lastSent)

			if test.wantZero && got > 0 {
				t.Errorf("Expected zero delay, got %v", got)
			}

			if !test.wantZero && got <= 0 {
				t.Errorf("Expected positive delay, got %v", got)
			}
		})
	}
}

func TestGetChatID(t *testing.T) {
	tests := []struct {
		name    string
		message tgbotapi.Chattable
		want    int64
	}{
		{
			"MessageConfig",
			tgbotapi.NewMessage(12345, "test"),
			12345,
		},
		{
			"ChatActionConfig",
			tgbotapi.NewChatAction(67890, tgbotapi.ChatTyping),
			67890,
		},
		{
			"DeleteMessageConfig",
			tgbotapi.NewDeleteMessage(-42, 7),
			-42,
		},
		{
			"EditMessageTextConfig",
			tgbotapi.NewEditMessageText(55, 1, "edited"),
			55,
		},
		{
			"Unknown",
			tgbotapi.NewCallback("id", "text"),
			0,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := getChatID(test.message)

			if got != test.want {
				t.Errorf("Expected %v chatID, got %v", test.want, got)
			}
		})
	}
}

func TestGetRate(t *testing.T) {
	tests := []struct {
		name   string
		chatID int64
		want   time.Duration
	}{
		{
			"PrivateChatRate",
			1,
			privateChatRate,
		},
		{
			"GroupChatRate",
			-1,
			groupChatRate,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := getRate(test.chatID)

			if got != test.want {
				t.Errorf("Expected %v rate, got %v", test.want, got)
			}
		})
	}
}

func TestSendPacesSameChat(t *testing.T) {
	sender := &fakeSender{}
	rl := New(sender, slog.Default())
	defer rl.Stop()

	for range 2 {
		if _, err := rl.Send(tgbotapi.NewMessage(1, "hi")); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()

	if len(sender.sentAt) != 2 {
		t.Fatalf("expected 2 sends, got %d", len(sender.sentAt))
	}

	if gap := sender.sentAt[1].Sub(sender.sentAt[0]); gap < privateChatRate-50*time.Millisecond {
		t.Fatalf("expected sends to be paced, gap was %v", gap)
	}
}

func TestSendAfterStop(t *testing.T) {
	rl := New(&fakeSender{}, slog.Default())
	rl.Stop()

	if _, err := rl.Send(tgbotapi.NewMessage(1, "hi")); err == nil {
		t.Fatalf("expected error after stop")
	}
}

func TestRequestWrapsError(t *testing.T) {
	apiErr := errors.New("bad request")
	sender := &fakeSender{err: apiErr}
	rl := New(sender, slog.Default())
	defer rl.Stop()

	if _, err := rl.Request(tgbotapi.NewDeleteMessage(1, 2)); !errors.Is(err, apiErr) {
		t.Fatalf("expected wrapped error, got %v", err)
	}

	if len(sender.requests) != 1 {
		t.Fatalf("expected request to bypass queue, got %d", len(sender.requests))
	}
}
