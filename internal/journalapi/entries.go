package journalapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reflectivejournal/internal/domain"

	"github.com/tidwall/gjson"
)

const maxEntryPages = 20

// ErrForeignPageURL is returned when a paginated response points outside the
// backend the client was created for.
var ErrForeignPageURL = errors.New("next page URL is outside the backend")

type entryPayload struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Summary   *string   `json:"summary"`
	Mood      string    `json:"mood"`
	Tags      string    `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type newEntryRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Mood    string `json:"mood"`
}

func (p entryPayload) toDomain() domain.Entry {
	entry := domain.Entry{
		ID:        p.ID,
		Title:     strings.TrimSpace(p.Title),
		Content:   p.Content,
		Mood:      domain.Mood(strings.TrimSpace(p.Mood)),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}

	if p.Summary != nil {
		entry.Summary = strings.TrimSpace(*p.Summary)
	}

	for tag := range strings.SplitSeq(p.Tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			entry.Tags = append(entry.Tags, tag)
		}
	}

	return entry
}

// ListEntries returns every entry of the token's owner, newest first as the
// backend orders them. Paginated responses are followed through "next".
func (c *Client) ListEntries(ctx context.Context, token string) ([]domain.Entry, error) {
	var entries []domain.Entry

	pageURL := c.endpoint(entriesPath)
	for page := 0; pageURL != "" && page < maxEntryPages; page++ {
		resp, err := c.do(ctx, http.MethodGet, pageURL, token, nil)
		if err != nil {
			return nil, fmt.Errorf("list entries: %w", err)
		}

		pageEntries, next, err := decodeEntryPage(resp.body)
		if err != nil {
			return nil, fmt.Errorf("decode entries page %d: %w", page, err)
		}

		entries = append(entries, pageEntries...)

		if pageURL, err = c.nextPageURL(pageURL, next); err != nil {
			return nil, fmt.Errorf("follow entries page %d: %w", page, err)
		}
	}

	return entries, nil
}

// nextPageURL resolves next against the current page and refuses any URL
// whose scheme or host differs from the backend's.
func (c *Client) nextPageURL(current string, next string) (string, error) {
	if next == "" {
		return "", nil
	}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}

	currentURL, err := url.Parse(current)
	if err != nil {
		return "", fmt.Errorf("parse page URL: %w", err)
	}

	nextURL, err := url.Parse(next)
	if err != nil {
		return "", fmt.Errorf("parse next URL %q: %w", next, err)
	}

	resolved := currentURL.ResolveReference(nextURL)
	if resolved.Scheme != base.Scheme || resolved.Host != base.Host {
		return "", fmt.Errorf("%w: %q", ErrForeignPageURL, resolved.Redacted())
	}

	return resolved.String(), nil
}

// RecentEntries returns entries of the last seven days.
func (c *Client) RecentEntries(ctx context.Context, token string) ([]domain.Entry, error) {
	resp, err := c.do(ctx, http.MethodGet, c.endpoint(recentEntriesPath), token, nil)
	if err != nil {
		return nil, fmt.Errorf("list recent entries: %w", err)
	}

	entries, _, err := decodeEntryPage(resp.body)
	if err != nil {
		return nil, fmt.Errorf("decode recent entries: %w", err)
	}

	return entries, nil
}

func (c *Client) CreateEntry(ctx context.Context, token string, entry domain.NewEntry) (domain.Entry, error) {
	mood := entry.Mood
	if mood == "" {
		mood = domain.DefaultMood
	}

	resp, err := c.do(ctx, http.MethodPost, c.endpoint(entriesPath), token, newEntryRequest{
		Title:   strings.TrimSpace(entry.Title),
		Content: entry.Content,
		Mood:    string(mood),
	})
	if err != nil {
		return domain.Entry{}, fmt.Errorf("create entry: %w", err)
	}

	var payload entryPayload
	if err = json.Unmarshal(resp.body, &payload); err != nil {
		return domain.Entry{}, fmt.Errorf("unmarshal entry: %w", err)
	}

	return payload.toDomain(), nil
}

// decodeEntryPage accepts a bare array or a paginated object with results.
func decodeEntryPage(body []byte) ([]domain.Entry, string, error) {
	raw := body
	next := ""

	if results := gjson.GetBytes(body, "results"); results.Exists() && results.IsArray() {
		raw = []byte(results.Raw)
		next = strings.TrimSpace(gjson.GetBytes(body, "next").String())
	}

	var payloads []entryPayload
	if err := json.Unmarshal(raw, &payloads); err != nil {
		return nil, "", fmt.Errorf("unmarshal entries: %w", err)
	}

	entries := make([]domain.Entry, 0, len(payloads))
	for _, p := range payloads {
		entries = append(entries, p.toDomain())
	}

	return entries, next, nil
}
