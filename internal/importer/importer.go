package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"reflectivejournal/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"mvdan.cc/xurls/v2"
)

const (
	MaxImportedItems  = 20
	feedClientTimeout = 20 * time.Second
)

var ErrNoFeedURL = errors.New("no https URL found")

type EntryCreator interface {
	CreateEntry(ctx context.Context, token string, entry domain.NewEntry) (domain.Entry, error)
}

// Importer turns items of an RSS, Atom or JSON feed into journal entries.
type Importer struct {
	parser  *gofeed.Parser
	entries EntryCreator
	log     *slog.Logger
}

func New(entries EntryCreator, client *http.Client, log *slog.Logger) *Importer {
	if client == nil {
		client = &http.Client{Timeout: feedClientTimeout}
	}

	parser := gofeed.NewParser()
	parser.Client = client

	return &Importer{
		parser:  parser,
		entries: entries,
		log:     log,
	}
}

// FindFeedURL returns the first https URL in text.
func FindFeedURL(text string) (string, error) {
	httpsURLRe, err := xurls.StrictMatchingScheme("https://")
	if err != nil {
		return "", fmt.Errorf("create regexp: %w", err)
	}

	found := strings.TrimSpace(httpsURLRe.FindString(text))
	if found == "" {
		return "", ErrNoFeedURL
	}

	return found, nil
}

// Import creates up to MaxImportedItems entries from the newest feed items
// and reports how many were created. Items without text are skipped.
func (i *Importer) Import(ctx context.Context, token string, text string) (int, error) {
	feedURL, err := FindFeedURL(text)
	if err != nil {
		return 0, err
	}

	feed, err := i.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return 0, fmt.Errorf("parse feed by URL %q: %w", feedURL, err)
	}

	items := newestItems(feed.Items, MaxImportedItems)

	var errs []error
	created := 0

	for _, item := range items {
		entry, ok := itemToEntry(item)
		if !ok {
			i.log.DebugContext(ctx, "Skipping feed item without text",
				"feedURL", feedURL,
				"itemLink", item.Link)

			continue
		}

		if _, err = i.entries.CreateEntry(ctx, token, entry); err != nil {
			errs = append(errs, fmt.Errorf("create entry from %q: %w", item.Link, err))
			continue
		}

		created++
	}

	i.log.InfoContext(ctx, "Feed is imported",
		"feedURL", feedURL,
		"itemCount", len(feed.Items),
		"created", created,
		"failed", len(errs))

	return created, errors.Join(errs...)
}

func newestItems(items []*gofeed.Item, limit int) []*gofeed.Item {
	sorted := slices.Clone(items)

	slices.SortStableFunc(sorted, func(a, b *gofeed.Item) int {
		at, bt := itemTime(a), itemTime(b)

		switch {
		case at.Equal(bt):
			return 0
		case at.After(bt):
			return -1
		default:
			return 1
		}
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	return sorted
}

func itemTime(item *gofeed.Item) time.Time {
	if item == nil {
		return time.Time{}
	}

	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}

	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}

	return time.Time{}
}

func itemToEntry(item *gofeed.Item) (domain.NewEntry, bool) {
	if item == nil {
		return domain.NewEntry{}, false
	}

	body := item.Content
	if strings.TrimSpace(body) == "" {
		body = item.Description
	}

	content := HTMLToText(body)
	if content == "" {
		return domain.NewEntry{}, false
	}

	return domain.NewEntry{
		Title:   HTMLToText(item.Title),
		Content: content,
		Mood:    domain.DefaultMood,
	}, true
}

// HTMLToText flattens an HTML fragment into plain text, one line per block.
func HTMLToText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, h1, h2, h3, h4, h5, h6, blockquote").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	var lines []string
	for line := range strings.SplitSeq(doc.Text(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n")
}
