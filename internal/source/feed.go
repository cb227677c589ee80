package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/service"
	"github.com/mmcdole/gofeed"
)

// DefaultFundingFeeds are tried in order; the first one that answers with a
// parseable feed is used.
var DefaultFundingFeeds = []string{
	"https://36kr.com/feed",
	"https://36kr.com/feed-newsflash",
	"https://rsshub.app/36kr/newsflashes",
}

// FundingKeywords select feed entries that talk about financing.
var FundingKeywords = []string{"融资", "投资", "轮", "基金", "天使", "种子"}

const feedDescriptionLimit = 500

// FeedConfig configures a FeedSource.
type FeedConfig struct {
	HTTPClient *http.Client
	Name       string
	UserAgent  string
	URLs       []string
	// Keywords prefilter entries; an entry must mention at least one. Nil
	// keeps every entry.
	Keywords []string
	Retry    service.RetryOptions
}

// FeedSource reads funding news from RSS 2.0 or Atom feeds and turns each
// relevant entry into a funding event.
type FeedSource struct {
	client    *http.Client
	parser    *gofeed.Parser
	name      string
	userAgent string
	urls      []string
	keywords  []string
	retry     service.RetryOptions
}

// NewFeedSource creates a feed source.
func NewFeedSource(cfg FeedConfig) *FeedSource {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = newHTTPClient()
	}
	if cfg.Name == "" {
		cfg.Name = "36kr_rss"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if len(cfg.URLs) == 0 {
		cfg.URLs = DefaultFundingFeeds
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     10 * time.Second,
			Multiplier:   2,
		}
	}
	return &FeedSource{
		client:    cfg.HTTPClient,
		parser:    gofeed.NewParser(),
		name:      cfg.Name,
		userAgent: cfg.UserAgent,
		urls:      cfg.URLs,
		keywords:  cfg.Keywords,
		retry:     cfg.Retry,
	}
}

// Name implements Source.
func (f *FeedSource) Name() string { return f.name }

// Fetch implements Source.
func (f *FeedSource) Fetch(ctx context.Context) ([]model.Item, error) {
	events, err := f.Events(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]model.Item, len(events))
	for i, e := range events {
		items[i] = e.Item()
	}
	return items, nil
}

// Events returns the funding events of the first healthy feed.
func (f *FeedSource) Events(ctx context.Context) ([]model.FundingEvent, error) {
	var errs []error
	for _, u := range f.urls {
		feed, err := f.load(ctx, u)
		if err != nil {
			slog.Warn("Feed unavailable", "url", u, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", u, err))
			continue
		}
		slog.Info("Fetched feed", "url", u, "entries", len(feed.Items))
		return f.events(feed), nil
	}
	return nil, fmt.Errorf("%w: %w", common.ErrSourceUnavailable, errors.Join(errs...))
}

func (f *FeedSource) load(ctx context.Context, u string) (*gofeed.Feed, error) {
	var feed *gofeed.Feed
	err := common.WithRetry(ctx, func() error {
		body, err := get(ctx, f.client, u, f.userAgent)
		if err != nil {
			return err
		}
		feed, err = f.parser.Parse(bytes.NewReader(body))
		if err != nil {
			return &common.RetryableError{Err: fmt.Errorf("%w: %w", common.ErrMalformedFeed, err), Retryable: false}
		}
		return nil
	}, f.retry)
	return feed, err
}

func (f *FeedSource) events(feed *gofeed.Feed) []model.FundingEvent {
	var events []model.FundingEvent
	for _, entry := range feed.Items {
		title := strings.TrimSpace(entry.Title)
		desc := entry.Description
		if desc == "" {
			desc = entry.Content
		}
		desc = StripHTML(desc)
		if desc == "" {
			desc = title
		}

		if !mentionsAny(title+" "+desc, f.keywords) {
			continue
		}

		ts := entry.PublishedParsed
		if ts == nil {
			ts = entry.UpdatedParsed
		}
		events = append(events, ExtractFunding(title, desc, entry.Link, f.name, ts))
	}
	return events
}

func mentionsAny(text string, keywords []string) bool {
	if keywords == nil {
		return true
	}
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// StripHTML returns the visible text of an HTML fragment with whitespace
// collapsed.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return cleanText(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return cleanText(fragment)
	}
	doc.Find("script, style").Remove()
	return cleanText(doc.Text())
}
