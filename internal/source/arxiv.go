package source

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/service"
	"github.com/mmcdole/gofeed/atom"
	ext "github.com/mmcdole/gofeed/extensions"
	"golang.org/x/time/rate"
)

// arXiv API defaults.
const (
	ArxivAPIURL          = "http://export.arxiv.org/api/query"
	ArxivBatchSize       = 50
	ArxivMaxResults      = 500
	ArxivTestModeResults = 10
	ArxivRequestInterval = 3 * time.Second

	arxivDateLayout = "200601020000"
	arxivErrorTitle = "Error"
)

// ArxivConfig configures an ArxivClient. Zero values take the defaults above.
type ArxivConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	UserAgent  string
	Retry      service.RetryOptions
	BatchSize  int
	Interval   time.Duration
}

// ArxivPage is one API response.
type ArxivPage struct {
	Papers       []model.Paper
	TotalResults int
}

// ArxivClient queries the arXiv export API, spacing requests by the
// configured interval.
type ArxivClient struct {
	client    *http.Client
	limiter   *rate.Limiter
	baseURL   string
	userAgent string
	retry     service.RetryOptions
	batchSize int

	// OnProgress is called after every page with the papers fetched so far
	// and the number expected.
	OnProgress func(fetched, total int)
}

// NewArxivClient creates a client.
func NewArxivClient(cfg ArxivConfig) *ArxivClient {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = newHTTPClient()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = ArxivAPIURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = ArxivBatchSize
	}
	if cfg.Interval <= 0 {
		cfg.Interval = ArxivRequestInterval
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2,
		}
	}

	return &ArxivClient{
		client:    cfg.HTTPClient,
		limiter:   rate.NewLimiter(rate.Every(cfg.Interval), 1),
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		retry:     cfg.Retry,
		batchSize: cfg.BatchSize,
	}
}

// BuildArxivQuery selects papers in any of categories submitted during the
// calendar day of day.
func BuildArxivQuery(categories []string, day time.Time) string {
	cats := make([]string, len(categories))
	for i, c := range categories {
		cats[i] = "cat:" + c
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	return fmt.Sprintf("(%s) AND submittedDate:[%s TO %s]",
		strings.Join(cats, " OR "), start.Format(arxivDateLayout), end.Format(arxivDateLayout))
}

func (c *ArxivClient) pageURL(query string, start, maxResults int) string {
	v := url.Values{}
	v.Set("search_query", query)
	v.Set("start", strconv.Itoa(start))
	v.Set("max_results", strconv.Itoa(maxResults))
	v.Set("sortBy", "submittedDate")
	v.Set("sortOrder", "descending")
	return c.baseURL + "?" + v.Encode()
}

// Query fetches one page of results.
func (c *ArxivClient) Query(ctx context.Context, query string, start, maxResults int) (ArxivPage, error) {
	u := c.pageURL(query, start, maxResults)
	slog.Debug("Fetching arXiv page", "start", start, "max_results", maxResults)

	var page ArxivPage
	err := common.WithRetry(ctx, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		body, err := get(ctx, c.client, u, c.userAgent)
		if err != nil {
			return err
		}
		page, err = ParseArxivFeed(body)
		return err
	}, c.retry)
	if err != nil {
		return ArxivPage{}, fmt.Errorf("arxiv query at offset %d: %w", start, err)
	}
	return page, nil
}

// FetchAll pages through query until maxTotal papers, the reported total or
// an empty page. A failed page after the first ends the walk and returns what
// was fetched so far.
func (c *ArxivClient) FetchAll(ctx context.Context, query string, maxTotal int) ([]model.Paper, error) {
	if maxTotal <= 0 {
		maxTotal = ArxivMaxResults
	}

	var papers []model.Paper
	for start := 0; start < maxTotal; start += c.batchSize {
		size := c.batchSize
		if remaining := maxTotal - start; remaining < size {
			size = remaining
		}

		page, err := c.Query(ctx, query, start, size)
		if err != nil {
			if len(papers) == 0 {
				return nil, err
			}
			slog.Warn("Stopping arXiv pagination after failed batch", "fetched", len(papers), "error", err)
			break
		}
		if len(page.Papers) == 0 {
			break
		}
		papers = append(papers, page.Papers...)

		expected := min(page.TotalResults, maxTotal)
		if c.OnProgress != nil {
			c.OnProgress(len(papers), expected)
		}
		if start+c.batchSize >= expected {
			break
		}
	}

	slog.Info("Fetched arXiv papers", "count", len(papers))
	return papers, nil
}

// ParseArxivFeed decodes an arXiv Atom response. An API error document is
// reported as a non-retryable error carrying the API's message.
func ParseArxivFeed(data []byte) (ArxivPage, error) {
	feed, err := (&atom.Parser{}).Parse(bytes.NewReader(data))
	if err != nil {
		return ArxivPage{}, &common.RetryableError{
			Err:       fmt.Errorf("%w: %w", common.ErrMalformedFeed, err),
			Retryable: false,
		}
	}

	var page ArxivPage
	if total := extensionValue(feed.Extensions, "opensearch", "totalResults"); total != "" {
		page.TotalResults, _ = strconv.Atoi(strings.TrimSpace(total))
	}

	for _, entry := range feed.Entries {
		if strings.TrimSpace(entry.Title) == arxivErrorTitle {
			return ArxivPage{}, &common.RetryableError{
				Err:       fmt.Errorf("%w: arxiv api error: %s", common.ErrUpstreamStatus, cleanText(entry.Summary)),
				Retryable: false,
			}
		}
		if p, ok := paperFromEntry(entry); ok {
			page.Papers = append(page.Papers, p)
		}
	}
	if page.TotalResults == 0 {
		page.TotalResults = len(page.Papers)
	}
	return page, nil
}

func paperFromEntry(entry *atom.Entry) (model.Paper, bool) {
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		return model.Paper{}, false
	}

	p := model.Paper{
		ID:              id,
		Title:           cleanText(entry.Title),
		Summary:         cleanText(entry.Summary),
		PrimaryCategory: extensionAttr(entry.Extensions, "arxiv", "primary_category", "term"),
		Comment:         cleanText(extensionValue(entry.Extensions, "arxiv", "comment")),
		JournalRef:      cleanText(extensionValue(entry.Extensions, "arxiv", "journal_ref")),
		DOI:             strings.TrimSpace(extensionValue(entry.Extensions, "arxiv", "doi")),
	}
	if entry.PublishedParsed != nil {
		p.Published = entry.PublishedParsed.UTC()
	}
	if entry.UpdatedParsed != nil {
		p.Updated = entry.UpdatedParsed.UTC()
	}
	for _, a := range entry.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	for _, c := range entry.Categories {
		if c.Term != "" {
			p.Categories = append(p.Categories, c.Term)
		}
	}
	for _, l := range entry.Links {
		switch {
		case l.Rel == "alternate":
			p.AbstractURL = l.Href
		case l.Rel == "related" && l.Title == "pdf":
			p.PDFURL = l.Href
		}
	}
	if p.AbstractURL == "" {
		p.AbstractURL = id
	}
	return p, true
}

// extensionValue finds a namespaced element by prefix, falling back to any
// namespace carrying an element of that name.
func extensionValue(exts ext.Extensions, prefix, name string) string {
	if e := findExtension(exts, prefix, name); e != nil {
		return e.Value
	}
	return ""
}

func extensionAttr(exts ext.Extensions, prefix, name, attr string) string {
	if e := findExtension(exts, prefix, name); e != nil {
		return e.Attrs[attr]
	}
	return ""
}

func findExtension(exts ext.Extensions, prefix, name string) *ext.Extension {
	if list := exts[prefix][name]; len(list) > 0 {
		return &list[0]
	}
	for _, byName := range exts {
		if list := byName[name]; len(list) > 0 {
			return &list[0]
		}
	}
	return nil
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ArxivSource adapts an ArxivClient to Source for one submission day.
type ArxivSource struct {
	Client     *ArxivClient
	Day        time.Time
	Categories []string
	// MaxResults caps the papers fetched; zero means ArxivMaxResults.
	MaxResults int
	// TestMode fetches a single small page.
	TestMode bool
}

// Name implements Source.
func (s *ArxivSource) Name() string { return "arxiv" }

// Papers fetches the day's papers.
func (s *ArxivSource) Papers(ctx context.Context) ([]model.Paper, error) {
	query := BuildArxivQuery(s.Categories, s.Day)
	if s.TestMode {
		page, err := s.Client.Query(ctx, query, 0, ArxivTestModeResults)
		if err != nil {
			return nil, err
		}
		return page.Papers, nil
	}
	return s.Client.FetchAll(ctx, query, s.MaxResults)
}

// Fetch implements Source.
func (s *ArxivSource) Fetch(ctx context.Context) ([]model.Item, error) {
	papers, err := s.Papers(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]model.Item, len(papers))
	for i, p := range papers {
		items[i] = p.Item()
	}
	return items, nil
}
