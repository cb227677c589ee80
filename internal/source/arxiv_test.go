package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/Veraticus/intel-sieve/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const arxivEntry = `
  <entry>
    <id>http://arxiv.org/abs/2604.%05dv1</id>
    <updated>2026-04-01T17:59:59Z</updated>
    <published>2026-04-01T17:59:59Z</published>
    <title>Embodied AI
      Agents for Paper %d</title>
    <summary>  We study
      llm agents.  </summary>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
    <arxiv:comment>12 pages</arxiv:comment>
    <arxiv:doi>10.1000/xyz%d</arxiv:doi>
    <link href="http://arxiv.org/abs/2604.%05dv1" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2604.%05dv1" rel="related" type="application/pdf"/>
    <arxiv:primary_category term="cs.AI" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.AI" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.RO" scheme="http://arxiv.org/schemas/atom"/>
  </entry>`

func arxivFeed(total, start, count int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <title type="html">ArXiv Query</title>
  <id>http://arxiv.org/api/test</id>
  <updated>2026-04-02T00:00:00-04:00</updated>
  <opensearch:totalResults>` + strconv.Itoa(total) + `</opensearch:totalResults>
  <opensearch:startIndex>` + strconv.Itoa(start) + `</opensearch:startIndex>
  <opensearch:itemsPerPage>` + strconv.Itoa(count) + `</opensearch:itemsPerPage>`)
	for i := start; i < start+count; i++ {
		fmt.Fprintf(&b, arxivEntry, i, i, i, i, i)
	}
	b.WriteString("\n</feed>\n")
	return b.String()
}

const arxivError = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query</title>
  <id>http://arxiv.org/api/err</id>
  <entry>
    <id>http://arxiv.org/api/errors#incorrect_id_format</id>
    <title>Error</title>
    <summary>incorrect id format for 1234</summary>
  </entry>
</feed>`

func testArxivClient(url string) *ArxivClient {
	return NewArxivClient(ArxivConfig{
		BaseURL:   url,
		BatchSize: 2,
		Interval:  time.Millisecond,
		Retry:     service.RetryOptions{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond},
	})
}

func TestBuildArxivQuery(t *testing.T) {
	day := time.Date(2026, 4, 1, 15, 0, 0, 0, time.UTC)
	got := BuildArxivQuery([]string{"cs.AI", "cs.CV"}, day)
	assert.Equal(t, "(cat:cs.AI OR cat:cs.CV) AND submittedDate:[202604010000 TO 202604020000]", got)
}

func TestParseArxivFeed(t *testing.T) {
	page, err := ParseArxivFeed([]byte(arxivFeed(7, 0, 1)))
	require.NoError(t, err)

	assert.Equal(t, 7, page.TotalResults)
	require.Len(t, page.Papers, 1)
	p := page.Papers[0]
	assert.Equal(t, "http://arxiv.org/abs/2604.00000v1", p.ID)
	assert.Equal(t, "Embodied AI Agents for Paper 0", p.Title)
	assert.Equal(t, "We study llm agents.", p.Summary)
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, p.Authors)
	assert.Equal(t, []string{"cs.AI", "cs.RO"}, p.Categories)
	assert.Equal(t, "cs.AI", p.PrimaryCategory)
	assert.Equal(t, "http://arxiv.org/abs/2604.00000v1", p.AbstractURL)
	assert.Equal(t, "http://arxiv.org/pdf/2604.00000v1", p.PDFURL)
	assert.Equal(t, "12 pages", p.Comment)
	assert.Equal(t, "10.1000/xyz0", p.DOI)
	assert.Equal(t, time.Date(2026, 4, 1, 17, 59, 59, 0, time.UTC), p.Published)
}

func TestParseArxivFeed_Errors(t *testing.T) {
	_, err := ParseArxivFeed([]byte(arxivError))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUpstreamStatus)
	assert.Contains(t, err.Error(), "incorrect id format")

	_, err = ParseArxivFeed([]byte("not xml at all"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMalformedFeed)
}

func TestArxivClient_FetchAllPaginates(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "submittedDate", r.URL.Query().Get("sortBy"))
		assert.Contains(t, r.URL.Query().Get("search_query"), "cat:cs.AI")
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		size, _ := strconv.Atoi(r.URL.Query().Get("max_results"))
		count := min(size, 5-start)
		_, _ = w.Write([]byte(arxivFeed(5, start, count)))
	}))
	defer srv.Close()

	client := testArxivClient(srv.URL)
	var progress []int
	client.OnProgress = func(fetched, _ int) { progress = append(progress, fetched) }

	papers, err := client.FetchAll(context.Background(), BuildArxivQuery([]string{"cs.AI"}, time.Now()), 100)
	require.NoError(t, err)

	assert.Len(t, papers, 5)
	assert.Equal(t, int32(3), requests.Load())
	assert.Equal(t, []int{2, 4, 5}, progress)
}

func TestArxivClient_FetchAllRespectsMax(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		size, _ := strconv.Atoi(r.URL.Query().Get("max_results"))
		_, _ = w.Write([]byte(arxivFeed(100, start, size)))
	}))
	defer srv.Close()

	papers, err := testArxivClient(srv.URL).FetchAll(context.Background(), "cat:cs.AI", 3)
	require.NoError(t, err)
	assert.Len(t, papers, 3)
}

func TestArxivClient_RetriesServerErrors(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(arxivFeed(1, 0, 1)))
	}))
	defer srv.Close()

	page, err := testArxivClient(srv.URL).Query(context.Background(), "cat:cs.AI", 0, 10)
	require.NoError(t, err)
	assert.Len(t, page.Papers, 1)
	assert.Equal(t, int32(2), requests.Load())
}

func TestArxivClient_DoesNotRetryAPIErrors(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(arxivError))
	}))
	defer srv.Close()

	_, err := testArxivClient(srv.URL).FetchAll(context.Background(), "cat:cs.AI", 10)
	require.Error(t, err)
	assert.Equal(t, int32(1), requests.Load())
}

func TestArxivSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, strconv.Itoa(ArxivTestModeResults), r.URL.Query().Get("max_results"))
		_, _ = w.Write([]byte(arxivFeed(1, 0, 1)))
	}))
	defer srv.Close()

	src := &ArxivSource{
		Client:     testArxivClient(srv.URL),
		Day:        time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Categories: []string{"cs.AI"},
		TestMode:   true,
	}
	items, err := src.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "arxiv", items[0].Source)
	assert.Equal(t, "Ada Lovelace", items[0].Author)
	assert.True(t, items[0].HasTag("CS.AI"))
}
