package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>36氪</title>
    <link>https://36kr.com</link>
    <item>
      <title>AutoAgent Labs 完成500万美元种子轮融资</title>
      <description><![CDATA[<p>本轮由 <b>MiraclePlus</b> 领投，资金将用于 AI Agent 研发。</p>]]></description>
      <link>https://36kr.com/p/1</link>
      <pubDate>Wed, 01 Apr 2026 08:00:00 +0800</pubDate>
    </item>
    <item>
      <title>今日天气晴朗</title>
      <description>与投资人聊天</description>
      <link>https://36kr.com/p/2</link>
    </item>
    <item>
      <title>周末漫展回顾</title>
      <description>一篇普通报道</description>
      <link>https://36kr.com/p/3</link>
    </item>
  </channel>
</rss>`

const atomFundingFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>快讯</title>
  <id>urn:test</id>
  <updated>2026-04-01T00:00:00Z</updated>
  <entry>
    <title>星海科技获得数千万人民币A轮融资</title>
    <id>urn:test:1</id>
    <link href="https://example.com/1"/>
    <updated>2026-03-30T10:00:00Z</updated>
    <summary>具身智能公司</summary>
  </entry>
</feed>`

func testFeedSource(urls ...string) *FeedSource {
	return NewFeedSource(FeedConfig{
		URLs:     urls,
		Keywords: FundingKeywords,
		Retry:    service.RetryOptions{MaxAttempts: 1},
	})
}

func TestFeedSource_RSS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(rssFeed))
	}))
	defer srv.Close()

	events, err := testFeedSource(srv.URL).Events(context.Background())
	require.NoError(t, err)

	require.Len(t, events, 2)
	e := events[0]
	assert.Equal(t, "AutoAgent Labs", e.Company)
	assert.Equal(t, "种子轮", e.Round)
	assert.Equal(t, "500万美元", e.Amount)
	assert.Equal(t, "2026-04-01", e.Date)
	assert.Equal(t, "本轮由 MiraclePlus 领投，资金将用于 AI Agent 研发。", e.Description)
	assert.Equal(t, "https://36kr.com/p/1", e.SourceURL)
	assert.Equal(t, "36kr_rss", e.Platform)

	assert.Equal(t, "今日天气晴朗", events[1].Company)
}

func TestFeedSource_FallsBackToNextFeed(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer broken.Close()
	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not a feed</html>"))
	}))
	defer garbage.Close()
	atom := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(atomFundingFeed))
	}))
	defer atom.Close()

	items, err := testFeedSource(broken.URL, garbage.URL, atom.URL).Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, model.KindFunding, items[0].Kind)
	assert.Equal(t, "星海", items[0].Meta("company"))
	assert.Equal(t, "A轮", items[0].Meta("round"))
	assert.Equal(t, "数千万人民币", items[0].Meta("amount"))
	assert.Equal(t, "2026-03-30", items[0].Meta("date"))
}

func TestFeedSource_AllFeedsDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testFeedSource(srv.URL).Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrSourceUnavailable)
}

func TestExtractFunding(t *testing.T) {
	published := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		title       string
		wantCompany string
		wantRound   string
		wantAmount  string
	}{
		{
			name:        "english company name",
			title:       "RobotMind 完成800万美元Pre-A轮融资",
			wantCompany: "RobotMind",
			wantRound:   "Pre-A轮",
			wantAmount:  "800万美元",
		},
		{
			name:        "chinese company with suffix",
			title:       "萌宠科技宣布完成天使轮融资",
			wantCompany: "萌宠",
			wantRound:   "天使轮",
		},
		{
			name:        "no company falls back to title",
			title:       "本周融资速览",
			wantCompany: "本周融资速览",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := ExtractFunding(tt.title, "", "https://example.com", "test", &published)
			assert.Equal(t, tt.wantCompany, e.Company)
			assert.Equal(t, tt.wantRound, e.Round)
			assert.Equal(t, tt.wantAmount, e.Amount)
			assert.Equal(t, "2026-04-01", e.Date)
		})
	}
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "hello world", StripHTML("<div><p>hello</p>\n<script>x()</script> <b>world</b></div>"))
	assert.Equal(t, "plain text", StripHTML("  plain   text "))
	assert.Equal(t, "a & b", StripHTML("a &amp; b"))
}
