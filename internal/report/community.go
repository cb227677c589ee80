package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/intel-sieve/internal/aggregate"
	"github.com/Veraticus/intel-sieve/internal/model"
)

const (
	communityKeywordLimit = 20
	communityKeywordShown = 10
	hashtagLimit          = 10
	personaUsersShown     = 5
)

// CommunitySummary holds the headline counts of a daily report.
type CommunitySummary struct {
	NewToday      int `json:"new_messages_today"`
	TotalWeek     int `json:"total_messages_week"`
	ActiveSources int `json:"active_sources"`
	ActiveUsers   int `json:"active_users"`
}

// Activity breaks down today's messages.
type Activity struct {
	ByHour   map[string]int `json:"by_hour"`
	BySource map[string]int `json:"by_source"`
	ByType   map[string]int `json:"by_type"`
}

// ContentAnalysis ranks what people talked about.
type ContentAnalysis struct {
	TopKeywords      []aggregate.Count `json:"top_keywords"`
	TrendingHashtags []aggregate.Count `json:"trending_hashtags"`
	HotTopics        []aggregate.Topic `json:"hot_topics"`
}

// MarketSignals is the trend section of a daily report.
type MarketSignals struct {
	Sentiment     map[string]int `json:"sentiment"`
	SaleActivity  int            `json:"sale_activity"`
	EventMentions int            `json:"event_mentions"`
}

// CommunityReport is the daily community monitoring report.
type CommunityReport struct {
	GeneratedAt time.Time                      `json:"generated_at"`
	Personas    map[aggregate.Persona][]string `json:"user_personas"`
	Activity    Activity                       `json:"activity"`
	Content     ContentAnalysis                `json:"content_analysis"`
	Market      MarketSignals                  `json:"market_trends"`
	Date        string                         `json:"report_date"`
	Period      string                         `json:"period"`
	Summary     CommunitySummary               `json:"summary"`
}

// NewCommunityReport builds the report for the day containing now. today
// holds the messages collected that day, week the last seven days. Personas
// and trends are computed over the week, everything else over today.
func NewCommunityReport(now time.Time, loc *time.Location, today, week []model.ScoredItem, focus []string) CommunityReport {
	if loc == nil {
		loc = time.UTC
	}
	personas := aggregate.Personas(week, focus)
	trends := aggregate.MarketTrends(week, loc)

	return CommunityReport{
		Date:        now.In(loc).Format(model.DateLayout),
		GeneratedAt: now,
		Period:      "daily",
		Summary: CommunitySummary{
			NewToday:      len(today),
			TotalWeek:     len(week),
			ActiveSources: aggregate.Distinct(today, func(s model.ScoredItem) string { return s.Item.Source }),
			ActiveUsers:   aggregate.Distinct(today, func(s model.ScoredItem) string { return s.Item.Author }),
		},
		Activity: Activity{
			ByHour:   aggregate.ByHourOfDay(today, loc),
			BySource: aggregate.BySource(today),
			ByType:   aggregate.ByType(today),
		},
		Content: ContentAnalysis{
			TopKeywords:      aggregate.TopKeywords(week, communityKeywordLimit),
			TrendingHashtags: aggregate.TopHashtags(today, hashtagLimit),
			HotTopics:        aggregate.HotTopics(today),
		},
		Personas: personas.Personas,
		Market: MarketSignals{
			Sentiment:     trends.Sentiment,
			SaleActivity:  trends.SaleActivity,
			EventMentions: trends.EventMentions,
		},
	}
}

// Name implements Document.
func (r CommunityReport) Name() string {
	return "report_" + r.Date
}

// Markdown implements Document.
func (r CommunityReport) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Kigurumi 社区监测日报 - %s\n\n", r.Date)
	fmt.Fprintf(&b, "> 生成时间: %s\n\n", r.GeneratedAt.Format(time.RFC3339))

	b.WriteString("## 📊 数据概览\n\n")
	table(&b, []string{"指标", "数值"}, [][]string{
		{"今日新消息", fmt.Sprint(r.Summary.NewToday)},
		{"本周总消息", fmt.Sprint(r.Summary.TotalWeek)},
		{"活跃来源", fmt.Sprint(r.Summary.ActiveSources)},
		{"活跃用户", fmt.Sprint(r.Summary.ActiveUsers)},
	})

	b.WriteString("\n## 📈 活跃度分析\n\n### 消息类型分布\n")
	for _, c := range aggregate.Top(r.Activity.ByType, 0) {
		fmt.Fprintf(&b, "- %s: %d\n", c.Key, c.Count)
	}
	b.WriteString("\n### 活跃来源\n")
	for _, c := range aggregate.Top(r.Activity.BySource, 0) {
		fmt.Fprintf(&b, "- %s: %d\n", c.Key, c.Count)
	}

	b.WriteString("\n## 🔥 热门内容\n\n### 热门关键词\n")
	keywords := r.Content.TopKeywords
	if len(keywords) > communityKeywordShown {
		keywords = keywords[:communityKeywordShown]
	}
	for _, c := range keywords {
		fmt.Fprintf(&b, "- `%s`: %d 次\n", c.Key, c.Count)
	}
	if len(r.Content.TrendingHashtags) > 0 {
		b.WriteString("\n### 热门标签\n")
		for _, c := range r.Content.TrendingHashtags {
			fmt.Fprintf(&b, "- %s: %d\n", c.Key, c.Count)
		}
	}
	b.WriteString("\n### 热门话题\n")
	for _, t := range r.Content.HotTopics {
		fmt.Fprintf(&b, "- %s\n", t)
	}

	b.WriteString("\n## 👥 用户画像\n")
	for _, p := range aggregate.AllPersonas {
		users := r.Personas[p]
		fmt.Fprintf(&b, "\n### %s (%d 人)\n", p, len(users))
		shown := users
		if len(shown) > personaUsersShown {
			shown = shown[:personaUsersShown]
		}
		for _, u := range shown {
			fmt.Fprintf(&b, "- %s\n", u)
		}
		if len(users) > personaUsersShown {
			fmt.Fprintf(&b, "- ... 等共 %d 人\n", len(users))
		}
	}

	b.WriteString("\n## 💹 市场趋势\n\n")
	fmt.Fprintf(&b, "- 整体情感倾向: %s\n", formatSentiment(r.Market.Sentiment))
	fmt.Fprintf(&b, "- 交易活跃度: %d 条相关讨论\n", r.Market.SaleActivity)
	fmt.Fprintf(&b, "- 活动提及: %d 次\n", r.Market.EventMentions)
	return b.String()
}

func formatSentiment(counts map[string]int) string {
	parts := make([]string, 0, 3)
	for _, s := range []model.Sentiment{model.SentimentPositive, model.SentimentNeutral, model.SentimentNegative} {
		parts = append(parts, fmt.Sprintf("%s %d", s, counts[string(s)]))
	}
	return strings.Join(parts, " / ")
}
