package aggregate

import (
	"fmt"
	"time"

	"github.com/Veraticus/intel-sieve/internal/model"
)

// DailyActivity is one day of community activity.
type DailyActivity struct {
	Keywords  map[string]int `json:"keywords"`
	Types     map[string]int `json:"types"`
	Sentiment map[string]int `json:"sentiment"`
	Date      string         `json:"date"`
	Count     int            `json:"count"`
}

// Trends summarises a window of items.
type Trends struct {
	Types         map[string]int  `json:"types"`
	Sentiment     map[string]int  `json:"sentiment"`
	Daily         []DailyActivity `json:"daily"`
	TopKeywords   []Count         `json:"top_keywords"`
	SaleActivity  int             `json:"sale_activity"`
	EventMentions int             `json:"event_mentions"`
}

const trendKeywordLimit = 20

// MarketTrends computes daily activity, keyword ranking and the type and
// sentiment distributions over items.
func MarketTrends(items []model.ScoredItem, loc *time.Location) Trends {
	days := make(map[string][]model.ScoredItem)
	for _, s := range items {
		key := BucketDay.Key(s.Item.Timestamp, loc)
		days[key] = append(days[key], s)
	}

	t := Trends{
		Types:       ByType(items),
		Sentiment:   BySentiment(items),
		TopKeywords: TopKeywords(items, trendKeywordLimit),
	}
	for _, c := range ByBucket(items, BucketDay, loc) {
		day := days[c.Key]
		t.Daily = append(t.Daily, DailyActivity{
			Date:      c.Key,
			Count:     c.Count,
			Keywords:  CountBy(day, func(s model.ScoredItem) []string { return s.Result.MatchedKeywords }),
			Types:     ByType(day),
			Sentiment: BySentiment(day),
		})
	}
	t.SaleActivity = t.Types[model.TypeSale]
	t.EventMentions = t.Types[model.TypeEvent]
	return t
}

// Topic is a content type active enough to call out.
type Topic struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

func (t Topic) String() string {
	return fmt.Sprintf("%s (%d 条)", t.Label, t.Count)
}

var hotTopicRules = []struct {
	contentType string
	label       string
	minCount    int
}{
	{model.TypeSale, "交易讨论", 2},
	{model.TypeEvent, "活动信息", 1},
	{model.TypeReview, "评测分享", 1},
}

// HotTopics reports sale threads (two or more), events and reviews (one or
// more each).
func HotTopics(items []model.ScoredItem) []Topic {
	types := ByType(items)
	var topics []Topic
	for _, r := range hotTopicRules {
		if n := types[r.contentType]; n >= r.minCount {
			topics = append(topics, Topic{Type: r.contentType, Label: r.label, Count: n})
		}
	}
	return topics
}
