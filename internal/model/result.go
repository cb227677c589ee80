package model

// Sentiment is the coarse polarity assigned to an item.
type Sentiment string

// Sentiment values.
const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Content types used by the default type rules.
const (
	TypeSale       = "sale"
	TypeEvent      = "event"
	TypeReview     = "review"
	TypeTechnical  = "technical"
	TypeDiscussion = "discussion"
)

// Result is the immutable outcome of evaluating one item.
type Result struct {
	ContentType       string    `json:"content_type"`
	Sentiment         Sentiment `json:"sentiment"`
	DedupKey          string    `json:"dedup_key"`
	MatchedCategories []string  `json:"matched_categories"`
	MatchedKeywords   []string  `json:"matched_keywords"`
	Hashtags          []string  `json:"hashtags,omitempty"`
	URLs              []string  `json:"urls,omitempty"`
	Score             float64   `json:"score"`
}

// HasCategory reports whether category is among the matched categories.
func (r Result) HasCategory(category string) bool {
	for _, c := range r.MatchedCategories {
		if c == category {
			return true
		}
	}
	return false
}

// ScoredItem pairs an item with its evaluation.
type ScoredItem struct {
	Item   Item   `json:"item"`
	Result Result `json:"result"`
}
