package model

import "time"

// CompetitorMention records a brand name found in an item together with the
// surrounding text.
type CompetitorMention struct {
	Timestamp time.Time `json:"timestamp"`
	ItemKey   string    `json:"item_key"`
	Brand     string    `json:"brand"`
	Group     string    `json:"group"`
	Context   string    `json:"context"`
	Source    string    `json:"source"`
	Sentiment Sentiment `json:"sentiment"`
}
