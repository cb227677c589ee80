package aggregate

import (
	"sort"

	"github.com/Veraticus/intel-sieve/internal/model"
)

const brandContextLimit = 100

// BrandStats summarises the mentions of one competitor brand.
type BrandStats struct {
	Sentiments map[model.Sentiment]int `json:"sentiments"`
	Brand      string                  `json:"brand"`
	Group      string                  `json:"group"`
	Contexts   []string                `json:"contexts"`
	Mentions   int                     `json:"mentions"`
}

// Leaning returns the prevailing sentiment across mentions.
func (b BrandStats) Leaning() model.Sentiment {
	pos := b.Sentiments[model.SentimentPositive]
	neg := b.Sentiments[model.SentimentNegative]
	switch {
	case pos > neg:
		return model.SentimentPositive
	case neg > pos:
		return model.SentimentNegative
	default:
		return model.SentimentNeutral
	}
}

// BrandMentions groups mentions per brand, most mentioned first. Contexts are
// kept in input order and cut to 100 runes.
func BrandMentions(mentions []model.CompetitorMention) []BrandStats {
	byBrand := make(map[string]*BrandStats)
	for _, m := range mentions {
		b, ok := byBrand[m.Brand]
		if !ok {
			b = &BrandStats{
				Brand: m.Brand,
				Group: m.Group,
				Sentiments: map[model.Sentiment]int{
					model.SentimentPositive: 0,
					model.SentimentNeutral:  0,
					model.SentimentNegative: 0,
				},
			}
			byBrand[m.Brand] = b
		}
		b.Mentions++
		sentiment := m.Sentiment
		if sentiment == "" {
			sentiment = model.SentimentNeutral
		}
		b.Sentiments[sentiment]++
		b.Contexts = append(b.Contexts, truncateRunes(m.Context, brandContextLimit))
	}

	stats := make([]BrandStats, 0, len(byBrand))
	for _, b := range byBrand {
		stats = append(stats, *b)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Mentions != stats[j].Mentions {
			return stats[i].Mentions > stats[j].Mentions
		}
		return stats[i].Brand < stats[j].Brand
	})
	return stats
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
