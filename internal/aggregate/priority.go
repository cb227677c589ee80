package aggregate

import (
	"sort"
	"time"

	"github.com/Veraticus/intel-sieve/internal/model"
)

// Band is a priority tier derived from a score.
type Band string

// Priority bands.
const (
	BandP0   Band = "P0"
	BandP1   Band = "P1"
	BandP2   Band = "P2"
	BandNone Band = ""
)

// Band thresholds.
const (
	P0MinScore           = 20.0
	P1MinScore           = 15.0
	P2MinScore           = 10.0
	HighPriorityMinScore = 10.0
)

// PriorityBand maps a score to its band.
func PriorityBand(score float64) Band {
	switch {
	case score >= P0MinScore:
		return BandP0
	case score >= P1MinScore:
		return BandP1
	case score >= P2MinScore:
		return BandP2
	default:
		return BandNone
	}
}

// ByBand groups items by priority band, highest score first within a band.
// Items below every band are dropped.
func ByBand(items []model.ScoredItem) map[Band][]model.ScoredItem {
	bands := make(map[Band][]model.ScoredItem)
	for _, s := range SortByScore(items) {
		if b := PriorityBand(s.Result.Score); b != BandNone {
			bands[b] = append(bands[b], s)
		}
	}
	return bands
}

// SortByScore returns a copy of items ordered by score descending, newest
// first on ties.
func SortByScore(items []model.ScoredItem) []model.ScoredItem {
	out := append([]model.ScoredItem(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Result.Score != out[j].Result.Score {
			return out[i].Result.Score > out[j].Result.Score
		}
		return out[i].Item.Timestamp.After(out[j].Item.Timestamp)
	})
	return out
}

// FundingStats summarises stored funding events.
type FundingStats struct {
	BySource     map[string]int `json:"by_source"`
	ByTag        map[string]int `json:"by_tag"`
	Total        int            `json:"total"`
	Recent7d     int            `json:"recent_7d"`
	Recent30d    int            `json:"recent_30d"`
	HighPriority int            `json:"high_priority"`
}

// FundingSummary computes totals, recent counts relative to now and the
// number of items scoring at least HighPriorityMinScore.
func FundingSummary(items []model.ScoredItem, now time.Time) FundingStats {
	stats := FundingStats{
		Total:    len(items),
		BySource: BySource(items),
		ByTag:    ByTag(items),
	}
	week := now.AddDate(0, 0, -7)
	month := now.AddDate(0, 0, -30)
	for _, s := range items {
		ts := s.Item.Timestamp
		if !ts.Before(week) {
			stats.Recent7d++
		}
		if !ts.Before(month) {
			stats.Recent30d++
		}
		if s.Result.Score >= HighPriorityMinScore {
			stats.HighPriority++
		}
	}
	return stats
}
