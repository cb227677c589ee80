// Package aggregate reduces scored items into the counts and rankings used by
// reports. Every function is pure and returns deterministically ordered
// results: count descending, then key ascending.
package aggregate

import (
	"sort"

	"github.com/Veraticus/intel-sieve/internal/model"
)

// Count is one ranked entry.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Top ranks counts and keeps the first n. A non-positive n keeps everything.
func Top(counts map[string]int, n int) []Count {
	ranked := make([]Count, 0, len(counts))
	for k, c := range counts {
		ranked = append(ranked, Count{Key: k, Count: c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Key < ranked[j].Key
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// CountBy counts items under each key returned by keys.
func CountBy(items []model.ScoredItem, keys func(model.ScoredItem) []string) map[string]int {
	counts := make(map[string]int)
	for _, s := range items {
		for _, k := range keys(s) {
			if k == "" {
				continue
			}
			counts[k]++
		}
	}
	return counts
}

// ByCategory counts items per matched category.
func ByCategory(items []model.ScoredItem) map[string]int {
	return CountBy(items, func(s model.ScoredItem) []string { return s.Result.MatchedCategories })
}

// ByType counts items per content type.
func ByType(items []model.ScoredItem) map[string]int {
	return CountBy(items, func(s model.ScoredItem) []string { return []string{s.Result.ContentType} })
}

// BySentiment counts items per sentiment.
func BySentiment(items []model.ScoredItem) map[string]int {
	return CountBy(items, func(s model.ScoredItem) []string { return []string{string(s.Result.Sentiment)} })
}

// BySource counts items per source.
func BySource(items []model.ScoredItem) map[string]int {
	return CountBy(items, func(s model.ScoredItem) []string { return []string{s.Item.Source} })
}

// ByTag counts items per tag.
func ByTag(items []model.ScoredItem) map[string]int {
	return CountBy(items, func(s model.ScoredItem) []string { return s.Item.Tags })
}

// TopKeywords ranks matched keywords by the number of items they occur in.
func TopKeywords(items []model.ScoredItem, n int) []Count {
	return Top(CountBy(items, func(s model.ScoredItem) []string { return s.Result.MatchedKeywords }), n)
}

// TopSources ranks sources by item count.
func TopSources(items []model.ScoredItem, n int) []Count {
	return Top(BySource(items), n)
}

// TopHashtags ranks hashtags by how often they were used.
func TopHashtags(items []model.ScoredItem, n int) []Count {
	return Top(CountBy(items, func(s model.ScoredItem) []string { return s.Result.Hashtags }), n)
}

// Distinct counts the distinct non-empty values returned by key.
func Distinct(items []model.ScoredItem, key func(model.ScoredItem) string) int {
	seen := make(map[string]bool)
	for _, s := range items {
		if k := key(s); k != "" {
			seen[k] = true
		}
	}
	return len(seen)
}
