package relevance

import (
	"sort"

	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/taxonomy"
)

// Match is the raw outcome of scoring one item.
type Match struct {
	Categories []string
	Keywords   []string
	Score      float64
}

// Scorer sums category weights for the categories whose keywords occur in an
// item. Each category contributes at most once, however many of its keywords
// match and however often.
type Scorer struct {
	index      *keywordIndex
	byKeyword  map[string][]string
	weights    map[string]float64
	allowlist  map[string]bool
	mode       taxonomy.ScoringMode
	titleMul   float64
	bodyMul    float64
	multiplier float64
}

// NewScorer builds a scorer for a validated configuration.
func NewScorer(cfg *taxonomy.Config) *Scorer {
	s := &Scorer{
		byKeyword: make(map[string][]string),
		weights:   make(map[string]float64, len(cfg.Categories)),
		allowlist: make(map[string]bool),
		mode:      cfg.Scoring.Mode,
		titleMul:  cfg.Scoring.TitleMultiplier,
		bodyMul:   cfg.Scoring.BodyMultiplier,
	}

	var words []string
	for _, name := range cfg.CategoryNames() {
		cat := cfg.Categories[name]
		s.weights[name] = cat.Weight
		for _, kw := range cat.Keywords {
			k := fold(kw)
			if !contains(s.byKeyword[k], name) {
				s.byKeyword[k] = append(s.byKeyword[k], name)
			}
			words = append(words, kw)
		}
	}
	s.index = newKeywordIndex(words)

	if cfg.Bonus != nil {
		s.multiplier = cfg.Bonus.Multiplier
		for _, tag := range cfg.Bonus.Allowlist {
			s.allowlist[fold(tag)] = true
		}
	}
	return s
}

// Score evaluates an item.
func (s *Scorer) Score(item model.Item) Match {
	// per-category multiplier of the best place it matched
	factors := make(map[string]float64)
	keywords := make(map[string]bool)

	apply := func(text string, factor float64) {
		for kw := range s.index.find(text) {
			keywords[kw] = true
			for _, cat := range s.byKeyword[kw] {
				if factor > factors[cat] {
					factors[cat] = factor
				}
			}
		}
	}

	if s.mode == taxonomy.ModeTitleWeighted {
		apply(item.Title, s.titleMul)
		apply(item.Body, s.bodyMul)
	} else {
		apply(item.Text(), 1)
	}

	m := Match{
		Categories: make([]string, 0, len(factors)),
		Keywords:   make([]string, 0, len(keywords)),
	}
	for cat, factor := range factors {
		m.Categories = append(m.Categories, cat)
		m.Score += s.weights[cat] * factor
	}
	for kw := range keywords {
		m.Keywords = append(m.Keywords, kw)
	}
	sort.Strings(m.Categories)
	sort.Strings(m.Keywords)

	if s.multiplier > 0 && m.Score > 0 && s.tagged(item) {
		m.Score *= s.multiplier
	}
	return m
}

func (s *Scorer) tagged(item model.Item) bool {
	for _, tag := range item.Tags {
		if s.allowlist[fold(tag)] {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
