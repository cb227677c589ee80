// Package relevance scores and classifies text items against a keyword
// taxonomy. An Engine is built once from a validated configuration and is
// safe for concurrent use.
package relevance

import (
	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/Veraticus/intel-sieve/internal/dedup"
	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/taxonomy"
)

// Engine bundles the scorer, the classifiers and the dedup keyer configured
// from one taxonomy.
type Engine struct {
	cfg         *taxonomy.Config
	scorer      *Scorer
	types       *TypeClassifier
	sentiment   *SentimentClassifier
	competitors *CompetitorDetector
	keyer       *dedup.Keyer
}

// New validates cfg and builds an engine from it.
func New(cfg *taxonomy.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	keyer, err := dedup.NewKeyer(cfg.Dedup.Fields, cfg.Dedup.BodyPrefix)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:         cfg,
		scorer:      NewScorer(cfg),
		types:       NewTypeClassifier(cfg.TypePriority, cfg.DefaultType),
		sentiment:   NewSentimentClassifier(cfg.Sentiment),
		competitors: NewCompetitorDetector(cfg.Competitors),
		keyer:       keyer,
	}, nil
}

// Config returns the configuration the engine was built from.
func (e *Engine) Config() *taxonomy.Config {
	return e.cfg
}

// Evaluate scores and classifies a single item. It never fails.
func (e *Engine) Evaluate(item model.Item) model.Result {
	text := item.Text()
	match := e.scorer.Score(item)
	hashtags := common.ExtractHashtags(text)

	return model.Result{
		Score:             match.Score,
		MatchedCategories: match.Categories,
		MatchedKeywords:   match.Keywords,
		ContentType:       e.types.Classify(text),
		Sentiment:         e.sentiment.Classify(text),
		Hashtags:          hashtags,
		URLs:              common.ExtractURLs(text),
		DedupKey:          e.keyer.Key(item),
	}
}

// Score evaluates item and pairs it with the result. The dedup key is taken
// before an undated item is given its collection time, so refetching the same
// undated item yields the same key.
func (e *Engine) Score(item model.Item) model.ScoredItem {
	return model.ScoredItem{Item: item.Dated(), Result: e.Evaluate(item)}
}

// Relevant reports whether a result passes the configured minimum score.
// With no minimum, any matched category counts.
func (e *Engine) Relevant(r model.Result) bool {
	if e.cfg.MinScore > 0 {
		return r.Score >= e.cfg.MinScore
	}
	return len(r.MatchedCategories) > 0
}

// Competitors returns the brand mentions found in an item, each carrying the
// item's sentiment and dedup key.
func (e *Engine) Competitors(s model.ScoredItem) []model.CompetitorMention {
	mentions := e.competitors.Detect(s.Item.Text())
	for i := range mentions {
		mentions[i].Source = s.Item.Source
		mentions[i].Timestamp = s.Item.Timestamp
		mentions[i].Sentiment = s.Result.Sentiment
		mentions[i].ItemKey = s.Result.DedupKey
	}
	return mentions
}
