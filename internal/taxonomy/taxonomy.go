// Package taxonomy holds the configuration that drives the relevance engine:
// weighted keyword categories, content-type rules, sentiment word lists, the
// target-category bonus and the dedup key fields. A Config is loaded and
// validated once and never mutated afterwards.
package taxonomy

import (
	"sort"

	"github.com/Veraticus/intel-sieve/internal/model"
)

// ScoringMode selects how category weights are applied.
type ScoringMode string

// Scoring modes.
const (
	ModeFlat          ScoringMode = "flat"
	ModeTitleWeighted ScoringMode = "title_weighted"
)

// Defaults applied to unset fields.
const (
	DefaultTitleMultiplier = 3.0
	DefaultBodyMultiplier  = 1.0
	DefaultBodyPrefix      = 100
)

// Category is one weighted keyword group. Weight is a whole number; it is
// held as a float so title weighting can scale it.
type Category struct {
	Label    string   `yaml:"label,omitempty" json:"label,omitempty"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	Weight   float64  `yaml:"weight" json:"weight"`
}

// TypeRule assigns Label to any text containing one of Keywords.
type TypeRule struct {
	Label    string   `yaml:"label" json:"label"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// SentimentWords are the polarity word lists.
type SentimentWords struct {
	Positive []string `yaml:"positive" json:"positive"`
	Negative []string `yaml:"negative" json:"negative"`
}

// Bonus multiplies the score of items tagged with an allowlisted value.
type Bonus struct {
	Allowlist  []string `yaml:"allowlist" json:"allowlist"`
	Multiplier float64  `yaml:"multiplier" json:"multiplier"`
}

// Scoring configures the weighting mode.
type Scoring struct {
	Mode            ScoringMode `yaml:"mode" json:"mode"`
	TitleMultiplier float64     `yaml:"title_multiplier" json:"title_multiplier"`
	BodyMultiplier  float64     `yaml:"body_multiplier" json:"body_multiplier"`
}

// Dedup selects the item fields hashed into the dedup key.
type Dedup struct {
	Fields     []string `yaml:"fields" json:"fields"`
	BodyPrefix int      `yaml:"body_prefix" json:"body_prefix"`
}

// Config is the complete engine configuration.
type Config struct {
	Categories   map[string]Category `yaml:"taxonomy" json:"taxonomy"`
	Competitors  map[string][]string `yaml:"competitors,omitempty" json:"competitors,omitempty"`
	Bonus        *Bonus              `yaml:"target_category_bonus,omitempty" json:"target_category_bonus,omitempty"`
	Name         string              `yaml:"name" json:"name"`
	DefaultType  string              `yaml:"default_type" json:"default_type"`
	Sentiment    SentimentWords      `yaml:"sentiment_words" json:"sentiment_words"`
	Scoring      Scoring             `yaml:"scoring" json:"scoring"`
	TypePriority []TypeRule          `yaml:"type_priority" json:"type_priority"`
	Dedup        Dedup               `yaml:"dedup" json:"dedup"`
	MinScore     float64             `yaml:"min_score" json:"min_score"`
}

// ApplyDefaults fills unset optional fields.
func (c *Config) ApplyDefaults() {
	if c.Scoring.Mode == "" {
		c.Scoring.Mode = ModeFlat
	}
	if c.Scoring.TitleMultiplier == 0 {
		c.Scoring.TitleMultiplier = DefaultTitleMultiplier
	}
	if c.Scoring.BodyMultiplier == 0 {
		c.Scoring.BodyMultiplier = DefaultBodyMultiplier
	}
	if c.DefaultType == "" {
		c.DefaultType = model.TypeDiscussion
	}
	if len(c.Dedup.Fields) == 0 {
		c.Dedup.Fields = []string{"source", "title", "body", "timestamp"}
	}
	if c.Dedup.BodyPrefix == 0 {
		c.Dedup.BodyPrefix = DefaultBodyPrefix
	}
}

// CategoryNames returns the category names in sorted order.
func (c *Config) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories))
	for name := range c.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Label returns the display label of a category, falling back to its name.
func (c *Config) Label(category string) string {
	if cat, ok := c.Categories[category]; ok && cat.Label != "" {
		return cat.Label
	}
	return category
}

// MaxScore is the score of an item matching every category in flat mode,
// before any bonus.
func (c *Config) MaxScore() float64 {
	var total float64
	for _, cat := range c.Categories {
		total += cat.Weight
	}
	return total
}
