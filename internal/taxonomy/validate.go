package taxonomy

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/intel-sieve/internal/dedup"
)

// ErrInvalidTaxonomy is returned for any configuration that cannot drive the engine.
var ErrInvalidTaxonomy = errors.New("invalid taxonomy")

// ValidDedupField reports whether name can be used as a dedup key field.
func ValidDedupField(name string) bool {
	return dedup.ValidField(name)
}

// Validate checks the configuration and reports every problem it finds.
// Defaults must already have been applied.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if len(c.Categories) == 0 {
		add("no categories defined")
	}
	for _, name := range c.CategoryNames() {
		cat := c.Categories[name]
		if strings.TrimSpace(name) == "" {
			add("category with empty name")
		}
		if cat.Weight < 0 {
			add("category %q: negative weight %v", name, cat.Weight)
		}
		if cat.Weight != math.Trunc(cat.Weight) {
			add("category %q: weight %v is not a whole number", name, cat.Weight)
		}
		if len(cat.Keywords) == 0 {
			add("category %q: empty keyword list", name)
		}
		for i, kw := range cat.Keywords {
			if strings.TrimSpace(kw) == "" {
				add("category %q: keyword %d is blank", name, i)
			}
		}
	}

	switch c.Scoring.Mode {
	case ModeFlat, ModeTitleWeighted:
	default:
		add("unknown scoring mode %q", c.Scoring.Mode)
	}
	if c.Scoring.TitleMultiplier < 0 || c.Scoring.BodyMultiplier < 0 {
		add("scoring multipliers must not be negative")
	}

	seen := make(map[string]bool, len(c.TypePriority))
	for i, rule := range c.TypePriority {
		label := strings.TrimSpace(rule.Label)
		if label == "" {
			add("type rule %d: empty label", i)
			continue
		}
		if seen[label] {
			add("type rule %d: duplicate label %q", i, label)
		}
		seen[label] = true
		if len(rule.Keywords) == 0 {
			add("type rule %q: empty keyword list", label)
		}
		for j, kw := range rule.Keywords {
			if strings.TrimSpace(kw) == "" {
				add("type rule %q: keyword %d is blank", label, j)
			}
		}
	}
	if strings.TrimSpace(c.DefaultType) == "" {
		add("default type must not be empty")
	}

	for _, w := range append(append([]string{}, c.Sentiment.Positive...), c.Sentiment.Negative...) {
		if strings.TrimSpace(w) == "" {
			add("sentiment word list contains a blank entry")
			break
		}
	}

	if c.Bonus != nil {
		if c.Bonus.Multiplier <= 0 {
			add("target category bonus multiplier must be positive, got %v", c.Bonus.Multiplier)
		}
		if len(c.Bonus.Allowlist) == 0 {
			add("target category bonus has an empty allowlist")
		}
	}

	if len(c.Dedup.Fields) == 0 {
		add("dedup key needs at least one field")
	}
	for _, f := range c.Dedup.Fields {
		if !ValidDedupField(f) {
			add("unknown dedup field %q", f)
		}
	}
	if c.Dedup.BodyPrefix < 0 {
		add("dedup body prefix must not be negative")
	}

	for group, brands := range c.Competitors {
		if len(brands) == 0 {
			add("competitor group %q is empty", group)
		}
		for _, b := range brands {
			if strings.TrimSpace(b) == "" {
				add("competitor group %q contains a blank brand", group)
				break
			}
		}
	}

	if c.MinScore < 0 {
		add("min_score must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTaxonomy, errors.Join(errs...))
	}
	return nil
}
