package relevance

import (
	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/taxonomy"
)

type typeRule struct {
	index *keywordIndex
	label string
}

// TypeClassifier assigns the label of the first rule, in priority order,
// with a keyword present in the text.
type TypeClassifier struct {
	defaultType string
	rules       []typeRule
}

// NewTypeClassifier builds a classifier from an ordered rule list.
func NewTypeClassifier(rules []taxonomy.TypeRule, defaultType string) *TypeClassifier {
	c := &TypeClassifier{defaultType: defaultType}
	for _, r := range rules {
		c.rules = append(c.rules, typeRule{label: r.Label, index: newKeywordIndex(r.Keywords)})
	}
	return c
}

// Classify returns the content type of text.
func (c *TypeClassifier) Classify(text string) string {
	for _, r := range c.rules {
		if r.index.any(text) {
			return r.label
		}
	}
	return c.defaultType
}

// SentimentClassifier compares how many positive and negative words occur in
// a text. Each listed word counts once no matter how often it appears.
type SentimentClassifier struct {
	positive *keywordIndex
	negative *keywordIndex
}

// NewSentimentClassifier builds a classifier from polarity word lists.
func NewSentimentClassifier(words taxonomy.SentimentWords) *SentimentClassifier {
	return &SentimentClassifier{
		positive: newKeywordIndex(words.Positive),
		negative: newKeywordIndex(words.Negative),
	}
}

// Classify returns the majority polarity, or neutral on a tie.
func (c *SentimentClassifier) Classify(text string) model.Sentiment {
	pos := c.positive.count(text)
	neg := c.negative.count(text)
	switch {
	case pos > neg:
		return model.SentimentPositive
	case neg > pos:
		return model.SentimentNegative
	default:
		return model.SentimentNeutral
	}
}
