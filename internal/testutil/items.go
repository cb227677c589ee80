package testutil

import (
	"fmt"
	"time"

	"github.com/Veraticus/intel-sieve/internal/dedup"
	"github.com/Veraticus/intel-sieve/internal/model"
)

// ItemBuilder assembles a scored item for tests.
//
// Example:
//
//	item := testutil.NewItem("hello").
//		WithSource("tg").
//		WithCategories("ai").
//		WithScore(10).
//		Build()
type ItemBuilder struct {
	s model.ScoredItem
}

// BaseTime is the timestamp used by builders unless overridden.
var BaseTime = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

// NewItem starts a neutral discussion message with the given body.
func NewItem(body string) *ItemBuilder {
	return &ItemBuilder{s: model.ScoredItem{
		Item: model.Item{
			Kind:      model.KindMessage,
			Source:    "test",
			Body:      body,
			Timestamp: BaseTime,
		},
		Result: model.Result{
			ContentType: model.TypeDiscussion,
			Sentiment:   model.SentimentNeutral,
		},
	}}
}

// WithSource sets the source.
func (b *ItemBuilder) WithSource(source string) *ItemBuilder {
	b.s.Item.Source = source
	return b
}

// WithAuthor sets the author.
func (b *ItemBuilder) WithAuthor(author string) *ItemBuilder {
	b.s.Item.Author = author
	return b
}

// WithKind sets the item kind.
func (b *ItemBuilder) WithKind(kind string) *ItemBuilder {
	b.s.Item.Kind = kind
	return b
}

// At sets the timestamp.
func (b *ItemBuilder) At(ts time.Time) *ItemBuilder {
	b.s.Item.Timestamp = ts
	return b
}

// WithTags sets the tags.
func (b *ItemBuilder) WithTags(tags ...string) *ItemBuilder {
	b.s.Item.Tags = tags
	return b
}

// WithMeta sets a metadata value.
func (b *ItemBuilder) WithMeta(key, value string) *ItemBuilder {
	if b.s.Item.Metadata == nil {
		b.s.Item.Metadata = make(map[string]string)
	}
	b.s.Item.Metadata[key] = value
	return b
}

// WithScore sets the score.
func (b *ItemBuilder) WithScore(score float64) *ItemBuilder {
	b.s.Result.Score = score
	return b
}

// WithCategories sets the matched categories.
func (b *ItemBuilder) WithCategories(categories ...string) *ItemBuilder {
	b.s.Result.MatchedCategories = categories
	return b
}

// WithKeywords sets the matched keywords.
func (b *ItemBuilder) WithKeywords(keywords ...string) *ItemBuilder {
	b.s.Result.MatchedKeywords = keywords
	return b
}

// WithHashtags sets the extracted hashtags.
func (b *ItemBuilder) WithHashtags(tags ...string) *ItemBuilder {
	b.s.Result.Hashtags = tags
	return b
}

// WithType sets the content type.
func (b *ItemBuilder) WithType(contentType string) *ItemBuilder {
	b.s.Result.ContentType = contentType
	return b
}

// WithSentiment sets the sentiment.
func (b *ItemBuilder) WithSentiment(sentiment model.Sentiment) *ItemBuilder {
	b.s.Result.Sentiment = sentiment
	return b
}

// Build returns the item, deriving a dedup key when none was set.
func (b *ItemBuilder) Build() model.ScoredItem {
	s := b.s
	if s.Result.DedupKey == "" {
		s.Result.DedupKey = dedup.Hash(s.Item.Source, s.Item.Body, s.Item.Timestamp.String())
	}
	return s
}

// Items builds n distinct messages spaced one hour apart.
func Items(n int) []model.ScoredItem {
	items := make([]model.ScoredItem, n)
	for i := range items {
		items[i] = NewItem(fmt.Sprintf("message %d", i)).
			At(BaseTime.Add(time.Duration(i) * time.Hour)).
			Build()
	}
	return items
}
