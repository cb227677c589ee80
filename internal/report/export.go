package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Veraticus/intel-sieve/internal/model"
)

// ExportRecord is one line of an item export.
type ExportRecord struct {
	Metadata    map[string]string `json:"metadata,omitempty"`
	Timestamp   string            `json:"timestamp"`
	ID          string            `json:"id,omitempty"`
	Kind        string            `json:"kind"`
	Source      string            `json:"source"`
	Author      string            `json:"author,omitempty"`
	Title       string            `json:"title,omitempty"`
	Content     string            `json:"content"`
	URL         string            `json:"url,omitempty"`
	ContentType string            `json:"content_type"`
	Sentiment   string            `json:"sentiment"`
	Categories  []string          `json:"categories,omitempty"`
	Keywords    []string          `json:"keywords,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Score       float64           `json:"score"`
}

// NewExportRecord flattens a scored item.
func NewExportRecord(s model.ScoredItem) ExportRecord {
	return ExportRecord{
		Metadata:    s.Item.Metadata,
		Timestamp:   s.Item.Timestamp.Format(time.RFC3339),
		ID:          s.Item.ID,
		Kind:        s.Item.Kind,
		Source:      s.Item.Source,
		Author:      s.Item.Author,
		Title:       s.Item.Title,
		Content:     s.Item.Body,
		URL:         s.Item.URL,
		ContentType: s.Result.ContentType,
		Sentiment:   string(s.Result.Sentiment),
		Categories:  s.Result.MatchedCategories,
		Keywords:    s.Result.MatchedKeywords,
		Tags:        s.Item.Tags,
		Score:       s.Result.Score,
	}
}

// WriteJSONL writes one JSON object per item and returns the count written.
func WriteJSONL(w io.Writer, items []model.ScoredItem) (int, error) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i, s := range items {
		if err := enc.Encode(NewExportRecord(s)); err != nil {
			return i, fmt.Errorf("failed to encode item %d: %w", i, err)
		}
	}
	return len(items), nil
}
