// Package model contains the data types shared by the monitors and the relevance engine.
package model

import (
	"strings"
	"time"
)

// Item kinds produced by the built-in sources.
const (
	KindPaper   = "paper"
	KindFunding = "funding"
	KindMessage = "message"
)

// Item is a single unit of fetched text handed to the relevance engine.
// Timestamp is when the upstream says the item was published and is zero
// when it did not say. CollectedAt is when the item was fetched.
type Item struct {
	Timestamp   time.Time         `json:"timestamp"`
	CollectedAt time.Time         `json:"collected_at"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ID          string            `json:"id,omitempty"`
	Kind        string            `json:"kind"`
	Source      string            `json:"source"`
	SourceType  string            `json:"source_type,omitempty"`
	Author      string            `json:"author,omitempty"`
	Title       string            `json:"title,omitempty"`
	Body        string            `json:"body"`
	URL         string            `json:"url,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
}

// Dated returns the item with a missing Timestamp filled from CollectedAt.
func (i Item) Dated() Item {
	if i.Timestamp.IsZero() {
		i.Timestamp = i.CollectedAt
	}
	return i
}

// Text returns the title and body joined by a single space.
func (i Item) Text() string {
	switch {
	case i.Title == "":
		return i.Body
	case i.Body == "":
		return i.Title
	default:
		return i.Title + " " + i.Body
	}
}

// Meta returns a metadata value or "" when absent.
func (i Item) Meta(key string) string {
	if i.Metadata == nil {
		return ""
	}
	return i.Metadata[key]
}

// HasTag reports whether the item carries tag, ignoring case.
func (i Item) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
