package model

import (
	"strings"
	"time"
)

// Paper is one arXiv entry.
type Paper struct {
	Published       time.Time `json:"published"`
	Updated         time.Time `json:"updated"`
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Summary         string    `json:"summary"`
	PrimaryCategory string    `json:"primary_category"`
	AbstractURL     string    `json:"abstract_url"`
	PDFURL          string    `json:"pdf_url,omitempty"`
	Comment         string    `json:"comment,omitempty"`
	JournalRef      string    `json:"journal_ref,omitempty"`
	DOI             string    `json:"doi,omitempty"`
	Authors         []string  `json:"authors"`
	Categories      []string  `json:"categories"`
}

// Item converts the paper into an engine input. Categories become tags so the
// target-category bonus can see them.
func (p Paper) Item() Item {
	meta := map[string]string{
		"primary_category": p.PrimaryCategory,
	}
	if p.PDFURL != "" {
		meta["pdf_url"] = p.PDFURL
	}
	if p.DOI != "" {
		meta["doi"] = p.DOI
	}
	if p.Comment != "" {
		meta["comment"] = p.Comment
	}
	if p.JournalRef != "" {
		meta["journal_ref"] = p.JournalRef
	}
	if len(p.Authors) > 0 {
		meta["authors"] = strings.Join(p.Authors, ", ")
	}

	author := ""
	if len(p.Authors) > 0 {
		author = p.Authors[0]
	}

	return Item{
		ID:         p.ID,
		Kind:       KindPaper,
		Source:     "arxiv",
		SourceType: "api",
		Author:     author,
		Title:      p.Title,
		Body:       p.Summary,
		URL:        p.AbstractURL,
		Tags:       append([]string(nil), p.Categories...),
		Metadata:   meta,
		Timestamp:  p.Published,
	}
}

// AuthorLine renders up to limit authors, appending "et al." when truncated.
func (p Paper) AuthorLine(limit int) string {
	if limit <= 0 || len(p.Authors) <= limit {
		return strings.Join(p.Authors, ", ")
	}
	return strings.Join(p.Authors[:limit], ", ") + " et al."
}
