package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/intel-sieve/internal/aggregate"
	"github.com/Veraticus/intel-sieve/internal/model"
)

const (
	abstractLimit       = 300
	paperAuthorLimit    = 3
	paperCategoryLimit  = 5
	arxivDocumentPrefix = "arxiv-"
)

// ArxivDigest is the daily list of relevant papers, highest score first.
type ArxivDigest struct {
	Date       time.Time          `json:"date"`
	Categories []string           `json:"categories"`
	Papers     []model.ScoredItem `json:"papers"`
	Fetched    int                `json:"total_fetched"`
}

// Name implements Document.
func (d ArxivDigest) Name() string {
	return arxivDocumentPrefix + d.Date.Format(model.DateLayout)
}

// Markdown implements Document.
func (d ArxivDigest) Markdown() string {
	var b strings.Builder

	b.WriteString("# Daily arXiv Intelligence Report\n\n")
	fmt.Fprintf(&b, "**Date:** %s\n", d.Date.Format(model.DateLayout))
	fmt.Fprintf(&b, "**Categories:** %s\n", strings.Join(d.Categories, ", "))
	fmt.Fprintf(&b, "**Total Papers Fetched:** %d\n", d.Fetched)
	fmt.Fprintf(&b, "**Relevant Papers Found:** %d\n\n---\n\n", len(d.Papers))

	b.WriteString("## 📊 Summary\n\n")
	fmt.Fprintf(&b, "This report covers %d relevant papers:\n\n", len(d.Papers))
	for _, c := range aggregate.Top(aggregate.ByCategory(d.Papers), 0) {
		fmt.Fprintf(&b, "- **%s:** %d papers\n", c.Key, c.Count)
	}
	b.WriteString("\n---\n\n## 📄 Papers\n\n")

	for i, p := range d.Papers {
		writePaper(&b, i+1, p)
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
	b.WriteString("*Thank you to arXiv for use of its open access interoperability.*\n")
	return b.String()
}

func writePaper(b *strings.Builder, index int, p model.ScoredItem) {
	title := p.Item.Title
	if title == "" {
		title = "Untitled"
	}
	link := p.Item.URL
	if link == "" {
		link = p.Item.ID
	}
	fmt.Fprintf(b, "### %d. [%s](%s)\n\n", index, title, link)

	authors := "Unknown"
	if a := p.Item.Meta("authors"); a != "" {
		names := strings.Split(a, ", ")
		paper := model.Paper{Authors: names}
		authors = paper.AuthorLine(paperAuthorLimit)
	}
	fmt.Fprintf(b, "**Authors:** %s\n", authors)

	if len(p.Item.Tags) > 0 {
		cats := p.Item.Tags
		if len(cats) > paperCategoryLimit {
			cats = cats[:paperCategoryLimit]
		}
		fmt.Fprintf(b, "**Categories:** %s\n", strings.Join(cats, ", "))
	}
	if !p.Item.Timestamp.IsZero() {
		fmt.Fprintf(b, "**Published:** %s\n", p.Item.Timestamp.Format(model.DateLayout))
	}
	if len(p.Result.MatchedCategories) > 0 {
		fmt.Fprintf(b, "**Relevance Score:** %s | **Areas:** %s\n",
			formatScore(p.Result.Score), strings.Join(p.Result.MatchedCategories, ", "))
	}
	if pdf := p.Item.Meta("pdf_url"); pdf != "" {
		fmt.Fprintf(b, "**PDF:** [Download](%s)\n", pdf)
	}
	b.WriteString("\n")

	if p.Item.Body != "" {
		fmt.Fprintf(b, "**Abstract:** %s\n", truncate(p.Item.Body, abstractLimit, "..."))
	}
}
