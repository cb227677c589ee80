package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/intel-sieve/internal/aggregate"
	"github.com/Veraticus/intel-sieve/internal/model"
)

const (
	alertBrandsShown   = 3
	alertContextsShown = 2
)

// CompetitorAlert summarises recent competitor mentions.
type CompetitorAlert struct {
	GeneratedAt time.Time              `json:"analysis_date"`
	Brands      []aggregate.BrandStats `json:"brand_analysis"`
	Total       int                    `json:"total_mentions"`
}

// NewCompetitorAlert groups mentions per brand.
func NewCompetitorAlert(now time.Time, mentions []model.CompetitorMention) CompetitorAlert {
	return CompetitorAlert{
		GeneratedAt: now,
		Brands:      aggregate.BrandMentions(mentions),
		Total:       len(mentions),
	}
}

// Name implements Document.
func (a CompetitorAlert) Name() string {
	return "competitors-" + a.GeneratedAt.Format(model.DateLayout)
}

// Markdown implements Document.
func (a CompetitorAlert) Markdown() string {
	var b strings.Builder

	b.WriteString("# 竞品动态预警报告\n\n")
	fmt.Fprintf(&b, "生成时间: %s\n\n", a.GeneratedAt.Format("2006-01-02 15:04"))

	b.WriteString("## 📊 品牌提及统计\n\n")
	rows := make([][]string, 0, len(a.Brands))
	for _, s := range a.Brands {
		rows = append(rows, []string{s.Brand, fmt.Sprint(s.Mentions), sentimentIcon(s.Leaning())})
	}
	table(&b, []string{"品牌", "提及次数", "情感倾向"}, rows)

	b.WriteString("\n## 🔍 最新提及\n\n")
	brands := a.Brands
	if len(brands) > alertBrandsShown {
		brands = brands[:alertBrandsShown]
	}
	for _, s := range brands {
		if len(s.Contexts) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s\n", s.Brand)
		contexts := s.Contexts
		if len(contexts) > alertContextsShown {
			contexts = contexts[:alertContextsShown]
		}
		for _, c := range contexts {
			fmt.Fprintf(&b, "- %s...\n", c)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func sentimentIcon(s model.Sentiment) string {
	switch s {
	case model.SentimentPositive:
		return "👍"
	case model.SentimentNegative:
		return "👎"
	default:
		return "😐"
	}
}
