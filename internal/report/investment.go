package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/intel-sieve/internal/aggregate"
	"github.com/Veraticus/intel-sieve/internal/model"
)

const descriptionLimit = 100

// BriefOptions selects the highlight counters of an investment brief.
type BriefOptions struct {
	// WatchInvestor counts events whose investor list mentions it.
	WatchInvestor string `json:"watch_investor"`
	// FocusKeyword counts events whose description mentions it.
	FocusKeyword string `json:"focus_keyword"`
	// NicheTag counts events carrying a tag containing it.
	NicheTag string `json:"niche_tag"`
}

// DefaultBriefOptions returns the counters used by the daily brief.
func DefaultBriefOptions() BriefOptions {
	return BriefOptions{
		WatchInvestor: "miracleplus",
		FocusKeyword:  "agent",
		NicheTag:      "二次元",
	}
}

// Highlights are the overview counters of a brief.
type Highlights struct {
	Recent30d     int `json:"recent_30d"`
	P0            int `json:"p0"`
	WatchInvestor int `json:"watch_investor"`
	FocusKeyword  int `json:"focus_keyword"`
	NicheTag      int `json:"niche_tag"`
}

// InvestmentBrief is the daily funding report.
type InvestmentBrief struct {
	GeneratedAt time.Time                             `json:"generated_at"`
	Bands       map[aggregate.Band][]model.ScoredItem `json:"bands"`
	Stats       aggregate.FundingStats                `json:"stats"`
	Date        string                                `json:"date"`
	Sources     []string                              `json:"sources"`
	Highlights  Highlights                            `json:"highlights"`
	MaxScore    float64                               `json:"max_score"`
}

// NewInvestmentBrief builds a brief from the last thirty days of events and
// the all-time stats.
func NewInvestmentBrief(now time.Time, recent []model.ScoredItem, stats aggregate.FundingStats, maxScore float64, opts BriefOptions) InvestmentBrief {
	bands := aggregate.ByBand(recent)
	brief := InvestmentBrief{
		Date:        now.Format(model.DateLayout),
		GeneratedAt: now,
		Bands:       bands,
		Stats:       stats,
		MaxScore:    maxScore,
		Sources:     sortedKeys(aggregate.BySource(recent)),
		Highlights: Highlights{
			Recent30d: stats.Recent30d,
			P0:        len(bands[aggregate.BandP0]),
		},
	}
	for _, s := range recent {
		if opts.WatchInvestor != "" && containsFold(s.Item.Meta("investors"), opts.WatchInvestor) {
			brief.Highlights.WatchInvestor++
		}
		if opts.FocusKeyword != "" && containsFold(description(s), opts.FocusKeyword) {
			brief.Highlights.FocusKeyword++
		}
		if opts.NicheTag != "" && hasTagContaining(s.Item.Tags, opts.NicheTag) {
			brief.Highlights.NicheTag++
		}
	}
	return brief
}

// Name implements Document.
func (b InvestmentBrief) Name() string {
	return "investment-" + b.Date
}

// Markdown implements Document.
func (b InvestmentBrief) Markdown() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# 投资动态简报 - %s\n\n", b.Date)
	fmt.Fprintf(&sb, "**报告生成时间**: %s  \n", b.GeneratedAt.Format("2006-01-02 15:04 MST"))
	if len(b.Sources) > 0 {
		fmt.Fprintf(&sb, "**数据来源**: %s  \n", strings.Join(b.Sources, ", "))
	}
	sb.WriteString("**监测范围**: 过去30天投资事件\n\n---\n\n")

	sb.WriteString("## 📊 概览\n\n")
	table(&sb, []string{"指标", "数值"}, [][]string{
		{"新增投资事件", fmt.Sprint(b.Highlights.Recent30d)},
		{fmt.Sprintf("高优先级事件 (≥%s分)", formatScore(aggregate.P0MinScore)), fmt.Sprint(b.Highlights.P0)},
		{"重点机构相关", fmt.Sprint(b.Highlights.WatchInvestor)},
		{"AI Agent 领域", fmt.Sprint(b.Highlights.FocusKeyword)},
		{"二次元相关", fmt.Sprint(b.Highlights.NicheTag)},
	})

	sb.WriteString("\n---\n\n## 🎯 重点事件\n\n")
	b.writeBand(&sb, aggregate.BandP0, "最高优先级", "⭐⭐⭐", true)
	b.writeBand(&sb, aggregate.BandP1, "高优先级", "⭐⭐", false)
	b.writeBand(&sb, aggregate.BandP2, "关注", "⭐", false)

	sb.WriteString("---\n\n## 📈 数据统计\n\n")
	fmt.Fprintf(&sb, "- 总事件数: %d\n", b.Stats.Total)
	fmt.Fprintf(&sb, "- 近7天: %d\n", b.Stats.Recent7d)
	fmt.Fprintf(&sb, "- 近30天: %d\n", b.Stats.Recent30d)
	fmt.Fprintf(&sb, "- 高优先级 (≥%s分): %d\n", formatScore(aggregate.HighPriorityMinScore), b.Stats.HighPriority)
	return sb.String()
}

func (b InvestmentBrief) writeBand(sb *strings.Builder, band aggregate.Band, title, stars string, detailed bool) {
	fmt.Fprintf(sb, "### %s - %s\n\n", band, title)
	events := b.Bands[band]
	if len(events) == 0 {
		fmt.Fprintf(sb, "*暂无 %s 级别事件*\n\n", band)
		return
	}
	for _, e := range events {
		heading := fmt.Sprintf("%s - %s", e.Item.Meta("company"), e.Item.Meta("round"))
		if amount := e.Item.Meta("amount"); detailed && amount != "" {
			heading += fmt.Sprintf(" (%s)", amount)
		}
		fmt.Fprintf(sb, "#### %s\n", heading)
		fmt.Fprintf(sb, "- **匹配分**: %s/%s %s\n", formatScore(e.Result.Score), formatScore(b.MaxScore), stars)
		fmt.Fprintf(sb, "- **投资方**: %s\n", e.Item.Meta("investors"))
		fmt.Fprintf(sb, "- **日期**: %s\n", e.Item.Meta("date"))
		if detailed {
			fmt.Fprintf(sb, "- **简介**: %s\n", clip(description(e), descriptionLimit, "..."))
		}
		sb.WriteString("\n")
	}
}

// description is the event text without the tags appended for matching.
func description(s model.ScoredItem) string {
	body := s.Item.Body
	if len(s.Item.Tags) > 0 {
		body = strings.TrimSpace(strings.TrimSuffix(body, strings.Join(s.Item.Tags, " ")))
	}
	return body
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func hasTagContaining(tags []string, sub string) bool {
	for _, t := range tags {
		if containsFold(t, sub) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for _, c := range aggregate.Top(m, 0) {
		keys = append(keys, c.Key)
	}
	return keys
}
