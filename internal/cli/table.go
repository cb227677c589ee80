package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/taxonomy"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const previewRunes = 60

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// RenderRuns prints one row per monitor cycle, newest first as given.
func RenderRuns(w io.Writer, runs []model.Run) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Started", "Monitor", "Fetched", "Relevant", "Admitted", "Dupes", "Mentions", "Took", "Error"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Monitor,
			r.Stats.Fetched,
			r.Stats.Relevant,
			r.Stats.Admitted,
			r.Stats.Duplicates,
			r.Stats.Mentions,
			r.Duration().Round(time.Millisecond),
			Preview(r.Error, 40),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	t.Render()
}

// RenderItems prints scored items with a short preview of their text.
func RenderItems(w io.Writer, items []model.ScoredItem) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Score", "Band", "Type", "Sentiment", "Source", "Categories", "Text"})
	for _, s := range items {
		t.AppendRow(table.Row{
			strconv.FormatFloat(s.Result.Score, 'f', -1, 64),
			FormatBand(s.Result.Score),
			s.Result.ContentType,
			FormatSentiment(s.Result.Sentiment),
			s.Item.Source,
			strings.Join(s.Result.MatchedCategories, ", "),
			Preview(s.Item.Text(), previewRunes),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 1, Align: text.AlignRight}})
	t.Render()
}

// RenderCounts prints a two-column table sorted by count, then key.
func RenderCounts(w io.Writer, title, keyHeader string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	t := newTable(w)
	t.SetTitle(title)
	t.AppendHeader(table.Row{keyHeader, "Count"})
	total := 0
	for _, k := range keys {
		t.AppendRow(table.Row{k, counts[k]})
		total += counts[k]
	}
	t.AppendFooter(table.Row{"Total", total})
	t.Render()
}

// RenderTaxonomy prints the categories of cfg with their weights and
// keyword counts.
func RenderTaxonomy(w io.Writer, cfg *taxonomy.Config) {
	t := newTable(w)
	t.SetTitle(fmt.Sprintf("%s (%s, min score %s)", cfg.Name, cfg.Scoring.Mode,
		strconv.FormatFloat(cfg.MinScore, 'f', -1, 64)))
	t.AppendHeader(table.Row{"Category", "Label", "Weight", "Keywords", "Examples"})
	for _, name := range cfg.CategoryNames() {
		cat := cfg.Categories[name]
		examples := cat.Keywords
		if len(examples) > 3 {
			examples = examples[:3]
		}
		t.AppendRow(table.Row{
			name,
			cfg.Label(name),
			strconv.FormatFloat(cat.Weight, 'f', -1, 64),
			len(cat.Keywords),
			strings.Join(examples, ", "),
		})
	}
	t.AppendFooter(table.Row{"", "Max", strconv.FormatFloat(cfg.MaxScore(), 'f', -1, 64), "", ""})
	t.Render()
}

// Preview collapses whitespace and cuts s to n runes.
func Preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
