package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/intel-sieve/internal/aggregate"
	"github.com/Veraticus/intel-sieve/internal/cli"
	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show recent runs and item breakdowns",
		Long: `Print the latest monitor runs and break the stored items of the last
--days down by category, content type, sentiment, source and day.`,
		Example: `  sieve stats
  sieve stats --monitor community --days 30 --top 5`,
		RunE: runStats,
	}

	cmd.Flags().String("monitor", "", "only this monitor")
	cmd.Flags().Int("days", 7, "look back this many days")
	cmd.Flags().Int("runs", 10, "number of runs to list")
	cmd.Flags().Int("top", 10, "number of keywords and sources to list")

	_ = viper.BindPFlag("stats.monitor", cmd.Flags().Lookup("monitor"))
	_ = viper.BindPFlag("stats.days", cmd.Flags().Lookup("days"))
	_ = viper.BindPFlag("stats.runs", cmd.Flags().Lookup("runs"))
	_ = viper.BindPFlag("stats.top", cmd.Flags().Lookup("top"))

	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	name := viper.GetString("stats.monitor")
	days := viper.GetInt("stats.days")
	top := viper.GetInt("stats.top")
	if days <= 0 {
		return common.NewUserError("--days must be positive", common.ErrInvalidConfig)
	}

	loc, err := location()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	runs, err := store.GetRuns(ctx, name, viper.GetInt("stats.runs"))
	if err != nil {
		return fmt.Errorf("failed to load runs: %w", err)
	}
	items, err := store.GetItems(ctx, service.ItemFilter{
		Monitor: name,
		Since:   time.Now().AddDate(0, 0, -days),
	})
	if err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}

	fmt.Fprintln(out, cli.FormatTitle("Recent runs"))
	if len(runs) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No runs recorded yet."))
	} else {
		cli.RenderRuns(out, runs)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Items in the last %d days: %d", days, len(items))))
	if len(items) == 0 {
		return nil
	}

	cli.RenderCounts(out, "By category", "Category", aggregate.ByCategory(items))
	cli.RenderCounts(out, "By type", "Type", aggregate.ByType(items))
	cli.RenderCounts(out, "By sentiment", "Sentiment", aggregate.BySentiment(items))
	cli.RenderCounts(out, "Top sources", "Source", countsMap(aggregate.TopSources(items, top)))
	cli.RenderCounts(out, "Top keywords", "Keyword", countsMap(aggregate.TopKeywords(items, top)))
	cli.RenderCounts(out, "By day", "Day", countsMap(aggregate.ByBucket(items, aggregate.BucketDay, loc)))

	var relevant []model.ScoredItem
	for _, s := range aggregate.SortByScore(items) {
		if s.Result.Score > 0 {
			relevant = append(relevant, s)
		}
		if len(relevant) == top {
			break
		}
	}
	if len(relevant) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, cli.FormatTitle("Highest scoring"))
		cli.RenderItems(out, relevant)
	}
	return nil
}

func countsMap(counts []aggregate.Count) map[string]int {
	m := make(map[string]int, len(counts))
	for _, c := range counts {
		m[c.Key] = c.Count
	}
	return m
}
