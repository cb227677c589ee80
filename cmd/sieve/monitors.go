package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/intel-sieve/internal/cli"
	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/Veraticus/intel-sieve/internal/monitor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func arxivCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arxiv",
		Short: "Fetch one day of arXiv papers and write the digest",
		Long: `Query the arXiv API for papers submitted on one day in the configured
categories, score them with the arxiv taxonomy and write
arxiv-YYYY-MM-DD.md (and .json) to the report directory.`,
		Example: `  # Yesterday's papers
  sieve arxiv

  # A specific day, best ten papers only
  sieve arxiv --date 2026-03-31 --top-k 10

  # Quick check against the live API
  sieve arxiv --test`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSingle(cmd, monitor.NameArxiv)
		},
	}

	cmd.Flags().String("date", "", "submission day to fetch (YYYY-MM-DD, default: yesterday UTC)")
	cmd.Flags().StringSlice("categories", nil, "arXiv categories to query")
	cmd.Flags().Int("max-results", 0, "maximum papers to fetch")
	cmd.Flags().Int("top-k", 0, "keep only the best K papers in the digest")
	cmd.Flags().Bool("test", false, "fetch only a handful of papers")

	_ = viper.BindPFlag("arxiv.date", cmd.Flags().Lookup("date"))
	_ = viper.BindPFlag("arxiv.categories", cmd.Flags().Lookup("categories"))
	_ = viper.BindPFlag("arxiv.max_results", cmd.Flags().Lookup("max-results"))
	_ = viper.BindPFlag("arxiv.top_k", cmd.Flags().Lookup("top-k"))
	_ = viper.BindPFlag("arxiv.test_mode", cmd.Flags().Lookup("test"))

	return cmd
}

func investCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invest",
		Short: "Collect funding news and write the investment brief",
		Long: `Crawl the configured funding feeds (or the built-in mock events), score
each announcement with the investment taxonomy, store new events and write
the daily investment brief.`,
		Example: `  sieve invest
  sieve invest --mock
  sieve invest --feeds https://example.com/funding.rss`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSingle(cmd, monitor.NameInvestment)
		},
	}

	cmd.Flags().Bool("mock", false, "use built-in sample funding events instead of feeds")
	cmd.Flags().StringSlice("feeds", nil, "RSS or Atom feed URLs, tried in order")

	_ = viper.BindPFlag("investment.mock", cmd.Flags().Lookup("mock"))
	_ = viper.BindPFlag("investment.feeds", cmd.Flags().Lookup("feeds"))

	return cmd
}

func communityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "community",
		Short: "Collect community messages and write the daily report",
		Long: `Read community messages from a JSON Lines export, the Telegram Bot API
or the built-in samples, score and classify them, track competitor
mentions and write the daily community report and competitor alert.`,
		Example: `  sieve community --input messages.jsonl
  SIEVE_TELEGRAM_TOKEN=... sieve community
  sieve community --samples`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSingle(cmd, monitor.NameCommunity)
		},
	}

	cmd.Flags().String("input", "", "JSON Lines message export")
	cmd.Flags().Bool("samples", true, "fall back to sample messages when no source is configured")
	cmd.Flags().StringSlice("focus", nil, "keywords that mark enthusiasts")

	_ = viper.BindPFlag("community.input", cmd.Flags().Lookup("input"))
	_ = viper.BindPFlag("community.samples", cmd.Flags().Lookup("samples"))
	_ = viper.BindPFlag("community.focus", cmd.Flags().Lookup("focus"))

	return cmd
}

// runSingle runs one cycle of a monitor and writes its reports.
func runSingle(cmd *cobra.Command, name string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	loc, err := location()
	if err != nil {
		return err
	}

	set := monitorSet{storage: store, loc: loc}
	if name == monitor.NameArxiv {
		set.progress = cmd.ErrOrStderr()
	}
	m, err := set.build(name)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, cli.FormatTitle("Running "+name+" monitor..."))
	run, err := m.RunCycle(ctx)
	if err != nil {
		if errors.Is(err, common.ErrNoItems) {
			return common.NewUserError("nothing was fetched", err)
		}
		fmt.Fprintln(out, cli.FormatWarning(err.Error()))
	}
	printRun(out, run)

	files, err := m.Report(ctx, time.Now())
	printFiles(out, files)
	return err
}
