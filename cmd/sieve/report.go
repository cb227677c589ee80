package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/intel-sieve/internal/cli"
	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/monitor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [monitor...]",
		Short: "Write reports from stored data without fetching",
		Long: `Rebuild the Markdown and JSON reports of the given monitors (all by
default) from the database, as of now or as of the end of --date.`,
		Example: `  sieve report
  sieve report community --date 2026-03-31`,
		RunE: runReport,
	}

	cmd.Flags().String("date", "", "report as of the end of this day (YYYY-MM-DD)")
	_ = viper.BindPFlag("report.date", cmd.Flags().Lookup("date"))

	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	loc, err := location()
	if err != nil {
		return err
	}
	now := time.Now().In(loc)
	if d := viper.GetString("report.date"); d != "" {
		day, parseErr := time.ParseInLocation(model.DateLayout, d, loc)
		if parseErr != nil {
			return common.NewUserError("invalid --date, expected YYYY-MM-DD", parseErr)
		}
		now = day.Add(24*time.Hour - time.Second)
	}

	names := args
	if len(names) == 0 {
		names = []string{monitor.NameArxiv, monitor.NameInvestment, monitor.NameCommunity}
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	set := monitorSet{storage: store, loc: loc, offline: true}
	var monitors []monitor.Monitor
	for _, name := range names {
		m, buildErr := set.build(name)
		if buildErr != nil {
			return buildErr
		}
		monitors = append(monitors, m)
	}

	runner, err := monitor.NewRunner(monitor.RunnerConfig{Location: loc, Monitors: monitors})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, cli.FormatTitle("Writing reports for "+now.Format(model.DateLayout)))
	files, err := runner.Reports(ctx, now)
	printFiles(out, files)
	return err
}
