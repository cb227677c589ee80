package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Veraticus/intel-sieve/internal/cli"
	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/Veraticus/intel-sieve/internal/config"
	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/report"
	"github.com/Veraticus/intel-sieve/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored items as JSON Lines",
		Long: `Write stored items, newest first, as one JSON object per line. The
records carry the fields of the message export format plus the category,
keyword, sentiment and score assigned by the engine.`,
		Example: `  sieve export --monitor community --since 2026-03-01 > community.jsonl
  sieve export --file all.jsonl`,
		RunE: runExport,
	}

	cmd.Flags().String("monitor", "", "only this monitor")
	cmd.Flags().String("since", "", "only items from this day on (YYYY-MM-DD)")
	cmd.Flags().StringP("file", "f", "", "write to this file instead of stdout")

	_ = viper.BindPFlag("export.monitor", cmd.Flags().Lookup("monitor"))
	_ = viper.BindPFlag("export.since", cmd.Flags().Lookup("since"))
	_ = viper.BindPFlag("export.file", cmd.Flags().Lookup("file"))

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	loc, err := location()
	if err != nil {
		return err
	}
	filter := service.ItemFilter{Monitor: viper.GetString("export.monitor")}
	if s := viper.GetString("export.since"); s != "" {
		since, parseErr := time.ParseInLocation(model.DateLayout, s, loc)
		if parseErr != nil {
			return common.NewUserError("invalid --since, expected YYYY-MM-DD", parseErr)
		}
		filter.Since = since
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	items, err := store.GetItems(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	path := config.ExpandPath(viper.GetString("export.file"))
	if path != "" {
		f, createErr := os.Create(path) //nolint:gosec // user-supplied output path
		if createErr != nil {
			return fmt.Errorf("failed to create export file: %w", createErr)
		}
		defer func() {
			_ = f.Close()
		}()
		w = f
	}

	n, err := report.WriteJSONL(w, items)
	if err != nil {
		return err
	}
	if path != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf("Exported %d items to %s", n, path)))
	}
	return nil
}
