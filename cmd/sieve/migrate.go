package main

import (
	"fmt"

	"github.com/Veraticus/intel-sieve/internal/cli"
	"github.com/Veraticus/intel-sieve/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Bring the database schema up to date. Every command migrates on start, so
this is mostly useful with --status to see which migrations are applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			if !status {
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Database %s is at schema version %d",
					store.Path(), storage.ExpectedSchemaVersion)))
				return nil
			}

			statuses, err := store.MigrationStatuses(ctx)
			if err != nil {
				return err
			}
			for _, s := range statuses {
				mark := cli.FormatSubtle("pending")
				if s.Applied {
					mark = cli.FormatSuccess("applied")
				}
				fmt.Fprintf(out, "v%-3d %s  %s\n", s.Version, mark, s.Description)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "list migrations and whether they are applied")

	return cmd
}
