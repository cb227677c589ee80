package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/intel-sieve/internal/cli"
	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/Veraticus/intel-sieve/internal/storage"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage database snapshots",
		Long: `Snapshots are consistent copies of the database kept in a snapshots
directory next to it. Take one before experimenting with a new taxonomy and
restore it if the results are not what you wanted.`,
	}

	cmd.AddCommand(snapshotCreateCmd())
	cmd.AddCommand(snapshotListCmd())
	cmd.AddCommand(snapshotRestoreCmd())
	cmd.AddCommand(snapshotDeleteCmd())

	return cmd
}

func withSnapshots(cmd *cobra.Command, fn func(*storage.SnapshotManager) error) error {
	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStorage(store)

	mgr, err := store.NewSnapshotManager()
	if err != nil {
		return common.NewUserError("snapshots are not available", err)
	}
	return fn(mgr)
}

func snapshotCreateCmd() *cobra.Command {
	var tag, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a snapshot",
		Example: `  sieve snapshot create
  sieve snapshot create --tag before-new-taxonomy -m "community v2 weights"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSnapshots(cmd, func(mgr *storage.SnapshotManager) error {
				info, err := mgr.Create(cmd.Context(), tag, description)
				if err != nil {
					if errors.Is(err, storage.ErrSnapshotExists) || errors.Is(err, storage.ErrInvalidSnapshot) {
						return common.NewUserError("cannot create snapshot", err)
					}
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Snapshot %s created (%s, %s)",
					info.ID, humanize.Bytes(uint64(info.FileSize)), rowSummary(info.RowCounts)))) //nolint:gosec // file sizes are non-negative
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "snapshot name (default: timestamp)")
	cmd.Flags().StringVarP(&description, "message", "m", "", "description")

	return cmd
}

func snapshotListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSnapshots(cmd, func(mgr *storage.SnapshotManager) error {
				snapshots, err := mgr.List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(snapshots) == 0 {
					fmt.Fprintln(out, cli.FormatInfo("No snapshots yet."))
					return nil
				}
				for _, s := range snapshots {
					line := fmt.Sprintf("%s  %s  %s  schema v%d  %s", s.ID, humanize.Time(s.CreatedAt),
						humanize.Bytes(uint64(s.FileSize)), s.SchemaVersion, rowSummary(s.RowCounts)) //nolint:gosec // file sizes are non-negative
					fmt.Fprintln(out, line)
					if s.Description != "" {
						fmt.Fprintln(out, cli.FormatSubtle("  "+s.Description))
					}
				}
				return nil
			})
		},
	}
}

func snapshotRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <tag>",
		Short: "Replace the database with a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSnapshots(cmd, func(mgr *storage.SnapshotManager) error {
				if err := mgr.Restore(cmd.Context(), args[0]); err != nil {
					if errors.Is(err, storage.ErrSnapshotNotFound) {
						return common.NewUserError("no snapshot named "+args[0], err)
					}
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Database restored from "+args[0]))
				return nil
			})
		},
	}
}

func snapshotDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <tag>...",
		Short: "Delete snapshots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSnapshots(cmd, func(mgr *storage.SnapshotManager) error {
				for _, tag := range args {
					if err := mgr.Delete(cmd.Context(), tag); err != nil {
						if errors.Is(err, storage.ErrSnapshotNotFound) {
							return common.NewUserError("no snapshot named "+tag, err)
						}
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted "+tag))
				}
				return nil
			})
		},
	}
}

// rowSummary renders row counts as "items=12 runs=3" in table order.
func rowSummary(counts map[string]int) string {
	tables := make([]string, 0, len(counts))
	for t := range counts {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	parts := make([]string, 0, len(tables))
	for _, t := range tables {
		parts = append(parts, fmt.Sprintf("%s=%s", t, humanize.Comma(int64(counts[t]))))
	}
	return strings.Join(parts, " ")
}
