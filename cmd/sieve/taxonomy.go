package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/intel-sieve/internal/cli"
	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/Veraticus/intel-sieve/internal/taxonomy"
	"github.com/spf13/cobra"
)

func taxonomyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Inspect and validate taxonomies",
		Long: `Show the built-in taxonomy presets or check a taxonomy YAML file before
pointing a monitor at it with <monitor>.taxonomy.`,
	}

	cmd.AddCommand(taxonomyShowCmd())
	cmd.AddCommand(taxonomyValidateCmd())
	cmd.AddCommand(taxonomyListCmd())

	return cmd
}

func taxonomyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range taxonomy.PresetNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func taxonomyShowCmd() *cobra.Command {
	var asYAML bool
	var file string

	cmd := &cobra.Command{
		Use:   "show [preset]",
		Short: "Show a preset or a taxonomy file",
		Example: `  sieve taxonomy show community
  sieve taxonomy show arxiv --yaml > my-arxiv.yaml
  sieve taxonomy show --file my-arxiv.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			preset := taxonomy.PresetCommunity
			if len(args) == 1 {
				preset = args[0]
			}
			cfg, err := taxonomy.Resolve(file, preset)
			if err != nil {
				return common.NewUserError("failed to load taxonomy", err)
			}

			out := cmd.OutOrStdout()
			if asYAML {
				data, err := cfg.Marshal()
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			}

			cli.RenderTaxonomy(out, cfg)
			if len(cfg.Competitors) > 0 {
				counts := make(map[string]int, len(cfg.Competitors))
				for brand, aliases := range cfg.Competitors {
					counts[brand] = len(aliases)
				}
				cli.RenderCounts(out, "Competitors", "Brand", counts)
			}
			if cfg.Bonus != nil {
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Target bonus x%.1f for: %s",
					cfg.Bonus.Multiplier, strings.Join(cfg.Bonus.Allowlist, ", "))))
			}
			fmt.Fprintln(out, cli.FormatSubtle("Dedup key: "+strings.Join(cfg.Dedup.Fields, " + ")))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print as YAML")
	cmd.Flags().StringVar(&file, "file", "", "taxonomy YAML file instead of a preset")

	return cmd
}

func taxonomyValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "validate <file>...",
		Short:   "Validate taxonomy files",
		Example: `  sieve taxonomy validate my-community.yaml`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var failed int
			for _, path := range args {
				cfg, err := taxonomy.LoadFile(path)
				if err != nil {
					failed++
					fmt.Fprintln(out, cli.FormatError(err.Error()))
					continue
				}
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%s: %d categories, max score %.0f",
					path, len(cfg.Categories), cfg.MaxScore())))
			}
			if failed > 0 {
				return common.NewUserError(fmt.Sprintf("%d of %d files are invalid", failed, len(args)), taxonomy.ErrInvalidTaxonomy)
			}
			return nil
		},
	}
}
