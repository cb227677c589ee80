package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/intel-sieve/internal/cli"
	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/Veraticus/intel-sieve/internal/config"
	"github.com/Veraticus/intel-sieve/internal/dedup"
	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/relevance"
	"github.com/Veraticus/intel-sieve/internal/source"
	"github.com/Veraticus/intel-sieve/internal/taxonomy"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func scoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score [text...]",
		Short: "Score text or a message export without storing anything",
		Long: `Evaluate items against a taxonomy and print score, matched categories,
content type and sentiment. Text given as arguments is scored as one
message; otherwise JSON Lines messages are read from --input or stdin.

With --seen, dedup keys are remembered in a JSON state file and repeated
items are reported as duplicates.`,
		Example: `  sieve score "Selling my Zeiss 50mm lens, barely used"
  sieve score --input messages.jsonl --preset community
  cat messages.jsonl | sieve score --taxonomy my.yaml --seen seen.json`,
		RunE: runScore,
	}

	cmd.Flags().String("preset", taxonomy.PresetCommunity, "built-in taxonomy ("+strings.Join(taxonomy.PresetNames(), ", ")+")")
	cmd.Flags().String("taxonomy", "", "taxonomy YAML file, overrides --preset")
	cmd.Flags().String("input", "", "JSON Lines message file (default stdin)")
	cmd.Flags().String("seen", "", "dedup state file")
	cmd.Flags().Bool("relevant", false, "only print relevant items")

	_ = viper.BindPFlag("score.preset", cmd.Flags().Lookup("preset"))
	_ = viper.BindPFlag("score.taxonomy", cmd.Flags().Lookup("taxonomy"))
	_ = viper.BindPFlag("score.input", cmd.Flags().Lookup("input"))
	_ = viper.BindPFlag("score.seen", cmd.Flags().Lookup("seen"))
	_ = viper.BindPFlag("score.relevant", cmd.Flags().Lookup("relevant"))

	return cmd
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := taxonomy.Resolve(config.ExpandPath(viper.GetString("score.taxonomy")), viper.GetString("score.preset"))
	if err != nil {
		return common.NewUserError("failed to load taxonomy", err)
	}
	engine, err := relevance.New(cfg)
	if err != nil {
		return err
	}

	loc, err := location()
	if err != nil {
		return err
	}
	items, err := scoreInput(cmd.InOrStdin(), args, loc)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return common.NewUserError("nothing to score", common.ErrNoItems)
	}

	var (
		gate     *dedup.Gate
		seen     *dedup.SeenSet
		seenPath = config.ExpandPath(viper.GetString("score.seen"))
	)
	if seenPath != "" {
		seen = dedup.NewSeenSet()
		if err := seen.Load(seenPath); err != nil {
			return err
		}
		gate = dedup.NewGate(seen)
	}

	var (
		scored     []model.ScoredItem
		relevant   int
		duplicates int
	)
	for _, item := range items {
		s := engine.Score(item)
		isRelevant := engine.Relevant(s.Result)
		if isRelevant {
			relevant++
		}
		if gate != nil {
			decision, admitErr := gate.Admit(ctx, s.Result.DedupKey, nil)
			if admitErr != nil {
				return admitErr
			}
			if decision == dedup.Duplicate {
				duplicates++
				continue
			}
		}
		if isRelevant || !viper.GetBool("score.relevant") {
			scored = append(scored, s)
		}
	}

	if len(scored) > 0 {
		cli.RenderItems(out, scored)
	}
	summary := fmt.Sprintf("%d items, %d relevant", len(items), relevant)
	if gate != nil {
		summary += fmt.Sprintf(", %d duplicates", duplicates)
	}
	fmt.Fprintln(out, cli.FormatInfo(summary))

	if seen != nil {
		if err := seen.Save(seenPath); err != nil {
			return err
		}
	}
	return nil
}

// scoreInput turns arguments into a single message, or reads JSON Lines
// messages from --input or in.
func scoreInput(in io.Reader, args []string, loc *time.Location) ([]model.Item, error) {
	now := time.Now()
	if len(args) > 0 {
		msg := source.RawMessage{Source: "cli", Content: strings.Join(args, " ")}
		return []model.Item{msg.Item(now, loc)}, nil
	}

	if path := viper.GetString("score.input"); path != "" {
		f, err := os.Open(config.ExpandPath(path))
		if err != nil {
			return nil, common.NewUserError("failed to open input", err)
		}
		defer func() {
			_ = f.Close()
		}()
		in = f
	}

	messages, err := source.ReadMessages(in)
	if err != nil {
		return nil, err
	}
	items := make([]model.Item, 0, len(messages))
	for _, m := range messages {
		items = append(items, m.Item(now, loc))
	}
	return items, nil
}
