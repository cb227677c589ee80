package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/Veraticus/intel-sieve/internal/dedup"
	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/relevance"
	"github.com/Veraticus/intel-sieve/internal/service"
	"github.com/Veraticus/intel-sieve/internal/source"
	"github.com/google/uuid"
)

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	// Keys remembers admitted dedup keys. When nil the storage's key
	// namespace for Name is used, or an in-memory set without storage.
	Keys     dedup.KeyStore
	Storage  service.Storage
	Recorder Recorder
	Engine   *relevance.Engine
	Clock    Clock
	// Enrich runs on every scored item before it is offered to the gate.
	Enrich func(*model.ScoredItem)
	Name   string
	// KeepIrrelevant stores items below the relevance threshold too.
	KeepIrrelevant bool
	// TrackCompetitors records brand mentions of admitted items.
	TrackCompetitors bool
}

// Pipeline runs the score, classify, dedup and persist steps of a cycle.
type Pipeline struct {
	keys     dedup.KeyStore
	storage  service.Storage
	recorder Recorder
	engine   *relevance.Engine
	gate     *dedup.Gate
	clock    Clock
	enrich   func(*model.ScoredItem)
	name     string
	keepAll  bool
	track    bool
}

// Outcome is what one Process call produced.
type Outcome struct {
	Relevant []model.ScoredItem
	Admitted []model.ScoredItem
	Mentions []model.CompetitorMention
	Stats    model.RunStats
}

// NewPipeline builds a pipeline from cfg.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Engine == nil {
		return nil, errors.New("pipeline requires an engine")
	}
	if cfg.Name == "" {
		return nil, errors.New("pipeline requires a name")
	}

	keys := cfg.Keys
	if keys == nil {
		if cfg.Storage != nil {
			keys = cfg.Storage.SeenKeys(cfg.Name)
		} else {
			keys = dedup.NewSeenSet()
		}
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Pipeline{
		keys:     keys,
		storage:  cfg.Storage,
		recorder: recorder,
		engine:   cfg.Engine,
		gate:     dedup.NewGate(keys),
		clock:    clock,
		enrich:   cfg.Enrich,
		name:     cfg.Name,
		keepAll:  cfg.KeepIrrelevant,
		track:    cfg.TrackCompetitors,
	}, nil
}

// Name returns the monitor name the pipeline stores items under.
func (p *Pipeline) Name() string {
	return p.name
}

// Engine returns the relevance engine.
func (p *Pipeline) Engine() *relevance.Engine {
	return p.engine
}

// Keys returns the dedup key store.
func (p *Pipeline) Keys() dedup.KeyStore {
	return p.keys
}

// Process evaluates items in order. Duplicates are counted, not treated as
// errors. A persistence failure skips that item and is joined into the
// returned error; the remaining items are still processed.
func (p *Pipeline) Process(ctx context.Context, items []model.Item) (Outcome, error) {
	var (
		out  Outcome
		errs []error
	)
	out.Stats.Fetched = len(items)

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		scored := p.engine.Score(item)
		relevant := p.engine.Relevant(scored.Result)
		if relevant {
			out.Stats.Relevant++
		}
		if !relevant && !p.keepAll {
			continue
		}
		if p.enrich != nil {
			p.enrich(&scored)
		}

		var mentions []model.CompetitorMention
		if p.track {
			mentions = p.engine.Competitors(scored)
		}

		decision, err := p.gate.Admit(ctx, scored.Result.DedupKey, p.persist(scored, mentions))
		if err != nil {
			slog.Warn("Failed to store item",
				"monitor", p.name,
				"key", scored.Result.DedupKey,
				"error", err)
			errs = append(errs, fmt.Errorf("item %s: %w", scored.Result.DedupKey, err))
			continue
		}
		p.recorder.ObserveItem(p.name, scored, decision)

		if relevant {
			out.Relevant = append(out.Relevant, scored)
		}
		if decision == dedup.Duplicate {
			out.Stats.Duplicates++
			continue
		}
		out.Stats.Admitted++
		out.Stats.Mentions += len(mentions)
		out.Admitted = append(out.Admitted, scored)
		out.Mentions = append(out.Mentions, mentions...)
	}

	return out, errors.Join(errs...)
}

func (p *Pipeline) persist(item model.ScoredItem, mentions []model.CompetitorMention) func(context.Context) error {
	if p.storage == nil {
		return nil
	}
	return func(ctx context.Context) error {
		inserted, err := p.storage.SaveItemWithMentions(ctx, p.name, item, mentions)
		if err != nil {
			return err
		}
		if !inserted {
			slog.Debug("Item already stored", "monitor", p.name, "key", item.Result.DedupKey)
		}
		return nil
	}
}

// Run collects from sources, processes the items and records the run. The
// run is returned even when it fails so callers can report partial progress.
func (p *Pipeline) Run(ctx context.Context, sources ...source.Source) (model.Run, Outcome, error) {
	run := model.Run{
		ID:        uuid.New().String(),
		Monitor:   p.name,
		StartedAt: p.clock(),
	}

	items, fetchErr := source.Collect(ctx, sources...)
	if fetchErr != nil && len(items) == 0 {
		run.FinishedAt = p.clock()
		run.Error = fetchErr.Error()
		p.finish(ctx, run)
		return run, Outcome{}, fmt.Errorf("%s: %w: %w", p.name, common.ErrNoItems, fetchErr)
	}

	out, procErr := p.Process(ctx, items)
	run.Stats = out.Stats
	run.FinishedAt = p.clock()

	err := errors.Join(fetchErr, procErr)
	if err != nil {
		run.Error = err.Error()
	}
	p.finish(ctx, run)

	slog.Info("Monitor cycle complete",
		"monitor", p.name,
		"run_id", run.ID,
		"fetched", run.Stats.Fetched,
		"relevant", run.Stats.Relevant,
		"admitted", run.Stats.Admitted,
		"duplicates", run.Stats.Duplicates,
		"mentions", run.Stats.Mentions,
		"duration", run.Duration())
	return run, out, err
}

func (p *Pipeline) finish(ctx context.Context, run model.Run) {
	p.recorder.ObserveRun(run)
	if p.storage == nil {
		return
	}
	// The run record is written even after cancellation.
	if err := p.storage.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		slog.Warn("Failed to record run", "monitor", p.name, "run_id", run.ID, "error", err)
	}
}
