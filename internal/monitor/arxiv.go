package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Veraticus/intel-sieve/internal/aggregate"
	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/report"
	"github.com/Veraticus/intel-sieve/internal/service"
	"github.com/Veraticus/intel-sieve/internal/source"
)

// ArxivConfig configures the arXiv digest monitor.
type ArxivConfig struct {
	// Day is the submission day to fetch. Zero means the day before the
	// cycle starts, in UTC.
	Day        time.Time
	Client     *source.ArxivClient
	Pipeline   *Pipeline
	Storage    service.Storage
	OutputDir  string
	Categories []string
	MaxResults int
	// TopK keeps only the best K papers in the digest. Zero keeps all.
	TopK     int
	TestMode bool
	JSON     bool
}

// ArxivMonitor fetches one day of arXiv submissions and writes a digest of
// the relevant papers.
type ArxivMonitor struct {
	cfg  ArxivConfig
	mu   sync.Mutex
	last *report.ArxivDigest
}

// NewArxivMonitor creates an arXiv monitor.
func NewArxivMonitor(cfg ArxivConfig) *ArxivMonitor {
	return &ArxivMonitor{cfg: cfg}
}

// Name implements Monitor.
func (a *ArxivMonitor) Name() string { return NameArxiv }

func (a *ArxivMonitor) day(now time.Time) time.Time {
	if !a.cfg.Day.IsZero() {
		return aggregate.DayStart(a.cfg.Day, time.UTC)
	}
	return aggregate.DayStart(now.UTC().AddDate(0, 0, -1), time.UTC)
}

// RunCycle implements Monitor.
func (a *ArxivMonitor) RunCycle(ctx context.Context) (model.Run, error) {
	day := a.day(a.cfg.Pipeline.clock())
	src := &source.ArxivSource{
		Client:     a.cfg.Client,
		Day:        day,
		Categories: a.cfg.Categories,
		MaxResults: a.cfg.MaxResults,
		TestMode:   a.cfg.TestMode,
	}

	run, out, err := a.cfg.Pipeline.Run(ctx, src)
	if err != nil && run.Stats.Fetched == 0 {
		return run, err
	}

	digest := a.digest(day, out.Relevant, run.Stats.Fetched)
	a.mu.Lock()
	a.last = &digest
	a.mu.Unlock()
	return run, err
}

func (a *ArxivMonitor) digest(day time.Time, relevant []model.ScoredItem, fetched int) report.ArxivDigest {
	papers := aggregate.SortByScore(relevant)
	if a.cfg.TopK > 0 && len(papers) > a.cfg.TopK {
		papers = papers[:a.cfg.TopK]
	}
	return report.ArxivDigest{
		Date:       day,
		Categories: a.cfg.Categories,
		Papers:     papers,
		Fetched:    fetched,
	}
}

// Digest returns the digest of the last cycle, or rebuilds it from storage
// for the configured day when this process has not run a cycle.
func (a *ArxivMonitor) Digest(ctx context.Context, now time.Time) (report.ArxivDigest, error) {
	a.mu.Lock()
	last := a.last
	a.mu.Unlock()
	if last != nil {
		return *last, nil
	}
	if a.cfg.Storage == nil {
		return report.ArxivDigest{}, fmt.Errorf("%w: no arXiv cycle has run and no storage is configured", common.ErrNoItems)
	}

	day := a.day(now)
	items, err := a.cfg.Storage.GetItems(ctx, service.ItemFilter{
		Monitor: NameArxiv,
		Since:   day,
		Until:   day.AddDate(0, 0, 1),
	})
	if err != nil {
		return report.ArxivDigest{}, fmt.Errorf("failed to load papers: %w", err)
	}

	fetched := len(items)
	runs, err := a.cfg.Storage.GetRuns(ctx, NameArxiv, 1)
	if err != nil {
		return report.ArxivDigest{}, fmt.Errorf("failed to load last run: %w", err)
	}
	if len(runs) > 0 && runs[0].Stats.Fetched > fetched {
		fetched = runs[0].Stats.Fetched
	}

	var relevant []model.ScoredItem
	for _, s := range items {
		if a.cfg.Pipeline.Engine().Relevant(s.Result) {
			relevant = append(relevant, s)
		}
	}
	return a.digest(day, relevant, fetched), nil
}

// Report implements Monitor.
func (a *ArxivMonitor) Report(ctx context.Context, now time.Time) ([]report.Files, error) {
	digest, err := a.Digest(ctx, now)
	if err != nil {
		return nil, err
	}
	files, err := report.Write(a.cfg.OutputDir, digest, a.cfg.JSON)
	if err != nil {
		return nil, err
	}
	return []report.Files{files}, nil
}
