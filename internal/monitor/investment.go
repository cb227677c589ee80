package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/intel-sieve/internal/aggregate"
	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/report"
	"github.com/Veraticus/intel-sieve/internal/service"
	"github.com/Veraticus/intel-sieve/internal/source"
)

// BriefWindowDays is how far back the investment brief looks.
const BriefWindowDays = 30

// InvestmentConfig configures the funding tracker.
type InvestmentConfig struct {
	Pipeline  *Pipeline
	Storage   service.Storage
	OutputDir string
	// Sources are the funding feeds or the mock source.
	Sources []source.Source
	Brief   report.BriefOptions
	JSON    bool
}

// InvestmentMonitor tracks funding announcements and writes the daily brief.
type InvestmentMonitor struct {
	cfg InvestmentConfig
}

// NewInvestmentMonitor creates a funding tracker.
func NewInvestmentMonitor(cfg InvestmentConfig) *InvestmentMonitor {
	return &InvestmentMonitor{cfg: cfg}
}

// Name implements Monitor.
func (m *InvestmentMonitor) Name() string { return NameInvestment }

// RunCycle implements Monitor.
func (m *InvestmentMonitor) RunCycle(ctx context.Context) (model.Run, error) {
	run, _, err := m.cfg.Pipeline.Run(ctx, m.cfg.Sources...)
	return run, err
}

// Brief builds the investment brief from everything stored.
func (m *InvestmentMonitor) Brief(ctx context.Context, now time.Time) (report.InvestmentBrief, error) {
	if m.cfg.Storage == nil {
		return report.InvestmentBrief{}, fmt.Errorf("%w: investment brief needs storage", common.ErrMissingConfig)
	}
	items, err := m.cfg.Storage.GetItems(ctx, service.ItemFilter{Monitor: NameInvestment})
	if err != nil {
		return report.InvestmentBrief{}, fmt.Errorf("failed to load funding events: %w", err)
	}

	stats := aggregate.FundingSummary(items, now)
	recent := aggregate.Window(items, now.AddDate(0, 0, -BriefWindowDays), time.Time{})
	maxScore := m.cfg.Pipeline.Engine().Config().MaxScore()
	return report.NewInvestmentBrief(now, recent, stats, maxScore, m.cfg.Brief), nil
}

// Report implements Monitor.
func (m *InvestmentMonitor) Report(ctx context.Context, now time.Time) ([]report.Files, error) {
	brief, err := m.Brief(ctx, now)
	if err != nil {
		return nil, err
	}
	files, err := report.Write(m.cfg.OutputDir, brief, m.cfg.JSON)
	if err != nil {
		return nil, err
	}
	return []report.Files{files}, nil
}
