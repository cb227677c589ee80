// Package monitor wires sources, the relevance engine, the dedup gate and
// storage into repeatable collection cycles, and renders each monitor's
// report from what has been stored.
package monitor

import (
	"context"
	"time"

	"github.com/Veraticus/intel-sieve/internal/dedup"
	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/report"
)

// Monitor names used as storage partitions and dedup namespaces.
const (
	NameArxiv      = "arxiv"
	NameInvestment = "investment"
	NameCommunity  = "community"
)

// Monitor is one intelligence monitor. RunCycle collects and stores new
// items; Report renders the monitor's documents as of now.
type Monitor interface {
	Name() string
	RunCycle(ctx context.Context) (model.Run, error)
	Report(ctx context.Context, now time.Time) ([]report.Files, error)
}

// Recorder observes cycle outcomes. The metrics package provides the
// Prometheus implementation.
type Recorder interface {
	ObserveItem(monitor string, item model.ScoredItem, decision dedup.Decision)
	ObserveRun(run model.Run)
}

type nopRecorder struct{}

func (nopRecorder) ObserveItem(string, model.ScoredItem, dedup.Decision) {}
func (nopRecorder) ObserveRun(model.Run)                                 {}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time
