package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/report"
	"github.com/Veraticus/intel-sieve/internal/scheduler"
)

// Runner defaults.
const (
	DefaultInterval = time.Hour
	DefaultReportAt = "09:00"
	StateFileName   = "monitor_state.json"
	cycleJobName    = "cycle"
	dailyReportJob  = "daily-report"
)

// RunnerState is the runner's bookkeeping, persisted between processes.
type RunnerState struct {
	LastRun        time.Time `json:"last_run"`
	LastReportDate string    `json:"last_report_date,omitempty"`
	TotalRuns      int       `json:"total_runs"`
	TotalItems     int       `json:"total_items"`
}

// LoadState reads a state file. A missing file yields the zero state.
func LoadState(path string) (RunnerState, error) {
	var st RunnerState
	data, err := os.ReadFile(path) //nolint:gosec // state file path comes from config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, nil
		}
		return st, fmt.Errorf("failed to read runner state: %w", err)
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("failed to decode runner state %s: %w", path, err)
	}
	return st, nil
}

// Save writes the state to path.
func (s RunnerState) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode runner state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write runner state: %w", err)
	}
	return nil
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	Location *time.Location
	Clock    Clock
	// StatePath is where the runner state is loaded from and saved to.
	// Empty disables persistence.
	StatePath string
	// ReportAt is the HH:MM after which the daily reports are due.
	ReportAt string
	Monitors []Monitor
	Interval time.Duration
}

// Runner drives monitors either once or as a daemon. Cycles never overlap
// and the daily reports are written at most once per calendar day.
type Runner struct {
	cfg          RunnerConfig
	state        RunnerState
	reportHour   int
	reportMinute int
	mu           sync.Mutex
}

// NewRunner validates cfg and loads any saved state.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if len(cfg.Monitors) == 0 {
		return nil, errors.New("runner needs at least one monitor")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.ReportAt == "" {
		cfg.ReportAt = DefaultReportAt
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	hour, minute, err := scheduler.ParseClock(cfg.ReportAt)
	if err != nil {
		return nil, err
	}

	r := &Runner{cfg: cfg, reportHour: hour, reportMinute: minute}
	if cfg.StatePath != "" {
		if r.state, err = LoadState(cfg.StatePath); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// State returns a copy of the current bookkeeping.
func (r *Runner) State() RunnerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// SaveState persists the state when a state path is configured.
func (r *Runner) SaveState() error {
	if r.cfg.StatePath == "" {
		return nil
	}
	r.mu.Lock()
	st := r.state
	r.mu.Unlock()
	if err := st.Save(r.cfg.StatePath); err != nil {
		return err
	}
	slog.Info("Runner state saved", "path", r.cfg.StatePath, "total_runs", st.TotalRuns)
	return nil
}

// Cycle runs every monitor once, in order, then writes the daily reports if
// they are due. A failing monitor does not stop the others; all errors are
// joined.
func (r *Runner) Cycle(ctx context.Context) ([]model.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		runs []model.Run
		errs []error
	)
	for _, m := range r.cfg.Monitors {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		run, err := m.RunCycle(ctx)
		runs = append(runs, run)
		r.state.TotalItems += run.Stats.Admitted
		if err != nil {
			slog.Error("Monitor cycle failed", "monitor", m.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", m.Name(), err))
		}
	}
	r.state.TotalRuns++
	r.state.LastRun = r.cfg.Clock()

	if _, err := r.reportIfDueLocked(ctx); err != nil {
		errs = append(errs, err)
	}
	return runs, errors.Join(errs...)
}

// ReportIfDue writes the daily reports when today's have not been written
// and the configured report time has passed. It reports whether it wrote.
func (r *Runner) ReportIfDue(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reportIfDueLocked(ctx)
}

func (r *Runner) reportIfDueLocked(ctx context.Context) (bool, error) {
	now := r.cfg.Clock().In(r.cfg.Location)
	today := now.Format(model.DateLayout)
	if r.state.LastReportDate == today {
		return false, nil
	}
	due := time.Date(now.Year(), now.Month(), now.Day(), r.reportHour, r.reportMinute, 0, 0, r.cfg.Location)
	if now.Before(due) {
		return false, nil
	}

	// A failed report is not retried until the next day.
	_, err := r.reportsLocked(ctx, now)
	r.state.LastReportDate = today
	return true, err
}

// Reports writes every monitor's reports as of now, regardless of the daily
// schedule.
func (r *Runner) Reports(ctx context.Context, now time.Time) ([]report.Files, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reportsLocked(ctx, now)
}

func (r *Runner) reportsLocked(ctx context.Context, now time.Time) ([]report.Files, error) {
	var (
		written []report.Files
		errs    []error
	)
	for _, m := range r.cfg.Monitors {
		files, err := m.Report(ctx, now)
		written = append(written, files...)
		if err != nil {
			slog.Error("Report failed", "monitor", m.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s report: %w", m.Name(), err))
			continue
		}
		for _, f := range files {
			slog.Info("Report written", "monitor", m.Name(), "markdown", f.Markdown, "json", f.JSON)
		}
	}
	return written, errors.Join(errs...)
}

// Once runs a single cycle and saves the state.
func (r *Runner) Once(ctx context.Context) ([]model.Run, error) {
	runs, err := r.Cycle(ctx)
	if saveErr := r.SaveState(); saveErr != nil {
		err = errors.Join(err, saveErr)
	}
	return runs, err
}

// Daemon runs a cycle immediately, then every interval, and checks the
// daily reports at the configured time. It blocks until ctx is cancelled,
// waits for the running job and saves the state.
func (r *Runner) Daemon(ctx context.Context) error {
	sched := scheduler.New(r.cfg.Location)

	cycle := func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := r.Cycle(ctx); err != nil && ctx.Err() == nil {
			slog.Warn("Cycle finished with errors", "error", err)
		}
	}
	daily := func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := r.ReportIfDue(ctx); err != nil {
			slog.Warn("Daily report failed", "error", err)
		}
	}

	if err := sched.Every(cycleJobName, r.cfg.Interval, cycle); err != nil {
		return err
	}
	if err := sched.Daily(dailyReportJob, r.cfg.ReportAt, daily); err != nil {
		return err
	}

	slog.Info("Daemon started",
		"monitors", len(r.cfg.Monitors),
		"interval", r.cfg.Interval,
		"report_at", r.cfg.ReportAt)

	cycle()
	sched.Start()
	<-ctx.Done()

	slog.Info("Daemon stopping")
	sched.Stop()
	return r.SaveState()
}
