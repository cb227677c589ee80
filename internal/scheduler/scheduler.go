// Package scheduler runs the daemon's periodic jobs on a cron clock.
package scheduler

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/robfig/cron/v3"
)

var clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Scheduler runs named jobs at fixed intervals or daily wall-clock times.
// A job that is still running when its next tick arrives is skipped.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location
	entries  map[string]cron.EntryID
	mu       sync.Mutex
	started  bool
}

// New creates a scheduler whose daily jobs fire in loc.
func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	logger := slogLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		location: loc,
		entries:  make(map[string]cron.EntryID),
	}
}

// Location returns the scheduler's time zone.
func (s *Scheduler) Location() *time.Location {
	return s.location
}

// Every schedules fn every interval under name, replacing any job with the
// same name.
func (s *Scheduler) Every(name string, interval time.Duration, fn func()) error {
	if interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %s", common.ErrInvalidConfig, interval)
	}
	return s.add(name, "@every "+interval.String(), fn)
}

// Daily schedules fn once a day at clock (HH:MM) under name, replacing any job
// with the same name.
func (s *Scheduler) Daily(name, clock string, fn func()) error {
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return err
	}
	return s.add(name, fmt.Sprintf("%d %d * * *", minute, hour), fn)
}

func (s *Scheduler) add(name, spec string, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
	}

	id, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		return fmt.Errorf("add cron job %s: %w", name, err)
	}
	s.entries[name] = id
	slog.Info("Job scheduled", "job", name, "spec", spec, "timezone", s.location.String())
	return nil
}

// Next returns the next activation of a job, or the zero time when the job
// is unknown or the scheduler has not started.
func (s *Scheduler) Next(name string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.entries[name]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// Jobs returns the number of scheduled jobs.
func (s *Scheduler) Jobs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Start begins firing jobs. It is a no-op when already started.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.cron.Start()
		s.started = true
	}
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
}

// ParseClock parses an HH:MM wall-clock time.
func ParseClock(clock string) (int, int, error) {
	matches := clockRegex.FindStringSubmatch(clock)
	if len(matches) != 3 {
		return 0, 0, fmt.Errorf("%w: invalid time %q (expected HH:MM)", common.ErrInvalidConfig, clock)
	}

	hour, _ := strconv.Atoi(matches[1])
	minute, _ := strconv.Atoi(matches[2])
	return hour, minute, nil
}

// slogLogger routes cron's logging through slog.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
