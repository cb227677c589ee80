package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/intel-sieve/internal/aggregate"
	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/relevance"
	"github.com/Veraticus/intel-sieve/internal/report"
	"github.com/Veraticus/intel-sieve/internal/service"
	"github.com/Veraticus/intel-sieve/internal/source"
)

// Community report windows.
const (
	CommunityWeekDays = 7
	MentionWindowDays = 7
)

const metaLanguage = "lang"

// DefaultFocusKeywords mark enthusiasts in the persona breakdown.
var DefaultFocusKeywords = []string{"头壳", "kigurumi"}

// CommunityConfig configures the community monitor.
type CommunityConfig struct {
	Location  *time.Location
	Pipeline  *Pipeline
	Storage   service.Storage
	OutputDir string
	Sources   []source.Source
	Focus     []string
	JSON      bool
}

// CommunityMonitor collects community messages, tracks competitor mentions
// and writes the daily report and the competitor alert.
type CommunityMonitor struct {
	cfg CommunityConfig
}

// NewCommunityMonitor creates a community monitor.
func NewCommunityMonitor(cfg CommunityConfig) *CommunityMonitor {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Focus == nil {
		cfg.Focus = DefaultFocusKeywords
	}
	return &CommunityMonitor{cfg: cfg}
}

// TagLanguage records the detected language of an item under the "lang"
// metadata key.
func TagLanguage(s *model.ScoredItem) {
	meta := make(map[string]string, len(s.Item.Metadata)+1)
	for k, v := range s.Item.Metadata {
		meta[k] = v
	}
	meta[metaLanguage] = relevance.DetectLanguage(s.Item.Text())
	s.Item.Metadata = meta
}

// Name implements Monitor.
func (c *CommunityMonitor) Name() string { return NameCommunity }

// RunCycle implements Monitor.
func (c *CommunityMonitor) RunCycle(ctx context.Context) (model.Run, error) {
	run, _, err := c.cfg.Pipeline.Run(ctx, c.cfg.Sources...)
	return run, err
}

// DailyReport builds the community report for the day containing now.
func (c *CommunityMonitor) DailyReport(ctx context.Context, now time.Time) (report.CommunityReport, error) {
	if c.cfg.Storage == nil {
		return report.CommunityReport{}, fmt.Errorf("%w: community report needs storage", common.ErrMissingConfig)
	}
	dayStart := aggregate.DayStart(now, c.cfg.Location)
	week, err := c.cfg.Storage.GetItems(ctx, service.ItemFilter{
		Monitor: NameCommunity,
		Since:   dayStart.AddDate(0, 0, -(CommunityWeekDays - 1)),
	})
	if err != nil {
		return report.CommunityReport{}, fmt.Errorf("failed to load messages: %w", err)
	}
	today := aggregate.Window(week, dayStart, time.Time{})
	return report.NewCommunityReport(now, c.cfg.Location, today, week, c.cfg.Focus), nil
}

// CompetitorAlert summarises the competitor mentions of the last week.
func (c *CommunityMonitor) CompetitorAlert(ctx context.Context, now time.Time) (report.CompetitorAlert, error) {
	if c.cfg.Storage == nil {
		return report.CompetitorAlert{}, fmt.Errorf("%w: competitor alert needs storage", common.ErrMissingConfig)
	}
	mentions, err := c.cfg.Storage.GetMentions(ctx, now.AddDate(0, 0, -MentionWindowDays))
	if err != nil {
		return report.CompetitorAlert{}, fmt.Errorf("failed to load competitor mentions: %w", err)
	}
	return report.NewCompetitorAlert(now, mentions), nil
}

// Report implements Monitor. It writes the daily report and the competitor
// alert.
func (c *CommunityMonitor) Report(ctx context.Context, now time.Time) ([]report.Files, error) {
	daily, err := c.DailyReport(ctx, now)
	if err != nil {
		return nil, err
	}
	alert, err := c.CompetitorAlert(ctx, now)
	if err != nil {
		return nil, err
	}

	var written []report.Files
	for _, doc := range []report.Document{daily, alert} {
		files, err := report.Write(c.cfg.OutputDir, doc, c.cfg.JSON)
		if err != nil {
			return written, err
		}
		written = append(written, files)
	}
	return written, nil
}
