package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/intel-sieve/internal/cli"
	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/Veraticus/intel-sieve/internal/config"
	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/monitor"
	"github.com/Veraticus/intel-sieve/internal/relevance"
	"github.com/Veraticus/intel-sieve/internal/report"
	"github.com/Veraticus/intel-sieve/internal/service"
	"github.com/Veraticus/intel-sieve/internal/source"
	"github.com/Veraticus/intel-sieve/internal/storage"
	"github.com/Veraticus/intel-sieve/internal/taxonomy"
	"github.com/spf13/viper"
)

const defaultOutputDir = "reports"

// envKeyReplacer maps nested keys such as daemon.report_at to
// SIEVE_DAEMON_REPORT_AT.
var envKeyReplacer = strings.NewReplacer(".", "_")

func setDefaults() {
	viper.SetDefault("timezone", "Local")
	viper.SetDefault("output.json", true)
	viper.SetDefault("arxiv.categories", taxonomy.ArxivTargetCategories)
	viper.SetDefault("arxiv.max_results", source.ArxivMaxResults)
	viper.SetDefault("investment.feeds", source.DefaultFundingFeeds)
	viper.SetDefault("investment.watch_investor", report.DefaultBriefOptions().WatchInvestor)
	viper.SetDefault("investment.focus_keyword", report.DefaultBriefOptions().FocusKeyword)
	viper.SetDefault("investment.niche_tag", report.DefaultBriefOptions().NicheTag)
	viper.SetDefault("community.focus", monitor.DefaultFocusKeywords)
	viper.SetDefault("community.samples", true)
	viper.SetDefault("daemon.interval", monitor.DefaultInterval)
	viper.SetDefault("daemon.report_at", monitor.DefaultReportAt)
	viper.SetDefault("daemon.monitors", []string{monitor.NameArxiv, monitor.NameInvestment, monitor.NameCommunity})
	viper.SetDefault("metrics.addr", ":9464")
}

// initStorage opens the database and applies pending migrations.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func closeStorage(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

func outputDir() string {
	dir := viper.GetString("output.dir")
	if dir == "" {
		dir = defaultOutputDir
	}
	return config.ExpandPath(dir)
}

func location() (*time.Location, error) {
	name := viper.GetString("timezone")
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", common.ErrInvalidConfig, name, err)
	}
	return loc, nil
}

// loadEngine builds the engine for a monitor from <monitor>.taxonomy when it
// is set, otherwise from the built-in preset of the same name.
func loadEngine(preset string) (*relevance.Engine, error) {
	path := config.ExpandPath(viper.GetString(preset + ".taxonomy"))
	cfg, err := taxonomy.Resolve(path, preset)
	if err != nil {
		return nil, common.NewUserError("failed to load taxonomy", err)
	}
	return relevance.New(cfg)
}

// monitorSet holds everything needed to build the three monitors.
type monitorSet struct {
	storage  service.Storage
	recorder monitor.Recorder
	loc      *time.Location
	progress io.Writer
	// offline builds monitors for reporting only, without their sources.
	offline bool
}

func (s monitorSet) pipeline(name string, community bool) (*monitor.Pipeline, error) {
	engine, err := loadEngine(name)
	if err != nil {
		return nil, err
	}
	cfg := monitor.PipelineConfig{
		Name:     name,
		Engine:   engine,
		Storage:  s.storage,
		Recorder: s.recorder,
	}
	if community {
		cfg.Enrich = monitor.TagLanguage
		cfg.KeepIrrelevant = true
		cfg.TrackCompetitors = true
	}
	return monitor.NewPipeline(cfg)
}

func (s monitorSet) build(name string) (monitor.Monitor, error) {
	switch name {
	case monitor.NameArxiv:
		return s.arxiv()
	case monitor.NameInvestment:
		return s.investment()
	case monitor.NameCommunity:
		return s.community()
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownKind, name)
	}
}

func (s monitorSet) arxiv() (*monitor.ArxivMonitor, error) {
	p, err := s.pipeline(monitor.NameArxiv, false)
	if err != nil {
		return nil, err
	}

	var day time.Time
	if d := viper.GetString("arxiv.date"); d != "" {
		if day, err = time.ParseInLocation(model.DateLayout, d, time.UTC); err != nil {
			return nil, common.NewUserError("invalid --date, expected YYYY-MM-DD", err)
		}
	}

	client := source.NewArxivClient(source.ArxivConfig{})
	if s.progress != nil {
		bar := cli.NewFetchProgress(s.progress, "Fetching papers")
		client.OnProgress = bar.Update
	}

	return monitor.NewArxivMonitor(monitor.ArxivConfig{
		Day:        day,
		Client:     client,
		Pipeline:   p,
		Storage:    s.storage,
		OutputDir:  outputDir(),
		Categories: viper.GetStringSlice("arxiv.categories"),
		MaxResults: viper.GetInt("arxiv.max_results"),
		TopK:       viper.GetInt("arxiv.top_k"),
		TestMode:   viper.GetBool("arxiv.test_mode"),
		JSON:       viper.GetBool("output.json"),
	}), nil
}

func (s monitorSet) investment() (*monitor.InvestmentMonitor, error) {
	p, err := s.pipeline(monitor.NameInvestment, false)
	if err != nil {
		return nil, err
	}

	var sources []source.Source
	if viper.GetBool("investment.mock") {
		sources = append(sources, &source.MockFunding{})
	} else {
		sources = append(sources, source.NewFeedSource(source.FeedConfig{
			URLs:     viper.GetStringSlice("investment.feeds"),
			Keywords: source.FundingKeywords,
		}))
	}

	return monitor.NewInvestmentMonitor(monitor.InvestmentConfig{
		Pipeline:  p,
		Storage:   s.storage,
		OutputDir: outputDir(),
		Sources:   sources,
		Brief: report.BriefOptions{
			WatchInvestor: viper.GetString("investment.watch_investor"),
			FocusKeyword:  viper.GetString("investment.focus_keyword"),
			NicheTag:      viper.GetString("investment.niche_tag"),
		},
		JSON: viper.GetBool("output.json"),
	}), nil
}

func (s monitorSet) community() (*monitor.CommunityMonitor, error) {
	p, err := s.pipeline(monitor.NameCommunity, true)
	if err != nil {
		return nil, err
	}
	sources, err := s.communitySources()
	if err != nil {
		return nil, err
	}

	return monitor.NewCommunityMonitor(monitor.CommunityConfig{
		Location:  s.loc,
		Pipeline:  p,
		Storage:   s.storage,
		OutputDir: outputDir(),
		Sources:   sources,
		Focus:     viper.GetStringSlice("community.focus"),
		JSON:      viper.GetBool("output.json"),
	}), nil
}

func (s monitorSet) communitySources() ([]source.Source, error) {
	if s.offline {
		return nil, nil
	}
	var sources []source.Source
	if path := viper.GetString("community.input"); path != "" {
		sources = append(sources, &source.File{Path: config.ExpandPath(path), Location: s.loc})
	}
	if token := viper.GetString("telegram.token"); token != "" {
		tg, err := source.NewTelegramSource(token, source.TelegramConfig{
			Chats: viper.GetStringSlice("telegram.chats"),
		})
		if err != nil {
			return nil, err
		}
		sources = append(sources, tg)
	}
	if len(sources) == 0 {
		if !viper.GetBool("community.samples") {
			return nil, common.NewUserError("no community source configured",
				fmt.Errorf("%w: set community.input or telegram.token", common.ErrMissingConfig))
		}
		slog.Info("No community source configured, using sample messages")
		sources = append(sources, &source.Samples{})
	}
	return sources, nil
}

func printFiles(w io.Writer, files []report.Files) {
	for _, f := range files {
		fmt.Fprintln(w, cli.FormatSuccess("Report saved: "+f.Markdown))
		if f.JSON != "" {
			fmt.Fprintln(w, cli.FormatSubtle("  data: "+f.JSON))
		}
	}
}

func printRun(w io.Writer, run model.Run) {
	body := fmt.Sprintf("Fetched: %d\nRelevant: %d\nNew: %d\nDuplicates: %d",
		run.Stats.Fetched, run.Stats.Relevant, run.Stats.Admitted, run.Stats.Duplicates)
	if run.Stats.Mentions > 0 {
		body += fmt.Sprintf("\nCompetitor mentions: %d", run.Stats.Mentions)
	}
	fmt.Fprintln(w, cli.RenderBox(cli.ChartIcon+" "+run.Monitor+" cycle", body))
}
