package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Veraticus/intel-sieve/internal/cli"
	"github.com/Veraticus/intel-sieve/internal/config"
	"github.com/Veraticus/intel-sieve/internal/metrics"
	"github.com/Veraticus/intel-sieve/internal/monitor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const metricsShutdownTimeout = 5 * time.Second

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the monitors continuously or once",
		Long: `Run the configured monitors in sequence. By default the command keeps
running: a cycle starts immediately and then every --interval, and the daily
reports are written once per day after --report-at. Runner state is saved
to monitor_state.json on shutdown.

With --once a single cycle runs, due reports are written and the command
exits.`,
		Example: `  # One cycle of every monitor
  sieve run --once

  # Daemon with hourly cycles and reports at 08:30, metrics on :9464
  sieve run --interval 1h --report-at 08:30`,
		RunE: runRunner,
	}

	cmd.Flags().Bool("once", false, "run a single cycle and exit")
	cmd.Flags().Duration("interval", 0, "time between cycles (default 1h)")
	cmd.Flags().String("report-at", "", "daily report time HH:MM (default 09:00)")
	cmd.Flags().StringSlice("monitors", nil, "monitors to run (arxiv, investment, community)")
	cmd.Flags().String("state", "", "runner state file (default: <report dir>/monitor_state.json)")
	cmd.Flags().String("metrics-addr", "", "address for the Prometheus endpoint, empty disables it")

	_ = viper.BindPFlag("daemon.once", cmd.Flags().Lookup("once"))
	_ = viper.BindPFlag("daemon.interval", cmd.Flags().Lookup("interval"))
	_ = viper.BindPFlag("daemon.report_at", cmd.Flags().Lookup("report-at"))
	_ = viper.BindPFlag("daemon.monitors", cmd.Flags().Lookup("monitors"))
	_ = viper.BindPFlag("daemon.state_file", cmd.Flags().Lookup("state"))
	_ = viper.BindPFlag("metrics.addr", cmd.Flags().Lookup("metrics-addr"))

	return cmd
}

func runRunner(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	once := viper.GetBool("daemon.once")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	loc, err := location()
	if err != nil {
		return err
	}

	m := metrics.New()
	set := monitorSet{storage: store, recorder: m, loc: loc}
	var monitors []monitor.Monitor
	for _, name := range viper.GetStringSlice("daemon.monitors") {
		mon, buildErr := set.build(name)
		if buildErr != nil {
			return buildErr
		}
		monitors = append(monitors, mon)
	}

	statePath := viper.GetString("daemon.state_file")
	if statePath == "" {
		statePath = filepath.Join(outputDir(), monitor.StateFileName)
	}

	runner, err := monitor.NewRunner(monitor.RunnerConfig{
		Location:  loc,
		StatePath: config.ExpandPath(statePath),
		ReportAt:  viper.GetString("daemon.report_at"),
		Monitors:  monitors,
		Interval:  viper.GetDuration("daemon.interval"),
	})
	if err != nil {
		return err
	}

	if once {
		fmt.Fprintln(out, cli.FormatTitle("Running one cycle..."))
		runs, runErr := runner.Once(ctx)
		for _, run := range runs {
			printRun(out, run)
		}
		if runErr != nil {
			fmt.Fprintln(out, cli.FormatWarning(runErr.Error()))
		}
		return runErr
	}

	handler := cli.NewInterruptHandler(out, "Runner state is saved before exit.")
	ctx = handler.HandleInterrupts(ctx)

	if addr := viper.GetString("metrics.addr"); addr != "" {
		stop := serveMetrics(addr, m)
		defer stop()
	}

	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Running %d monitors, Ctrl+C to stop", len(monitors))))
	if err := runner.Daemon(ctx); err != nil {
		return err
	}

	st := runner.State()
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Stopped after %d cycles, %d new items", st.TotalRuns, st.TotalItems)))
	return nil
}

// serveMetrics exposes the registry on addr and returns a shutdown func.
func serveMetrics(addr string, m *metrics.Metrics) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("Metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Warn("Metrics server shutdown failed", "error", err)
		}
	}
}
