package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pthm-cable/fission/config"
	"github.com/pthm-cable/fission/layout"
	"github.com/pthm-cable/fission/runner"
	"github.com/pthm-cable/fission/telemetry"
)

// layoutFlags collects repeated --layout values.
type layoutFlags []string

func (l *layoutFlags) String() string     { return strings.Join(*l, ",") }
func (l *layoutFlags) Set(v string) error { *l = append(*l, v); return nil }

func main() {
	// CLI flags
	var layoutPaths layoutFlags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	flag.Var(&layoutPaths, "layout", "Reactor layout YAML (repeatable; default = layouts/*.yaml)")
	maxTicks := flag.Int("max-ticks", -1, "Stop after N ticks (0 = unlimited, -1 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	restorePath := flag.String("restore", "", "Snapshot file to resume from")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in ticks (0 = use config)")
	workers := flag.Int("workers", 0, "Reactor tick workers (0 = GOMAXPROCS)")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (empty = disabled)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if len(layoutPaths) == 0 {
		matches, _ := filepath.Glob(filepath.Join("layouts", "*.yaml"))
		layoutPaths = matches
	}
	if len(layoutPaths) == 0 {
		slog.Error("no layouts given")
		os.Exit(1)
	}
	var layouts []*layout.Layout
	for _, path := range layoutPaths {
		l, err := layout.Load(path)
		if err != nil {
			slog.Error("failed to load layout", "error", err)
			os.Exit(1)
		}
		layouts = append(layouts, l)
	}

	var metrics *telemetry.Metrics
	if *metricsAddr != "" {
		m, err := telemetry.NewMetrics(nil)
		if err != nil {
			slog.Error("failed to register metrics", "error", err)
			os.Exit(1)
		}
		metrics = m
	}

	r, err := runner.New(cfg, layouts, runner.Options{
		Workers:          *workers,
		LogStats:         *logStats,
		StatsWindowTicks: *statsWindow,
		SnapshotDir:      *snapshotDir,
		SnapshotEvery:    cfg.Runner.SnapshotEvery,
		OutputDir:        *outputDir,
		Metrics:          metrics,
	})
	if err != nil {
		slog.Error("failed to build plant", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := r.Close(); err != nil {
			slog.Error("failed to close runner", "error", err)
		}
	}()

	if *restorePath != "" {
		snapshot, err := telemetry.LoadSnapshot(*restorePath)
		if err != nil {
			slog.Error("failed to load snapshot", "error", err)
			os.Exit(1)
		}
		r.Restore(snapshot)
	}

	if metrics != nil {
		srv := &http.Server{Addr: *metricsAddr, Handler: metricsMux(metrics)}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		slog.Info("serving metrics", "addr", *metricsAddr)
	}

	limit := cfg.Runner.MaxTicks
	if *maxTicks >= 0 {
		limit = *maxTicks
	}

	slog.Info("starting simulation",
		"reactors", len(layouts),
		"max_ticks", limit,
		"stats_window", *statsWindow,
	)

	start := r.Tick()
	for {
		if err := r.Step(); err != nil {
			slog.Debug("step had errors", "tick", r.Tick(), "error", err)
		}
		if limit > 0 && int(r.Tick()-start) >= limit {
			slog.Info("max ticks reached", "tick", r.Tick())
			return
		}
	}
}

func metricsMux(m *telemetry.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}
