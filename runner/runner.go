// Package runner drives a plant headlessly: it steps every reactor, flushes
// windowed telemetry, writes CSV output and saves periodic snapshots.
package runner

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/fission/components"
	"github.com/pthm-cable/fission/config"
	"github.com/pthm-cable/fission/layout"
	"github.com/pthm-cable/fission/plant"
	"github.com/pthm-cable/fission/telemetry"
)

// Options configures a Runner.
type Options struct {
	Workers          int
	LogStats         bool
	StatsWindowTicks int
	SnapshotDir      string
	SnapshotEvery    int
	OutputDir        string
	Metrics          *telemetry.Metrics
}

// Runner owns a plant and its telemetry sinks.
type Runner struct {
	cfg   *config.Config
	plant *plant.Plant

	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	metrics       *telemetry.Metrics

	logStats      bool
	snapshotDir   string
	snapshotEvery int32
	tickOffset    int32
}

// New builds a runner with one reactor per layout.
func New(cfg *config.Config, layouts []*layout.Layout, opts Options) (*Runner, error) {
	window := opts.StatsWindowTicks
	if window <= 0 {
		window = cfg.Telemetry.StatsWindow
	}

	r := &Runner{
		cfg:           cfg,
		plant:         plant.New(opts.Workers),
		collector:     telemetry.NewCollector(window),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		metrics:       opts.Metrics,
		logStats:      opts.LogStats,
		snapshotDir:   opts.SnapshotDir,
		snapshotEvery: int32(opts.SnapshotEvery),
	}
	r.plant.SetPerf(r.perfCollector)

	for _, l := range layouts {
		sim, err := l.Build(cfg)
		if err != nil {
			r.plant.Close()
			return nil, err
		}
		if err := r.plant.Add(l.Name, sim, FeedFor(cfg, l)); err != nil {
			r.plant.Close()
			return nil, err
		}
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		r.plant.Close()
		return nil, err
	}
	r.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}
	return r, nil
}

// FeedFor fills zero layout feed values from the runner defaults.
func FeedFor(cfg *config.Config, l *layout.Layout) components.Feed {
	feed := components.Feed{
		LiquidPerTick: l.Feed.LiquidPerTick,
		LoadPerTick:   l.Feed.LoadPerTick,
	}
	if feed.LiquidPerTick == 0 {
		feed.LiquidPerTick = cfg.Runner.LiquidPerTick
	}
	if feed.LoadPerTick == 0 {
		feed.LoadPerTick = cfg.Runner.LoadPerTick
	}
	return feed
}

// Restore loads each named reactor's state from a snapshot. Reactors absent
// from the snapshot keep their layout state.
func (r *Runner) Restore(snapshot *telemetry.Snapshot) {
	restored := 0
	for _, u := range r.plant.Units() {
		st, ok := snapshot.Find(u.Name)
		if !ok {
			slog.Warn("reactor not in snapshot", "reactor", u.Name)
			continue
		}
		active := u.Sim.IsActive()
		u.Sim.Restore(st)
		u.Sim.RecomputeDerivedValues()
		u.Sim.SetActive(active)
		restored++
	}
	r.tickOffset = snapshot.Tick
	slog.Info("snapshot restored", "tick", snapshot.Tick, "reactors", restored)
}

// Tick returns the simulation tick, including any restored offset.
func (r *Runner) Tick() int32 {
	return r.tickOffset + r.plant.Tick()
}

// Plant exposes the underlying plant.
func (r *Runner) Plant() *plant.Plant {
	return r.plant
}

// Step advances every reactor by one tick and handles telemetry.
// Reactor errors are recorded and returned but do not stop the other units.
func (r *Runner) Step() error {
	r.perfCollector.StartTick()
	start := time.Now()
	stepErr := r.plant.Step()
	r.metrics.ObserveStep(time.Since(start))

	r.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	r.record()
	r.flushTelemetry()

	r.perfCollector.StartPhase(telemetry.PhaseSnapshot)
	if r.snapshotEvery > 0 && r.Tick()%r.snapshotEvery == 0 {
		r.saveSnapshot()
	}
	r.perfCollector.EndTick()
	return stepErr
}

func (r *Runner) record() {
	for _, u := range r.plant.Units() {
		if u.Output.Err != nil {
			r.collector.RecordError(u.Name)
			r.metrics.ObserveError(u.Name)
			continue
		}
		output := u.Output.Summary.EnergyProduced
		if !u.Sim.IsPassive() {
			output = float64(u.Output.Summary.Transitioned)
		}
		r.collector.Record(u.Name, u.Output.Summary, output)
		r.metrics.Observe(u.Name, u.Output.Summary)
	}
}

// flushTelemetry writes a stats window once enough ticks have passed.
func (r *Runner) flushTelemetry() {
	tick := r.Tick()
	if !r.collector.ShouldFlush(tick) {
		return
	}

	stats := r.collector.Flush(tick)
	perfStats := r.perfCollector.Stats()

	if r.logStats {
		for _, s := range stats {
			s.LogStats()
		}
		perfStats.LogStats()
	}

	if err := r.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := r.outputManager.WritePerf(perfStats, tick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}

// Snapshot captures the state of every reactor.
func (r *Runner) Snapshot() *telemetry.Snapshot {
	snapshot := &telemetry.Snapshot{
		Version: telemetry.SnapshotVersion,
		Tick:    r.Tick(),
	}
	for _, u := range r.plant.Units() {
		snapshot.Reactors = append(snapshot.Reactors, telemetry.ReactorSnapshot{
			Name:  u.Name,
			State: u.Sim.State(),
		})
	}
	return snapshot
}

func (r *Runner) saveSnapshot() {
	if r.snapshotDir == "" {
		return
	}
	path, err := telemetry.SaveSnapshot(r.Snapshot(), r.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", r.Tick())
}

// Close saves a final snapshot and releases files and workers.
func (r *Runner) Close() error {
	r.saveSnapshot()
	r.plant.Close()
	if err := r.outputManager.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	return nil
}
