package runner

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pthm-cable/fission/config"
	"github.com/pthm-cable/fission/layout"
	"github.com/pthm-cable/fission/reactor"
	"github.com/pthm-cable/fission/telemetry"
)

func testLayouts(t *testing.T) []*layout.Layout {
	t.Helper()
	docs := []string{
		"name: passive\ndims: [3, 2, 3]\nfill: graphite\nfuel: -1\nrods:\n  - {x: 1, z: 1, insertion: 0}\n",
		"name: boiler\ndims: [3, 2, 3]\npassive: false\ncoolant: water\nfuel: -1\nrods:\n  - {x: 1, z: 1, insertion: 20}\nmanifolds:\n  - [0, 0, 0]\n",
	}
	var out []*layout.Layout
	for _, d := range docs {
		l, err := layout.Parse([]byte(d))
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, l)
	}
	return out
}

func TestRunner_StepWritesTelemetryAndSnapshots(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()
	reg := prometheus.NewRegistry()
	metrics, err := telemetry.NewMetrics(reg)
	if err != nil {
		t.Fatal(err)
	}

	r, err := New(cfg, testLayouts(t), Options{
		Workers:          2,
		StatsWindowTicks: 10,
		OutputDir:        filepath.Join(dir, "out"),
		SnapshotDir:      filepath.Join(dir, "snap"),
		SnapshotEvery:    15,
		Metrics:          metrics,
	})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 30; i++ {
		if err := r.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if r.Tick() != 30 {
		t.Errorf("Tick() = %d, want 30", r.Tick())
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "out", "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	// header + 3 windows x 2 reactors
	if n := len(strings.Split(strings.TrimSpace(string(data)), "\n")); n != 7 {
		t.Errorf("telemetry.csv lines = %d, want 7:\n%s", n, data)
	}

	for _, name := range []string{"snapshot_15.json", "snapshot_30.json"} {
		if _, err := os.Stat(filepath.Join(dir, "snap", name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}

	if got := testutil.ToFloat64(metrics.FuelConsumed.WithLabelValues("passive")); got <= 0 {
		t.Errorf("passive fuel consumed metric = %v, want > 0", got)
	}
}

func TestRunner_RestoreResumesTick(t *testing.T) {
	cfg := config.Default()
	first, err := New(cfg, testLayouts(t), Options{Workers: 1, StatsWindowTicks: 100})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		if err := first.Step(); err != nil {
			t.Fatal(err)
		}
	}
	snapshot := first.Snapshot()
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second, err := New(cfg, testLayouts(t), Options{Workers: 1, StatsWindowTicks: 100})
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()
	second.Restore(snapshot)

	if second.Tick() != 20 {
		t.Errorf("Tick() after restore = %d, want 20", second.Tick())
	}
	for _, u := range second.Plant().Units() {
		want, _ := snapshot.Find(u.Name)
		if got := u.Sim.FuelTank().Waste(); got != want.FuelTank.Waste {
			t.Errorf("%s waste = %d, want %d", u.Name, got, want.FuelTank.Waste)
		}
		if got := u.Sim.RawFertility(); got != want.FuelFertility {
			t.Errorf("%s fertility = %v, want %v", u.Name, got, want.FuelFertility)
		}
	}
}

func TestFeedFor_FallsBackToRunnerDefaults(t *testing.T) {
	cfg := config.Default()
	l := &layout.Layout{Name: "x", Feed: layout.Feed{LiquidPerTick: 7}}
	feed := FeedFor(cfg, l)
	if feed.LiquidPerTick != 7 {
		t.Errorf("LiquidPerTick = %d, want 7", feed.LiquidPerTick)
	}
	if feed.LoadPerTick != cfg.Runner.LoadPerTick {
		t.Errorf("LoadPerTick = %v, want runner default %v", feed.LoadPerTick, cfg.Runner.LoadPerTick)
	}
}

// firstManifoldHit returns the first manifold hit in a reactor's ray set.
func firstManifoldHit(sim *reactor.Simulation) (reactor.Hit, error) {
	rs := sim.RaySet()
	for r := 0; r < rs.Rods(); r++ {
		for _, ray := range rs.RodRays(r) {
			for h := 0; h < ray.Count; h++ {
				if ray.Hits[h].Kind == reactor.HitManifold {
					return ray.Hits[h], nil
				}
			}
		}
	}
	return reactor.Hit{}, errors.New("no manifold hit")
}

func TestRunner_ManifoldHitsCarryCoolantAcrossRestore(t *testing.T) {
	cfg := config.Default()
	water, _ := cfg.Coolant("water")
	liquid := reactor.CoolantFrom(water).Liquid

	boiler, err := layout.Load(filepath.Join("..", "layouts", "boiler-5x5.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	live, err := New(cfg, []*layout.Layout{boiler}, Options{Workers: 1, StatsWindowTicks: 1000})
	if err != nil {
		t.Fatal(err)
	}
	defer live.Close()

	sim, _ := live.Plant().Sim(boiler.Name)
	hit, err := firstManifoldHit(sim)
	if err != nil {
		t.Fatal(err)
	}
	if hit.Moderation != liquid.Moderation || hit.Absorption != liquid.Absorption || hit.HeatEfficiency != liquid.HeatEfficiency {
		t.Errorf("freshly built manifold hit = %+v, want water liquid %+v", hit, liquid)
	}

	for i := 0; i < 30; i++ {
		if err := live.Step(); err != nil {
			t.Fatal(err)
		}
	}

	restored, err := New(cfg, []*layout.Layout{boiler}, Options{Workers: 1, StatsWindowTicks: 1000})
	if err != nil {
		t.Fatal(err)
	}
	defer restored.Close()
	restored.Restore(live.Snapshot())

	rsim, _ := restored.Plant().Sim(boiler.Name)
	after, err := firstManifoldHit(rsim)
	if err != nil {
		t.Fatal(err)
	}
	if after != hit {
		t.Errorf("restored manifold hit = %+v, want %+v", after, hit)
	}

	for i := 0; i < 20; i++ {
		if err := live.Step(); err != nil {
			t.Fatal(err)
		}
		if err := restored.Step(); err != nil {
			t.Fatal(err)
		}
	}
	a, b := sim.State(), rsim.State()
	if a.FuelTank.Fuel != b.FuelTank.Fuel || a.FuelTank.Waste != b.FuelTank.Waste {
		t.Errorf("restored run diverged: live fuel/waste %d/%d, restored %d/%d",
			a.FuelTank.Fuel, a.FuelTank.Waste, b.FuelTank.Fuel, b.FuelTank.Waste)
	}
	if math.Abs(a.FuelHeat-b.FuelHeat) > 1e-6 || math.Abs(a.FuelFertility-b.FuelFertility) > 1e-6 {
		t.Errorf("restored run diverged: live %.9f C / %.9f, restored %.9f C / %.9f",
			a.FuelHeat, a.FuelFertility, b.FuelHeat, b.FuelFertility)
	}
}
