package plant

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pthm-cable/fission/components"
	"github.com/pthm-cable/fission/config"
	"github.com/pthm-cable/fission/reactor"
)

func newUnit(t *testing.T, cfg config.ReactorConfig, fuel int64) *reactor.Simulation {
	t.Helper()
	sim := reactor.New(cfg)
	if err := sim.Resize(1, 2, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := sim.RegisterControlRod(0, 0); err != nil {
		t.Fatal(err)
	}
	sim.RecomputeDerivedValues()
	sim.FuelTank().Insert(fuel)
	sim.SetActive(true)
	return sim
}

func TestPlant_ParallelMatchesSerial(t *testing.T) {
	cfg := config.Default().Reactor

	parallel := New(4)
	defer parallel.Close()
	var serial []*reactor.Simulation

	for i := 0; i < 12; i++ {
		fuel := int64(1000 + 500*i)
		if err := parallel.Add(fmt.Sprintf("r%d", i), newUnit(t, cfg, fuel), components.Feed{LoadPerTick: 100}); err != nil {
			t.Fatal(err)
		}
		serial = append(serial, newUnit(t, cfg, fuel))
	}

	for step := 0; step < 50; step++ {
		if err := parallel.Step(); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		for _, sim := range serial {
			if err := sim.Tick(); err != nil {
				t.Fatal(err)
			}
			sim.Battery().Extract(100)
		}
	}

	if parallel.Tick() != 50 {
		t.Errorf("Tick() = %d, want 50", parallel.Tick())
	}
	for i, u := range parallel.Units() {
		want := serial[i].State()
		if got := u.Sim.State(); got != want {
			t.Errorf("unit %s state = %+v, want %+v", u.Name, got, want)
		}
		if u.Output.Summary != serial[i].Summary() {
			t.Errorf("unit %s summary differs from serial run", u.Name)
		}
	}
}

func TestPlant_JoinsUnitErrors(t *testing.T) {
	cfg := config.Default().Reactor
	p := New(1)
	defer p.Close()

	broken := reactor.New(cfg)
	if err := broken.Resize(1, 1, 1); err != nil {
		t.Fatal(err)
	}
	broken.RecomputeDerivedValues()
	broken.SetActive(true)

	if err := p.Add("ok", newUnit(t, cfg, 1000), components.Feed{}); err != nil {
		t.Fatal(err)
	}
	if err := p.Add("broken", broken, components.Feed{}); err != nil {
		t.Fatal(err)
	}

	err := p.Step()
	if !errors.Is(err, reactor.ErrNoControlRods) {
		t.Fatalf("Step err = %v, want ErrNoControlRods", err)
	}
	for _, u := range p.Units() {
		if (u.Output.Err != nil) != (u.Name == "broken") {
			t.Errorf("unit %s Err = %v", u.Name, u.Output.Err)
		}
	}
}

func TestPlant_AddRemove(t *testing.T) {
	p := New(1)
	defer p.Close()
	sim := newUnit(t, config.Default().Reactor, 0)

	if err := p.Add("a", sim, components.Feed{}); err != nil {
		t.Fatal(err)
	}
	if err := p.Add("a", sim, components.Feed{}); err == nil {
		t.Error("duplicate name accepted")
	}
	if got, ok := p.Sim("a"); !ok || got != sim {
		t.Errorf("Sim(a) = %p, %v", got, ok)
	}

	p.Remove("a")
	if p.Len() != 0 {
		t.Errorf("Len() = %d after remove, want 0", p.Len())
	}
	if _, ok := p.Sim("a"); ok {
		t.Error("removed unit still found")
	}
}

func TestApplyFeed_ActiveDrainsVapor(t *testing.T) {
	cfg := config.Default()
	water, _ := cfg.Coolant("water")
	sim := reactor.New(cfg.Reactor)
	if err := sim.Resize(1, 1, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := sim.RegisterControlRod(0, 0); err != nil {
		t.Fatal(err)
	}
	sim.SetPassivelyCooled(false)
	if err := sim.CoolantTank().SetCoolant(reactor.CoolantFrom(water)); err != nil {
		t.Fatal(err)
	}
	sim.RecomputeDerivedValues()
	sim.CoolantTank().InsertLiquid(100)
	sim.CoolantTank().AbsorbRF(40 * water.LatentHeat)

	rf, vapor := ApplyFeed(sim, &components.Feed{LiquidPerTick: 50})
	if rf != 0 || vapor != 40 {
		t.Errorf("ApplyFeed = %v, %d; want 0, 40", rf, vapor)
	}
	if got := sim.CoolantTank().Liquid(); got != 110 {
		t.Errorf("liquid = %d, want 110", got)
	}
}
