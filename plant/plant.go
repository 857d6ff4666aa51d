// Package plant runs a fleet of independent reactors. Units live as entities in
// an ark ECS world and tick concurrently; each reactor is touched by exactly one
// goroutine per step.
package plant

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/fission/components"
	"github.com/pthm-cable/fission/reactor"
	"github.com/pthm-cable/fission/telemetry"
)

// unitSnapshot pairs an entity with the simulation it ticks.
type unitSnapshot struct {
	entity ecs.Entity
	sim    *reactor.Simulation
	err    error
}

// Plant owns the ECS world holding every reactor unit.
type Plant struct {
	world *ecs.World

	unitMapper *ecs.Map3[components.Unit, components.Feed, components.Output]
	unitFilter *ecs.Filter3[components.Unit, components.Feed, components.Output]
	unitMap    *ecs.Map1[components.Unit]
	feedMap    *ecs.Map1[components.Feed]
	outputMap  *ecs.Map1[components.Output]

	byName    map[string]ecs.Entity
	order     []string
	snapshots []unitSnapshot
	pool      *workerPool
	perf      *telemetry.PerfCollector
	tick      int32
}

// New creates an empty plant. workers <= 0 uses GOMAXPROCS.
func New(workers int) *Plant {
	world := ecs.NewWorld()
	return &Plant{
		world:      world,
		unitMapper: ecs.NewMap3[components.Unit, components.Feed, components.Output](world),
		unitFilter: ecs.NewFilter3[components.Unit, components.Feed, components.Output](world),
		unitMap:    ecs.NewMap1[components.Unit](world),
		feedMap:    ecs.NewMap1[components.Feed](world),
		outputMap:  ecs.NewMap1[components.Output](world),
		byName:     make(map[string]ecs.Entity),
		pool:       newWorkerPool(workers),
	}
}

// Add registers a reactor under a unique name.
func (p *Plant) Add(name string, sim *reactor.Simulation, feed components.Feed) error {
	if _, ok := p.byName[name]; ok {
		return fmt.Errorf("plant: unit %q already exists", name)
	}
	unit := components.Unit{Name: name, Sim: sim}
	out := components.Output{}
	p.byName[name] = p.unitMapper.NewEntity(&unit, &feed, &out)
	p.order = append(p.order, name)
	return nil
}

// Remove drops a unit. Unknown names are ignored.
func (p *Plant) Remove(name string) {
	e, ok := p.byName[name]
	if !ok {
		return
	}
	if p.world.Alive(e) {
		p.world.RemoveEntity(e)
	}
	delete(p.byName, name)
	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// SetPerf attaches a collector timing the tick and feed phases of Step.
func (p *Plant) SetPerf(perf *telemetry.PerfCollector) {
	p.perf = perf
}

func (p *Plant) startPhase(phase string) {
	if p.perf != nil {
		p.perf.StartPhase(phase)
	}
}

// Sim returns the simulation registered under name.
func (p *Plant) Sim(name string) (*reactor.Simulation, bool) {
	e, ok := p.byName[name]
	if !ok || !p.world.Alive(e) {
		return nil, false
	}
	return p.unitMap.Get(e).Sim, true
}

// Len returns the number of units.
func (p *Plant) Len() int { return len(p.order) }

// Tick returns the number of completed steps.
func (p *Plant) Tick() int32 { return p.tick }

// Step ticks every unit once, then applies the plant feed to each and records
// its output. Reactor errors are joined; the failing unit skips its feed.
func (p *Plant) Step() error {
	// Phase A: collect units (single-threaded)
	p.snapshots = p.snapshots[:0]
	query := p.unitFilter.Query()
	for query.Next() {
		unit, _, _ := query.Get()
		p.snapshots = append(p.snapshots, unitSnapshot{entity: query.Entity(), sim: unit.Sim})
	}

	// Phase B: tick (parallel, each reactor owned by one worker)
	p.startPhase(telemetry.PhaseTick)
	p.pool.run(len(p.snapshots), p.tickRange)

	// Phase C: feed and record (single-threaded)
	p.startPhase(telemetry.PhaseFeed)
	var errs []error
	for i := range p.snapshots {
		snap := &p.snapshots[i]
		unit := p.unitMap.Get(snap.entity)
		out := p.outputMap.Get(snap.entity)
		out.Err = snap.err
		if snap.err != nil {
			errs = append(errs, fmt.Errorf("unit %s: %w", unit.Name, snap.err))
			continue
		}
		feed := p.feedMap.Get(snap.entity)
		out.Summary = snap.sim.Summary()
		out.DeliveredRF, out.DeliveredVapor = ApplyFeed(snap.sim, feed)
	}
	p.tick++

	if len(errs) > 0 {
		err := errors.Join(errs...)
		slog.Warn("plant step had failing units", "tick", p.tick, "failed", len(errs), "error", err)
		return err
	}
	return nil
}

func (p *Plant) tickRange(start, end int) {
	for i := start; i < end; i++ {
		p.snapshots[i].err = p.snapshots[i].sim.Tick()
	}
}

// ApplyFeed drains the sink and tops up coolant the way an external consumer would.
func ApplyFeed(sim *reactor.Simulation, feed *components.Feed) (rf float64, vapor int64) {
	if sim.IsPassive() {
		return sim.Battery().Extract(feed.LoadPerTick), 0
	}
	tank := sim.CoolantTank()
	vapor = tank.ExtractVapor(tank.Vapor())
	tank.InsertLiquid(feed.LiquidPerTick)
	return 0, vapor
}

// UnitView is a read-only copy of one unit's state after the last step.
type UnitView struct {
	Name   string
	Sim    *reactor.Simulation
	Feed   components.Feed
	Output components.Output
}

// Units returns every unit in the order they were added.
func (p *Plant) Units() []UnitView {
	views := make([]UnitView, 0, len(p.order))
	for _, name := range p.order {
		e := p.byName[name]
		if !p.world.Alive(e) {
			continue
		}
		views = append(views, UnitView{
			Name:   name,
			Sim:    p.unitMap.Get(e).Sim,
			Feed:   *p.feedMap.Get(e),
			Output: *p.outputMap.Get(e),
		})
	}
	return views
}

// Close stops the worker goroutines.
func (p *Plant) Close() {
	p.pool.stop()
}
