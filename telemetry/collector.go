package telemetry

import (
	"slices"

	"github.com/pthm-cable/fission/reactor"
)

// unitWindow accumulates one reactor's samples within a window.
type unitWindow struct {
	ticks  int
	errors int

	fuelConsumed    float64
	energyProduced  float64
	transitioned    int64
	maxTransitioned int64
	fertilityAdded  float64

	fuelTemps   []float64
	casingTemps []float64
	outputs     []float64

	last reactor.Summary
}

// Collector accumulates per-tick reactor summaries and produces WindowStats.
type Collector struct {
	windowDurationTicks int32
	windowStartTick     int32
	units               map[string]*unitWindow
}

// NewCollector creates a collector flushing every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowDurationTicks: int32(windowTicks),
		units:               make(map[string]*unitWindow),
	}
}

func (c *Collector) unit(name string) *unitWindow {
	u, ok := c.units[name]
	if !ok {
		u = &unitWindow{}
		c.units[name] = u
	}
	return u
}

// Record adds one tick of a reactor's results. output is the per-tick output
// in the reactor's own unit (RF for passive, mB for active).
func (c *Collector) Record(name string, s reactor.Summary, output float64) {
	u := c.unit(name)
	u.ticks++
	u.fuelConsumed += s.FuelConsumed
	u.energyProduced += s.EnergyProduced
	u.transitioned += s.Transitioned
	u.maxTransitioned += s.MaxTransitioned
	u.fertilityAdded += s.FertilityAdded
	u.fuelTemps = append(u.fuelTemps, s.FuelTemperature)
	u.casingTemps = append(u.casingTemps, s.CasingTemperature)
	u.outputs = append(u.outputs, output)
	u.last = s
}

// RecordError counts a failed tick.
func (c *Collector) RecordError(name string) {
	c.unit(name).errors++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces one WindowStats per reactor, sorted by name, and starts a new window.
func (c *Collector) Flush(currentTick int32) []WindowStats {
	names := make([]string, 0, len(c.units))
	for name := range c.units {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]WindowStats, 0, len(names))
	for _, name := range names {
		u := c.units[name]
		s := WindowStats{
			Reactor:         name,
			WindowStartTick: c.windowStartTick,
			WindowEndTick:   currentTick,
			Ticks:           u.ticks,
			Errors:          u.errors,
			FuelConsumed:    u.fuelConsumed,
			EnergyProduced:  u.energyProduced,
			Transitioned:    u.transitioned,
			MaxTransitioned: u.maxTransitioned,
			FertilityAdded:  u.fertilityAdded,
			Fertility:       u.last.Fertility,
			Fuel:            u.last.Fuel,
			Waste:           u.last.Waste,
			Stored:          u.last.Stored,
		}
		s.FuelTempMean, s.FuelTempStd, s.FuelTempP10, s.FuelTempP50, s.FuelTempP90 = Distribution(u.fuelTemps)
		s.CasingTempMean, _, _, _, _ = Distribution(u.casingTemps)
		s.OutputMean, s.OutputStd, s.OutputP10, s.OutputP50, s.OutputP90 = Distribution(u.outputs)
		out = append(out, s)

		// Keep the buffers for the next window.
		*u = unitWindow{
			fuelTemps:   u.fuelTemps[:0],
			casingTemps: u.casingTemps[:0],
			outputs:     u.outputs[:0],
		}
	}

	c.windowStartTick = currentTick
	return out
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
