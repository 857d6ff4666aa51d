// Package reactor implements a discrete-time fission reactor core: a voxel
// moderator lattice, control rods, precomputed radiation rays and a small heat
// network between fuel, casing, output sink and ambient.
package reactor

import (
	"math"

	"github.com/pthm-cable/fission/config"
	"github.com/pthm-cable/fission/thermal"
)

// Summary is the read-only per-tick view of a simulation.
// Temperatures are Celsius.
type Summary struct {
	FuelConsumed   float64
	FuelRFAdded    float64
	CasingRFAdded  float64
	FertilityAdded float64

	EnergyProduced  float64 // RF accepted by the output sink
	Transitioned    int64   // mB boiled, active only
	MaxTransitioned int64   // mB that could have boiled given the heat offered

	FuelTemperature    float64
	CasingTemperature  float64
	AmbientTemperature float64

	Fertility float64 // efficiency factor, see Simulation.Fertility
	Fuel      int64
	Waste     int64
	Stored    float64 // battery contents, passive only
}

// Simulation is one reactor instance. It is not safe for concurrent use;
// separate instances share nothing mutable and may tick in parallel.
//
// Structural edits must be followed by RecomputeDerivedValues before the next Tick.
type Simulation struct {
	cfg config.ReactorConfig

	topology Topology
	coeff    Coefficients
	rays     RaySet

	fuelHeat    thermal.HeatBody
	caseHeat    thermal.HeatBody
	ambientHeat thermal.HeatBody

	fuelFertility float64
	passive       bool
	active        bool

	fuelTank FuelTank
	battery  Battery
	coolant  CoolantTank

	last Summary
}

// New creates an empty reactor with every body at ambient temperature.
// Call Resize before placing anything.
func New(cfg config.ReactorConfig) *Simulation {
	ambient := cfg.AmbientTemperature + thermal.CelsiusOffset
	s := &Simulation{
		cfg:           cfg,
		fuelFertility: 1,
		passive:       true,
	}
	s.fuelHeat.SetTemperature(ambient)
	s.caseHeat.SetTemperature(ambient)
	s.ambientHeat.SetTemperature(ambient)
	s.ambientHeat.SetInfinite(true)
	s.battery.temperature = ambient
	s.coolant.ambient = ambient
	return s
}

// Config returns the constant set the simulation was built with.
func (s *Simulation) Config() config.ReactorConfig { return s.cfg }

// Resize reallocates the interior and clears every cell and rod.
func (s *Simulation) Resize(x, y, z int) error {
	return s.topology.Resize(x, y, z)
}

// Dimensions returns the interior size.
func (s *Simulation) Dimensions() (x, y, z int) {
	return s.topology.Dimensions()
}

// SetModeratorCell places a moderator.
func (s *Simulation) SetModeratorCell(x, y, z int, m Moderator) error {
	return s.topology.SetModerator(x, y, z, m)
}

// SetManifoldCell marks a cell as coolant manifold.
func (s *Simulation) SetManifoldCell(x, y, z int) error {
	return s.topology.SetManifold(x, y, z)
}

// ClearCell empties a cell.
func (s *Simulation) ClearCell(x, y, z int) error {
	return s.topology.ClearCell(x, y, z)
}

// RegisterControlRod adds a fuel rod column.
func (s *Simulation) RegisterControlRod(x, z int) (int, error) {
	return s.topology.RegisterControlRod(x, z)
}

// SetControlRodInsertion sets one rod's insertion percent. Values are not
// clamped. Takes effect on the next tick without a recompute.
func (s *Simulation) SetControlRodInsertion(x, z int, insertion float64) error {
	return s.topology.SetInsertion(x, z, insertion)
}

// SetAllControlRodInsertions sets every rod, clamping to [0,100].
func (s *Simulation) SetAllControlRodInsertions(insertion float64) {
	s.topology.SetAllInsertions(insertion)
}

// ControlRods returns the registered rods in registration order. Do not modify.
func (s *Simulation) ControlRods() []ControlRod {
	return s.topology.Rods()
}

// Cell returns the cell at a position.
func (s *Simulation) Cell(x, y, z int) Cell {
	return s.topology.Cell(x, y, z)
}

// SetPassivelyCooled selects the battery (true) or the coolant tank (false)
// as the output sink. Requires a recompute.
func (s *Simulation) SetPassivelyCooled(passive bool) { s.passive = passive }

// IsPassive reports whether the battery is the output sink.
func (s *Simulation) IsPassive() bool { return s.passive }

// SetActive turns radiation on or off.
func (s *Simulation) SetActive(active bool) { s.active = active }

// IsActive reports whether the reactor radiates.
func (s *Simulation) IsActive() bool { return s.active }

// RecomputeDerivedValues rebuilds the heat network coefficients, capacities
// and ray set from the current topology. It does no work beyond that, so it
// can be called once after a batch of edits.
func (s *Simulation) RecomputeDerivedValues() {
	s.coeff = s.topology.Derive(s.cfg, s.passive)

	s.fuelHeat.SetRFPerKelvin(s.coeff.FuelRFPerKelvin)
	s.caseHeat.SetRFPerKelvin(s.coeff.CasingRFPerKelvin)
	s.fuelTank.SetCapacity(s.coeff.FuelCapacity)
	if s.passive {
		s.battery.SetCapacity(s.coeff.BatteryCapacity)
	}
	// Zero when passive, which empties the tank.
	s.coolant.SetCapacity(s.coeff.CoolantCapacity)

	s.rays = BuildRaySet(&s.topology, s.coolant.ModeratorProperties())
}

// Coefficients returns the values computed by the last recompute.
func (s *Simulation) Coefficients() Coefficients { return s.coeff }

// RaySet returns the ray set built by the last recompute.
func (s *Simulation) RaySet() *RaySet { return &s.rays }

// Output returns the sink currently exchanging heat with the casing.
func (s *Simulation) Output() OutputSink {
	if s.passive {
		return &s.battery
	}
	return &s.coolant
}

// FuelTank returns the fuel and waste store.
func (s *Simulation) FuelTank() *FuelTank { return &s.fuelTank }

// Battery returns the passive sink.
func (s *Simulation) Battery() *Battery { return &s.battery }

// CoolantTank returns the active sink.
func (s *Simulation) CoolantTank() *CoolantTank { return &s.coolant }

// Tick advances the simulation one step: radiation (when active), fertility
// decay, then the fuel-casing, output-casing and casing-ambient exchanges in
// that order.
//
// An active reactor without rods returns ErrNoControlRods and leaves all
// state untouched.
func (s *Simulation) Tick() error {
	if s.active && min(s.rays.Rods(), len(s.topology.rods)) == 0 {
		return ErrNoControlRods
	}

	output := s.Output()
	output.resetTick()

	var acc irradiation
	var consumed float64
	if s.active {
		acc = s.radiate()
		consumed = s.fuelTank.Burn(acc.fuelUsage)
	}

	denominator := s.cfg.FuelFertilityDecayDenominator
	if !s.active {
		denominator *= s.cfg.FuelFertilityDecayDenominatorInactiveMultiplier
	}
	s.fuelFertility = math.Max(0, s.fuelFertility-math.Max(s.cfg.FuelFertilityMinimumDecay, s.fuelFertility/denominator))

	thermal.Transfer(&s.fuelHeat, &s.caseHeat, s.coeff.FuelToCasingRFKT+s.coeff.FuelToManifoldSurfaceArea*s.coolant.HeatConductivity())
	thermal.Transfer(output, &s.caseHeat, s.coeff.CasingToOutputRFKT)
	thermal.Transfer(&s.caseHeat, &s.ambientHeat, s.coeff.CasingToAmbientRFKT)

	s.last = Summary{
		FuelConsumed:       consumed,
		FuelRFAdded:        acc.fuelRF,
		CasingRFAdded:      acc.casingRF,
		FertilityAdded:     acc.fertility,
		EnergyProduced:     output.EnergyLastTick(),
		Transitioned:       s.MBProducedLastTick(),
		MaxTransitioned:    s.MaxMBProductionLastTick(),
		FuelTemperature:    s.FuelHeat(),
		CasingTemperature:  s.CaseHeat(),
		AmbientTemperature: s.AmbientTemperature(),
		Fertility:          s.Fertility(),
		Fuel:               s.fuelTank.fuel,
		Waste:              s.fuelTank.waste,
		Stored:             s.battery.stored,
	}
	return nil
}

// Summary returns the scalars recorded by the last tick.
func (s *Simulation) Summary() Summary { return s.last }

// Fertility is the efficiency factor derived from raw fertility:
// 1 up to a raw value of 1, logarithmic above.
func (s *Simulation) Fertility() float64 {
	if s.fuelFertility <= 1 {
		return 1
	}
	return math.Log10(s.fuelFertility) + 1
}

// RawFertility is the accumulated fertility before the logarithmic mapping.
func (s *Simulation) RawFertility() float64 { return s.fuelFertility }

// FuelHeat returns the fuel temperature in Celsius.
func (s *Simulation) FuelHeat() float64 { return s.fuelHeat.Temperature() - thermal.CelsiusOffset }

// CaseHeat returns the casing temperature in Celsius.
func (s *Simulation) CaseHeat() float64 { return s.caseHeat.Temperature() - thermal.CelsiusOffset }

// AmbientTemperature returns the ambient temperature in Celsius.
func (s *Simulation) AmbientTemperature() float64 {
	return s.ambientHeat.Temperature() - thermal.CelsiusOffset
}

// FuelConsumptionLastTick is the fuel burned into waste by the last tick.
func (s *Simulation) FuelConsumptionLastTick() float64 { return s.last.FuelConsumed }

// FEProducedLastTick is the energy the battery gained. Zero when actively cooled.
func (s *Simulation) FEProducedLastTick() float64 {
	if !s.passive {
		return 0
	}
	return s.battery.generatedLastTick
}

// MBProducedLastTick is the vapor produced. Zero when passively cooled.
func (s *Simulation) MBProducedLastTick() int64 {
	if s.passive {
		return 0
	}
	return s.coolant.transitionedLastTick
}

// MaxMBProductionLastTick is the vapor that could have been produced given the heat offered.
func (s *Simulation) MaxMBProductionLastTick() int64 {
	if s.passive {
		return 0
	}
	return s.coolant.maxTransitionedLastTick
}

// OutputLastTick is FE for passive reactors and mB for active ones.
func (s *Simulation) OutputLastTick() float64 {
	if s.passive {
		return s.FEProducedLastTick()
	}
	return float64(s.MBProducedLastTick())
}
