package reactor

import "github.com/pthm-cable/fission/thermal"

// FuelTankState is the persisted form of a FuelTank.
type FuelTankState struct {
	Capacity int64   `json:"capacity"`
	Fuel     int64   `json:"fuel"`
	Waste    int64   `json:"waste"`
	Partial  float64 `json:"partial,omitempty"`
}

// CoolantTankState is the persisted form of a CoolantTank.
type CoolantTankState struct {
	Coolant  *Coolant `json:"coolant,omitempty"`
	Capacity int64    `json:"perSideCapacity"`
	Liquid   int64    `json:"liquidAmount"`
	Vapor    int64    `json:"vaporAmount"`
}

// BatteryState is the persisted form of a Battery.
type BatteryState struct {
	Capacity int64   `json:"capacity"`
	Stored   float64 `json:"stored"`
}

// State is everything about a simulation that is not derived from its
// structure. Temperatures are Celsius.
type State struct {
	FuelTank      FuelTankState    `json:"fuelTank"`
	CoolantTank   CoolantTankState `json:"coolantTank"`
	Battery       BatteryState     `json:"battery"`
	FuelFertility float64          `json:"fuelFertility"`
	FuelHeat      float64          `json:"fuelHeat"`
	ReactorHeat   float64          `json:"reactorHeat"`
}

// State captures the persisted state.
func (s *Simulation) State() State {
	st := State{
		FuelTank: FuelTankState{
			Capacity: s.fuelTank.capacity,
			Fuel:     s.fuelTank.fuel,
			Waste:    s.fuelTank.waste,
			Partial:  s.fuelTank.partial,
		},
		CoolantTank: CoolantTankState{
			Capacity: s.coolant.perSideCapacity,
			Liquid:   s.coolant.liquid,
			Vapor:    s.coolant.vapor,
		},
		Battery: BatteryState{
			Capacity: s.battery.capacity,
			Stored:   s.battery.stored,
		},
		FuelFertility: s.fuelFertility,
		FuelHeat:      s.FuelHeat(),
		ReactorHeat:   s.CaseHeat(),
	}
	if c, ok := s.coolant.Coolant(); ok {
		st.CoolantTank.Coolant = &c
	}
	return st
}

// Restore loads persisted state. Capacities are restored as saved; the next
// RecomputeDerivedValues replaces them with the structure's values.
func (s *Simulation) Restore(st State) {
	s.fuelTank = FuelTank{
		capacity: st.FuelTank.Capacity,
		fuel:     st.FuelTank.Fuel,
		waste:    st.FuelTank.Waste,
		partial:  st.FuelTank.Partial,
	}

	s.coolant.perSideCapacity = st.CoolantTank.Capacity
	s.coolant.liquid = st.CoolantTank.Liquid
	s.coolant.vapor = st.CoolantTank.Vapor
	if st.CoolantTank.Coolant != nil {
		s.coolant.coolant = *st.CoolantTank.Coolant
		s.coolant.hasCoolant = true
	} else {
		s.coolant.coolant = Coolant{}
		s.coolant.hasCoolant = false
	}

	s.battery.capacity = st.Battery.Capacity
	s.battery.stored = st.Battery.Stored

	s.fuelFertility = st.FuelFertility
	s.fuelHeat.SetTemperature(st.FuelHeat + thermal.CelsiusOffset)
	s.caseHeat.SetTemperature(st.ReactorHeat + thermal.CelsiusOffset)
}
