// Package components defines the ECS components of a reactor plant.
package components

import "github.com/pthm-cable/fission/reactor"

// Unit is a reactor instance owned by the plant.
type Unit struct {
	Name string
	Sim  *reactor.Simulation
}

// Feed is what the plant supplies to or draws from a unit each tick.
type Feed struct {
	LiquidPerTick int64   // coolant liquid topped up, active units
	LoadPerTick   float64 // battery energy drawn, passive units
}

// Output is the last tick's result for a unit.
type Output struct {
	Summary        reactor.Summary
	DeliveredRF    float64 // energy drawn from the battery after the tick
	DeliveredVapor int64   // vapor drained from the coolant tank after the tick
	Err            error
}
