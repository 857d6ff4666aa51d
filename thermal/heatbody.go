// Package thermal models lumped heat bodies and the exchange of energy between them.
package thermal

import "math"

// CelsiusOffset converts between the Kelvin values held internally and the
// Celsius values shown to users and persisted.
const CelsiusOffset = 273.15

// Body is anything that can take part in a heat exchange.
type Body interface {
	Temperature() float64
	RFPerKelvin() float64
	Infinite() bool
	// AbsorbRF adds rf (negative to remove) and returns the amount actually taken.
	AbsorbRF(rf float64) float64
}

// HeatBody is a thermal node with a capacity and a temperature in Kelvin.
// An infinite body keeps its temperature no matter how much energy moves through it.
type HeatBody struct {
	temperature float64
	rfPerKelvin float64
	infinite    bool
}

// NewHeatBody creates a finite body at the given temperature (Kelvin).
func NewHeatBody(temperature, rfPerKelvin float64) *HeatBody {
	return &HeatBody{temperature: temperature, rfPerKelvin: rfPerKelvin}
}

// NewInfiniteBody creates an ambient sink pinned at the given temperature (Kelvin).
func NewInfiniteBody(temperature float64) *HeatBody {
	return &HeatBody{temperature: temperature, infinite: true}
}

func (h *HeatBody) Temperature() float64 { return h.temperature }
func (h *HeatBody) RFPerKelvin() float64 { return h.rfPerKelvin }
func (h *HeatBody) Infinite() bool       { return h.infinite }

// SetTemperature sets the temperature in Kelvin.
func (h *HeatBody) SetTemperature(kelvin float64) { h.temperature = kelvin }

// SetRFPerKelvin sets the heat capacity. Negative values are treated as zero.
func (h *HeatBody) SetRFPerKelvin(rfPerKelvin float64) {
	h.rfPerKelvin = math.Max(0, rfPerKelvin)
}

// SetInfinite toggles whether the body behaves as an ambient sink.
func (h *HeatBody) SetInfinite(infinite bool) { h.infinite = infinite }

// AbsorbRF changes the temperature by rf / capacity.
// Zero-capacity bodies cannot hold energy and absorb nothing.
func (h *HeatBody) AbsorbRF(rf float64) float64 {
	if h.infinite {
		return rf
	}
	if rf == 0 || h.rfPerKelvin == 0 || math.IsNaN(rf) {
		return 0
	}
	h.temperature += rf / h.rfPerKelvin
	return rf
}

// TransferWith exchanges heat with other through the given conductance.
// See Transfer.
func (h *HeatBody) TransferWith(other Body, rfPerKelvinTick float64) float64 {
	return Transfer(h, other, rfPerKelvinTick)
}

// Transfer moves heat between a and b for one tick through a conductance in
// RF per Kelvin per tick, and returns the RF that ended up in a (negative
// when a was the hotter side).
//
// The temperature difference relaxes exponentially, so a large conductance
// never overshoots the equilibrium. a is offered the energy first and b gives
// up exactly what a accepted, which keeps the exchange conserving when a is a
// sink that can refuse energy. A NaN amount (degenerate zero-capacity bodies)
// leaves both sides untouched.
func Transfer(a, b Body, rfPerKelvinTick float64) float64 {
	if a.Infinite() && b.Infinite() {
		return 0
	}
	delta := b.Temperature() - a.Temperature()
	if delta == 0 {
		return 0
	}

	inverse := inverseCapacity(a) + inverseCapacity(b)
	remaining := delta * math.Exp(-rfPerKelvinTick*inverse)
	rf := (delta - remaining) / inverse
	if math.IsNaN(rf) || math.IsInf(rf, 0) {
		return 0
	}

	taken := a.AbsorbRF(rf)
	b.AbsorbRF(-taken)
	return taken
}

func inverseCapacity(b Body) float64 {
	if b.Infinite() {
		return 0
	}
	return 1 / b.RFPerKelvin()
}
