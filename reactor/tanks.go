package reactor

import (
	"math"

	"github.com/pthm-cable/fission/config"
	"github.com/pthm-cable/fission/thermal"
)

// FuelTank holds fuel and the waste it burns into.
// Burns smaller than a whole unit accumulate until a unit converts.
type FuelTank struct {
	capacity int64
	fuel     int64
	waste    int64
	partial  float64
}

func (f *FuelTank) Capacity() int64 { return f.capacity }
func (f *FuelTank) Fuel() int64     { return f.fuel }
func (f *FuelTank) Waste() int64    { return f.waste }

// SetCapacity changes the capacity. Existing contents are kept even if they exceed it.
func (f *FuelTank) SetCapacity(capacity int64) { f.capacity = capacity }

// Insert adds fuel up to the free space and returns how much was accepted.
func (f *FuelTank) Insert(amount int64) int64 {
	space := f.capacity - f.fuel - f.waste
	amount = max(0, min(amount, space))
	f.fuel += amount
	return amount
}

// ExtractFuel removes up to amount of fuel.
func (f *FuelTank) ExtractFuel(amount int64) int64 {
	amount = max(0, min(amount, f.fuel))
	f.fuel -= amount
	return amount
}

// ExtractWaste removes up to amount of waste.
func (f *FuelTank) ExtractWaste(amount int64) int64 {
	amount = max(0, min(amount, f.waste))
	f.waste -= amount
	return amount
}

// Burn converts up to amount of fuel into waste 1:1 and returns the amount consumed.
func (f *FuelTank) Burn(amount float64) float64 {
	if !(amount > 0) {
		return 0
	}
	available := float64(f.fuel) - f.partial
	if available <= 0 {
		return 0
	}
	amount = math.Min(amount, available)

	f.partial += amount
	whole := int64(f.partial)
	f.fuel -= whole
	f.waste += whole
	f.partial -= float64(whole)
	return amount
}

// OutputSink is where casing heat ends up: a passive battery or an active coolant tank.
type OutputSink interface {
	thermal.Body
	Capacity() int64
	// EnergyLastTick is the heat accepted during the last exchange, in RF.
	EnergyLastTick() float64
	resetTick()
}

// Battery is the passive sink. It sits at ambient temperature and turns
// absorbed heat into stored power until full.
type Battery struct {
	temperature       float64
	capacity          int64
	stored            float64
	generatedLastTick float64
}

var _ OutputSink = (*Battery)(nil)

func (b *Battery) Temperature() float64 { return b.temperature }
func (b *Battery) RFPerKelvin() float64 { return 0 }
func (b *Battery) Infinite() bool       { return true }

func (b *Battery) Capacity() int64            { return b.capacity }
func (b *Battery) Stored() float64            { return b.stored }
func (b *Battery) GeneratedLastTick() float64 { return b.generatedLastTick }
func (b *Battery) EnergyLastTick() float64    { return b.generatedLastTick }

// SetCapacity changes the capacity, discarding stored energy above it.
func (b *Battery) SetCapacity(capacity int64) {
	b.capacity = capacity
	b.stored = math.Min(b.stored, float64(capacity))
}

// AbsorbRF stores incoming heat as power. The battery never gives heat back.
func (b *Battery) AbsorbRF(rf float64) float64 {
	if !(rf > 0) {
		return 0
	}
	take := math.Min(rf, float64(b.capacity)-b.stored)
	if take <= 0 {
		return 0
	}
	b.stored += take
	b.generatedLastTick += take
	return take
}

// Extract removes up to amount of stored power.
func (b *Battery) Extract(amount float64) float64 {
	amount = math.Max(0, math.Min(amount, b.stored))
	b.stored -= amount
	return amount
}

func (b *Battery) resetTick() { b.generatedLastTick = 0 }

// Coolant is a fluid that boils in the coolant tank.
type Coolant struct {
	Name         string    `json:"name"`
	BoilingPoint float64   `json:"boilingPoint"` // Kelvin
	LatentHeat   float64   `json:"latentHeat"`   // RF per mB
	Liquid       Moderator `json:"liquid"`
}

// CoolantFrom converts a registry entry.
func CoolantFrom(c config.CoolantConfig) Coolant {
	return Coolant{
		Name:         c.Name,
		BoilingPoint: c.BoilingPoint + thermal.CelsiusOffset,
		LatentHeat:   c.LatentHeat,
		Liquid:       ModeratorFrom(c.Liquid),
	}
}

// neutralModerator leaves radiation untouched.
var neutralModerator = Moderator{Moderation: 1}

// CoolantTank is the active sink. It holds at the coolant's boiling point and
// absorbs heat by boiling liquid into vapor, limited by liquid on hand and
// vapor space.
type CoolantTank struct {
	coolant         Coolant
	hasCoolant      bool
	ambient         float64
	perSideCapacity int64
	liquid          int64
	vapor           int64

	transitionedLastTick    int64
	maxTransitionedLastTick int64
	rfTransferredLastTick   float64
}

var _ OutputSink = (*CoolantTank)(nil)

// Temperature is the boiling point, or ambient when no coolant is set.
func (c *CoolantTank) Temperature() float64 {
	if !c.hasCoolant {
		return c.ambient
	}
	return c.coolant.BoilingPoint
}

func (c *CoolantTank) RFPerKelvin() float64 { return 0 }
func (c *CoolantTank) Infinite() bool       { return true }

func (c *CoolantTank) Capacity() int64                { return c.perSideCapacity }
func (c *CoolantTank) Liquid() int64                  { return c.liquid }
func (c *CoolantTank) Vapor() int64                   { return c.vapor }
func (c *CoolantTank) TransitionedLastTick() int64    { return c.transitionedLastTick }
func (c *CoolantTank) MaxTransitionedLastTick() int64 { return c.maxTransitionedLastTick }
func (c *CoolantTank) RFTransferredLastTick() float64 { return c.rfTransferredLastTick }
func (c *CoolantTank) EnergyLastTick() float64        { return c.rfTransferredLastTick }

// Coolant returns the current coolant type, if any.
func (c *CoolantTank) Coolant() (Coolant, bool) {
	return c.coolant, c.hasCoolant
}

// SetCoolant selects the fluid. It fails while the tank still holds a different fluid.
func (c *CoolantTank) SetCoolant(coolant Coolant) error {
	if c.hasCoolant && c.coolant.Name != coolant.Name && (c.liquid > 0 || c.vapor > 0) {
		return ErrCoolantInUse
	}
	c.coolant = coolant
	c.hasCoolant = true
	return nil
}

// SetCapacity changes the per-side capacity, discarding fluid above it.
func (c *CoolantTank) SetCapacity(perSide int64) {
	c.perSideCapacity = perSide
	c.liquid = min(c.liquid, perSide)
	c.vapor = min(c.vapor, perSide)
}

// HeatConductivity is the liquid's conductivity, zero when the tank has no liquid.
func (c *CoolantTank) HeatConductivity() float64 {
	if !c.hasCoolant || c.liquid == 0 {
		return 0
	}
	return c.coolant.Liquid.HeatConductivity
}

// ModeratorProperties is what radiation meets inside a manifold: the
// coolant's liquid, or a neutral moderator when no coolant is selected.
// The amount of liquid on hand does not matter.
func (c *CoolantTank) ModeratorProperties() Moderator {
	if !c.hasCoolant {
		return neutralModerator
	}
	return c.coolant.Liquid
}

// InsertLiquid adds liquid up to capacity and returns how much was accepted.
func (c *CoolantTank) InsertLiquid(amount int64) int64 {
	if !c.hasCoolant {
		return 0
	}
	amount = max(0, min(amount, c.perSideCapacity-c.liquid))
	c.liquid += amount
	return amount
}

// ExtractVapor removes up to amount of vapor.
func (c *CoolantTank) ExtractVapor(amount int64) int64 {
	amount = max(0, min(amount, c.vapor))
	c.vapor -= amount
	return amount
}

// AbsorbRF boils whole mB of liquid with the offered heat and returns the
// heat actually used. The tank never gives heat back.
func (c *CoolantTank) AbsorbRF(rf float64) float64 {
	if !(rf > 0) || !c.hasCoolant || c.coolant.LatentHeat <= 0 {
		return 0
	}
	offered := int64(rf / c.coolant.LatentHeat)
	c.maxTransitionedLastTick += offered

	boiled := min(offered, c.liquid, c.perSideCapacity-c.vapor)
	if boiled <= 0 {
		return 0
	}
	c.liquid -= boiled
	c.vapor += boiled
	c.transitionedLastTick += boiled

	used := float64(boiled) * c.coolant.LatentHeat
	c.rfTransferredLastTick += used
	return used
}

func (c *CoolantTank) resetTick() {
	c.transitionedLastTick = 0
	c.maxTransitionedLastTick = 0
	c.rfTransferredLastTick = 0
}
