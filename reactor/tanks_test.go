package reactor

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/fission/thermal"
)

func TestFuelTank_BurnClampsToFuel(t *testing.T) {
	f := FuelTank{capacity: 100}
	if got := f.Insert(150); got != 100 {
		t.Fatalf("Insert(150) = %d, want 100", got)
	}
	f.ExtractFuel(97)

	if got := f.Burn(10); got != 3 {
		t.Errorf("Burn(10) = %v, want 3", got)
	}
	if f.Fuel() != 0 || f.Waste() != 3 {
		t.Errorf("fuel=%d waste=%d, want 0 and 3", f.Fuel(), f.Waste())
	}
	if got := f.Burn(1); got != 0 {
		t.Errorf("Burn on empty tank = %v, want 0", got)
	}
}

func TestFuelTank_FractionalBurnAccumulates(t *testing.T) {
	f := FuelTank{capacity: 10}
	f.Insert(10)

	for i := 0; i < 4; i++ {
		f.Burn(0.25)
	}
	if f.Fuel() != 9 || f.Waste() != 1 {
		t.Errorf("after 4x0.25: fuel=%d waste=%d, want 9 and 1", f.Fuel(), f.Waste())
	}
	if got := f.Burn(math.NaN()); got != 0 {
		t.Errorf("Burn(NaN) = %v, want 0", got)
	}
}

func TestBattery_StoresUpToCapacity(t *testing.T) {
	b := Battery{temperature: 293.15}
	b.SetCapacity(100)

	if got := b.AbsorbRF(60); got != 60 {
		t.Errorf("AbsorbRF(60) = %v, want 60", got)
	}
	if got := b.AbsorbRF(60); got != 40 {
		t.Errorf("AbsorbRF(60) when nearly full = %v, want 40", got)
	}
	if got := b.AbsorbRF(-10); got != 0 {
		t.Errorf("AbsorbRF(-10) = %v, want 0", got)
	}
	if b.GeneratedLastTick() != 100 {
		t.Errorf("GeneratedLastTick = %v, want 100", b.GeneratedLastTick())
	}
	if got := b.Extract(30); got != 30 || b.Stored() != 70 {
		t.Errorf("Extract(30) = %v, stored %v; want 30, 70", got, b.Stored())
	}
}

func TestBattery_TransferDrainsCasing(t *testing.T) {
	b := Battery{temperature: 293.15}
	b.SetCapacity(1_000_000)
	casing := thermal.NewHeatBody(500, 100)

	taken := thermal.Transfer(&b, casing, 10)
	if taken <= 0 {
		t.Fatalf("battery took %v, want positive", taken)
	}
	if b.Temperature() != 293.15 {
		t.Errorf("battery temperature moved to %v", b.Temperature())
	}
	if want := 500 - taken/100; math.Abs(casing.Temperature()-want) > 1e-9 {
		t.Errorf("casing temperature = %v, want %v", casing.Temperature(), want)
	}
}

func TestCoolantTank_Boils(t *testing.T) {
	water := Coolant{Name: "water", BoilingPoint: 373.15, LatentHeat: 4}
	c := CoolantTank{ambient: 293.15}

	if c.Temperature() != 293.15 {
		t.Errorf("empty tank temperature = %v, want ambient", c.Temperature())
	}
	if err := c.SetCoolant(water); err != nil {
		t.Fatal(err)
	}
	c.SetCapacity(100)
	if got := c.InsertLiquid(500); got != 100 {
		t.Fatalf("InsertLiquid(500) = %d, want 100", got)
	}

	used := c.AbsorbRF(41)
	if used != 40 || c.Liquid() != 90 || c.Vapor() != 10 {
		t.Errorf("AbsorbRF(41) used=%v liquid=%d vapor=%d, want 40, 90, 10", used, c.Liquid(), c.Vapor())
	}

	// Offer far more than the liquid on hand.
	c.AbsorbRF(4000)
	if c.Liquid() != 0 || c.Vapor() != 100 {
		t.Errorf("liquid=%d vapor=%d, want 0 and 100", c.Liquid(), c.Vapor())
	}
	if c.TransitionedLastTick() != 100 {
		t.Errorf("TransitionedLastTick = %d, want 100", c.TransitionedLastTick())
	}
	if c.MaxTransitionedLastTick() != 1010 {
		t.Errorf("MaxTransitionedLastTick = %d, want 1010", c.MaxTransitionedLastTick())
	}
	if c.HeatConductivity() != 0 {
		t.Errorf("HeatConductivity with no liquid = %v, want 0", c.HeatConductivity())
	}
	if got := c.ModeratorProperties(); got != c.coolant.Liquid {
		t.Errorf("ModeratorProperties with no liquid = %+v, want coolant liquid %+v", got, c.coolant.Liquid)
	}

	if err := c.SetCoolant(Coolant{Name: "ammonia"}); !errors.Is(err, ErrCoolantInUse) {
		t.Errorf("SetCoolant with vapor present err = %v, want ErrCoolantInUse", err)
	}
	c.ExtractVapor(100)
	if err := c.SetCoolant(Coolant{Name: "ammonia"}); err != nil {
		t.Errorf("SetCoolant on empty tank err = %v", err)
	}
}
