package reactor

import (
	"testing"

	"github.com/pthm-cable/fission/config"
)

func newTransport(cfg *config.ReactorConfig, rods []ControlRod) *transport {
	return &transport{
		cfg:                cfg,
		rods:               rods,
		tempCoefficient:    1,
		hardnessMultiplier: 1 / cfg.FuelHardnessDivisor,
	}
}

func TestPerform_IntensityNeverNegative(t *testing.T) {
	cfg := config.Default().Reactor
	cfg.FuelAbsorptionCoefficient = 50
	tr := newTransport(&cfg, []ControlRod{{Insertion: 100}})

	hits := []Hit{
		{Kind: HitModerator, Absorption: 5, HeatEfficiency: 1, Moderation: 1, Length: 1},
		{Kind: HitManifold, Absorption: 5, HeatEfficiency: 1, Moderation: 1, Length: 1.4},
		{Kind: HitRod, Rod: 0, Length: 1},
		{Kind: HitNone, Length: 1},
	}
	for _, h := range hits {
		n := neutron{intensity: 10, hardness: 0}
		tr.perform(&n, &h)
		if n.intensity < 0 {
			t.Errorf("%+v left intensity %v", h, n.intensity)
		}
	}
}

func TestPerform_EmptyCellIsTransparent(t *testing.T) {
	cfg := config.Default().Reactor
	tr := newTransport(&cfg, nil)

	n := neutron{intensity: 3, hardness: 0.4}
	tr.perform(&n, &Hit{Kind: HitNone, Length: 1})
	if n.intensity != 3 || n.hardness != 0.4 || tr.acc != (irradiation{}) {
		t.Errorf("vacuum changed neutron to %+v, acc %+v", n, tr.acc)
	}
}

func TestPerform_ModeratorSoftensAndHeatsCasing(t *testing.T) {
	cfg := config.Default().Reactor
	tr := newTransport(&cfg, nil)

	n := neutron{intensity: 10, hardness: 0.5}
	tr.perform(&n, &Hit{Kind: HitModerator, Absorption: 0.2, HeatEfficiency: 0.5, Moderation: 2, Length: 1})

	// absorbed = 10 * 0.2 * 0.5 * 1 = 1
	if !approx(n.intensity, 9) {
		t.Errorf("intensity = %v, want 9", n.intensity)
	}
	if !approx(n.hardness, 0.25) {
		t.Errorf("hardness = %v, want 0.25", n.hardness)
	}
	if want := 0.5 * 1 * cfg.FEPerRadiationUnit; !approx(tr.acc.casingRF, want) {
		t.Errorf("casingRF = %v, want %v", tr.acc.casingRF, want)
	}
}

func TestPerform_InsertionNeverIncreasesThroughput(t *testing.T) {
	cfg := config.Default().Reactor
	rods := []ControlRod{{}}
	hit := Hit{Kind: HitRod, Rod: 0, Length: 1}

	prevFertility, prevIntensity := 0.0, 0.0
	for ins := 0.0; ins <= 100; ins += 5 {
		rods[0].Insertion = ins
		tr := newTransport(&cfg, rods)
		n := neutron{intensity: 10, hardness: 0.3}
		tr.perform(&n, &hit)

		if ins > 0 {
			if tr.acc.fertility > prevFertility {
				t.Errorf("insertion %v: fertility %v > %v at lower insertion", ins, tr.acc.fertility, prevFertility)
			}
			if n.intensity > prevIntensity {
				t.Errorf("insertion %v: remaining intensity %v > %v at lower insertion", ins, n.intensity, prevIntensity)
			}
		}
		prevFertility, prevIntensity = tr.acc.fertility, n.intensity
	}
}
