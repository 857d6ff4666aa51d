package reactor

import (
	"math"

	"github.com/pthm-cable/fission/config"
	"github.com/pthm-cable/fission/thermal"
)

// insertionScale converts rod insertion percent into the factor used on rod hits.
const insertionScale = 0.001

// neutron is the in-flight state of one ray.
type neutron struct {
	intensity float64
	hardness  float64
}

// irradiation accumulates one tick's radiation results across all rods.
type irradiation struct {
	fuelUsage float64
	fuelRF    float64
	fertility float64
	casingRF  float64
}

// transport walks rays for one tick. The temperature curves are evaluated
// once per tick and shared by every hit.
type transport struct {
	cfg                *config.ReactorConfig
	rods               []ControlRod
	tempCoefficient    float64
	hardnessMultiplier float64
	acc                irradiation
}

// perform applies one hit to a neutron and accumulates its effects.
func (tr *transport) perform(n *neutron, hit *Hit) {
	switch hit.Kind {
	case HitModerator, HitManifold:
		absorbed := n.intensity * hit.Absorption * (1 - n.hardness) * hit.Length
		n.intensity = math.Max(0, n.intensity-absorbed)
		n.hardness /= (hit.Moderation-1)*hit.Length + 1
		tr.acc.casingRF += hit.HeatEfficiency * absorbed * tr.cfg.FEPerRadiationUnit

	case HitRod:
		if hit.Rod >= len(tr.rods) {
			return
		}
		insertion := tr.rods[hit.Rod].Insertion * insertionScale

		baseAbsorption := tr.tempCoefficient * (1 - n.hardness*tr.hardnessMultiplier)
		scaledAbsorption := baseAbsorption * tr.cfg.FuelAbsorptionCoefficient * hit.Length

		// Inserted rods absorb more in total but let less of it fertilize the fuel.
		bonus := (1 - scaledAbsorption) * insertion * 0.5
		penalty := scaledAbsorption * insertion * 0.5
		radiationAbsorbed := (scaledAbsorption + bonus) * n.intensity
		fertilityAbsorbed := (scaledAbsorption - penalty) * n.intensity

		moderation := tr.cfg.FuelModerationFactor
		moderation += moderation*insertion + insertion

		n.intensity = math.Max(0, n.intensity-radiationAbsorbed)
		n.hardness /= (moderation-1)*hit.Length + 1

		tr.acc.fuelRF += radiationAbsorbed * tr.cfg.FEPerRadiationUnit
		tr.acc.fertility += fertilityAbsorbed
	}
}

// saturation is the double exponential used by every heat-dependent curve:
// exp(-shift * exp(-0.001 * rate * celsius)). It rises from near 0 towards 1.
func saturation(shift, rate, celsius float64) float64 {
	return math.Exp(-shift * math.Exp(-0.001*rate*celsius))
}

// radiate emits radiation from every rod, walks it through the precomputed
// rays and applies the normalized results to fertility, fuel heat and casing
// heat. It returns the per-tick totals after normalization.
func (s *Simulation) radiate() irradiation {
	cfg := &s.cfg
	rods := s.topology.rods
	rodCount := min(s.rays.Rods(), len(rods))
	celsius := s.fuelHeat.Temperature() - thermal.CelsiusOffset

	penaltyBase := saturation(cfg.RadPenaltyShiftMultiplier, cfg.RadPenaltyRateMultiplier, celsius)

	baseFuel := s.fuelTank.fuel + s.fuelTank.waste/100
	rawIntensity := float64(baseFuel) * cfg.FissionEventsPerFuelUnit
	// Per-rod power law: the same fuel spread over more rods yields more.
	n := float64(rodCount)
	scaledIntensity := math.Pow(math.Pow(rawIntensity, cfg.FuelReactivity)/n, cfg.FuelReactivity) * n

	initialHardness := 0.2 + 0.8*penaltyBase
	heatFactor := 1 - cfg.RadIntensityScalingMultiplier*saturation(10*cfg.RadIntensityScalingShiftMultiplier, cfg.RadIntensityScalingRateExponentMultiplier, celsius)

	tr := transport{
		cfg:                cfg,
		rods:               rods,
		tempCoefficient:    1 - cfg.FuelAbsorptionScalingMultiplier*saturation(10*cfg.FuelAbsorptionScalingShiftMultiplier, cfg.FuelAbsorptionScalingRateExponentMultiplier, celsius),
		hardnessMultiplier: 1 / cfg.FuelHardnessDivisor,
	}

	_, height, _ := s.topology.Dimensions()
	rayMultiplier := 1 / float64(RayDirectionCount()*height)
	fertility := s.Fertility()

	for r := 0; r < rodCount; r++ {
		modifier := (100 - rods[r].Insertion) / 100
		initialIntensity := scaledIntensity * modifier * heatFactor

		tr.acc.fuelUsage += cfg.FuelPerRadiationUnit * rawIntensity * modifier / fertility * cfg.FuelUsageMultiplier
		tr.acc.fuelRF += cfg.FEPerRadiationUnit * initialIntensity

		rays := s.rays.RodRays(r)
		for i := range rays {
			ray := &rays[i]
			nt := neutron{intensity: initialIntensity * rayMultiplier, hardness: initialHardness}
			for h := 0; h < ray.Count; h++ {
				tr.perform(&nt, &ray.Hits[h])
			}
		}
	}

	acc := tr.acc
	acc.fuelUsage /= n
	acc.fuelRF /= n
	acc.fertility /= n
	acc.casingRF /= n

	if !math.IsNaN(acc.fertility) {
		s.fuelFertility += acc.fertility
	}
	if !math.IsNaN(acc.fuelRF) {
		s.fuelHeat.AbsorbRF(acc.fuelRF)
	}
	if !math.IsNaN(acc.casingRF) {
		s.caseHeat.AbsorbRF(acc.casingRF)
	}
	return acc
}
