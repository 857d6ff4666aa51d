package main

import (
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/fission/config"
	"github.com/pthm-cable/fission/layout"
	"github.com/pthm-cable/fission/plant"
	"github.com/pthm-cable/fission/runner"
)

// FitnessEvaluator runs each layout headlessly and scores how far its mean
// fuel temperature sits from the target.
type FitnessEvaluator struct {
	params  *ParamVector
	layouts []*layout.Layout
	cfg     *config.Config

	target       float64
	warmupTicks  int
	measureTicks int

	mu          sync.Mutex
	lastMeanTmp float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, layouts []*layout.Layout, cfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:       params,
		layouts:      layouts,
		cfg:          cfg,
		target:       cfg.Tune.TargetFuelTemperature,
		warmupTicks:  cfg.Tune.WarmupTicks,
		measureTicks: max(1, cfg.Tune.MeasureTicks),
	}
}

// LastMeanTemperature returns the mean fuel temperature of the most recent
// evaluation, averaged across layouts.
func (fe *FitnessEvaluator) LastMeanTemperature() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastMeanTmp
}

// failurePenalty is returned when any layout cannot run.
const failurePenalty = 1e18

// runResult holds one layout's measurement.
type runResult struct {
	meanTemp float64
	err      error
}

// Evaluate returns the squared distance from target averaged over layouts
// (lower = better). A layout that fails to build or tick scores failurePenalty.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]runResult, len(fe.layouts))
	var wg sync.WaitGroup
	for i, l := range fe.layouts {
		wg.Add(1)
		go func(idx int, l *layout.Layout) {
			defer wg.Done()
			results[idx] = fe.runLayout(fe.params.ApplyToLayout(l, x))
		}(i, l)
	}
	wg.Wait()

	var fitness, tempSum float64
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			continue
		}
		d := r.meanTemp - fe.target
		fitness += d * d
		tempSum += r.meanTemp
	}

	fe.mu.Lock()
	if n := len(results) - failed; n > 0 {
		fe.lastMeanTmp = tempSum / float64(n)
	}
	fe.mu.Unlock()

	if failed > 0 {
		return failurePenalty
	}
	return fitness / float64(len(results))
}

// runLayout builds a fresh reactor, discards warmup ticks, then averages the
// fuel temperature over the measurement window.
func (fe *FitnessEvaluator) runLayout(l *layout.Layout) runResult {
	sim, err := l.Build(fe.cfg)
	if err != nil {
		return runResult{err: err}
	}
	feed := runner.FeedFor(fe.cfg, l)

	for i := 0; i < fe.warmupTicks; i++ {
		if err := sim.Tick(); err != nil {
			return runResult{err: err}
		}
		plant.ApplyFeed(sim, &feed)
	}

	temps := make([]float64, 0, fe.measureTicks)
	for i := 0; i < fe.measureTicks; i++ {
		if err := sim.Tick(); err != nil {
			return runResult{err: err}
		}
		temps = append(temps, sim.FuelHeat())
		plant.ApplyFeed(sim, &feed)
	}
	return runResult{meanTemp: stat.Mean(temps, nil)}
}
