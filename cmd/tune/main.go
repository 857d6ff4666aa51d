// Package main searches for the control rod insertion that holds a set of
// reactor layouts at a target fuel temperature.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/fission/config"
	"github.com/pthm-cable/fission/layout"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// newMethod returns the optimizer named by the --method flag.
func newMethod(name string, population int) (optimize.Method, error) {
	switch name {
	case "cmaes":
		return &optimize.CmaEsChol{InitStepSize: 0.3, Population: population}, nil
	case "neldermead":
		return &optimize.NelderMead{}, nil
	default:
		return nil, fmt.Errorf("unknown method %q (want cmaes or neldermead)", name)
	}
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	layoutPath := flag.String("layout", "", "Reactor layout YAML to tune (required)")
	target := flag.Float64("target", 0, "Target fuel temperature in Celsius (0 = use config)")
	maxEvals := flag.Int("max-evals", 60, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	methodName := flag.String("method", "cmaes", "Optimizer: cmaes or neldermead")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" || *layoutPath == "" {
		log.Fatal("--output and --layout are required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Cfg()
	if *target != 0 {
		cfg.Tune.TargetFuelTemperature = *target
	}

	base, err := layout.Load(*layoutPath)
	if err != nil {
		log.Fatalf("failed to load layout: %v", err)
	}
	if len(base.Rods) == 0 {
		log.Fatalf("layout %s has no control rods to tune", base.Name)
	}

	params := NewParamVector()
	evaluator := NewFitnessEvaluator(params, []*layout.Layout{base}, cfg)

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(params.Dim())/2.0)
	}
	method, err := newMethod(*methodName, popSize)
	if err != nil {
		log.Fatal(err)
	}

	logPath := filepath.Join(*outputDir, "tune_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()

	header := []string{"eval", "fitness", "mean_fuel_temp"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	logWriter.Write(header)

	evalCount := 0
	bestFitness := failurePenalty
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Denormalize(x)
			fitness := evaluator.Evaluate(raw)
			evalCount++

			clamped := params.Clamp(raw)
			if fitness < bestFitness || bestParams == nil {
				bestFitness = fitness
				bestParams = clamped
			}

			meanTemp := evaluator.LastMeanTemperature()
			row := []string{strconv.Itoa(evalCount), fmt.Sprintf("%.6f", fitness), fmt.Sprintf("%.3f", meanTemp)}
			for _, v := range clamped {
				row = append(row, fmt.Sprintf("%.6f", v))
			}
			logWriter.Write(row)
			logWriter.Flush()

			elapsed := time.Since(startTime)
			avgPerEval := elapsed / time.Duration(evalCount)
			remaining := time.Duration(max(0, *maxEvals-evalCount)) * avgPerEval
			fmt.Printf("Eval %d/%d: insertion=%.2f fuel=%.1fC (best=%.2f) | elapsed: %s, ETA: %s\n",
				evalCount, *maxEvals, clamped[0], meanTemp, bestFitness,
				formatDuration(elapsed), formatDuration(remaining))

			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0,
	}

	fmt.Printf("Tuning %s toward %.1fC with %s, max_evals=%d\n",
		base.Name, cfg.Tune.TargetFuelTemperature, *methodName, *maxEvals)

	initX := params.Normalize(params.DefaultVector())
	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		log.Fatal("no evaluations completed")
	}

	fmt.Printf("\nTuning complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best fitness: %.4f\n", bestFitness)
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.4f\n", spec.Name, bestParams[i])
	}

	tuned := params.ApplyToLayout(base, bestParams)
	layoutOutPath := filepath.Join(*outputDir, "best_layout.yaml")
	if err := tuned.WriteYAML(layoutOutPath); err != nil {
		log.Printf("failed to write best layout: %v", err)
	} else {
		fmt.Printf("\nBest layout saved to: %s\n", layoutOutPath)
	}
}
