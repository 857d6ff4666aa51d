package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds one reactor's aggregated results for a window of ticks.
type WindowStats struct {
	Reactor         string `csv:"reactor"`
	WindowStartTick int32  `csv:"-"`
	WindowEndTick   int32  `csv:"window_end"`
	Ticks           int    `csv:"ticks"`
	Errors          int    `csv:"errors"`

	// Totals over the window
	FuelConsumed    float64 `csv:"fuel_consumed"`
	EnergyProduced  float64 `csv:"energy_produced"`
	Transitioned    int64   `csv:"mb_transitioned"`
	MaxTransitioned int64   `csv:"mb_max_transitioned"`
	FertilityAdded  float64 `csv:"fertility_added"`

	// Fuel temperature distribution, Celsius
	FuelTempMean float64 `csv:"fuel_temp_mean"`
	FuelTempStd  float64 `csv:"fuel_temp_std"`
	FuelTempP10  float64 `csv:"fuel_temp_p10"`
	FuelTempP50  float64 `csv:"fuel_temp_p50"`
	FuelTempP90  float64 `csv:"fuel_temp_p90"`

	CasingTempMean float64 `csv:"casing_temp_mean"`

	// Per-tick output distribution (RF or mB)
	OutputMean float64 `csv:"output_mean"`
	OutputStd  float64 `csv:"output_std"`
	OutputP10  float64 `csv:"output_p10"`
	OutputP50  float64 `csv:"output_p50"`
	OutputP90  float64 `csv:"output_p90"`

	// Sampled at window end
	Fertility float64 `csv:"fertility"`
	Fuel      int64   `csv:"fuel"`
	Waste     int64   `csv:"waste"`
	Stored    float64 `csv:"stored"`
}

// Distribution summarizes a sample with gonum: mean, standard deviation and
// the 10th, 50th and 90th empirical quantiles. Empty input yields zeros.
func Distribution(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}
	if n == 1 {
		return values[0], 0, values[0], values[0], values[0]
	}

	mean, std = stat.MeanStdDev(values, nil)

	sorted := slices.Clone(values)
	slices.Sort(sorted)
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("reactor", s.Reactor),
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Int("errors", s.Errors),
		slog.Float64("fuel_consumed", s.FuelConsumed),
		slog.Float64("energy_produced", s.EnergyProduced),
		slog.Int64("mb_transitioned", s.Transitioned),
		slog.Float64("fuel_temp_mean", s.FuelTempMean),
		slog.Float64("fuel_temp_p90", s.FuelTempP90),
		slog.Float64("casing_temp_mean", s.CasingTempMean),
		slog.Float64("output_mean", s.OutputMean),
		slog.Float64("fertility", s.Fertility),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"reactor", s.Reactor,
		"window_end", s.WindowEndTick,
		"ticks", s.Ticks,
		"errors", s.Errors,
		"fuel_consumed", s.FuelConsumed,
		"energy_produced", s.EnergyProduced,
		"mb_transitioned", s.Transitioned,
		"mb_max_transitioned", s.MaxTransitioned,
		"fuel_temp_mean", s.FuelTempMean,
		"fuel_temp_std", s.FuelTempStd,
		"fuel_temp_p10", s.FuelTempP10,
		"fuel_temp_p50", s.FuelTempP50,
		"fuel_temp_p90", s.FuelTempP90,
		"casing_temp_mean", s.CasingTempMean,
		"output_mean", s.OutputMean,
		"output_p90", s.OutputP90,
		"fertility", s.Fertility,
		"fuel", s.Fuel,
		"waste", s.Waste,
		"stored", s.Stored,
	)
}
