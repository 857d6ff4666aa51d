package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pthm-cable/fission/reactor"
)

// Metrics exposes per-reactor Prometheus metrics labeled by reactor name.
type Metrics struct {
	gatherer prometheus.Gatherer

	FuelTemperature   *prometheus.GaugeVec
	CasingTemperature *prometheus.GaugeVec
	Fertility         *prometheus.GaugeVec
	Fuel              *prometheus.GaugeVec
	Waste             *prometheus.GaugeVec
	Stored            *prometheus.GaugeVec

	FuelConsumed   *prometheus.CounterVec
	EnergyProduced *prometheus.CounterVec
	CoolantBoiled  *prometheus.CounterVec
	TickErrors     *prometheus.CounterVec

	StepDuration prometheus.Histogram
}

// NewMetrics registers reactor metrics against reg (default registerer when nil).
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	m := &Metrics{gatherer: gatherer}
	labels := []string{"reactor"}

	gauges := []struct {
		dst        **prometheus.GaugeVec
		name, help string
	}{
		{&m.FuelTemperature, "reactor_fuel_temperature_celsius", "Fuel temperature after the last tick."},
		{&m.CasingTemperature, "reactor_casing_temperature_celsius", "Casing temperature after the last tick."},
		{&m.Fertility, "reactor_fertility", "Fertility efficiency factor (1 or above)."},
		{&m.Fuel, "reactor_fuel_amount", "Fuel held in the fuel tank."},
		{&m.Waste, "reactor_waste_amount", "Waste held in the fuel tank."},
		{&m.Stored, "reactor_battery_stored_rf", "Energy stored in the passive battery."},
	}
	for _, g := range gauges {
		vec, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: g.name, Help: g.help}, labels), g.name)
		if err != nil {
			return nil, err
		}
		*g.dst = vec
	}

	counters := []struct {
		dst        **prometheus.CounterVec
		name, help string
	}{
		{&m.FuelConsumed, "reactor_fuel_consumed_total", "Fuel burned into waste."},
		{&m.EnergyProduced, "reactor_energy_produced_rf_total", "Heat accepted by the output sink."},
		{&m.CoolantBoiled, "reactor_coolant_boiled_mb_total", "Coolant boiled into vapor."},
		{&m.TickErrors, "reactor_tick_errors_total", "Ticks that returned an error."},
	}
	for _, c := range counters {
		vec, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{Name: c.name, Help: c.help}, labels), c.name)
		if err != nil {
			return nil, err
		}
		*c.dst = vec
	}

	step, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "plant_step_duration_seconds",
		Help:    "Wall time of one plant step across all reactors.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	}), "plant_step_duration_seconds")
	if err != nil {
		return nil, err
	}
	m.StepDuration = step

	return m, nil
}

// Observe records one tick of a reactor.
func (m *Metrics) Observe(name string, s reactor.Summary) {
	if m == nil {
		return
	}
	m.FuelTemperature.WithLabelValues(name).Set(s.FuelTemperature)
	m.CasingTemperature.WithLabelValues(name).Set(s.CasingTemperature)
	m.Fertility.WithLabelValues(name).Set(s.Fertility)
	m.Fuel.WithLabelValues(name).Set(float64(s.Fuel))
	m.Waste.WithLabelValues(name).Set(float64(s.Waste))
	m.Stored.WithLabelValues(name).Set(s.Stored)

	if s.FuelConsumed > 0 {
		m.FuelConsumed.WithLabelValues(name).Add(s.FuelConsumed)
	}
	if s.EnergyProduced > 0 {
		m.EnergyProduced.WithLabelValues(name).Add(s.EnergyProduced)
	}
	if s.Transitioned > 0 {
		m.CoolantBoiled.WithLabelValues(name).Add(float64(s.Transitioned))
	}
}

// ObserveError counts a failed tick.
func (m *Metrics) ObserveError(name string) {
	if m == nil {
		return
	}
	m.TickErrors.WithLabelValues(name).Inc()
}

// ObserveStep records a plant step duration.
func (m *Metrics) ObserveStep(d time.Duration) {
	if m == nil {
		return
	}
	m.StepDuration.Observe(d.Seconds())
}

// Handler exposes a ready-to-use /metrics handler.
func (m *Metrics) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if m != nil && m.gatherer != nil {
		gatherer = m.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
