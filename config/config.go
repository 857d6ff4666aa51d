// Package config provides configuration loading and access for the reactor simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Reactor    ReactorConfig     `yaml:"reactor"`
	Moderators []ModeratorConfig `yaml:"moderators"`
	Coolants   []CoolantConfig   `yaml:"coolants"`
	Runner     RunnerConfig      `yaml:"runner"`
	Telemetry  TelemetryConfig   `yaml:"telemetry"`
	Tune       TuneConfig        `yaml:"tune"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ReactorConfig is the constant set consumed by the reactor engine.
// Temperatures are Celsius; energies are RF.
type ReactorConfig struct {
	AmbientTemperature float64 `yaml:"ambient_temperature"`

	// Capacities
	PerFuelRodCapacity             int64   `yaml:"per_fuel_rod_capacity"`
	CoolantTankAmountPerFuelRod    int64   `yaml:"coolant_tank_amount_per_fuel_rod"`
	PassiveBatteryPerExternalBlock int64   `yaml:"passive_battery_per_external_block"`
	RodFEPerUnitVolumeKelvin       float64 `yaml:"rod_fe_per_unit_volume_kelvin"`

	// Fertility decay
	FuelFertilityMinimumDecay                       float64 `yaml:"fuel_fertility_minimum_decay"`
	FuelFertilityDecayDenominator                   float64 `yaml:"fuel_fertility_decay_denominator"`
	FuelFertilityDecayDenominatorInactiveMultiplier float64 `yaml:"fuel_fertility_decay_denominator_inactive_multiplier"`

	// Heat network
	CasingHeatTransferRFMKT          float64 `yaml:"casing_heat_transfer_rfmkt"` // fuel rod face against the casing
	FuelToCasingRFKTMultiplier       float64 `yaml:"fuel_to_casing_rfkt_multiplier"`
	CasingToCoolantRFMKT             float64 `yaml:"casing_to_coolant_rfmkt"`
	CasingToAmbientRFMKT             float64 `yaml:"casing_to_ambient_rfmkt"`
	PassiveCoolingTransferEfficiency float64 `yaml:"passive_cooling_transfer_efficiency"`

	// Radiation
	FissionEventsPerFuelUnit  float64 `yaml:"fission_events_per_fuel_unit"`
	FuelReactivity            float64 `yaml:"fuel_reactivity"`
	FEPerRadiationUnit        float64 `yaml:"fe_per_radiation_unit"`
	FuelPerRadiationUnit      float64 `yaml:"fuel_per_radiation_unit"`
	FuelUsageMultiplier       float64 `yaml:"fuel_usage_multiplier"`
	FuelAbsorptionCoefficient float64 `yaml:"fuel_absorption_coefficient"`
	FuelModerationFactor      float64 `yaml:"fuel_moderation_factor"`
	FuelHardnessDivisor       float64 `yaml:"fuel_hardness_divisor"`

	// Heat response curves: exp(-shift * exp(-0.001 * rate * celsius))
	RadPenaltyShiftMultiplier                   float64 `yaml:"rad_penalty_shift_multiplier"`
	RadPenaltyRateMultiplier                    float64 `yaml:"rad_penalty_rate_multiplier"`
	RadIntensityScalingMultiplier               float64 `yaml:"rad_intensity_scaling_multiplier"`
	RadIntensityScalingShiftMultiplier          float64 `yaml:"rad_intensity_scaling_shift_multiplier"`
	RadIntensityScalingRateExponentMultiplier   float64 `yaml:"rad_intensity_scaling_rate_exponent_multiplier"`
	FuelAbsorptionScalingMultiplier             float64 `yaml:"fuel_absorption_scaling_multiplier"`
	FuelAbsorptionScalingShiftMultiplier        float64 `yaml:"fuel_absorption_scaling_shift_multiplier"`
	FuelAbsorptionScalingRateExponentMultiplier float64 `yaml:"fuel_absorption_scaling_rate_exponent_multiplier"`
}

// ModeratorConfig describes a material that can fill a reactor cell.
type ModeratorConfig struct {
	Name             string  `yaml:"name"`
	Absorption       float64 `yaml:"absorption"`
	HeatEfficiency   float64 `yaml:"heat_efficiency"`
	Moderation       float64 `yaml:"moderation"`
	HeatConductivity float64 `yaml:"heat_conductivity"`
}

// CoolantConfig describes a fluid that can fill the coolant tank of an actively cooled reactor.
type CoolantConfig struct {
	Name         string          `yaml:"name"`
	BoilingPoint float64         `yaml:"boiling_point"` // Celsius
	LatentHeat   float64         `yaml:"latent_heat"`   // RF per mB boiled
	Liquid       ModeratorConfig `yaml:"liquid"`        // Properties when hit by radiation inside a manifold
}

// RunnerConfig holds defaults for the headless runner.
type RunnerConfig struct {
	MaxTicks      int     `yaml:"max_ticks"`
	LiquidPerTick int64   `yaml:"liquid_per_tick"` // Coolant pumped into active reactors each tick
	LoadPerTick   float64 `yaml:"load_per_tick"`   // RF drained from passive batteries each tick
	SnapshotEvery int     `yaml:"snapshot_every"`  // Ticks between snapshots (0 = only at exit)
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"` // Ticks per stats window
	PerfCollectorWindow int `yaml:"perf_collector_window"`
}

// TuneConfig holds defaults for the insertion tuner.
type TuneConfig struct {
	TargetFuelTemperature float64 `yaml:"target_fuel_temperature"` // Celsius
	WarmupTicks           int     `yaml:"warmup_ticks"`
	MeasureTicks          int     `yaml:"measure_ticks"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ModeratorIndex map[string]int // name -> index into Moderators
	CoolantIndex   map[string]int // name -> index into Coolants
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file.
		// Registry lists present in the file replace the defaults wholesale.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the embedded defaults. Panics if they fail to parse.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	c.Derived.ModeratorIndex = make(map[string]int, len(c.Moderators))
	for i, m := range c.Moderators {
		if _, dup := c.Derived.ModeratorIndex[m.Name]; dup {
			return fmt.Errorf("duplicate moderator %q", m.Name)
		}
		c.Derived.ModeratorIndex[m.Name] = i
	}

	c.Derived.CoolantIndex = make(map[string]int, len(c.Coolants))
	for i, cl := range c.Coolants {
		if _, dup := c.Derived.CoolantIndex[cl.Name]; dup {
			return fmt.Errorf("duplicate coolant %q", cl.Name)
		}
		c.Derived.CoolantIndex[cl.Name] = i
	}

	if c.Telemetry.StatsWindow < 1 {
		c.Telemetry.StatsWindow = 1
	}
	return nil
}

// Moderator looks up a moderator by name.
func (c *Config) Moderator(name string) (ModeratorConfig, bool) {
	i, ok := c.Derived.ModeratorIndex[name]
	if !ok {
		return ModeratorConfig{}, false
	}
	return c.Moderators[i], true
}

// Coolant looks up a coolant by name.
func (c *Config) Coolant(name string) (CoolantConfig, bool) {
	i, ok := c.Derived.CoolantIndex[name]
	if !ok {
		return CoolantConfig{}, false
	}
	return c.Coolants[i], true
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
