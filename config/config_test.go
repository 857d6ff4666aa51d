package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_EmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Reactor.PerFuelRodCapacity != 4000 {
		t.Errorf("per_fuel_rod_capacity = %d, want 4000", cfg.Reactor.PerFuelRodCapacity)
	}
	if cfg.Reactor.FuelFertilityDecayDenominator != 20 {
		t.Errorf("fuel_fertility_decay_denominator = %f, want 20", cfg.Reactor.FuelFertilityDecayDenominator)
	}
	if _, ok := cfg.Moderator("graphite"); !ok {
		t.Error("expected graphite moderator in defaults")
	}
	water, ok := cfg.Coolant("water")
	if !ok {
		t.Fatal("expected water coolant in defaults")
	}
	if water.BoilingPoint != 100 {
		t.Errorf("water boiling point = %f, want 100", water.BoilingPoint)
	}
}

func TestLoad_UserFileOverridesOnlyPresentFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("reactor:\n  fuel_reactivity: 1.2\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Reactor.FuelReactivity != 1.2 {
		t.Errorf("fuel_reactivity = %f, want 1.2", cfg.Reactor.FuelReactivity)
	}
	if cfg.Reactor.PerFuelRodCapacity != 4000 {
		t.Errorf("per_fuel_rod_capacity should keep default, got %d", cfg.Reactor.PerFuelRodCapacity)
	}
	if len(cfg.Moderators) == 0 {
		t.Error("moderator registry should keep defaults")
	}
}

func TestLoad_DuplicateModeratorRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("moderators:\n  - name: lead\n  - name: lead\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for duplicate moderator names")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Reactor.AmbientTemperature = 35

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Reactor.AmbientTemperature != 35 {
		t.Errorf("ambient_temperature = %f, want 35", loaded.Reactor.AmbientTemperature)
	}
	if len(loaded.Coolants) != len(cfg.Coolants) {
		t.Errorf("coolants = %d, want %d", len(loaded.Coolants), len(cfg.Coolants))
	}
}
