package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/fission/config"
)

func TestOutputManager_NilWhenDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}
	if err := om.WriteTelemetry([]WindowStats{{Reactor: "r"}}); err != nil {
		t.Errorf("nil WriteTelemetry: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
}

func TestOutputManager_HeaderWrittenOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := om.WriteConfig(config.Default()); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if err := om.WriteTelemetry([]WindowStats{{Reactor: "a", WindowEndTick: 10}, {Reactor: "b", WindowEndTick: 10}}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteTelemetry([]WindowStats{{Reactor: "a", WindowEndTick: 20}}); err != nil {
		t.Fatal(err)
	}
	if err := om.WritePerf(PerfStats{}, 20); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("telemetry.csv has %d lines, want header + 3 rows:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "reactor,window_end,") {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Count(string(data), "reactor,window_end") != 1 {
		t.Error("header repeated")
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml: %v", err)
	}
	perf, err := os.ReadFile(filepath.Join(dir, "perf.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if n := len(strings.Split(strings.TrimSpace(string(perf)), "\n")); n != 2 {
		t.Errorf("perf.csv has %d lines, want 2", n)
	}
}
