// Package layout reads reactor structure descriptions from YAML and applies
// them to a simulation.
package layout

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/fission/config"
	"github.com/pthm-cable/fission/reactor"
)

// Layout describes one reactor's structure and its external feed.
type Layout struct {
	Name      string   `yaml:"name"`
	Dims      [3]int   `yaml:"dims"`
	Passive   bool     `yaml:"passive"`
	Active    bool     `yaml:"active"`
	Coolant   string   `yaml:"coolant"`
	Fill      string   `yaml:"fill"` // moderator placed in every cell not otherwise set
	Fuel      int64    `yaml:"fuel"` // initial fuel; -1 fills the tank
	Rods      []Rod    `yaml:"rods"`
	Cells     []Cell   `yaml:"cells"`
	Manifolds [][3]int `yaml:"manifolds"`
	Feed      Feed     `yaml:"feed"`
}

// Rod is a control rod column.
type Rod struct {
	X         int     `yaml:"x"`
	Z         int     `yaml:"z"`
	Insertion float64 `yaml:"insertion"`
}

// Cell places a registry moderator.
type Cell struct {
	X        int    `yaml:"x"`
	Y        int    `yaml:"y"`
	Z        int    `yaml:"z"`
	Material string `yaml:"material"`
}

// Feed is what the surrounding plant supplies or draws each tick.
type Feed struct {
	LiquidPerTick int64   `yaml:"liquid_per_tick"`
	LoadPerTick   float64 `yaml:"load_per_tick"`
}

// Load reads a layout file.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading layout %s: %w", path, err)
	}
	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}
	return l, nil
}

// Parse decodes a layout document. Passive cooling is the default.
func Parse(data []byte) (*Layout, error) {
	l := &Layout{Passive: true, Active: true}
	if err := yaml.Unmarshal(data, l); err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	if l.Name == "" {
		return nil, fmt.Errorf("missing name")
	}
	return l, nil
}

// WriteYAML writes the layout to a YAML file.
func (l *Layout) WriteYAML(path string) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshaling layout: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing layout file: %w", err)
	}
	return nil
}

// WithInsertion returns a copy of the layout with every rod set to insertion.
func (l *Layout) WithInsertion(insertion float64) *Layout {
	c := *l
	c.Rods = make([]Rod, len(l.Rods))
	for i, r := range l.Rods {
		r.Insertion = insertion
		c.Rods[i] = r
	}
	return &c
}

// Build creates a simulation from the layout.
func (l *Layout) Build(cfg *config.Config) (*reactor.Simulation, error) {
	sim := reactor.New(cfg.Reactor)
	if err := l.Apply(sim, cfg); err != nil {
		return nil, err
	}
	return sim, nil
}

// Apply performs the structural edits in order (resize, moderators,
// manifolds, rods, insertions), sets the coolant and recomputes.
func (l *Layout) Apply(sim *reactor.Simulation, cfg *config.Config) error {
	x, y, z := l.Dims[0], l.Dims[1], l.Dims[2]
	if err := sim.Resize(x, y, z); err != nil {
		return fmt.Errorf("%s: %w", l.Name, err)
	}

	if l.Fill != "" {
		m, err := lookupModerator(cfg, l.Fill)
		if err != nil {
			return fmt.Errorf("%s: fill: %w", l.Name, err)
		}
		for i := 0; i < x; i++ {
			for j := 0; j < y; j++ {
				for k := 0; k < z; k++ {
					if err := sim.SetModeratorCell(i, j, k, m); err != nil {
						return fmt.Errorf("%s: %w", l.Name, err)
					}
				}
			}
		}
	}

	for _, c := range l.Cells {
		m, err := lookupModerator(cfg, c.Material)
		if err != nil {
			return fmt.Errorf("%s: cell (%d,%d,%d): %w", l.Name, c.X, c.Y, c.Z, err)
		}
		if err := sim.SetModeratorCell(c.X, c.Y, c.Z, m); err != nil {
			return fmt.Errorf("%s: %w", l.Name, err)
		}
	}
	for _, p := range l.Manifolds {
		if err := sim.SetManifoldCell(p[0], p[1], p[2]); err != nil {
			return fmt.Errorf("%s: %w", l.Name, err)
		}
	}

	for _, r := range l.Rods {
		if _, err := sim.RegisterControlRod(r.X, r.Z); err != nil {
			return fmt.Errorf("%s: %w", l.Name, err)
		}
		// Rod columns hold fuel, not moderator.
		for j := 0; j < y; j++ {
			if err := sim.ClearCell(r.X, j, r.Z); err != nil {
				return fmt.Errorf("%s: %w", l.Name, err)
			}
		}
	}
	for _, r := range l.Rods {
		if err := sim.SetControlRodInsertion(r.X, r.Z, max(0, min(100, r.Insertion))); err != nil {
			return fmt.Errorf("%s: %w", l.Name, err)
		}
	}

	sim.SetPassivelyCooled(l.Passive)
	if l.Coolant != "" {
		c, ok := cfg.Coolant(l.Coolant)
		if !ok {
			return fmt.Errorf("%s: unknown coolant %q", l.Name, l.Coolant)
		}
		if err := sim.CoolantTank().SetCoolant(reactor.CoolantFrom(c)); err != nil {
			return fmt.Errorf("%s: %w", l.Name, err)
		}
	}

	sim.RecomputeDerivedValues()

	switch {
	case l.Fuel < 0:
		sim.FuelTank().Insert(sim.FuelTank().Capacity())
	case l.Fuel > 0:
		sim.FuelTank().Insert(l.Fuel)
	}
	sim.SetActive(l.Active)
	return nil
}

func lookupModerator(cfg *config.Config, name string) (reactor.Moderator, error) {
	m, ok := cfg.Moderator(name)
	if !ok {
		return reactor.Moderator{}, fmt.Errorf("unknown moderator %q", name)
	}
	return reactor.ModeratorFrom(m), nil
}
