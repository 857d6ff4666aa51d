package reactor

import (
	"fmt"

	"github.com/pthm-cable/fission/config"
)

// ControlRod is a fuel rod column spanning the full reactor height.
type ControlRod struct {
	X, Z      int
	Insertion float64 // Percent, 0..100
}

// cardinalDirections are the same-layer neighbours of a rod column.
var cardinalDirections = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// axisDirections are the 6-connected neighbours of a cell.
var axisDirections = [6]Offset{
	{X: +1}, {X: -1},
	{Y: +1}, {Y: -1},
	{Z: +1}, {Z: -1},
}

// Topology is the interior lattice of a reactor: a dense moderator grid plus
// the control rod registry. Rods are addressed by registration index.
type Topology struct {
	x, y, z int
	cells   []Cell
	rodAt   []int // x*z column lookup, -1 when the column has no rod
	rods    []ControlRod
}

// Resize reallocates the grid and clears every cell and rod.
func (t *Topology) Resize(x, y, z int) error {
	if x <= 0 || y <= 0 || z <= 0 {
		return fmt.Errorf("%w: %dx%dx%d", ErrInvalidDimensions, x, y, z)
	}
	t.x, t.y, t.z = x, y, z
	t.cells = make([]Cell, x*y*z)
	t.rodAt = make([]int, x*z)
	for i := range t.rodAt {
		t.rodAt[i] = -1
	}
	t.rods = nil
	return nil
}

// Dimensions returns the interior size.
func (t *Topology) Dimensions() (x, y, z int) {
	return t.x, t.y, t.z
}

// InBounds reports whether the cell lies inside the interior.
func (t *Topology) InBounds(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < t.x && y < t.y && z < t.z
}

func (t *Topology) index(x, y, z int) int {
	return (x*t.y+y)*t.z + z
}

// Cell returns the cell at a position. Out-of-bounds positions read as empty.
func (t *Topology) Cell(x, y, z int) Cell {
	if !t.InBounds(x, y, z) {
		return Cell{}
	}
	return t.cells[t.index(x, y, z)]
}

// SetModerator places a moderator in a cell.
func (t *Topology) SetModerator(x, y, z int, m Moderator) error {
	return t.setCell(x, y, z, Cell{Kind: CellModerator, Moderator: m})
}

// SetManifold marks a cell as coolant manifold.
func (t *Topology) SetManifold(x, y, z int) error {
	return t.setCell(x, y, z, Cell{Kind: CellManifold})
}

// ClearCell empties a cell.
func (t *Topology) ClearCell(x, y, z int) error {
	return t.setCell(x, y, z, Cell{})
}

func (t *Topology) setCell(x, y, z int, c Cell) error {
	if !t.InBounds(x, y, z) {
		return fmt.Errorf("%w: cell (%d,%d,%d)", ErrOutOfBounds, x, y, z)
	}
	t.cells[t.index(x, y, z)] = c
	return nil
}

// RegisterControlRod adds a rod column and returns its registration index.
// Iteration order over rods is registration order.
func (t *Topology) RegisterControlRod(x, z int) (int, error) {
	if x < 0 || z < 0 || x >= t.x || z >= t.z {
		return -1, fmt.Errorf("%w: rod column (%d,%d)", ErrOutOfBounds, x, z)
	}
	col := x*t.z + z
	if t.rodAt[col] >= 0 {
		return -1, fmt.Errorf("%w (%d,%d)", ErrDuplicateControlRod, x, z)
	}
	t.rods = append(t.rods, ControlRod{X: x, Z: z})
	t.rodAt[col] = len(t.rods) - 1
	return len(t.rods) - 1, nil
}

// RodIndex returns the registration index of the rod in a column, or -1.
func (t *Topology) RodIndex(x, z int) int {
	if x < 0 || z < 0 || x >= t.x || z >= t.z {
		return -1
	}
	return t.rodAt[x*t.z+z]
}

// Rods returns the registered rods in registration order. The slice is owned by the topology.
func (t *Topology) Rods() []ControlRod {
	return t.rods
}

// SetInsertion sets a rod's insertion. The value is not validated.
func (t *Topology) SetInsertion(x, z int, insertion float64) error {
	i := t.RodIndex(x, z)
	if i < 0 {
		return fmt.Errorf("%w (%d,%d)", ErrNoControlRod, x, z)
	}
	t.rods[i].Insertion = insertion
	return nil
}

// SetAllInsertions sets every rod to the same insertion, clamped to [0,100].
func (t *Topology) SetAllInsertions(insertion float64) {
	insertion = max(0, min(100, insertion))
	for i := range t.rods {
		t.rods[i].Insertion = insertion
	}
}

// Coefficients are the per-tick-constant values derived from a topology.
type Coefficients struct {
	FuelToCasingRFKT          float64
	FuelToManifoldSurfaceArea float64 // scaled by coolant conductivity at tick time
	CasingToOutputRFKT        float64
	CasingToAmbientRFKT       float64

	FuelRFPerKelvin   float64
	CasingRFPerKelvin float64

	FuelCapacity    int64
	BatteryCapacity int64 // passive only
	CoolantCapacity int64 // active only, per side

	ManifoldCount int
}

// Derive computes the heat network coefficients and capacities.
func (t *Topology) Derive(cfg config.ReactorConfig, passive bool) Coefficients {
	var c Coefficients
	rodCount := int64(len(t.rods))
	height := int64(t.y)

	c.FuelCapacity = cfg.PerFuelRodCapacity * rodCount * height

	for _, rod := range t.rods {
		for layer := 0; layer < t.y; layer++ {
			for _, d := range cardinalDirections {
				nx, nz := rod.X+d[0], rod.Z+d[1]
				if nx < 0 || nx >= t.x || nz < 0 || nz >= t.z {
					// rod face against the casing
					c.FuelToCasingRFKT += cfg.CasingHeatTransferRFMKT
					continue
				}
				switch cell := t.cells[t.index(nx, layer, nz)]; cell.Kind {
				case CellManifold:
					c.FuelToManifoldSurfaceArea++
				case CellModerator:
					c.FuelToCasingRFKT += cell.Moderator.HeatConductivity
				}
			}
		}
	}
	c.FuelToCasingRFKT *= cfg.FuelToCasingRFKTMultiplier

	// Interior surface area, corrected for manifold faces: a manifold face
	// against the casing hides casing area, one against anything else exposes more.
	x, y, z := float64(t.x), float64(t.y), float64(t.z)
	casingToOutput := 2 * (x*y + x*z + z*y)
	for i := 0; i < t.x; i++ {
		for j := 0; j < t.y; j++ {
			for k := 0; k < t.z; k++ {
				if t.cells[t.index(i, j, k)].Kind != CellManifold {
					continue
				}
				c.ManifoldCount++
				for _, d := range axisDirections {
					nx, ny, nz := i+d.X, j+d.Y, k+d.Z
					if !t.InBounds(nx, ny, nz) {
						casingToOutput--
						continue
					}
					if t.cells[t.index(nx, ny, nz)].Kind != CellManifold {
						casingToOutput++
					}
				}
			}
		}
	}
	c.CasingToOutputRFKT = casingToOutput * cfg.CasingToCoolantRFMKT

	c.CasingToAmbientRFKT = 2 * ((x+2)*(y+2) + (x+2)*(z+2) + (z+2)*(y+2)) * cfg.CasingToAmbientRFMKT

	if passive {
		c.CasingToOutputRFKT *= cfg.PassiveCoolingTransferEfficiency
		shell := int64(t.x+2)*int64(t.y+2)*int64(t.z+2) - int64(t.x)*int64(t.y)*int64(t.z)
		c.BatteryCapacity = shell * cfg.PassiveBatteryPerExternalBlock
	} else {
		c.CoolantCapacity = (rodCount*height + int64(c.ManifoldCount)) * cfg.CoolantTankAmountPerFuelRod
	}

	c.FuelRFPerKelvin = float64(rodCount*height) * cfg.RodFEPerUnitVolumeKelvin
	c.CasingRFPerKelvin = x * y * z * cfg.RodFEPerUnitVolumeKelvin

	return c
}
