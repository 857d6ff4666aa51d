package reactor

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// MaxRaySteps caps how many cells a single ray can interact with.
	MaxRaySteps = 4
	// RadiationTravelDistance is how far radiation reaches past the rod's outer face, in blocks.
	RadiationTravelDistance = 4.0
)

// Offset is an integer lattice offset.
type Offset struct {
	X, Y, Z int
}

// RayStep is one cell visited by a ray and the length of ray inside that cell.
type RayStep struct {
	Offset Offset
	Length float64
}

// rayDirections are the six axes followed by the twelve edge diagonals.
var rayDirections = [...]r3.Vec{
	{X: +1}, {X: -1},
	{Y: +1}, {Y: -1},
	{Z: +1}, {Z: -1},

	{X: +1, Y: +1}, {X: +1, Y: -1},
	{X: -1, Y: +1}, {X: -1, Y: -1},

	{Y: +1, Z: +1}, {Y: +1, Z: -1},
	{Y: -1, Z: +1}, {Y: -1, Z: -1},

	{X: +1, Z: +1}, {X: -1, Z: +1},
	{X: +1, Z: -1}, {X: -1, Z: -1},
}

var rayGeometry = sync.OnceValue(func() [][]RayStep {
	table := make([][]RayStep, len(rayDirections))
	for i, dir := range rayDirections {
		table[i] = traceRay(dir)
	}
	return table
})

// RayGeometry returns the step list for every ray direction. The table is
// computed once per process and shared; callers must not modify it.
func RayGeometry() [][]RayStep {
	return rayGeometry()
}

// RayDirectionCount is the number of precomputed ray directions.
func RayDirectionCount() int {
	return len(rayDirections)
}

// traceRay walks a ray from the centre of cell (0,0,0) through the unit
// lattice, recording each cell boundary crossing. The source cell itself is
// not recorded.
func traceRay(direction r3.Vec) []RayStep {
	dir := r3.Unit(direction)

	// Travel distance is measured from the outer face of the rod, but the ray
	// starts at the rod's centre, so add the centre-to-face length.
	toFace := r3.Scale(0.5/maxAbsComponent(dir), dir)
	ray := r3.Scale(RadiationTravelDistance+r3.Norm(toFace), dir)
	total := r3.Norm(ray)

	// Next boundary plane per axis, on the side the ray is heading.
	var planes [3]float64
	for axis := 0; axis < 3; axis++ {
		if c := component(ray, axis); c != 0 {
			planes[axis] = math.Copysign(0.5, c)
		}
	}

	steps := make([]RayStep, 0, MaxRaySteps)
	var start r3.Vec
	processed := 0.0
	first := true
	for len(steps) < MaxRaySteps {
		hitAxis := -1
		tMin := math.Inf(1)
		for axis := 0; axis < 3; axis++ {
			c := component(ray, axis)
			if c == 0 {
				continue
			}
			if t := planes[axis] / c; t < tMin {
				tMin, hitAxis = t, axis
			}
		}
		if hitAxis < 0 {
			break
		}
		planes[hitAxis] += math.Copysign(1, planes[hitAxis])

		end := r3.Scale(tMin, ray)
		segment := r3.Sub(end, start)
		mid := r3.Add(start, r3.Scale(0.5, segment))

		length := r3.Norm(segment)
		last := processed+length >= total
		length = math.Min(total-processed, length)

		if !first && length != 0 {
			steps = append(steps, RayStep{
				Offset: Offset{
					X: int(math.Floor(mid.X + 0.5)),
					Y: int(math.Floor(mid.Y + 0.5)),
					Z: int(math.Floor(mid.Z + 0.5)),
				},
				Length: length,
			})
		}
		first = false

		processed += length
		if last {
			break
		}
		start = end
	}
	return steps
}

func component(v r3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func maxAbsComponent(v r3.Vec) float64 {
	return math.Max(math.Abs(v.X), math.Max(math.Abs(v.Y), math.Abs(v.Z)))
}
