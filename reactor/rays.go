package reactor

// HitKind tags what a ray meets in a cell.
type HitKind uint8

const (
	HitNone HitKind = iota // vacuum or truncated
	HitModerator
	HitManifold
	HitRod
)

// Hit is one cell a ray passes through, with the coefficients it will
// interact with. Rod hits reference the rod by registration index so that
// insertion changes are seen without rebuilding the ray set.
type Hit struct {
	Kind           HitKind
	Rod            int
	Absorption     float64
	HeatEfficiency float64
	Moderation     float64
	Length         float64
}

// Ray is a ray direction instantiated from one rod at one layer.
// Hits past Count are absent and have no effect.
type Ray struct {
	Hits  [MaxRaySteps]Hit
	Count int
}

// RaySet holds, per rod in registration order, one ray per direction per layer.
type RaySet struct {
	rods [][]Ray
}

// RodRays returns the rays emitted by the rod with the given registration index.
func (rs *RaySet) RodRays(rod int) []Ray {
	return rs.rods[rod]
}

// Rods returns the number of rods the set was built for.
func (rs *RaySet) Rods() int {
	return len(rs.rods)
}

// BuildRaySet instantiates the shared ray geometry against a topology.
// manifold supplies the coefficients baked into manifold hits.
func BuildRaySet(t *Topology, manifold Moderator) RaySet {
	geometry := RayGeometry()
	rs := RaySet{rods: make([][]Ray, len(t.rods))}

	for r, rod := range t.rods {
		rays := make([]Ray, 0, len(geometry)*t.y)
		for _, steps := range geometry {
			for layer := 0; layer < t.y; layer++ {
				rays = append(rays, t.traceFrom(rod.X, layer, rod.Z, steps, manifold))
			}
		}
		rs.rods[r] = rays
	}
	return rs
}

func (t *Topology) traceFrom(x, y, z int, steps []RayStep, manifold Moderator) Ray {
	var ray Ray
	for i, step := range steps {
		if i >= MaxRaySteps {
			break
		}
		cx, cy, cz := x+step.Offset.X, y+step.Offset.Y, z+step.Offset.Z
		if !t.InBounds(cx, cy, cz) {
			break
		}

		hit := &ray.Hits[i]
		hit.Length = step.Length
		if rod := t.rodAt[cx*t.z+cz]; rod >= 0 {
			hit.Kind = HitRod
			hit.Rod = rod
		} else {
			switch cell := t.cells[t.index(cx, cy, cz)]; cell.Kind {
			case CellModerator:
				hit.Kind = HitModerator
				hit.Absorption = cell.Moderator.Absorption
				hit.HeatEfficiency = cell.Moderator.HeatEfficiency
				hit.Moderation = cell.Moderator.Moderation
			case CellManifold:
				hit.Kind = HitManifold
				hit.Absorption = manifold.Absorption
				hit.HeatEfficiency = manifold.HeatEfficiency
				hit.Moderation = manifold.Moderation
			}
		}
		ray.Count = i + 1
	}
	return ray
}
