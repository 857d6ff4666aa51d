package reactor

import "github.com/pthm-cable/fission/config"

// Moderator holds the material coefficients of a reactor cell.
type Moderator struct {
	Absorption       float64 `json:"absorption"`       // Fraction of soft radiation absorbed per block travelled
	HeatEfficiency   float64 `json:"heatEfficiency"`   // Fraction of absorbed radiation turned into casing heat
	Moderation       float64 `json:"moderation"`       // Hardness divisor per block travelled (>1 softens)
	HeatConductivity float64 `json:"heatConductivity"` // Contribution to fuel-to-casing conductance when touching a rod
}

// ModeratorFrom converts a registry entry.
func ModeratorFrom(m config.ModeratorConfig) Moderator {
	return Moderator{
		Absorption:       m.Absorption,
		HeatEfficiency:   m.HeatEfficiency,
		Moderation:       m.Moderation,
		HeatConductivity: m.HeatConductivity,
	}
}

// CellKind tags what occupies a lattice cell.
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellModerator
	CellManifold
)

func (k CellKind) String() string {
	switch k {
	case CellModerator:
		return "moderator"
	case CellManifold:
		return "manifold"
	default:
		return "empty"
	}
}

// Cell is one voxel of the moderator grid. Moderator is only meaningful for CellModerator.
type Cell struct {
	Kind      CellKind
	Moderator Moderator
}
