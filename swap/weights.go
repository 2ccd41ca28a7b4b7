package swap

import "math"

const (
	baseFlavorWeight  = 0.6
	baseHealthWeight  = 0.4
	maxSemanticWeight = baseFlavorWeight

	// DefaultSemanticWeight is the semantic share used when re-ranking is on.
	DefaultSemanticWeight = 0.1
)

// Weights blend flavor match, health gain and semantic closeness into a
// rank score. The three always sum to 1.
type Weights struct {
	Flavor   float64 `json:"flavor_weight"`
	Health   float64 `json:"health_weight"`
	Semantic float64 `json:"semantic_weight"`
}

// NewWeights returns 0.6/0.4 without semantic re-ranking. With it, the
// semantic share is taken from the flavor weight; values outside [0, 0.6]
// are clamped and NaN takes DefaultSemanticWeight.
func NewWeights(semantic float64, enabled bool) Weights {
	if !enabled {
		return Weights{Flavor: baseFlavorWeight, Health: baseHealthWeight}
	}
	if math.IsNaN(semantic) {
		semantic = DefaultSemanticWeight
	}
	s := math.Min(math.Max(semantic, 0), maxSemanticWeight)
	return Weights{
		Flavor:   math.Round((baseFlavorWeight-s)*1e9) / 1e9,
		Health:   baseHealthWeight,
		Semantic: s,
	}
}

// SemanticEnabled reports whether a semantic pass contributes to ranking.
func (w Weights) SemanticEnabled() bool {
	return w.Semantic > 0
}

// withoutSemantic is the fallback when no semantic scores are available.
func (w Weights) withoutSemantic() Weights {
	return NewWeights(0, false)
}

func (w Weights) score(flavor, health, semantic float64) float64 {
	return flavor*w.Flavor + health*w.Health + semantic*w.Semantic
}
