package agent

import (
	"fmt"
	"math"
	"strings"

	"swapagent/food"
	"swapagent/ingredient"
)

// Completeness classifies how much tool-grounded evidence a run gathered.
type Completeness string

const (
	CompletenessFull       Completeness = "full"
	CompletenessPartial    Completeness = "partial"
	CompletenessMinimal    Completeness = "minimal"
	CompletenessParseError Completeness = "parse_error"
)

func (c Completeness) valid() bool {
	switch c {
	case CompletenessFull, CompletenessPartial, CompletenessMinimal, CompletenessParseError:
		return true
	}
	return false
}

const (
	defaultConfidence      = 0.5
	defaultFlavorScore     = 50.0
	maxExplanationLen      = 200
	defaultRiskReason      = "Identified as risky by AI agent"
	noSubstituteRiskReason = "Identified as risky but no suitable substitute found"
)

// Substitution is one swap proposed by the model.
type Substitution struct {
	Original                    string         `json:"original_ingredient"`
	Substitute                  string         `json:"substitute_ingredient"`
	Confidence                  float64        `json:"confidence"`
	FlavorSimilarity            float64        `json:"flavor_similarity_score"`
	HealthImprovementReasoning  string         `json:"health_improvement_reasoning"`
	FlavorPreservationReasoning string         `json:"flavor_preservation_reasoning"`
	FunctionalRoleMatch         string         `json:"functional_role_match"`
	ScientificBasis             map[string]any `json:"scientific_basis"`
	APIsUsed                    []string       `json:"apis_used"`
	Caveats                     string         `json:"caveats,omitempty"`
}

// Result is the outcome of one agent run. It is built once by the
// orchestrator and only read afterwards.
type Result struct {
	Substitutions           []Substitution `json:"substitutions"`
	OverallConfidence       float64        `json:"overall_confidence"`
	DataCompleteness        Completeness   `json:"data_completeness"`
	NoSubstituteIngredients []string       `json:"no_substitute_ingredients"`
	APIsCalled              []string       `json:"apis_called"`
	Iterations              int            `json:"iterations"`
	RawReasoning            string         `json:"raw_reasoning,omitempty"`
	Termination             Termination    `json:"termination"`
}

func newResult(c Completeness, raw string, apis []string, iterations int, t Termination) *Result {
	if apis == nil {
		apis = []string{}
	}
	return &Result{
		Substitutions:           []Substitution{},
		OverallConfidence:       defaultConfidence,
		DataCompleteness:        c,
		NoSubstituteIngredients: []string{},
		APIsCalled:              apis,
		Iterations:              iterations,
		RawReasoning:            raw,
		Termination:             t,
	}
}

// RiskyIngredients converts the result to the shape the ranker path produces.
func (r *Result) RiskyIngredients() []food.RiskyIngredient {
	out := make([]food.RiskyIngredient, 0, len(r.Substitutions)+len(r.NoSubstituteIngredients))
	for _, s := range r.Substitutions {
		reason := s.HealthImprovementReasoning
		if reason == "" {
			reason = defaultRiskReason
		}
		out = append(out, food.RiskyIngredient{
			Name:                  s.Original,
			Reason:                reason,
			Priority:              min(5, max(1, int(s.Confidence*5))),
			HealthImpact:          round(s.Confidence*10, 1),
			AlternativesAvailable: true,
		})
	}
	for _, name := range r.NoSubstituteIngredients {
		out = append(out, food.RiskyIngredient{
			Name:                  name,
			Reason:                noSubstituteRiskReason,
			Priority:              2,
			HealthImpact:          3.0,
			AlternativesAvailable: false,
		})
	}
	return out
}

// SwapSuggestions converts substitutions to unaccepted swaps.
func (r *Result) SwapSuggestions() []food.Swap {
	out := make([]food.Swap, 0, len(r.Substitutions))
	for _, s := range r.Substitutions {
		explanation := s.HealthImprovementReasoning
		if runes := []rune(explanation); len(runes) > maxExplanationLen {
			explanation = string(runes[:maxExplanationLen])
		}
		out = append(out, food.Swap{
			Original: s.Original,
			Substitute: food.SubstituteOption{
				Name:              s.Substitute,
				FlavorMatch:       s.FlavorSimilarity,
				HealthImprovement: round(s.Confidence*10, 1),
				RankScore:         round(s.FlavorSimilarity*0.6+s.Confidence*40, 2),
				Explanation:       explanation,
				SharedMolecules:   sharedMolecules(s.ScientificBasis),
			},
		})
	}
	return out
}

// ApplyToIngredients swaps ingredients that match an original
// case-insensitively, either as written or by normalized name, so
// "2 tbsp Butter" is replaced by a substitution for "butter".
func (r *Result) ApplyToIngredients(ingredients []string) []string {
	swaps := make(map[string]string, 2*len(r.Substitutions))
	for _, s := range r.Substitutions {
		swaps[strings.ToLower(s.Original)] = s.Substitute
		if n := ingredient.Normalize(s.Original); n != "" {
			if _, ok := swaps[n]; !ok {
				swaps[n] = s.Substitute
			}
		}
	}
	out := make([]string, len(ingredients))
	for i, ing := range ingredients {
		if sub, ok := swaps[strings.ToLower(ing)]; ok {
			out[i] = sub
			continue
		}
		if sub, ok := swaps[ingredient.Normalize(ing)]; ok {
			out[i] = sub
			continue
		}
		out[i] = ing
	}
	return out
}

var reducedByConfidence = []string{
	food.Calories, food.SaturatedFat, food.TransFat, food.Sodium, food.Sugar, food.Cholesterol,
}

// EstimateNutritionChanges is a rough proportional projection: every
// substitution lowers its share of the reduced nutrients by up to half,
// scaled by confidence, and raises fiber by a fifth of its share.
func (r *Result) EstimateNutritionChanges(n food.Nutrition, ingredientCount int) food.Nutrition {
	if ingredientCount == 0 {
		return n
	}
	p := 1 / float64(ingredientCount)
	out := n
	for _, s := range r.Substitutions {
		f := math.Max(0.3, 1-s.Confidence*0.5)
		for _, key := range reducedByConfidence {
			v := out.Get(key)
			out = out.With(key, v-v*p*(1-f))
		}
		out.Fiber += out.Fiber * p * 0.2
	}
	return out
}

// Explanation renders a readable summary of the run.
func (r *Result) Explanation(originalScore, improvedScore float64) string {
	if len(r.Substitutions) == 0 {
		return "No ingredient swaps were identified for this recipe."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The AI agent analyzed this recipe and proposed %d swap(s), improving the health score from %.1f to %.1f.\n\n",
		len(r.Substitutions), originalScore, improvedScore)

	for i, s := range r.Substitutions {
		fmt.Fprintf(&b, "%d. Replace **%s** with **%s** (confidence: %.0f%%, flavor similarity: %.0f/100)\n",
			i+1, s.Original, s.Substitute, s.Confidence*100, s.FlavorSimilarity)
		if s.HealthImprovementReasoning != "" {
			fmt.Fprintf(&b, "   Health: %s\n", s.HealthImprovementReasoning)
		}
		if s.FlavorPreservationReasoning != "" {
			fmt.Fprintf(&b, "   Flavor: %s\n", s.FlavorPreservationReasoning)
		}
		if s.Caveats != "" {
			fmt.Fprintf(&b, "   Note: %s\n", s.Caveats)
		}
		b.WriteString("\n")
	}

	if len(r.NoSubstituteIngredients) > 0 {
		fmt.Fprintf(&b, "No suitable substitutes found for: %s\n", strings.Join(r.NoSubstituteIngredients, ", "))
	}

	fmt.Fprintf(&b, "\nData completeness: %s | APIs called: %d | Agent iterations: %d",
		r.DataCompleteness, len(r.APIsCalled), r.Iterations)
	return b.String()
}

// Metadata summarizes the run for API responses and logs.
func (r *Result) Metadata() map[string]any {
	return map[string]any{
		"overall_confidence":  r.OverallConfidence,
		"data_completeness":   string(r.DataCompleteness),
		"apis_called":         r.APIsCalled,
		"iterations":          r.Iterations,
		"substitution_count":  len(r.Substitutions),
		"no_substitute_count": len(r.NoSubstituteIngredients),
		"termination":         r.Termination.String(),
	}
}

func sharedMolecules(basis map[string]any) []string {
	raw, _ := basis["shared_molecules"].([]any)
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
