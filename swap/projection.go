package swap

import (
	"math"
	"strings"

	"swapagent/food"
	"swapagent/ingredient"
)

// ApplySwaps returns a copy of ingredients with every accepted swap applied.
// Ingredients are matched on their normalized names.
func ApplySwaps(ingredients []string, swaps []food.Swap) []string {
	replacements := make(map[string]string, len(swaps))
	for _, s := range swaps {
		if !s.Accepted {
			continue
		}
		replacements[ingredient.Normalize(s.Original)] = s.Substitute.Name
	}

	out := make([]string, len(ingredients))
	for i, ing := range ingredients {
		if sub, ok := replacements[ingredient.Normalize(ing)]; ok {
			out[i] = sub
			continue
		}
		out[i] = ing
	}
	return out
}

// EstimateNutritionWithSwaps projects n after the accepted swaps. Each swap
// is assumed to account for an equal share of the recipe. Calories and
// macros are left untouched.
func EstimateNutritionWithSwaps(n food.Nutrition, swaps []food.Swap, totalIngredients int) food.Nutrition {
	accepted := 0
	for _, s := range swaps {
		if s.Accepted {
			accepted++
		}
	}
	if accepted == 0 {
		return n
	}

	share := 1 / float64(max(totalIngredients, accepted+2, 3))
	out := n
	for _, s := range swaps {
		if !s.Accepted {
			continue
		}
		factors := Adjustments(s.Substitute.Name)
		for _, key := range adjustableNutrients {
			factor, ok := factors[key]
			if !ok {
				continue
			}
			orig := out.Get(key)
			if orig == 0 {
				if factor > 1 {
					out = out.With(key, baselines[key]*share*factor)
				}
				continue
			}
			out = out.With(key, orig-orig*share+orig*share*factor)
		}
	}

	for _, key := range adjustableNutrients {
		v := math.Max(out.Get(key), 0)
		out = out.With(key, round2(v))
	}
	return out
}

// ReconstructSwaps rebuilds accepted swaps from substitute names alone by
// pairing each with the first original ingredient of the same category.
// Names without a same-category original are dropped.
func ReconstructSwaps(original, accepted []string) []food.Swap {
	swaps := make([]food.Swap, 0, len(accepted))
	for _, name := range accepted {
		category := ingredient.Categorize(name)
		for _, orig := range original {
			if ingredient.Categorize(orig) != category {
				continue
			}
			swaps = append(swaps, food.Swap{
				Original: orig,
				Substitute: food.SubstituteOption{
					Name:     name,
					Category: category,
				},
				Accepted: true,
			})
			break
		}
	}
	return swaps
}

// Stats summarizes the swap catalog.
type Stats struct {
	TotalCategories             int            `json:"total_categories"`
	TotalOriginalIngredients    int            `json:"total_original_ingredients"`
	TotalAlternativeIngredients int            `json:"total_alternative_ingredients"`
	Categories                  []string       `json:"categories"`
	Weights                     Weights        `json:"weights"`
	PerCategory                 map[string]int `json:"per_category"`
}

// Statistics reports the catalog size and the weights the ranker uses.
func (r *Ranker) Statistics() Stats {
	s := Stats{
		Categories:  Categories(),
		Weights:     r.weights,
		PerCategory: make(map[string]int, len(healthySwaps)),
	}
	s.TotalCategories = len(s.Categories)

	alternatives := map[string]bool{}
	for _, c := range healthySwaps {
		s.TotalOriginalIngredients += len(c.entries)
		s.PerCategory[c.category] = len(c.entries)
		for _, e := range c.entries {
			for _, a := range e.alternatives {
				alternatives[strings.ToLower(a)] = true
			}
		}
	}
	s.TotalAlternativeIngredients = len(alternatives)
	return s
}
