// Package ingredient holds the pure text and arithmetic helpers shared by the
// scorer, the ranker and the agent: name normalization, categorization and
// macro conversions.
package ingredient

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

var (
	parenthetical = regexp.MustCompile(`\([^)]*\)`)
	quantityUnit  = regexp.MustCompile(`\b\d+\.?\d*\s*(?:/\s*\d+)?\s*(?:cup|cups|tablespoon|tablespoons|tbsp|teaspoon|teaspoons|tsp|ounce|ounces|oz|pound|pounds|lb|lbs|gram|grams|g|kilogram|kilograms|kg|milliliter|milliliters|ml|liter|liters|l|pinch|dash|can|cans|package|packages|pkg)\b`)
	bareNumber    = regexp.MustCompile(`\b\d+\.?\d*\s*(?:/\s*\d+)?\b`)
	nonName       = regexp.MustCompile(`[^a-z\s-]`)
	spaces        = regexp.MustCompile(`\s+`)
	hyphens       = regexp.MustCompile(`-+`)
	prepWords     = regexp.MustCompile(`\b(?:fresh|frozen|dried|canned|chopped|diced|minced|sliced|grated|shredded|ground|whole|raw|cooked|large|small|medium|ripe|boneless|skinless|organic|extra virgin|unsalted|salted|plain)\b`)
)

// Normalize reduces a raw ingredient line to a comparable name.
// Quantities, units, parentheticals and preparation words are removed,
// so "1/2 lb. Ground Beef (85% lean)" becomes "beef". Normalize is idempotent.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	s := strings.ToLower(raw)
	s = parenthetical.ReplaceAllString(s, "")
	s = quantityUnit.ReplaceAllString(s, "")
	s = bareNumber.ReplaceAllString(s, "")

	// Every pass only removes or collapses characters, so this stops.
	for {
		next := stripOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func stripOnce(s string) string {
	s = nonName.ReplaceAllString(s, "")
	s = spaces.ReplaceAllString(s, " ")
	s = prepWords.ReplaceAllString(s, "")
	s = spaces.ReplaceAllString(s, " ")
	s = hyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, " -")
}

// Macronutrient kinds accepted by PercentOfCalories.
const (
	MacroProtein = "protein"
	MacroCarbs   = "carbs"
	MacroFat     = "fat"
)

var caloriesPerGram = map[string]float64{
	"protein":       4,
	"carbs":         4,
	"carbohydrates": 4,
	"fat":           9,
}

// PercentOfCalories converts grams of a macronutrient into the share of total
// calories it supplies, rounded to 2 decimals.
func PercentOfCalories(grams float64, kind string, totalCalories float64) (float64, error) {
	if totalCalories <= 0 {
		return 0, fmt.Errorf("total calories must be greater than zero, got %v", totalCalories)
	}
	factor, ok := caloriesPerGram[strings.ToLower(kind)]
	if !ok {
		return 0, fmt.Errorf("invalid nutrient type %q: must be protein, carbs or fat", kind)
	}
	return Round(grams*factor/totalCalories*100, 2), nil
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
