package swap

import (
	"strings"

	"swapagent/food"
	"swapagent/ingredient"
)

type swapEntry struct {
	original     string
	alternatives []string
}

type swapCategory struct {
	category string
	entries  []swapEntry
}

// healthySwaps is the curated catalog of healthier alternatives, grouped by
// ingredient category. Entry order is the order candidates are proposed in.
var healthySwaps = []swapCategory{
	{ingredient.CategoryOil, []swapEntry{
		{"vegetable oil", []string{"olive oil", "avocado oil", "coconut oil"}},
		{"butter", []string{"ghee", "olive oil", "avocado", "coconut oil"}},
		{"margarine", []string{"olive oil", "avocado oil"}},
		{"shortening", []string{"coconut oil", "applesauce"}},
		{"lard", []string{"olive oil", "avocado oil"}},
	}},
	{ingredient.CategorySweetener, []swapEntry{
		{"sugar", []string{"honey", "maple syrup", "stevia", "monk fruit"}},
		{"white sugar", []string{"coconut sugar", "date sugar", "honey"}},
		{"brown sugar", []string{"coconut sugar", "maple syrup", "date sugar"}},
		{"corn syrup", []string{"honey", "maple syrup", "agave nectar"}},
		{"high fructose corn syrup", []string{"honey", "maple syrup"}},
	}},
	{ingredient.CategoryDairy, []swapEntry{
		{"cream", []string{"coconut cream", "cashew cream"}},
		{"heavy cream", []string{"coconut cream", "cashew cream"}},
		{"milk", []string{"almond milk", "oat milk", "soy milk", "coconut milk"}},
		{"whole milk", []string{"almond milk", "oat milk", "low-fat milk"}},
		{"sour cream", []string{"greek yogurt", "coconut cream"}},
		{"cheese", []string{"nutritional yeast", "cashew cheese"}},
	}},
	{ingredient.CategoryGrain, []swapEntry{
		{"white rice", []string{"brown rice", "quinoa", "cauliflower rice"}},
		{"white flour", []string{"whole wheat flour", "almond flour", "oat flour"}},
		{"all-purpose flour", []string{"whole wheat flour", "spelt flour"}},
		{"pasta", []string{"whole wheat pasta", "zucchini noodles", "soba noodles"}},
		{"white bread", []string{"whole wheat bread", "sourdough bread"}},
	}},
	{ingredient.CategoryProtein, []swapEntry{
		{"ground beef", []string{"ground turkey", "ground chicken", "lentils"}},
		{"bacon", []string{"turkey bacon", "tempeh bacon"}},
		{"sausage", []string{"chicken sausage", "turkey sausage"}},
	}},
	{ingredient.CategoryCondiment, []swapEntry{
		{"mayonnaise", []string{"greek yogurt", "avocado", "hummus"}},
		{"ketchup", []string{"tomato paste", "salsa"}},
		{"soy sauce", []string{"coconut aminos", "tamari"}},
	}},
	{ingredient.CategorySpice, []swapEntry{
		{"salt", []string{"herbs", "lemon juice", "garlic powder"}},
		{"seasoning salt", []string{"herb blend", "garlic powder"}},
	}},
}

type estimate struct {
	keyword string
	value   float64
}

// improvementEstimates are first-match keyword estimates of the health score
// gain from a substitute.
var improvementEstimates = []estimate{
	{"olive oil", 8},
	{"avocado oil", 8},
	{"coconut oil", 5},
	{"honey", 3},
	{"maple syrup", 3},
	{"stevia", 7},
	{"monk fruit", 7},
	{"almond milk", 6},
	{"oat milk", 5},
	{"coconut milk", 4},
	{"soy milk", 6},
	{"brown rice", 7},
	{"quinoa", 8},
	{"whole wheat flour", 6},
	{"almond flour", 7},
	{"oat flour", 6},
}

const defaultImprovement = 5.0

type adjustment struct {
	keyword string
	factors map[string]float64
}

// nutritionAdjustments are per-nutrient multipliers applied to a swapped
// ingredient's share of the recipe. First keyword match wins, so longer
// names precede their substrings ("avocado oil" before "avocado").
var nutritionAdjustments = []adjustment{
	{"olive oil", map[string]float64{food.SaturatedFat: 0.55, food.TransFat: 0, food.Cholesterol: 0.5}},
	{"avocado oil", map[string]float64{food.SaturatedFat: 0.5, food.TransFat: 0, food.Cholesterol: 0.4}},
	{"coconut oil", map[string]float64{food.SaturatedFat: 1.2, food.TransFat: 0, food.Cholesterol: 0.3}},
	{"ghee", map[string]float64{food.SaturatedFat: 0.9, food.TransFat: 0}},
	{"applesauce", map[string]float64{food.SaturatedFat: 0.1, food.Sugar: 1.3}},
	{"stevia", map[string]float64{food.Sugar: 0.05}},
	{"monk fruit", map[string]float64{food.Sugar: 0.05}},
	{"honey", map[string]float64{food.Sugar: 0.85}},
	{"maple syrup", map[string]float64{food.Sugar: 0.8}},
	{"coconut sugar", map[string]float64{food.Sugar: 0.75}},
	{"date sugar", map[string]float64{food.Sugar: 0.7, food.Fiber: 1.5}},
	{"agave", map[string]float64{food.Sugar: 0.8}},
	{"almond milk", map[string]float64{food.SaturatedFat: 0.2, food.Cholesterol: 0}},
	{"oat milk", map[string]float64{food.SaturatedFat: 0.2, food.Cholesterol: 0, food.Fiber: 1.5}},
	{"soy milk", map[string]float64{food.SaturatedFat: 0.25, food.Cholesterol: 0}},
	{"coconut cream", map[string]float64{food.SaturatedFat: 1.1, food.Cholesterol: 0}},
	{"cashew cream", map[string]float64{food.SaturatedFat: 0.4, food.Cholesterol: 0}},
	{"greek yogurt", map[string]float64{food.SaturatedFat: 0.5, food.Cholesterol: 0.6, food.Sugar: 0.5}},
	{"nutritional yeast", map[string]float64{food.SaturatedFat: 0.1, food.Cholesterol: 0, food.Sodium: 0.3}},
	{"brown rice", map[string]float64{food.Fiber: 2}},
	{"quinoa", map[string]float64{food.Fiber: 2}},
	{"cauliflower rice", map[string]float64{food.Fiber: 1.5}},
	{"whole wheat flour", map[string]float64{food.Fiber: 2}},
	{"almond flour", map[string]float64{food.Fiber: 2}},
	{"oat flour", map[string]float64{food.Fiber: 2}},
	{"whole wheat pasta", map[string]float64{food.Fiber: 2}},
	{"zucchini noodles", map[string]float64{food.Fiber: 1.5}},
	{"ground turkey", map[string]float64{food.SaturatedFat: 0.5, food.Cholesterol: 0.7}},
	{"ground chicken", map[string]float64{food.SaturatedFat: 0.4, food.Cholesterol: 0.6}},
	{"lentils", map[string]float64{food.SaturatedFat: 0.1, food.Cholesterol: 0, food.Fiber: 3}},
	{"turkey bacon", map[string]float64{food.SaturatedFat: 0.4, food.Sodium: 0.8}},
	{"tempeh", map[string]float64{food.SaturatedFat: 0.2, food.Cholesterol: 0, food.Fiber: 2.5}},
	{"chicken sausage", map[string]float64{food.SaturatedFat: 0.5}},
	{"turkey sausage", map[string]float64{food.SaturatedFat: 0.45}},
	{"hummus", map[string]float64{food.SaturatedFat: 0.3, food.Fiber: 2, food.Cholesterol: 0}},
	{"avocado", map[string]float64{food.SaturatedFat: 0.3, food.Fiber: 2.5, food.Cholesterol: 0}},
	{"coconut aminos", map[string]float64{food.Sodium: 0.4}},
	{"tamari", map[string]float64{food.Sodium: 0.7}},
	{"salsa", map[string]float64{food.Sugar: 0.3, food.Sodium: 0.6}},
	{"herbs", map[string]float64{food.Sodium: 0}},
	{"lemon juice", map[string]float64{food.Sodium: 0}},
	{"garlic powder", map[string]float64{food.Sodium: 0.05}},
	{"herb blend", map[string]float64{food.Sodium: 0.05}},
}

var defaultAdjustment = map[string]float64{
	food.SaturatedFat: 0.85,
	food.Sodium:       0.85,
	food.Sugar:        0.85,
	food.Cholesterol:  0.85,
}

// adjustableNutrients are the only nutrients a projection changes, in the
// order they are applied. Calories and macros stay fixed so macro scoring is
// not distorted.
var adjustableNutrients = []string{food.Sugar, food.Sodium, food.SaturatedFat, food.TransFat, food.Cholesterol, food.Fiber}

// baselines are injected when a nutrient is 0 but the substitute adds it.
var baselines = map[string]float64{
	food.Sugar:        5,
	food.Sodium:       50,
	food.SaturatedFat: 2,
	food.TransFat:     0,
	food.Cholesterol:  20,
	food.Fiber:        2,
}

// Categories returns the swap catalog's categories in catalog order.
func Categories() []string {
	out := make([]string, 0, len(healthySwaps))
	for _, c := range healthySwaps {
		out = append(out, c.category)
	}
	return out
}

// Alternatives returns a copy of the catalog entry for original in category.
func Alternatives(category, original string) ([]string, bool) {
	for _, e := range entriesFor(category) {
		if e.original == original {
			return append([]string(nil), e.alternatives...), true
		}
	}
	return nil, false
}

func entriesFor(category string) []swapEntry {
	for _, c := range healthySwaps {
		if c.category == category {
			return c.entries
		}
	}
	return nil
}

// ImprovementEstimate is the static health gain for substitute before score
// scaling. Keyword tables match the lower-cased name rather than the
// normalized one so catalog names like "whole wheat flour" keep their words.
func ImprovementEstimate(substitute string) float64 {
	n := strings.ToLower(substitute)
	for _, e := range improvementEstimates {
		if strings.Contains(n, e.keyword) {
			return e.value
		}
	}
	return defaultImprovement
}

// Adjustments returns a copy of the nutrient multipliers for substitute.
func Adjustments(substitute string) map[string]float64 {
	n := strings.ToLower(substitute)
	src := defaultAdjustment
	for _, a := range nutritionAdjustments {
		if strings.Contains(n, a.keyword) {
			src = a.factors
			break
		}
	}
	out := make(map[string]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
