package food

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Nutrient keys used across the scorer, the projections and the providers.
const (
	Calories     = "calories"
	Protein      = "protein"
	Carbs        = "carbs"
	Fat          = "fat"
	SaturatedFat = "saturated_fat"
	TransFat     = "trans_fat"
	Sodium       = "sodium"
	Sugar        = "sugar"
	Cholesterol  = "cholesterol"
	Fiber        = "fiber"
)

// NutrientKeys lists every nutrient key in a stable order.
var NutrientKeys = []string{Calories, Protein, Carbs, Fat, SaturatedFat, TransFat, Sodium, Sugar, Cholesterol, Fiber}

// Nutrition is the per-serving macronutrient record of a recipe.
// Grams for macros and fats, milligrams for sodium and cholesterol.
type Nutrition struct {
	Calories     float64 `json:"calories"`
	Protein      float64 `json:"protein"`
	Carbs        float64 `json:"carbs"`
	Fat          float64 `json:"fat"`
	SaturatedFat float64 `json:"saturated_fat"`
	TransFat     float64 `json:"trans_fat"`
	Sodium       float64 `json:"sodium"`
	Sugar        float64 `json:"sugar"`
	Cholesterol  float64 `json:"cholesterol"`
	Fiber        float64 `json:"fiber"`
}

// DefaultNutrition is used when no provider can supply nutrition for a recipe.
var DefaultNutrition = Nutrition{
	Calories:     250,
	Protein:      10,
	Carbs:        30,
	Fat:          12,
	SaturatedFat: 4,
	TransFat:     0,
	Sodium:       300,
	Sugar:        15,
	Cholesterol:  30,
	Fiber:        2,
}

// Get returns the value stored under key, or 0 for unknown keys.
func (n Nutrition) Get(key string) float64 {
	switch key {
	case Calories:
		return n.Calories
	case Protein:
		return n.Protein
	case Carbs:
		return n.Carbs
	case Fat:
		return n.Fat
	case SaturatedFat:
		return n.SaturatedFat
	case TransFat:
		return n.TransFat
	case Sodium:
		return n.Sodium
	case Sugar:
		return n.Sugar
	case Cholesterol:
		return n.Cholesterol
	case Fiber:
		return n.Fiber
	}
	return 0
}

// With returns a copy of n with key set to v. Unknown keys leave n unchanged.
func (n Nutrition) With(key string, v float64) Nutrition {
	switch key {
	case Calories:
		n.Calories = v
	case Protein:
		n.Protein = v
	case Carbs:
		n.Carbs = v
	case Fat:
		n.Fat = v
	case SaturatedFat:
		n.SaturatedFat = v
	case TransFat:
		n.TransFat = v
	case Sodium:
		n.Sodium = v
	case Sugar:
		n.Sugar = v
	case Cholesterol:
		n.Cholesterol = v
	case Fiber:
		n.Fiber = v
	}
	return n
}

// Map returns the record keyed by nutrient name.
func (n Nutrition) Map() map[string]float64 {
	out := make(map[string]float64, len(NutrientKeys))
	for _, k := range NutrientKeys {
		out[k] = n.Get(k)
	}
	return out
}

var nutrientAliases = map[string][]string{
	Calories:     {"calories", "energy", "energy_kcal"},
	Protein:      {"protein"},
	Carbs:        {"carbs", "carbohydrates"},
	Fat:          {"fat", "total_fat"},
	SaturatedFat: {"saturated_fat"},
	TransFat:     {"trans_fat"},
	Sodium:       {"sodium"},
	Sugar:        {"sugar", "sugars"},
	Cholesterol:  {"cholesterol"},
	Fiber:        {"fiber", "dietary_fiber"},
}

// NutritionFromMap decodes a loosely shaped provider payload. Keys are matched
// case-insensitively and a nested "nutrition" object is unwrapped.
func NutritionFromMap(m map[string]any) Nutrition {
	if inner, ok := m["nutrition"].(map[string]any); ok {
		m = inner
	}
	lower := make(map[string]any, len(m))
	for k, v := range m {
		lower[strings.ToLower(k)] = v
	}

	var n Nutrition
	for _, key := range NutrientKeys {
		for _, alias := range nutrientAliases[key] {
			if v, ok := lower[alias]; ok {
				n = n.With(key, max(ToFloat(v), 0))
				break
			}
		}
	}
	return n
}

// ToFloat converts JSON-ish numeric values to float64. Anything else is 0.
func ToFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		f, _ := t.Float64()
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// Micronutrients holds vitamin and mineral amounts keyed by nutrient name.
type Micronutrients struct {
	Vitamins map[string]float64 `json:"vitamins"`
	Minerals map[string]float64 `json:"minerals"`
}

// VitaminKeys and MineralKeys are the micronutrients the providers report.
var (
	VitaminKeys = []string{"vitamin_a", "vitamin_c", "vitamin_d", "vitamin_e", "vitamin_k", "thiamin", "riboflavin", "niacin", "vitamin_b6", "folate", "vitamin_b12"}
	MineralKeys = []string{"calcium", "iron", "magnesium", "phosphorus", "potassium", "zinc", "selenium"}
)

var vitaminAliases = map[string]string{
	"thiamin":    "vitamin_b1",
	"riboflavin": "vitamin_b2",
	"niacin":     "vitamin_b3",
	"folate":     "vitamin_b9",
}

// EmptyMicronutrients returns a record with every known key set to 0.
func EmptyMicronutrients() Micronutrients {
	m := Micronutrients{Vitamins: map[string]float64{}, Minerals: map[string]float64{}}
	for _, k := range VitaminKeys {
		m.Vitamins[k] = 0
	}
	for _, k := range MineralKeys {
		m.Minerals[k] = 0
	}
	return m
}

// MicronutrientsFromMap decodes a provider payload, unwrapping a nested
// "micronutrients" object and resolving B-vitamin aliases.
func MicronutrientsFromMap(m map[string]any) Micronutrients {
	if inner, ok := m["micronutrients"].(map[string]any); ok {
		m = inner
	}
	vitamins, _ := m["vitamins"].(map[string]any)
	minerals, _ := m["minerals"].(map[string]any)

	out := EmptyMicronutrients()
	for _, k := range VitaminKeys {
		if v, ok := vitamins[k]; ok {
			out.Vitamins[k] = ToFloat(v)
		} else if alias, ok := vitaminAliases[k]; ok {
			out.Vitamins[k] = ToFloat(vitamins[alias])
		}
	}
	for _, k := range MineralKeys {
		out.Minerals[k] = ToFloat(minerals[k])
	}
	return out
}
