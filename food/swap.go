package food

import "errors"

var (
	// ErrNutritionUnavailable is returned when a recipe provider has no nutrition for a recipe.
	ErrNutritionUnavailable = errors.New("nutrition unavailable")
	// ErrRecipeNotFound is returned when a recipe lookup has no match.
	ErrRecipeNotFound = errors.New("recipe not found")
)

// Recipe is the subset of recipe data the pipeline consumes.
type Recipe struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Cuisine     string   `json:"cuisine,omitempty"`
	DietType    string   `json:"diet_type,omitempty"`
	Ingredients []string `json:"ingredients"`
	Servings    int      `json:"servings,omitempty"`
}

// RiskyIngredient is an ingredient flagged for substitution.
type RiskyIngredient struct {
	Name                  string  `json:"name"`
	Reason                string  `json:"reason"`
	Priority              int     `json:"priority"`
	Category              string  `json:"category,omitempty"`
	HealthImpact          float64 `json:"health_impact"`
	AlternativesAvailable bool    `json:"alternatives_available"`
}

// SubstituteOption is one ranked replacement for a risky ingredient.
type SubstituteOption struct {
	Name              string   `json:"name"`
	FlavorMatch       float64  `json:"flavor_match"`
	HealthImprovement float64  `json:"health_improvement"`
	Category          string   `json:"category,omitempty"`
	RankScore         float64  `json:"rank_score"`
	Explanation       string   `json:"explanation,omitempty"`
	SharedMolecules   []string `json:"shared_molecules,omitempty"`
}

// Swap pairs an original ingredient with a chosen substitute.
type Swap struct {
	Original   string           `json:"original"`
	Substitute SubstituteOption `json:"substitute"`
	Accepted   bool             `json:"accepted"`
}

// MaxSubstitutes caps every ranked substitute list.
const MaxSubstitutes = 5

// SubstitutionRequest is the input shared by every substitution source.
type SubstitutionRequest struct {
	RecipeName       string
	Ingredients      []string
	Nutrition        Nutrition
	HealthScore      float64
	Risky            []RiskyIngredient
	Allergens        []string
	AvoidIngredients []string
}

// OutcomeStatus summarizes how a substitution source finished.
type OutcomeStatus string

const (
	StatusOK      OutcomeStatus = "ok"
	StatusPartial OutcomeStatus = "partial"
	StatusFailed  OutcomeStatus = "failed"
)

// SubstitutionOutcome is what a substitution source hands back to callers.
// Swaps hold the top choice per ingredient; Options holds every ranked option.
type SubstitutionOutcome struct {
	Source    string                        `json:"source"`
	Status    OutcomeStatus                 `json:"status"`
	Risky     []RiskyIngredient             `json:"risky_ingredients"`
	Swaps     []Swap                        `json:"swaps"`
	Options   map[string][]SubstituteOption `json:"options,omitempty"`
	Projected Nutrition                     `json:"projected_nutrition"`
	Improved  []string                      `json:"improved_ingredients,omitempty"`
	Metadata  map[string]any                `json:"metadata,omitempty"`
	Reasoning string                        `json:"reasoning,omitempty"`
}
