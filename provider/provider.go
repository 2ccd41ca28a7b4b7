// Package provider declares the data sources the ranker, the agent tools and
// the pipeline depend on. Implementations live in the subpackages: flavordb
// and recipedb talk to the CosyLab HTTP APIs, local serves a SQLite mirror.
//
// Lookups degrade to empty values rather than errors when upstream data is
// missing. The exceptions are Recipes.Nutrition, which reports
// food.ErrNutritionUnavailable so callers can pick a fallback, and the single
// recipe lookups, which report food.ErrRecipeNotFound.
package provider

import (
	"context"

	"swapagent/food"
)

// Flavor is what the ranker needs from a flavor data source.
type Flavor interface {
	FlavorProfile(ctx context.Context, ingredient string) (food.FlavorProfile, error)
	Pairings(ctx context.Context, ingredient string) ([]string, error)
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// FlavorLookup adds the molecule-level queries exposed to the agent.
type FlavorLookup interface {
	Flavor
	MoleculeByCommonName(ctx context.Context, name string) (food.MoleculeDetail, error)
	MoleculesByFlavor(ctx context.Context, flavor string) ([]food.MoleculeInfo, error)
	MoleculesByFunctionalGroup(ctx context.Context, group string) ([]food.MoleculeInfo, error)
	MoleculesByWeightRange(ctx context.Context, min, max float64) ([]food.MoleculeInfo, error)
	MoleculesByPolarSurfaceArea(ctx context.Context, min, max float64) ([]food.MoleculeInfo, error)
	MoleculesByHBDHBA(ctx context.Context, minHBD, maxHBD, minHBA, maxHBA int) ([]food.MoleculeInfo, error)
	AromaThreshold(ctx context.Context, molecule string) (food.Threshold, error)
	TasteThreshold(ctx context.Context, molecule string) (food.Threshold, error)
	NaturalOccurrence(ctx context.Context, molecule string) (food.Occurrence, error)
	PhysicochemicalProperties(ctx context.Context, molecule string) (food.Physicochemical, error)
	RegulatoryInfo(ctx context.Context, molecule string) (food.Regulatory, error)
}

// Recipes is a recipe and nutrition data source.
type Recipes interface {
	RecipeByName(ctx context.Context, name string) (food.Recipe, error)
	RecipeByID(ctx context.Context, id string) (food.Recipe, error)
	Nutrition(ctx context.Context, recipeID string) (food.Nutrition, error)
	Micronutrients(ctx context.Context, recipeID string) (food.Micronutrients, error)
	RecipesByCuisine(ctx context.Context, cuisine string) ([]food.Recipe, error)
	RecipesByDiet(ctx context.Context, diet string) ([]food.Recipe, error)
	RecipesByCalories(ctx context.Context, min, max float64) ([]food.Recipe, error)
	RecipesByProtein(ctx context.Context, min, max float64) ([]food.Recipe, error)
}

// FallbackTag marks log lines emitted when a provider substitutes an empty
// value for missing upstream data.
const FallbackTag = "[COSYLAB API FALLBACK]"
