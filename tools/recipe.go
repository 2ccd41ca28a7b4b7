package tools

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"swapagent/food"
	"swapagent/provider"
)

// maxCuisineRecipes bounds cuisine search results to keep the conversation small.
const maxCuisineRecipes = 10

type RecipeSearch struct{ recipes provider.Recipes }

func NewRecipeSearch(recipes provider.Recipes) *RecipeSearch { return &RecipeSearch{recipes: recipes} }

func (t *RecipeSearch) Name() string  { return "recipedb_search_by_ingredient" }
func (t *RecipeSearch) Title() string { return "Search Recipes by Ingredient" }
func (t *RecipeSearch) Description() string {
	return "Search RecipeDB for recipes that use a specific ingredient. " +
		"Use this to verify that a substitute ingredient is actually used " +
		"in real recipes (functional role verification)."
}

func (t *RecipeSearch) InputSchema() *jsonschema.Schema {
	return objectSchema(map[string]*jsonschema.Schema{
		"ingredient_name": stringProp("Ingredient to search for in recipes"),
	}, "ingredient_name")
}

func (t *RecipeSearch) OutputSchema() *jsonschema.Schema {
	return objectSchema(map[string]*jsonschema.Schema{
		"id":          {Type: "string"},
		"name":        {Type: "string"},
		"ingredients": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		"error":       {Type: "string"},
	})
}

func (t *RecipeSearch) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	name, err := stringArg(input, "ingredient_name")
	if err != nil {
		return nil, err
	}
	r, err := t.recipes.RecipeByName(ctx, name)
	if errors.Is(err, food.ErrRecipeNotFound) {
		return map[string]any{"error": "No recipes found", "note": "RecipeDB may be down"}, nil
	}
	if err != nil {
		return nil, err
	}
	return toMap(r)
}

type NutritionGet struct{ recipes provider.Recipes }

func NewNutritionGet(recipes provider.Recipes) *NutritionGet { return &NutritionGet{recipes: recipes} }

func (t *NutritionGet) Name() string  { return "recipedb_get_nutrition_info" }
func (t *NutritionGet) Title() string { return "Get Recipe Nutrition" }
func (t *NutritionGet) Description() string {
	return "Get macronutrient data (calories, protein, carbs, fat, sodium, etc.) " +
		"for a recipe by its RecipeDB ID."
}

func (t *NutritionGet) InputSchema() *jsonschema.Schema {
	return objectSchema(map[string]*jsonschema.Schema{
		"recipe_id": stringProp("RecipeDB recipe ID"),
	}, "recipe_id")
}

func (t *NutritionGet) OutputSchema() *jsonschema.Schema {
	props := make(map[string]*jsonschema.Schema, len(food.NutrientKeys)+1)
	for _, k := range food.NutrientKeys {
		props[k] = &jsonschema.Schema{Type: "number"}
	}
	props["error"] = &jsonschema.Schema{Type: "string"}
	return objectSchema(props)
}

func (t *NutritionGet) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	id, err := stringArg(input, "recipe_id")
	if err != nil {
		return nil, err
	}
	n, err := t.recipes.Nutrition(ctx, id)
	if errors.Is(err, food.ErrNutritionUnavailable) {
		return map[string]any{"error": err.Error()}, nil
	}
	if err != nil {
		return nil, err
	}
	return toMap(n)
}

type CuisineSearch struct{ recipes provider.Recipes }

func NewCuisineSearch(recipes provider.Recipes) *CuisineSearch { return &CuisineSearch{recipes: recipes} }

func (t *CuisineSearch) Name() string  { return "recipedb_search_by_cuisine" }
func (t *CuisineSearch) Title() string { return "Search Recipes by Cuisine" }
func (t *CuisineSearch) Description() string {
	return "Search RecipeDB for recipes from a specific cuisine. " +
		"Useful to find traditional uses of substitute ingredients."
}

func (t *CuisineSearch) InputSchema() *jsonschema.Schema {
	return objectSchema(map[string]*jsonschema.Schema{
		"cuisine": stringProp("Cuisine type, e.g. 'Indian', 'Italian', 'Mexican'"),
	}, "cuisine")
}

func (t *CuisineSearch) OutputSchema() *jsonschema.Schema {
	return listSchema("recipes")
}

func (t *CuisineSearch) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	cuisine, err := stringArg(input, "cuisine")
	if err != nil {
		return nil, err
	}
	recipes, err := t.recipes.RecipesByCuisine(ctx, cuisine)
	if err != nil {
		return nil, err
	}
	if len(recipes) > maxCuisineRecipes {
		recipes = recipes[:maxCuisineRecipes]
	}
	return wrap("recipes", recipes)
}
