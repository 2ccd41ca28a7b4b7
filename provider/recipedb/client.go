// Package recipedb is a client for the RecipeDB recipe and nutrition API.
package recipedb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"swapagent/food"
	"swapagent/provider"
	"swapagent/provider/cache"
	"swapagent/provider/cosylab"
)

const (
	endpointByTitle       = "recipe_by_title"
	endpointByID          = "recipe_by_id"
	endpointNutrition     = "recipe_nutrition_info"
	endpointMicronutrient = "recipe_micro_nutrition_info"
	endpointByCalories    = "recipe_by_calories"
	endpointByProtein     = "recipe_by_protein_range"
	endpointByCuisine     = "recipe_by_cuisine"
	endpointByDiet        = "recipe_by_diet"

	// searchLimit is the page size sent to range searches.
	searchLimit = 10
)

type getter interface {
	Get(ctx context.Context, endpoint string, params url.Values) (any, error)
	Available(ctx context.Context, endpoint string, params url.Values) bool
}

// Client implements provider.Recipes.
type Client struct {
	api   getter
	cache cache.Cache
}

var _ provider.Recipes = (*Client)(nil)

func NewClient(api *cosylab.Client, c cache.Cache) *Client {
	return &Client{api: api, cache: c}
}

// RecipeByName returns the first recipe whose title matches name.
func (c *Client) RecipeByName(ctx context.Context, name string) (food.Recipe, error) {
	r, err := cache.Fetch(ctx, c.cache, cache.Key("recipe", "title", name), func(ctx context.Context) (food.Recipe, error) {
		v, err := c.api.Get(ctx, endpointByTitle, url.Values{"title": {name}})
		if err != nil {
			return food.Recipe{}, err
		}
		items := cosylab.List(v, true, "recipes", "data", "content")
		if len(items) == 0 {
			return food.Recipe{}, food.ErrRecipeNotFound
		}
		r, ok := parseRecipe(items[0])
		if !ok {
			return food.Recipe{}, food.ErrRecipeNotFound
		}
		return r, nil
	})
	if err != nil {
		return food.Recipe{}, c.notFound(ctx, endpointByTitle, name, err)
	}

	slog.Info("PROVIDER: Recipe found", "recipe", r.Name, "id", r.ID)
	return r, nil
}

func (c *Client) RecipeByID(ctx context.Context, id string) (food.Recipe, error) {
	r, err := cache.Fetch(ctx, c.cache, cache.Key("recipe", "id", id), func(ctx context.Context) (food.Recipe, error) {
		v, err := c.api.Get(ctx, endpointByID, url.Values{"id": {id}})
		if err != nil {
			return food.Recipe{}, err
		}
		r, ok := parseRecipe(cosylab.Object(v, "recipe"))
		if !ok {
			return food.Recipe{}, food.ErrRecipeNotFound
		}
		return r, nil
	})
	if err != nil {
		return food.Recipe{}, c.notFound(ctx, endpointByID, id, err)
	}
	return r, nil
}

// Nutrition returns food.ErrNutritionUnavailable when RecipeDB has no data
// for the recipe, so callers can choose a fallback.
func (c *Client) Nutrition(ctx context.Context, recipeID string) (food.Nutrition, error) {
	v, err := c.api.Get(ctx, endpointNutrition, url.Values{"id": {recipeID}})
	if err != nil {
		if ctx.Err() != nil {
			return food.Nutrition{}, ctx.Err()
		}
		return food.Nutrition{}, fmt.Errorf("recipe %s: %w: %w", recipeID, food.ErrNutritionUnavailable, err)
	}
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return food.Nutrition{}, fmt.Errorf("recipe %s: %w", recipeID, food.ErrNutritionUnavailable)
	}

	n := food.NutritionFromMap(m)
	slog.Debug("PROVIDER: Nutrition fetched", "recipe_id", recipeID, "calories", n.Calories)
	return n, nil
}

// Micronutrients degrades to an all-zero record when RecipeDB has no data.
func (c *Client) Micronutrients(ctx context.Context, recipeID string) (food.Micronutrients, error) {
	v, err := c.api.Get(ctx, endpointMicronutrient, url.Values{"id": {recipeID}})
	if err != nil {
		if ctx.Err() != nil {
			return food.Micronutrients{}, ctx.Err()
		}
		slog.Warn("PROVIDER: "+provider.FallbackTag+" No micronutrients, using zeros", "recipe_id", recipeID, "error", err)
		return food.EmptyMicronutrients(), nil
	}
	return food.MicronutrientsFromMap(cosylab.Object(v)), nil
}

func (c *Client) RecipesByCuisine(ctx context.Context, cuisine string) ([]food.Recipe, error) {
	return c.search(ctx, endpointByCuisine, url.Values{"cuisine": {cuisine}})
}

func (c *Client) RecipesByDiet(ctx context.Context, diet string) ([]food.Recipe, error) {
	return c.search(ctx, endpointByDiet, url.Values{"diet": {diet}})
}

func (c *Client) RecipesByCalories(ctx context.Context, min, max float64) ([]food.Recipe, error) {
	return c.search(ctx, endpointByCalories, url.Values{
		"min_calories": {ftoa(min)},
		"max_calories": {ftoa(max)},
		"limit":        {strconv.Itoa(searchLimit)},
	})
}

func (c *Client) RecipesByProtein(ctx context.Context, min, max float64) ([]food.Recipe, error) {
	return c.search(ctx, endpointByProtein, url.Values{
		"min_protein": {ftoa(min)},
		"max_protein": {ftoa(max)},
	})
}

// Available probes RecipeDB with a known recipe id.
func (c *Client) Available(ctx context.Context) bool {
	return c.api.Available(ctx, endpointByID, url.Values{"id": {"1"}})
}

func (c *Client) Clear(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	if err := c.cache.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear recipedb cache: %w", err)
	}
	return nil
}

func (c *Client) CacheStats() cache.Stats {
	if c.cache == nil {
		return cache.Stats{}
	}
	return c.cache.Stats()
}

func (c *Client) search(ctx context.Context, endpoint string, params url.Values) ([]food.Recipe, error) {
	v, err := c.api.Get(ctx, endpoint, params)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("PROVIDER: "+provider.FallbackTag+" Search failed, returning no recipes",
			"endpoint", endpoint,
			"params", params.Encode(),
			"error", err,
		)
		return []food.Recipe{}, nil
	}

	items := cosylab.List(v, true, "recipes", "data", "content")
	out := make([]food.Recipe, 0, len(items))
	for _, item := range items {
		if r, ok := parseRecipe(item); ok {
			out = append(out, r)
		}
	}
	slog.Info("PROVIDER: Recipes found", "endpoint", endpoint, "count", len(out))
	return out, nil
}

// notFound maps upstream failures onto food.ErrRecipeNotFound.
func (c *Client) notFound(ctx context.Context, endpoint, subject string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !errors.Is(err, food.ErrRecipeNotFound) {
		slog.Warn("PROVIDER: "+provider.FallbackTag+" Recipe lookup failed",
			"endpoint", endpoint,
			"subject", subject,
			"error", err,
		)
		return fmt.Errorf("%s: %w: %w", subject, food.ErrRecipeNotFound, err)
	}
	return fmt.Errorf("%s: %w", subject, err)
}

// parseRecipe accepts both the documented shape and the raw RecipeDB row
// shape (Recipe_id, Recipe_title).
func parseRecipe(v any) (food.Recipe, bool) {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return food.Recipe{}, false
	}
	r := food.Recipe{
		ID:          cosylab.Scalar(m, "id", "recipe_id", "Recipe_id"),
		Name:        cosylab.String(m, "name", "title", "recipe_title", "Recipe_title"),
		Cuisine:     cosylab.String(m, "cuisine", "Region", "region"),
		DietType:    cosylab.String(m, "diet_type", "diet"),
		Ingredients: cosylab.Strings(m, "ingredients", "ingredient"),
	}
	if s, ok := cosylab.Float(m, "servings"); ok {
		r.Servings = int(s)
	}
	if r.ID == "" && r.Name == "" {
		return food.Recipe{}, false
	}
	return r, true
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
