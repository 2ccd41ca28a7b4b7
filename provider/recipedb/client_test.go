package recipedb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapagent/food"
	"swapagent/provider/cache"
	"swapagent/provider/cosylab"
)

func newTestClient(t *testing.T, routes map[string]string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path[1:] + "?" + r.URL.RawQuery
		body, ok := routes[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	api := cosylab.NewClient("RecipeDB", srv.URL, srv.Client(), cosylab.Options{Timeout: time.Second})
	return NewClient(api, cache.NewLRU(10, time.Hour))
}

func TestRecipeByName(t *testing.T) {
	c := newTestClient(t, map[string]string{
		"recipe_by_title?title=Butter+Chicken": `[
			{"Recipe_id": 2610, "Recipe_title": "Butter Chicken", "Region": "Indian", "ingredients": ["butter", "chicken", "cream"]},
			{"id": "9", "name": "Other"}
		]`,
		"recipe_by_title?title=Salad":   `{"id": "7", "name": "Salad", "ingredients": "lettuce"}`,
		"recipe_by_title?title=Nothing": `[]`,
	})
	ctx := context.Background()

	r, err := c.RecipeByName(ctx, "Butter Chicken")
	require.NoError(t, err)
	assert.Equal(t, food.Recipe{
		ID:          "2610",
		Name:        "Butter Chicken",
		Cuisine:     "Indian",
		Ingredients: []string{"butter", "chicken", "cream"},
	}, r)

	r, err = c.RecipeByName(ctx, "Salad")
	require.NoError(t, err)
	assert.Equal(t, []string{"lettuce"}, r.Ingredients)

	_, err = c.RecipeByName(ctx, "Nothing")
	assert.ErrorIs(t, err, food.ErrRecipeNotFound)

	_, err = c.RecipeByName(ctx, "Unknown")
	assert.ErrorIs(t, err, food.ErrRecipeNotFound)
}

func TestRecipeByID(t *testing.T) {
	c := newTestClient(t, map[string]string{
		"recipe_by_id?id=42": `{"recipe": {"id": 42, "title": "Pancakes", "diet": "vegetarian", "servings": 4}}`,
	})

	r, err := c.RecipeByID(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "42", r.ID)
	assert.Equal(t, "Pancakes", r.Name)
	assert.Equal(t, "vegetarian", r.DietType)
	assert.Equal(t, 4, r.Servings)
}

func TestNutrition(t *testing.T) {
	c := newTestClient(t, map[string]string{
		"recipe_nutrition_info?id=1": `{"nutrition": {"Calories": 350, "protein": "25", "carbohydrates": 30, "total_fat": 15, "sodium": 450}}`,
		"recipe_nutrition_info?id=2": `{}`,
	})
	ctx := context.Background()

	n, err := c.Nutrition(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 350.0, n.Calories)
	assert.Equal(t, 25.0, n.Protein)
	assert.Equal(t, 30.0, n.Carbs)
	assert.Equal(t, 15.0, n.Fat)
	assert.Equal(t, 450.0, n.Sodium)

	_, err = c.Nutrition(ctx, "2")
	assert.ErrorIs(t, err, food.ErrNutritionUnavailable)

	_, err = c.Nutrition(ctx, "3")
	assert.ErrorIs(t, err, food.ErrNutritionUnavailable)
}

func TestMicronutrients(t *testing.T) {
	c := newTestClient(t, map[string]string{
		"recipe_micro_nutrition_info?id=1": `{"micronutrients": {"vitamins": {"vitamin_c": 45, "vitamin_b1": 0.6}, "minerals": {"iron": 9}}}`,
	})
	ctx := context.Background()

	m, err := c.Micronutrients(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 45.0, m.Vitamins["vitamin_c"])
	assert.Equal(t, 0.6, m.Vitamins["thiamin"])
	assert.Equal(t, 9.0, m.Minerals["iron"])

	m, err = c.Micronutrients(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, food.EmptyMicronutrients(), m)
}

func TestSearches(t *testing.T) {
	c := newTestClient(t, map[string]string{
		"recipe_by_cuisine?cuisine=Italian":                             `[{"id": "1", "name": "Risotto"}, {"id": "2", "name": "Lasagna"}, "junk"]`,
		"recipe_by_diet?diet=vegan":                                     `{"id": "3", "name": "Tofu Bowl"}`,
		"recipe_by_calories?limit=10&max_calories=500&min_calories=200": `{"recipes": [{"id": "4", "name": "Soup"}]}`,
	})
	ctx := context.Background()

	rs, err := c.RecipesByCuisine(ctx, "Italian")
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "Lasagna", rs[1].Name)

	rs, err = c.RecipesByDiet(ctx, "vegan")
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, "Tofu Bowl", rs[0].Name)

	rs, err = c.RecipesByCalories(ctx, 200, 500)
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, "Soup", rs[0].Name)

	rs, err = c.RecipesByProtein(ctx, 10, 20)
	require.NoError(t, err)
	assert.Empty(t, rs)
}

func TestAvailable(t *testing.T) {
	c := newTestClient(t, map[string]string{"recipe_by_id?id=1": `{"id": 1}`})
	assert.True(t, c.Available(context.Background()))
}
