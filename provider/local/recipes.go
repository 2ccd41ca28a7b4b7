package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"swapagent/food"
)

const recipeColumns = `id, name, cuisine, diet_type, ingredients, servings`

// searchLimit caps every list query.
const searchLimit = 10

type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row scanner) (food.Recipe, error) {
	var r food.Recipe
	var ingredients string
	if err := row.Scan(&r.ID, &r.Name, &r.Cuisine, &r.DietType, &ingredients, &r.Servings); err != nil {
		return r, err
	}
	r.Ingredients = decodeStrings(ingredients)
	return r, nil
}

// RecipeByName prefers an exact title match, then the first partial match.
func (s *Store) RecipeByName(ctx context.Context, name string) (food.Recipe, error) {
	q := strings.ToLower(strings.TrimSpace(name))
	row := s.db.QueryRowContext(ctx, `
        SELECT `+recipeColumns+` FROM recipes
        WHERE lower(name) LIKE ?
        ORDER BY lower(name) = ? DESC, id
        LIMIT 1`, "%"+q+"%", q)
	r, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return food.Recipe{}, fmt.Errorf("%s: %w", name, food.ErrRecipeNotFound)
	}
	if err != nil {
		return food.Recipe{}, fmt.Errorf("failed to query recipe %q: %w", name, err)
	}
	return r, nil
}

func (s *Store) RecipeByID(ctx context.Context, id string) (food.Recipe, error) {
	r, err := scanRecipe(s.db.QueryRowContext(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return food.Recipe{}, fmt.Errorf("%s: %w", id, food.ErrRecipeNotFound)
	}
	if err != nil {
		return food.Recipe{}, fmt.Errorf("failed to query recipe %q: %w", id, err)
	}
	return r, nil
}

func (s *Store) Nutrition(ctx context.Context, recipeID string) (food.Nutrition, error) {
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT nutrition FROM recipes WHERE id = ?`, recipeID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !raw.Valid) {
		return food.Nutrition{}, fmt.Errorf("recipe %s: %w", recipeID, food.ErrNutritionUnavailable)
	}
	if err != nil {
		return food.Nutrition{}, fmt.Errorf("failed to query nutrition for %q: %w", recipeID, err)
	}

	var n food.Nutrition
	if err := json.Unmarshal([]byte(raw.String), &n); err != nil {
		return food.Nutrition{}, fmt.Errorf("recipe %s: %w: %w", recipeID, food.ErrNutritionUnavailable, err)
	}
	return n, nil
}

// Micronutrients returns zeros for recipes without micronutrient data.
func (s *Store) Micronutrients(ctx context.Context, recipeID string) (food.Micronutrients, error) {
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT micronutrients FROM recipes WHERE id = ?`, recipeID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !raw.Valid) {
		return food.EmptyMicronutrients(), nil
	}
	if err != nil {
		return food.Micronutrients{}, fmt.Errorf("failed to query micronutrients for %q: %w", recipeID, err)
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(raw.String), &m); err != nil {
		return food.EmptyMicronutrients(), nil
	}
	return food.MicronutrientsFromMap(m), nil
}

func (s *Store) RecipesByCuisine(ctx context.Context, cuisine string) ([]food.Recipe, error) {
	return s.recipes(ctx, `lower(cuisine) = ?`, strings.ToLower(strings.TrimSpace(cuisine)))
}

func (s *Store) RecipesByDiet(ctx context.Context, diet string) ([]food.Recipe, error) {
	return s.recipes(ctx, `lower(diet_type) = ?`, strings.ToLower(strings.TrimSpace(diet)))
}

func (s *Store) RecipesByCalories(ctx context.Context, min, max float64) ([]food.Recipe, error) {
	return s.recipes(ctx, `calories BETWEEN ? AND ?`, min, max)
}

func (s *Store) RecipesByProtein(ctx context.Context, min, max float64) ([]food.Recipe, error) {
	return s.recipes(ctx, `protein BETWEEN ? AND ?`, min, max)
}

func (s *Store) recipes(ctx context.Context, where string, args ...any) ([]food.Recipe, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE `+where+` ORDER BY id LIMIT ?`,
		append(args, searchLimit)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer rows.Close()

	out := []food.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
