// Package pipeline runs a full recipe analysis: fetch, score, detect risky
// ingredients, pick substitutes, and re-score the improved recipe.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"swapagent"
	"swapagent/food"
	"swapagent/health"
	"swapagent/ingredient"
	"swapagent/provider"
	"swapagent/swap"
)

const (
	SourceCustom   = "custom"
	SourceRecipeDB = "recipedb"
)

// Request names the recipe to analyze. With Ingredients set the recipe is
// analyzed as given and RecipeDB is only consulted for nutrition.
type Request struct {
	RecipeName       string   `json:"recipe_name"`
	Ingredients      []string `json:"ingredients,omitempty"`
	Allergens        []string `json:"allergens,omitempty"`
	AvoidIngredients []string `json:"avoid_ingredients,omitempty"`
}

// Report is the before/after comparison for one analysis.
type Report struct {
	RecipeName          string                 `json:"recipe_name"`
	RecipeID            string                 `json:"recipe_id,omitempty"`
	Source              string                 `json:"source"`
	Ingredients         []string               `json:"ingredients"`
	Nutrition           food.Nutrition         `json:"nutrition"`
	Micronutrients      food.Micronutrients    `json:"micronutrients"`
	NutritionFallback   bool                   `json:"nutrition_fallback"`
	OriginalScore       health.HealthScore     `json:"original_health_score"`
	RiskyIngredients    []food.RiskyIngredient `json:"risky_ingredients"`
	FlaggedAvoid        []string               `json:"flagged_avoid_ingredients"`
	SwapSource          string                 `json:"swap_source"`
	SwapStatus          food.OutcomeStatus     `json:"swap_status"`
	Swaps               []food.Swap            `json:"swap_suggestions"`
	ImprovedIngredients []string               `json:"improved_ingredients"`
	ProjectedNutrition  food.Nutrition         `json:"projected_nutrition"`
	ImprovedScore       health.HealthScore     `json:"improved_health_score"`
	ScoreImprovement    float64                `json:"score_improvement"`
	Explanation         string                 `json:"explanation"`
	Reasoning           string                 `json:"reasoning,omitempty"`
	Metadata            map[string]any         `json:"metadata,omitempty"`
}

type Coordinator struct {
	recipes provider.Recipes
	scorer  *health.Scorer
	ranker  swapagent.SubstitutionSource
	agent   swapagent.SubstitutionSource
	tracer  trace.Tracer
}

// NewCoordinator wires the analysis. agent may be nil, in which case the
// ranker alone proposes swaps.
func NewCoordinator(recipes provider.Recipes, scorer *health.Scorer, ranker, agent swapagent.SubstitutionSource) *Coordinator {
	if scorer == nil {
		scorer = health.NewScorer()
	}
	return &Coordinator{
		recipes: recipes,
		scorer:  scorer,
		ranker:  ranker,
		agent:   agent,
		tracer:  otel.Tracer(swapagent.TracerNamePipeline),
	}
}

// Analyze runs the whole analysis for one recipe. It fails only when the
// recipe cannot be resolved, the ranker fails, or ctx is done.
func (c *Coordinator) Analyze(ctx context.Context, req Request) (*Report, error) {
	ctx, span := c.tracer.Start(ctx, "Coordinator.Analyze", trace.WithAttributes(
		attribute.String("recipe.name", req.RecipeName),
		attribute.Bool("recipe.custom", len(req.Ingredients) > 0),
	))
	defer span.End()

	report, err := c.analyze(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("PIPELINE: Analysis failed", "recipe", req.RecipeName, "error", err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("swap.source", report.SwapSource),
		attribute.Int("swap.count", len(report.Swaps)),
		attribute.Float64("score.original", report.OriginalScore.Score),
		attribute.Float64("score.improved", report.ImprovedScore.Score),
	)
	return report, nil
}

func (c *Coordinator) analyze(ctx context.Context, req Request) (*Report, error) {
	slog.Info("PIPELINE: Starting analysis", "recipe", req.RecipeName, "custom_ingredients", len(req.Ingredients))

	report := &Report{RecipeName: req.RecipeName, Source: SourceCustom}
	if err := c.resolve(ctx, req, report); err != nil {
		return nil, err
	}
	if err := c.prefetch(ctx, report); err != nil {
		return nil, err
	}

	report.OriginalScore = c.scorer.Score(report.Nutrition, report.Micronutrients)
	report.RiskyIngredients = detectRisky(report.Ingredients, report.Nutrition, req.AvoidIngredients)
	report.FlaggedAvoid = flagAvoided(report.Ingredients, req.AvoidIngredients)

	sreq := food.SubstitutionRequest{
		RecipeName:       req.RecipeName,
		Ingredients:      report.Ingredients,
		Nutrition:        report.Nutrition,
		HealthScore:      report.OriginalScore.Score,
		Risky:            report.RiskyIngredients,
		Allergens:        req.Allergens,
		AvoidIngredients: req.AvoidIngredients,
	}
	outcome, err := c.suggest(ctx, sreq)
	if err != nil {
		return nil, err
	}

	report.SwapSource = outcome.Source
	report.SwapStatus = outcome.Status
	report.Swaps = accepted(outcome.Swaps)
	report.Reasoning = outcome.Reasoning
	report.Metadata = outcome.Metadata
	if len(outcome.Risky) > 0 {
		report.RiskyIngredients = outcome.Risky
	}

	if len(report.Swaps) == 0 {
		report.ImprovedIngredients = report.Ingredients
		report.ProjectedNutrition = report.Nutrition
		report.ImprovedScore = report.OriginalScore
		report.Explanation = HealthExplanation(report.OriginalScore, report.Nutrition)
	} else {
		report.ImprovedIngredients = outcome.Improved
		if report.ImprovedIngredients == nil {
			report.ImprovedIngredients = swap.ApplySwaps(report.Ingredients, report.Swaps)
		}
		report.ProjectedNutrition = outcome.Projected
		report.ImprovedScore = c.scorer.Score(outcome.Projected, report.Micronutrients)
		report.ScoreImprovement = ingredient.Round(report.ImprovedScore.Score-report.OriginalScore.Score, 2)
		report.Explanation = SwapExplanation(report.Swaps, report.OriginalScore, report.ImprovedScore)
	}

	slog.Info("PIPELINE: Analysis complete",
		"recipe", req.RecipeName,
		"source", report.SwapSource,
		"swaps", len(report.Swaps),
		"original_score", report.OriginalScore.Score,
		"improved_score", report.ImprovedScore.Score,
	)
	return report, nil
}

// resolve looks the recipe up. A recipe that is not in RecipeDB is only an
// error when the caller gave no ingredients of their own.
func (c *Coordinator) resolve(ctx context.Context, req Request, report *Report) error {
	recipe, err := c.recipes.RecipeByName(ctx, req.RecipeName)
	switch {
	case err == nil:
		report.RecipeID = recipe.ID
		report.Source = SourceRecipeDB
	case ctx.Err() != nil:
		return ctx.Err()
	case len(req.Ingredients) == 0:
		return fmt.Errorf("resolve recipe %q: %w", req.RecipeName, err)
	default:
		slog.Info("PIPELINE: Recipe not in RecipeDB; using fallback nutrition", "recipe", req.RecipeName, "error", err)
	}

	report.Ingredients = req.Ingredients
	if len(report.Ingredients) == 0 {
		report.Ingredients = recipe.Ingredients
	}
	return nil
}

// prefetch loads nutrition and micronutrients concurrently. Missing
// nutrition falls back to food.DefaultNutrition with empty micronutrients.
func (c *Coordinator) prefetch(ctx context.Context, report *Report) error {
	report.Nutrition = food.DefaultNutrition
	report.Micronutrients = food.EmptyMicronutrients()
	if report.RecipeID == "" {
		report.NutritionFallback = true
		return nil
	}

	var (
		n food.Nutrition
		m = food.EmptyMicronutrients()
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		n, err = c.recipes.Nutrition(gctx, report.RecipeID)
		return err
	})
	g.Go(func() error {
		micros, err := c.recipes.Micronutrients(gctx, report.RecipeID)
		if err != nil {
			slog.Warn("PIPELINE: "+provider.FallbackTag+" micronutrients unavailable", "recipe_id", report.RecipeID, "error", err)
			return nil
		}
		m = micros
		return nil
	})

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !errors.Is(err, food.ErrNutritionUnavailable) {
			slog.Warn("PIPELINE: Nutrition lookup failed", "recipe_id", report.RecipeID, "error", err)
		}
		slog.Warn("PIPELINE: "+provider.FallbackTag+" using default nutrition", "recipe_id", report.RecipeID)
		report.NutritionFallback = true
		return nil
	}

	report.Nutrition = n
	report.Micronutrients = m
	return nil
}

// suggest asks the agent first when one is configured. A failed agent run or
// one without swaps falls back to the ranker.
func (c *Coordinator) suggest(ctx context.Context, req food.SubstitutionRequest) (food.SubstitutionOutcome, error) {
	if c.agent != nil {
		outcome, err := c.agent.Suggest(ctx, req)
		switch {
		case ctx.Err() != nil:
			return food.SubstitutionOutcome{}, ctx.Err()
		case err != nil:
			slog.Warn("PIPELINE: Agent failed; falling back to ranker", "error", err)
		case outcome.Status == food.StatusFailed:
			slog.Warn("PIPELINE: Agent run failed; falling back to ranker", "reasoning", outcome.Reasoning)
		case len(outcome.Swaps) == 0:
			slog.Info("PIPELINE: Agent proposed no swaps; falling back to ranker")
		default:
			return outcome, nil
		}
	}

	outcome, err := c.ranker.Suggest(ctx, req)
	if err != nil {
		return food.SubstitutionOutcome{}, fmt.Errorf("ranker: %w", err)
	}
	return outcome, nil
}

// detectRisky flags ingredients from keywords and nutrient thresholds, then
// adds the caller's avoid list entries that were not already flagged.
func detectRisky(ingredients []string, n food.Nutrition, avoid []string) []food.RiskyIngredient {
	risky := ingredient.IdentifyRisky(ingredients, n)
	if len(avoid) == 0 {
		return risky
	}

	flagged := make(map[string]bool, len(risky))
	for _, r := range risky {
		flagged[ingredient.Normalize(r.Name)] = true
	}
	var extra []string
	for _, a := range avoid {
		if !flagged[ingredient.Normalize(a)] {
			extra = append(extra, a)
		}
	}
	for _, r := range ingredient.FromNames(extra, ingredients) {
		n := ingredient.Normalize(r.Name)
		if flagged[n] {
			continue
		}
		flagged[n] = true
		risky = append(risky, r)
	}
	return risky
}

func flagAvoided(ingredients, avoid []string) []string {
	out := []string{}
	if len(avoid) == 0 {
		return out
	}
	names := make(map[string]bool, len(avoid))
	for _, a := range avoid {
		names[ingredient.Normalize(a)] = true
	}
	for _, ing := range ingredients {
		if names[ingredient.Normalize(ing)] {
			out = append(out, ing)
		}
	}
	return out
}

func accepted(swaps []food.Swap) []food.Swap {
	out := make([]food.Swap, 0, len(swaps))
	for _, s := range swaps {
		if s.Accepted {
			out = append(out, s)
		}
	}
	return out
}
