package swap

import (
	"context"
	"log/slog"

	"swapagent"
	"swapagent/food"
	"swapagent/ingredient"
)

var _ swapagent.SubstitutionSource = (*Source)(nil)

// Source adapts the Ranker to swapagent.SubstitutionSource. The top option
// for each risky ingredient is accepted.
type Source struct {
	ranker *Ranker
	flavor flavorProfiler
}

type flavorProfiler interface {
	FlavorProfile(ctx context.Context, ingredient string) (food.FlavorProfile, error)
}

func NewSource(r *Ranker) *Source {
	return &Source{ranker: r, flavor: r.flavor}
}

func (s *Source) Name() string {
	return "ranker"
}

// Suggest ranks substitutes for every risky ingredient in req. When req
// carries no risky ingredients they are detected from the ingredient list.
func (s *Source) Suggest(ctx context.Context, req food.SubstitutionRequest) (food.SubstitutionOutcome, error) {
	risky := req.Risky
	if len(risky) == 0 {
		risky = ingredient.IdentifyRisky(req.Ingredients, req.Nutrition)
	}

	outcome := food.SubstitutionOutcome{
		Source:    s.Name(),
		Status:    food.StatusOK,
		Risky:     risky,
		Swaps:     []food.Swap{},
		Options:   make(map[string][]food.SubstituteOption, len(risky)),
		Projected: req.Nutrition,
	}

	excluded := make([]string, 0, len(req.Ingredients)+len(req.Allergens)+len(req.AvoidIngredients))
	excluded = append(excluded, req.Ingredients...)
	excluded = append(excluded, req.Allergens...)
	excluded = append(excluded, req.AvoidIngredients...)

	for _, ri := range risky {
		profile, err := s.flavor.FlavorProfile(ctx, ri.Name)
		if err != nil {
			if ctx.Err() != nil {
				outcome.Status = food.StatusFailed
				return outcome, ctx.Err()
			}
			slog.Warn("RANKER: Profile lookup failed", "ingredient", ri.Name, "error", err)
			profile = food.EmptyProfile(ri.Name)
		}

		options, err := s.ranker.FindSubstitutes(ctx, ri.Name, profile, req.HealthScore, excluded)
		if err != nil {
			outcome.Status = food.StatusFailed
			return outcome, err
		}
		outcome.Options[ri.Name] = options
		if len(options) == 0 {
			continue
		}
		outcome.Swaps = append(outcome.Swaps, food.Swap{
			Original:   ri.Name,
			Substitute: options[0],
			Accepted:   true,
		})
	}

	if len(outcome.Swaps) < len(risky) {
		outcome.Status = food.StatusPartial
	}
	outcome.Improved = ApplySwaps(req.Ingredients, outcome.Swaps)
	outcome.Projected = EstimateNutritionWithSwaps(req.Nutrition, outcome.Swaps, len(req.Ingredients))
	outcome.Metadata = map[string]any{
		"weights":         s.ranker.weights,
		"semantic_rerank": s.ranker.weights.SemanticEnabled(),
		"risky_count":     len(risky),
		"swap_count":      len(outcome.Swaps),
	}

	slog.Info("RANKER: Suggested swaps",
		"recipe", req.RecipeName,
		"risky", len(risky),
		"swaps", len(outcome.Swaps),
		"status", outcome.Status,
	)
	return outcome, nil
}
