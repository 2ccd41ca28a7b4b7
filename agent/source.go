package agent

import (
	"context"
	"log/slog"

	"swapagent"
	"swapagent/food"
)

var _ swapagent.SubstitutionSource = (*Source)(nil)

// Runner is satisfied by both Orchestrator and InstrumentedOrchestrator.
type Runner interface {
	Run(ctx context.Context, req Request) *Result
}

// Source adapts an agent run to swapagent.SubstitutionSource. Every
// substitution the model proposes is accepted.
type Source struct {
	runner Runner
}

func NewSource(r Runner) *Source {
	return &Source{runner: r}
}

func (s *Source) Name() string {
	return "agent"
}

// Suggest runs the agent once. Only a cancelled context is returned as an
// error; model failures surface as StatusFailed.
func (s *Source) Suggest(ctx context.Context, req food.SubstitutionRequest) (food.SubstitutionOutcome, error) {
	result := s.runner.Run(ctx, Request{
		RecipeName:    req.RecipeName,
		Ingredients:   req.Ingredients,
		Nutrition:     req.Nutrition,
		OriginalScore: req.HealthScore,
		Allergens:     req.Allergens,
		Avoid:         req.AvoidIngredients,
	})

	outcome := food.SubstitutionOutcome{
		Source:    s.Name(),
		Status:    status(result),
		Risky:     result.RiskyIngredients(),
		Swaps:     []food.Swap{},
		Options:   make(map[string][]food.SubstituteOption, len(result.Substitutions)),
		Projected: result.EstimateNutritionChanges(req.Nutrition, len(req.Ingredients)),
		Improved:  result.ApplyToIngredients(req.Ingredients),
		Metadata:  result.Metadata(),
		Reasoning: result.RawReasoning,
	}

	for _, sw := range result.SwapSuggestions() {
		outcome.Options[sw.Original] = append(outcome.Options[sw.Original], sw.Substitute)
		sw.Accepted = true
		outcome.Swaps = append(outcome.Swaps, sw)
	}

	if slog.Default().Enabled(ctx, slog.LevelDebug) {
		slog.Debug("COORDINATOR: Agent result", "result", swapagent.Sdump(result))
	}

	slog.Info("COORDINATOR: Agent suggested swaps",
		"recipe", req.RecipeName,
		"swaps", len(outcome.Swaps),
		"status", outcome.Status,
		"termination", result.Termination.String(),
	)

	if err := ctx.Err(); err != nil {
		outcome.Status = food.StatusFailed
		return outcome, err
	}
	return outcome, nil
}

func status(r *Result) food.OutcomeStatus {
	switch {
	case r.DataCompleteness == CompletenessParseError:
		return food.StatusFailed
	case r.DataCompleteness != CompletenessFull, len(r.Substitutions) == 0:
		return food.StatusPartial
	}
	return food.StatusOK
}
