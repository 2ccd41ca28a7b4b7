// Package swap discovers and ranks healthier ingredient substitutes and
// projects their effect on a recipe's nutrition.
package swap

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"swapagent"
	"swapagent/embedding"
	"swapagent/food"
	"swapagent/ingredient"
	"swapagent/provider"
)

// maxSharedMolecules caps the molecule evidence kept per option.
const maxSharedMolecules = 8

// neutralSemanticScore is used for candidates the embedder did not score.
const neutralSemanticScore = 50.0

// Ranker finds substitutes for a risky ingredient. The embedder is optional.
type Ranker struct {
	flavor   provider.Flavor
	embedder embedding.Embedder
	weights  Weights
	tracer   trace.Tracer
}

func NewRanker(flavor provider.Flavor, embedder embedding.Embedder, weights Weights) *Ranker {
	if embedder == nil {
		weights = weights.withoutSemantic()
	}
	return &Ranker{
		flavor:   flavor,
		embedder: embedder,
		weights:  weights,
		tracer:   otel.Tracer(swapagent.TracerNameRanker),
	}
}

// Weights returns the configured ranking weights.
func (r *Ranker) Weights() Weights {
	return r.weights
}

// FindSubstitutes returns up to food.MaxSubstitutes options for riskyName,
// best first. Only a cancelled context produces an error; lookups that fail
// for a single candidate drop that candidate.
func (r *Ranker) FindSubstitutes(ctx context.Context, riskyName string, profile food.FlavorProfile, currentScore float64, recipeIngredients []string) ([]food.SubstituteOption, error) {
	ctx, span := r.tracer.Start(ctx, "Ranker.FindSubstitutes", trace.WithAttributes(
		attribute.String("ingredient", riskyName),
		attribute.Float64("current_score", currentScore),
	))
	defer span.End()

	slog.Info("RANKER: Finding substitutes", "ingredient", riskyName, "current_score", currentScore)

	normalized := ingredient.Normalize(riskyName)
	category := ingredient.Categorize(normalized)
	candidates := Pool(normalized, category)

	pairings, err := r.flavor.Pairings(ctx, riskyName)
	if err != nil {
		if ctx.Err() != nil {
			span.SetStatus(codes.Error, "context done")
			return nil, ctx.Err()
		}
		slog.Warn("RANKER: Pairings lookup failed", "ingredient", riskyName, "error", err)
	}
	candidates = appendPairings(candidates, pairings, normalized)
	candidates = exclude(candidates, normalized, recipeIngredients)

	span.SetAttributes(
		attribute.String("category", category),
		attribute.Int("candidates", len(candidates)),
	)

	if len(candidates) == 0 {
		slog.Warn("RANKER: No candidates found", "ingredient", riskyName)
		return []food.SubstituteOption{}, nil
	}

	options := make([]food.SubstituteOption, 0, len(candidates))
	for _, c := range candidates {
		opt, err := r.rank(ctx, riskyName, profile, c, currentScore)
		if err != nil {
			if ctx.Err() != nil {
				span.SetStatus(codes.Error, "context done")
				return nil, ctx.Err()
			}
			slog.Warn("RANKER: "+provider.FallbackTag+" Skipping candidate",
				"ingredient", riskyName,
				"candidate", c,
				"error", err,
			)
			continue
		}
		options = append(options, opt)
	}

	r.rerank(ctx, riskyName, options)

	sort.SliceStable(options, func(i, j int) bool {
		return options[i].RankScore > options[j].RankScore
	})
	if len(options) > food.MaxSubstitutes {
		options = options[:food.MaxSubstitutes]
	}

	best := "none"
	if len(options) > 0 {
		best = options[0].Name
	}
	span.SetAttributes(attribute.Int("options", len(options)))
	slog.Info("RANKER: Ranked substitutes", "ingredient", riskyName, "count", len(options), "best", best)

	return options, nil
}

func (r *Ranker) rank(ctx context.Context, original string, profile food.FlavorProfile, candidate string, currentScore float64) (food.SubstituteOption, error) {
	flavor, err := r.flavor.Similarity(ctx, original, candidate)
	if err != nil {
		return food.SubstituteOption{}, fmt.Errorf("similarity: %w", err)
	}

	cp, err := r.flavor.FlavorProfile(ctx, candidate)
	if err != nil {
		return food.SubstituteOption{}, fmt.Errorf("candidate profile: %w", err)
	}
	shared := food.SharedMolecules(profile, cp)
	if len(shared) > maxSharedMolecules {
		shared = shared[:maxSharedMolecules]
	}

	health := HealthImprovement(candidate, currentScore)

	slog.Debug("RANKER: Ranked candidate",
		"candidate", candidate,
		"flavor_match", flavor,
		"health_improvement", health,
		"shared_molecules", len(shared),
	)

	return food.SubstituteOption{
		Name:              candidate,
		FlavorMatch:       flavor,
		HealthImprovement: round2(health),
		Category:          ingredient.Categorize(candidate),
		RankScore:         round2(r.weights.score(flavor, health, 0)),
		Explanation:       Explain(original, candidate, flavor, health, shared),
		SharedMolecules:   shared,
	}, nil
}

// rerank rescales rank scores with semantic closeness. Without scores the
// options are rescored with the plain flavor/health weights.
func (r *Ranker) rerank(ctx context.Context, original string, options []food.SubstituteOption) {
	if !r.weights.SemanticEnabled() || len(options) == 0 {
		return
	}

	names := make([]string, len(options))
	for i, o := range options {
		names[i] = o.Name
	}

	scores, err := embedding.Scores(ctx, r.embedder, original, names)
	if err != nil || len(scores) == 0 {
		slog.Warn("RANKER: Semantic re-ranking skipped", "ingredient", original, "error", err)
		plain := r.weights.withoutSemantic()
		for i := range options {
			options[i].RankScore = round2(plain.score(options[i].FlavorMatch, options[i].HealthImprovement, 0))
		}
		return
	}

	for i := range options {
		sem, ok := scores[options[i].Name]
		if !ok {
			sem = neutralSemanticScore
		}
		options[i].RankScore = round2(r.weights.score(options[i].FlavorMatch, options[i].HealthImprovement, sem))
	}
	slog.Info("RANKER: Applied semantic re-ranking", "ingredient", original)
}

// Pool returns the catalog candidates for a normalized ingredient: the exact
// entry, else every partially matching entry, else the whole category.
func Pool(normalized, category string) []string {
	entries := entriesFor(category)
	if len(entries) == 0 {
		slog.Debug("RANKER: No catalog for category", "category", category)
		return []string{}
	}

	if alts, ok := Alternatives(category, normalized); ok {
		return alts
	}

	var partial []string
	for _, e := range entries {
		if strings.Contains(e.original, normalized) || strings.Contains(normalized, e.original) {
			partial = append(partial, e.alternatives...)
		}
	}
	if len(partial) > 0 {
		return dedupe(partial)
	}

	var all []string
	for _, e := range entries {
		all = append(all, e.alternatives...)
	}
	return dedupe(all)
}

// HealthImprovement scales the static estimate by how much room the recipe
// has to improve, capped at 100 - currentScore.
func HealthImprovement(substitute string, currentScore float64) float64 {
	v := ImprovementEstimate(substitute)
	switch {
	case currentScore < 30:
		v *= 1.5
	case currentScore < 50:
		v *= 1.2
	case currentScore > 70:
		v *= 0.8
	}
	return math.Min(v, 100-currentScore)
}

// Explain renders the human-readable rationale for a swap.
func Explain(original, substitute string, flavor, health float64, shared []string) string {
	var flavorDesc string
	switch {
	case flavor >= 80:
		flavorDesc = "very similar flavor profile"
	case flavor >= 60:
		flavorDesc = "similar flavor profile"
	case flavor >= 40:
		flavorDesc = "moderately similar flavor"
	default:
		flavorDesc = "different but complementary flavor"
	}

	var healthDesc string
	switch {
	case health >= 8:
		healthDesc = "significantly healthier"
	case health >= 5:
		healthDesc = "healthier"
	case health >= 3:
		healthDesc = "slightly healthier"
	default:
		healthDesc = "marginally healthier"
	}

	s := fmt.Sprintf("Replace %s with %s - %s (%.0f%% match), %s.", original, substitute, flavorDesc, flavor, healthDesc)
	if len(shared) > 0 {
		listed := shared
		if len(listed) > 5 {
			listed = listed[:5]
		}
		s += fmt.Sprintf(" They share %d flavor molecule(s) (%s), preserving the taste you expect.",
			len(shared), strings.Join(listed, ", "))
	}
	return s
}

func appendPairings(candidates, pairings []string, normalized string) []string {
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		seen[ingredient.Normalize(c)] = true
	}
	for _, p := range pairings {
		n := ingredient.Normalize(p)
		if n == "" || seen[n] || n == normalized {
			continue
		}
		seen[n] = true
		candidates = append(candidates, p)
	}
	return candidates
}

func exclude(candidates []string, normalized string, recipe []string) []string {
	inRecipe := make(map[string]bool, len(recipe))
	for _, i := range recipe {
		inRecipe[ingredient.Normalize(i)] = true
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		n := ingredient.Normalize(c)
		if n == normalized || inRecipe[n] {
			continue
		}
		out = append(out, c)
	}
	return out
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		k := ingredient.Normalize(n)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, n)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
