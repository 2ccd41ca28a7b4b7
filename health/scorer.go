package health

import (
	"fmt"
	"log/slog"
	"math"

	"swapagent/food"
	"swapagent/ingredient"
)

const (
	macroWeight    = 40.0
	microWeight    = 30.0
	negativeWeight = -30.0

	calorieThreshold = 500.0
)

type macroTarget struct {
	kind     string
	min, max float64
}

var (
	proteinTarget = macroTarget{ingredient.MacroProtein, 10, 35}
	carbsTarget   = macroTarget{ingredient.MacroCarbs, 45, 65}
	fatTarget     = macroTarget{ingredient.MacroFat, 20, 35}
)

func (t macroTarget) String() string {
	return fmt.Sprintf("%g-%g%%", t.min, t.max)
}

// rda holds the adult reference daily allowances. Micronutrients without an
// entry are ignored by the scorer.
var rda = map[string]float64{
	"vitamin_a":   900,
	"vitamin_c":   90,
	"vitamin_d":   20,
	"vitamin_e":   15,
	"vitamin_k":   120,
	"thiamin":     1.2,
	"riboflavin":  1.3,
	"niacin":      16,
	"vitamin_b6":  1.7,
	"folate":      400,
	"vitamin_b12": 2.4,
	"calcium":     1000,
	"iron":        18,
	"magnesium":   400,
	"phosphorus":  700,
	"potassium":   4700,
	"zinc":        11,
	"selenium":    55,
	"copper":      0.9,
	"manganese":   2.3,
}

// RDA returns the reference daily allowance for a micronutrient.
func RDA(nutrient string) (float64, bool) {
	v, ok := rda[nutrient]
	return v, ok
}

type negativeRule struct {
	nutrient  string
	threshold float64
	unit      string
	penalty   float64
}

var negativeRules = []negativeRule{
	{food.Sodium, 400, "mg", -5},
	{food.Sugar, 25, "g", -5},
	{food.SaturatedFat, 10, "g", -5},
	{food.TransFat, 0.5, "g", -10},
	{food.Cholesterol, 100, "mg", -5},
}

// Scorer computes health scores. The zero value is ready to use.
type Scorer struct{}

// NewScorer returns a Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score rates a recipe from its macronutrients, micronutrients and penalties.
// NaN, infinite and negative nutrient values are scored as 0.
func (s *Scorer) Score(n food.Nutrition, m food.Micronutrients) HealthScore {
	n = sanitize(n)
	macro := s.MacroScore(n)
	micro := s.MicroScore(m)
	penalty := s.NegativePenalty(n)

	raw := macro + micro + penalty
	normalized := (raw - negativeWeight) / (macroWeight + microWeight - negativeWeight) * 100
	final := ingredient.Round(clamp(normalized, 0, 100), 2)

	breakdown := Breakdown{
		MacronutrientScore:     ingredient.Round(macro, 2),
		MicronutrientScore:     ingredient.Round(micro, 2),
		NegativeFactorsPenalty: ingredient.Round(penalty, 2),
		RawTotal:               ingredient.Round(raw, 2),
		NormalizedScore:        final,
		Components: Components{
			ProteinBalance:        balance(n.Calories, n.Protein, proteinTarget),
			CarbBalance:           balance(n.Calories, n.Carbs, carbsTarget),
			FatBalance:            balance(n.Calories, n.Fat, fatTarget),
			CalorieDensity:        density(n.Calories),
			MicronutrientAdequacy: adequacy(m),
			NegativeFactors:       negativeFactors(n),
		},
	}

	hs, err := NewHealthScore(final, RatingFor(final), breakdown)
	if err != nil {
		slog.Error("SCORER: Rejected health score; rating as Poor", "score", final, "error", err)
		hs, _ = NewHealthScore(0, Poor, breakdown)
	}

	slog.Info("SCORER: Health score calculated",
		"score", hs.Score,
		"rating", hs.Rating,
		"macro", breakdown.MacronutrientScore,
		"micro", breakdown.MicronutrientScore,
		"penalty", breakdown.NegativeFactorsPenalty,
	)
	return hs
}

// MacroScore awards up to 10 points each for protein, carb and fat balance and
// for calorie density. Zero or negative calories score 0.
func (s *Scorer) MacroScore(n food.Nutrition) float64 {
	if n.Calories <= 0 {
		slog.Warn("SCORER: Calories is 0 or negative, cannot score macronutrients")
		return 0
	}

	score := 0.0
	for _, mt := range []struct {
		grams  float64
		target macroTarget
	}{
		{n.Protein, proteinTarget},
		{n.Carbs, carbsTarget},
		{n.Fat, fatTarget},
	} {
		pct, _ := ingredient.PercentOfCalories(mt.grams, mt.target.kind, n.Calories)
		score += rangeScore(pct, mt.target.min, mt.target.max, 10)
	}

	switch {
	case n.Calories <= calorieThreshold:
		score += 10
	case n.Calories <= calorieThreshold*1.5:
		score += 10 * (1 - (n.Calories-calorieThreshold)/(calorieThreshold*0.5))
	}

	return ingredient.Round(score, 2)
}

// MicroScore awards 2 points per micronutrient at or above its RDA and 1 point
// at or above half of it, capped at 30.
func (s *Scorer) MicroScore(m food.Micronutrients) float64 {
	score := 0.0
	for name, v := range merged(m) {
		allowance, ok := rda[name]
		if !ok || allowance <= 0 {
			continue
		}
		switch pct := v / allowance * 100; {
		case pct >= 100:
			score += 2
		case pct >= 50:
			score += 1
		}
	}
	return ingredient.Round(min(score, microWeight), 2)
}

// NegativePenalty sums the threshold penalties, floored at -30.
func (s *Scorer) NegativePenalty(n food.Nutrition) float64 {
	penalty := 0.0
	for _, r := range negativeRules {
		if n.Get(r.nutrient) > r.threshold {
			penalty += r.penalty
		}
	}
	return ingredient.Round(max(penalty, negativeWeight), 2)
}

// rangeScore gives full points inside [lo, hi] and decays linearly to 0 across
// a tolerance band of 20% of the violated bound.
func rangeScore(v, lo, hi, points float64) float64 {
	if v >= lo && v <= hi {
		return points
	}
	var distance, tolerance float64
	if v < lo {
		distance, tolerance = lo-v, lo*0.2
	} else {
		distance, tolerance = v-hi, hi*0.2
	}
	if tolerance > 0 && distance <= tolerance {
		return points * (1 - distance/tolerance)
	}
	return 0
}

func balance(calories, grams float64, t macroTarget) MacroBalance {
	if calories <= 0 {
		return MacroBalance{Status: "unknown", Percentage: 0, Target: t.String()}
	}
	pct, _ := ingredient.PercentOfCalories(grams, t.kind, calories)
	status := "optimal"
	if pct < t.min {
		status = "low"
	} else if pct > t.max {
		status = "high"
	}
	return MacroBalance{
		Status:      status,
		Percentage:  ingredient.Round(pct, 1),
		Target:      t.String(),
		ActualGrams: grams,
	}
}

func density(calories float64) CalorieDensity {
	status := "high"
	if calories <= calorieThreshold {
		status = "good"
	} else if calories <= calorieThreshold*1.5 {
		status = "moderate"
	}
	return CalorieDensity{Status: status, Calories: calories, Threshold: calorieThreshold}
}

func adequacy(m food.Micronutrients) Adequacy {
	var a Adequacy
	for name, v := range merged(m) {
		allowance, ok := rda[name]
		if !ok || allowance <= 0 {
			continue
		}
		a.TotalCount++
		if v/allowance*100 >= 100 {
			a.AdequateCount++
		}
	}
	if a.TotalCount > 0 {
		a.AdequacyPercentage = ingredient.Round(float64(a.AdequateCount)/float64(a.TotalCount)*100, 1)
	}
	return a
}

func negativeFactors(n food.Nutrition) []NegativeFactor {
	factors := []NegativeFactor{}
	for _, r := range negativeRules {
		if v := n.Get(r.nutrient); v > r.threshold {
			factors = append(factors, NegativeFactor{
				Factor:    r.nutrient,
				Value:     v,
				Threshold: r.threshold,
				Unit:      r.unit,
				Penalty:   r.penalty,
			})
		}
	}
	return factors
}

// merged flattens vitamins and minerals; a mineral wins on a key collision.
func merged(m food.Micronutrients) map[string]float64 {
	out := make(map[string]float64, len(m.Vitamins)+len(m.Minerals))
	for k, v := range m.Vitamins {
		out[k] = v
	}
	for k, v := range m.Minerals {
		out[k] = v
	}
	return out
}

func sanitize(n food.Nutrition) food.Nutrition {
	for _, k := range food.NutrientKeys {
		if v := n.Get(k); math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			slog.Warn("SCORER: Ignoring invalid nutrient value", "nutrient", k, "value", v)
			n = n.With(k, 0)
		}
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
