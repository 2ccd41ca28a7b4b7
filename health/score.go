// Package health scores a recipe's nutrition on a 0..100 scale with a
// letter-style rating. Scoring is deterministic and never fails.
package health

import (
	"errors"
	"fmt"
)

// Ratings in descending order of quality.
const (
	Excellent = "Excellent"
	Good      = "Good"
	Decent    = "Decent"
	Bad       = "Bad"
	Poor      = "Poor"
)

var (
	ErrScoreOutOfRange    = errors.New("health score out of range")
	ErrInconsistentRating = errors.New("rating does not match score")
)

// HealthScore is a validated score and rating pair with its breakdown.
type HealthScore struct {
	Score     float64   `json:"score"`
	Rating    string    `json:"rating"`
	Breakdown Breakdown `json:"breakdown"`
}

// NewHealthScore builds a HealthScore, rejecting a score outside 0..100 or a
// rating that is not the one RatingFor derives from the score.
func NewHealthScore(score float64, rating string, breakdown Breakdown) (HealthScore, error) {
	if score < 0 || score > 100 {
		return HealthScore{}, fmt.Errorf("%w: %v", ErrScoreOutOfRange, score)
	}
	if want := RatingFor(score); rating != want {
		return HealthScore{}, fmt.Errorf("%w: score %.2f should be rated %q, got %q", ErrInconsistentRating, score, want, rating)
	}
	return HealthScore{Score: score, Rating: rating, Breakdown: breakdown}, nil
}

// RatingFor is the single source of the rating thresholds.
func RatingFor(score float64) string {
	switch {
	case score >= 80:
		return Excellent
	case score >= 60:
		return Good
	case score >= 40:
		return Decent
	case score >= 20:
		return Bad
	default:
		return Poor
	}
}

// Breakdown explains how a score was reached.
type Breakdown struct {
	MacronutrientScore     float64    `json:"macronutrient_score"`
	MicronutrientScore     float64    `json:"micronutrient_score"`
	NegativeFactorsPenalty float64    `json:"negative_factors_penalty"`
	RawTotal               float64    `json:"raw_total"`
	NormalizedScore        float64    `json:"normalized_score"`
	Components             Components `json:"components"`
}

type Components struct {
	ProteinBalance        MacroBalance     `json:"protein_balance"`
	CarbBalance           MacroBalance     `json:"carb_balance"`
	FatBalance            MacroBalance     `json:"fat_balance"`
	CalorieDensity        CalorieDensity   `json:"calorie_density"`
	MicronutrientAdequacy Adequacy         `json:"micronutrient_adequacy"`
	NegativeFactors       []NegativeFactor `json:"negative_factors"`
}

// MacroBalance status is optimal, low, high or unknown (no calories).
type MacroBalance struct {
	Status      string  `json:"status"`
	Percentage  float64 `json:"percentage"`
	Target      string  `json:"target"`
	ActualGrams float64 `json:"actual_grams,omitempty"`
}

// CalorieDensity status is good, moderate or high.
type CalorieDensity struct {
	Status    string  `json:"status"`
	Calories  float64 `json:"calories"`
	Threshold float64 `json:"threshold"`
}

type Adequacy struct {
	AdequateCount      int     `json:"adequate_count"`
	TotalCount         int     `json:"total_count"`
	AdequacyPercentage float64 `json:"adequacy_percentage"`
}

type NegativeFactor struct {
	Factor    string  `json:"factor"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Unit      string  `json:"unit"`
	Penalty   float64 `json:"penalty"`
}
