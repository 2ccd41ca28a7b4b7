package pipeline

import (
	"fmt"
	"strings"

	"swapagent/food"
	"swapagent/health"
)

const maxExplainedSwaps = 3

// SwapExplanation summarizes the swaps and the score change they buy.
func SwapExplanation(swaps []food.Swap, original, improved health.HealthScore) string {
	var b strings.Builder
	fmt.Fprintf(&b, "We suggest %d ingredient swap(s) to improve this recipe's health score from %.1f (%s) to %.1f (%s). ",
		len(swaps), original.Score, original.Rating, improved.Score, improved.Rating)

	var details []string
	for _, s := range swaps[:min(len(swaps), maxExplainedSwaps)] {
		if s.Original != "" && s.Substitute.Name != "" {
			details = append(details, s.Original+" with "+s.Substitute.Name)
		}
	}
	if len(details) > 0 {
		b.WriteString("Key substitutions include replacing " + strings.Join(details, ", ") + ". ")
	}

	switch gain := improved.Score - original.Score; {
	case gain >= 15:
		b.WriteString("These changes will significantly improve the nutritional profile.")
	case gain >= 8:
		b.WriteString("These changes will notably improve the recipe's healthiness.")
	default:
		b.WriteString("These changes will provide modest health improvements.")
	}
	return b.String()
}

// HealthExplanation describes a score when there is nothing to swap.
func HealthExplanation(score health.HealthScore, n food.Nutrition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "This recipe has a %s health rating (%.1f/100). ", score.Rating, score.Score)

	var highlights, concerns []string
	switch {
	case n.Protein >= 20:
		highlights = append(highlights, "excellent protein content")
	case n.Protein >= 10:
		highlights = append(highlights, "good protein content")
	}
	if n.Fiber >= 5 {
		highlights = append(highlights, "high fiber")
	}
	switch {
	case n.Sodium > 600:
		concerns = append(concerns, "high sodium")
	case n.Sodium > 400:
		concerns = append(concerns, "moderately high sodium")
	}
	if n.Sugar > 25 {
		concerns = append(concerns, "high sugar content")
	}
	if n.SaturatedFat > 10 {
		concerns = append(concerns, "high saturated fat")
	}

	if len(highlights) > 0 {
		b.WriteString("It provides " + strings.Join(highlights, " and ") + ". ")
	}
	if len(concerns) > 0 {
		b.WriteString("However, it has " + strings.Join(concerns, " and ") + ". ")
	}

	switch score.Rating {
	case health.Excellent:
		b.WriteString("This is a very healthy recipe with minimal improvements needed.")
	case health.Good:
		b.WriteString("This is a healthy recipe overall with some room for improvement.")
	case health.Decent:
		b.WriteString("This recipe is acceptable but could benefit from healthier ingredients.")
	case health.Bad:
		b.WriteString("This recipe needs significant improvements to be considered healthy.")
	default:
		b.WriteString("This recipe requires major reformulation to improve its nutritional value.")
	}
	return b.String()
}
