package ingredient

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"swapagent/food"
)

type riskKeywords struct {
	kind     string
	keywords []string
}

var riskTable = []riskKeywords{
	{"trans_fat", []string{"hydrogenated", "partially hydrogenated", "shortening"}},
	{"refined", []string{"refined", "white flour", "white sugar", "white rice", "refined sugar", "refined oil"}},
	{"artificial", []string{"artificial", "aspartame", "saccharin", "sucralose", "acesulfame", "artificial flavor", "artificial color", "yellow 5", "yellow 6", "red 40", "blue 1"}},
	{"high_sodium", []string{"soy sauce", "salt", "sodium", "bouillon", "broth cube", "msg", "monosodium glutamate"}},
	{"processed", []string{"processed", "packaged", "instant", "canned"}},
	{"preservative", []string{"bha", "bht", "sodium benzoate", "sodium nitrite", "potassium sorbate", "tbhq"}},
}

var riskReasons = map[string]string{
	"trans_fat":    "Contains trans fats (%s) which increase heart disease risk",
	"refined":      "Highly refined product (%s) with reduced nutritional value",
	"artificial":   "Contains artificial additives (%s) with potential health concerns",
	"high_sodium":  "High sodium ingredient (%s) may contribute to hypertension",
	"processed":    "Highly processed ingredient (%s) with lower nutrient density",
	"preservative": "Contains preservatives (%s) that may cause sensitivities",
}

var riskWeights = map[string]float64{
	"trans_fat":    10,
	"artificial":   7,
	"refined":      6,
	"high_sodium":  5,
	"high_sugar":   5,
	"processed":    4,
	"preservative": 3,
}

var (
	sodiumIndicators = []string{"salt", "soy sauce", "teriyaki", "broth", "stock", "bouillon", "pickle", "olive", "caper", "bacon", "ham", "sausage", "cheese", "miso"}
	sugarIndicators  = []string{"sugar", "honey", "syrup", "molasses", "agave", "corn syrup", "fructose", "glucose", "dextrose", "maltose", "sucrose", "cane juice"}
	fatIndicators    = []string{"butter", "cream", "lard", "shortening", "coconut oil", "palm oil", "cheese", "bacon"}
)

var keywordPatterns = map[string]*regexp.Regexp{}

func init() {
	for _, r := range riskTable {
		for _, kw := range r.keywords {
			keywordPatterns[kw] = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
		}
	}
}

// IdentifyRisky flags ingredients worth substituting. Keyword matches come
// first; when the recipe is over a sodium, sugar or saturated fat threshold the
// likely contributors are flagged too. Results are sorted by priority then impact.
func IdentifyRisky(ingredients []string, n food.Nutrition) []food.RiskyIngredient {
	var risky []food.RiskyIngredient
	seen := map[string]bool{}

	for _, ing := range ingredients {
		normalized := Normalize(ing)
		kind, keyword, ok := riskKeyword(normalized)
		if !ok {
			continue
		}
		category := Categorize(normalized)
		risky = append(risky, food.RiskyIngredient{
			Name:                  ing,
			Reason:                fmt.Sprintf(riskReasons[kind], keyword),
			Category:              category,
			HealthImpact:          impactFor(kind),
			AlternativesAvailable: category != CategoryCondiment && category != CategoryOther,
		})
		seen[normalized] = true
	}

	if n.Sodium > 400 {
		risky = append(risky, bySource(ingredients, seen, sodiumIndicators, "High sodium content (%s)", riskWeights["high_sodium"])...)
	}
	if n.Sugar > 25 {
		risky = append(risky, bySource(ingredients, seen, sugarIndicators, "High sugar content (%s)", riskWeights["high_sugar"])...)
	}
	if n.SaturatedFat > 10 {
		risky = append(risky, bySource(ingredients, seen, fatIndicators, "High saturated fat content (%s)", riskWeights["refined"])...)
	}

	return Prioritize(risky)
}

// FromNames builds risky entries for ingredients the caller asked to replace,
// matching each name to the recipe's own ingredient line where possible.
func FromNames(names, ingredients []string) []food.RiskyIngredient {
	out := make([]food.RiskyIngredient, 0, len(names))
	for _, name := range names {
		normalized := Normalize(name)
		matched := name
		for _, ing := range ingredients {
			if strings.Contains(Normalize(ing), normalized) {
				matched = ing
				break
			}
		}
		out = append(out, food.RiskyIngredient{
			Name:                  matched,
			Reason:                "User-selected for substitution",
			Priority:              3,
			Category:              Categorize(normalized),
			HealthImpact:          5,
			AlternativesAvailable: true,
		})
	}
	return out
}

// Prioritize assigns 1..5 priorities from health impact and sorts descending.
func Prioritize(risky []food.RiskyIngredient) []food.RiskyIngredient {
	for i := range risky {
		if risky[i].Priority == 0 {
			risky[i].Priority = PriorityFor(risky[i].HealthImpact)
		}
	}
	sort.SliceStable(risky, func(i, j int) bool {
		if risky[i].Priority != risky[j].Priority {
			return risky[i].Priority > risky[j].Priority
		}
		return risky[i].HealthImpact > risky[j].HealthImpact
	})
	return risky
}

// PriorityFor maps a 0..10 health impact onto a 1..5 priority.
func PriorityFor(impact float64) int {
	switch {
	case impact >= 9:
		return 5
	case impact >= 7:
		return 4
	case impact >= 5:
		return 3
	case impact >= 3:
		return 2
	default:
		return 1
	}
}

func riskKeyword(normalized string) (kind, keyword string, ok bool) {
	for _, r := range riskTable {
		for _, kw := range r.keywords {
			if keywordPatterns[kw].MatchString(normalized) {
				return r.kind, kw, true
			}
		}
	}
	return "", "", false
}

func impactFor(kind string) float64 {
	if w, ok := riskWeights[kind]; ok {
		return w
	}
	return 5
}

func bySource(ingredients []string, seen map[string]bool, indicators []string, reason string, impact float64) []food.RiskyIngredient {
	var out []food.RiskyIngredient
	for _, ing := range ingredients {
		normalized := Normalize(ing)
		if seen[normalized] {
			continue
		}
		for _, ind := range indicators {
			if strings.Contains(normalized, ind) {
				out = append(out, food.RiskyIngredient{
					Name:                  ing,
					Reason:                fmt.Sprintf(reason, ind),
					Category:              Categorize(normalized),
					HealthImpact:          impact,
					AlternativesAvailable: true,
				})
				seen[normalized] = true
				break
			}
		}
	}
	return out
}
