package agent

import (
	"encoding/json"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// extractJSON finds the model's JSON object in text. It tries, in order, a
// balanced object at the start of the text, a fenced code block, and the
// span from the first '{' to the last '}'.
func extractJSON(text string) (string, bool) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "{") {
		if end, ok := matchBrace(s, 0); ok {
			return s[:end+1], true
		}
	}

	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return m[1], true
	}

	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first != -1 && last > first {
		return text[first : last+1], true
	}
	return "", false
}

// parseResult decodes the final answer. Malformed substitutions are skipped;
// text that holds no decodable object yields a parse_error result.
func parseResult(text string, apis []string, iterations int) *Result {
	raw, ok := extractJSON(text)
	if !ok {
		slog.Warn("COORDINATOR: Could not extract JSON from final response", "length", len(text))
		return newResult(CompletenessParseError, text, apis, iterations, TerminationParseError)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		slog.Warn("COORDINATOR: Final response is not valid JSON", "error", err)
		return newResult(CompletenessParseError, text, apis, iterations, TerminationParseError)
	}

	r := newResult(CompletenessPartial, "", apis, iterations, TerminationSuccess)

	items, _ := data["substitutions"].([]any)
	for i, item := range items {
		sub, ok := parseSubstitution(item)
		if !ok {
			slog.Warn("COORDINATOR: Skipping malformed substitution", "index", i)
			continue
		}
		r.Substitutions = append(r.Substitutions, sub)
	}

	if v, ok := data["overall_confidence"]; ok {
		if f, ok := number(v); ok {
			r.OverallConfidence = min(1, max(0, f))
		}
	}

	if c, ok := data["data_completeness"].(string); ok && Completeness(c).valid() {
		r.DataCompleteness = Completeness(c)
	}

	r.NoSubstituteIngredients = stringList(data["no_substitute_ingredients"])
	return r
}

func parseSubstitution(item any) (Substitution, bool) {
	m, ok := item.(map[string]any)
	if !ok {
		return Substitution{}, false
	}

	s := Substitution{
		Original:                    strings.TrimSpace(str(m["original_ingredient"])),
		Substitute:                  strings.TrimSpace(str(m["substitute_ingredient"])),
		HealthImprovementReasoning:  str(m["health_improvement_reasoning"]),
		FlavorPreservationReasoning: str(m["flavor_preservation_reasoning"]),
		FunctionalRoleMatch:         str(m["functional_role_match"]),
		Caveats:                     str(m["caveats"]),
		APIsUsed:                    stringList(m["apis_used"]),
	}
	if s.Original == "" || s.Substitute == "" {
		return Substitution{}, false
	}

	s.Confidence, ok = bounded(m["confidence"], defaultConfidence, 1)
	if !ok {
		return Substitution{}, false
	}
	s.FlavorSimilarity, ok = bounded(m["flavor_similarity_score"], defaultFlavorScore, 100)
	if !ok {
		return Substitution{}, false
	}

	if basis, ok := m["scientific_basis"].(map[string]any); ok {
		s.ScientificBasis = basis
	} else {
		s.ScientificBasis = map[string]any{}
	}
	return s, true
}

// bounded reads a number in [0, upper]. Missing or non-numeric values take
// the default; numbers out of range are rejected.
func bounded(v any, def, upper float64) (float64, bool) {
	f, ok := number(v)
	if !ok {
		return def, true
	}
	if f < 0 || f > upper {
		return 0, false
	}
	return f, true
}

// number reads a finite number. NaN and infinities count as non-numeric.
func number(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case string:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(t), 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// stringList keeps the string elements of a JSON array.
func stringList(v any) []string {
	raw, _ := v.([]any)
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
