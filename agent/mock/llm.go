// Package mock is a deterministic agent.LLM that walks the orchestrator
// through a plan, an investigation turn and a final answer. It embeds its
// tool calls as {"tool_calls": [...]} text the way small local models do.
package mock

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	"swapagent/agent"
	"swapagent/food"
	"swapagent/ingredient"
	"swapagent/swap"
)

const (
	profileTool  = "flavordb_get_entity_by_name"
	pairingsTool = "flavordb_get_flavor_pairings"

	maxRisky = 3
)

type LLMClient struct{}

var _ agent.LLM = (*LLMClient)(nil)

func NewLLMClient() *LLMClient {
	return &LLMClient{}
}

// pick is the mock's choice for one risky ingredient. Substitute is empty when
// the swap catalog has nothing for it.
type pick struct {
	original   string
	substitute string
}

// Invoke answers from the state of the conversation. Real LLMs will not be
// so predictable.
func (m *LLMClient) Invoke(ctx context.Context, prompt agent.Prompt) (agent.Response, error) {
	slog.Info("LLM_CLIENT: Invoked", "messages_len", len(prompt.Messages))

	picks := choose(recipeIngredients(prompt))

	var resp agent.Response
	switch {
	case len(picks) == 0:
		slog.Info("LLM_CLIENT: Nothing risky; returning empty answer")
		resp = agent.Response{Content: finalAnswer(nil)}

	case !prompt.HasToolResult(profileTool):
		slog.Info("LLM_CLIENT: Returning plan for flavor profiles", "ingredients", len(picks))
		calls := make([]map[string]any, 0, len(picks))
		for _, p := range picks {
			calls = append(calls, map[string]any{"name": profileTool, "input": map[string]any{"ingredient_name": p.original}})
		}
		resp = agent.Response{Content: planText(picks) + "\n" + toolCalls(calls)}

	case !prompt.HasToolResult(pairingsTool):
		slog.Info("LLM_CLIENT: Returning pairing checks")
		var calls []map[string]any
		for _, p := range picks {
			if p.substitute != "" {
				calls = append(calls, map[string]any{"name": pairingsTool, "input": map[string]any{"ingredient_name": p.substitute}})
			}
		}
		if len(calls) == 0 {
			resp = agent.Response{Content: finalAnswer(picks)}
			break
		}
		resp = agent.Response{Content: toolCalls(calls)}

	default:
		slog.Info("LLM_CLIENT: Returning final answer")
		resp = agent.Response{Content: finalAnswer(picks)}
	}

	resp.ParseModelOutput()
	return resp, nil
}

// recipeIngredients reads the "Ingredients:" line of the first user message.
func recipeIngredients(prompt agent.Prompt) []string {
	for _, msg := range prompt.Messages {
		if msg.Role != "user" {
			continue
		}
		for _, line := range strings.Split(msg.Content.Join(), "\n") {
			rest, ok := strings.CutPrefix(line, "Ingredients: ")
			if !ok {
				continue
			}
			var out []string
			for _, ing := range strings.Split(rest, ",") {
				if ing = strings.TrimSpace(ing); ing != "" {
					out = append(out, ing)
				}
			}
			return out
		}
		return nil
	}
	return nil
}

func choose(ingredients []string) []pick {
	risky := ingredient.IdentifyRisky(ingredients, food.Nutrition{})
	if len(risky) > maxRisky {
		risky = risky[:maxRisky]
	}

	present := make([]string, len(ingredients))
	for i, ing := range ingredients {
		present[i] = ingredient.Normalize(ing)
	}

	picks := make([]pick, 0, len(risky))
	for _, ri := range risky {
		normalized := ingredient.Normalize(ri.Name)
		p := pick{original: ri.Name}
		for _, cand := range swap.Pool(normalized, ingredient.Categorize(normalized)) {
			if cand != normalized && !slices.Contains(present, cand) {
				p.substitute = cand
				break
			}
		}
		picks = append(picks, p)
	}
	return picks
}

func planText(picks []pick) string {
	names := make([]string, len(picks))
	for i, p := range picks {
		names[i] = p.original
	}
	return "Plan: look up the flavor profiles of " + strings.Join(names, ", ") +
		", then check pairings for catalog substitutes."
}

func toolCalls(calls []map[string]any) string {
	b, err := json.Marshal(map[string]any{"tool_calls": calls})
	if err != nil {
		slog.Error("LLM_CLIENT: Failed to marshal tool calls", "error", err)
		return ""
	}
	return string(b)
}

func finalAnswer(picks []pick) string {
	subs := []map[string]any{}
	none := []string{}
	for _, p := range picks {
		if p.substitute == "" {
			none = append(none, p.original)
			continue
		}
		subs = append(subs, map[string]any{
			"original_ingredient":           p.original,
			"substitute_ingredient":         p.substitute,
			"confidence":                    0.7,
			"flavor_similarity_score":       60,
			"health_improvement_reasoning":  p.substitute + " is a lower-risk swap for " + p.original + ".",
			"flavor_preservation_reasoning": "Chosen from the healthy-swap catalog for the same role.",
			"functional_role_match":         ingredient.Categorize(ingredient.Normalize(p.original)),
			"scientific_basis":              map[string]any{"shared_molecules": []string{}},
			"apis_used":                     []string{profileTool, pairingsTool},
		})
	}

	completeness := "partial"
	if len(subs) == 0 {
		completeness = "minimal"
	}

	b, err := json.Marshal(map[string]any{
		"substitutions":             subs,
		"overall_confidence":        0.7,
		"data_completeness":         completeness,
		"no_substitute_ingredients": none,
	})
	if err != nil {
		slog.Error("LLM_CLIENT: Failed to marshal final answer", "error", err)
		return ""
	}
	return string(b)
}
