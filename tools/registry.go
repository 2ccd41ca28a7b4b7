package tools

import (
	"fmt"
	"sort"

	"swapagent/provider"
)

// Registry maps tool names to implementations
type Registry map[string]Tool

// NewRegistry creates the full agent tool set over the given flavor and recipe providers.
func NewRegistry(flavor provider.FlavorLookup, recipes provider.Recipes) *Registry {
	all := []Tool{
		NewFlavorProfileGet(flavor),
		NewMoleculeGet(flavor),
		NewMoleculesByFlavor(flavor),
		NewMoleculesByFunctionalGroup(flavor),
		NewMoleculesByWeightRange(flavor),
		NewMoleculesByPolarSurfaceArea(flavor),
		NewMoleculesByHBDHBA(flavor),
		NewAromaThreshold(flavor),
		NewTasteThreshold(flavor),
		NewNaturalOccurrence(flavor),
		NewPhysicochemicalProperties(flavor),
		NewRegulatoryInfo(flavor),
		NewFlavorPairingsGet(flavor),
		NewRecipeSearch(recipes),
		NewNutritionGet(recipes),
		NewCuisineSearch(recipes),
	}

	registry := make(Registry, len(all))
	for _, t := range all {
		registry[t.Name()] = t
	}
	return &registry
}

// GetTools returns all tools in the registry sorted by name, so prompts are stable across runs.
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// GetTool retrieves a tool by name from the registry
func (r Registry) GetTool(name string) (Tool, error) {
	tool, exists := r[name]
	if !exists {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return tool, nil
}
