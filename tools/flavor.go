package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"swapagent/provider"
)

type FlavorProfileGet struct{ flavor provider.Flavor }

func NewFlavorProfileGet(flavor provider.Flavor) *FlavorProfileGet {
	return &FlavorProfileGet{flavor: flavor}
}

func (t *FlavorProfileGet) Name() string  { return "flavordb_get_entity_by_name" }
func (t *FlavorProfileGet) Title() string { return "Get Flavor Profile" }
func (t *FlavorProfileGet) Description() string {
	return "Get the full flavor profile of an ingredient from FlavorDB. " +
		"Returns molecules, primary flavor descriptors, and food category. " +
		"Use this FIRST when analyzing any ingredient."
}

func (t *FlavorProfileGet) InputSchema() *jsonschema.Schema {
	return objectSchema(map[string]*jsonschema.Schema{
		"ingredient_name": stringProp("Ingredient name, e.g. 'butter', 'vanilla', 'garlic'"),
	}, "ingredient_name")
}

func (t *FlavorProfileGet) OutputSchema() *jsonschema.Schema {
	return objectSchema(map[string]*jsonschema.Schema{
		"ingredient":       {Type: "string"},
		"flavor_molecules": {Type: "array", Items: &jsonschema.Schema{Type: "object"}},
		"primary_flavors":  {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		"category":         {Type: "string"},
	}, "ingredient", "flavor_molecules")
}

func (t *FlavorProfileGet) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	name, err := stringArg(input, "ingredient_name")
	if err != nil {
		return nil, err
	}
	p, err := t.flavor.FlavorProfile(ctx, name)
	if err != nil {
		return nil, err
	}
	return toMap(p)
}

type FlavorPairingsGet struct{ flavor provider.Flavor }

func NewFlavorPairingsGet(flavor provider.Flavor) *FlavorPairingsGet {
	return &FlavorPairingsGet{flavor: flavor}
}

func (t *FlavorPairingsGet) Name() string  { return "flavordb_get_flavor_pairings" }
func (t *FlavorPairingsGet) Title() string { return "Get Flavor Pairings" }
func (t *FlavorPairingsGet) Description() string {
	return "Get ingredients that pair well with a given ingredient based on shared " +
		"flavor compounds. Use this to validate that a substitute pairs well " +
		"with the other ingredients in the recipe."
}

func (t *FlavorPairingsGet) InputSchema() *jsonschema.Schema {
	return objectSchema(map[string]*jsonschema.Schema{
		"ingredient_name": stringProp("Ingredient name, e.g. 'tomato', 'basil'"),
	}, "ingredient_name")
}

func (t *FlavorPairingsGet) OutputSchema() *jsonschema.Schema {
	return objectSchema(map[string]*jsonschema.Schema{
		"pairings": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
	}, "pairings")
}

func (t *FlavorPairingsGet) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	name, err := stringArg(input, "ingredient_name")
	if err != nil {
		return nil, err
	}
	pairings, err := t.flavor.Pairings(ctx, name)
	if err != nil {
		return nil, err
	}
	return wrap("pairings", pairings)
}
