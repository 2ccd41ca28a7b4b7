package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"swapagent/food"
	"swapagent/provider"
)

type MoleculeGet struct{ flavor provider.FlavorLookup }

func NewMoleculeGet(flavor provider.FlavorLookup) *MoleculeGet {
	return &MoleculeGet{flavor: flavor}
}

func (t *MoleculeGet) Name() string  { return "flavordb_get_molecules_by_common_name" }
func (t *MoleculeGet) Title() string { return "Get Molecule" }
func (t *MoleculeGet) Description() string {
	return "Get detailed data for a specific flavor molecule by its common name. " +
		"Returns chemical formula, molecular weight, odor/taste thresholds and descriptors."
}

func (t *MoleculeGet) InputSchema() *jsonschema.Schema {
	return objectSchema(map[string]*jsonschema.Schema{
		"molecule_name": stringProp("Common name of the molecule, e.g. 'vanillin', 'limonene'"),
	}, "molecule_name")
}

func (t *MoleculeGet) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object"}
}

func (t *MoleculeGet) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	name, err := stringArg(input, "molecule_name")
	if err != nil {
		return nil, err
	}
	m, err := t.flavor.MoleculeByCommonName(ctx, name)
	if err != nil {
		return nil, err
	}
	return toMap(m)
}

// MoleculeSearch lists molecules matching a descriptor or a numeric range.
// The searches differ only in their arguments, so one type serves all five.
type MoleculeSearch struct {
	name        string
	title       string
	description string
	input       *jsonschema.Schema
	search      func(ctx context.Context, input map[string]any) ([]food.MoleculeInfo, error)
}

func (t *MoleculeSearch) Name() string                     { return t.name }
func (t *MoleculeSearch) Title() string                    { return t.title }
func (t *MoleculeSearch) Description() string              { return t.description }
func (t *MoleculeSearch) InputSchema() *jsonschema.Schema  { return t.input }
func (t *MoleculeSearch) OutputSchema() *jsonschema.Schema { return listSchema("molecules") }

func (t *MoleculeSearch) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	molecules, err := t.search(ctx, input)
	if err != nil {
		return nil, err
	}
	return wrap("molecules", molecules)
}

func NewMoleculesByFlavor(flavor provider.FlavorLookup) *MoleculeSearch {
	return &MoleculeSearch{
		name:  "flavordb_get_molecules_by_flavor_profile",
		title: "Find Molecules by Flavor",
		description: "Find all molecules associated with a specific flavor descriptor. " +
			"E.g. 'sweet', 'umami', 'floral', 'citrus', 'bitter'.",
		input: objectSchema(map[string]*jsonschema.Schema{
			"flavor": stringProp("Flavor descriptor, e.g. 'sweet', 'umami', 'smoky'"),
		}, "flavor"),
		search: func(ctx context.Context, input map[string]any) ([]food.MoleculeInfo, error) {
			f, err := stringArg(input, "flavor")
			if err != nil {
				return nil, err
			}
			return flavor.MoleculesByFlavor(ctx, f)
		},
	}
}

func NewMoleculesByFunctionalGroup(flavor provider.FlavorLookup) *MoleculeSearch {
	return &MoleculeSearch{
		name:  "flavordb_get_molecules_by_functional_group",
		title: "Find Molecules by Functional Group",
		description: "Get molecules containing a specific chemical functional group. " +
			"E.g. 'aldehyde', 'ester', 'ketone', 'alcohol', 'terpene'.",
		input: objectSchema(map[string]*jsonschema.Schema{
			"group": stringProp("Functional group name, e.g. 'aldehyde', 'ester'"),
		}, "group"),
		search: func(ctx context.Context, input map[string]any) ([]food.MoleculeInfo, error) {
			g, err := stringArg(input, "group")
			if err != nil {
				return nil, err
			}
			return flavor.MoleculesByFunctionalGroup(ctx, g)
		},
	}
}

func NewMoleculesByWeightRange(flavor provider.FlavorLookup) *MoleculeSearch {
	return &MoleculeSearch{
		name:  "flavordb_get_molecules_by_weight_range",
		title: "Find Molecules by Weight",
		description: "Get molecules within a molecular weight range (Daltons). " +
			"Useful for finding structurally similar volatile compounds.",
		input: objectSchema(map[string]*jsonschema.Schema{
			"min_weight": {Type: "number", Description: "Minimum MW in Daltons"},
			"max_weight": {Type: "number", Description: "Maximum MW in Daltons"},
		}, "min_weight", "max_weight"),
		search: func(ctx context.Context, input map[string]any) ([]food.MoleculeInfo, error) {
			lo, hi, err := rangeArgs(input, "min_weight", "max_weight")
			if err != nil {
				return nil, err
			}
			return flavor.MoleculesByWeightRange(ctx, lo, hi)
		},
	}
}

func NewMoleculesByPolarSurfaceArea(flavor provider.FlavorLookup) *MoleculeSearch {
	return &MoleculeSearch{
		name:  "flavordb_get_molecules_by_polar_surface_area",
		title: "Find Molecules by Polar Surface Area",
		description: "Get molecules within a polar surface area (PSA) range. " +
			"PSA correlates with volatility and membrane permeability.",
		input: objectSchema(map[string]*jsonschema.Schema{
			"min_psa": {Type: "number", Description: "Minimum PSA in Angstrom^2"},
			"max_psa": {Type: "number", Description: "Maximum PSA in Angstrom^2"},
		}, "min_psa", "max_psa"),
		search: func(ctx context.Context, input map[string]any) ([]food.MoleculeInfo, error) {
			lo, hi, err := rangeArgs(input, "min_psa", "max_psa")
			if err != nil {
				return nil, err
			}
			return flavor.MoleculesByPolarSurfaceArea(ctx, lo, hi)
		},
	}
}

func NewMoleculesByHBDHBA(flavor provider.FlavorLookup) *MoleculeSearch {
	return &MoleculeSearch{
		name:  "flavordb_get_molecules_by_hbd_hba",
		title: "Find Molecules by Hydrogen Bonding",
		description: "Get molecules by hydrogen bond donor (HBD) and acceptor (HBA) counts. " +
			"Useful for finding molecules with similar interaction profiles.",
		input: objectSchema(map[string]*jsonschema.Schema{
			"min_hbd": {Type: "integer", Description: "Min H-bond donors"},
			"max_hbd": {Type: "integer", Description: "Max H-bond donors"},
			"min_hba": {Type: "integer", Description: "Min H-bond acceptors"},
			"max_hba": {Type: "integer", Description: "Max H-bond acceptors"},
		}, "min_hbd", "max_hbd", "min_hba", "max_hba"),
		search: func(ctx context.Context, input map[string]any) ([]food.MoleculeInfo, error) {
			var counts [4]int
			for i, key := range []string{"min_hbd", "max_hbd", "min_hba", "max_hba"} {
				n, err := intArg(input, key)
				if err != nil {
					return nil, err
				}
				counts[i] = n
			}
			return flavor.MoleculesByHBDHBA(ctx, counts[0], counts[1], counts[2], counts[3])
		},
	}
}

func rangeArgs(input map[string]any, minKey, maxKey string) (float64, float64, error) {
	lo, err := numberArg(input, minKey)
	if err != nil {
		return 0, 0, err
	}
	hi, err := numberArg(input, maxKey)
	if err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}
