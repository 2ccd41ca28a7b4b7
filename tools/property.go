package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"swapagent/provider"
)

// MoleculeProperty looks up one property record for a molecule by name.
type MoleculeProperty struct {
	name        string
	title       string
	description string
	lookup      func(ctx context.Context, molecule string) (any, error)
}

func (t *MoleculeProperty) Name() string        { return t.name }
func (t *MoleculeProperty) Title() string       { return t.title }
func (t *MoleculeProperty) Description() string { return t.description }

func (t *MoleculeProperty) InputSchema() *jsonschema.Schema {
	return objectSchema(map[string]*jsonschema.Schema{
		"molecule_name": stringProp("Molecule common name, e.g. 'vanillin'"),
	}, "molecule_name")
}

func (t *MoleculeProperty) OutputSchema() *jsonschema.Schema {
	return objectSchema(map[string]*jsonschema.Schema{
		"molecule": {Type: "string"},
	}, "molecule")
}

func (t *MoleculeProperty) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	name, err := stringArg(input, "molecule_name")
	if err != nil {
		return nil, err
	}
	v, err := t.lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	return toMap(v)
}

func NewAromaThreshold(flavor provider.FlavorLookup) *MoleculeProperty {
	return &MoleculeProperty{
		name:  "flavordb_get_aroma_threshold",
		title: "Get Aroma Threshold",
		description: "Get the aroma (odor) detection threshold for a molecule. " +
			"Use this for perceptual filtering: only molecules detectable at " +
			"food-relevant concentrations matter for flavor matching.",
		lookup: func(ctx context.Context, m string) (any, error) { return flavor.AromaThreshold(ctx, m) },
	}
}

func NewTasteThreshold(flavor provider.FlavorLookup) *MoleculeProperty {
	return &MoleculeProperty{
		name:  "flavordb_get_taste_threshold",
		title: "Get Taste Threshold",
		description: "Get the taste detection threshold for a molecule. " +
			"Use for perceptual filtering of non-volatile taste compounds.",
		lookup: func(ctx context.Context, m string) (any, error) { return flavor.TasteThreshold(ctx, m) },
	}
}

func NewNaturalOccurrence(flavor provider.FlavorLookup) *MoleculeProperty {
	return &MoleculeProperty{
		name:  "flavordb_get_natural_occurrence",
		title: "Get Natural Occurrence",
		description: "Get the natural food sources where a molecule is found. " +
			"Useful for identifying which foods share key flavor compounds.",
		lookup: func(ctx context.Context, m string) (any, error) { return flavor.NaturalOccurrence(ctx, m) },
	}
}

func NewPhysicochemicalProperties(flavor provider.FlavorLookup) *MoleculeProperty {
	return &MoleculeProperty{
		name:  "flavordb_get_physicochemical_properties",
		title: "Get Physicochemical Properties",
		description: "Get physicochemical properties: ALogP (hydrophobicity), ring count, " +
			"bond count, atom count, molecular weight. Useful for chemical similarity reasoning.",
		lookup: func(ctx context.Context, m string) (any, error) {
			return flavor.PhysicochemicalProperties(ctx, m)
		},
	}
}

func NewRegulatoryInfo(flavor provider.FlavorLookup) *MoleculeProperty {
	return &MoleculeProperty{
		name:  "flavordb_get_regulatory_info",
		title: "Get Regulatory Info",
		description: "Get regulatory status of a molecule: FEMA number, JECFA number, COE number, " +
			"GRAS status. Use to verify safety of shared molecules in substitute ingredients.",
		lookup: func(ctx context.Context, m string) (any, error) { return flavor.RegulatoryInfo(ctx, m) },
	}
}
