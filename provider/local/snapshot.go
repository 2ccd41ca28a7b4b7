package local

import (
	"swapagent/food"
)

// Snapshot is the JSON document a Store is seeded from. It mirrors the
// subset of FlavorDB and RecipeDB the providers expose.
type Snapshot struct {
	Ingredients []IngredientRecord `json:"ingredients"`
	Molecules   []MoleculeRecord   `json:"molecules"`
	Recipes     []RecipeRecord     `json:"recipes"`
}

type IngredientRecord struct {
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	PrimaryFlavors []string        `json:"primary_flavors"`
	Molecules      []food.Molecule `json:"molecules"`
	Pairings       []string        `json:"pairings"`
}

type MoleculeRecord struct {
	Name             string   `json:"name"`
	CommonName       string   `json:"common_name"`
	Formula          string   `json:"formula"`
	MolecularWeight  float64  `json:"molecular_weight"`
	PolarSurfaceArea float64  `json:"polar_surface_area"`
	HBD              int      `json:"hbd"`
	HBA              int      `json:"hba"`
	FunctionalGroups []string `json:"functional_groups"`
	OdorThreshold    *float64 `json:"odor_threshold"`
	TasteThreshold   *float64 `json:"taste_threshold"`
	OdorDescriptors  []string `json:"odor_descriptors"`
	TasteDescriptors []string `json:"taste_descriptors"`
	NaturalSources   []string `json:"natural_sources"`
	ALogP            float64  `json:"alogp"`
	NumRings         int      `json:"num_rings"`
	NumBonds         int      `json:"num_bonds"`
	NumAtoms         int      `json:"num_atoms"`
	FEMANumber       string   `json:"fema_number"`
	JECFANumber      string   `json:"jecfa_number"`
	COENumber        string   `json:"coe_number"`
	GRASStatus       string   `json:"gras_status"`
}

// RecipeRecord carries optional nutrition; a nil Nutrition means the recipe
// has none.
type RecipeRecord struct {
	food.Recipe
	Nutrition      *food.Nutrition      `json:"nutrition,omitempty"`
	Micronutrients *food.Micronutrients `json:"micronutrients,omitempty"`
}
