package food

import (
	"math"
	"sort"
	"strings"
)

// UnknownCategory is the category of profiles the flavor provider could not resolve.
const UnknownCategory = "unknown"

// Molecule is a flavor compound found in an ingredient.
type Molecule struct {
	Name            string   `json:"name"`
	CommonName      string   `json:"common_name,omitempty"`
	Concentration   float64  `json:"concentration,omitempty"`
	OdorDescriptors []string `json:"odor_descriptors,omitempty"`
}

// Key is the lower-cased identity used for set comparisons.
func (m Molecule) Key() string {
	if m.CommonName != "" {
		return strings.ToLower(m.CommonName)
	}
	return strings.ToLower(m.Name)
}

// Weight is the concentration, treating a missing value as 1.
func (m Molecule) Weight() float64 {
	if m.Concentration <= 0 {
		return 1
	}
	return m.Concentration
}

// FlavorProfile is the molecular flavor description of an ingredient.
// A profile with no molecules is a valid "unknown" profile.
type FlavorProfile struct {
	Ingredient     string     `json:"ingredient"`
	Molecules      []Molecule `json:"flavor_molecules"`
	PrimaryFlavors []string   `json:"primary_flavors"`
	Category       string     `json:"category"`
}

// EmptyProfile returns the unknown profile for ingredient.
func EmptyProfile(ingredient string) FlavorProfile {
	return FlavorProfile{
		Ingredient:     ingredient,
		Molecules:      []Molecule{},
		PrimaryFlavors: []string{},
		Category:       UnknownCategory,
	}
}

// IsEmpty reports whether the profile carries no molecular data.
func (p FlavorProfile) IsEmpty() bool {
	return len(p.Molecules) == 0
}

// MoleculeKeys returns the set of molecule identities in the profile.
func (p FlavorProfile) MoleculeKeys() map[string]struct{} {
	keys := make(map[string]struct{}, len(p.Molecules))
	for _, m := range p.Molecules {
		if k := m.Key(); k != "" {
			keys[k] = struct{}{}
		}
	}
	return keys
}

// SharedMolecules returns the sorted molecule identities present in both profiles.
func SharedMolecules(a, b FlavorProfile) []string {
	bk := b.MoleculeKeys()
	shared := []string{}
	for k := range a.MoleculeKeys() {
		if _, ok := bk[k]; ok {
			shared = append(shared, k)
		}
	}
	sort.Strings(shared)
	return shared
}

// Similarity scores how alike two profiles taste on a 0..100 scale. It blends
// the Jaccard overlap of molecule identities (30%) with a concentration
// weighted overlap (70%). Either profile being empty scores 0.
func Similarity(a, b FlavorProfile) float64 {
	wa, wb := a.weights(), b.weights()
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	var shared, matched float64
	for k, ca := range wa {
		if cb, ok := wb[k]; ok {
			shared++
			matched += math.Min(ca, cb)
		}
	}
	union := float64(len(wa)+len(wb)) - shared
	base := shared / union

	var total float64
	for _, c := range wa {
		total += c
	}
	for _, c := range wb {
		total += c
	}
	weighted := 0.0
	if total > 0 {
		weighted = matched / total
	}

	return math.Round((weighted*0.7+base*0.3)*100*100) / 100
}

func (p FlavorProfile) weights() map[string]float64 {
	w := make(map[string]float64, len(p.Molecules))
	for _, m := range p.Molecules {
		if k := m.Key(); k != "" {
			w[k] = m.Weight()
		}
	}
	return w
}

// MoleculeDetail is the full record for a single molecule lookup.
type MoleculeDetail struct {
	Name             string   `json:"name"`
	CommonName       string   `json:"common_name"`
	ChemicalFormula  string   `json:"chemical_formula"`
	MolecularWeight  float64  `json:"molecular_weight"`
	OdorThreshold    float64  `json:"odor_threshold"`
	TasteThreshold   float64  `json:"taste_threshold"`
	OdorDescriptors  []string `json:"odor_descriptors"`
	TasteDescriptors []string `json:"taste_descriptors"`
}

// MoleculeInfo is the normalized shape returned by molecule searches.
type MoleculeInfo struct {
	Name              string   `json:"name"`
	CommonName        string   `json:"common_name"`
	MolecularWeight   float64  `json:"molecular_weight"`
	FlavorDescriptors []string `json:"flavor_descriptors"`
}

// Threshold is an aroma or taste detection threshold for a molecule.
// Value is nil when the provider has no data.
type Threshold struct {
	Molecule    string   `json:"molecule"`
	Value       *float64 `json:"threshold"`
	Unit        string   `json:"unit"`
	Descriptors []string `json:"descriptors"`
}

// Occurrence lists the foods a molecule naturally occurs in.
type Occurrence struct {
	Molecule    string   `json:"molecule"`
	FoodSources []string `json:"food_sources"`
}

// Physicochemical holds computed chemical properties for a molecule.
type Physicochemical struct {
	Molecule        string  `json:"molecule"`
	ALogP           float64 `json:"alogp"`
	NumRings        int     `json:"num_rings"`
	NumBonds        int     `json:"num_bonds"`
	NumAtoms        int     `json:"num_atoms"`
	MolecularWeight float64 `json:"molecular_weight"`
}

// Regulatory holds food additive regulatory identifiers for a molecule.
type Regulatory struct {
	Molecule    string `json:"molecule"`
	FEMANumber  string `json:"fema_number"`
	JECFANumber string `json:"jecfa_number"`
	COENumber   string `json:"coe_number"`
	GRASStatus  string `json:"gras_status"`
}
