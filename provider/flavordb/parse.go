package flavordb

import (
	"swapagent/food"
	"swapagent/provider/cosylab"
)

func parseProfile(v any, name string) food.FlavorProfile {
	entity := cosylab.Object(v, "entity")

	p := food.EmptyProfile(name)
	for _, item := range cosylab.List(entity, false, "molecules", "flavor_molecules") {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		conc, _ := cosylab.Float(m, "concentration")
		p.Molecules = append(p.Molecules, food.Molecule{
			Name:            cosylab.String(m, "chemical_name", "name"),
			CommonName:      cosylab.String(m, "common_name"),
			Concentration:   conc,
			OdorDescriptors: cosylab.Strings(m, "odor_descriptors", "flavor_descriptors"),
		})
	}
	p.PrimaryFlavors = cosylab.Strings(entity, "flavor_profile")
	if cat := cosylab.String(entity, "category", "food_category"); cat != "" {
		p.Category = cat
	}
	return p
}

func parsePairings(v any) []string {
	items := cosylab.List(v, false, "pairings", "ingredients")
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch t := item.(type) {
		case string:
			if t != "" {
				out = append(out, t)
			}
		case map[string]any:
			if name := cosylab.String(t, "name"); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

func parseMolecules(v any) []food.MoleculeInfo {
	items := cosylab.List(v, false, "molecules")
	out := make([]food.MoleculeInfo, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		weight, _ := cosylab.Float(m, "molecular_weight")
		descriptors := cosylab.Strings(m, "flavor_descriptors", "odor_descriptors", "flavor_descriptor", "odor_descriptor")
		out = append(out, food.MoleculeInfo{
			Name:              cosylab.String(m, "chemical_name", "name"),
			CommonName:        cosylab.String(m, "common_name"),
			MolecularWeight:   weight,
			FlavorDescriptors: descriptors,
		})
	}
	return out
}

func parseMoleculeDetail(v any) food.MoleculeDetail {
	m := cosylab.Object(v, "molecule")
	weight, _ := cosylab.Float(m, "molecular_weight")
	odor, _ := cosylab.Float(m, "odor_threshold")
	taste, _ := cosylab.Float(m, "taste_threshold")
	return food.MoleculeDetail{
		Name:             cosylab.String(m, "chemical_name", "name"),
		CommonName:       cosylab.String(m, "common_name"),
		ChemicalFormula:  cosylab.String(m, "formula", "chemical_formula"),
		MolecularWeight:  weight,
		OdorThreshold:    odor,
		TasteThreshold:   taste,
		OdorDescriptors:  cosylab.Strings(m, "odor_descriptors"),
		TasteDescriptors: cosylab.Strings(m, "taste_descriptors"),
	}
}
