package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"swapagent/food"
	"swapagent/ingredient"
	"swapagent/provider"
)

func lookupName(name string) string {
	if n := ingredient.Normalize(name); n != "" {
		return n
	}
	return strings.ToLower(strings.TrimSpace(name))
}

func (s *Store) FlavorProfile(ctx context.Context, name string) (food.FlavorProfile, error) {
	key := lookupName(name)
	p := food.EmptyProfile(name)

	var flavors string
	err := s.db.QueryRowContext(ctx,
		`SELECT category, primary_flavors FROM ingredients WHERE name = ?`, key,
	).Scan(&p.Category, &flavors)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Warn("PROVIDER: "+provider.FallbackTag+" Ingredient not in local dataset", "ingredient", name)
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("failed to query ingredient %q: %w", name, err)
	}
	p.PrimaryFlavors = decodeStrings(flavors)

	rows, err := s.db.QueryContext(ctx, `
        SELECT name, common_name, concentration, odor_descriptors
        FROM ingredient_molecules
        WHERE ingredient = ?
        ORDER BY rowid`, key)
	if err != nil {
		return p, fmt.Errorf("failed to query molecules for %q: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m food.Molecule
		var descriptors string
		if err := rows.Scan(&m.Name, &m.CommonName, &m.Concentration, &descriptors); err != nil {
			return p, fmt.Errorf("failed to scan molecule: %w", err)
		}
		m.OdorDescriptors = decodeStrings(descriptors)
		p.Molecules = append(p.Molecules, m)
	}
	return p, rows.Err()
}

func (s *Store) Pairings(ctx context.Context, name string) ([]string, error) {
	var pairings string
	err := s.db.QueryRowContext(ctx,
		`SELECT pairings FROM ingredients WHERE name = ?`, lookupName(name),
	).Scan(&pairings)
	if errors.Is(err, sql.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query pairings for %q: %w", name, err)
	}
	return decodeStrings(pairings), nil
}

func (s *Store) Similarity(ctx context.Context, a, b string) (float64, error) {
	pa, err := s.FlavorProfile(ctx, a)
	if err != nil {
		return 0, err
	}
	pb, err := s.FlavorProfile(ctx, b)
	if err != nil {
		return 0, err
	}
	return food.Similarity(pa, pb), nil
}

const moleculeColumns = `name, common_name, formula, molecular_weight, odor_threshold, taste_threshold,
    odor_descriptors, taste_descriptors, natural_sources, alogp, num_rings, num_bonds, num_atoms,
    fema_number, jecfa_number, coe_number, gras_status`

// moleculeByName matches either the chemical or the common name.
func (s *Store) moleculeByName(ctx context.Context, name string) (MoleculeRecord, bool, error) {
	var m MoleculeRecord
	var odor, taste sql.NullFloat64
	var odorDesc, tasteDesc, sources string

	err := s.db.QueryRowContext(ctx,
		`SELECT `+moleculeColumns+` FROM molecules
        WHERE lower(common_name) = ? OR lower(name) = ?
        LIMIT 1`,
		strings.ToLower(strings.TrimSpace(name)), strings.ToLower(strings.TrimSpace(name)),
	).Scan(&m.Name, &m.CommonName, &m.Formula, &m.MolecularWeight, &odor, &taste,
		&odorDesc, &tasteDesc, &sources, &m.ALogP, &m.NumRings, &m.NumBonds, &m.NumAtoms,
		&m.FEMANumber, &m.JECFANumber, &m.COENumber, &m.GRASStatus)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Warn("PROVIDER: "+provider.FallbackTag+" Molecule not in local dataset", "molecule", name)
		return m, false, nil
	}
	if err != nil {
		return m, false, fmt.Errorf("failed to query molecule %q: %w", name, err)
	}

	if odor.Valid {
		m.OdorThreshold = &odor.Float64
	}
	if taste.Valid {
		m.TasteThreshold = &taste.Float64
	}
	m.OdorDescriptors = decodeStrings(odorDesc)
	m.TasteDescriptors = decodeStrings(tasteDesc)
	m.NaturalSources = decodeStrings(sources)
	return m, true, nil
}

func (s *Store) MoleculeByCommonName(ctx context.Context, name string) (food.MoleculeDetail, error) {
	m, ok, err := s.moleculeByName(ctx, name)
	if err != nil || !ok {
		return food.MoleculeDetail{}, err
	}
	d := food.MoleculeDetail{
		Name:             m.Name,
		CommonName:       m.CommonName,
		ChemicalFormula:  m.Formula,
		MolecularWeight:  m.MolecularWeight,
		OdorDescriptors:  m.OdorDescriptors,
		TasteDescriptors: m.TasteDescriptors,
	}
	if m.OdorThreshold != nil {
		d.OdorThreshold = *m.OdorThreshold
	}
	if m.TasteThreshold != nil {
		d.TasteThreshold = *m.TasteThreshold
	}
	return d, nil
}

func (s *Store) MoleculesByFlavor(ctx context.Context, flavor string) ([]food.MoleculeInfo, error) {
	return s.molecules(ctx, `lower(odor_descriptors) LIKE ? OR lower(taste_descriptors) LIKE ?`,
		like(flavor), like(flavor))
}

func (s *Store) MoleculesByFunctionalGroup(ctx context.Context, group string) ([]food.MoleculeInfo, error) {
	return s.molecules(ctx, `lower(functional_groups) LIKE ?`, like(group))
}

func (s *Store) MoleculesByWeightRange(ctx context.Context, min, max float64) ([]food.MoleculeInfo, error) {
	return s.molecules(ctx, `molecular_weight BETWEEN ? AND ?`, min, max)
}

func (s *Store) MoleculesByPolarSurfaceArea(ctx context.Context, min, max float64) ([]food.MoleculeInfo, error) {
	return s.molecules(ctx, `polar_surface_area BETWEEN ? AND ?`, min, max)
}

func (s *Store) MoleculesByHBDHBA(ctx context.Context, minHBD, maxHBD, minHBA, maxHBA int) ([]food.MoleculeInfo, error) {
	return s.molecules(ctx, `hbd BETWEEN ? AND ? AND hba BETWEEN ? AND ?`, minHBD, maxHBD, minHBA, maxHBA)
}

func (s *Store) AromaThreshold(ctx context.Context, molecule string) (food.Threshold, error) {
	out := food.Threshold{Molecule: molecule, Unit: "ppb", Descriptors: []string{}}
	m, ok, err := s.moleculeByName(ctx, molecule)
	if err != nil || !ok {
		return out, err
	}
	out.Value = m.OdorThreshold
	out.Descriptors = m.OdorDescriptors
	return out, nil
}

func (s *Store) TasteThreshold(ctx context.Context, molecule string) (food.Threshold, error) {
	out := food.Threshold{Molecule: molecule, Unit: "ppm", Descriptors: []string{}}
	m, ok, err := s.moleculeByName(ctx, molecule)
	if err != nil || !ok {
		return out, err
	}
	out.Value = m.TasteThreshold
	out.Descriptors = m.TasteDescriptors
	return out, nil
}

func (s *Store) NaturalOccurrence(ctx context.Context, molecule string) (food.Occurrence, error) {
	out := food.Occurrence{Molecule: molecule, FoodSources: []string{}}
	m, ok, err := s.moleculeByName(ctx, molecule)
	if err != nil || !ok {
		return out, err
	}
	out.FoodSources = m.NaturalSources
	return out, nil
}

func (s *Store) PhysicochemicalProperties(ctx context.Context, molecule string) (food.Physicochemical, error) {
	out := food.Physicochemical{Molecule: molecule}
	m, ok, err := s.moleculeByName(ctx, molecule)
	if err != nil || !ok {
		return out, err
	}
	out.ALogP = m.ALogP
	out.NumRings = m.NumRings
	out.NumBonds = m.NumBonds
	out.NumAtoms = m.NumAtoms
	out.MolecularWeight = m.MolecularWeight
	return out, nil
}

func (s *Store) RegulatoryInfo(ctx context.Context, molecule string) (food.Regulatory, error) {
	out := food.Regulatory{Molecule: molecule}
	m, ok, err := s.moleculeByName(ctx, molecule)
	if err != nil || !ok {
		return out, err
	}
	out.FEMANumber = m.FEMANumber
	out.JECFANumber = m.JECFANumber
	out.COENumber = m.COENumber
	out.GRASStatus = m.GRASStatus
	return out, nil
}

func (s *Store) molecules(ctx context.Context, where string, args ...any) ([]food.MoleculeInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT name, common_name, molecular_weight, odor_descriptors
        FROM molecules
        WHERE `+where+`
        ORDER BY molecular_weight`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query molecules: %w", err)
	}
	defer rows.Close()

	out := []food.MoleculeInfo{}
	for rows.Next() {
		var m food.MoleculeInfo
		var descriptors string
		if err := rows.Scan(&m.Name, &m.CommonName, &m.MolecularWeight, &descriptors); err != nil {
			return nil, fmt.Errorf("failed to scan molecule: %w", err)
		}
		m.FlavorDescriptors = decodeStrings(descriptors)
		out = append(out, m)
	}
	return out, rows.Err()
}

func like(term string) string {
	return "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
}
