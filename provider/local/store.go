// Package local serves FlavorDB and RecipeDB lookups from a SQLite mirror
// seeded with a dataset snapshot. It backs offline runs and tests.
package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"

	"swapagent/provider"
	"swapagent/provider/storage"
)

// Store implements provider.FlavorLookup and provider.Recipes over SQLite.
type Store struct {
	db *sql.DB
}

var (
	_ provider.FlavorLookup = (*Store)(nil)
	_ provider.Recipes      = (*Store)(nil)
)

// Open connects to dsn and creates the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// NewFromDataset opens dsn and seeds it from ds.
func NewFromDataset(ctx context.Context, dsn string, ds storage.Dataset) (*Store, error) {
	s, err := Open(ctx, dsn)
	if err != nil {
		return nil, err
	}

	data, err := ds.Load(ctx)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}

	if err := s.Seed(ctx, snap); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
    CREATE TABLE IF NOT EXISTS ingredients (
        name TEXT PRIMARY KEY,
        category TEXT NOT NULL,
        primary_flavors TEXT NOT NULL,
        pairings TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS ingredient_molecules (
        ingredient TEXT NOT NULL,
        name TEXT NOT NULL,
        common_name TEXT NOT NULL,
        concentration REAL NOT NULL,
        odor_descriptors TEXT NOT NULL,
        FOREIGN KEY (ingredient) REFERENCES ingredients(name) ON DELETE CASCADE
    );

    CREATE TABLE IF NOT EXISTS molecules (
        name TEXT NOT NULL,
        common_name TEXT NOT NULL,
        formula TEXT NOT NULL,
        molecular_weight REAL NOT NULL,
        polar_surface_area REAL NOT NULL,
        hbd INTEGER NOT NULL,
        hba INTEGER NOT NULL,
        functional_groups TEXT NOT NULL,
        odor_threshold REAL,
        taste_threshold REAL,
        odor_descriptors TEXT NOT NULL,
        taste_descriptors TEXT NOT NULL,
        natural_sources TEXT NOT NULL,
        alogp REAL NOT NULL,
        num_rings INTEGER NOT NULL,
        num_bonds INTEGER NOT NULL,
        num_atoms INTEGER NOT NULL,
        fema_number TEXT NOT NULL,
        jecfa_number TEXT NOT NULL,
        coe_number TEXT NOT NULL,
        gras_status TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS recipes (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        cuisine TEXT NOT NULL,
        diet_type TEXT NOT NULL,
        ingredients TEXT NOT NULL,
        servings INTEGER NOT NULL,
        calories REAL,
        protein REAL,
        nutrition TEXT,
        micronutrients TEXT
    );

    CREATE INDEX IF NOT EXISTS idx_ingredient_molecules_ingredient ON ingredient_molecules(ingredient);
    CREATE INDEX IF NOT EXISTS idx_molecules_common_name ON molecules(common_name);
    CREATE INDEX IF NOT EXISTS idx_recipes_name ON recipes(name);
    `

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Seed inserts the snapshot in one transaction. Ingredient and recipe names
// are stored lower-cased for case-insensitive lookups.
func (s *Store) Seed(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for _, in := range snap.Ingredients {
		name := strings.ToLower(strings.TrimSpace(in.Name))
		_, err := tx.ExecContext(ctx, `
            INSERT OR REPLACE INTO ingredients (name, category, primary_flavors, pairings)
            VALUES (?, ?, ?, ?)`,
			name, in.Category, encode(in.PrimaryFlavors), encode(in.Pairings))
		if err != nil {
			return fmt.Errorf("failed to insert ingredient %q: %w", in.Name, err)
		}

		for _, m := range in.Molecules {
			_, err := tx.ExecContext(ctx, `
                INSERT INTO ingredient_molecules (ingredient, name, common_name, concentration, odor_descriptors)
                VALUES (?, ?, ?, ?, ?)`,
				name, m.Name, m.CommonName, m.Concentration, encode(m.OdorDescriptors))
			if err != nil {
				return fmt.Errorf("failed to insert molecule for %q: %w", in.Name, err)
			}
		}
	}

	for _, m := range snap.Molecules {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO molecules (name, common_name, formula, molecular_weight, polar_surface_area, hbd, hba,
                functional_groups, odor_threshold, taste_threshold, odor_descriptors, taste_descriptors,
                natural_sources, alogp, num_rings, num_bonds, num_atoms, fema_number, jecfa_number, coe_number, gras_status)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.Name, m.CommonName, m.Formula, m.MolecularWeight, m.PolarSurfaceArea, m.HBD, m.HBA,
			encode(m.FunctionalGroups), m.OdorThreshold, m.TasteThreshold, encode(m.OdorDescriptors), encode(m.TasteDescriptors),
			encode(m.NaturalSources), m.ALogP, m.NumRings, m.NumBonds, m.NumAtoms, m.FEMANumber, m.JECFANumber, m.COENumber, m.GRASStatus)
		if err != nil {
			return fmt.Errorf("failed to insert molecule %q: %w", m.Name, err)
		}
	}

	for _, r := range snap.Recipes {
		var calories, protein sql.NullFloat64
		var nutrition, micros sql.NullString
		if r.Nutrition != nil {
			calories = sql.NullFloat64{Float64: r.Nutrition.Calories, Valid: true}
			protein = sql.NullFloat64{Float64: r.Nutrition.Protein, Valid: true}
			nutrition = sql.NullString{String: encode(r.Nutrition), Valid: true}
		}
		if r.Micronutrients != nil {
			micros = sql.NullString{String: encode(r.Micronutrients), Valid: true}
		}

		_, err := tx.ExecContext(ctx, `
            INSERT OR REPLACE INTO recipes (id, name, cuisine, diet_type, ingredients, servings, calories, protein, nutrition, micronutrients)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.Name, r.Cuisine, r.DietType, encode(r.Ingredients), r.Servings, calories, protein, nutrition, micros)
		if err != nil {
			return fmt.Errorf("failed to insert recipe %q: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dataset: %w", err)
	}

	slog.Info("PROVIDER: Local dataset seeded",
		"ingredients", len(snap.Ingredients),
		"molecules", len(snap.Molecules),
		"recipes", len(snap.Recipes),
	)
	return nil
}

// Available reports whether the database answers.
func (s *Store) Available(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}

// encode stores list and object columns as JSON text. A nil slice becomes "[]".
func encode(v any) string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return "[]"
	}
	return string(b)
}

func decodeStrings(s string) []string {
	out := []string{}
	if err := json.Unmarshal([]byte(s), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}
