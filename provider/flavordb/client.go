// Package flavordb is a client for the FlavorDB molecular flavor API.
package flavordb

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"swapagent/food"
	"swapagent/ingredient"
	"swapagent/provider"
	"swapagent/provider/cache"
	"swapagent/provider/cosylab"
)

const (
	endpointEntity            = "entities_by_readable_name"
	endpointPairings          = "flavor_pairings"
	endpointByFlavor          = "molecules_by_flavor_profile"
	endpointByCommonName      = "molecules_by_common_name"
	endpointByFunctionalGroup = "molecules_by_functional_group"
	endpointByWeight          = "molecules_by_weight_range"
	endpointByPSA             = "molecules_by_polar_surface_area"
	endpointByHBDHBA          = "molecules_by_hbd_hba"
	endpointAroma             = "properties_by_aroma_threshold"
	endpointTaste             = "properties_by_taste_threshold"
	endpointOccurrence        = "properties_natural_occurrence"
	endpointPhysicochemical   = "physicochemical_properties"
	endpointRegulatory        = "regulatory_info"
)

type getter interface {
	Get(ctx context.Context, endpoint string, params url.Values) (any, error)
	Available(ctx context.Context, endpoint string, params url.Values) bool
}

// Client implements provider.FlavorLookup. Profiles, pairings and molecule
// details are memoized in the injected cache.
type Client struct {
	api   getter
	cache cache.Cache
}

var _ provider.FlavorLookup = (*Client)(nil)

func NewClient(api *cosylab.Client, c cache.Cache) *Client {
	return &Client{api: api, cache: c}
}

// queryName extracts the core ingredient name used for lookups.
func queryName(name string) string {
	if n := ingredient.Normalize(name); n != "" {
		return n
	}
	return strings.ToLower(strings.TrimSpace(name))
}

// FlavorProfile returns an empty profile when FlavorDB has no entity.
func (c *Client) FlavorProfile(ctx context.Context, name string) (food.FlavorProfile, error) {
	q := queryName(name)
	p, err := cache.Fetch(ctx, c.cache, cache.Key("profile", q), func(ctx context.Context) (food.FlavorProfile, error) {
		v, err := c.api.Get(ctx, endpointEntity, url.Values{"name": {q}})
		if err != nil {
			return food.FlavorProfile{}, err
		}
		return parseProfile(v, name), nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return food.FlavorProfile{}, ctx.Err()
		}
		slog.Warn("PROVIDER: "+provider.FallbackTag+" No flavor profile, using empty profile", "ingredient", name, "error", err)
		return food.EmptyProfile(name), nil
	}
	p.Ingredient = name

	slog.Info("PROVIDER: Flavor profile fetched", "ingredient", name, "molecules", len(p.Molecules))
	return p, nil
}

func (c *Client) Pairings(ctx context.Context, name string) ([]string, error) {
	q := queryName(name)
	pairs, err := cache.Fetch(ctx, c.cache, cache.Key("pairings", q), func(ctx context.Context) ([]string, error) {
		v, err := c.api.Get(ctx, endpointPairings, url.Values{"ingredient": {q}})
		if err != nil {
			return nil, err
		}
		return parsePairings(v), nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("PROVIDER: "+provider.FallbackTag+" No pairings, returning empty list", "ingredient", name, "error", err)
		return []string{}, nil
	}
	return pairs, nil
}

// Similarity compares the two ingredients' profiles with food.Similarity.
func (c *Client) Similarity(ctx context.Context, a, b string) (float64, error) {
	pa, err := c.FlavorProfile(ctx, a)
	if err != nil {
		return 0, err
	}
	pb, err := c.FlavorProfile(ctx, b)
	if err != nil {
		return 0, err
	}
	if pa.IsEmpty() || pb.IsEmpty() {
		slog.Warn("PROVIDER: Missing flavor data, similarity is 0", "a", a, "b", b)
		return 0, nil
	}
	return food.Similarity(pa, pb), nil
}

func (c *Client) MoleculeByCommonName(ctx context.Context, name string) (food.MoleculeDetail, error) {
	q := strings.ToLower(strings.TrimSpace(name))
	d, err := cache.Fetch(ctx, c.cache, cache.Key("molecule", q), func(ctx context.Context) (food.MoleculeDetail, error) {
		v, err := c.api.Get(ctx, endpointByCommonName, url.Values{"name": {q}})
		if err != nil {
			return food.MoleculeDetail{}, err
		}
		return parseMoleculeDetail(v), nil
	})
	if err != nil {
		return food.MoleculeDetail{}, c.fallback(ctx, endpointByCommonName, name, err)
	}
	return d, nil
}

func (c *Client) MoleculesByFlavor(ctx context.Context, flavor string) ([]food.MoleculeInfo, error) {
	return c.molecules(ctx, endpointByFlavor, url.Values{"flavor": {strings.ToLower(strings.TrimSpace(flavor))}})
}

func (c *Client) MoleculesByFunctionalGroup(ctx context.Context, group string) ([]food.MoleculeInfo, error) {
	return c.molecules(ctx, endpointByFunctionalGroup, url.Values{"group": {strings.ToLower(strings.TrimSpace(group))}})
}

func (c *Client) MoleculesByWeightRange(ctx context.Context, min, max float64) ([]food.MoleculeInfo, error) {
	return c.molecules(ctx, endpointByWeight, url.Values{"min": {ftoa(min)}, "max": {ftoa(max)}})
}

func (c *Client) MoleculesByPolarSurfaceArea(ctx context.Context, min, max float64) ([]food.MoleculeInfo, error) {
	return c.molecules(ctx, endpointByPSA, url.Values{"min": {ftoa(min)}, "max": {ftoa(max)}})
}

func (c *Client) MoleculesByHBDHBA(ctx context.Context, minHBD, maxHBD, minHBA, maxHBA int) ([]food.MoleculeInfo, error) {
	return c.molecules(ctx, endpointByHBDHBA, url.Values{
		"min_hbd": {strconv.Itoa(minHBD)},
		"max_hbd": {strconv.Itoa(maxHBD)},
		"min_hba": {strconv.Itoa(minHBA)},
		"max_hba": {strconv.Itoa(maxHBA)},
	})
}

func (c *Client) AromaThreshold(ctx context.Context, molecule string) (food.Threshold, error) {
	out := food.Threshold{Molecule: molecule, Unit: "ppb", Descriptors: []string{}}
	v, err := c.api.Get(ctx, endpointAroma, moleculeParams(molecule))
	if err != nil {
		return out, c.fallback(ctx, endpointAroma, molecule, err)
	}
	m := cosylab.Object(v, "properties", "molecule")
	out.Value = cosylab.FloatPtr(m, "aroma_threshold", "odor_threshold")
	if u := cosylab.String(m, "unit"); u != "" {
		out.Unit = u
	}
	out.Descriptors = cosylab.Strings(m, "odor_descriptors")
	return out, nil
}

func (c *Client) TasteThreshold(ctx context.Context, molecule string) (food.Threshold, error) {
	out := food.Threshold{Molecule: molecule, Unit: "ppm", Descriptors: []string{}}
	v, err := c.api.Get(ctx, endpointTaste, moleculeParams(molecule))
	if err != nil {
		return out, c.fallback(ctx, endpointTaste, molecule, err)
	}
	m := cosylab.Object(v, "properties", "molecule")
	out.Value = cosylab.FloatPtr(m, "taste_threshold")
	if u := cosylab.String(m, "unit"); u != "" {
		out.Unit = u
	}
	out.Descriptors = cosylab.Strings(m, "taste_descriptors")
	return out, nil
}

func (c *Client) NaturalOccurrence(ctx context.Context, molecule string) (food.Occurrence, error) {
	out := food.Occurrence{Molecule: molecule, FoodSources: []string{}}
	v, err := c.api.Get(ctx, endpointOccurrence, moleculeParams(molecule))
	if err != nil {
		return out, c.fallback(ctx, endpointOccurrence, molecule, err)
	}
	out.FoodSources = cosylab.Strings(cosylab.Object(v, "properties", "molecule"), "natural_sources", "food_sources")
	return out, nil
}

func (c *Client) PhysicochemicalProperties(ctx context.Context, molecule string) (food.Physicochemical, error) {
	out := food.Physicochemical{Molecule: molecule}
	v, err := c.api.Get(ctx, endpointPhysicochemical, moleculeParams(molecule))
	if err != nil {
		return out, c.fallback(ctx, endpointPhysicochemical, molecule, err)
	}
	m := cosylab.Object(v, "properties", "molecule")
	out.ALogP, _ = cosylab.Float(m, "alogp", "logp")
	out.MolecularWeight, _ = cosylab.Float(m, "molecular_weight")
	out.NumRings = intOf(m, "num_rings", "ring_count")
	out.NumBonds = intOf(m, "num_bonds", "bond_count")
	out.NumAtoms = intOf(m, "num_atoms", "atom_count")
	return out, nil
}

func (c *Client) RegulatoryInfo(ctx context.Context, molecule string) (food.Regulatory, error) {
	out := food.Regulatory{Molecule: molecule}
	v, err := c.api.Get(ctx, endpointRegulatory, moleculeParams(molecule))
	if err != nil {
		return out, c.fallback(ctx, endpointRegulatory, molecule, err)
	}
	m := cosylab.Object(v, "regulatory", "molecule")
	out.FEMANumber = cosylab.Scalar(m, "fema_number", "fema")
	out.JECFANumber = cosylab.Scalar(m, "jecfa_number", "jecfa")
	out.COENumber = cosylab.Scalar(m, "coe_number", "coe")
	out.GRASStatus = cosylab.Scalar(m, "gras_status", "gras")
	return out, nil
}

// Available probes FlavorDB with a known entity.
func (c *Client) Available(ctx context.Context) bool {
	return c.api.Available(ctx, endpointEntity, url.Values{"name": {"water"}})
}

// Clear drops every memoized lookup.
func (c *Client) Clear(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	if err := c.cache.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear flavordb cache: %w", err)
	}
	slog.Info("PROVIDER: FlavorDB cache cleared")
	return nil
}

// CacheStats reports the memoization counters.
func (c *Client) CacheStats() cache.Stats {
	if c.cache == nil {
		return cache.Stats{}
	}
	return c.cache.Stats()
}

func (c *Client) molecules(ctx context.Context, endpoint string, params url.Values) ([]food.MoleculeInfo, error) {
	v, err := c.api.Get(ctx, endpoint, params)
	if err != nil {
		return []food.MoleculeInfo{}, c.fallback(ctx, endpoint, params.Encode(), err)
	}
	out := parseMolecules(v)
	slog.Info("PROVIDER: Molecules fetched", "endpoint", endpoint, "count", len(out))
	return out, nil
}

// fallback logs a failed lookup and swallows the error unless the caller's
// context is done.
func (c *Client) fallback(ctx context.Context, endpoint, subject string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	slog.Warn("PROVIDER: "+provider.FallbackTag+" Lookup failed, returning empty result",
		"endpoint", endpoint,
		"subject", subject,
		"error", err,
	)
	return nil
}

func moleculeParams(name string) url.Values {
	return url.Values{"name": {strings.ToLower(strings.TrimSpace(name))}}
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func intOf(m map[string]any, keys ...string) int {
	f, _ := cosylab.Float(m, keys...)
	return int(f)
}
