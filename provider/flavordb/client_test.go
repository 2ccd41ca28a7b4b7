package flavordb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapagent/food"
	"swapagent/provider/cache"
	"swapagent/provider/cosylab"
)

var fixtures = map[string]map[string]string{
	endpointEntity: {
		"butter": `{"entity": {"category": "dairy", "flavor_profile": ["creamy", "buttery"], "molecules": [
			{"chemical_name": "butane-2,3-dione", "common_name": "Diacetyl", "concentration": 3},
			{"chemical_name": "butanoic acid", "common_name": "Butyric acid", "odor_descriptors": "cheesy"},
			{"name": "delta-decalactone", "concentration": 1}
		]}}`,
		"olive oil": `{"food_category": "oil", "flavor_profile": "fruity", "flavor_molecules": [
			{"chemical_name": "butane-2,3-dione", "common_name": "diacetyl", "concentration": 1},
			{"name": "hexanal", "flavor_descriptors": ["green"]}
		]}`,
		"water": `{"entity": {}}`,
	},
	endpointPairings: {
		"tomato": `{"pairings": ["basil", {"name": "garlic"}, {"score": 1}, ""]}`,
	},
	endpointByFlavor: {
		"sweet": `[{"chemical_name": "vanillin", "common_name": "Vanillin", "molecular_weight": "152.15", "odor_descriptors": ["vanilla"]}]`,
	},
	endpointByCommonName: {
		"vanillin": `{"molecule": {"common_name": "Vanillin", "formula": "C8H8O3", "molecular_weight": 152.15, "odor_threshold": 0.02, "taste_descriptors": ["sweet"]}}`,
	},
	endpointAroma: {
		"vanillin": `{"properties": {"odor_threshold": 0.02, "odor_descriptors": ["vanilla", "creamy"]}}`,
	},
	endpointRegulatory: {
		"vanillin": `{"fema": 3107, "jecfa_number": "889", "gras_status": true}`,
	},
}

func newTestServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		endpoint := r.URL.Path[1:]
		q := r.URL.Query()
		key := q.Get("name")
		if key == "" {
			key = q.Get("ingredient")
		}
		if key == "" {
			key = q.Get("flavor")
		}
		body, ok := fixtures[endpoint][key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, calls *atomic.Int32) *Client {
	t.Helper()
	srv := newTestServer(t, calls)
	api := cosylab.NewClient("FlavorDB", srv.URL, srv.Client(), cosylab.Options{
		Timeout:    time.Second,
		MaxRetries: 0,
		RetryDelay: time.Millisecond,
	})
	return NewClient(api, cache.NewLRU(100, time.Hour))
}

func TestFlavorProfile(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, &calls)
	ctx := context.Background()

	p, err := c.FlavorProfile(ctx, "2 tbsp Butter")
	require.NoError(t, err)
	assert.Equal(t, "2 tbsp Butter", p.Ingredient)
	assert.Equal(t, "dairy", p.Category)
	assert.Equal(t, []string{"creamy", "buttery"}, p.PrimaryFlavors)
	require.Len(t, p.Molecules, 3)
	assert.Equal(t, "Diacetyl", p.Molecules[0].CommonName)
	assert.Equal(t, 3.0, p.Molecules[0].Concentration)
	assert.Equal(t, []string{"cheesy"}, p.Molecules[1].OdorDescriptors)
	assert.Equal(t, "delta-decalactone", p.Molecules[2].Name)

	// Served from cache on the second lookup.
	_, err = c.FlavorProfile(ctx, "butter")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int64(1), c.CacheStats().Hits)

	oil, err := c.FlavorProfile(ctx, "olive oil")
	require.NoError(t, err)
	assert.Equal(t, "oil", oil.Category)
	assert.Equal(t, []string{"fruity"}, oil.PrimaryFlavors)
	assert.Equal(t, []string{"green"}, oil.Molecules[1].OdorDescriptors)
}

func TestFlavorProfileFallback(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, &calls)

	p, err := c.FlavorProfile(context.Background(), "unobtainium")
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
	assert.Equal(t, food.UnknownCategory, p.Category)
	assert.Equal(t, 0, c.CacheStats().Size, "failed lookups are not cached")
}

func TestPairings(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, &calls)
	ctx := context.Background()

	got, err := c.Pairings(ctx, "Tomato")
	require.NoError(t, err)
	assert.Equal(t, []string{"basil", "garlic"}, got)

	got, err = c.Pairings(ctx, "durian")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestSimilarity(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, &calls)
	ctx := context.Background()

	s, err := c.Similarity(ctx, "butter", "olive oil")
	require.NoError(t, err)

	butter, _ := c.FlavorProfile(ctx, "butter")
	oil, _ := c.FlavorProfile(ctx, "olive oil")
	assert.Equal(t, food.Similarity(butter, oil), s)
	assert.Greater(t, s, 0.0)

	s, err = c.Similarity(ctx, "butter", "unobtainium")
	require.NoError(t, err)
	assert.Equal(t, 0.0, s)
}

func TestMoleculeLookups(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, &calls)
	ctx := context.Background()

	d, err := c.MoleculeByCommonName(ctx, "Vanillin")
	require.NoError(t, err)
	assert.Equal(t, "C8H8O3", d.ChemicalFormula)
	assert.Equal(t, 152.15, d.MolecularWeight)
	assert.Equal(t, []string{"sweet"}, d.TasteDescriptors)

	ms, err := c.MoleculesByFlavor(ctx, "Sweet")
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "vanillin", ms[0].Name)
	assert.Equal(t, 152.15, ms[0].MolecularWeight)
	assert.Equal(t, []string{"vanilla"}, ms[0].FlavorDescriptors)

	ms, err = c.MoleculesByFunctionalGroup(ctx, "ester")
	require.NoError(t, err)
	assert.Empty(t, ms)

	th, err := c.AromaThreshold(ctx, "vanillin")
	require.NoError(t, err)
	require.NotNil(t, th.Value)
	assert.Equal(t, 0.02, *th.Value)
	assert.Equal(t, "ppb", th.Unit)
	assert.Equal(t, []string{"vanilla", "creamy"}, th.Descriptors)

	th, err = c.TasteThreshold(ctx, "vanillin")
	require.NoError(t, err)
	assert.Nil(t, th.Value)
	assert.Equal(t, "ppm", th.Unit)

	reg, err := c.RegulatoryInfo(ctx, "vanillin")
	require.NoError(t, err)
	assert.Equal(t, "3107", reg.FEMANumber)
	assert.Equal(t, "889", reg.JECFANumber)
	assert.Equal(t, "true", reg.GRASStatus)
}

func TestAvailableAndClear(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, &calls)
	ctx := context.Background()

	assert.True(t, c.Available(ctx))

	_, err := c.FlavorProfile(ctx, "butter")
	require.NoError(t, err)
	assert.Equal(t, 1, c.CacheStats().Size)

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.CacheStats().Size)
}

func TestCancelledContext(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, &calls)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FlavorProfile(ctx, "butter")
	assert.ErrorIs(t, err, context.Canceled)
}
