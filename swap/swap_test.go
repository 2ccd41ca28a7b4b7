package swap

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapagent/food"
)

type fakeFlavor struct {
	pairings   []string
	pairErr    error
	similarity map[string]float64
	simErr     map[string]error
}

func (f *fakeFlavor) FlavorProfile(_ context.Context, name string) (food.FlavorProfile, error) {
	p := food.EmptyProfile(name)
	p.Molecules = []food.Molecule{{Name: "diacetyl"}, {Name: "hexanal"}}
	if name == "olive oil" {
		p.Molecules = []food.Molecule{{Name: "hexanal"}, {Name: "oleocanthal"}}
	}
	return p, nil
}

func (f *fakeFlavor) Pairings(context.Context, string) ([]string, error) {
	return f.pairings, f.pairErr
}

func (f *fakeFlavor) Similarity(_ context.Context, _, b string) (float64, error) {
	if err := f.simErr[b]; err != nil {
		return 0, err
	}
	if v, ok := f.similarity[b]; ok {
		return v, nil
	}
	return 50, nil
}

type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := s.vectors[t]
		if !ok {
			v = []float32{0, 0}
		}
		out[i] = v
	}
	return out, nil
}

func names(options []food.SubstituteOption) []string {
	out := make([]string, len(options))
	for i, o := range options {
		out[i] = o.Name
	}
	return out
}

func TestNewWeights(t *testing.T) {
	tests := []struct {
		name     string
		semantic float64
		enabled  bool
		want     Weights
	}{
		{"disabled", 0.3, false, Weights{Flavor: 0.6, Health: 0.4}},
		{"default semantic", DefaultSemanticWeight, true, Weights{Flavor: 0.5, Health: 0.4, Semantic: 0.1}},
		{"negative clamps to zero", -1, true, Weights{Flavor: 0.6, Health: 0.4}},
		{"too large clamps to flavor weight", 0.9, true, Weights{Flavor: 0, Health: 0.4, Semantic: 0.6}},
		{"nan takes default", math.NaN(), true, Weights{Flavor: 0.5, Health: 0.4, Semantic: 0.1}},
		{"infinity clamps to flavor weight", math.Inf(1), true, Weights{Flavor: 0, Health: 0.4, Semantic: 0.6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWeights(tt.semantic, tt.enabled)
			assert.InDelta(t, tt.want.Flavor, w.Flavor, 1e-9)
			assert.InDelta(t, tt.want.Health, w.Health, 1e-9)
			assert.InDelta(t, tt.want.Semantic, w.Semantic, 1e-9)
			assert.InDelta(t, 1.0, w.Flavor+w.Health+w.Semantic, 1e-9)
		})
	}
}

func TestPool(t *testing.T) {
	tests := []struct {
		name       string
		normalized string
		category   string
		want       []string
	}{
		{"exact key", "butter", "oil", []string{"ghee", "olive oil", "avocado", "coconut oil"}},
		{"partial key", "beef", "protein", []string{"ground turkey", "ground chicken", "lentils"}},
		{"unknown category", "saffron", "other", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Pool(tt.normalized, tt.category))
		})
	}

	all := Pool("duck fat", "oil")
	assert.Contains(t, all, "olive oil")
	assert.Contains(t, all, "applesauce")
	assert.Len(t, all, len(dedupe(all)))
}

func TestAlternatives(t *testing.T) {
	alts, ok := Alternatives("oil", "shortening")
	require.True(t, ok)
	assert.Equal(t, []string{"coconut oil", "applesauce"}, alts)

	alts[0] = "lard"
	again, _ := Alternatives("oil", "shortening")
	assert.Equal(t, "coconut oil", again[0])

	_, ok = Alternatives("oil", "duck fat")
	assert.False(t, ok)
	_, ok = Alternatives("spice", "butter")
	assert.False(t, ok)
}

func TestFindSubstitutesButterWithoutPairings(t *testing.T) {
	r := NewRanker(&fakeFlavor{}, nil, NewWeights(0, false))

	options, err := r.FindSubstitutes(context.Background(), "butter", food.EmptyProfile("butter"), 60, []string{"butter", "flour"})
	require.NoError(t, err)
	assert.Contains(t, names(options), "olive oil")
	assert.NotContains(t, names(options), "butter")
}

func TestFindSubstitutesCapsAndExcludes(t *testing.T) {
	flavor := &fakeFlavor{
		pairings: []string{"Canola Oil", "sunflower oil", "peanut oil", "butter", "olive oil"},
		similarity: map[string]float64{
			"olive oil":     70,
			"avocado":       40,
			"coconut oil":   50,
			"Canola Oil":    60,
			"sunflower oil": 30,
			"peanut oil":    20,
		},
	}
	r := NewRanker(flavor, nil, NewWeights(0, false))

	profile, _ := flavor.FlavorProfile(context.Background(), "butter")
	options, err := r.FindSubstitutes(context.Background(), "2 tbsp unsalted butter", profile, 60, []string{"2 tbsp ghee", "flour"})
	require.NoError(t, err)

	require.Len(t, options, food.MaxSubstitutes)
	assert.Equal(t, []string{"olive oil", "Canola Oil", "coconut oil", "avocado", "sunflower oil"}, names(options))
	for i := 1; i < len(options); i++ {
		assert.GreaterOrEqual(t, options[i-1].RankScore, options[i].RankScore)
	}

	best := options[0]
	assert.InDelta(t, 70*0.6+8*0.4, best.RankScore, 1e-9)
	assert.Equal(t, "oil", best.Category)
	assert.Equal(t, []string{"hexanal"}, best.SharedMolecules)
	assert.Contains(t, best.Explanation, "Replace 2 tbsp unsalted butter with olive oil - similar flavor profile (70% match), significantly healthier.")
	assert.Contains(t, best.Explanation, "They share 1 flavor molecule(s) (hexanal)")
}

func TestFindSubstitutesSkipsFailingCandidate(t *testing.T) {
	flavor := &fakeFlavor{
		pairErr: errors.New("pairings down"),
		simErr:  map[string]error{"avocado": errors.New("timeout")},
	}
	r := NewRanker(flavor, nil, NewWeights(0, false))

	options, err := r.FindSubstitutes(context.Background(), "butter", food.EmptyProfile("butter"), 60, nil)
	require.NoError(t, err)
	assert.NotContains(t, names(options), "avocado")
	assert.Len(t, options, 3)
}

func TestFindSubstitutesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	flavor := &fakeFlavor{pairErr: context.Canceled}
	r := NewRanker(flavor, nil, NewWeights(0, false))

	_, err := r.FindSubstitutes(ctx, "butter", food.EmptyProfile("butter"), 60, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFindSubstitutesSemanticRerank(t *testing.T) {
	e := &stubEmbedder{vectors: map[string][]float32{
		"butter":    {1, 0},
		"olive oil": {1, 0},
		"ghee":      {-1, 0},
	}}
	r := NewRanker(&fakeFlavor{}, e, NewWeights(DefaultSemanticWeight, true))

	options, err := r.FindSubstitutes(context.Background(), "butter", food.EmptyProfile("butter"), 60, nil)
	require.NoError(t, err)
	require.Len(t, options, 4)

	assert.Equal(t, "olive oil", options[0].Name)
	assert.InDelta(t, 50*0.5+8*0.4+100*0.1, options[0].RankScore, 1e-9)
	assert.Equal(t, "ghee", options[3].Name)
	assert.InDelta(t, 50*0.5+5*0.4, options[3].RankScore, 1e-9)
}

func TestFindSubstitutesSemanticFailureRevertsWeights(t *testing.T) {
	e := &stubEmbedder{err: errors.New("quota exceeded")}
	r := NewRanker(&fakeFlavor{}, e, NewWeights(DefaultSemanticWeight, true))

	options, err := r.FindSubstitutes(context.Background(), "butter", food.EmptyProfile("butter"), 60, nil)
	require.NoError(t, err)
	require.NotEmpty(t, options)
	assert.Equal(t, "olive oil", options[0].Name)
	assert.InDelta(t, 50*0.6+8*0.4, options[0].RankScore, 1e-9)
}

func TestNewRankerWithoutEmbedderDisablesSemantic(t *testing.T) {
	r := NewRanker(&fakeFlavor{}, nil, NewWeights(DefaultSemanticWeight, true))
	assert.Equal(t, Weights{Flavor: 0.6, Health: 0.4}, r.Weights())
}

func TestHealthImprovement(t *testing.T) {
	tests := []struct {
		name       string
		substitute string
		score      float64
		want       float64
	}{
		{"low score boosts", "olive oil", 20, 12},
		{"middling score boosts less", "quinoa", 40, 9.6},
		{"normal score unchanged", "lemon juice", 60, 5},
		{"high score dampens", "stevia", 80, 5.6},
		{"capped by headroom", "olive oil", 95, 5},
		{"keyword needs original words", "Whole Wheat Flour", 60, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, HealthImprovement(tt.substitute, tt.score), 1e-9)
		})
	}
}

func TestExplainTiers(t *testing.T) {
	assert.Equal(t,
		"Replace sugar with stevia - very similar flavor profile (85% match), slightly healthier.",
		Explain("sugar", "stevia", 85, 3, nil))
	assert.Equal(t,
		"Replace salt with herbs - different but complementary flavor (12% match), marginally healthier. They share 6 flavor molecule(s) (a, b, c, d, e), preserving the taste you expect.",
		Explain("salt", "herbs", 12, 1, []string{"a", "b", "c", "d", "e", "f"}))
}

func TestApplySwaps(t *testing.T) {
	swaps := []food.Swap{
		{Original: "butter", Substitute: food.SubstituteOption{Name: "olive oil"}, Accepted: true},
		{Original: "white sugar", Substitute: food.SubstituteOption{Name: "honey"}, Accepted: false},
	}

	got := ApplySwaps([]string{"2 tbsp unsalted butter", "white sugar", "flour"}, swaps)
	assert.Equal(t, []string{"olive oil", "white sugar", "flour"}, got)
}

func TestEstimateNutritionWithSwaps(t *testing.T) {
	n := food.Nutrition{
		Calories:     350,
		SaturatedFat: 5,
		Cholesterol:  75,
		Sodium:       450,
		Sugar:        8,
		Fiber:        0,
	}

	t.Run("butter to olive oil over three ingredients", func(t *testing.T) {
		swaps := []food.Swap{{Original: "butter", Substitute: food.SubstituteOption{Name: "olive oil"}, Accepted: true}}
		got := EstimateNutritionWithSwaps(n, swaps, 3)

		assert.InDelta(t, 5*(1-(1.0/3)*0.45), got.SaturatedFat, 0.01)
		assert.InDelta(t, 62.5, got.Cholesterol, 0.01)
		assert.Equal(t, 0.0, got.TransFat)
		assert.Equal(t, n.Calories, got.Calories)
		assert.Equal(t, n.Sodium, got.Sodium)
	})

	t.Run("baseline injected for a zero nutrient", func(t *testing.T) {
		swaps := []food.Swap{{Original: "milk", Substitute: food.SubstituteOption{Name: "oat milk"}, Accepted: true}}
		got := EstimateNutritionWithSwaps(n, swaps, 4)
		assert.InDelta(t, 2*0.25*1.5, got.Fiber, 1e-9)
	})

	t.Run("unaccepted swaps change nothing", func(t *testing.T) {
		swaps := []food.Swap{{Original: "butter", Substitute: food.SubstituteOption{Name: "olive oil"}}}
		assert.Equal(t, n, EstimateNutritionWithSwaps(n, swaps, 3))
	})

	t.Run("never negative", func(t *testing.T) {
		swaps := []food.Swap{
			{Original: "salt", Substitute: food.SubstituteOption{Name: "herbs"}, Accepted: true},
			{Original: "sugar", Substitute: food.SubstituteOption{Name: "stevia"}, Accepted: true},
			{Original: "butter", Substitute: food.SubstituteOption{Name: "mystery"}, Accepted: true},
		}
		got := EstimateNutritionWithSwaps(food.Nutrition{Sodium: 10, Sugar: 1, SaturatedFat: 0.01}, swaps, 1)
		for _, k := range food.NutrientKeys {
			assert.GreaterOrEqual(t, got.Get(k), 0.0, k)
		}
	})
}

func TestReconstructSwaps(t *testing.T) {
	got := ReconstructSwaps(
		[]string{"butter", "white sugar", "flour"},
		[]string{"olive oil", "honey", "saffron"},
	)

	require.Len(t, got, 2)
	assert.Equal(t, "butter", got[0].Original)
	assert.Equal(t, "olive oil", got[0].Substitute.Name)
	assert.True(t, got[0].Accepted)
	assert.Equal(t, "white sugar", got[1].Original)
	assert.Equal(t, "honey", got[1].Substitute.Name)
}

func TestStatistics(t *testing.T) {
	r := NewRanker(&fakeFlavor{}, nil, NewWeights(0, false))
	s := r.Statistics()

	assert.Equal(t, len(Categories()), s.TotalCategories)
	assert.Equal(t, 5, s.PerCategory["oil"])
	assert.Greater(t, s.TotalAlternativeIngredients, s.TotalCategories)
	assert.Equal(t, 0.6, s.Weights.Flavor)
}

func TestSourceSuggest(t *testing.T) {
	flavor := &fakeFlavor{similarity: map[string]float64{"olive oil": 90}}
	src := NewSource(NewRanker(flavor, nil, NewWeights(0, false)))
	assert.Equal(t, "ranker", src.Name())

	req := food.SubstitutionRequest{
		RecipeName:  "Shortbread",
		Ingredients: []string{"butter", "flour", "saffron"},
		Nutrition:   food.Nutrition{Calories: 300, SaturatedFat: 9},
		HealthScore: 60,
		Risky: []food.RiskyIngredient{
			{Name: "butter", Priority: 4},
			{Name: "saffron", Priority: 1},
		},
	}

	out, err := src.Suggest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, food.StatusPartial, out.Status)
	require.Len(t, out.Swaps, 1)
	assert.Equal(t, "butter", out.Swaps[0].Original)
	assert.Equal(t, "olive oil", out.Swaps[0].Substitute.Name)
	assert.True(t, out.Swaps[0].Accepted)
	assert.Empty(t, out.Options["saffron"])
	assert.Less(t, out.Projected.SaturatedFat, req.Nutrition.SaturatedFat)
	assert.Equal(t, []string{"olive oil", "flour", "saffron"}, out.Improved)

	req.Risky = req.Risky[:1]
	out, err = src.Suggest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, food.StatusOK, out.Status)
}
