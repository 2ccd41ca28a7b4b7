package ingredient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapagent/food"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ground beef", "beef"},
		{"whole milk", "milk"},
		{"2 cups Fresh Chopped Tomatoes", "tomatoes"},
		{"1/2 lb. ground beef (85% lean)", "beef"},
		{"3 tbsp extra virgin olive oil", "olive oil"},
		{"Whole-Wheat Flour", "wheat flour"},
		{"  Butter  ", "butter"},
		{"", ""},
		{"100", ""},
		{"extra  virgin olive oil", "olive oil"},
		{"fresh1 basil", "basil"},
		{"fresh_ parsley", "parsley"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"2 cups Fresh Chopped Tomatoes",
		"1/2 lb. ground beef (85% lean)",
		"Partially-Hydrogenated -- Vegetable Oil!!",
		"unsalted butter, softened",
		"1 can (15 oz) black beans, rinsed",
		"extra  virgin olive oil",
		"fresh1 basil",
		"3 tbsp extra\tvirgin olive oil",
		"fresh_ parsley",
		"fresh fresh  chopped_ dried basil",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestCategorize(t *testing.T) {
	tests := map[string]string{
		"olive oil":      CategoryOil,
		"butter":         CategoryOil,
		"white sugar":    CategorySweetener,
		"almond milk":    CategoryDairy,
		"brown rice":     CategoryGrain,
		"chicken breast": CategoryProtein,
		"spinach":        CategoryVegetable,
		"blueberry":      CategoryFruit,
		"sea salt":       CategorySpice,
		"ketchup":        CategoryCondiment,
		"water":          CategoryOther,
	}
	for name, want := range tests {
		assert.Equal(t, want, Categorize(name), name)
	}
}

func TestPercentOfCalories(t *testing.T) {
	got, err := PercentOfCalories(25, "protein", 400)
	require.NoError(t, err)
	assert.Equal(t, 25.0, got)

	got, err = PercentOfCalories(15, "fat", 350)
	require.NoError(t, err)
	assert.Equal(t, 38.57, got)

	got, err = PercentOfCalories(30, "Carbohydrates", 350)
	require.NoError(t, err)
	assert.Equal(t, 34.29, got)

	_, err = PercentOfCalories(10, "protein", 0)
	assert.Error(t, err)

	_, err = PercentOfCalories(10, "alcohol", 100)
	assert.Error(t, err)
}

func TestIdentifyRisky(t *testing.T) {
	ingredients := []string{"partially hydrogenated oil", "2 tbsp soy sauce", "1 cup heavy cream", "spinach"}
	n := food.Nutrition{SaturatedFat: 12}

	risky := IdentifyRisky(ingredients, n)
	require.Len(t, risky, 3)

	assert.Equal(t, "partially hydrogenated oil", risky[0].Name)
	assert.Equal(t, 5, risky[0].Priority)
	assert.Contains(t, risky[0].Reason, "trans fats")

	names := []string{risky[1].Name, risky[2].Name}
	assert.ElementsMatch(t, []string{"2 tbsp soy sauce", "1 cup heavy cream"}, names)
	for _, r := range risky {
		assert.GreaterOrEqual(t, r.Priority, 1)
		assert.LessOrEqual(t, r.Priority, 5)
	}
}

func TestFromNames(t *testing.T) {
	risky := FromNames([]string{"butter"}, []string{"2 tbsp unsalted butter", "flour"})
	require.Len(t, risky, 1)
	assert.Equal(t, "2 tbsp unsalted butter", risky[0].Name)
	assert.Equal(t, 3, risky[0].Priority)
	assert.Equal(t, CategoryOil, risky[0].Category)
}
