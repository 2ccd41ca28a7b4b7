package ingredient

import "strings"

// Ingredient categories. Other is returned when nothing matches.
const (
	CategoryOil       = "oil"
	CategorySweetener = "sweetener"
	CategoryDairy     = "dairy"
	CategoryGrain     = "grain"
	CategoryProtein   = "protein"
	CategoryVegetable = "vegetable"
	CategoryFruit     = "fruit"
	CategorySpice     = "spice"
	CategoryCondiment = "condiment"
	CategoryOther     = "other"
)

type categoryKeywords struct {
	category string
	keywords []string
}

// Order matters: the first category with a matching keyword wins, so
// "butter" is an oil before it is dairy.
var categoryTable = []categoryKeywords{
	{CategoryOil, []string{"oil", "butter", "ghee", "margarine", "shortening", "lard", "fat"}},
	{CategorySweetener, []string{"sugar", "honey", "syrup", "stevia", "sweetener", "molasses", "agave", "fructose", "glucose"}},
	{CategoryDairy, []string{"milk", "cream", "cheese", "yogurt", "butter", "dairy"}},
	{CategoryGrain, []string{"rice", "flour", "bread", "pasta", "wheat", "oat", "quinoa", "barley", "grain"}},
	{CategoryProtein, []string{"chicken", "beef", "pork", "fish", "turkey", "lamb", "tofu", "tempeh", "egg", "bean", "lentil"}},
	{CategoryVegetable, []string{"carrot", "broccoli", "spinach", "tomato", "onion", "garlic", "pepper", "lettuce", "cabbage", "kale", "vegetable"}},
	{CategoryFruit, []string{"apple", "banana", "orange", "berry", "grape", "melon", "fruit"}},
	{CategorySpice, []string{"salt", "pepper", "cumin", "paprika", "oregano", "basil", "thyme", "cinnamon", "spice", "herb"}},
	{CategoryCondiment, []string{"sauce", "ketchup", "mustard", "mayo", "mayonnaise", "dressing"}},
}

// Categorize classifies an ingredient name by keyword substring.
func Categorize(name string) string {
	lower := strings.ToLower(name)
	for _, c := range categoryTable {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.category
			}
		}
	}
	return CategoryOther
}

