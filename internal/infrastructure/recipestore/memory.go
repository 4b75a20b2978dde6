// Package recipestore provides an in-memory implementation of the read-only
// recipe/ingredient master-data collaborator. Production deployments swap in
// an adapter over the real catalog service; the orchestrator only sees the
// outbound.RecipeStore interface.
package recipestore

import (
	"context"
	"strings"
	"sync"

	"github.com/kruger4712/mealprep/internal/domain/suggestion"
	"github.com/kruger4712/mealprep/internal/ports/outbound"
)

// ingredientFact is one catalog row: price and nutrition per typical serving.
type ingredientFact struct {
	costCents int
	nutrition suggestion.NutritionInfo
}

// MemoryStore holds a small recipe catalog and ingredient facts.
type MemoryStore struct {
	recipes     []suggestion.ParsedCandidate
	ingredients map[string]ingredientFact
	mu          sync.RWMutex
}

// NewMemoryStore creates a store seeded with a generically safe catalog.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		recipes:     seedRecipes(),
		ingredients: seedIngredients(),
	}
}

// Search returns catalog recipes passing the deterministic filter.
func (s *MemoryStore) Search(ctx context.Context, query outbound.RecipeQuery) ([]suggestion.ParsedCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []suggestion.ParsedCandidate
	for _, recipe := range s.recipes {
		if query.MaxTotalMinutes > 0 && recipe.TotalMinutes() > query.MaxTotalMinutes {
			continue
		}
		if query.MaxCostCents > 0 && recipe.CostCents > query.MaxCostCents {
			continue
		}
		if containsAny(recipe, query.ExcludeIngredients) {
			continue
		}
		if violatesRestriction(recipe, query.Restrictions) {
			continue
		}
		results = append(results, recipe)
		if query.Limit > 0 && len(results) >= query.Limit {
			break
		}
	}
	return results, nil
}

// CuratedDefaults returns the popular safe options minus allergen conflicts.
func (s *MemoryStore) CuratedDefaults(ctx context.Context, excludeIngredients []string) ([]suggestion.ParsedCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []suggestion.ParsedCandidate
	for _, recipe := range s.recipes {
		if !hasTag(recipe, "popular") {
			continue
		}
		if containsAny(recipe, excludeIngredients) {
			continue
		}
		results = append(results, recipe)
	}
	return results, nil
}

// IngredientCostCents looks up the catalog price for an ingredient.
func (s *MemoryStore) IngredientCostCents(ctx context.Context, name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fact, ok := s.ingredients[normalize(name)]
	if !ok {
		return 0, false
	}
	return fact.costCents, true
}

// IngredientNutrition looks up per-serving nutrition for an ingredient.
func (s *MemoryStore) IngredientNutrition(ctx context.Context, name string) (*suggestion.NutritionInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fact, ok := s.ingredients[normalize(name)]
	if !ok {
		return nil, false
	}
	n := fact.nutrition
	return &n, true
}

// IngredientAvailable reports whether the ingredient exists in the catalog.
func (s *MemoryStore) IngredientAvailable(ctx context.Context, name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ingredients[normalize(name)]
	return ok
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func containsAny(recipe suggestion.ParsedCandidate, terms []string) bool {
	for _, term := range terms {
		if recipe.HasIngredient(term) {
			return true
		}
	}
	return false
}

func violatesRestriction(recipe suggestion.ParsedCandidate, restrictions []string) bool {
	for _, restriction := range restrictions {
		switch normalize(restriction) {
		case "vegetarian":
			if containsAny(recipe, []string{"chicken", "beef", "pork", "fish", "shrimp"}) {
				return true
			}
		case "vegan":
			if containsAny(recipe, []string{"chicken", "beef", "pork", "fish", "shrimp", "cheese", "butter", "cream", "egg", "milk", "yogurt"}) {
				return true
			}
		case "gluten_free", "gluten-free":
			if containsAny(recipe, []string{"pasta", "bread", "flour", "soy sauce", "breadcrumbs"}) {
				return true
			}
		case "dairy_free", "dairy-free":
			if containsAny(recipe, []string{"cheese", "butter", "cream", "milk", "yogurt"}) {
				return true
			}
		}
	}
	return false
}

func hasTag(recipe suggestion.ParsedCandidate, tag string) bool {
	for _, t := range recipe.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func seedRecipes() []suggestion.ParsedCandidate {
	return []suggestion.ParsedCandidate{
		{
			Name:        "Herb Roasted Chicken with Vegetables",
			Description: "Sheet-pan chicken thighs with seasonal vegetables.",
			PrepMinutes: 15, CookMinutes: 35, CostCents: 1100, Servings: 4,
			Ingredients: []suggestion.Ingredient{
				{Name: "chicken thighs", Amount: 1.5, Unit: "lb"},
				{Name: "carrots", Amount: 3, Unit: "pieces"},
				{Name: "potatoes", Amount: 4, Unit: "pieces"},
				{Name: "olive oil", Amount: 2, Unit: "tbsp"},
				{Name: "rosemary", Amount: 1, Unit: "tbsp"},
			},
			Instructions: []string{
				"Preheat oven to 425F.",
				"Toss vegetables and chicken with oil and herbs.",
				"Roast 35 minutes until chicken reaches 165F.",
			},
			Tags:       []string{"popular", "one-pan", "family"},
			Confidence: 0.9,
		},
		{
			Name:        "Creamy Tomato Pasta",
			Description: "Weeknight pasta in a light cream and tomato sauce.",
			PrepMinutes: 10, CookMinutes: 20, CostCents: 800, Servings: 4,
			Ingredients: []suggestion.Ingredient{
				{Name: "pasta", Amount: 400, Unit: "g"},
				{Name: "diced tomatoes", Amount: 1, Unit: "can"},
				{Name: "heavy cream", Amount: 100, Unit: "ml"},
				{Name: "garlic", Amount: 3, Unit: "cloves"},
				{Name: "parmesan cheese", Amount: 50, Unit: "g"},
			},
			Instructions: []string{
				"Cook pasta until al dente.",
				"Simmer tomatoes with garlic, stir in cream.",
				"Toss with pasta and top with parmesan.",
			},
			Tags:       []string{"popular", "vegetarian", "quick"},
			Confidence: 0.9,
		},
		{
			Name:        "Rainbow Vegetable Stir Fry",
			Description: "Colorful vegetables over rice with a ginger-soy glaze.",
			PrepMinutes: 15, CookMinutes: 10, CostCents: 700, Servings: 4,
			Ingredients: []suggestion.Ingredient{
				{Name: "rice", Amount: 1.5, Unit: "cups"},
				{Name: "bell peppers", Amount: 2, Unit: "pieces"},
				{Name: "broccoli", Amount: 1, Unit: "head"},
				{Name: "carrots", Amount: 2, Unit: "pieces"},
				{Name: "soy sauce", Amount: 3, Unit: "tbsp"},
				{Name: "ginger", Amount: 1, Unit: "tbsp"},
			},
			Instructions: []string{
				"Cook rice according to package directions.",
				"Stir-fry vegetables over high heat 6-8 minutes.",
				"Add sauce, toss, and serve over rice.",
			},
			Tags:       []string{"popular", "vegan", "quick"},
			Confidence: 0.9,
		},
		{
			Name:        "Baked Salmon with Lemon Rice",
			Description: "Oven-baked salmon fillets over herbed lemon rice.",
			PrepMinutes: 10, CookMinutes: 25, CostCents: 1600, Servings: 4,
			Ingredients: []suggestion.Ingredient{
				{Name: "salmon fillets", Amount: 4, Unit: "pieces"},
				{Name: "rice", Amount: 1.5, Unit: "cups"},
				{Name: "lemon", Amount: 1, Unit: "piece"},
				{Name: "olive oil", Amount: 2, Unit: "tbsp"},
				{Name: "dill", Amount: 1, Unit: "tbsp"},
			},
			Instructions: []string{
				"Bake salmon at 400F for 12-15 minutes.",
				"Cook rice, fold in lemon juice and dill.",
				"Serve salmon over rice.",
			},
			Tags:       []string{"popular", "healthy"},
			Confidence: 0.9,
		},
		{
			Name:        "Black Bean Tacos",
			Description: "Seasoned black beans in corn tortillas with fresh toppings.",
			PrepMinutes: 10, CookMinutes: 15, CostCents: 600, Servings: 4,
			Ingredients: []suggestion.Ingredient{
				{Name: "black beans", Amount: 2, Unit: "cans"},
				{Name: "corn tortillas", Amount: 8, Unit: "pieces"},
				{Name: "avocado", Amount: 1, Unit: "piece"},
				{Name: "lime", Amount: 1, Unit: "piece"},
				{Name: "cilantro", Amount: 0.25, Unit: "cup"},
			},
			Instructions: []string{
				"Simmer beans with cumin and chili powder.",
				"Warm tortillas, fill with beans and toppings.",
			},
			Tags:       []string{"popular", "vegan", "gluten_free", "budget"},
			Confidence: 0.9,
		},
		{
			Name:        "Thai Peanut Noodles",
			Description: "Rice noodles in a spicy peanut sauce.",
			PrepMinutes: 10, CookMinutes: 15, CostCents: 900, Servings: 4,
			Ingredients: []suggestion.Ingredient{
				{Name: "rice noodles", Amount: 300, Unit: "g"},
				{Name: "peanut butter", Amount: 0.5, Unit: "cup"},
				{Name: "soy sauce", Amount: 3, Unit: "tbsp"},
				{Name: "lime", Amount: 1, Unit: "piece"},
				{Name: "scallions", Amount: 3, Unit: "pieces"},
			},
			Instructions: []string{
				"Soak noodles per package directions.",
				"Whisk sauce, toss with noodles, garnish with scallions.",
			},
			Tags:       []string{"vegetarian", "quick", "spicy"},
			Confidence: 0.9,
		},
	}
}

func seedIngredients() map[string]ingredientFact {
	return map[string]ingredientFact{
		"chicken thighs":   {costCents: 450, nutrition: suggestion.NutritionInfo{Calories: 220, Protein: 24, Fat: 13}},
		"chicken breast":   {costCents: 500, nutrition: suggestion.NutritionInfo{Calories: 165, Protein: 31, Fat: 3.6}},
		"salmon fillets":   {costCents: 900, nutrition: suggestion.NutritionInfo{Calories: 208, Protein: 20, Fat: 13}},
		"pasta":            {costCents: 150, nutrition: suggestion.NutritionInfo{Calories: 200, Protein: 7, Carbs: 42, Fiber: 2}},
		"rice":             {costCents: 100, nutrition: suggestion.NutritionInfo{Calories: 205, Protein: 4, Carbs: 45}},
		"rice noodles":     {costCents: 200, nutrition: suggestion.NutritionInfo{Calories: 190, Protein: 3, Carbs: 44}},
		"black beans":      {costCents: 120, nutrition: suggestion.NutritionInfo{Calories: 114, Protein: 8, Carbs: 20, Fiber: 7}},
		"corn tortillas":   {costCents: 150, nutrition: suggestion.NutritionInfo{Calories: 52, Protein: 1, Carbs: 11, Fiber: 1}},
		"diced tomatoes":   {costCents: 110, nutrition: suggestion.NutritionInfo{Calories: 32, Protein: 1.6, Carbs: 7, Fiber: 2}},
		"heavy cream":      {costCents: 180, nutrition: suggestion.NutritionInfo{Calories: 170, Fat: 18}},
		"parmesan cheese":  {costCents: 220, nutrition: suggestion.NutritionInfo{Calories: 110, Protein: 10, Fat: 7}},
		"olive oil":        {costCents: 60, nutrition: suggestion.NutritionInfo{Calories: 119, Fat: 13.5}},
		"garlic":           {costCents: 30, nutrition: suggestion.NutritionInfo{Calories: 4}},
		"carrots":          {costCents: 60, nutrition: suggestion.NutritionInfo{Calories: 25, Carbs: 6, Fiber: 2}},
		"potatoes":         {costCents: 80, nutrition: suggestion.NutritionInfo{Calories: 110, Carbs: 26, Fiber: 2}},
		"bell peppers":     {costCents: 120, nutrition: suggestion.NutritionInfo{Calories: 31, Carbs: 6, Fiber: 2}},
		"broccoli":         {costCents: 130, nutrition: suggestion.NutritionInfo{Calories: 31, Protein: 2.5, Carbs: 6, Fiber: 2.4}},
		"avocado":          {costCents: 150, nutrition: suggestion.NutritionInfo{Calories: 234, Fat: 21, Fiber: 10}},
		"lime":             {costCents: 40, nutrition: suggestion.NutritionInfo{Calories: 20, Carbs: 7}},
		"lemon":            {costCents: 50, nutrition: suggestion.NutritionInfo{Calories: 17, Carbs: 5}},
		"soy sauce":        {costCents: 30, nutrition: suggestion.NutritionInfo{Calories: 8, Protein: 1.3}},
		"peanut butter":    {costCents: 140, nutrition: suggestion.NutritionInfo{Calories: 188, Protein: 8, Fat: 16, Fiber: 2}},
		"ginger":           {costCents: 40, nutrition: suggestion.NutritionInfo{Calories: 5}},
		"rosemary":         {costCents: 50, nutrition: suggestion.NutritionInfo{Calories: 2}},
		"dill":             {costCents: 50, nutrition: suggestion.NutritionInfo{Calories: 1}},
		"cilantro":         {costCents: 40, nutrition: suggestion.NutritionInfo{Calories: 1}},
		"scallions":        {costCents: 50, nutrition: suggestion.NutritionInfo{Calories: 5, Carbs: 1}},
	}
}

var _ outbound.RecipeStore = (*MemoryStore)(nil)
