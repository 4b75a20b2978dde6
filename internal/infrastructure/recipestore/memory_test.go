package recipestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kruger4712/mealprep/internal/ports/outbound"
)

func TestSearchExcludesIngredients(t *testing.T) {
	store := NewMemoryStore()

	results, err := store.Search(context.Background(), outbound.RecipeQuery{
		ExcludeIngredients: []string{"peanut"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, recipe := range results {
		assert.False(t, recipe.HasIngredient("peanut"), "recipe %q contains excluded ingredient", recipe.Name)
	}
}

func TestSearchHonorsRestrictions(t *testing.T) {
	store := NewMemoryStore()

	results, err := store.Search(context.Background(), outbound.RecipeQuery{
		Restrictions: []string{"vegan"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, recipe := range results {
		for _, term := range []string{"chicken", "salmon", "cheese", "cream"} {
			assert.False(t, recipe.HasIngredient(term), "recipe %q is not vegan", recipe.Name)
		}
	}
}

func TestSearchHonorsBudgetAndTime(t *testing.T) {
	store := NewMemoryStore()

	results, err := store.Search(context.Background(), outbound.RecipeQuery{
		MaxCostCents:    800,
		MaxTotalMinutes: 25,
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, recipe := range results {
		assert.LessOrEqual(t, recipe.CostCents, 800)
		assert.LessOrEqual(t, recipe.TotalMinutes(), 25)
	}
}

func TestSearchLimit(t *testing.T) {
	store := NewMemoryStore()

	results, err := store.Search(context.Background(), outbound.RecipeQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestCuratedDefaultsOnlyPopular(t *testing.T) {
	store := NewMemoryStore()

	results, err := store.CuratedDefaults(context.Background(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, recipe := range results {
		assert.Contains(t, recipe.Tags, "popular")
		assert.NotEqual(t, "Thai Peanut Noodles", recipe.Name)
	}
}

func TestCuratedDefaultsExcludesAllergens(t *testing.T) {
	store := NewMemoryStore()

	results, err := store.CuratedDefaults(context.Background(), []string{"fish", "salmon"})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, recipe := range results {
		assert.False(t, recipe.HasIngredient("salmon"), "recipe %q contains excluded allergen", recipe.Name)
	}
}

func TestIngredientLookupsCaseInsensitive(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	cost, ok := store.IngredientCostCents(ctx, "  Chicken Thighs ")
	require.True(t, ok)
	assert.Equal(t, 450, cost)

	nutrition, ok := store.IngredientNutrition(ctx, "RICE")
	require.True(t, ok)
	assert.InDelta(t, 205, nutrition.Calories, 0.01)

	assert.True(t, store.IngredientAvailable(ctx, "garlic"))
	assert.False(t, store.IngredientAvailable(ctx, "dragonfruit"))
}

func TestIngredientLookupMiss(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, ok := store.IngredientCostCents(ctx, "saffron threads")
	assert.False(t, ok)

	_, ok = store.IngredientNutrition(ctx, "saffron threads")
	assert.False(t, ok)
}
