package suggestion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kruger4712/mealprep/internal/domain/suggestion"
	"github.com/kruger4712/mealprep/internal/infrastructure/config"
	"github.com/kruger4712/mealprep/internal/infrastructure/recipestore"
)

func newTestValidator() *Validator {
	cfg := config.Default()
	return NewValidator(recipestore.NewMemoryStore(), cfg.Orchestrator, zap.NewNop())
}

func cleanCandidate() suggestion.ParsedCandidate {
	return suggestion.ParsedCandidate{
		Name:        "Garlic Chicken Skillet",
		PrepMinutes: 15,
		CookMinutes: 25,
		CostCents:   900,
		Servings:    4,
		Ingredients: []suggestion.Ingredient{
			{Name: "chicken thighs", Amount: 1.5, Unit: "lb"},
			{Name: "carrots", Amount: 3, Unit: "pieces"},
			{Name: "garlic", Amount: 4, Unit: "cloves"},
		},
		Instructions: []string{"Sear.", "Simmer."},
		Nutrition:    &suggestion.NutritionInfo{Calories: 520, Protein: 34},
		Confidence:   1.0,
	}
}

func TestValidatorAcceptsCleanCandidate(t *testing.T) {
	validator := newTestValidator()
	req := testRequest()

	result := validator.Validate(context.Background(), cleanCandidate(), req)
	assert.True(t, result.Acceptable())
	assert.Empty(t, result.Errors)
}

func TestValidatorAllergenConflict(t *testing.T) {
	validator := newTestValidator()
	req := testRequest()
	req.Family.Allergens = []string{"peanut"}

	cand := cleanCandidate()
	cand.Ingredients = append(cand.Ingredients, suggestion.Ingredient{Name: "peanut butter", Amount: 0.5, Unit: "cup"})

	result := validator.Validate(context.Background(), cand, req)
	require.False(t, result.Acceptable())
	assert.True(t, result.HasSafetyError())
	assert.Equal(t, suggestion.IssueAllergenConflict, result.Errors[0].Code)
}

func TestValidatorRestrictionViolation(t *testing.T) {
	validator := newTestValidator()
	req := testRequest()
	req.Family.Restrictions = []string{"vegetarian"}

	result := validator.Validate(context.Background(), cleanCandidate(), req)
	require.False(t, result.Acceptable())
	assert.True(t, result.HasSafetyError())
}

func TestValidatorBudgetOverrun(t *testing.T) {
	validator := newTestValidator()
	req := testRequest()
	req.Constraints.BudgetCents = 1500

	cand := cleanCandidate()
	cand.CostCents = 2000

	result := validator.Validate(context.Background(), cand, req)
	require.False(t, result.Acceptable())
	assert.Equal(t, suggestion.IssueBudgetOverrun, result.Errors[0].Code)
	assert.False(t, result.HasSafetyError())
}

func TestValidatorBudgetWithinTolerance(t *testing.T) {
	validator := newTestValidator()
	req := testRequest()
	req.Constraints.BudgetCents = 1000

	// 10% over is inside the default tolerance.
	cand := cleanCandidate()
	cand.CostCents = 1100

	result := validator.Validate(context.Background(), cand, req)
	assert.True(t, result.Acceptable())
}

func TestValidatorTimeOverrun(t *testing.T) {
	validator := newTestValidator()
	req := testRequest()
	req.Constraints.MaxPrepMinutes = 10
	req.Constraints.MaxCookMinutes = 20

	cand := cleanCandidate()
	cand.PrepMinutes = 30
	cand.CookMinutes = 30

	result := validator.Validate(context.Background(), cand, req)
	require.False(t, result.Acceptable())
	assert.Equal(t, suggestion.IssueTimeOverrun, result.Errors[0].Code)
}

func TestValidatorServingsMismatchIsImportant(t *testing.T) {
	validator := newTestValidator()
	req := testRequest()
	req.Constraints.Servings = 6

	cand := cleanCandidate()
	cand.Servings = 2

	result := validator.Validate(context.Background(), cand, req)
	assert.True(t, result.Acceptable())
	require.NotEmpty(t, result.Warnings)
	assert.Equal(t, suggestion.IssueServingsMismatch, result.Warnings[0].Code)
}

func TestValidatorLowAvailabilityIsImportant(t *testing.T) {
	validator := newTestValidator()
	req := testRequest()

	cand := cleanCandidate()
	cand.Ingredients = []suggestion.Ingredient{
		{Name: "dragon fruit", Amount: 2, Unit: "pieces"},
		{Name: "yuzu", Amount: 1, Unit: "piece"},
		{Name: "garlic", Amount: 2, Unit: "cloves"},
	}

	result := validator.Validate(context.Background(), cand, req)
	assert.True(t, result.Acceptable())
	found := false
	for _, w := range result.Warnings {
		if w.Code == suggestion.IssueLowAvailability {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidatorSkillMismatchIsAdvisory(t *testing.T) {
	validator := newTestValidator()
	req := testRequest()
	req.Family.CookingSkill = "beginner"

	cand := cleanCandidate()
	cand.Instructions = make([]string, 12)
	for i := range cand.Instructions {
		cand.Instructions[i] = "Step."
	}

	result := validator.Validate(context.Background(), cand, req)
	assert.True(t, result.Acceptable())
	found := false
	for _, s := range result.Suggestions {
		if s.Code == suggestion.IssueSkillMismatch {
			found = true
		}
	}
	assert.True(t, found)
}
