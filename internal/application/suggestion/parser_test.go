package suggestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParserStrict(t *testing.T) {
	parser := NewParser(zap.NewNop())

	result := parser.Parse(catalogJSON())
	require.Equal(t, StrictOk, result.Outcome)
	require.NotNil(t, result.Candidate)
	assert.Equal(t, "Garlic Chicken Skillet", result.Candidate.Name)
	assert.Len(t, result.Candidate.Ingredients, 5)
	assert.Len(t, result.Candidate.Instructions, 3)
	assert.Empty(t, result.Warnings)
	assert.InDelta(t, 1.0, result.Candidate.Confidence, 0.001)
	assert.NoError(t, result.Err())
}

func TestParserRepairsFencedOutput(t *testing.T) {
	parser := NewParser(zap.NewNop())

	raw := "Here is your meal suggestion:\n```json\n" + catalogJSON() + "\n```\nEnjoy!"
	result := parser.Parse(raw)
	require.Equal(t, RepairedOk, result.Outcome)
	require.NotNil(t, result.Candidate)
	assert.Equal(t, "Garlic Chicken Skillet", result.Candidate.Name)
	assert.Len(t, result.Warnings, 1)
	assert.Less(t, result.Candidate.Confidence, 1.0)
}

func TestParserRepairsTrailingCommas(t *testing.T) {
	parser := NewParser(zap.NewNop())

	raw := `{
		"name": "Lentil Soup",
		"prep_minutes": 10,
		"cook_minutes": 30,
		"cost_cents": 500,
		"servings": 4,
		"ingredients": [{"name": "lentils", "amount": 2, "unit": "cups"},],
		"instructions": ["Simmer everything.",],
	}`
	result := parser.Parse(raw)
	require.Equal(t, RepairedOk, result.Outcome)
	assert.Equal(t, "Lentil Soup", result.Candidate.Name)
}

func TestParserRepairsUnquotedKeys(t *testing.T) {
	parser := NewParser(zap.NewNop())

	raw := `{name: "Bean Chili", prep_minutes: 10, cook_minutes: 35, cost_cents: 600, servings: 4, ingredients: [{name: "black beans", amount: 2, unit: "cans"}], instructions: ["Simmer."]}`
	result := parser.Parse(raw)
	require.Equal(t, RepairedOk, result.Outcome)
	assert.Equal(t, "Bean Chili", result.Candidate.Name)
}

func TestParserPartialExtraction(t *testing.T) {
	parser := NewParser(zap.NewNop())

	// Unbalanced braces defeat structural repair, name and numerics are
	// still pullable.
	raw := `The model said {"name": "Tomato Pasta", "prep_minutes": 10, "cook_minutes": 20, "cost_cents": 800, "servings": 4, "ingredients": [{"name": "pasta"}, {"name": "diced tomatoes"}], "instructions": ["Boil pasta." broken`
	result := parser.Parse(raw)
	require.Equal(t, PartialOk, result.Outcome)
	require.NotNil(t, result.Candidate)
	assert.Equal(t, "Tomato Pasta", result.Candidate.Name)
	assert.Equal(t, 10, result.Candidate.PrepMinutes)
	assert.Equal(t, 800, result.Candidate.CostCents)
	assert.NotEmpty(t, result.Warnings)
}

func TestParserFailure(t *testing.T) {
	parser := NewParser(zap.NewNop())

	result := parser.Parse("I'm sorry, I can't help with that.")
	require.Equal(t, Failed, result.Outcome)
	assert.Nil(t, result.Candidate)
	assert.NotEmpty(t, result.Errors)
	assert.Error(t, result.Err())
}
