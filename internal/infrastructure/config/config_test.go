package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kruger4712/mealprep/internal/domain/suggestion"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "mealprep-suggestions", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "ollama", cfg.Providers.Primary.Name)
	assert.Equal(t, "openai", cfg.Providers.Secondary.Name)
	assert.Equal(t, 30*time.Second, cfg.Providers.Primary.Timeout)

	assert.InDelta(t, 0.10, cfg.Orchestrator.BudgetTolerance, 0.001)
	assert.InDelta(t, 0.20, cfg.Orchestrator.TimeTolerance, 0.001)
	assert.Equal(t, 5, cfg.Orchestrator.RuleTopN)
	assert.Equal(t, 2, cfg.Orchestrator.HealthMinSamples)

	assert.Equal(t, 6*time.Hour, cfg.Cache.MealSuggestionTTL)
	assert.Equal(t, 24*time.Hour, cfg.Cache.WeeklyMenuTTL)
	assert.Equal(t, 168*time.Hour, cfg.Cache.PersonalizationTTL)
	assert.InDelta(t, 0.85, cfg.Cache.SimilarityThreshold, 0.001)
}

func TestLoadDefaultTiers(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	standard, ok := cfg.Budget.Tiers["standard"]
	require.True(t, ok)
	assert.Equal(t, 1000, standard.HardLimitCents)
	assert.Equal(t, 700, standard.SoftLimitCents)
	assert.Equal(t, 60, standard.HourlyRequests)

	premium, ok := cfg.Budget.Tiers["premium"]
	require.True(t, ok)
	assert.Equal(t, 10000, premium.HardLimitCents)
	assert.Equal(t, "standard", cfg.Budget.DefaultTier)
}

func TestValidateRejectsBadWeights(t *testing.T) {
	cfg := Default()
	cfg.Orchestrator.QualityWeights = map[string]float64{
		"completeness": 0.5,
		"accuracy":     0.2,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights")
}

func TestValidateRejectsInvertedTierLimits(t *testing.T) {
	cfg := Default()
	cfg.Budget.Tiers["standard"] = TierBudget{
		HardLimitCents: 500,
		SoftLimitCents: 900,
		HourlyRequests: 60,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "soft limit")
}

func TestValidateRejectsUnknownDefaultTier(t *testing.T) {
	cfg := Default()
	cfg.Budget.DefaultTier = "enterprise"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_tier")
}

func TestValidateRejectsMissingPort(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0

	assert.Error(t, cfg.Validate())
}

func TestTTLForRequestTypes(t *testing.T) {
	cfg := Default()

	assert.Equal(t, cfg.Cache.MealSuggestionTTL, cfg.Cache.TTLFor(suggestion.TypeMealSuggestion))
	assert.Equal(t, cfg.Cache.WeeklyMenuTTL, cfg.Cache.TTLFor(suggestion.TypeWeeklyMenu))
	assert.Equal(t, cfg.Cache.PersonalizationTTL, cfg.Cache.TTLFor(suggestion.TypePersonalization))
}
