// Package outbound defines the interfaces through which the orchestrator
// talks to external systems: generative providers, the recipe store and the
// cache/counter store. Implementations live under internal/infrastructure.
package outbound

import (
	"context"
	"time"

	"github.com/kruger4712/mealprep/internal/domain/suggestion"
)

// GenerationConfig carries the provider knobs the orchestrator treats as
// opaque. Timeout is enforced by the caller via context deadline as well.
type GenerationConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// ProviderClient is a generative provider. Generate blocks on external I/O
// and must honor ctx cancellation; the returned output carries latency and
// cost accounting.
type ProviderClient interface {
	Name() string
	Generate(ctx context.Context, prompt string, cfg GenerationConfig) (*suggestion.RawProviderOutput, error)
}

// RecipeQuery is the deterministic search filter the rule-based strategy
// builds from the family profile.
type RecipeQuery struct {
	ExcludeIngredients []string
	Restrictions       []string
	MaxTotalMinutes    int
	MaxCostCents       int
	Limit              int
}

// RecipeStore is the read-only recipe/ingredient master-data collaborator.
// Queried by the rule-based strategy for candidate search and by the
// enhancer for price and nutrition lookups.
type RecipeStore interface {
	Search(ctx context.Context, query RecipeQuery) ([]suggestion.ParsedCandidate, error)
	CuratedDefaults(ctx context.Context, excludeIngredients []string) ([]suggestion.ParsedCandidate, error)
	IngredientCostCents(ctx context.Context, name string) (int, bool)
	IngredientNutrition(ctx context.Context, name string) (*suggestion.NutritionInfo, bool)
	IngredientAvailable(ctx context.Context, name string) bool
}

// CacheRepository is the generic key-value and counter store behind the
// response cache and the cost controller. In-memory for tests, Redis in
// production; no specific technology is mandated by the interface.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	// Counter operations used by the cost controller.
	IncrementBy(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
	GetCounter(ctx context.Context, key string) (int64, error)

	// Keys returns keys matching a prefix pattern ("prefix*"). Used by the
	// pattern and semantic cache tiers.
	Keys(ctx context.Context, pattern string) ([]string, error)
}
