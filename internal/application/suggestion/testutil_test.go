package suggestion

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/kruger4712/mealprep/internal/domain/suggestion"
	"github.com/kruger4712/mealprep/internal/infrastructure/cache"
	"github.com/kruger4712/mealprep/internal/infrastructure/config"
	"github.com/kruger4712/mealprep/internal/infrastructure/monitoring"
	"github.com/kruger4712/mealprep/internal/infrastructure/recipestore"
	"github.com/kruger4712/mealprep/internal/ports/outbound"
)

// mockProvider is a testify mock of the provider client.
type mockProvider struct {
	mock.Mock
	name string
}

func newMockProvider(name string) *mockProvider {
	return &mockProvider{name: name}
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) Generate(ctx context.Context, prompt string, cfg outbound.GenerationConfig) (*suggestion.RawProviderOutput, error) {
	args := m.Called(ctx, prompt, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*suggestion.RawProviderOutput), args.Error(1)
}

// output wraps text as a provider result with token accounting.
func output(provider, text string) *suggestion.RawProviderOutput {
	return &suggestion.RawProviderOutput{
		Text:       text,
		Provider:   provider,
		Latency:    50 * time.Millisecond,
		TokensUsed: 400,
		CostCents:  2,
	}
}

// catalogJSON is provider output whose ingredients are all in the catalog,
// so it enhances and validates cleanly under generous constraints.
func catalogJSON() string {
	return `{
		"name": "Garlic Chicken Skillet",
		"description": "One-pan chicken with vegetables.",
		"prep_minutes": 15,
		"cook_minutes": 25,
		"cost_cents": 900,
		"servings": 4,
		"ingredients": [
			{"name": "chicken thighs", "amount": 1.5, "unit": "lb"},
			{"name": "carrots", "amount": 3, "unit": "pieces"},
			{"name": "garlic", "amount": 4, "unit": "cloves"},
			{"name": "olive oil", "amount": 2, "unit": "tbsp"},
			{"name": "rice", "amount": 1.5, "unit": "cups"}
		],
		"instructions": ["Sear the chicken.", "Add vegetables and rice.", "Simmer until done."],
		"nutrition": {"calories": 520, "protein_g": 34, "carbs_g": 48, "fat_g": 18, "fiber_g": 4},
		"tags": ["family"]
	}`
}

// expensiveJSON keeps an off-catalog ingredient so the provider's cost
// estimate survives enhancement.
func expensiveJSON(costCents int) string {
	return fmt.Sprintf(`{
		"name": "Saffron Seafood Paella",
		"prep_minutes": 25,
		"cook_minutes": 40,
		"cost_cents": %d,
		"servings": 4,
		"ingredients": [
			{"name": "saffron threads", "amount": 1, "unit": "g"},
			{"name": "rice", "amount": 2, "unit": "cups"},
			{"name": "garlic", "amount": 3, "unit": "cloves"}
		],
		"instructions": ["Toast the saffron.", "Cook the rice.", "Combine."]
	}`, costCents)
}

// testEnv bundles the wired subsystem over in-memory collaborators.
type testEnv struct {
	cfg         *config.Config
	repo        *cache.MemoryRepository
	responses   *cache.ResponseCache
	store       outbound.RecipeStore
	health      *HealthTracker
	cost        *CostController
	coordinator *Coordinator
	primary     *mockProvider
	secondary   *mockProvider
}

func newTestEnv() *testEnv {
	log := zap.NewNop()
	cfg := config.Default()
	cfg.Providers.Primary.Timeout = time.Second
	cfg.Providers.Secondary.Timeout = time.Second

	repo := cache.NewMemoryRepository()
	responses := cache.NewResponseCache(repo, cfg.Cache, cfg.Orchestrator, nil, log)
	store := recipestore.NewMemoryStore()

	parser := NewParser(log)
	validator := NewValidator(store, cfg.Orchestrator, log)
	enhancer := NewEnhancer(store, log)
	scorer := NewScorer(cfg.Orchestrator.QualityWeights, log)
	pipeline := NewPipeline(parser, validator, enhancer, scorer)

	primary := newMockProvider("primary")
	secondary := newMockProvider("secondary")

	health := NewHealthTracker(cfg.Orchestrator.HealthWindow, log)
	cost := NewCostController(repo, cfg.Budget, log)
	metrics := monitoring.NewNop()

	strategies := []Strategy{
		NewProviderStrategy(suggestion.LevelPrimary, primary, cfg.Providers.Primary, pipeline, log),
		NewProviderStrategy(suggestion.LevelSecondary, secondary, cfg.Providers.Secondary, pipeline, log),
		NewRuleBasedStrategy(store, validator, enhancer, scorer, cfg.Orchestrator, log),
		NewCachedStrategy(responses, validator, scorer, log),
		NewDefaultStrategy(store, validator, scorer, log),
	}

	return &testEnv{
		cfg:         cfg,
		repo:        repo,
		responses:   responses,
		store:       store,
		health:      health,
		cost:        cost,
		coordinator: NewCoordinator(strategies, health, cost, responses, cfg.Orchestrator, metrics, log),
		primary:     primary,
		secondary:   secondary,
	}
}

func testRequest() suggestion.SuggestionRequest {
	return suggestion.NewRequest(uuid.New(), suggestion.TypeMealSuggestion, gofakeit.Sentence(6), suggestion.Constraints{
		BudgetCents:    1500,
		MaxPrepMinutes: 30,
		MaxCookMinutes: 45,
		Servings:       4,
	}, suggestion.FamilyProfile{
		Liked:          []string{"chicken", "garlic"},
		SpiceTolerance: 3,
		CookingSkill:   "intermediate",
	})
}
