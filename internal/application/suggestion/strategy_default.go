package suggestion

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kruger4712/mealprep/internal/domain/suggestion"
	"github.com/kruger4712/mealprep/internal/ports/outbound"
)

// DefaultStrategy is the terminal safety net: a small curated set of
// generically safe, popular options filtered only by the requester's
// allergen list. It applies no personalization beyond that filter.
type DefaultStrategy struct {
	store     outbound.RecipeStore
	validator *Validator
	scorer    *Scorer
	logger    *zap.Logger
}

// NewDefaultStrategy creates the strategy over the curated catalog.
func NewDefaultStrategy(store outbound.RecipeStore, validator *Validator, scorer *Scorer, logger *zap.Logger) *DefaultStrategy {
	return &DefaultStrategy{
		store:     store,
		validator: validator,
		scorer:    scorer,
		logger:    logger.Named("strategy.default"),
	}
}

// Level returns LevelDefault.
func (s *DefaultStrategy) Level() suggestion.FallbackLevel {
	return suggestion.LevelDefault
}

// Execute returns the curated defaults minus allergen conflicts. It fails
// only when the allergen filter empties the curated set entirely.
func (s *DefaultStrategy) Execute(ctx context.Context, req suggestion.SuggestionRequest) suggestion.StrategyResult {
	candidates, err := s.store.CuratedDefaults(ctx, req.Family.Allergens)
	if err != nil {
		s.logger.Warn("curated defaults unavailable", zap.Error(err))
		return suggestion.Failed(fmt.Sprintf("recipe store: %v", err))
	}
	if len(candidates) == 0 {
		return suggestion.Failed("allergen filter removed every curated default")
	}

	validation := s.validator.Validate(ctx, candidates[0], req)
	quality := s.scorer.Score(candidates[0], validation, req)

	return suggestion.StrategyResult{
		Candidates: candidates,
		Succeeded:  true,
		Validation: &validation,
		Quality:    &quality,
	}
}

var _ Strategy = (*DefaultStrategy)(nil)
