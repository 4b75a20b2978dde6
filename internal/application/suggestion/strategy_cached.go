package suggestion

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kruger4712/mealprep/internal/domain/suggestion"
	"github.com/kruger4712/mealprep/internal/infrastructure/cache"
)

// CachedStrategy serves a previously generated response. Pattern and
// semantic hits come back already adapted to the current constraints with
// discounted confidence; an entry that no longer satisfies them is a miss,
// not a stale serve.
type CachedStrategy struct {
	responses *cache.ResponseCache
	validator *Validator
	scorer    *Scorer
	logger    *zap.Logger
}

// NewCachedStrategy creates the strategy over the response cache.
func NewCachedStrategy(responses *cache.ResponseCache, validator *Validator, scorer *Scorer, logger *zap.Logger) *CachedStrategy {
	return &CachedStrategy{
		responses: responses,
		validator: validator,
		scorer:    scorer,
		logger:    logger.Named("strategy.cached"),
	}
}

// Level returns LevelCached.
func (s *CachedStrategy) Level() suggestion.FallbackLevel {
	return suggestion.LevelCached
}

// Execute looks up the three cache tiers and re-validates the hit against
// the current request before returning it.
func (s *CachedStrategy) Execute(ctx context.Context, req suggestion.SuggestionRequest) suggestion.StrategyResult {
	entry, tier, err := s.responses.Lookup(ctx, req)
	if err != nil {
		if err == cache.ErrNotFound {
			return suggestion.Failed("no cache entry for request")
		}
		s.logger.Warn("cache lookup failed", zap.Error(err))
		return suggestion.Failed(fmt.Sprintf("cache: %v", err))
	}
	if len(entry.Candidates) == 0 {
		return suggestion.Failed("cache entry empty after constraint adaptation")
	}

	validation := s.validator.Validate(ctx, entry.Candidates[0], req)
	quality := s.scorer.Score(entry.Candidates[0], validation, req)

	s.logger.Debug("cache hit served",
		zap.String("tier", string(tier)),
		zap.String("request_id", req.ID.String()))

	return suggestion.StrategyResult{
		Candidates: entry.Candidates,
		Succeeded:  true,
		Validation: &validation,
		Quality:    &quality,
	}
}

var _ Strategy = (*CachedStrategy)(nil)
