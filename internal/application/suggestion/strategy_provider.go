package suggestion

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kruger4712/mealprep/internal/domain/suggestion"
	"github.com/kruger4712/mealprep/internal/infrastructure/config"
	"github.com/kruger4712/mealprep/internal/ports/outbound"
)

// ProviderStrategy generates a candidate through one external provider and
// funnels the output through the full pipeline. It never retries: retries
// happen through level advancement to a different strategy.
type ProviderStrategy struct {
	level    suggestion.FallbackLevel
	client   outbound.ProviderClient
	genCfg   outbound.GenerationConfig
	pipeline *Pipeline
	logger   *zap.Logger
}

// NewProviderStrategy wraps a provider client as a fallback level. level
// must be LevelPrimary or LevelSecondary.
func NewProviderStrategy(level suggestion.FallbackLevel, client outbound.ProviderClient, cfg config.ProviderConfig, pipeline *Pipeline, logger *zap.Logger) *ProviderStrategy {
	return &ProviderStrategy{
		level:  level,
		client: client,
		genCfg: outbound.GenerationConfig{
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		},
		pipeline: pipeline,
		logger:   logger.Named("strategy." + level.String()),
	}
}

// Level returns the fallback level this strategy serves.
func (s *ProviderStrategy) Level() suggestion.FallbackLevel {
	return s.level
}

// Execute calls the provider under its own deadline and runs the pipeline.
// A provider error or timeout becomes a failed result with a diagnostic;
// the raw error text stays inside the log and the diagnostic, never in
// user-facing output.
func (s *ProviderStrategy) Execute(ctx context.Context, req suggestion.SuggestionRequest) suggestion.StrategyResult {
	callCtx, cancel := context.WithTimeout(ctx, s.genCfg.Timeout)
	defer cancel()

	output, err := s.client.Generate(callCtx, req.Prompt, s.genCfg)
	if err != nil {
		s.logger.Warn("provider call failed",
			zap.String("provider", s.client.Name()),
			zap.Error(err))
		return suggestion.Failed(fmt.Sprintf("provider %s: %v", s.client.Name(), err))
	}

	result := s.pipeline.Run(ctx, output.Text, req)
	result.CostCents = output.CostCents
	return result
}

var _ Strategy = (*ProviderStrategy)(nil)
