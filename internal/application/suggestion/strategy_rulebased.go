package suggestion

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kruger4712/mealprep/internal/domain/suggestion"
	"github.com/kruger4712/mealprep/internal/infrastructure/config"
	"github.com/kruger4712/mealprep/internal/ports/outbound"
)

// RuleBasedStrategy searches the recipe store with a deterministic filter
// built from the family profile, scores each hit with a transparent additive
// rule, and returns the top results above a score floor. No provider call,
// no money spent.
type RuleBasedStrategy struct {
	store     outbound.RecipeStore
	validator *Validator
	enhancer  *Enhancer
	scorer    *Scorer
	cfg       config.OrchestratorConfig
	logger    *zap.Logger
}

// NewRuleBasedStrategy creates the strategy over the recipe store.
func NewRuleBasedStrategy(store outbound.RecipeStore, validator *Validator, enhancer *Enhancer, scorer *Scorer, cfg config.OrchestratorConfig, logger *zap.Logger) *RuleBasedStrategy {
	return &RuleBasedStrategy{
		store:     store,
		validator: validator,
		enhancer:  enhancer,
		scorer:    scorer,
		cfg:       cfg,
		logger:    logger.Named("strategy.rule_based"),
	}
}

// Level returns LevelRuleBased.
func (s *RuleBasedStrategy) Level() suggestion.FallbackLevel {
	return suggestion.LevelRuleBased
}

type scoredRecipe struct {
	candidate suggestion.ParsedCandidate
	score     float64
}

// Execute searches and ranks. Scoring starts at a 5.0 baseline, adds 1.0 per
// satisfied preference and subtracts 3.0 per allergen conflict, so a single
// conflict drops a recipe below the acceptance floor regardless of how well
// it matches otherwise.
func (s *RuleBasedStrategy) Execute(ctx context.Context, req suggestion.SuggestionRequest) suggestion.StrategyResult {
	query := outbound.RecipeQuery{
		ExcludeIngredients: req.Family.Allergens,
		Restrictions:       req.Family.Restrictions,
		MaxTotalMinutes:    req.Constraints.MaxPrepMinutes + req.Constraints.MaxCookMinutes,
		MaxCostCents:       req.Constraints.BudgetCents,
		Limit:              s.cfg.RuleTopN * 3,
	}

	recipes, err := s.store.Search(ctx, query)
	if err != nil {
		s.logger.Warn("recipe search failed", zap.Error(err))
		return suggestion.Failed(fmt.Sprintf("recipe store: %v", err))
	}
	if len(recipes) == 0 {
		return suggestion.Failed("no recipes match the family filter")
	}

	var ranked []scoredRecipe
	for _, recipe := range recipes {
		score := s.scoreRecipe(recipe, req.Family)
		if score < s.cfg.RuleScoreFloor {
			continue
		}
		ranked = append(ranked, scoredRecipe{candidate: recipe, score: score})
	}
	if len(ranked) == 0 {
		return suggestion.Failed("no recipes scored above the acceptance floor")
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > s.cfg.RuleTopN {
		ranked = ranked[:s.cfg.RuleTopN]
	}

	candidates := make([]suggestion.ParsedCandidate, 0, len(ranked))
	for _, r := range ranked {
		candidates = append(candidates, s.enhancer.Enhance(ctx, r.candidate))
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

// scoreRecipe is the transparent additive rule.
func (s *RuleBasedStrategy) scoreRecipe(recipe suggestion.ParsedCandidate, family suggestion.FamilyProfile) float64 {
	score := 5.0
	for _, liked := range family.Liked {
		if recipe.HasIngredient(liked) {
			score += 1.0
		}
	}
	for _, allergen := range family.Allergens {
		if recipe.HasIngredient(allergen) {
			score -= 3.0
		}
	}
	for _, disliked := range family.Disliked {
		if recipe.HasIngredient(disliked) {
			score -= 1.0
		}
	}
	return score
}

var _ Strategy = (*RuleBasedStrategy)(nil)
