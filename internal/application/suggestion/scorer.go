package suggestion

import (
	"math"

	"go.uber.org/zap"

	"github.com/kruger4712/mealprep/internal/domain/suggestion"
)

// Scorer computes the weighted composite quality score for a candidate. The
// component weights are fixed at construction and verified to sum to 1.0 by
// config validation before the scorer exists.
type Scorer struct {
	weights map[string]float64
	logger  *zap.Logger
}

// NewScorer creates a scorer with the given component weights.
func NewScorer(weights map[string]float64, logger *zap.Logger) *Scorer {
	if len(weights) == 0 {
		weights = suggestion.DefaultQualityWeights()
	}
	return &Scorer{weights: weights, logger: logger.Named("scorer")}
}

// Score computes all six components and the weighted overall. A critical
// safety error (allergen or hard restriction) forces the safety component to
// zero so high scores elsewhere cannot mask it.
func (s *Scorer) Score(cand suggestion.ParsedCandidate, validation suggestion.ValidationResult, req suggestion.SuggestionRequest) suggestion.QualityScore {
	components := map[string]float64{
		suggestion.ComponentCompleteness: completeness(cand),
		suggestion.ComponentAccuracy:     s.accuracy(cand, validation),
		suggestion.ComponentRelevance:    s.relevance(cand, req),
		suggestion.ComponentSafety:       s.safety(validation),
		suggestion.ComponentDiversity:    s.diversity(cand),
		suggestion.ComponentFeasibility:  s.feasibility(cand, req),
	}

	var overall float64
	for name, weight := range s.weights {
		overall += weight * clamp01(components[name])
	}

	return suggestion.QualityScore{
		Overall:    clamp01(overall),
		Components: components,
		Weights:    s.weights,
	}
}

// accuracy starts from parser confidence and pays for every non-critical
// finding.
func (s *Scorer) accuracy(cand suggestion.ParsedCandidate, validation suggestion.ValidationResult) float64 {
	score := cand.Confidence
	score -= 0.1 * float64(len(validation.Warnings))
	score -= 0.05 * float64(len(validation.Suggestions))
	return clamp01(score)
}

// relevance measures fit against the family's stated preferences.
func (s *Scorer) relevance(cand suggestion.ParsedCandidate, req suggestion.SuggestionRequest) float64 {
	if len(req.Family.Liked) == 0 && len(req.Family.Disliked) == 0 {
		return 0.7
	}
	score := 0.7
	for _, liked := range req.Family.Liked {
		if cand.HasIngredient(liked) {
			score += 0.1
		}
	}
	for _, disliked := range req.Family.Disliked {
		if cand.HasIngredient(disliked) {
			score -= 0.2
		}
	}
	return clamp01(score)
}

// safety is binary: any critical safety finding zeroes it.
func (s *Scorer) safety(validation suggestion.ValidationResult) float64 {
	if validation.HasSafetyError() {
		return 0
	}
	if len(validation.Errors) > 0 {
		return 0.5
	}
	return 1.0
}

// diversity rewards ingredient variety.
func (s *Scorer) diversity(cand suggestion.ParsedCandidate) float64 {
	n := len(cand.Ingredients)
	switch {
	case n >= 8:
		return 1.0
	case n >= 5:
		return 0.8
	case n >= 3:
		return 0.6
	case n >= 1:
		return 0.4
	}
	return 0
}

// feasibility penalizes time and budget pressure short of a hard overrun.
func (s *Scorer) feasibility(cand suggestion.ParsedCandidate, req suggestion.SuggestionRequest) float64 {
	score := 1.0
	maxMinutes := req.Constraints.MaxPrepMinutes + req.Constraints.MaxCookMinutes
	if maxMinutes > 0 && cand.TotalMinutes() > 0 {
		ratio := float64(cand.TotalMinutes()) / float64(maxMinutes)
		if ratio > 1 {
			score -= math.Min(0.5, (ratio-1)*2)
		}
	}
	if req.Constraints.BudgetCents > 0 && cand.CostCents > 0 {
		ratio := float64(cand.CostCents) / float64(req.Constraints.BudgetCents)
		if ratio > 1 {
			score -= math.Min(0.5, (ratio-1)*2)
		}
	}
	if len(cand.Instructions) == 0 {
		score -= 0.3
	}
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
