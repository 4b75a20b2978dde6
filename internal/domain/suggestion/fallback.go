package suggestion

import (
	"time"

	"github.com/google/uuid"
)

// FallbackLevel is one of the ordered strategies the coordinator may use.
// Within a single orchestration run the level only ever increases.
type FallbackLevel int

const (
	LevelPrimary FallbackLevel = iota
	LevelSecondary
	LevelRuleBased
	LevelCached
	LevelDefault
	LevelExhausted
)

// String returns the level name.
func (l FallbackLevel) String() string {
	switch l {
	case LevelPrimary:
		return "primary"
	case LevelSecondary:
		return "secondary"
	case LevelRuleBased:
		return "rule_based"
	case LevelCached:
		return "cached"
	case LevelDefault:
		return "default"
	case LevelExhausted:
		return "exhausted"
	}
	return "unknown"
}

// Next returns the level one step down the quality ladder.
func (l FallbackLevel) Next() FallbackLevel {
	if l >= LevelExhausted {
		return LevelExhausted
	}
	return l + 1
}

// FallbackDecision records one orchestration attempt: which level ran and
// why. Appended to the run's trail, never mutated after creation.
type FallbackDecision struct {
	RequestID uuid.UUID     `json:"request_id"`
	Level     FallbackLevel `json:"level"`
	Reason    string        `json:"reason"`
	Succeeded bool          `json:"succeeded"`
	Timestamp time.Time     `json:"timestamp"`
}

// StrategyResult is the common outcome shape every fallback strategy returns.
type StrategyResult struct {
	Candidates []ParsedCandidate `json:"candidates"`
	Succeeded  bool              `json:"succeeded"`
	Diagnostic string            `json:"diagnostic,omitempty"`

	// The best validation outcome and score among the candidates, when the
	// strategy ran the full parse/validate/enhance/score pipeline.
	Validation *ValidationResult `json:"validation,omitempty"`
	Quality    *QualityScore     `json:"quality,omitempty"`

	// CostCents is what the attempt actually cost (provider strategies only).
	CostCents int `json:"cost_cents,omitempty"`
}

// Failed builds a failed result with a diagnostic.
func Failed(diagnostic string) StrategyResult {
	return StrategyResult{Succeeded: false, Diagnostic: diagnostic}
}
