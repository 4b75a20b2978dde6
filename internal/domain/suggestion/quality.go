package suggestion

import "math"

// Quality component names. Each has a fixed weight; the weights must sum to
// 1.0 and are verified at startup by config validation.
const (
	ComponentCompleteness = "completeness"
	ComponentAccuracy     = "accuracy"
	ComponentRelevance    = "relevance"
	ComponentSafety       = "safety"
	ComponentDiversity    = "diversity"
	ComponentFeasibility  = "feasibility"
)

// DefaultQualityWeights are the fixed component weights.
func DefaultQualityWeights() map[string]float64 {
	return map[string]float64{
		ComponentCompleteness: 0.15,
		ComponentAccuracy:     0.20,
		ComponentRelevance:    0.25,
		ComponentSafety:       0.20,
		ComponentDiversity:    0.10,
		ComponentFeasibility:  0.10,
	}
}

// WeightsSumToOne reports whether the weights sum to 1.0 within tolerance.
func WeightsSumToOne(weights map[string]float64) bool {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	return math.Abs(sum-1.0) <= 1e-6
}

// QualityLevel buckets an overall score into named levels.
type QualityLevel string

const (
	LevelExcellent  QualityLevel = "excellent"
	LevelGood       QualityLevel = "good"
	LevelAcceptable QualityLevel = "acceptable"
	LevelFair       QualityLevel = "fair"
	LevelPoor       QualityLevel = "poor"
)

// QualityScore is the weighted composite score for one candidate set.
// Recomputed whenever a candidate changes.
type QualityScore struct {
	Overall    float64            `json:"overall"`
	Components map[string]float64 `json:"components"`
	Weights    map[string]float64 `json:"weights"`
}

// Level maps the overall score to a named quality level.
func (q QualityScore) Level() QualityLevel {
	switch {
	case q.Overall >= 0.9:
		return LevelExcellent
	case q.Overall >= 0.8:
		return LevelGood
	case q.Overall >= 0.7:
		return LevelAcceptable
	case q.Overall >= 0.6:
		return LevelFair
	default:
		return LevelPoor
	}
}
