package suggestion

import "time"

// RawProviderOutput is the untouched text a provider returned, together with
// its accounting. Produced once per provider call, never mutated.
type RawProviderOutput struct {
	Text       string        `json:"text"`
	Provider   string        `json:"provider"`
	Latency    time.Duration `json:"latency"`
	TokensUsed int           `json:"tokens_used"`
	CostCents  int           `json:"cost_cents"`
}

// Ingredient is one ingredient line of a candidate.
type Ingredient struct {
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	Unit      string  `json:"unit"`
	CostCents int     `json:"cost_cents,omitempty"`
}

// NutritionInfo is the per-serving nutrition block of a candidate.
type NutritionInfo struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein_g"`
	Carbs    float64 `json:"carbs_g"`
	Fat      float64 `json:"fat_g"`
	Fiber    float64 `json:"fiber_g"`
}

// ParsedCandidate is one structured meal suggestion, produced by the parser
// (or the rule-based / default generators) and passed by value downstream.
type ParsedCandidate struct {
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	PrepMinutes  int            `json:"prep_minutes"`
	CookMinutes  int            `json:"cook_minutes"`
	CostCents    int            `json:"cost_cents"`
	Servings     int            `json:"servings"`
	Ingredients  []Ingredient   `json:"ingredients"`
	Instructions []string       `json:"instructions"`
	Nutrition    *NutritionInfo `json:"nutrition,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	Tips         []string       `json:"tips,omitempty"`

	// Confidence is initialized by the parser from field completeness and
	// discounted by cache adaptation. Range [0,1].
	Confidence float64 `json:"confidence"`
}

// TotalMinutes returns combined prep and cook time.
func (c ParsedCandidate) TotalMinutes() int {
	return c.PrepMinutes + c.CookMinutes
}

// HasIngredient reports whether any ingredient name contains the given term,
// case-insensitively. Used for allergen screening.
func (c ParsedCandidate) HasIngredient(term string) bool {
	for _, ing := range c.Ingredients {
		if containsFold(ing.Name, term) {
			return true
		}
	}
	return false
}
