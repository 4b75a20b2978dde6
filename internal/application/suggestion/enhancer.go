package suggestion

import (
	"context"

	"go.uber.org/zap"

	"github.com/kruger4712/mealprep/internal/domain/suggestion"
	"github.com/kruger4712/mealprep/internal/ports/outbound"
)

// Enhancer recomputes derived candidate fields from the ingredient catalog.
// It never fails a candidate: a missing catalog entry leaves the field as
// the provider produced it. Core fields (name, instructions, ingredients
// themselves) are never altered, and Enhance is idempotent.
type Enhancer struct {
	store  outbound.RecipeStore
	logger *zap.Logger
}

// NewEnhancer creates an enhancer over the ingredient catalog.
func NewEnhancer(store outbound.RecipeStore, logger *zap.Logger) *Enhancer {
	return &Enhancer{store: store, logger: logger.Named("enhancer")}
}

// Enhance returns a copy of the candidate with recomputed cost roll-up,
// blended nutrition and cooking tips.
func (e *Enhancer) Enhance(ctx context.Context, cand suggestion.ParsedCandidate) suggestion.ParsedCandidate {
	out := cand
	out.Ingredients = append([]suggestion.Ingredient(nil), cand.Ingredients...)

	e.rollUpCost(ctx, &out)
	e.blendNutrition(ctx, &out)
	e.addTips(&out)
	return out
}

// rollUpCost replaces the candidate's cost with the per-ingredient sum when
// every ingredient is priced in the catalog. A partial catalog keeps the
// provider's estimate but still annotates the priced lines.
func (e *Enhancer) rollUpCost(ctx context.Context, cand *suggestion.ParsedCandidate) {
	total := 0
	allPriced := len(cand.Ingredients) > 0
	for i := range cand.Ingredients {
		cents, ok := e.store.IngredientCostCents(ctx, cand.Ingredients[i].Name)
		if !ok {
			allPriced = false
			continue
		}
		cand.Ingredients[i].CostCents = cents
		total += cents
	}
	if allPriced {
		cand.CostCents = total
	}
}

// blendNutrition fills the nutrition block from catalog data when the
// provider omitted it. Provider-supplied nutrition is left untouched.
func (e *Enhancer) blendNutrition(ctx context.Context, cand *suggestion.ParsedCandidate) {
	if cand.Nutrition != nil {
		return
	}
	var blend suggestion.NutritionInfo
	found := 0
	for _, ing := range cand.Ingredients {
		n, ok := e.store.IngredientNutrition(ctx, ing.Name)
		if !ok {
			continue
		}
		found++
		blend.Calories += n.Calories
		blend.Protein += n.Protein
		blend.Carbs += n.Carbs
		blend.Fat += n.Fat
		blend.Fiber += n.Fiber
	}
	if found == 0 {
		return
	}
	if cand.Servings > 1 {
		s := float64(cand.Servings)
		blend.Calories = int(float64(blend.Calories) / s)
		blend.Protein /= s
		blend.Carbs /= s
		blend.Fat /= s
		blend.Fiber /= s
	}
	cand.Nutrition = &blend
}

// addTips appends deterministic cooking tips keyed on candidate shape. Tips
// already present are not duplicated, which keeps the operation idempotent.
func (e *Enhancer) addTips(cand *suggestion.ParsedCandidate) {
	var tips []string
	if cand.TotalMinutes() > 45 {
		tips = append(tips, "Prep ingredients the night before to cut active time.")
	}
	if cand.Servings >= 6 {
		tips = append(tips, "Leftovers keep 3-4 days refrigerated in a sealed container.")
	}
	if cand.HasIngredient("garlic") {
		tips = append(tips, "Crush garlic 10 minutes before cooking for fuller flavor.")
	}
	for _, tip := range tips {
		if !containsString(cand.Tips, tip) {
			cand.Tips = append(cand.Tips, tip)
		}
	}
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
