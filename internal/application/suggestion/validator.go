package suggestion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kruger4712/mealprep/internal/domain/suggestion"
	"github.com/kruger4712/mealprep/internal/infrastructure/config"
	"github.com/kruger4712/mealprep/internal/ports/outbound"
)

// Validator applies the tiered business rules to a parsed candidate. The
// three tiers are evaluated independently, never short-circuited, so a
// single pass yields the complete picture.
type Validator struct {
	store  outbound.RecipeStore
	cfg    config.OrchestratorConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewValidator creates a validator backed by the recipe store for
// availability checks.
func NewValidator(store outbound.RecipeStore, cfg config.OrchestratorConfig, logger *zap.Logger) *Validator {
	return &Validator{
		store:  store,
		cfg:    cfg,
		logger: logger.Named("validator"),
		now:    time.Now,
	}
}

// Validate runs all three tiers against one candidate.
func (v *Validator) Validate(ctx context.Context, cand suggestion.ParsedCandidate, req suggestion.SuggestionRequest) suggestion.ValidationResult {
	var result suggestion.ValidationResult

	v.checkCritical(&result, cand, req)
	v.checkImportant(ctx, &result, cand, req)
	v.checkAdvisory(&result, cand, req)

	if !result.Acceptable() {
		v.logger.Debug("candidate rejected",
			zap.String("candidate", cand.Name),
			zap.Int("critical_issues", len(result.Errors)))
	}
	return result
}

func (v *Validator) checkCritical(result *suggestion.ValidationResult, cand suggestion.ParsedCandidate, req suggestion.SuggestionRequest) {
	for _, allergen := range req.Family.Allergens {
		if cand.HasIngredient(allergen) {
			result.Add(suggestion.ValidationIssue{
				Code:     suggestion.IssueAllergenConflict,
				Severity: suggestion.SeverityCritical,
				Message:  fmt.Sprintf("contains declared allergen %q", allergen),
				Field:    "ingredients",
			})
		}
	}

	for _, restriction := range req.Family.Restrictions {
		if violates(cand, restriction) {
			result.Add(suggestion.ValidationIssue{
				Code:     suggestion.IssueRestrictionViolated,
				Severity: suggestion.SeverityCritical,
				Message:  fmt.Sprintf("violates dietary restriction %q", restriction),
				Field:    "ingredients",
			})
		}
	}

	if req.Constraints.BudgetCents > 0 {
		ceiling := float64(req.Constraints.BudgetCents) * (1 + v.cfg.BudgetTolerance)
		if float64(cand.CostCents) > ceiling {
			result.Add(suggestion.ValidationIssue{
				Code:     suggestion.IssueBudgetOverrun,
				Severity: suggestion.SeverityCritical,
				Message:  fmt.Sprintf("estimated cost %d cents exceeds budget %d cents beyond tolerance", cand.CostCents, req.Constraints.BudgetCents),
				Field:    "cost_cents",
			})
		}
	}

	maxMinutes := req.Constraints.MaxPrepMinutes + req.Constraints.MaxCookMinutes
	if maxMinutes > 0 {
		ceiling := float64(maxMinutes) * (1 + v.cfg.TimeTolerance)
		if float64(cand.TotalMinutes()) > ceiling {
			result.Add(suggestion.ValidationIssue{
				Code:     suggestion.IssueTimeOverrun,
				Severity: suggestion.SeverityCritical,
				Message:  fmt.Sprintf("total time %d min exceeds limit %d min beyond tolerance", cand.TotalMinutes(), maxMinutes),
				Field:    "prep_minutes",
			})
		}
	}
}

func (v *Validator) checkImportant(ctx context.Context, result *suggestion.ValidationResult, cand suggestion.ParsedCandidate, req suggestion.SuggestionRequest) {
	if req.Constraints.Servings > 0 && cand.Servings > 0 && cand.Servings < req.Constraints.Servings {
		result.Add(suggestion.ValidationIssue{
			Code:     suggestion.IssueServingsMismatch,
			Severity: suggestion.SeverityImportant,
			Message:  fmt.Sprintf("serves %d, family needs %d", cand.Servings, req.Constraints.Servings),
			Field:    "servings",
		})
	}

	if len(cand.Ingredients) > 0 {
		available := 0
		for _, ing := range cand.Ingredients {
			if v.store.IngredientAvailable(ctx, ing.Name) {
				available++
			}
		}
		coverage := float64(available) / float64(len(cand.Ingredients))
		if coverage < v.cfg.AvailabilityCoverage {
			result.Add(suggestion.ValidationIssue{
				Code:     suggestion.IssueLowAvailability,
				Severity: suggestion.SeverityImportant,
				Message:  fmt.Sprintf("only %d of %d ingredients available", available, len(cand.Ingredients)),
				Field:    "ingredients",
			})
		}
	}

	if fit := familyFit(cand, req.Family); fit < 0 {
		result.Add(suggestion.ValidationIssue{
			Code:     suggestion.IssueLowFamilyFit,
			Severity: suggestion.SeverityImportant,
			Message:  "more disliked than liked ingredients for this family",
			Field:    "ingredients",
		})
	}
}

func (v *Validator) checkAdvisory(result *suggestion.ValidationResult, cand suggestion.ParsedCandidate, req suggestion.SuggestionRequest) {
	if cand.Nutrition != nil && cand.Nutrition.Calories > 0 {
		proteinCalories := cand.Nutrition.Protein * 4
		if proteinCalories/float64(cand.Nutrition.Calories) < 0.10 {
			result.Add(suggestion.ValidationIssue{
				Code:     suggestion.IssueNutritionImbalance,
				Severity: suggestion.SeverityAdvisory,
				Message:  "protein share below 10% of calories",
				Field:    "nutrition",
			})
		}
	}

	if req.Family.CookingSkill == "beginner" && len(cand.Instructions) > 10 {
		result.Add(suggestion.ValidationIssue{
			Code:     suggestion.IssueSkillMismatch,
			Severity: suggestion.SeverityAdvisory,
			Message:  "long instruction list for a beginner cook",
			Field:    "instructions",
		})
	}

	if tag := outOfSeasonTag(cand, v.now()); tag != "" {
		result.Add(suggestion.ValidationIssue{
			Code:     suggestion.IssueOutOfSeason,
			Severity: suggestion.SeverityAdvisory,
			Message:  fmt.Sprintf("tagged %q outside its season", tag),
			Field:    "tags",
		})
	}
}

// familyFit is liked-ingredient hits minus disliked hits.
func familyFit(cand suggestion.ParsedCandidate, family suggestion.FamilyProfile) int {
	fit := 0
	for _, liked := range family.Liked {
		if cand.HasIngredient(liked) {
			fit++
		}
	}
	for _, disliked := range family.Disliked {
		if cand.HasIngredient(disliked) {
			fit--
		}
	}
	return fit
}

// violates maps a named restriction to the ingredient classes it forbids.
func violates(cand suggestion.ParsedCandidate, restriction string) bool {
	var forbidden []string
	switch strings.ToLower(strings.TrimSpace(restriction)) {
	case "vegetarian":
		forbidden = []string{"chicken", "beef", "pork", "fish", "salmon", "shrimp", "bacon"}
	case "vegan":
		forbidden = []string{"chicken", "beef", "pork", "fish", "salmon", "shrimp", "bacon", "cheese", "butter", "cream", "egg", "milk", "yogurt", "honey"}
	case "gluten_free", "gluten-free":
		forbidden = []string{"pasta", "bread", "flour", "soy sauce", "breadcrumbs", "couscous"}
	case "dairy_free", "dairy-free":
		forbidden = []string{"cheese", "butter", "cream", "milk", "yogurt"}
	case "halal", "no_pork":
		forbidden = []string{"pork", "bacon", "ham"}
	default:
		// Unknown restrictions fall back to a direct name match.
		forbidden = []string{restriction}
	}
	for _, term := range forbidden {
		if cand.HasIngredient(term) {
			return true
		}
	}
	return false
}

var seasonalTags = map[string][]time.Month{
	"summer": {time.June, time.July, time.August},
	"winter": {time.December, time.January, time.February},
	"spring": {time.March, time.April, time.May},
	"fall":   {time.September, time.October, time.November},
}

func outOfSeasonTag(cand suggestion.ParsedCandidate, now time.Time) string {
	for _, tag := range cand.Tags {
		months, ok := seasonalTags[strings.ToLower(tag)]
		if !ok {
			continue
		}
		inSeason := false
		for _, m := range months {
			if now.Month() == m {
				inSeason = true
			}
		}
		if !inSeason {
			return tag
		}
	}
	return ""
}
