package suggestion

import "strings"

// Severity of a validation issue. Critical blocks acceptance; Important
// degrades the quality score; Advisory is informational only.
type Severity string

const (
	SeverityCritical  Severity = "critical"
	SeverityImportant Severity = "important"
	SeverityAdvisory  Severity = "advisory"
)

// Issue codes. Allergen and restriction codes are safety-relevant: the
// quality scorer forces the safety component to zero when one appears.
const (
	IssueAllergenConflict    = "allergen_conflict"
	IssueRestrictionViolated = "restriction_violated"
	IssueBudgetOverrun       = "budget_overrun"
	IssueTimeOverrun         = "time_overrun"
	IssueServingsMismatch    = "servings_mismatch"
	IssueLowAvailability     = "low_ingredient_availability"
	IssueLowFamilyFit        = "low_family_fit"
	IssueNutritionImbalance  = "nutrition_imbalance"
	IssueSkillMismatch       = "skill_mismatch"
	IssueOutOfSeason         = "out_of_season"
	IssueParseRecovered      = "parse_recovered"
)

// ValidationIssue is one finding from the validator (or a parser recovery
// warning folded in by the strategy).
type ValidationIssue struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Field    string   `json:"field,omitempty"`
}

// ValidationResult holds the three independent issue lists for exactly one
// candidate.
type ValidationResult struct {
	Errors      []ValidationIssue `json:"errors"`
	Warnings    []ValidationIssue `json:"warnings"`
	Suggestions []ValidationIssue `json:"suggestions"`
}

// Acceptable reports whether the candidate may proceed: the critical list
// must be empty.
func (v ValidationResult) Acceptable() bool {
	return len(v.Errors) == 0
}

// HasSafetyError reports whether any critical issue is safety-relevant
// (allergen or hard dietary restriction).
func (v ValidationResult) HasSafetyError() bool {
	for _, issue := range v.Errors {
		if issue.Code == IssueAllergenConflict || issue.Code == IssueRestrictionViolated {
			return true
		}
	}
	return false
}

// Add appends an issue to the list matching its severity.
func (v *ValidationResult) Add(issue ValidationIssue) {
	switch issue.Severity {
	case SeverityCritical:
		v.Errors = append(v.Errors, issue)
	case SeverityImportant:
		v.Warnings = append(v.Warnings, issue)
	default:
		v.Suggestions = append(v.Suggestions, issue)
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
