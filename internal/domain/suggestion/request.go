// Package suggestion defines the domain model for the AI meal-suggestion
// orchestration subsystem: requests, candidates, validation outcomes, quality
// scores and the fallback decision trail.
package suggestion

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestType identifies what kind of suggestion is being asked for. The
// cache TTL policy differs per type because the volatility of a "correct
// answer" differs.
type RequestType string

const (
	TypeMealSuggestion  RequestType = "meal_suggestion"
	TypeWeeklyMenu      RequestType = "weekly_menu"
	TypePersonalization RequestType = "personalization"
)

// QualityDemand expresses how much quality the caller is willing to trade
// for availability. It steers the starting fallback level under degraded
// provider health.
type QualityDemand string

const (
	QualityHigh   QualityDemand = "high"
	QualityNormal QualityDemand = "normal"
	QualityLow    QualityDemand = "low"
)

// Constraints are the hard numeric bounds a candidate must respect.
type Constraints struct {
	BudgetCents    int `json:"budget_cents" validate:"gte=0"`
	MaxPrepMinutes int `json:"max_prep_minutes" validate:"gte=0"`
	MaxCookMinutes int `json:"max_cook_minutes" validate:"gte=0"`
	Servings       int `json:"servings" validate:"gte=0"`
}

// FamilyProfile is the read-only preference data consumed by the validator
// and the rule-based generator. It is supplied by the caller; this subsystem
// never mutates it.
type FamilyProfile struct {
	Allergens      []string `json:"allergens"`
	Restrictions   []string `json:"restrictions"`
	Liked          []string `json:"liked"`
	Disliked       []string `json:"disliked"`
	SpiceTolerance int      `json:"spice_tolerance"`
	CookingSkill   string   `json:"cooking_skill"`
}

// SuggestionRequest is one incoming meal-suggestion request. Immutable once
// created; the prompt is opaque to the orchestrator.
type SuggestionRequest struct {
	ID          uuid.UUID     `json:"id"`
	RequesterID uuid.UUID     `json:"requester_id"`
	Type        RequestType   `json:"type"`
	Prompt      string        `json:"prompt"`
	Constraints Constraints   `json:"constraints"`
	Family      FamilyProfile `json:"family"`
	Quality     QualityDemand `json:"quality"`
	CreatedAt   time.Time     `json:"created_at"`
}

// NewRequest builds a request with generated id and timestamp.
func NewRequest(requesterID uuid.UUID, reqType RequestType, prompt string, constraints Constraints, family FamilyProfile) SuggestionRequest {
	return SuggestionRequest{
		ID:          uuid.New(),
		RequesterID: requesterID,
		Type:        reqType,
		Prompt:      prompt,
		Constraints: constraints,
		Family:      family,
		Quality:     QualityNormal,
		CreatedAt:   time.Now(),
	}
}

// NormalizedKey returns a stable hash over the request content that matters
// for caching: prompt, type, constraints and the sorted family restrictions.
// Two requests with the same key are semantically identical.
func (r SuggestionRequest) NormalizedKey() string {
	allergens := append([]string(nil), r.Family.Allergens...)
	restrictions := append([]string(nil), r.Family.Restrictions...)
	sort.Strings(allergens)
	sort.Strings(restrictions)

	input := fmt.Sprintf("%s|%s|%d|%d|%d|%d|%s|%s",
		r.Type,
		strings.ToLower(strings.TrimSpace(r.Prompt)),
		r.Constraints.BudgetCents,
		r.Constraints.MaxPrepMinutes,
		r.Constraints.MaxCookMinutes,
		r.Constraints.Servings,
		strings.ToLower(strings.Join(allergens, ",")),
		strings.ToLower(strings.Join(restrictions, ",")),
	)

	sum := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%x", sum[:16])
}

// PatternKey returns the family+type cache key. It deliberately ignores the
// prompt and numeric constraints so near-identical requests can share entries.
func (r SuggestionRequest) PatternKey() string {
	allergens := append([]string(nil), r.Family.Allergens...)
	restrictions := append([]string(nil), r.Family.Restrictions...)
	sort.Strings(allergens)
	sort.Strings(restrictions)

	input := fmt.Sprintf("%s|%s|%s",
		r.Type,
		strings.ToLower(strings.Join(allergens, ",")),
		strings.ToLower(strings.Join(restrictions, ",")),
	)
	sum := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%x", sum[:12])
}

// TTL returns the cache lifetime for this request type.
func (t RequestType) TTL() time.Duration {
	switch t {
	case TypeWeeklyMenu:
		return 24 * time.Hour
	case TypePersonalization:
		return 7 * 24 * time.Hour
	default:
		return 6 * time.Hour
	}
}

// Valid reports whether the request type is one of the known values.
func (t RequestType) Valid() bool {
	switch t {
	case TypeMealSuggestion, TypeWeeklyMenu, TypePersonalization:
		return true
	}
	return false
}
