package cache

import "strings"

// Key prefixes for the three response-cache key spaces and the cost
// controller's counters.
const (
	prefixExact    = "sugg:exact"
	prefixPattern  = "sugg:pattern"
	prefixSemantic = "sugg:semantic"
	prefixBudget   = "budget"
	prefixRate     = "rate"
)

// KeyBuilder produces standardized cache keys so every component agrees on
// the keyspace layout.
type KeyBuilder struct {
	separator string
}

// NewKeyBuilder creates a key builder.
func NewKeyBuilder() *KeyBuilder {
	return &KeyBuilder{separator: ":"}
}

// Build joins components into one key.
func (kb *KeyBuilder) Build(components ...string) string {
	return strings.Join(components, kb.separator)
}

// ExactKey is the key for an exact normalized-request match.
func (kb *KeyBuilder) ExactKey(normalizedKey string) string {
	return kb.Build(prefixExact, normalizedKey)
}

// PatternKey is the key for a family+request-type pattern match.
func (kb *KeyBuilder) PatternKey(patternKey string) string {
	return kb.Build(prefixPattern, patternKey)
}

// SemanticKey is the key for a semantic feature entry. Entries share the
// request-type segment so similarity search scans only one type.
func (kb *KeyBuilder) SemanticKey(requestType, normalizedKey string) string {
	return kb.Build(prefixSemantic, requestType, normalizedKey)
}

// SemanticScanPattern matches all semantic entries of one request type.
func (kb *KeyBuilder) SemanticScanPattern(requestType string) string {
	return kb.Build(prefixSemantic, requestType) + kb.separator + "*"
}

// BudgetKey is the requester's period-spend accumulator key.
func (kb *KeyBuilder) BudgetKey(requesterID string) string {
	return kb.Build(prefixBudget, "spend", requesterID)
}

// RateKey is the requester's hourly request counter key, bucketed by hour.
func (kb *KeyBuilder) RateKey(requesterID, hourBucket string) string {
	return kb.Build(prefixRate, requesterID, hourBucket)
}
