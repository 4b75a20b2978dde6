package suggestion

import "time"

// CacheEntry is one stored response. Entries are replaced wholesale, never
// partially updated, so concurrent writers for the same key are safe.
type CacheEntry struct {
	Key            string            `json:"key"`
	PatternKey     string            `json:"pattern_key"`
	FeatureVector  []float64         `json:"feature_vector,omitempty"`
	Type           RequestType       `json:"type"`
	Candidates     []ParsedCandidate `json:"candidates"`
	SourceLevel    FallbackLevel     `json:"source_level"`
	SavedCostCents int               `json:"saved_cost_cents"`
	StoredAt       time.Time         `json:"stored_at"`
	ExpiresAt      time.Time         `json:"expires_at"`
}

// Expired reports whether the entry has passed its TTL.
func (e CacheEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// HealthStatus is the rolling-window reliability signal for a provider. Read
// by the decision engine to pick the starting fallback level; written by the
// coordinator after every attempt.
type HealthStatus struct {
	Provider     string        `json:"provider"`
	ErrorRate    float64       `json:"error_rate"`
	AvgLatency   time.Duration `json:"avg_latency"`
	QualityTrend float64       `json:"quality_trend"`
	SampleCount  int           `json:"sample_count"`
	WindowStart  time.Time     `json:"window_start"`
}

// ColdStart reports whether too few samples exist to trust the metrics. The
// decision engine defaults to the primary level until the window warms up.
func (h HealthStatus) ColdStart(minSamples int) bool {
	return h.SampleCount < minSamples
}
