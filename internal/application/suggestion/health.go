package suggestion

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kruger4712/mealprep/internal/domain/suggestion"
)

// attemptSample is one recorded provider attempt inside the rolling window.
type attemptSample struct {
	at      time.Time
	failed  bool
	latency time.Duration
	quality float64
}

// HealthTracker maintains the rolling-window reliability signal per
// provider. Read-heavy from the decision engine, written after every
// attempt; a single RWMutex over the sample slices is sufficient at the
// request rates this subsystem sees.
type HealthTracker struct {
	mu      sync.RWMutex
	window  time.Duration
	samples map[string][]attemptSample
	logger  *zap.Logger
	now     func() time.Time
}

// NewHealthTracker creates a tracker with the given sliding window. State
// resets at process start; the decision engine treats the cold window as
// healthy.
func NewHealthTracker(window time.Duration, logger *zap.Logger) *HealthTracker {
	return &HealthTracker{
		window:  window,
		samples: make(map[string][]attemptSample),
		logger:  logger.Named("health"),
		now:     time.Now,
	}
}

// RecordAttempt adds one attempt outcome. quality is the overall score of
// the accepted result, or 0 for a failure.
func (h *HealthTracker) RecordAttempt(provider string, failed bool, latency time.Duration, quality float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	pruned := pruneSamples(h.samples[provider], now.Add(-h.window))
	h.samples[provider] = append(pruned, attemptSample{
		at:      now,
		failed:  failed,
		latency: latency,
		quality: quality,
	})
}

// Status computes the current rolling-window metrics for a provider.
func (h *HealthTracker) Status(provider string) suggestion.HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := h.now()
	cutoff := now.Add(-h.window)
	status := suggestion.HealthStatus{
		Provider:    provider,
		WindowStart: cutoff,
	}

	var failures int
	var totalLatency time.Duration
	var qualitySum float64
	var qualityCount int
	for _, s := range h.samples[provider] {
		if s.at.Before(cutoff) {
			continue
		}
		status.SampleCount++
		totalLatency += s.latency
		if s.failed {
			failures++
			continue
		}
		qualitySum += s.quality
		qualityCount++
	}

	if status.SampleCount > 0 {
		status.ErrorRate = float64(failures) / float64(status.SampleCount)
		status.AvgLatency = totalLatency / time.Duration(status.SampleCount)
	}
	if qualityCount > 0 {
		status.QualityTrend = qualitySum / float64(qualityCount)
	}
	return status
}

// Reset clears all samples. Test hook.
func (h *HealthTracker) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.samples = make(map[string][]attemptSample)
}

func pruneSamples(samples []attemptSample, cutoff time.Time) []attemptSample {
	kept := samples[:0]
	for _, s := range samples {
		if !s.at.Before(cutoff) {
			kept = append(kept, s)
		}
	}
	return kept
}
