package suggestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHealthTrackerColdStart(t *testing.T) {
	tracker := NewHealthTracker(5*time.Minute, zap.NewNop())

	status := tracker.Status("primary")
	assert.True(t, status.ColdStart(5))
	assert.Zero(t, status.SampleCount)
}

func TestHealthTrackerErrorRate(t *testing.T) {
	tracker := NewHealthTracker(5*time.Minute, zap.NewNop())

	tracker.RecordAttempt("primary", true, 100*time.Millisecond, 0)
	tracker.RecordAttempt("primary", true, 100*time.Millisecond, 0)
	tracker.RecordAttempt("primary", false, 100*time.Millisecond, 0.9)
	tracker.RecordAttempt("primary", false, 100*time.Millisecond, 0.8)

	status := tracker.Status("primary")
	assert.Equal(t, 4, status.SampleCount)
	assert.InDelta(t, 0.5, status.ErrorRate, 0.001)
	assert.InDelta(t, 0.85, status.QualityTrend, 0.001)
	assert.Equal(t, 100*time.Millisecond, status.AvgLatency)
}

func TestHealthTrackerWindowPrunes(t *testing.T) {
	tracker := NewHealthTracker(5*time.Minute, zap.NewNop())

	current := time.Now()
	tracker.now = func() time.Time { return current }

	tracker.RecordAttempt("primary", true, time.Second, 0)
	tracker.RecordAttempt("primary", true, time.Second, 0)

	current = current.Add(10 * time.Minute)
	tracker.RecordAttempt("primary", false, 100*time.Millisecond, 0.9)

	status := tracker.Status("primary")
	assert.Equal(t, 1, status.SampleCount)
	assert.Zero(t, status.ErrorRate)
}

func TestHealthTrackerProvidersIndependent(t *testing.T) {
	tracker := NewHealthTracker(5*time.Minute, zap.NewNop())

	tracker.RecordAttempt("primary", true, time.Second, 0)
	tracker.RecordAttempt("secondary", false, time.Second, 0.9)

	assert.InDelta(t, 1.0, tracker.Status("primary").ErrorRate, 0.001)
	assert.Zero(t, tracker.Status("secondary").ErrorRate)
}

func TestHealthTrackerReset(t *testing.T) {
	tracker := NewHealthTracker(5*time.Minute, zap.NewNop())

	tracker.RecordAttempt("primary", true, time.Second, 0)
	tracker.Reset()
	assert.Zero(t, tracker.Status("primary").SampleCount)
}
