package suggestion

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kruger4712/mealprep/internal/domain/suggestion"
	"github.com/kruger4712/mealprep/internal/infrastructure/cache"
	"github.com/kruger4712/mealprep/internal/infrastructure/config"
	"github.com/kruger4712/mealprep/internal/infrastructure/monitoring"
	apperrors "github.com/kruger4712/mealprep/pkg/errors"
)

// estimatedCallCents is the reserve taken from the requester's budget before
// a paid provider call. Settled against the actual cost afterwards.
const estimatedCallCents = 5

// Result is what a successful orchestration run hands back to the caller:
// the candidate set, its score, and the decision trail as diagnostics.
type Result struct {
	Candidates []suggestion.ParsedCandidate  `json:"candidates"`
	Quality    *suggestion.QualityScore      `json:"quality,omitempty"`
	Validation *suggestion.ValidationResult  `json:"validation,omitempty"`
	ServedFrom suggestion.FallbackLevel      `json:"served_from"`
	Decisions  []suggestion.FallbackDecision `json:"decisions"`
	WarnBudget bool                          `json:"warn_budget,omitempty"`
}

// Coordinator is the fallback decision engine: it picks the starting level
// from live health signals, runs strategies in strictly increasing level
// order, applies the cross-cutting sanity check to every result, and records
// a FallbackDecision per attempt. One orchestration per request; runs for
// different requests proceed concurrently.
type Coordinator struct {
	strategies map[suggestion.FallbackLevel]Strategy
	health     *HealthTracker
	cost       *CostController
	responses  *cache.ResponseCache
	cfg        config.OrchestratorConfig
	metrics    *monitoring.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewCoordinator wires the strategy set under the decision engine.
func NewCoordinator(
	strategies []Strategy,
	health *HealthTracker,
	cost *CostController,
	responses *cache.ResponseCache,
	cfg config.OrchestratorConfig,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Coordinator {
	byLevel := make(map[suggestion.FallbackLevel]Strategy, len(strategies))
	for _, s := range strategies {
		byLevel[s.Level()] = s
	}
	return &Coordinator{
		strategies: byLevel,
		health:     health,
		cost:       cost,
		responses:  responses,
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger.Named("coordinator"),
		now:        time.Now,
	}
}

// GenerateSuggestions runs one orchestration. Paid levels are gated by the
// cost controller; a budget denial skips to the free levels instead of
// failing the run, while a rate denial fails it outright. On exhaustion the
// caller receives a typed error carrying the full decision trail.
func (c *Coordinator) GenerateSuggestions(ctx context.Context, req suggestion.SuggestionRequest, tier string) (*Result, error) {
	started := c.now()
	defer func() {
		c.metrics.RunDuration.Observe(time.Since(started).Seconds())
	}()

	if !req.Type.Valid() {
		return nil, apperrors.New(apperrors.CodeBadRequest, "unknown request type", string(req.Type))
	}

	// An exact cache hit answers the identical question already paid for.
	// It charges no budget but still consumes the hourly request ceiling.
	if result, saved, ok := c.exactCacheServe(ctx, req); ok {
		free, err := c.cost.AuthorizeFree(ctx, req.RequesterID, tier)
		if err != nil {
			return nil, apperrors.Wrap(err, "cost authorization failed")
		}
		if free.Denied() {
			c.metrics.RateDenials.Inc()
			return nil, free.DenialError()
		}
		c.metrics.CacheLookups.WithLabelValues(string(cache.TierExact)).Inc()
		c.metrics.SavedCentsTotal.Add(float64(saved))
		c.metrics.RunsTotal.WithLabelValues(suggestion.LevelCached.String()).Inc()
		return result, nil
	}

	level := c.startLevel(req)
	warnBudget := false
	reservedCents := 0

	auth, err := c.cost.Authorize(ctx, req.RequesterID, tier, estimatedCallCents)
	if err != nil {
		return nil, apperrors.Wrap(err, "cost authorization failed")
	}
	switch {
	case auth.Denied() && auth.Code == apperrors.CodeRateLimited:
		c.metrics.RateDenials.Inc()
		return nil, auth.DenialError()
	case auth.Denied():
		// Budget exhausted: the paid levels are off the table, the free
		// ones remain, still subject to the rate ceiling.
		c.metrics.BudgetDenials.Inc()
		free, err := c.cost.AuthorizeFree(ctx, req.RequesterID, tier)
		if err != nil {
			return nil, apperrors.Wrap(err, "cost authorization failed")
		}
		if free.Denied() {
			c.metrics.RateDenials.Inc()
			return nil, free.DenialError()
		}
		if level < suggestion.LevelRuleBased {
			level = suggestion.LevelRuleBased
		}
	case auth.Verdict == VerdictWarn:
		warnBudget = true
		reservedCents = estimatedCallCents
	default:
		reservedCents = estimatedCallCents
	}

	var trail []suggestion.FallbackDecision
	paidSpent := 0

	// Settlement must reach the budget counter on every exit after the
	// reserve was taken, including a cancellation part-way through the
	// level walk.
	defer func() {
		c.settle(context.WithoutCancel(ctx), req, reservedCents, paidSpent)
	}()

	for ; level < suggestion.LevelExhausted; level = level.Next() {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Wrap(err, "request cancelled")
		}

		strategy, ok := c.strategies[level]
		if !ok {
			trail = append(trail, c.decision(req, level, "no strategy configured", false))
			continue
		}

		attemptStart := c.now()
		result := strategy.Execute(ctx, req)
		latency := time.Since(attemptStart)
		paidSpent += result.CostCents

		accepted, reason := c.acceptable(result, req)
		c.recordAttempt(level, latency, result, accepted)
		trail = append(trail, c.decision(req, level, reason, accepted))

		if !accepted {
			c.logger.Info("fallback level failed",
				zap.String("request_id", req.ID.String()),
				zap.String("level", level.String()),
				zap.String("reason", reason))
			continue
		}

		c.sideChannelStore(ctx, req, result, level)
		c.metrics.RunsTotal.WithLabelValues(level.String()).Inc()
		if result.Quality != nil {
			c.metrics.QualityScore.Observe(result.Quality.Overall)
		}

		return &Result{
			Candidates: result.Candidates,
			Quality:    result.Quality,
			Validation: result.Validation,
			ServedFrom: level,
			Decisions:  trail,
			WarnBudget: warnBudget,
		}, nil
	}

	c.metrics.RunsTotal.WithLabelValues(suggestion.LevelExhausted.String()).Inc()

	levels := make([]string, 0, len(trail))
	reasons := make([]string, 0, len(trail))
	for _, d := range trail {
		levels = append(levels, d.Level.String())
		reasons = append(reasons, fmt.Sprintf("%s: %s", d.Level, d.Reason))
	}
	c.logger.Error("orchestration exhausted",
		zap.String("request_id", req.ID.String()),
		zap.Strings("levels_tried", levels))
	return nil, apperrors.NewOrchestrationExhausted(levels, reasons)
}

// exactCacheServe answers from the exact tier only. Pattern and semantic
// hits stay behind the cached fallback level where they are re-validated.
// The caller gates the serve on the rate ceiling and records the metrics.
func (c *Coordinator) exactCacheServe(ctx context.Context, req suggestion.SuggestionRequest) (*Result, int, bool) {
	entry, tier, err := c.responses.Lookup(ctx, req)
	if err != nil || tier != cache.TierExact || len(entry.Candidates) == 0 {
		return nil, 0, false
	}

	return &Result{
		Candidates: entry.Candidates,
		ServedFrom: suggestion.LevelCached,
		Decisions: []suggestion.FallbackDecision{
			c.decision(req, suggestion.LevelCached, "exact cache hit", true),
		},
	}, entry.SavedCostCents, true
}

// startLevel applies the health-based transition rule. The window starts
// cold at process start, and until it warms up every run starts at Primary.
func (c *Coordinator) startLevel(req suggestion.SuggestionRequest) suggestion.FallbackLevel {
	status := c.health.Status("primary")
	if status.ColdStart(c.cfg.HealthMinSamples) {
		return suggestion.LevelPrimary
	}

	if status.ErrorRate > c.cfg.ErrorRateThreshold {
		if req.Quality == suggestion.QualityHigh {
			return suggestion.LevelRuleBased
		}
		return suggestion.LevelCached
	}
	if status.AvgLatency > c.cfg.LatencyCeiling {
		return suggestion.LevelSecondary
	}
	if status.QualityTrend < c.cfg.QualityTrendFloor {
		if req.Quality == suggestion.QualityLow {
			return suggestion.LevelSecondary
		}
		return suggestion.LevelRuleBased
	}
	return suggestion.LevelPrimary
}

// acceptable applies the cross-cutting sanity check: the strategy must have
// produced candidates, validation must carry no critical errors, and every
// candidate must sit inside the tolerated budget and time envelopes with a
// non-empty name and ingredient list.
func (c *Coordinator) acceptable(result suggestion.StrategyResult, req suggestion.SuggestionRequest) (bool, string) {
	if !result.Succeeded {
		return false, result.Diagnostic
	}
	if len(result.Candidates) == 0 {
		return false, "strategy returned no candidates"
	}
	if result.Validation != nil && !result.Validation.Acceptable() {
		return false, fmt.Sprintf("%d critical validation errors", len(result.Validation.Errors))
	}

	budgetCeiling := float64(req.Constraints.BudgetCents) * (1 + c.cfg.BudgetTolerance)
	timeCeiling := float64(req.Constraints.MaxPrepMinutes+req.Constraints.MaxCookMinutes) * (1 + c.cfg.TimeTolerance)
	for _, cand := range result.Candidates {
		if cand.Name == "" || len(cand.Ingredients) == 0 {
			return false, "candidate missing name or ingredients"
		}
		if req.Constraints.BudgetCents > 0 && float64(cand.CostCents) > budgetCeiling {
			return false, fmt.Sprintf("candidate %q over budget envelope", cand.Name)
		}
		if timeCeiling > 0 && float64(cand.TotalMinutes()) > timeCeiling {
			return false, fmt.Sprintf("candidate %q over time envelope", cand.Name)
		}
	}
	return true, "accepted"
}

func (c *Coordinator) decision(req suggestion.SuggestionRequest, level suggestion.FallbackLevel, reason string, succeeded bool) suggestion.FallbackDecision {
	return suggestion.FallbackDecision{
		RequestID: req.ID,
		Level:     level,
		Reason:    reason,
		Succeeded: succeeded,
		Timestamp: c.now(),
	}
}

// recordAttempt feeds the health window and the attempt counters. Only the
// provider-backed levels carry a meaningful provider health signal.
func (c *Coordinator) recordAttempt(level suggestion.FallbackLevel, latency time.Duration, result suggestion.StrategyResult, accepted bool) {
	outcome := "failed"
	if accepted {
		outcome = "accepted"
	}
	c.metrics.AttemptsTotal.WithLabelValues(level.String(), outcome).Inc()

	if level != suggestion.LevelPrimary && level != suggestion.LevelSecondary {
		return
	}
	quality := 0.0
	if accepted && result.Quality != nil {
		quality = result.Quality.Overall
	}
	c.health.RecordAttempt(level.String(), !accepted, latency, quality)
}

// settle reconciles the reserved budget estimate against real spend. A run
// that never took the reserve and spent nothing has nothing to reconcile.
func (c *Coordinator) settle(ctx context.Context, req suggestion.SuggestionRequest, reservedCents, actualCents int) {
	if actualCents > 0 {
		c.metrics.CostCentsTotal.Add(float64(actualCents))
	}
	if reservedCents == 0 && actualCents == 0 {
		return
	}
	if err := c.cost.Settle(ctx, req.RequesterID, reservedCents, actualCents); err != nil {
		c.logger.Warn("budget settlement failed",
			zap.String("requester_id", req.RequesterID.String()),
			zap.Error(err))
	}
}

// sideChannelStore writes every accepted generation into the cache so later
// requests can be served without a provider call. Cache serves are not
// re-stored; their entry already exists.
func (c *Coordinator) sideChannelStore(ctx context.Context, req suggestion.SuggestionRequest, result suggestion.StrategyResult, level suggestion.FallbackLevel) {
	if level == suggestion.LevelCached {
		c.metrics.SavedCentsTotal.Add(float64(estimatedCallCents))
		return
	}
	saved := result.CostCents
	if saved == 0 {
		saved = estimatedCallCents
	}
	if err := c.responses.Store(ctx, req, result.Candidates, saved, level); err != nil {
		c.logger.Warn("cache store failed",
			zap.String("request_id", req.ID.String()),
			zap.Error(err))
	}
}
