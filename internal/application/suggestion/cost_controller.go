package suggestion

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kruger4712/mealprep/internal/infrastructure/cache"
	"github.com/kruger4712/mealprep/internal/infrastructure/config"
	"github.com/kruger4712/mealprep/internal/ports/outbound"
	apperrors "github.com/kruger4712/mealprep/pkg/errors"
)

// Verdict is the outcome of an authorization check.
type Verdict string

const (
	VerdictAllow Verdict = "allow"
	VerdictWarn  Verdict = "warn"
	VerdictDeny  Verdict = "deny"
)

// Authorization is the full answer from the cost controller. On Warn,
// RemainingCents tells the caller how much headroom is left before the hard
// limit. On Deny, Reason explains which ceiling was hit.
type Authorization struct {
	Verdict        Verdict
	RemainingCents int
	Reason         string

	// Code distinguishes budget denials from rate denials.
	Code apperrors.ErrorCode
}

// Denied reports whether the request may not proceed to a paid provider.
func (a Authorization) Denied() bool {
	return a.Verdict == VerdictDeny
}

const lockStripes = 64

// CostController enforces the per-requester budget and rate ceilings before
// any paid provider is invoked. Spend and rate counters persist through the
// cache repository so they survive across instances; updates for one
// requester are serialized through a striped lock so concurrent requests
// from the same user cannot double-spend.
type CostController struct {
	repo    outbound.CacheRepository
	keys    *cache.KeyBuilder
	cfg     config.BudgetConfig
	global  *rate.Limiter
	stripes [lockStripes]sync.Mutex
	logger  *zap.Logger
	now     func() time.Time
}

// NewCostController creates the controller with a process-wide request
// smoother on top of the per-tier ceilings.
func NewCostController(repo outbound.CacheRepository, cfg config.BudgetConfig, logger *zap.Logger) *CostController {
	return &CostController{
		repo:   repo,
		keys:   cache.NewKeyBuilder(),
		cfg:    cfg,
		global: rate.NewLimiter(rate.Limit(cfg.GlobalRPS), cfg.GlobalRPS),
		logger: logger.Named("cost_controller"),
		now:    time.Now,
	}
}

// Authorize gates a paid provider call. It checks, in order: the global rate
// smoother, the requester's hourly request ceiling, and the projected period
// spend against the tier's hard and soft limits. On Allow or Warn the spend
// and rate counters are incremented atomically; Deny leaves them untouched.
func (cc *CostController) Authorize(ctx context.Context, requesterID uuid.UUID, tier string, estimatedCents int) (Authorization, error) {
	budget, ok := cc.cfg.Tiers[tier]
	if !ok {
		budget = cc.cfg.Tiers[cc.cfg.DefaultTier]
	}

	if !cc.global.Allow() {
		return Authorization{Verdict: VerdictDeny, Reason: "global request rate exceeded", Code: apperrors.CodeRateLimited}, nil
	}

	lock := cc.lockFor(requesterID)
	lock.Lock()
	defer lock.Unlock()

	hourly, err := cc.hourlyCount(ctx, requesterID)
	if err != nil {
		return Authorization{}, err
	}
	if hourly >= int64(budget.HourlyRequests) {
		cc.logger.Info("request rate ceiling hit",
			zap.String("requester_id", requesterID.String()),
			zap.Int64("requests_last_hour", hourly))
		return Authorization{Verdict: VerdictDeny, Reason: fmt.Sprintf("hourly request ceiling %d reached", budget.HourlyRequests), Code: apperrors.CodeRateLimited}, nil
	}

	spent, err := cc.repo.GetCounter(ctx, cc.keys.BudgetKey(requesterID.String()))
	if err != nil {
		return Authorization{}, err
	}
	projected := spent + int64(estimatedCents)
	if projected > int64(budget.HardLimitCents) {
		cc.logger.Info("budget hard limit hit",
			zap.String("requester_id", requesterID.String()),
			zap.Int64("spent_cents", spent),
			zap.Int("estimated_cents", estimatedCents))
		return Authorization{
			Verdict: VerdictDeny,
			Reason:  fmt.Sprintf("projected spend %d cents exceeds hard limit %d cents", projected, budget.HardLimitCents),
			Code:    apperrors.CodeBudgetExceeded,
		}, nil
	}

	if err := cc.record(ctx, requesterID, estimatedCents); err != nil {
		return Authorization{}, err
	}

	remaining := int(int64(budget.HardLimitCents) - projected)
	if projected > int64(budget.SoftLimitCents) {
		return Authorization{Verdict: VerdictWarn, RemainingCents: remaining}, nil
	}
	return Authorization{Verdict: VerdictAllow, RemainingCents: remaining}, nil
}

// AuthorizeFree gates the free strategies. They are exempt from the monetary
// limits but still consume the requester's hourly request ceiling.
func (cc *CostController) AuthorizeFree(ctx context.Context, requesterID uuid.UUID, tier string) (Authorization, error) {
	budget, ok := cc.cfg.Tiers[tier]
	if !ok {
		budget = cc.cfg.Tiers[cc.cfg.DefaultTier]
	}

	lock := cc.lockFor(requesterID)
	lock.Lock()
	defer lock.Unlock()

	hourly, err := cc.hourlyCount(ctx, requesterID)
	if err != nil {
		return Authorization{}, err
	}
	if hourly >= int64(budget.HourlyRequests) {
		return Authorization{Verdict: VerdictDeny, Reason: fmt.Sprintf("hourly request ceiling %d reached", budget.HourlyRequests), Code: apperrors.CodeRateLimited}, nil
	}
	if _, err := cc.repo.IncrementBy(ctx, cc.rateKey(requesterID), 1, time.Hour); err != nil {
		return Authorization{}, err
	}
	return Authorization{Verdict: VerdictAllow}, nil
}

// Settle reconciles the reserved estimate against the actual provider cost
// once the call finishes. A cheaper-than-estimated call refunds the
// difference.
func (cc *CostController) Settle(ctx context.Context, requesterID uuid.UUID, estimatedCents, actualCents int) error {
	delta := int64(actualCents - estimatedCents)
	if delta == 0 {
		return nil
	}
	lock := cc.lockFor(requesterID)
	lock.Lock()
	defer lock.Unlock()
	_, err := cc.repo.IncrementBy(ctx, cc.keys.BudgetKey(requesterID.String()), delta, cc.cfg.Period)
	return err
}

// SpentCents returns the requester's current-period spend.
func (cc *CostController) SpentCents(ctx context.Context, requesterID uuid.UUID) (int64, error) {
	return cc.repo.GetCounter(ctx, cc.keys.BudgetKey(requesterID.String()))
}

// Reset clears a requester's spend and rate counters. Test hook.
func (cc *CostController) Reset(ctx context.Context, requesterID uuid.UUID) error {
	if err := cc.repo.Delete(ctx, cc.keys.BudgetKey(requesterID.String())); err != nil && err != cache.ErrNotFound {
		return err
	}
	if err := cc.repo.Delete(ctx, cc.rateKey(requesterID)); err != nil && err != cache.ErrNotFound {
		return err
	}
	return nil
}

// DenialError converts a denial into the typed error surfaced to callers.
func (a Authorization) DenialError() error {
	if !a.Denied() {
		return nil
	}
	if a.Code == apperrors.CodeBudgetExceeded {
		return apperrors.NewBudgetExceeded(a.Reason, a.RemainingCents)
	}
	return apperrors.NewRateLimited(a.Reason)
}

func (cc *CostController) record(ctx context.Context, requesterID uuid.UUID, estimatedCents int) error {
	if _, err := cc.repo.IncrementBy(ctx, cc.keys.BudgetKey(requesterID.String()), int64(estimatedCents), cc.cfg.Period); err != nil {
		return err
	}
	_, err := cc.repo.IncrementBy(ctx, cc.rateKey(requesterID), 1, time.Hour)
	return err
}

// hourlyCount sums the current and previous hour buckets so the ceiling
// cannot be dodged by straddling a bucket boundary.
func (cc *CostController) hourlyCount(ctx context.Context, requesterID uuid.UUID) (int64, error) {
	now := cc.now()
	current, err := cc.repo.GetCounter(ctx, cc.keys.RateKey(requesterID.String(), hourBucket(now)))
	if err != nil {
		return 0, err
	}
	previous, err := cc.repo.GetCounter(ctx, cc.keys.RateKey(requesterID.String(), hourBucket(now.Add(-time.Hour))))
	if err != nil {
		return 0, err
	}
	// Weight the previous bucket by how much of it still falls in the
	// sliding hour.
	fraction := 1 - float64(now.Minute())/60
	return current + int64(float64(previous)*fraction), nil
}

func (cc *CostController) rateKey(requesterID uuid.UUID) string {
	return cc.keys.RateKey(requesterID.String(), hourBucket(cc.now()))
}

func (cc *CostController) lockFor(requesterID uuid.UUID) *sync.Mutex {
	h := fnv.New32a()
	h.Write(requesterID[:])
	return &cc.stripes[h.Sum32()%lockStripes]
}

func hourBucket(t time.Time) string {
	return t.UTC().Format("2006010215")
}
