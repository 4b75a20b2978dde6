package suggestion

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kruger4712/mealprep/internal/domain/suggestion"
	"github.com/kruger4712/mealprep/internal/infrastructure/config"
	"github.com/kruger4712/mealprep/internal/infrastructure/monitoring"
	apperrors "github.com/kruger4712/mealprep/pkg/errors"
)

// batchItem is one queued request with its completion handle. The handle is
// resolved exactly once by the flusher.
type batchItem struct {
	ctx  context.Context
	req  suggestion.SuggestionRequest
	tier string
	done chan batchOutcome
}

type batchOutcome struct {
	result *Result
	err    error
}

// Batcher coalesces near-simultaneous identical requests into one
// orchestration run. The queue flushes on a timer tick or when it reaches
// the size threshold, whichever comes first. Items sharing a normalized key
// share one run; distinct keys within a flush each get their own run. A
// failed shared run is retried per item, never failed en masse.
type Batcher struct {
	coordinator *Coordinator
	cfg         config.BatchConfig
	queue       chan batchItem
	metrics     *monitoring.Metrics
	logger      *zap.Logger

	stopOnce sync.Once
	stop     chan struct{}
	finished chan struct{}
}

// NewBatcher creates a batcher over the coordinator. Call Start before
// submitting.
func NewBatcher(coordinator *Coordinator, cfg config.BatchConfig, metrics *monitoring.Metrics, logger *zap.Logger) *Batcher {
	return &Batcher{
		coordinator: coordinator,
		cfg:         cfg,
		queue:       make(chan batchItem, cfg.QueueCapacity),
		metrics:     metrics,
		logger:      logger.Named("batcher"),
		stop:        make(chan struct{}),
		finished:    make(chan struct{}),
	}
}

// Start launches the single flusher goroutine.
func (b *Batcher) Start() {
	go b.run()
}

// Stop drains the flusher. Pending items are flushed before return.
func (b *Batcher) Stop() {
	b.stopOnce.Do(func() { close(b.stop) })
	<-b.finished
}

// Submit queues the request and blocks until its batch resolves or the
// caller's context ends. An abandoned caller stops waiting immediately; a
// run already shared with other batch members continues without it.
func (b *Batcher) Submit(ctx context.Context, req suggestion.SuggestionRequest, tier string) (*Result, error) {
	item := batchItem{
		ctx:  ctx,
		req:  req,
		tier: tier,
		done: make(chan batchOutcome, 1),
	}

	select {
	case b.queue <- item:
	case <-ctx.Done():
		return nil, apperrors.Wrap(ctx.Err(), "request cancelled before batching")
	default:
		// Queue full: bypass the batcher rather than block the caller.
		return b.coordinator.GenerateSuggestions(ctx, req, tier)
	}

	select {
	case outcome := <-item.done:
		return outcome.result, outcome.err
	case <-ctx.Done():
		return nil, apperrors.Wrap(ctx.Err(), "request cancelled while batched")
	}
}

// GenerateSuggestions routes through the batch queue. It exists so the
// batcher satisfies the same entry contract as the bare coordinator.
func (b *Batcher) GenerateSuggestions(ctx context.Context, req suggestion.SuggestionRequest, tier string) (*Result, error) {
	return b.Submit(ctx, req, tier)
}

func (b *Batcher) run() {
	defer close(b.finished)

	ticker := time.NewTicker(b.cfg.FlushInterval)
	defer ticker.Stop()

	var pending []batchItem
	for {
		select {
		case item := <-b.queue:
			pending = append(pending, item)
			if len(pending) >= b.cfg.FlushSize {
				b.flush(pending, "size")
				pending = nil
			}
		case <-ticker.C:
			if len(pending) > 0 {
				b.flush(pending, "timer")
				pending = nil
			}
		case <-b.stop:
			b.drain(pending)
			return
		}
	}
}

// drain flushes whatever is queued at shutdown.
func (b *Batcher) drain(pending []batchItem) {
	for {
		select {
		case item := <-b.queue:
			pending = append(pending, item)
		default:
			if len(pending) > 0 {
				b.flush(pending, "shutdown")
			}
			return
		}
	}
}

// flush groups items by normalized request key and resolves each group with
// one orchestration run.
func (b *Batcher) flush(items []batchItem, trigger string) {
	b.metrics.BatchFlushes.WithLabelValues(trigger).Inc()
	b.metrics.BatchSizeObserve.Observe(float64(len(items)))

	groups := make(map[string][]batchItem)
	for _, item := range items {
		key := item.req.NormalizedKey()
		groups[key] = append(groups[key], item)
	}

	for _, group := range groups {
		b.flushGroup(group)
	}
}

func (b *Batcher) flushGroup(group []batchItem) {
	lead := group[0]

	runCtx, cancel := b.groupContext(group)
	defer cancel()

	result, err := b.coordinator.GenerateSuggestions(runCtx, lead.req, lead.tier)
	if err == nil {
		if len(group) > 1 {
			b.logger.Debug("batch shared one run",
				zap.Int("members", len(group)),
				zap.String("request_id", lead.req.ID.String()))
		}
		for _, item := range group {
			item.done <- batchOutcome{result: result}
		}
		return
	}

	// Shared run failed: retry each member individually so one poisoned
	// request cannot sink its neighbors.
	b.logger.Warn("batch run failed, retrying members individually",
		zap.Int("members", len(group)),
		zap.Error(err))
	lead.done <- batchOutcome{err: err}
	for _, item := range group[1:] {
		if item.ctx.Err() != nil {
			item.done <- batchOutcome{err: apperrors.Wrap(item.ctx.Err(), "request cancelled while batched")}
			continue
		}
		result, err := b.coordinator.GenerateSuggestions(item.ctx, item.req, item.tier)
		item.done <- batchOutcome{result: result, err: err}
	}
}

// groupContext picks the context a group's shared run executes under. A
// single-member group runs on its caller's own context, so abandoning the
// request cancels the in-flight provider call. A multi-member run must
// survive any one member's cancellation for the others, so it runs on a
// context cancelled only once every member has abandoned it, bounded by the
// lead's deadline.
func (b *Batcher) groupContext(group []batchItem) (context.Context, context.CancelFunc) {
	if len(group) == 1 {
		return group[0].ctx, func() {}
	}

	base := context.Background()
	cancelDeadline := context.CancelFunc(func() {})
	if deadline, ok := group[0].ctx.Deadline(); ok {
		base, cancelDeadline = context.WithDeadline(base, deadline)
	}
	runCtx, cancelRun := context.WithCancel(base)

	go func() {
		for _, item := range group {
			select {
			case <-item.ctx.Done():
			case <-runCtx.Done():
				return
			}
		}
		cancelRun()
	}()

	return runCtx, func() {
		cancelRun()
		cancelDeadline()
	}
}
