package suggestion

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kruger4712/mealprep/internal/domain/suggestion"
	"github.com/kruger4712/mealprep/internal/infrastructure/config"
	"github.com/kruger4712/mealprep/internal/infrastructure/monitoring"
)

func newTestBatcher(env *testEnv, cfg config.BatchConfig) *Batcher {
	return NewBatcher(env.coordinator, cfg, monitoring.NewNop(), zap.NewNop())
}

func TestBatcherCoalescesIdenticalRequests(t *testing.T) {
	env := newTestEnv()
	env.primary.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(output("primary", catalogJSON()), nil).Once()

	batcher := newTestBatcher(env, config.BatchConfig{
		FlushInterval: 50 * time.Millisecond,
		FlushSize:     5,
		QueueCapacity: 16,
	})
	batcher.Start()
	defer batcher.Stop()

	req := testRequest()
	const members = 5

	var wg sync.WaitGroup
	results := make([]*Result, members)
	errs := make([]error, members)
	for i := 0; i < members; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Distinct identity, identical content, so all members share
			// one normalized key.
			member := req
			results[i], errs[i] = batcher.Submit(context.Background(), member, "standard")
		}(i)
	}
	wg.Wait()

	for i := 0; i < members; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		assert.Equal(t, "Garlic Chicken Skillet", results[i].Candidates[0].Name)
	}
	env.primary.AssertNumberOfCalls(t, "Generate", 1)
}

func TestBatcherTimerFlush(t *testing.T) {
	env := newTestEnv()
	env.primary.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(output("primary", catalogJSON()), nil).Once()

	batcher := newTestBatcher(env, config.BatchConfig{
		FlushInterval: 20 * time.Millisecond,
		FlushSize:     100,
		QueueCapacity: 16,
	})
	batcher.Start()
	defer batcher.Stop()

	result, err := batcher.Submit(context.Background(), testRequest(), "standard")
	require.NoError(t, err)
	assert.Equal(t, suggestion.LevelPrimary, result.ServedFrom)
}

func TestBatcherDistinctKeysGetDistinctRuns(t *testing.T) {
	env := newTestEnv()
	env.primary.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(output("primary", catalogJSON()), nil).Twice()

	batcher := newTestBatcher(env, config.BatchConfig{
		FlushInterval: 20 * time.Millisecond,
		FlushSize:     2,
		QueueCapacity: 16,
	})
	batcher.Start()
	defer batcher.Stop()

	reqA := testRequest()
	reqA.Prompt = "weeknight pasta"
	reqB := testRequest()
	reqB.Prompt = "sunday roast"

	var wg sync.WaitGroup
	wg.Add(2)
	var errA, errB error
	go func() {
		defer wg.Done()
		_, errA = batcher.Submit(context.Background(), reqA, "standard")
	}()
	go func() {
		defer wg.Done()
		_, errB = batcher.Submit(context.Background(), reqB, "standard")
	}()
	wg.Wait()

	require.NoError(t, errA)
	require.NoError(t, errB)
	env.primary.AssertNumberOfCalls(t, "Generate", 2)
}

func TestBatcherCancelledCallerCancelsInFlightRun(t *testing.T) {
	env := newTestEnv()

	callCtxErr := make(chan error, 1)
	env.primary.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			callCtx := args.Get(0).(context.Context)
			select {
			case <-callCtx.Done():
				callCtxErr <- callCtx.Err()
			case <-time.After(5 * time.Second):
				callCtxErr <- nil
			}
		}).
		Return(nil, context.Canceled)

	batcher := newTestBatcher(env, config.BatchConfig{
		FlushInterval: 10 * time.Millisecond,
		FlushSize:     100,
		QueueCapacity: 16,
	})
	batcher.Start()
	defer batcher.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	submitted := make(chan error, 1)
	go func() {
		_, err := batcher.Submit(ctx, testRequest(), "standard")
		submitted <- err
	}()

	// Let the flush put the provider call in flight, then walk away.
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-callCtxErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("caller cancellation did not reach the in-flight provider call")
	}
	require.Error(t, <-submitted)
}

func TestBatcherSharedRunSurvivesOneMemberCancelling(t *testing.T) {
	env := newTestEnv()

	started := make(chan struct{})
	release := make(chan struct{})
	env.primary.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			callCtx := args.Get(0).(context.Context)
			select {
			case <-release:
			case <-callCtx.Done():
			}
		}).
		Return(output("primary", catalogJSON()), nil).Once()

	batcher := newTestBatcher(env, config.BatchConfig{
		FlushInterval: time.Hour,
		FlushSize:     2,
		QueueCapacity: 16,
	})
	batcher.Start()
	defer batcher.Stop()

	req := testRequest()
	quitterCtx, quit := context.WithCancel(context.Background())

	quitterDone := make(chan error, 1)
	stayerDone := make(chan error, 1)
	go func() {
		_, err := batcher.Submit(quitterCtx, req, "standard")
		quitterDone <- err
	}()
	go func() {
		_, err := batcher.Submit(context.Background(), req, "standard")
		stayerDone <- err
	}()

	<-started
	quit()
	require.Error(t, <-quitterDone)

	// The run shared with the remaining member keeps going.
	close(release)
	select {
	case err := <-stayerDone:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("shared run did not complete for the remaining member")
	}
}

func TestBatcherCancelledCallerStopsWaiting(t *testing.T) {
	env := newTestEnv()

	batcher := newTestBatcher(env, config.BatchConfig{
		FlushInterval: time.Hour,
		FlushSize:     100,
		QueueCapacity: 16,
	})
	batcher.Start()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := batcher.Submit(ctx, testRequest(), "standard")
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("cancelled submit did not return")
	}

	env.primary.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(output("primary", catalogJSON()), nil).Maybe()
	batcher.Stop()
}

func TestBatcherShutdownDrainsQueue(t *testing.T) {
	env := newTestEnv()
	env.primary.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(output("primary", catalogJSON()), nil)

	batcher := newTestBatcher(env, config.BatchConfig{
		FlushInterval: time.Hour,
		FlushSize:     100,
		QueueCapacity: 16,
	})
	batcher.Start()

	done := make(chan error, 1)
	go func() {
		_, err := batcher.Submit(context.Background(), testRequest(), "standard")
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	batcher.Stop()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("queued request was not resolved at shutdown")
	}
}
