package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositorySetGet(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "k", []byte("v"), time.Minute))

	data, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)

	exists, err := repo.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryRepositoryMissAndDelete(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, repo.Delete(ctx, "k"))
	_, err = repo.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepositoryTTL(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := repo.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepositoryCounters(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	n, err := repo.IncrementBy(ctx, "counter", 3, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = repo.IncrementBy(ctx, "counter", -1, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.GetCounter(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.GetCounter(ctx, "absent")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryRepositoryKeysPrefix(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "sugg:semantic:meal:a", []byte("1"), time.Minute))
	require.NoError(t, repo.Set(ctx, "sugg:semantic:meal:b", []byte("2"), time.Minute))
	require.NoError(t, repo.Set(ctx, "sugg:exact:c", []byte("3"), time.Minute))

	keys, err := repo.Keys(ctx, "sugg:semantic:meal:*")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestMemoryRepositoryConcurrentIncrements(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.IncrementBy(ctx, "counter", 1, time.Minute)
		}()
	}
	wg.Wait()

	n, err := repo.GetCounter(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(50), n)
}
