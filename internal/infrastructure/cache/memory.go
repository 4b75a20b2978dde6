// Package cache provides the response cache for generated suggestions: a
// three-tier lookup (exact, pattern, semantic-similar) over a generic
// key-value store, plus the in-memory and Redis store implementations.
package cache

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kruger4712/mealprep/internal/ports/outbound"
)

// ErrNotFound is returned when a key is absent or expired.
var ErrNotFound = errors.New("cache: key not found")

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// MemoryRepository implements outbound.CacheRepository in process memory.
// Used by tests and single-node deployments.
type MemoryRepository struct {
	data map[string]memoryItem
	mu   sync.RWMutex
}

// NewMemoryRepository creates an in-memory cache repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{data: make(map[string]memoryItem)}
}

// Get retrieves a value, treating expired entries as missing.
func (r *MemoryRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	item, ok := r.data[key]
	r.mu.RUnlock()

	if !ok || time.Now().After(item.expiresAt) {
		return nil, ErrNotFound
	}
	return item.value, nil
}

// Set stores a value with TTL. A zero TTL defaults to 24 hours.
func (r *MemoryRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	r.mu.Lock()
	r.data[key] = memoryItem{value: value, expiresAt: time.Now().Add(ttl)}
	r.mu.Unlock()
	return nil
}

// Delete removes a key.
func (r *MemoryRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	delete(r.data, key)
	r.mu.Unlock()
	return nil
}

// Exists reports whether a non-expired key is present.
func (r *MemoryRepository) Exists(ctx context.Context, key string) (bool, error) {
	r.mu.RLock()
	item, ok := r.data[key]
	r.mu.RUnlock()
	return ok && time.Now().Before(item.expiresAt), nil
}

// IncrementBy atomically adds delta to a numeric counter, creating it with
// the given TTL when absent. The TTL applies from first creation.
func (r *MemoryRepository) IncrementBy(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var current int64
	item, ok := r.data[key]
	if ok && time.Now().Before(item.expiresAt) {
		current, _ = strconv.ParseInt(string(item.value), 10, 64)
	} else {
		item = memoryItem{expiresAt: time.Now().Add(ttl)}
	}
	current += delta
	item.value = []byte(strconv.FormatInt(current, 10))
	r.data[key] = item
	return current, nil
}

// GetCounter reads a counter, returning zero when absent.
func (r *MemoryRepository) GetCounter(ctx context.Context, key string) (int64, error) {
	value, err := r.Get(ctx, key)
	if err != nil {
		return 0, nil
	}
	n, err := strconv.ParseInt(string(value), 10, 64)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Keys returns non-expired keys matching a trailing-wildcard pattern.
func (r *MemoryRepository) Keys(ctx context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	now := time.Now()

	r.mu.RLock()
	defer r.mu.RUnlock()

	var keys []string
	for key, item := range r.data {
		if now.After(item.expiresAt) {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Flush drops all entries. Test reset hook.
func (r *MemoryRepository) Flush() {
	r.mu.Lock()
	r.data = make(map[string]memoryItem)
	r.mu.Unlock()
}

var _ outbound.CacheRepository = (*MemoryRepository)(nil)
