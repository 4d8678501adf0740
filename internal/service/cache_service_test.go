package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/academic-grading-api/pkg/errors"
)

type memoryCache struct {
	mu        sync.Mutex
	entries   map[string][]byte
	patterns  []string
	failWrite error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return m.failWrite
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = payload
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = append(m.patterns, pattern)
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
		}
	}
	return nil
}

func TestCacheServiceHitAndMiss(t *testing.T) {
	store := newMemoryCache()
	metrics := NewMetricsService()
	cache := NewCacheService(store, metrics, time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	var out []string
	hit, err := cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "k", []string{"a"}, 0))
	hit, err = cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a"}, out)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.Cache.Hits)
	assert.Equal(t, uint64(1), snapshot.Cache.Misses)
	assert.InDelta(t, 0.5, snapshot.Cache.HitRatio, 0.0001)
}

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	store := newMemoryCache()
	cache := NewCacheService(store, nil, 0, zap.NewNop(), false)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", 1, 0))
	assert.Empty(t, store.entries)

	var nilCache *CacheService
	hit, err := nilCache.Get(ctx, "k", new(int))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, nilCache.Invalidate(ctx, "*"))
}

func TestCacheServiceSetFailureSurfaces(t *testing.T) {
	store := newMemoryCache()
	store.failWrite = errors.New("redis down")
	cache := NewCacheService(store, nil, 0, zap.NewNop(), true)

	err := cache.Set(context.Background(), "k", 1, 0)
	assert.Error(t, err)
}

func TestRosterPatternMatchesSemesterKeys(t *testing.T) {
	ok, err := path.Match(rosterPattern("sem-1"), rosterKey("prog-1", "sem-1"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = path.Match(rosterPattern("sem-1"), rosterKey("prog-1", "sem-2"))
	assert.False(t, ok)

	ok, _ = path.Match(rosterPattern("*"), rosterKey("prog-9", "sem-2"))
	assert.True(t, ok)
}
