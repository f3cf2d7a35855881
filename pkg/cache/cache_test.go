package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRecorder struct {
	mu     sync.Mutex
	hits   map[string]int
	misses map[string]int
	errs   map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{hits: map[string]int{}, misses: map[string]int{}, errs: map[string]int{}}
}

func (r *countingRecorder) RecordCacheHit(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits[kind]++
}

func (r *countingRecorder) RecordCacheMiss(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.misses[kind]++
}

func (r *countingRecorder) RecordCacheError(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[op]++
}

type failingBackend struct{}

var errBackendDown = errors.New("connection refused")

func (failingBackend) Get(context.Context, string) ([]byte, error) { return nil, errBackendDown }
func (failingBackend) Set(context.Context, string, []byte, time.Duration) error {
	return errBackendDown
}
func (failingBackend) Delete(context.Context, ...string) error { return errBackendDown }
func (failingBackend) Ping(context.Context) error              { return errBackendDown }
func (failingBackend) Close() error                            { return nil }

// slowBackend blocks until the context is done.
type slowBackend struct{ failingBackend }

func (slowBackend) Get(ctx context.Context, _ string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func newMemCache(t *testing.T, opts ...Option) (*Cache, *InMemoryBackend) {
	t.Helper()
	backend := NewInMemoryBackend()
	c := New(backend, zap.NewNop(), opts...)
	t.Cleanup(func() { _ = c.Close() })
	return c, backend
}

func TestCache_PutGetRoundTrip(t *testing.T) {
	c, _ := newMemCache(t)
	ctx := context.Background()

	require.True(t, c.Put(ctx, "user:1", []byte(`{"id":1}`), time.Minute))

	got, ok := c.Get(ctx, "user:1")
	require.True(t, ok)
	assert.Equal(t, `{"id":1}`, string(got))
}

func TestCache_GetMissingKey(t *testing.T) {
	c, _ := newMemCache(t)

	got, ok := c.Get(context.Background(), "user:404")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestCache_DeleteIsIdempotent(t *testing.T) {
	c, _ := newMemCache(t)
	ctx := context.Background()

	c.Put(ctx, "contact:1:user:1", []byte("x"), time.Minute)

	c.Delete(ctx, "contact:1:user:1")
	c.Delete(ctx, "contact:1:user:1")
	c.Delete(ctx, "contact:1:user:1", "never-existed")

	_, ok := c.Get(ctx, "contact:1:user:1")
	assert.False(t, ok)
}

func TestCache_EntryExpires(t *testing.T) {
	c, backend := newMemCache(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	backend.now = func() time.Time { return now }

	c.Put(ctx, "user:a@example.com", []byte("v"), 15*time.Minute)

	now = now.Add(14 * time.Minute)
	_, ok := c.Get(ctx, "user:a@example.com")
	assert.True(t, ok, "entry must live until its ttl")

	now = now.Add(time.Minute)
	_, ok = c.Get(ctx, "user:a@example.com")
	assert.False(t, ok, "entry must be gone at its ttl")
}

func TestCache_PutReplacesValue(t *testing.T) {
	c, _ := newMemCache(t)
	ctx := context.Background()

	c.Put(ctx, "contacts:1", []byte("gen-1"), time.Minute)
	c.Put(ctx, "contacts:1", []byte("gen-2"), time.Minute)

	got, ok := c.Get(ctx, "contacts:1")
	require.True(t, ok)
	assert.Equal(t, "gen-2", string(got))
}

func TestCache_StoredValueIsCopied(t *testing.T) {
	c, _ := newMemCache(t)
	ctx := context.Background()

	buf := []byte("abc")
	c.Put(ctx, "k:1", buf, time.Minute)
	buf[0] = 'z'

	got, _ := c.Get(ctx, "k:1")
	assert.Equal(t, "abc", string(got))
}

func TestCache_FailingBackendFailsOpen(t *testing.T) {
	rec := newCountingRecorder()
	c := New(failingBackend{}, zap.NewNop(), WithRecorder(rec))
	ctx := context.Background()

	assert.False(t, c.Put(ctx, "user:1", []byte("x"), time.Minute))

	got, ok := c.Get(ctx, "user:1")
	assert.False(t, ok)
	assert.Nil(t, got)

	assert.NotPanics(t, func() { c.Delete(ctx, "user:1") })
	assert.Error(t, c.Ping(ctx))

	assert.Equal(t, 1, rec.errs["put"])
	assert.Equal(t, 1, rec.errs["get"])
	assert.Equal(t, 1, rec.errs["delete"])
	assert.Equal(t, 1, rec.misses["user"])
}

func TestCache_SlowBackendTimesOutAsMiss(t *testing.T) {
	c := New(slowBackend{}, zap.NewNop(), WithOpTimeout(20*time.Millisecond))

	start := time.Now()
	_, ok := c.Get(context.Background(), "user:1")

	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCache_UnreachableRedisFailsOpen(t *testing.T) {
	backend := NewRedisBackend(RedisConfig{
		Addr:    "127.0.0.1:1",
		Timeout: 50 * time.Millisecond,
	})
	c := New(backend, zap.NewNop(), WithOpTimeout(100*time.Millisecond))
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	assert.False(t, c.Put(ctx, "user:1", []byte("x"), time.Minute))
	_, ok := c.Get(ctx, "user:1")
	assert.False(t, ok)
	c.Delete(ctx, "user:1")
	assert.Error(t, c.Ping(ctx))
}

func TestCache_NilAndClosed(t *testing.T) {
	ctx := context.Background()

	var nilCache *Cache
	assert.False(t, nilCache.Put(ctx, "k", []byte("v"), time.Minute))
	_, ok := nilCache.Get(ctx, "k")
	assert.False(t, ok)
	nilCache.Delete(ctx, "k")
	assert.NoError(t, nilCache.Close())

	noBackend := New(nil, nil)
	_, ok = noBackend.Get(ctx, "k")
	assert.False(t, ok)

	c, _ := newMemCache(t)
	c.Put(ctx, "k", []byte("v"), time.Minute)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
	assert.False(t, c.Put(ctx, "k", []byte("v"), time.Minute))
	assert.ErrorIs(t, c.Ping(ctx), ErrClosed)
}

func TestCache_RecordsHitsAndMissesByKind(t *testing.T) {
	rec := newCountingRecorder()
	c, _ := newMemCache(t, WithRecorder(rec))
	ctx := context.Background()

	c.Put(ctx, "contact:1:user:2", []byte("x"), time.Minute)
	c.Get(ctx, "contact:1:user:2")
	c.Get(ctx, "contacts:2")

	assert.Equal(t, 1, rec.hits["contact"])
	assert.Equal(t, 1, rec.misses["contacts"])
}

func TestJSON_RoundTripAndCorruptEntry(t *testing.T) {
	type item struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	c, _ := newMemCache(t)
	ctx := context.Background()

	require.True(t, PutJSON(ctx, c, "item:1", item{ID: 1, Name: "a"}, time.Minute))
	got, ok := GetJSON[item](ctx, c, "item:1")
	require.True(t, ok)
	assert.Equal(t, item{ID: 1, Name: "a"}, got)

	c.Put(ctx, "item:2", []byte("{not json"), time.Minute)
	_, ok = GetJSON[item](ctx, c, "item:2")
	assert.False(t, ok)

	_, ok = c.Get(ctx, "item:2")
	assert.False(t, ok, "corrupt entry must be removed")
}

func TestInMemoryBackend_EvictsExpired(t *testing.T) {
	backend := NewInMemoryBackend()
	t.Cleanup(func() { _ = backend.Close() })
	ctx := context.Background()

	now := time.Now()
	backend.now = func() time.Time { return now }
	require.NoError(t, backend.Set(ctx, "a", []byte("1"), time.Second))
	require.NoError(t, backend.Set(ctx, "b", []byte("2"), 0))

	_, err := backend.Get(ctx, "a")
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = backend.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = backend.Get(ctx, "b")
	assert.NoError(t, err, "zero ttl never expires")
}

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available, skipping: %v", err)
	}
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

func TestRedisBackend_RoundTripWithPrefix(t *testing.T) {
	client := newTestRedisClient(t)
	backend := NewRedisBackendFromClient(client, "test:")
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, "user:1", []byte("v"), time.Minute))

	raw, err := client.Get(ctx, "test:user:1").Result()
	require.NoError(t, err)
	assert.Equal(t, "v", raw)

	ttl := client.PTTL(ctx, "test:user:1").Val()
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	got, err := backend.Get(ctx, "user:1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, backend.Delete(ctx, "user:1", "user:2"))
	_, err = backend.Get(ctx, "user:1")
	assert.ErrorIs(t, err, ErrNotFound)
}
