package cache

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"contacts-api/pkg/metrics"

	"go.uber.org/zap"
)

const defaultOpTimeout = 200 * time.Millisecond

// Cache is the fail-open facade over a Backend. A nil *Cache, a nil backend
// and a closed Cache all behave as a cache that never hits.
type Cache struct {
	backend  Backend
	log      *zap.Logger
	recorder metrics.CacheRecorder
	timeout  time.Duration
	closed   atomic.Bool
}

type Option func(*Cache)

// WithOpTimeout bounds every backend call. Non-positive values keep the default.
func WithOpTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithRecorder(r metrics.CacheRecorder) Option {
	return func(c *Cache) {
		if r != nil {
			c.recorder = r
		}
	}
}

func New(backend Backend, log *zap.Logger, opts ...Option) *Cache {
	if log == nil {
		log = zap.NewNop()
	}

	c := &Cache{
		backend:  backend,
		log:      log.With(zap.String("component", "cache")),
		recorder: metrics.Nop{},
		timeout:  defaultOpTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Cache) usable() bool {
	return c != nil && c.backend != nil && !c.closed.Load()
}

// Put stores value under key for ttl and reports whether the write landed.
func (c *Cache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	if !c.usable() {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.backend.Set(ctx, key, value, ttl); err != nil {
		c.fail("put", key, err)
		return false
	}
	return true
}

// Get returns the stored value. Backend failures are reported as a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.usable() {
		if c != nil {
			c.recorder.RecordCacheMiss(kindOf(key))
		}
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	val, err := c.backend.Get(ctx, key)
	switch {
	case err == nil:
		c.recorder.RecordCacheHit(kindOf(key))
		return val, true
	case errors.Is(err, ErrNotFound):
		c.recorder.RecordCacheMiss(kindOf(key))
	default:
		c.fail("get", key, err)
		c.recorder.RecordCacheMiss(kindOf(key))
	}
	return nil, false
}

// Delete removes keys. Missing keys and backend failures are both silent to the caller.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if !c.usable() || len(keys) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.backend.Delete(ctx, keys...); err != nil {
		c.fail("delete", strings.Join(keys, ","), err)
	}
}

// Ping reports backend reachability. Only the health endpoint looks at it.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil || c.backend == nil {
		return errors.New("cache: not configured")
	}
	if c.closed.Load() {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return c.backend.Ping(ctx)
}

// Close releases the backend. Later calls behave as misses.
func (c *Cache) Close() error {
	if c == nil || c.backend == nil {
		return nil
	}
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.backend.Close()
}

func (c *Cache) fail(op, key string, err error) {
	c.recorder.RecordCacheError(op)
	c.log.Warn("Cache operation failed",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err),
	)
}

// kindOf labels a key by its leading segment, e.g. "user" or "contact".
func kindOf(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "other"
}
