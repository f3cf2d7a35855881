package cache

import (
	"context"
	"sync"
	"time"
)

// InMemoryBackend is a process-local Backend. It backs tests and single
// instance deployments that run without Redis.
type InMemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	stop    chan struct{}
	once    sync.Once
	now     func() time.Time
}

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// NewInMemoryBackend creates the backend and starts its eviction loop.
func NewInMemoryBackend() *InMemoryBackend {
	b := &InMemoryBackend{
		entries: make(map[string]memEntry),
		stop:    make(chan struct{}),
		now:     time.Now,
	}
	go b.evictLoop(30 * time.Second)
	return b
}

func (b *InMemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, ok := b.entries[key]
	if !ok || entry.expired(b.now()) {
		return nil, ErrNotFound
	}

	cp := make([]byte, len(entry.value))
	copy(cp, entry.value)
	return cp, nil
}

func (b *InMemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = b.now().Add(ttl)
	}

	cp := make([]byte, len(value))
	copy(cp, value)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.entries == nil {
		return ErrClosed
	}
	b.entries[key] = memEntry{value: cp, expiresAt: expiresAt}
	return nil
}

func (b *InMemoryBackend) Delete(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, key := range keys {
		delete(b.entries, key)
	}
	return nil
}

func (b *InMemoryBackend) Ping(_ context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.entries == nil {
		return ErrClosed
	}
	return nil
}

func (b *InMemoryBackend) Close() error {
	b.once.Do(func() {
		close(b.stop)
		b.mu.Lock()
		b.entries = nil
		b.mu.Unlock()
	})
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (b *InMemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

func (b *InMemoryBackend) evictLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			now := b.now()
			b.mu.Lock()
			for key, entry := range b.entries {
				if entry.expired(now) {
					delete(b.entries, key)
				}
			}
			b.mu.Unlock()
		}
	}
}
