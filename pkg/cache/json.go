package cache

import (
	"context"
	"encoding/json"
	"time"
)

// PutJSON encodes value and stores it under key.
func PutJSON[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) bool {
	if !c.usable() {
		return false
	}

	raw, err := json.Marshal(value)
	if err != nil {
		c.fail("encode", key, err)
		return false
	}
	return c.Put(ctx, key, raw, ttl)
}

// GetJSON loads and decodes key. An entry that fails to decode is dropped and
// reported as a miss.
func GetJSON[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var out T

	raw, ok := c.Get(ctx, key)
	if !ok {
		return out, false
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		c.fail("decode", key, err)
		c.Delete(ctx, key)
		var zero T
		return zero, false
	}
	return out, true
}
