// Package cache provides the fail-open key/value cache that sits in front of
// the relational store. Backends report errors; Cache swallows them so that
// business code only ever sees hits and misses.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Backend when a key does not exist or has expired.
var ErrNotFound = errors.New("cache: key not found")

// ErrClosed is returned by a Backend after Close.
var ErrClosed = errors.New("cache: backend closed")

// Backend is the raw storage behind Cache. All operations must be safe for
// concurrent use.
type Backend interface {
	// Get returns ErrNotFound for absent or expired keys.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value with an absolute expiry of now+ttl, replacing any
	// previous entry in a single atomic write.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes keys. Absent keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	Ping(ctx context.Context) error
	Close() error
}
