// Package cache provides a read-through cache for per-company ledger
// settings. Settings are read on every document booked and change
// rarely, so a short TTL in front of the database removes most of the
// settings traffic.
package cache

import (
	"context"
	"time"
)

// Store is a string key/value store with per-entry TTL.
type Store interface {
	// Get returns the value and whether the key was present
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key for ttl
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Delete removes key; deleting an absent key is not an error
	Delete(ctx context.Context, key string) error

	// Close releases store resources
	Close() error
}
