package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const defaultCleanupInterval = 30 * time.Second

// InMemoryStore implements Store using process-local storage. Suitable
// for single-instance deployments and testing; instances do not share
// cached settings, so a setting change becomes visible on other
// instances only after their entries expire.
type InMemoryStore struct {
	entries sync.Map // map[string]*memoryEntry
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped int32

	hits   int64
	misses int64
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func (e *memoryEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemoryStoreOption is a functional option for configuring the store
type InMemoryStoreOption func(*InMemoryStore)

// WithInMemoryLogger sets the logger for the store
func WithInMemoryLogger(logger *zap.Logger) InMemoryStoreOption {
	return func(s *InMemoryStore) {
		s.logger = logger
	}
}

// NewInMemoryStore creates a new in-memory store with background
// expiry cleanup
func NewInMemoryStore(opts ...InMemoryStoreOption) *InMemoryStore {
	store := &InMemoryStore{
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(store)
	}

	go store.cleanupExpired()

	return store
}

// Get returns the value and whether the key was present
func (s *InMemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	if value, ok := s.entries.Load(key); ok {
		entry := value.(*memoryEntry)
		if !entry.isExpired() {
			atomic.AddInt64(&s.hits, 1)
			return entry.value, true, nil
		}
		s.entries.Delete(key)
	}

	atomic.AddInt64(&s.misses, 1)
	return "", false, nil
}

// Set stores value under key for ttl
func (s *InMemoryStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	s.entries.Store(key, &memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	})
	return nil
}

// Delete removes key
func (s *InMemoryStore) Delete(ctx context.Context, key string) error {
	s.entries.Delete(key)
	return nil
}

// Close stops the cleanup goroutine
func (s *InMemoryStore) Close() error {
	if atomic.CompareAndSwapInt32(&s.stopped, 0, 1) {
		close(s.stopCh)
	}
	return nil
}

// Stats returns hit and miss counts for monitoring
func (s *InMemoryStore) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&s.hits), atomic.LoadInt64(&s.misses)
}

func (s *InMemoryStore) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			removed := 0
			s.entries.Range(func(key, value interface{}) bool {
				if value.(*memoryEntry).isExpired() {
					s.entries.Delete(key)
					removed++
				}
				return true
			})
			if removed > 0 {
				s.logger.Debug("removed expired cache entries", zap.Int("count", removed))
			}
		}
	}
}

// Ensure InMemoryStore implements Store
var _ Store = (*InMemoryStore)(nil)
