package ratelimit

import (
	"context"
	"sync"

	"notiq/internal/domain/notification"

	gocache "github.com/patrickmn/go-cache"
)

var _ notification.CounterStore = (*MemoryCounterStore)(nil)

// MemoryCounterStore keeps the fixed-window counters in process memory
// with per-key TTLs. Used in single-process mode and throughout tests;
// the semantics match the Redis store, including TTL-on-create only.
type MemoryCounterStore struct {
	cache *gocache.Cache
	mu    sync.Mutex
}

// NewMemoryCounterStore creates an in-memory counter store.
func NewMemoryCounterStore() *MemoryCounterStore {
	// No default TTL; every counter carries its own window TTL.
	return &MemoryCounterStore{
		cache: gocache.New(gocache.NoExpiration, 2*notification.WindowMinute.Duration()),
	}
}

// Counts reads the three window counters. Expired entries read as zero.
func (s *MemoryCounterStore) Counts(ctx context.Context, userID string, ch notification.Channel) (notification.Counts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var counts notification.Counts
	for _, w := range notification.Windows {
		n := int64(0)
		if v, ok := s.cache.Get(key(userID, ch, w)); ok {
			n = v.(int64)
		}
		switch w {
		case notification.WindowMinute:
			counts.Minute = n
		case notification.WindowHour:
			counts.Hour = n
		case notification.WindowDay:
			counts.Day = n
		}
	}
	return counts, nil
}

// IncrementAll bumps all three counters under one lock so the windows
// never diverge. A counter created by the increment gets its window
// TTL; an existing counter keeps its original expiry.
func (s *MemoryCounterStore) IncrementAll(ctx context.Context, userID string, ch notification.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range notification.Windows {
		k := key(userID, ch, w)
		if _, ok := s.cache.Get(k); !ok {
			s.cache.Set(k, int64(1), w.Duration())
			continue
		}
		if err := s.cache.Increment(k, 1); err != nil {
			// The entry expired between Get and Increment; recreate it.
			s.cache.Set(k, int64(1), w.Duration())
		}
	}
	return nil
}

// Reset deletes all three counters immediately.
func (s *MemoryCounterStore) Reset(ctx context.Context, userID string, ch notification.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range notification.Windows {
		s.cache.Delete(key(userID, ch, w))
	}
	return nil
}
