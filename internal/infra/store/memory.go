package store

import (
	"context"
	"sync"

	"notiq/internal/domain/notification"
)

var _ notification.HistoryStore = (*MemoryHistoryStore)(nil)

// MemoryHistoryStore is the in-process history ring, used in
// single-process mode and throughout tests. Same contract as the Redis
// store: bounded FIFO ring plus an unbounded failure log.
type MemoryHistoryStore struct {
	mu       sync.RWMutex
	records  []notification.DeliveryRecord // oldest first
	failures []notification.FailureRecord
	cap      int
}

// NewMemoryHistoryStore creates an in-memory history store.
func NewMemoryHistoryStore(cap int) *MemoryHistoryStore {
	if cap <= 0 {
		cap = 1000
	}
	return &MemoryHistoryStore{cap: cap}
}

// Append records an outcome, evicting the oldest record at capacity.
func (s *MemoryHistoryStore) Append(ctx context.Context, rec notification.DeliveryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	if len(s.records) > s.cap {
		s.records = s.records[len(s.records)-s.cap:]
	}
	return nil
}

// AppendFailure appends one attempt to the failure log.
func (s *MemoryHistoryStore) AppendFailure(ctx context.Context, rec notification.FailureRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures = append(s.failures, rec)
	return nil
}

// List returns every record, newest first.
func (s *MemoryHistoryStore) List(ctx context.Context) ([]notification.DeliveryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]notification.DeliveryRecord, 0, len(s.records))
	for i := len(s.records) - 1; i >= 0; i-- {
		records = append(records, s.records[i])
	}
	return records, nil
}

// ListByUser returns records for one user, newest first.
func (s *MemoryHistoryStore) ListByUser(ctx context.Context, userID string) ([]notification.DeliveryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]notification.DeliveryRecord, 0)
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].UserID == userID {
			records = append(records, s.records[i])
		}
	}
	return records, nil
}

// Clear empties the ring, leaving the failure log.
func (s *MemoryHistoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	return nil
}

// Failures returns the failure log, oldest first. Not part of the
// HistoryStore contract; used by tests and debugging.
func (s *MemoryHistoryStore) Failures() []notification.FailureRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]notification.FailureRecord, len(s.failures))
	copy(out, s.failures)
	return out
}
