package notification

import (
	"context"
	"time"
)

// DeliveryStatus is the terminal outcome recorded for a notification.
type DeliveryStatus string

const (
	StatusDelivered DeliveryStatus = "delivered"
	StatusFailed    DeliveryStatus = "failed"
	StatusDead      DeliveryStatus = "dead"
)

// DeliveryRecord is one entry in the recent-history store.
type DeliveryRecord struct {
	ID        string         `json:"id"`
	Type      Channel        `json:"type"`
	UserID    string         `json:"user_id"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Status    DeliveryStatus `json:"status"`
	Error     string         `json:"error,omitempty"`
}

// FailureRecord is one entry in the failure log. Unlike the bounded
// history ring, the failure log keeps every attempt for offline
// inspection, one entry per failed attempt.
type FailureRecord struct {
	ID        string    `json:"id"`
	Type      Channel   `json:"type"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Attempt   int       `json:"attempt"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryStore is the recent-history buffer plus the failure log.
// The history side is a bounded ring: once the cap is exceeded the
// oldest records are evicted first. Implementations live in infra/store/.
type HistoryStore interface {
	// Append records a terminal delivery outcome, evicting the oldest
	// record when the ring is at capacity.
	Append(ctx context.Context, rec DeliveryRecord) error

	// AppendFailure appends one attempt to the failure log.
	AppendFailure(ctx context.Context, rec FailureRecord) error

	// List returns recent records, newest first.
	List(ctx context.Context) ([]DeliveryRecord, error)

	// ListByUser returns recent records for one user, newest first.
	ListByUser(ctx context.Context, userID string) ([]DeliveryRecord, error)

	// Clear empties the history ring. Test/reset utility; the failure
	// log is left untouched.
	Clear(ctx context.Context) error
}
