package notification

import (
	"context"
	"fmt"
	"time"

	"notiq/internal/common"
)

// Window identifies one of the three fixed quota windows.
type Window string

const (
	WindowMinute Window = "minute"
	WindowHour   Window = "hour"
	WindowDay    Window = "day"
)

// Windows lists the quota windows in check order: the tightest window
// is reported first when more than one is exhausted.
var Windows = []Window{WindowMinute, WindowHour, WindowDay}

// Duration returns the window length, which is also the counter TTL.
func (w Window) Duration() time.Duration {
	switch w {
	case WindowMinute:
		return time.Minute
	case WindowHour:
		return time.Hour
	case WindowDay:
		return 24 * time.Hour
	}
	return time.Minute
}

// Counts holds the current usage counters for one (user, channel) pair.
type Counts struct {
	Minute int64
	Hour   int64
	Day    int64
}

// Per returns the count for a window.
func (c Counts) Per(w Window) int64 {
	switch w {
	case WindowMinute:
		return c.Minute
	case WindowHour:
		return c.Hour
	case WindowDay:
		return c.Day
	}
	return 0
}

// limit returns the quota bound for a window.
func (q Quota) limit(w Window) int {
	switch w {
	case WindowMinute:
		return q.MaxPerMinute
	case WindowHour:
		return q.MaxPerHour
	case WindowDay:
		return q.MaxPerDay
	}
	return 0
}

// CounterStore is the usage counter abstraction: an external atomic
// key-value service keyed by (user, channel, window), with each counter
// carrying a TTL equal to its window. Implementations live in
// infra/ratelimit/.
type CounterStore interface {
	// Counts reads the three window counters. Expired counters read as zero.
	Counts(ctx context.Context, userID string, ch Channel) (Counts, error)

	// IncrementAll increments all three window counters as one atomic
	// unit. A counter's TTL is set only when the increment creates it;
	// incrementing an existing counter must not extend its expiry.
	IncrementAll(ctx context.Context, userID string, ch Channel) error

	// Reset deletes all three counters immediately, independent of TTL.
	Reset(ctx context.Context, userID string, ch Channel) error
}

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// WindowUsage reports current usage against the limit for one window,
// for the introspection API.
type WindowUsage struct {
	Window Window `json:"window"`
	Count  int64  `json:"count"`
	Limit  int    `json:"limit"`
}

// Limiter evaluates and records per-user, per-channel notification
// volume against a quota over the three fixed windows.
type Limiter struct {
	store CounterStore
}

// NewLimiter creates a Limiter backed by the given counter store.
func NewLimiter(store CounterStore) *Limiter {
	return &Limiter{store: store}
}

// CheckLimit reports whether another notification is within quota.
// The check is read-only: committing usage is a separate Increment step
// so a request can be checked, the protected action attempted, and the
// counters touched only once the action actually succeeds.
func (l *Limiter) CheckLimit(ctx context.Context, userID string, ch Channel, quota Quota) (Decision, error) {
	if userID == "" {
		return Decision{}, common.NewInvalidArgumentError("user_id is required for rate limiting")
	}

	counts, err := l.store.Counts(ctx, userID, ch)
	if err != nil {
		return Decision{}, fmt.Errorf("reading usage counters: %w", err)
	}

	for _, w := range Windows {
		if counts.Per(w) >= int64(quota.limit(w)) {
			return Decision{
				Allowed: false,
				Reason:  fmt.Sprintf("rate limit exceeded: %d %s notifications per %s", quota.limit(w), ch, w),
			}, nil
		}
	}

	return Decision{Allowed: true}, nil
}

// Increment commits one unit of usage to all three windows.
func (l *Limiter) Increment(ctx context.Context, userID string, ch Channel) error {
	if userID == "" {
		return common.NewInvalidArgumentError("user_id is required for rate limiting")
	}
	if err := l.store.IncrementAll(ctx, userID, ch); err != nil {
		return fmt.Errorf("incrementing usage counters: %w", err)
	}
	return nil
}

// Reset clears all counters for a (user, channel) pair. Administrative.
func (l *Limiter) Reset(ctx context.Context, userID string, ch Channel) error {
	if userID == "" {
		return common.NewInvalidArgumentError("user_id is required for rate limiting")
	}
	if err := l.store.Reset(ctx, userID, ch); err != nil {
		return fmt.Errorf("resetting usage counters: %w", err)
	}
	return nil
}

// Usage reports current usage against the quota for every window.
func (l *Limiter) Usage(ctx context.Context, userID string, ch Channel, quota Quota) ([]WindowUsage, error) {
	if userID == "" {
		return nil, common.NewInvalidArgumentError("user_id is required for rate limiting")
	}

	counts, err := l.store.Counts(ctx, userID, ch)
	if err != nil {
		return nil, fmt.Errorf("reading usage counters: %w", err)
	}

	usage := make([]WindowUsage, 0, len(Windows))
	for _, w := range Windows {
		usage = append(usage, WindowUsage{
			Window: w,
			Count:  counts.Per(w),
			Limit:  quota.limit(w),
		})
	}
	return usage, nil
}
