package ratelimit

import (
	"context"
	"fmt"
	"strconv"

	"notiq/internal/domain/notification"

	"github.com/redis/go-redis/v9"
)

var _ notification.CounterStore = (*RedisCounterStore)(nil)

// RedisCounterStore keeps the fixed-window usage counters in Redis so
// every producer process sees the same quota state. Each window is a
// plain counter key whose TTL equals the window length; expiry resets
// the count implicitly.
type RedisCounterStore struct {
	client *redis.Client
}

// NewRedisCounterStore creates a counter store on an existing Redis client.
func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

// key builds the counter key for one (user, channel, window) triple.
func key(userID string, ch notification.Channel, w notification.Window) string {
	return fmt.Sprintf("notiq:ratelimit:%s:%s:%s", ch, userID, w)
}

// Counts reads the three window counters in one round trip. Missing or
// expired keys read as zero.
func (s *RedisCounterStore) Counts(ctx context.Context, userID string, ch notification.Channel) (notification.Counts, error) {
	keys := make([]string, 0, len(notification.Windows))
	for _, w := range notification.Windows {
		keys = append(keys, key(userID, ch, w))
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return notification.Counts{}, fmt.Errorf("reading counters: %w", err)
	}

	var counts notification.Counts
	for i, w := range notification.Windows {
		n := parseCount(vals[i])
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

// IncrementAll bumps all three counters inside a MULTI/EXEC transaction
// so a crash cannot leave the windows inconsistent with each other.
// EXPIRE NX sets the TTL only when the increment created the key, so an
// existing window keeps its original expiry (fixed-window semantics).
func (s *RedisCounterStore) IncrementAll(ctx context.Context, userID string, ch notification.Channel) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, w := range notification.Windows {
			k := key(userID, ch, w)
			pipe.Incr(ctx, k)
			pipe.ExpireNX(ctx, k, w.Duration())
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("incrementing counters: %w", err)
	}
	return nil
}

// Reset deletes all three counters immediately.
func (s *RedisCounterStore) Reset(ctx context.Context, userID string, ch notification.Channel) error {
	keys := make([]string, 0, len(notification.Windows))
	for _, w := range notification.Windows {
		keys = append(keys, key(userID, ch, w))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("deleting counters: %w", err)
	}
	return nil
}

// parseCount converts an MGET result value to a count. Redis returns
// counter values as strings; nil means the key does not exist.
func parseCount(v any) int64 {
	str, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
