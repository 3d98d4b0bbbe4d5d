package store

import (
	"context"
	"encoding/json"
	"fmt"

	"notiq/internal/domain/notification"

	"github.com/redis/go-redis/v9"
)

const (
	historyKey = "notiq:notifications"
	failureKey = "notiq:failed_notifications"
)

var _ notification.HistoryStore = (*RedisHistoryStore)(nil)

// RedisHistoryStore keeps the recent-history ring as a capped Redis
// list (LPUSH + LTRIM) and the failure log as an untrimmed list, so
// both survive process restarts and are shared across workers.
type RedisHistoryStore struct {
	client *redis.Client
	cap    int64
}

// NewRedisHistoryStore creates a history store on an existing Redis client.
func NewRedisHistoryStore(client *redis.Client, cap int) *RedisHistoryStore {
	if cap <= 0 {
		cap = 1000
	}
	return &RedisHistoryStore{client: client, cap: int64(cap)}
}

// Append pushes a record onto the ring and trims the oldest entries
// past the cap in the same pipeline.
func (s *RedisHistoryStore) Append(ctx context.Context, rec notification.DeliveryRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling delivery record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, historyKey, data)
	pipe.LTrim(ctx, historyKey, 0, s.cap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appending delivery record: %w", err)
	}
	return nil
}

// AppendFailure pushes one attempt onto the failure log. The log is
// deliberately untrimmed; it exists for offline inspection.
func (s *RedisHistoryStore) AppendFailure(ctx context.Context, rec notification.FailureRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling failure record: %w", err)
	}
	if err := s.client.LPush(ctx, failureKey, data).Err(); err != nil {
		return fmt.Errorf("appending failure record: %w", err)
	}
	return nil
}

// List returns every record in the ring, newest first.
func (s *RedisHistoryStore) List(ctx context.Context) ([]notification.DeliveryRecord, error) {
	raw, err := s.client.LRange(ctx, historyKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing delivery records: %w", err)
	}

	records := make([]notification.DeliveryRecord, 0, len(raw))
	for _, item := range raw {
		var rec notification.DeliveryRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			continue // skip unreadable entries rather than failing the query
		}
		records = append(records, rec)
	}
	return records, nil
}

// ListByUser returns the ring entries for one user, newest first.
func (s *RedisHistoryStore) ListByUser(ctx context.Context, userID string) ([]notification.DeliveryRecord, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]notification.DeliveryRecord, 0)
	for _, rec := range all {
		if rec.UserID == userID {
			records = append(records, rec)
		}
	}
	return records, nil
}

// Clear empties the ring. The failure log is left untouched.
func (s *RedisHistoryStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, historyKey).Err(); err != nil {
		return fmt.Errorf("clearing delivery records: %w", err)
	}
	return nil
}
