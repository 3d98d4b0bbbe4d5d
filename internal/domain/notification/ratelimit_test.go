package notification

import (
	"context"
	"fmt"
	"testing"

	"notiq/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCounterStore is an in-test counter store with manual window
// expiry, so fixed-window behavior can be driven deterministically.
type testCounterStore struct {
	counts map[string]int64
	err    error
}

func newTestCounterStore() *testCounterStore {
	return &testCounterStore{counts: make(map[string]int64)}
}

func (s *testCounterStore) key(userID string, ch Channel, w Window) string {
	return fmt.Sprintf("%s|%s|%s", userID, ch, w)
}

func (s *testCounterStore) Counts(ctx context.Context, userID string, ch Channel) (Counts, error) {
	if s.err != nil {
		return Counts{}, s.err
	}
	return Counts{
		Minute: s.counts[s.key(userID, ch, WindowMinute)],
		Hour:   s.counts[s.key(userID, ch, WindowHour)],
		Day:    s.counts[s.key(userID, ch, WindowDay)],
	}, nil
}

func (s *testCounterStore) IncrementAll(ctx context.Context, userID string, ch Channel) error {
	if s.err != nil {
		return s.err
	}
	for _, w := range Windows {
		s.counts[s.key(userID, ch, w)]++
	}
	return nil
}

func (s *testCounterStore) Reset(ctx context.Context, userID string, ch Channel) error {
	if s.err != nil {
		return s.err
	}
	for _, w := range Windows {
		delete(s.counts, s.key(userID, ch, w))
	}
	return nil
}

// expire simulates a window's TTL elapsing.
func (s *testCounterStore) expire(userID string, ch Channel, w Window) {
	delete(s.counts, s.key(userID, ch, w))
}

func TestCheckLimitAllowsUntilMinuteLimit(t *testing.T) {
	store := newTestCounterStore()
	limiter := NewLimiter(store)
	ctx := context.Background()
	quota := Quota{MaxPerMinute: 3, MaxPerHour: 100, MaxPerDay: 100}

	for i := 0; i < 3; i++ {
		decision, err := limiter.CheckLimit(ctx, "u1", ChannelEmail, quota)
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "increment %d should be allowed", i)

		require.NoError(t, limiter.Increment(ctx, "u1", ChannelEmail))
	}

	decision, err := limiter.CheckLimit(ctx, "u1", ChannelEmail, quota)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Contains(t, decision.Reason, "per minute")
}

func TestCheckLimitIsReadOnly(t *testing.T) {
	store := newTestCounterStore()
	limiter := NewLimiter(store)
	ctx := context.Background()
	quota := Quota{MaxPerMinute: 1, MaxPerHour: 1, MaxPerDay: 1}

	// Checking many times without incrementing never trips the limit.
	for i := 0; i < 10; i++ {
		decision, err := limiter.CheckLimit(ctx, "u1", ChannelSMS, quota)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	}
}

func TestCheckLimitWindowOrder(t *testing.T) {
	store := newTestCounterStore()
	limiter := NewLimiter(store)
	ctx := context.Background()

	// Both minute and hour exhausted: the minute window is named
	// since windows are checked tightest first.
	quota := Quota{MaxPerMinute: 1, MaxPerHour: 1, MaxPerDay: 100}
	require.NoError(t, limiter.Increment(ctx, "u1", ChannelPush))

	decision, err := limiter.CheckLimit(ctx, "u1", ChannelPush, quota)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Contains(t, decision.Reason, "per minute")
}

func TestCheckLimitAfterMinuteExpiry(t *testing.T) {
	store := newTestCounterStore()
	limiter := NewLimiter(store)
	ctx := context.Background()

	quota := Quota{MaxPerMinute: 1, MaxPerHour: 100, MaxPerDay: 100}
	require.NoError(t, limiter.Increment(ctx, "u1", ChannelEmail))

	decision, err := limiter.CheckLimit(ctx, "u1", ChannelEmail, quota)
	require.NoError(t, err)
	require.False(t, decision.Allowed)

	// Minute TTL elapses; hour and day counters remain but are within
	// their limits, so the check passes again.
	store.expire("u1", ChannelEmail, WindowMinute)

	decision, err = limiter.CheckLimit(ctx, "u1", ChannelEmail, quota)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestCheckLimitHourStillExceededAfterMinuteExpiry(t *testing.T) {
	store := newTestCounterStore()
	limiter := NewLimiter(store)
	ctx := context.Background()

	quota := Quota{MaxPerMinute: 10, MaxPerHour: 2, MaxPerDay: 100}
	require.NoError(t, limiter.Increment(ctx, "u1", ChannelEmail))
	require.NoError(t, limiter.Increment(ctx, "u1", ChannelEmail))

	store.expire("u1", ChannelEmail, WindowMinute)

	decision, err := limiter.CheckLimit(ctx, "u1", ChannelEmail, quota)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Contains(t, decision.Reason, "per hour")
}

func TestResetClearsAllWindows(t *testing.T) {
	store := newTestCounterStore()
	limiter := NewLimiter(store)
	ctx := context.Background()
	quota := Quota{MaxPerMinute: 1, MaxPerHour: 1, MaxPerDay: 1}

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Increment(ctx, "u1", ChannelSMS))
	}

	decision, err := limiter.CheckLimit(ctx, "u1", ChannelSMS, quota)
	require.NoError(t, err)
	require.False(t, decision.Allowed)

	require.NoError(t, limiter.Reset(ctx, "u1", ChannelSMS))

	decision, err = limiter.CheckLimit(ctx, "u1", ChannelSMS, quota)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestLimiterRequiresUserID(t *testing.T) {
	limiter := NewLimiter(newTestCounterStore())
	ctx := context.Background()

	var invalid *common.InvalidArgumentError

	_, err := limiter.CheckLimit(ctx, "", ChannelEmail, Quota{MaxPerMinute: 1})
	require.ErrorAs(t, err, &invalid)

	err = limiter.Increment(ctx, "", ChannelEmail)
	require.ErrorAs(t, err, &invalid)

	err = limiter.Reset(ctx, "", ChannelEmail)
	require.ErrorAs(t, err, &invalid)
}

func TestUsageReportsAllWindows(t *testing.T) {
	store := newTestCounterStore()
	limiter := NewLimiter(store)
	ctx := context.Background()
	quota := Quota{MaxPerMinute: 2, MaxPerHour: 20, MaxPerDay: 50}

	require.NoError(t, limiter.Increment(ctx, "u1", ChannelEmail))

	usage, err := limiter.Usage(ctx, "u1", ChannelEmail, quota)
	require.NoError(t, err)
	require.Len(t, usage, 3)

	assert.Equal(t, WindowMinute, usage[0].Window)
	assert.Equal(t, int64(1), usage[0].Count)
	assert.Equal(t, 2, usage[0].Limit)
	assert.Equal(t, WindowHour, usage[1].Window)
	assert.Equal(t, 20, usage[1].Limit)
	assert.Equal(t, WindowDay, usage[2].Window)
	assert.Equal(t, 50, usage[2].Limit)
}

func TestUsersAndChannelsAreIsolated(t *testing.T) {
	store := newTestCounterStore()
	limiter := NewLimiter(store)
	ctx := context.Background()
	quota := Quota{MaxPerMinute: 1, MaxPerHour: 10, MaxPerDay: 10}

	require.NoError(t, limiter.Increment(ctx, "u1", ChannelSMS))

	// Same user, different channel
	decision, err := limiter.CheckLimit(ctx, "u1", ChannelEmail, quota)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	// Different user, same channel
	decision, err = limiter.CheckLimit(ctx, "u2", ChannelSMS, quota)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}
