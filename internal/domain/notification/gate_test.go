package notification

import (
	"context"
	"errors"
	"testing"

	"notiq/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnqueuer records enqueued requests and can be forced to fail.
type testEnqueuer struct {
	enqueued []Request
	err      error
}

func (e *testEnqueuer) EnqueueDeliver(req Request) error {
	if e.err != nil {
		return e.err
	}
	e.enqueued = append(e.enqueued, req)
	return nil
}

func newTestGate(store *testCounterStore, enq *testEnqueuer) *Gate {
	return NewGate(NewLimiter(store), enq, DefaultQuotaTable())
}

func TestAdmitAcceptsAndCommitsUsage(t *testing.T) {
	store := newTestCounterStore()
	enq := &testEnqueuer{}
	gate := newTestGate(store, enq)

	resp, err := gate.Admit(context.Background(), &SendRequest{
		UserID:  "u1",
		Type:    "email",
		Message: "hello",
		Email:   "u1@example.com",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "queued", resp.Status)
	require.Len(t, enq.enqueued, 1)
	assert.Equal(t, "u1", enq.enqueued[0].UserID)
	assert.Equal(t, "u1@example.com", enq.enqueued[0].Target())

	counts, err := store.Counts(context.Background(), "u1", ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Minute)
	assert.Equal(t, int64(1), counts.Hour)
	assert.Equal(t, int64(1), counts.Day)
}

func TestAdmitRejectsMissingFields(t *testing.T) {
	gate := newTestGate(newTestCounterStore(), &testEnqueuer{})

	tests := []struct {
		name string
		req  SendRequest
	}{
		{"missing user", SendRequest{Type: "email", Message: "hi"}},
		{"missing type", SendRequest{UserID: "u1", Message: "hi"}},
		{"missing message", SendRequest{UserID: "u1", Type: "email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gate.Admit(context.Background(), &tt.req)
			var invalid *common.InvalidArgumentError
			require.ErrorAs(t, err, &invalid)
		})
	}
}

func TestAdmitRejectsOverQuota(t *testing.T) {
	store := newTestCounterStore()
	enq := &testEnqueuer{}
	gate := newTestGate(store, enq)
	ctx := context.Background()

	// SMS tier allows 1 per minute.
	_, err := gate.Admit(ctx, &SendRequest{UserID: "u1", Type: "sms", Message: "hi", Phone: "+15550100"})
	require.NoError(t, err)

	_, err = gate.Admit(ctx, &SendRequest{UserID: "u1", Type: "sms", Message: "hi", Phone: "+15550100"})
	var quota *common.QuotaExceededError
	require.ErrorAs(t, err, &quota)
	assert.Contains(t, quota.Reason, "per minute")
	assert.Equal(t, 60, quota.RetryAfterSeconds, "sms suggests the longer retry hint")

	// The rejected request never reached the queue.
	assert.Len(t, enq.enqueued, 1)
}

func TestAdmitRetryHintForNonSMS(t *testing.T) {
	store := newTestCounterStore()
	gate := newTestGate(store, &testEnqueuer{})
	ctx := context.Background()

	// Email tier allows 2 per minute.
	for i := 0; i < 2; i++ {
		_, err := gate.Admit(ctx, &SendRequest{UserID: "u1", Type: "email", Message: "hi"})
		require.NoError(t, err)
	}

	_, err := gate.Admit(ctx, &SendRequest{UserID: "u1", Type: "email", Message: "hi"})
	var quota *common.QuotaExceededError
	require.ErrorAs(t, err, &quota)
	assert.Equal(t, 30, quota.RetryAfterSeconds)
}

func TestAdmitQueueFailureConsumesNoQuota(t *testing.T) {
	store := newTestCounterStore()
	enq := &testEnqueuer{err: errors.New("broker down")}
	gate := newTestGate(store, enq)

	_, err := gate.Admit(context.Background(), &SendRequest{UserID: "u1", Type: "email", Message: "hi"})
	var unavailable *common.QueueUnavailableError
	require.ErrorAs(t, err, &unavailable)

	counts, err := store.Counts(context.Background(), "u1", ChannelEmail)
	require.NoError(t, err)
	assert.Zero(t, counts.Minute, "failed enqueue must not consume quota")
}

func TestAdmitUnknownTypeUsesDefaultTier(t *testing.T) {
	store := newTestCounterStore()
	enq := &testEnqueuer{}
	gate := newTestGate(store, enq)
	ctx := context.Background()

	// Default tier allows 2 per minute; the request is admitted even
	// though no sender exists (unroutable is a dispatch-time outcome).
	for i := 0; i < 2; i++ {
		_, err := gate.Admit(ctx, &SendRequest{UserID: "u1", Type: "carrier-pigeon", Message: "hi"})
		require.NoError(t, err)
	}

	_, err := gate.Admit(ctx, &SendRequest{UserID: "u1", Type: "carrier-pigeon", Message: "hi"})
	var quota *common.QuotaExceededError
	require.ErrorAs(t, err, &quota)
	assert.Len(t, enq.enqueued, 2)
}

func TestAdmitFailsOpenOnBrokenCounterStore(t *testing.T) {
	store := newTestCounterStore()
	store.err = errors.New("counter store down")
	enq := &testEnqueuer{}
	gate := newTestGate(store, enq)

	resp, err := gate.Admit(context.Background(), &SendRequest{UserID: "u1", Type: "email", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "queued", resp.Status)
	assert.Len(t, enq.enqueued, 1)
}

func TestQuotaTableFallback(t *testing.T) {
	table := DefaultQuotaTable()

	assert.Equal(t, 1, table.For(ChannelSMS).MaxPerMinute)
	assert.Equal(t, 5, table.For(ChannelInApp).MaxPerMinute)
	assert.Equal(t, table.Default, table.For(Channel("unknown")))
}
