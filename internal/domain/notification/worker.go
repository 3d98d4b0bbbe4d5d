package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"notiq/internal/common"
	"notiq/internal/metrics"

	"github.com/hibiken/asynq"
)

// Worker consumes deliver tasks from the dispatch queue. Each claimed
// entry moves through route → deliver → ack/nack: a returned error
// nacks the task back onto the queue for redelivery, a nil return acks
// it. Unroutable entries are acked immediately since retrying cannot
// fix an unknown channel.
type Worker struct {
	senders map[Channel]Sender
	history HistoryStore

	// retryState reports the current attempt number and whether it is
	// the final one before the entry is parked. Defaults to reading the
	// queue's task metadata; swapped out in tests.
	retryState func(ctx context.Context) (attempt int, final bool)
}

// NewWorker creates a new dispatch worker.
func NewWorker(history HistoryStore, senders ...Sender) *Worker {
	sm := make(map[Channel]Sender, len(senders))
	for _, s := range senders {
		sm[s.Channel()] = s
	}
	return &Worker{
		senders:    sm,
		history:    history,
		retryState: asynqRetryState,
	}
}

// asynqRetryState derives the attempt number and finality from the
// task metadata asynq carries in the handler context. Without that
// metadata the entry is treated as a first, non-final attempt.
func asynqRetryState(ctx context.Context) (int, bool) {
	attempt := 1
	if n, ok := asynq.GetRetryCount(ctx); ok {
		attempt = n + 1 // retry count is zero on the first delivery attempt
	}
	final := false
	if maxRetry, ok := asynq.GetMaxRetry(ctx); ok {
		final = attempt > maxRetry
	}
	return attempt, final
}

// ProcessTask handles one claimed queue entry.
func (w *Worker) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDeliverPayload(task.Payload())
	if err != nil {
		// A payload that cannot be decoded will never decode on retry.
		slog.Error("discarding undecodable queue entry", "error", err)
		return fmt.Errorf("parsing queue entry: %v: %w", err, asynq.SkipRetry)
	}

	req := payload.Request
	attempt, final := w.retryState(ctx)

	sender, ok := w.senders[req.Type]
	if !ok {
		// Unroutable: ack and log. Treated as permanently
		// unprocessable, not retried.
		errMsg := fmt.Sprintf("unroutable notification type: %s", req.Type)
		w.recordFailure(ctx, req, attempt, errMsg)
		w.record(ctx, req, StatusFailed, errMsg)
		metrics.NotificationsDead.WithLabelValues(string(req.Type)).Inc()

		slog.Warn("unroutable notification acknowledged",
			"id", req.ID,
			"type", req.Type,
			"user_id", req.UserID,
		)
		return nil
	}

	start := time.Now()
	err = sender.Deliver(ctx, &req)
	metrics.DeliveryDuration.WithLabelValues(string(req.Type)).Observe(time.Since(start).Seconds())

	if err != nil {
		w.recordFailure(ctx, req, attempt, err.Error())
		metrics.DeliveryFailures.WithLabelValues(string(req.Type)).Inc()

		if final {
			// Final attempt failed: the queue parks the entry as
			// dead once this error is returned.
			w.record(ctx, req, StatusDead, err.Error())
			metrics.NotificationsDead.WithLabelValues(string(req.Type)).Inc()
		}

		slog.Error("notification delivery failed",
			"id", req.ID,
			"type", req.Type,
			"user_id", req.UserID,
			"attempt", attempt,
			"final", final,
			"error", err,
			"duration", time.Since(start),
		)
		return common.NewDeliveryError(string(req.Type), err.Error())
	}

	w.record(ctx, req, StatusDelivered, "")
	metrics.NotificationsDelivered.WithLabelValues(string(req.Type)).Inc()

	slog.Info("notification delivered",
		"id", req.ID,
		"type", req.Type,
		"user_id", req.UserID,
		"attempt", attempt,
		"queue_latency", time.Since(payload.EnqueuedAt).Round(time.Millisecond),
		"duration", time.Since(start),
	)
	return nil
}

// record writes a terminal outcome to the recent-history ring.
func (w *Worker) record(ctx context.Context, req Request, status DeliveryStatus, errMsg string) {
	rec := DeliveryRecord{
		ID:        req.ID,
		Type:      req.Type,
		UserID:    req.UserID,
		Message:   req.Message,
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     errMsg,
	}
	if err := w.history.Append(ctx, rec); err != nil {
		slog.Error("failed to record delivery history", "id", req.ID, "error", err)
	}
}

// recordFailure appends one attempt to the failure log.
func (w *Worker) recordFailure(ctx context.Context, req Request, attempt int, errMsg string) {
	rec := FailureRecord{
		ID:        req.ID,
		Type:      req.Type,
		UserID:    req.UserID,
		Message:   req.Message,
		Attempt:   attempt,
		Error:     errMsg,
		Timestamp: time.Now().UTC(),
	}
	if err := w.history.AppendFailure(ctx, rec); err != nil {
		slog.Error("failed to record delivery failure", "id", req.ID, "error", err)
	}
}
