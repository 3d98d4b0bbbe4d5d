package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"notiq/internal/common"
	"notiq/internal/metrics"

	"github.com/google/uuid"
)

// Enqueuer defines the contract for placing a notification on the
// dispatch queue. This keeps the gate decoupled from the concrete
// queue backend.
type Enqueuer interface {
	EnqueueDeliver(req Request) error
}

// Gate is the admission gate: the synchronous check a request passes
// before it enters the pipeline. The ordering is check, then enqueue,
// then commit usage — a failed enqueue never consumes quota, and a
// rejected request never touches the queue.
type Gate struct {
	limiter  *Limiter
	enqueuer Enqueuer
	quotas   QuotaTable
}

// NewGate creates a new admission gate.
func NewGate(limiter *Limiter, enqueuer Enqueuer, quotas QuotaTable) *Gate {
	return &Gate{
		limiter:  limiter,
		enqueuer: enqueuer,
		quotas:   quotas,
	}
}

// Admit validates a request, checks its quota tier, enqueues it, and
// commits the usage counters. Two concurrent admissions for the same
// user can both pass the check before either commits; usage converges
// to within the limit once in-flight requests settle, which is the
// accepted slack for an overload-protection heuristic.
func (g *Gate) Admit(ctx context.Context, in *SendRequest) (*SendResponse, error) {
	req := Request{
		ID:           uuid.New().String(),
		UserID:       in.UserID,
		Type:         Channel(in.Type),
		Message:      in.Message,
		Email:        in.Email,
		Phone:        in.Phone,
		DeviceToken:  in.DeviceToken,
		DeviceTokens: in.DeviceTokens,
		CreatedAt:    time.Now().UTC(),
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	quota := g.quotas.For(req.Type)

	decision, err := g.limiter.CheckLimit(ctx, req.UserID, req.Type, quota)
	if err != nil {
		var invalid *common.InvalidArgumentError
		if errors.As(err, &invalid) {
			return nil, err
		}
		// Fail open — a broken counter store must not take down admission.
		slog.Error("quota check failed, admitting without limit",
			"user_id", req.UserID,
			"type", req.Type,
			"error", err,
		)
	} else if !decision.Allowed {
		metrics.NotificationsRejected.WithLabelValues(string(req.Type)).Inc()
		return nil, common.NewQuotaExceededError(decision.Reason, RetryAfterHint(req.Type))
	}

	if err := g.enqueuer.EnqueueDeliver(req); err != nil {
		return nil, common.NewQueueUnavailableError(fmt.Errorf("enqueuing notification: %w", err))
	}

	// Commit usage only now that the request is durably queued.
	if err := g.limiter.Increment(ctx, req.UserID, req.Type); err != nil {
		slog.Error("failed to commit usage counters",
			"user_id", req.UserID,
			"type", req.Type,
			"error", err,
		)
	}

	metrics.NotificationsAdmitted.WithLabelValues(string(req.Type)).Inc()

	slog.Info("notification admitted",
		"id", req.ID,
		"user_id", req.UserID,
		"type", req.Type,
	)

	return &SendResponse{
		ID:        req.ID,
		UserID:    req.UserID,
		Type:      string(req.Type),
		Message:   req.Message,
		Status:    "queued",
		CreatedAt: req.CreatedAt,
	}, nil
}

// Usage reports current usage against the quota tier for a (user,
// channel) pair, for the introspection API.
func (g *Gate) Usage(ctx context.Context, userID string, ch Channel) ([]WindowUsage, error) {
	return g.limiter.Usage(ctx, userID, ch, g.quotas.For(ch))
}

// ResetLimits clears the usage counters for a (user, channel) pair.
func (g *Gate) ResetLimits(ctx context.Context, userID string, ch Channel) error {
	if err := g.limiter.Reset(ctx, userID, ch); err != nil {
		return err
	}
	slog.Info("usage counters reset", "user_id", userID, "type", ch)
	return nil
}
