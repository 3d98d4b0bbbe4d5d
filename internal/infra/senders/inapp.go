package senders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"notiq/internal/domain/notification"

	"github.com/redis/go-redis/v9"
)

var _ notification.Sender = (*InAppSender)(nil)

// inboxCap bounds how many undelivered in-app notifications a single
// user's inbox holds.
const inboxCap = 100

// InAppSender delivers in-app notifications by appending them to the
// user's inbox list in Redis, where the application frontend picks
// them up on its next session.
type InAppSender struct {
	client *redis.Client
}

// NewInAppSender creates a new in-app sender.
func NewInAppSender(client *redis.Client) *InAppSender {
	return &InAppSender{client: client}
}

// Channel returns the in-app channel identifier.
func (s *InAppSender) Channel() notification.Channel {
	return notification.ChannelInApp
}

// Deliver appends the notification to the user's inbox.
func (s *InAppSender) Deliver(ctx context.Context, req *notification.Request) error {
	entry, err := json.Marshal(map[string]any{
		"id":        req.ID,
		"message":   req.Message,
		"timestamp": time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshaling inbox entry: %w", err)
	}

	key := fmt.Sprintf("notiq:inbox:%s", req.UserID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, entry)
	pipe.LTrim(ctx, key, 0, inboxCap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("writing inbox entry: %w", err)
	}

	return nil
}
