package senders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"notiq/internal/domain/notification"
)

var _ notification.Sender = (*PushSender)(nil)

// PushSender delivers push notifications through an HTTP push gateway.
// A request may target a single device token or fan out over a token
// list; fan-out failures are collected so one bad token does not hide
// the others.
type PushSender struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

// NewPushSender creates a new push sender.
func NewPushSender(apiURL, apiKey string) *PushSender {
	return &PushSender{
		apiURL:     apiURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Channel returns the push channel identifier.
func (s *PushSender) Channel() notification.Channel {
	return notification.ChannelPush
}

// Deliver sends the notification to every device token on the request.
func (s *PushSender) Deliver(ctx context.Context, req *notification.Request) error {
	tokens := req.DeviceTokens
	if len(tokens) == 0 {
		tokens = []string{req.Target()}
	}

	var errs []error
	for _, token := range tokens {
		if err := s.send(ctx, token, req.Message); err != nil {
			errs = append(errs, fmt.Errorf("token %s: %w", token, err))
		}
	}
	return errors.Join(errs...)
}

// send pushes the message to one device token.
func (s *PushSender) send(ctx context.Context, token, message string) error {
	payload := map[string]any{
		"token": token,
		"notification": map[string]string{
			"title": "Notification",
			"body":  message,
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling push payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return fmt.Errorf("push gateway: status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
