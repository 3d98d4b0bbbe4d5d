package senders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"notiq/internal/domain/notification"
)

var _ notification.Sender = (*SMSSender)(nil)

// SMSSender delivers SMS notifications through an HTTP SMS gateway.
type SMSSender struct {
	apiURL     string
	apiKey     string
	fromNumber string
	httpClient *http.Client
}

// NewSMSSender creates a new SMS sender.
func NewSMSSender(apiURL, apiKey, fromNumber string) *SMSSender {
	return &SMSSender{
		apiURL:     apiURL,
		apiKey:     apiKey,
		fromNumber: fromNumber,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Channel returns the sms channel identifier.
func (s *SMSSender) Channel() notification.Channel {
	return notification.ChannelSMS
}

// Deliver sends the notification message to the request's phone target.
func (s *SMSSender) Deliver(ctx context.Context, req *notification.Request) error {
	payload := map[string]any{
		"from": s.fromNumber,
		"to":   req.Target(),
		"body": req.Message,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling sms payload: %w", err)
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
		return fmt.Errorf("sms gateway: status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
