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

var _ notification.Sender = (*EmailSender)(nil)

// EmailSender delivers email notifications through a Resend-compatible
// HTTP API.
type EmailSender struct {
	apiURL      string
	apiKey      string
	fromAddress string
	fromName    string
	httpClient  *http.Client
}

// NewEmailSender creates a new email sender.
func NewEmailSender(apiURL, apiKey, fromAddress, fromName string) *EmailSender {
	return &EmailSender{
		apiURL:      apiURL,
		apiKey:      apiKey,
		fromAddress: fromAddress,
		fromName:    fromName,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Channel returns the email channel identifier.
func (s *EmailSender) Channel() notification.Channel {
	return notification.ChannelEmail
}

// Deliver sends the notification message to the request's email target.
func (s *EmailSender) Deliver(ctx context.Context, req *notification.Request) error {
	from := s.fromAddress
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
	}

	payload := map[string]any{
		"from":    from,
		"to":      []string{req.Target()},
		"subject": "Notification",
		"text":    req.Message,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling email payload: %w", err)
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
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max
		var errResp struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(respBody, &errResp)

		msg := errResp.Message
		if msg == "" {
			msg = fmt.Sprintf("email API error: status %d", resp.StatusCode)
		}
		return fmt.Errorf("email provider: %s", msg)
	}

	return nil
}
