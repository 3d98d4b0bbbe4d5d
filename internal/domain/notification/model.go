package notification

import (
	"time"

	"notiq/internal/common"
)

// Channel represents a notification delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelInApp Channel = "in-app"
	ChannelPush  Channel = "push"
)

// Request is an immutable notification request as accepted at admission
// time. Type is not validated against the channel constants here:
// requests with an unrecognized type are admitted against the default
// quota tier and end up unroutable at dispatch time.
type Request struct {
	ID      string  `json:"id"`
	UserID  string  `json:"user_id"`
	Type    Channel `json:"type"`
	Message string  `json:"message"`

	// Per-channel routing attributes. Only the field matching Type is
	// consulted by the worker.
	Email        string   `json:"email,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	DeviceToken  string   `json:"device_token,omitempty"`
	DeviceTokens []string `json:"device_tokens,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the required admission fields.
func (r *Request) Validate() error {
	if r.UserID == "" {
		return common.NewInvalidArgumentError("user_id is required")
	}
	if r.Type == "" {
		return common.NewInvalidArgumentError("type is required")
	}
	if r.Message == "" {
		return common.NewInvalidArgumentError("message is required")
	}
	return nil
}

// Target resolves the channel-specific routing target for the request.
// Email and SMS fall back to the user ID when no explicit address or
// number is supplied, matching the lookup-by-user convention of the
// in-app channel.
func (r *Request) Target() string {
	switch r.Type {
	case ChannelEmail:
		if r.Email != "" {
			return r.Email
		}
	case ChannelSMS:
		if r.Phone != "" {
			return r.Phone
		}
	case ChannelPush:
		if r.DeviceToken != "" {
			return r.DeviceToken
		}
	}
	return r.UserID
}

// SendRequest is the API request payload for creating a notification.
type SendRequest struct {
	UserID       string   `json:"userId"`
	Type         string   `json:"type"`
	Message      string   `json:"message"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	DeviceToken  string   `json:"deviceToken"`
	DeviceTokens []string `json:"deviceTokens"`
}

// SendResponse is the API response payload after a notification is accepted.
type SendResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
