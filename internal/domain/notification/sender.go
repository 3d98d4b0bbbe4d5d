package notification

import "context"

// Sender defines the contract for a channel-specific delivery provider.
// Implementations live in infra/senders/. A returned error is treated
// as transient by the worker and triggers a redelivery, up to the
// configured attempt bound.
type Sender interface {
	// Deliver sends the notification payload to its routing target.
	Deliver(ctx context.Context, req *Request) error

	// Channel returns which delivery channel this sender handles.
	Channel() Channel
}
