package common

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id '%s' not found", e.Resource, e.ID)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// InvalidArgumentError indicates missing or malformed request fields.
// Surfaced to the caller as 400 and never retried.
type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return e.Message
}

// NewInvalidArgumentError creates a new InvalidArgumentError.
func NewInvalidArgumentError(message string) *InvalidArgumentError {
	return &InvalidArgumentError{Message: message}
}

// QuotaExceededError indicates a per-user notification quota was hit.
// Surfaced as 429 with the window that tripped and a retry hint.
type QuotaExceededError struct {
	Reason            string
	RetryAfterSeconds int
}

func (e *QuotaExceededError) Error() string {
	return e.Reason
}

// NewQuotaExceededError creates a new QuotaExceededError.
func NewQuotaExceededError(reason string, retryAfterSeconds int) *QuotaExceededError {
	return &QuotaExceededError{Reason: reason, RetryAfterSeconds: retryAfterSeconds}
}

// UnauthorizedError indicates missing or invalid authentication.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	if e.Message == "" {
		return "unauthorized"
	}
	return e.Message
}

// NewUnauthorizedError creates a new UnauthorizedError.
func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

// QueueUnavailableError indicates the dispatch queue rejected an enqueue.
// Surfaced as 503; the request never entered the pipeline, so no quota
// is consumed for it.
type QueueUnavailableError struct {
	Cause error
}

func (e *QueueUnavailableError) Error() string {
	return fmt.Sprintf("dispatch queue unavailable: %v", e.Cause)
}

func (e *QueueUnavailableError) Unwrap() error {
	return e.Cause
}

// NewQueueUnavailableError creates a new QueueUnavailableError.
func NewQueueUnavailableError(cause error) *QueueUnavailableError {
	return &QueueUnavailableError{Cause: cause}
}

// DeliveryError indicates a channel sender failed to deliver.
// Dispatch-time only; never surfaced to the original HTTP caller.
type DeliveryError struct {
	Channel string
	Message string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed: %s", e.Channel, e.Message)
}

// NewDeliveryError creates a new DeliveryError.
func NewDeliveryError(channel, message string) *DeliveryError {
	return &DeliveryError{Channel: channel, Message: message}
}
