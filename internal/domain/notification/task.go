package notification

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TaskTypeDeliver is the asynq task type for delivering a notification.
const TaskTypeDeliver = "notification:deliver"

// DeliverPayload is the serialized queue entry: the full notification
// request plus the enqueue timestamp. The payload travels through the
// queue so the worker needs no lookup to process it.
type DeliverPayload struct {
	Request    Request   `json:"request"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewDeliverTask creates a new asynq task for delivering a notification.
func NewDeliverTask(req Request) (*asynq.Task, error) {
	payload, err := json.Marshal(DeliverPayload{
		Request:    req,
		EnqueuedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling task payload: %w", err)
	}
	return asynq.NewTask(TaskTypeDeliver, payload), nil
}

// ParseDeliverPayload deserializes the task payload.
func ParseDeliverPayload(data []byte) (*DeliverPayload, error) {
	var p DeliverPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshaling task payload: %w", err)
	}
	return &p, nil
}
