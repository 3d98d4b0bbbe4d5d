package queue

import (
	"fmt"
	"time"

	"notiq/internal/domain/notification"

	"github.com/hibiken/asynq"
)

// QueueNotifications is the dispatch queue name.
const QueueNotifications = "notifications"

// NewClient creates a new asynq client connected to Redis.
func NewClient(redisAddr, password string, db int) *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: password,
		DB:       db,
	})
}

// NewServer creates a new asynq server connected to Redis.
// Concurrency bounds how many entries are in flight at once; each
// worker goroutine processes one claimed entry fully before taking the
// next, giving a prefetch-of-one discipline per worker. Tasks that
// exhaust their retries are archived, which is the dead state.
func NewServer(redisAddr, password string, db int, concurrency, retryBaseDelaySec int) *asynq.Server {
	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: password,
			DB:       db,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				QueueNotifications: 10, // priority weight
				"default":          1,
			},
			RetryDelayFunc: func(n int, e error, t *asynq.Task) time.Duration {
				return retryDelay(retryBaseDelaySec, n)
			},
		},
	)
}

// retryDelay computes the exponential backoff curve: base, 2x, 4x, 8x,
// 16x. asynq passes the number of times the task has already been
// retried, which is zero when scheduling the first retry.
func retryDelay(baseSec, retried int) time.Duration {
	if retried < 0 {
		retried = 0
	}
	return time.Duration(baseSec*(1<<uint(retried))) * time.Second
}

// Enqueuer places deliver tasks on the dispatch queue. Implements
// notification.Enqueuer.
type Enqueuer struct {
	client      *asynq.Client
	maxAttempts int
}

var _ notification.Enqueuer = (*Enqueuer)(nil)

// NewEnqueuer creates an enqueuer on an existing asynq client.
// maxAttempts is the total delivery attempt bound, so the task is
// retried maxAttempts-1 times before being parked.
func NewEnqueuer(client *asynq.Client, maxAttempts int) *Enqueuer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Enqueuer{client: client, maxAttempts: maxAttempts}
}

// EnqueueDeliver durably enqueues a deliver task. Once this returns
// nil the entry survives process restart until acknowledged.
func (e *Enqueuer) EnqueueDeliver(req notification.Request) error {
	task, err := notification.NewDeliverTask(req)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}

	_, err = e.client.Enqueue(task,
		asynq.MaxRetry(e.maxAttempts-1),
		asynq.Queue(QueueNotifications),
	)
	if err != nil {
		return fmt.Errorf("enqueuing task: %w", err)
	}

	return nil
}
