package driven

import (
	"context"
	"time"
)

// Task is a unit of work run by a Dispatcher. It must honour ctx cancellation.
type Task func(ctx context.Context) (string, error)

// Dispatcher runs tasks on a bounded set of workers.
type Dispatcher interface {
	// Submit queues task and waits for its result.
	// The timeout covers queueing and execution; when it elapses
	// Submit returns domain.ErrTimedOut and cancels the task.
	Submit(ctx context.Context, timeout time.Duration, task Task) (string, error)
}
