package task

import (
	"context"

	"github.com/google/uuid"
)

// Task type constants
const (
	// TaskTypeEventDelivery delivers one learner event to one handler.
	TaskTypeEventDelivery = "event_delivery"
)

// Task represents a unit of background work to be processed
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// Submitter accepts tasks for asynchronous execution.
type Submitter interface {
	// Submit queues task. It never blocks; a full queue is an error.
	Submit(task Task) error
}
