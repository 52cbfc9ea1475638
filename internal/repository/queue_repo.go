package repository

import (
	"context"
	"errors"

	"github.com/Yasuno-5555/investidabh/internal/entity"
)

var (
	// ErrQueueEmpty is returned by Pop when the poll timeout elapsed without a task.
	ErrQueueEmpty = errors.New("task queue is empty")
	// ErrMalformedTask is returned by Pop when a message could not be decoded. It is never retried.
	ErrMalformedTask = errors.New("malformed task message")
)

// TaskQueue defines the queue transport the dispatcher consumes.
type TaskQueue interface {
	// Pop blocks up to the configured poll timeout for the next task from the primary or retry list.
	Pop(ctx context.Context) (entity.Task, error)
	// Push appends a new task to the primary list.
	Push(ctx context.Context, task entity.Task) error
	// PushRetry appends a task copy to the tail of the retry list.
	PushRetry(ctx context.Context, task entity.Task) error
	// Sizes returns the current depth of the primary and retry lists.
	Sizes(ctx context.Context) (primary int64, retry int64, err error)
	Ping(ctx context.Context) error
}
