package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Yasuno-5555/investidabh/internal/entity"
	"github.com/Yasuno-5555/investidabh/internal/repository"
	"github.com/redis/go-redis/v9"
)

const (
	// TaskQueueKey is the list the gateway appends new collection tasks to.
	TaskQueueKey = "tasks:collector"
	// RetryQueueKey holds re-enqueued attempts so they never jump ahead of each other.
	RetryQueueKey = "tasks:collector:retry"
)

// QueueRepoImpl implements repository.TaskQueue on Redis lists.
type QueueRepoImpl struct {
	client      *redis.Client
	pollTimeout time.Duration
}

// NewQueueRepo creates a new instance of QueueRepoImpl. pollTimeout bounds every blocking pop.
func NewQueueRepo(client *redis.Client, pollTimeout time.Duration) *QueueRepoImpl {
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	return &QueueRepoImpl{client: client, pollTimeout: pollTimeout}
}

// Pop blocks on both lists, primary first, and decodes the message.
func (r *QueueRepoImpl) Pop(ctx context.Context) (entity.Task, error) {
	res, err := r.client.BLPop(ctx, r.pollTimeout, TaskQueueKey, RetryQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return entity.Task{}, repository.ErrQueueEmpty
		}
		return entity.Task{}, fmt.Errorf("failed to pop task: %w", err)
	}
	// BLPOP replies with [key, value].
	return decodeTask(res[1])
}

func decodeTask(raw string) (entity.Task, error) {
	var task entity.Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		return entity.Task{}, fmt.Errorf("%w: %v: %q", repository.ErrMalformedTask, err, raw)
	}
	if task.ID == "" || task.TargetURL == "" {
		return entity.Task{}, fmt.Errorf("%w: id and targetUrl are required: %q", repository.ErrMalformedTask, raw)
	}
	if task.RetryCount < 0 {
		task.RetryCount = 0
	}
	return task, nil
}

// Push appends a task to the primary list.
func (r *QueueRepoImpl) Push(ctx context.Context, task entity.Task) error {
	return r.push(ctx, TaskQueueKey, task)
}

// PushRetry appends a task to the tail of the retry list.
func (r *QueueRepoImpl) PushRetry(ctx context.Context, task entity.Task) error {
	return r.push(ctx, RetryQueueKey, task)
}

func (r *QueueRepoImpl) push(ctx context.Context, key string, task entity.Task) error {
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return r.client.RPush(ctx, key, body).Err()
}

// Sizes returns the current number of items in both lists.
func (r *QueueRepoImpl) Sizes(ctx context.Context) (int64, int64, error) {
	pipe := r.client.Pipeline()
	primary := pipe.LLen(ctx, TaskQueueKey)
	retry := pipe.LLen(ctx, RetryQueueKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}
	return primary.Val(), retry.Val(), nil
}

func (r *QueueRepoImpl) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
