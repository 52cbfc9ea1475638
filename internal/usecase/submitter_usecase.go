package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Yasuno-5555/investidabh/internal/entity"
	"github.com/Yasuno-5555/investidabh/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrTaskRecentlySubmitted = errors.New("task was submitted recently and force is false")
	ErrEmptyTask             = errors.New("task id and target are required")
)

const submissionExpiry = 48 * time.Hour

// TaskSubmitter enqueues new collection tasks, suppressing duplicates within the expiry window.
type TaskSubmitter struct {
	queue       repository.TaskQueue
	submissions repository.SubmissionRepository
	logger      *zap.Logger
}

func NewTaskSubmitter(queue repository.TaskQueue, submissions repository.SubmissionRepository, logger *zap.Logger) *TaskSubmitter {
	return &TaskSubmitter{queue: queue, submissions: submissions, logger: logger.Named("submitter")}
}

func (s *TaskSubmitter) Submit(ctx context.Context, id, target string, force bool) (entity.Task, error) {
	task := entity.Task{ID: strings.TrimSpace(id), TargetURL: strings.TrimSpace(target)}
	if task.ID == "" || task.TargetURL == "" {
		return entity.Task{}, ErrEmptyTask
	}
	key := task.ID + "\n" + task.TargetURL

	if force {
		if err := s.submissions.RemoveSubmitted(ctx, key); err != nil {
			// Not critical, the SET NX below still decides.
			s.logger.Warn("failed to clear submission marker", zap.String("task_id", task.ID), zap.Error(err))
		}
	}

	fresh, err := s.submissions.MarkSubmitted(ctx, key, submissionExpiry)
	if err != nil {
		return entity.Task{}, err
	}
	if !fresh {
		return task, ErrTaskRecentlySubmitted
	}

	if err := s.queue.Push(ctx, task); err != nil {
		if rmErr := s.submissions.RemoveSubmitted(ctx, key); rmErr != nil {
			s.logger.Error("failed to clear submission marker after enqueue error", zap.String("task_id", task.ID), zap.Error(rmErr))
		}
		return entity.Task{}, err
	}

	s.logger.Info("task enqueued", zap.String("task_id", task.ID), zap.String("target", task.TargetURL))
	return task, nil
}
