package repository

import (
	"context"
	"time"
)

// SubmissionRepository remembers recently enqueued tasks so the same work is not queued twice.
type SubmissionRepository interface {
	// MarkSubmitted records the task and reports false if it was already recorded within expiry.
	MarkSubmitted(ctx context.Context, task string, expiry time.Duration) (bool, error)
	// RemoveSubmitted forgets the task, used for forced resubmission.
	RemoveSubmitted(ctx context.Context, task string) error
}
