package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/Yasuno-5555/investidabh/pkg/utils"
	"github.com/redis/go-redis/v9"
)

const submittedPrefix = "submitted:"

// SubmissionRepoImpl provides a concrete implementation for the SubmissionRepository interface using Redis.
type SubmissionRepoImpl struct {
	client *redis.Client
}

// NewSubmissionRepo creates a new instance of SubmissionRepoImpl.
func NewSubmissionRepo(client *redis.Client) *SubmissionRepoImpl {
	return &SubmissionRepoImpl{client: client}
}

func (r *SubmissionRepoImpl) generateKey(task string) string {
	return fmt.Sprintf("%s%s", submittedPrefix, utils.SHA256Hex([]byte(task)))
}

// MarkSubmitted uses SET NX so two submitters racing on the same task see exactly one winner.
func (r *SubmissionRepoImpl) MarkSubmitted(ctx context.Context, task string, expiry time.Duration) (bool, error) {
	return r.client.SetNX(ctx, r.generateKey(task), "1", expiry).Result()
}

func (r *SubmissionRepoImpl) RemoveSubmitted(ctx context.Context, task string) error {
	return r.client.Del(ctx, r.generateKey(task)).Err()
}
