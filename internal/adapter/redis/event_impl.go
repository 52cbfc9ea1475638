package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Yasuno-5555/investidabh/internal/entity"
	"github.com/redis/go-redis/v9"
)

const (
	CompletedChannel = "events:investigation_completed"
	FailedChannel    = "events:investigation_failed"
)

// EventRepoImpl publishes task outcome events over Redis pub/sub.
type EventRepoImpl struct {
	client *redis.Client
}

// NewEventRepo creates a new instance of EventRepoImpl.
func NewEventRepo(client *redis.Client) *EventRepoImpl {
	return &EventRepoImpl{client: client}
}

// Publish sends the event to the channel matching its status.
func (r *EventRepoImpl) Publish(ctx context.Context, event entity.Event) error {
	channel, err := channelFor(event.Status)
	if err != nil {
		return err
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, channel, body).Err()
}

func channelFor(status string) (string, error) {
	switch status {
	case entity.EventCompleted:
		return CompletedChannel, nil
	case entity.EventFailed:
		return FailedChannel, nil
	default:
		return "", fmt.Errorf("unknown event status %q", status)
	}
}
