package repository

import (
	"context"

	"github.com/Yasuno-5555/investidabh/internal/entity"
)

// EventPublisher announces task outcomes on pub/sub channels.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.Event) error
}
