package repository

import (
	"context"

	"github.com/Yasuno-5555/investidabh/internal/entity"
)

// ArtifactRepository records artifact metadata rows.
type ArtifactRepository interface {
	// SaveCollection inserts all artifacts of one collection event in a single transaction.
	// When complete is true the owning investigation is advanced to COMPLETED in the same transaction.
	SaveCollection(ctx context.Context, investigationID string, artifacts []entity.Artifact, complete bool) error
}

// InvestigationRepository updates investigation rows owned by the collector.
type InvestigationRepository interface {
	// MarkFailed moves a not yet completed investigation to FAILED.
	MarkFailed(ctx context.Context, investigationID string) error
	Ping(ctx context.Context) error
}
