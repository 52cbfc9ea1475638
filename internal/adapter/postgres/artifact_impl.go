package postgres

import (
	"context"
	"fmt"

	"github.com/Yasuno-5555/investidabh/internal/entity"
)

const insertArtifactSQL = `
	INSERT INTO artifacts (investigation_id, artifact_type, storage_path, hash_sha256)
	VALUES ($1, $2, $3, $4);
`

const completeInvestigationSQL = `
	UPDATE investigations SET status = $2
	WHERE id = $1;
`

// ArtifactRepoImpl provides a concrete implementation for the ArtifactRepository interface using PostgreSQL.
type ArtifactRepoImpl struct {
	db DB
}

// NewArtifactRepo creates a new instance of ArtifactRepoImpl.
func NewArtifactRepo(db DB) *ArtifactRepoImpl {
	return &ArtifactRepoImpl{db: db}
}

// SaveCollection inserts every artifact of a collection event and, when complete is set,
// advances the investigation to COMPLETED, all within one transaction.
func (r *ArtifactRepoImpl) SaveCollection(ctx context.Context, investigationID string, artifacts []entity.Artifact, complete bool) error {
	if len(artifacts) == 0 {
		return fmt.Errorf("no artifacts to save for investigation %s", investigationID)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, a := range artifacts {
		if _, err := tx.Exec(ctx, insertArtifactSQL, investigationID, string(a.Type), a.StoragePath, a.SHA256); err != nil {
			return fmt.Errorf("failed to insert %s artifact: %w", a.Type, err)
		}
	}
	if complete {
		if _, err := tx.Exec(ctx, completeInvestigationSQL, investigationID, entity.InvestigationCompleted); err != nil {
			return fmt.Errorf("failed to complete investigation: %w", err)
		}
	}

	return tx.Commit(ctx)
}
