package postgres

import (
	"context"

	"github.com/Yasuno-5555/investidabh/internal/entity"
)

// InvestigationRepoImpl updates the investigation rows the collector owns.
type InvestigationRepoImpl struct {
	db DB
}

// NewInvestigationRepo creates a new instance of InvestigationRepoImpl.
func NewInvestigationRepo(db DB) *InvestigationRepoImpl {
	return &InvestigationRepoImpl{db: db}
}

// MarkFailed sets status FAILED unless an earlier attempt already completed the investigation.
func (r *InvestigationRepoImpl) MarkFailed(ctx context.Context, investigationID string) error {
	query := `
		UPDATE investigations SET status = $2
		WHERE id = $1 AND status <> $3;
	`
	_, err := r.db.Exec(ctx, query, investigationID, entity.InvestigationFailed, entity.InvestigationCompleted)
	return err
}

func (r *InvestigationRepoImpl) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
