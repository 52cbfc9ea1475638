package sources

import (
	"time"

	"github.com/Yasuno-5555/investidabh/internal/entity"
)

func newResult(kind entity.SourceKind, query string) *entity.CollectionResult {
	return &entity.CollectionResult{
		SourceType: kind.String(),
		Query:      query,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Data:       []any{},
	}
}
