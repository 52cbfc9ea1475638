package repository

import (
	"context"

	"github.com/Yasuno-5555/investidabh/internal/entity"
)

// Fetcher defines the contract for the browser-based retrieval of a web page.
type Fetcher interface {
	// Fetch loads url, through proxy when it is non-empty, and returns the captured page.
	Fetch(ctx context.Context, taskID, url, proxy string) (*entity.Capture, error)
}

// SourceCollector produces structured data for a classified, non-web target.
type SourceCollector interface {
	Collect(ctx context.Context, target entity.Target) (*entity.CollectionResult, error)
}

// IdentityRotator asks the anonymity daemon for a fresh exit circuit.
type IdentityRotator interface {
	RotateIdentity(ctx context.Context) error
}
