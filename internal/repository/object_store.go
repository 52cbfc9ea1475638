package repository

import "context"

// ObjectStore defines the blob storage the artifact store writes to.
type ObjectStore interface {
	// EnsureBucket creates the bucket if it does not exist yet.
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, path string, data []byte, contentType string) error
	Get(ctx context.Context, path string) ([]byte, error)
}
