package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Yasuno-5555/investidabh/internal/entity"
	"github.com/Yasuno-5555/investidabh/internal/repository"
	"github.com/Yasuno-5555/investidabh/pkg/metrics"
	"github.com/Yasuno-5555/investidabh/pkg/utils"
	"go.uber.org/zap"
)

var ErrDigestMismatch = errors.New("stored object digest does not match the recorded digest")

// ArtifactStore writes collection payloads to object storage and records them in the database.
type ArtifactStore struct {
	objects   repository.ObjectStore
	artifacts repository.ArtifactRepository
	metrics   *metrics.Metrics
	logger    *zap.Logger

	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func NewArtifactStore(objects repository.ObjectStore, artifacts repository.ArtifactRepository, m *metrics.Metrics, logger *zap.Logger) *ArtifactStore {
	return &ArtifactStore{
		objects:   objects,
		artifacts: artifacts,
		metrics:   m,
		logger:    logger.Named("artifacts"),
		now:       time.Now,
	}
}

// eventID returns a UTC timestamp that is strictly greater than any earlier one from this store,
// so two collection events never share a directory even within one clock tick.
func (s *ArtifactStore) eventID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Nanosecond)
	}
	s.last = t
	return t.Format(time.RFC3339Nano)
}

// Persist writes every payload under {taskID}/{event}/ and then inserts all rows in one transaction.
// A failure after the object writes leaves orphaned objects but never a row without its object.
func (s *ArtifactStore) Persist(ctx context.Context, taskID string, payloads []entity.Payload, complete bool) ([]entity.Artifact, error) {
	if len(payloads) == 0 {
		return nil, errors.New("nothing to persist")
	}

	event := s.eventID()
	artifacts := make([]entity.Artifact, 0, len(payloads))
	for _, p := range payloads {
		path := fmt.Sprintf("%s/%s/%s", taskID, event, p.Name)
		if err := s.objects.Put(ctx, path, p.Data, p.ContentType); err != nil {
			return nil, fmt.Errorf("failed to store %s: %w", p.Name, err)
		}
		artifacts = append(artifacts, entity.Artifact{
			InvestigationID: taskID,
			Type:            p.Type,
			StoragePath:     path,
			SHA256:          utils.SHA256Hex(p.Data),
			SizeBytes:       int64(len(p.Data)),
		})
	}

	if err := s.artifacts.SaveCollection(ctx, taskID, artifacts, complete); err != nil {
		return nil, fmt.Errorf("failed to record artifacts: %w", err)
	}

	for _, a := range artifacts {
		s.metrics.ArtifactsTotal.WithLabelValues(string(a.Type)).Inc()
		s.metrics.ArtifactBytes.Add(float64(a.SizeBytes))
		s.logger.Info("artifact stored",
			zap.String("task_id", taskID),
			zap.String("type", string(a.Type)),
			zap.String("path", a.StoragePath),
			zap.String("sha256", a.SHA256),
		)
	}
	return artifacts, nil
}

// PersistCapture stores a browser capture and completes the investigation.
func (s *ArtifactStore) PersistCapture(ctx context.Context, taskID string, capture *entity.Capture) ([]entity.Artifact, error) {
	payloads := []entity.Payload{{
		Name:        "index.html",
		Type:        entity.ArtifactHTML,
		ContentType: "text/html; charset=utf-8",
		Data:        capture.HTML,
	}}
	if len(capture.Screenshot) > 0 {
		payloads = append(payloads, entity.Payload{
			Name:        "screenshot.png",
			Type:        entity.ArtifactScreenshot,
			ContentType: "image/png",
			Data:        capture.Screenshot,
		})
	}
	return s.Persist(ctx, taskID, payloads, true)
}

// PersistResult stores a structured collector result as one raw_data artifact.
func (s *ArtifactStore) PersistResult(ctx context.Context, taskID string, result *entity.CollectionResult) ([]entity.Artifact, error) {
	body, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s result: %w", result.SourceType, err)
	}
	payload := entity.Payload{
		Name:        result.SourceType + "_data.json",
		Type:        entity.ArtifactRawData,
		ContentType: "application/json",
		Data:        body,
	}
	return s.Persist(ctx, taskID, []entity.Payload{payload}, false)
}

// Verify re-reads a stored object and checks it against the recorded digest.
func (s *ArtifactStore) Verify(ctx context.Context, path, sha256Hex string) error {
	data, err := s.objects.Get(ctx, path)
	if err != nil {
		return err
	}
	if got := utils.SHA256Hex(data); got != sha256Hex {
		return fmt.Errorf("%w: %s has %s, expected %s", ErrDigestMismatch, path, got, sha256Hex)
	}
	return nil
}
