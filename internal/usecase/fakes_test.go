package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Yasuno-5555/investidabh/internal/entity"
	"github.com/Yasuno-5555/investidabh/internal/repository"
)

var errTransient = errors.New("transient failure")

type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) EnsureBucket(context.Context) error { return nil }

func (f *fakeObjectStore) Put(_ context.Context, path string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut {
		return errTransient
	}
	f.objects[path] = append([]byte(nil), data...)
	return nil
}

func (f *fakeObjectStore) Get(_ context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[path]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

type savedCollection struct {
	investigationID string
	artifacts       []entity.Artifact
	complete        bool
}

type fakeArtifactRepo struct {
	mu        sync.Mutex
	saved     []savedCollection
	failTimes int
}

func (f *fakeArtifactRepo) SaveCollection(_ context.Context, id string, artifacts []entity.Artifact, complete bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTimes > 0 {
		f.failTimes--
		return errTransient
	}
	f.saved = append(f.saved, savedCollection{investigationID: id, artifacts: artifacts, complete: complete})
	return nil
}

type fakeInvestigations struct {
	mu     sync.Mutex
	failed []string
}

func (f *fakeInvestigations) MarkFailed(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeInvestigations) Ping(context.Context) error { return nil }

type fakeQueue struct {
	mu      sync.Mutex
	pending []entity.Task
	popErrs []error
	pushed  []entity.Task
	retries []entity.Task
}

func (f *fakeQueue) Pop(ctx context.Context) (entity.Task, error) {
	task, err := f.tryPop()
	if errors.Is(err, repository.ErrQueueEmpty) {
		// Stand in for the blocking poll timeout.
		select {
		case <-time.After(2 * time.Millisecond):
		case <-ctx.Done():
			return entity.Task{}, ctx.Err()
		}
	}
	return task, err
}

func (f *fakeQueue) tryPop() (entity.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.popErrs) > 0 {
		err := f.popErrs[0]
		f.popErrs = f.popErrs[1:]
		return entity.Task{}, err
	}
	if len(f.pending) > 0 {
		task := f.pending[0]
		f.pending = f.pending[1:]
		return task, nil
	}
	if len(f.retries) > 0 {
		task := f.retries[0]
		f.retries = f.retries[1:]
		return task, nil
	}
	return entity.Task{}, repository.ErrQueueEmpty
}

func (f *fakeQueue) Push(_ context.Context, task entity.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, task)
	f.pending = append(f.pending, task)
	return nil
}

func (f *fakeQueue) PushRetry(_ context.Context, task entity.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retries = append(f.retries, task)
	return nil
}

func (f *fakeQueue) Sizes(context.Context) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.pending)), int64(len(f.retries)), nil
}

func (f *fakeQueue) Ping(context.Context) error { return nil }

// takeRetry pops the oldest retry copy, as the transport would.
func (f *fakeQueue) takeRetry() (entity.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.retries) == 0 {
		return entity.Task{}, false
	}
	task := f.retries[0]
	f.retries = f.retries[1:]
	return task, true
}

type fakePublisher struct {
	mu     sync.Mutex
	events []entity.Event
}

func (f *fakePublisher) Publish(_ context.Context, event entity.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) byStatus(status string) []entity.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Event
	for _, e := range f.events {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

type fakeFetcher struct {
	mu        sync.Mutex
	failTimes int
	calls     int
	proxies   []string
	capture   *entity.Capture
}

func (f *fakeFetcher) Fetch(_ context.Context, _, _, proxy string) (*entity.Capture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.proxies = append(f.proxies, proxy)
	if f.failTimes > 0 {
		f.failTimes--
		return nil, errTransient
	}
	return f.capture, nil
}

type fakeCollector struct {
	mu      sync.Mutex
	targets []entity.Target
	err     error
}

func (f *fakeCollector) Collect(_ context.Context, target entity.Target) (*entity.CollectionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = append(f.targets, target)
	if f.err != nil {
		return nil, f.err
	}
	return &entity.CollectionResult{
		SourceType: target.Kind.String(),
		Query:      target.Query,
		Timestamp:  "2026-01-01T00:00:00Z",
		Data:       []any{},
	}, nil
}

type fakeRotator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeRotator) RotateIdentity(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}
