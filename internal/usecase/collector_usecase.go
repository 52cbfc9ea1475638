package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Yasuno-5555/investidabh/internal/entity"
	"github.com/Yasuno-5555/investidabh/internal/repository"
	"github.com/Yasuno-5555/investidabh/pkg/metrics"
	"github.com/Yasuno-5555/investidabh/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ErrProxyRequired is the fail-closed error when rotation is on but no proxy would carry the traffic.
var ErrProxyRequired = errors.New("anonymity rotation enabled but no proxy configured")

const (
	minPopBackoff      = time.Second
	maxPopBackoff      = 30 * time.Second
	queueDepthInterval = 15 * time.Second
)

// Task stages, as logged and used for retry metrics.
const (
	StageReceived   = "received"
	StageValidating = "validating"
	StageRotating   = "rotating"
	StageCollecting = "collecting"
	StagePersisting = "persisting"
)

// Outcome is the terminal state of one task attempt.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeRetrying  Outcome = "retrying"
	OutcomeFailed    Outcome = "failed"
)

// Validator gates targets before any network activity toward them.
type Validator interface {
	Validate(ctx context.Context, rawURL string) error
}

// stageError carries where a task attempt failed and whether retrying could help.
type stageError struct {
	stage     string
	permanent bool
	err       error
}

func (e *stageError) Error() string { return fmt.Sprintf("%s: %v", e.stage, e.err) }
func (e *stageError) Unwrap() error { return e.err }

func permanent(stage string, err error) error { return &stageError{stage: stage, permanent: true, err: err} }
func transient(stage string, err error) error { return &stageError{stage: stage, err: err} }

// DispatcherOptions holds the policy knobs of the dispatcher.
type DispatcherOptions struct {
	MaxRetries      int
	Concurrency     int
	Proxy           string // "" means direct connections
	RotationEnabled bool
	RotationStrict  bool
}

// DispatcherDeps wires the dispatcher to its ports.
type DispatcherDeps struct {
	Queue          repository.TaskQueue
	Validator      Validator
	Rotator        repository.IdentityRotator
	Fetcher        repository.Fetcher
	Collectors     map[entity.SourceKind]repository.SourceCollector
	Store          *ArtifactStore
	Investigations repository.InvestigationRepository
	Events         repository.EventPublisher
	Metrics        *metrics.Metrics
	Logger         *zap.Logger
}

// Dispatcher consumes the task queue and drives each task through its collection lifecycle.
type Dispatcher struct {
	deps DispatcherDeps
	opts DispatcherOptions
	log  *zap.Logger

	newEventID func() string
	now        func() time.Time
}

func NewDispatcher(deps DispatcherDeps, opts DispatcherOptions) *Dispatcher {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	return &Dispatcher{
		deps:       deps,
		opts:       opts,
		log:        deps.Logger.Named("dispatcher"),
		newEventID: uuid.NewString,
		now:        time.Now,
	}
}

// Run pops tasks until ctx is cancelled, processing up to Concurrency at once.
// Tasks already started finish on a context detached from ctx; Run returns after they drain.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.log.Info("dispatcher started",
		zap.Int("concurrency", d.opts.Concurrency),
		zap.Int("max_retries", d.opts.MaxRetries),
		zap.Bool("proxy", d.opts.Proxy != ""),
		zap.Bool("rotation", d.opts.RotationEnabled),
	)

	var g errgroup.Group
	slots := semaphore.NewWeighted(int64(d.opts.Concurrency))
	g.Go(func() error {
		d.reportQueueDepth(ctx)
		return nil
	})

	backoff := minPopBackoff
loop:
	for {
		// Only pop when a slot is free, so no task waits in memory.
		if err := slots.Acquire(ctx, 1); err != nil {
			break
		}

		task, err := d.deps.Queue.Pop(ctx)
		if err != nil {
			slots.Release(1)
			if ctx.Err() != nil {
				break loop
			}
			switch {
			case errors.Is(err, repository.ErrQueueEmpty):
			case errors.Is(err, repository.ErrMalformedTask):
				d.log.Error("dropping malformed task", zap.Error(err))
			default:
				d.log.Error("queue unavailable, backing off", zap.Duration("backoff", backoff), zap.Error(err))
				if !sleepContext(ctx, backoff) {
					break loop
				}
				backoff = min(backoff*2, maxPopBackoff)
			}
			continue
		}
		backoff = minPopBackoff

		taskCtx := context.WithoutCancel(ctx)
		g.Go(func() error {
			defer slots.Release(1)
			d.Process(taskCtx, task)
			return nil
		})
	}

	d.log.Info("dispatcher stopping, draining in-flight tasks")
	err := g.Wait()
	d.log.Info("dispatcher stopped")
	return err
}

// Process runs one task attempt to a terminal outcome: completed, re-enqueued or failed.
func (d *Dispatcher) Process(ctx context.Context, task entity.Task) Outcome {
	start := d.now()
	target := Classify(task.TargetURL)
	log := d.log.With(
		zap.String("task_id", task.ID),
		zap.String("kind", target.Kind.String()),
		zap.Int("retry_count", task.RetryCount),
	)
	log.Info("task received", zap.String("stage", StageReceived), zap.String("target", task.TargetURL))

	var outcome Outcome
	if err := d.execute(ctx, task, target, log); err != nil {
		outcome = d.handleFailure(ctx, task, err, log)
	} else {
		d.publish(ctx, task, entity.EventCompleted, "", log)
		outcome = OutcomeCompleted
	}

	d.deps.Metrics.TasksTotal.WithLabelValues(target.Kind.String(), string(outcome)).Inc()
	d.deps.Metrics.TaskDuration.WithLabelValues(target.Kind.String()).Observe(d.now().Sub(start).Seconds())
	log.Info("task finished", zap.String("outcome", string(outcome)), zap.Duration("elapsed", d.now().Sub(start)))
	return outcome
}

func (d *Dispatcher) execute(ctx context.Context, task entity.Task, target entity.Target, log *zap.Logger) error {
	if target.Kind == entity.SourceWeb || target.Kind == entity.SourceFeed {
		log.Debug("validating target", zap.String("stage", StageValidating))
		if err := d.deps.Validator.Validate(ctx, target.Query); err != nil {
			return permanent(StageValidating, err)
		}
	}

	if d.opts.RotationEnabled {
		if d.opts.Proxy == "" {
			return permanent(StageRotating, ErrProxyRequired)
		}
		log.Debug("rotating identity", zap.String("stage", StageRotating))
		if err := d.deps.Rotator.RotateIdentity(ctx); err != nil {
			d.deps.Metrics.RotationsTotal.WithLabelValues("failure").Inc()
			if d.opts.RotationStrict {
				return transient(StageRotating, err)
			}
			log.Warn("identity rotation failed, continuing on the current circuit", zap.String("stage", StageRotating), zap.Error(err))
		} else {
			d.deps.Metrics.RotationsTotal.WithLabelValues("success").Inc()
		}
	}

	log.Debug("collecting", zap.String("stage", StageCollecting))
	if target.Kind == entity.SourceWeb {
		capture, err := d.deps.Fetcher.Fetch(ctx, task.ID, target.Query, d.opts.Proxy)
		if err != nil {
			return transient(StageCollecting, err)
		}
		log.Debug("persisting capture",
			zap.String("stage", StagePersisting),
			zap.String("host", utils.Hostname(target.Query)),
			zap.Int("status_code", capture.StatusCode),
		)
		if _, err := d.deps.Store.PersistCapture(ctx, task.ID, capture); err != nil {
			return transient(StagePersisting, err)
		}
		return nil
	}

	collector, ok := d.deps.Collectors[target.Kind]
	if !ok {
		return permanent(StageCollecting, fmt.Errorf("no collector registered for %s", target.Kind))
	}
	result, err := collector.Collect(ctx, target)
	if err != nil {
		return transient(StageCollecting, err)
	}
	log.Debug("persisting result", zap.String("stage", StagePersisting), zap.Int("items", len(result.Data)))
	if _, err := d.deps.Store.PersistResult(ctx, task.ID, result); err != nil {
		return transient(StagePersisting, err)
	}
	return nil
}

func (d *Dispatcher) handleFailure(ctx context.Context, task entity.Task, err error, log *zap.Logger) Outcome {
	stage := StageCollecting
	var se *stageError
	if errors.As(err, &se) {
		stage = se.stage
		if se.permanent {
			log.Error("task failed permanently", zap.String("stage", stage), zap.Error(err))
			return d.fail(ctx, task, err, log)
		}
	}

	next := task.NextAttempt()
	if next.RetryCount >= d.opts.MaxRetries {
		log.Error("retry budget exhausted", zap.String("stage", stage), zap.Error(err))
		return d.fail(ctx, task, err, log)
	}

	if pushErr := d.deps.Queue.PushRetry(ctx, next); pushErr != nil {
		log.Error("failed to re-enqueue task", zap.String("stage", stage), zap.Error(errors.Join(err, pushErr)))
		return d.fail(ctx, task, err, log)
	}
	d.deps.Metrics.RetriesTotal.WithLabelValues(stage).Inc()
	log.Warn("task re-enqueued", zap.String("stage", stage), zap.Int("next_retry_count", next.RetryCount), zap.Error(err))
	return OutcomeRetrying
}

func (d *Dispatcher) fail(ctx context.Context, task entity.Task, cause error, log *zap.Logger) Outcome {
	if err := d.deps.Investigations.MarkFailed(ctx, task.ID); err != nil {
		log.Warn("failed to mark investigation failed", zap.Error(err))
	}
	d.publish(ctx, task, entity.EventFailed, cause.Error(), log)
	return OutcomeFailed
}

func (d *Dispatcher) publish(ctx context.Context, task entity.Task, status, reason string, log *zap.Logger) {
	event := entity.Event{
		EventID:   d.newEventID(),
		ID:        task.ID,
		TargetURL: task.TargetURL,
		Status:    status,
		Timestamp: d.now().UTC().Format(time.RFC3339),
		Reason:    reason,
	}
	if err := d.deps.Events.Publish(ctx, event); err != nil {
		log.Error("failed to publish event", zap.String("status", status), zap.Error(err))
	}
}

// reportQueueDepth refreshes the queue depth gauges until ctx is cancelled.
func (d *Dispatcher) reportQueueDepth(ctx context.Context) {
	ticker := time.NewTicker(queueDepthInterval)
	defer ticker.Stop()
	for {
		if _, _, err := RefreshQueueDepth(ctx, d.deps.Queue, d.deps.Metrics); err != nil && ctx.Err() == nil {
			d.log.Debug("queue depth unavailable", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RefreshQueueDepth reads both list depths and updates the gauges.
func RefreshQueueDepth(ctx context.Context, queue repository.TaskQueue, m *metrics.Metrics) (int64, int64, error) {
	primary, retry, err := queue.Sizes(ctx)
	if err != nil {
		return 0, 0, err
	}
	m.QueueDepth.WithLabelValues("primary").Set(float64(primary))
	m.QueueDepth.WithLabelValues("retry").Set(float64(retry))
	return primary, retry, nil
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
