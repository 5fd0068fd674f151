// Package outbox replays mutations queued while the backend was
// unreachable. Operations carry an idempotency key so the backend can
// deduplicate repeated deliveries; an operation leaves the queue only
// after the backend acknowledges it.
package outbox

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/pawkeep/pawkeep/internal/datastore/entities"
	"github.com/pawkeep/pawkeep/internal/datastore/repository"
	"github.com/pawkeep/pawkeep/internal/errors"
	"github.com/pawkeep/pawkeep/internal/logger"
	"github.com/pawkeep/pawkeep/internal/observability"
)

// IdempotencyHeader carries the deduplication key on replayed requests.
const IdempotencyHeader = "Idempotency-Key"

const defaultMaxRetries = 5

// Flusher drains the outbox against the backend API. It implements
// the background sync hook of the offline manager.
type Flusher struct {
	repo       repository.OutboxRepository
	client     *http.Client
	baseURL    string
	maxRetries int
	metrics    *observability.Metrics
	log        logger.Logger
}

// Option configures a Flusher.
type Option func(*Flusher)

// WithMaxRetries sets how often a replay may fail before the operation
// is abandoned.
func WithMaxRetries(n int) Option {
	return func(f *Flusher) {
		if n > 0 {
			f.maxRetries = n
		}
	}
}

// WithMetrics attaches outbox gauges.
func WithMetrics(m *observability.Metrics) Option {
	return func(f *Flusher) { f.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Flusher) { f.log = l }
}

// NewFlusher creates a Flusher that replays queued operations against
// baseURL using client. The client must bypass the offline transport,
// otherwise replays would be answered from cache.
func NewFlusher(repo repository.OutboxRepository, client *http.Client, baseURL string, opts ...Option) (*Flusher, error) {
	if repo == nil {
		return nil, errors.Newf("outbox repository is required").
			Component("outbox").
			Category(errors.CategoryValidation).
			Build()
	}
	if baseURL == "" {
		return nil, errors.Newf("outbox base URL is required").
			Component("outbox").
			Category(errors.CategoryValidation).
			Build()
	}
	if client == nil {
		client = http.DefaultClient
	}
	f := &Flusher{
		repo:       repo,
		client:     client,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		maxRetries: defaultMaxRetries,
		log:        logger.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Queue records a mutation for later replay and returns the stored
// operation. The idempotency key is assigned here, before the first
// delivery attempt, so retries always carry the same key.
func (f *Flusher) Queue(ctx context.Context, method, path, body string) (*entities.OutboxOperation, error) {
	op := &entities.OutboxOperation{
		IdempotencyKey: uuid.NewString(),
		Method:         method,
		Path:           path,
		Body:           body,
	}
	if err := f.repo.Enqueue(ctx, op); err != nil {
		return nil, err
	}
	f.log.Debug("queued outbox operation",
		logger.Uint64("id", uint64(op.ID)),
		logger.String("method", method),
		logger.String("path", path))
	f.updatePendingGauge(ctx)
	return op, nil
}

// Flush replays every pending operation in order. Operations the
// backend acknowledges are removed; operations the backend rejects as
// conflicting are abandoned, keeping the backend's version of the data.
// Transient failures stay queued for the next flush.
func (f *Flusher) Flush(ctx context.Context) error {
	ops, err := f.repo.ListPending(ctx, 0)
	if err != nil {
		return err
	}
	defer f.updatePendingGauge(ctx)

	var firstErr error
	for i := range ops {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := f.replay(ctx, &ops[i]); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Pending reports how many operations are waiting for replay.
func (f *Flusher) Pending(ctx context.Context) (int64, error) {
	return f.repo.CountPending(ctx)
}

// replay delivers a single operation, retrying transient failures with
// exponential backoff inside this flush pass.
func (f *Flusher) replay(ctx context.Context, op *entities.OutboxOperation) error {
	policy := backoff.WithContext(newReplayBackoff(), ctx)

	status, err := backoff.RetryWithData(func() (int, error) {
		status, err := f.deliver(ctx, op)
		if err != nil {
			return 0, err
		}
		if status >= http.StatusInternalServerError {
			return 0, fmt.Errorf("backend returned %d", status)
		}
		return status, nil
	}, policy)
	if err != nil {
		return f.recordFailure(ctx, op, err)
	}

	switch {
	case status >= 200 && status < 300:
		f.log.Info("outbox operation acknowledged",
			logger.Uint64("id", uint64(op.ID)),
			logger.String("path", op.Path))
		return f.repo.Acknowledge(ctx, op.ID)
	case status == http.StatusConflict || status == http.StatusGone:
		// The backend already holds a newer version of this resource.
		// The queued mutation loses; keep the backend's state.
		f.log.Warn("outbox operation rejected by backend",
			logger.Uint64("id", uint64(op.ID)),
			logger.Int("status", status))
		return f.repo.MarkFailed(ctx, op.ID, fmt.Sprintf("rejected with status %d", status))
	default:
		return f.recordFailure(ctx, op, fmt.Errorf("backend returned %d", status))
	}
}

// deliver performs one HTTP attempt for the operation.
func (f *Flusher) deliver(ctx context.Context, op *entities.OutboxOperation) (int, error) {
	req, err := http.NewRequestWithContext(ctx, op.Method, f.baseURL+op.Path, strings.NewReader(op.Body))
	if err != nil {
		return 0, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(IdempotencyHeader, op.IdempotencyKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

// recordFailure bumps the retry counter, abandoning the operation once
// it exhausts the retry budget.
func (f *Flusher) recordFailure(ctx context.Context, op *entities.OutboxOperation, cause error) error {
	if op.Retries+1 >= f.maxRetries {
		f.log.Error("outbox operation abandoned after repeated failures",
			logger.Uint64("id", uint64(op.ID)),
			logger.Int("retries", op.Retries+1),
			logger.Error(cause))
		if err := f.repo.MarkFailed(ctx, op.ID, cause.Error()); err != nil {
			return err
		}
		return errors.New(cause).
			Component("outbox").
			Category(errors.CategoryNetwork).
			Context("operation_id", op.ID).
			Build()
	}
	f.log.Warn("outbox replay failed, will retry",
		logger.Uint64("id", uint64(op.ID)),
		logger.Int("retries", op.Retries+1),
		logger.Error(cause))
	if err := f.repo.RecordFailure(ctx, op.ID, cause.Error()); err != nil {
		return err
	}
	return errors.New(cause).
		Component("outbox").
		Category(errors.CategoryNetwork).
		Context("operation_id", op.ID).
		Build()
}

func (f *Flusher) updatePendingGauge(ctx context.Context) {
	count, err := f.repo.CountPending(ctx)
	if err != nil {
		return
	}
	f.metrics.SetOutboxPending(count)
}

// newReplayBackoff bounds in-pass retries to a few quick attempts; the
// periodic flush loop handles longer outages.
func newReplayBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second
	return backoff.WithMaxRetries(b, 3)
}
