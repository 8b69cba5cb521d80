// Package queue is a small durable job queue with idempotent enqueue,
// bounded retries with exponential backoff, and capped completed/failed
// history for inspection. It backs the email and notification delivery
// pipeline; payloads are opaque bytes.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sponsorhub/internal/platform/config"
	"sponsorhub/internal/platform/metrics"
)

// Queue names used by the delivery pipeline.
const (
	QueueEmail         = "email"
	QueueNotifications = "notifications"
)

// Job is one unit of deferred work. ID is caller-supplied and deduplicating:
// a second enqueue of the same ID is dropped, which is what makes event
// redelivery safe.
type Job struct {
	ID          string    `json:"id"`
	Queue       string    `json:"queue"`
	Name        string    `json:"name"`
	Payload     []byte    `json:"payload"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
	RunAt       time.Time `json:"run_at"`
	LastError   string    `json:"last_error,omitempty"`
}

// JobID builds the canonical idempotency key for a job about an entity.
func JobID(name, entityID string) string {
	return name + ":" + entityID
}

// Backend stores jobs. Implementations must make Enqueue atomic with the
// dedup check and Dequeue safe for concurrent workers.
type Backend interface {
	// Enqueue schedules the job. Returns false when a job with the same ID
	// was already accepted.
	Enqueue(ctx context.Context, job Job) (bool, error)
	// Dequeue removes and returns up to limit jobs due at or before now.
	Dequeue(ctx context.Context, queue string, now time.Time, limit int) ([]Job, error)
	// Retry reschedules a job for a later attempt.
	Retry(ctx context.Context, job Job) error
	// Complete records the job in the completed history.
	Complete(ctx context.Context, job Job) error
	// Fail records the job in the failed history.
	Fail(ctx context.Context, job Job) error
	// Completed returns the retained completed jobs, newest first.
	Completed(ctx context.Context, queue string) ([]Job, error)
	// Failed returns the retained failed jobs, newest first.
	Failed(ctx context.Context, queue string) ([]Job, error)
}

// Queue is the enqueue-side handle for one named queue.
type Queue struct {
	backend Backend
	name    string
	cfg     config.QueueConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Queue or Worker.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func resolveOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func New(backend Backend, name string, cfg config.QueueConfig, opts ...Option) *Queue {
	o := resolveOptions(opts)
	return &Queue{
		backend: backend,
		name:    name,
		cfg:     cfg,
		logger:  o.logger,
		metrics: o.metrics,
	}
}

func (q *Queue) Name() string { return q.name }

// Enqueue schedules a job for immediate processing. Duplicate IDs are
// dropped silently apart from a metric tick.
func (q *Queue) Enqueue(ctx context.Context, id, jobName string, payload []byte, now time.Time) error {
	job := Job{
		ID:          id,
		Queue:       q.name,
		Name:        jobName,
		Payload:     payload,
		MaxAttempts: q.cfg.MaxAttempts,
		EnqueuedAt:  now,
		RunAt:       now,
	}
	accepted, err := q.backend.Enqueue(ctx, job)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", id, err)
	}
	if !accepted {
		q.logger.Debug("duplicate job dropped", "queue", q.name, "job_id", id)
		if q.metrics != nil {
			q.metrics.JobsDeduplicated.WithLabelValues(q.name).Inc()
		}
		return nil
	}
	if q.metrics != nil {
		q.metrics.JobsEnqueued.WithLabelValues(q.name).Inc()
	}
	return nil
}

// Completed exposes the retained completed history.
func (q *Queue) Completed(ctx context.Context) ([]Job, error) {
	return q.backend.Completed(ctx, q.name)
}

// Failed exposes the retained failed history.
func (q *Queue) Failed(ctx context.Context) ([]Job, error) {
	return q.backend.Failed(ctx, q.name)
}

// backoffDelay returns the wait before the next attempt: base doubled per
// completed attempt (1s, 2s, 4s, ...).
func backoffDelay(base time.Duration, attempts int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	delay := base
	for i := 1; i < attempts; i++ {
		delay *= 2
	}
	return delay
}
