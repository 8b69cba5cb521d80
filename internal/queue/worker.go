package queue

import (
	"context"
	"log/slog"
	"time"

	"sponsorhub/internal/platform/config"
	"sponsorhub/internal/platform/metrics"
)

// Handler processes a single job. A nil return completes the job; an error
// schedules a retry until MaxAttempts, after which the job lands in the
// failed history.
type Handler interface {
	Process(ctx context.Context, job Job) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, job Job) error

func (f HandlerFunc) Process(ctx context.Context, job Job) error {
	return f(ctx, job)
}

const dequeueBatch = 16

// Worker polls one queue and drives jobs through the handler.
type Worker struct {
	backend Backend
	queue   string
	handler Handler
	cfg     config.QueueConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
	// now is swapped in tests to control the clock.
	now func() time.Time
}

func NewWorker(backend Backend, queue string, handler Handler, cfg config.QueueConfig, opts ...Option) *Worker {
	o := resolveOptions(opts)
	return &Worker{
		backend: backend,
		queue:   queue,
		handler: handler,
		cfg:     cfg,
		logger:  o.logger.With("queue", queue),
		metrics: o.metrics,
		now:     time.Now,
	}
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	interval := w.cfg.PollInterval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Tick(ctx); err != nil {
				w.logger.Error("queue poll failed", "error", err)
			}
		}
	}
}

// Tick processes one batch of due jobs. Exported so tests can step the
// worker without real time passing.
func (w *Worker) Tick(ctx context.Context) error {
	now := w.now()
	jobs, err := w.backend.Dequeue(ctx, w.queue, now, dequeueBatch)
	if err != nil {
		return err
	}
	for _, job := range jobs {
		w.process(ctx, job, now)
	}
	return nil
}

func (w *Worker) process(ctx context.Context, job Job, now time.Time) {
	job.Attempts++
	jobCtx := ctx
	if w.cfg.JobTimeout > 0 {
		// A stuck handler counts as a failed attempt instead of stalling
		// the whole poll loop.
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, w.cfg.JobTimeout)
		defer cancel()
	}
	err := w.handler.Process(jobCtx, job)
	if err == nil {
		job.LastError = ""
		if storeErr := w.backend.Complete(ctx, job); storeErr != nil {
			w.logger.Error("record completed job", "job_id", job.ID, "error", storeErr)
		}
		if w.metrics != nil {
			w.metrics.JobsProcessed.WithLabelValues(w.queue).Inc()
		}
		return
	}

	job.LastError = err.Error()
	if job.Attempts >= job.MaxAttempts {
		w.logger.Error("job failed permanently",
			"job_id", job.ID,
			"job", job.Name,
			"attempts", job.Attempts,
			"error", err,
		)
		if storeErr := w.backend.Fail(ctx, job); storeErr != nil {
			w.logger.Error("record failed job", "job_id", job.ID, "error", storeErr)
		}
		if w.metrics != nil {
			w.metrics.JobsFailed.WithLabelValues(w.queue).Inc()
		}
		return
	}

	delay := backoffDelay(w.cfg.BackoffBase, job.Attempts)
	job.RunAt = now.Add(delay)
	w.logger.Warn("job attempt failed, retrying",
		"job_id", job.ID,
		"job", job.Name,
		"attempt", job.Attempts,
		"retry_in", delay,
		"error", err,
	)
	if storeErr := w.backend.Retry(ctx, job); storeErr != nil {
		w.logger.Error("reschedule job", "job_id", job.ID, "error", storeErr)
	}
	if w.metrics != nil {
		w.metrics.JobsRetried.WithLabelValues(w.queue).Inc()
	}
}
