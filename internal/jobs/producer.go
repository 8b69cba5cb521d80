package jobs

import (
	"context"
	"log/slog"

	"sponsorhub/internal/bus"
	"sponsorhub/internal/queue"
)

// Producer subscribes to domain events and fans each one out into one email
// job and one notification job. Job IDs are deterministic ({name}:{entity}),
// so duplicate event emission collapses in the queue instead of
// double-processing.
//
// Enqueue failures are logged and swallowed: by the time a producer runs the
// mutation has committed, and failing the user-facing request over a lost
// notification would be worse than the lost notification.
type Producer struct {
	email         *queue.Queue
	notifications *queue.Queue
	logger        *slog.Logger
}

func NewProducer(email, notifications *queue.Queue, logger *slog.Logger) *Producer {
	return &Producer{
		email:         email,
		notifications: notifications,
		logger:        logger,
	}
}

func (p *Producer) HandleEvent(ctx context.Context, event bus.Event) error {
	name := event.Name()
	if _, known := knownJobNames[name]; !known {
		p.logger.Debug("event has no delivery jobs", "event", name)
		return nil
	}

	payload, err := encodePayload(event)
	if err != nil {
		p.logger.Error("encode job payload", "event", name, "error", err)
		return nil
	}

	jobID := queue.JobID(name, event.Key())
	now := event.EventMeta().OccurredAt

	if err := p.email.Enqueue(ctx, jobID, name, payload, now); err != nil {
		p.logger.Error("enqueue email job", "job_id", jobID, "error", err)
	}
	if err := p.notifications.Enqueue(ctx, jobID, name, payload, now); err != nil {
		p.logger.Error("enqueue notification job", "job_id", jobID, "error", err)
	}
	return nil
}
