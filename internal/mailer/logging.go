package mailer

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"sponsorhub/internal/emaillog"
	"sponsorhub/internal/platform/metrics"
	"sponsorhub/pkg/requestcontext"
)

// LoggingSender decorates a Sender with the append-only delivery log.
// Exactly one log entry is written per attempt, on both success and failure.
// The log write is best-effort: it never changes the send outcome.
type LoggingSender struct {
	next    Sender
	store   emaillog.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewLoggingSender(next Sender, store emaillog.Store, logger *slog.Logger, m *metrics.Metrics) *LoggingSender {
	return &LoggingSender{next: next, store: store, logger: logger, metrics: m}
}

func (s *LoggingSender) Send(ctx context.Context, msg Message) error {
	sendErr := s.next.Send(ctx, msg)

	entry := emaillog.Entry{
		ID:        uuid.New(),
		TenantID:  msg.TenantID,
		Recipient: msg.Recipient,
		Subject:   msg.Subject,
		JobName:   msg.JobName,
		Entity:    msg.Entity,
		Status:    emaillog.StatusSent,
		CreatedAt: requestcontext.Now(ctx),
	}
	if sendErr != nil {
		entry.Status = emaillog.StatusFailed
		entry.ErrorMessage = sendErr.Error()
	}
	if err := s.store.Append(ctx, entry); err != nil {
		s.logger.Error("email log write failed",
			"recipient", msg.Recipient,
			"job", msg.JobName,
			"error", err,
		)
	}

	if s.metrics != nil {
		if sendErr != nil {
			s.metrics.EmailsFailed.Inc()
		} else {
			s.metrics.EmailsSent.Inc()
		}
	}
	return sendErr
}
