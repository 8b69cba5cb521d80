package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"sponsorhub/internal/platform/metrics"
	"sponsorhub/pkg/requestcontext"
)

// Recorder is the write-side front of the audit log. Record never returns
// an error: store failures are logged and counted, and the triggering
// business operation proceeds untouched.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type RecorderOption func(*Recorder)

func WithMetrics(m *metrics.Metrics) RecorderOption {
	return func(r *Recorder) { r.metrics = m }
}

func NewRecorder(store Store, logger *slog.Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{store: store, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends an audit entry, filling ID and timestamp when unset.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = requestcontext.Now(ctx)
	}

	if err := r.store.Append(ctx, entry); err != nil {
		r.logger.WarnContext(ctx, "audit write failed, continuing",
			"action", entry.Action,
			"entity_type", entry.Entity.Type,
			"entity_id", entry.Entity.ID,
			"error", err,
		)
		if r.metrics != nil {
			r.metrics.AuditWriteErrors.Inc()
		}
	}
}
