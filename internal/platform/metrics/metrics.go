package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the pipeline and read path.
type Metrics struct {
	JobsEnqueued      *prometheus.CounterVec
	JobsDeduplicated  *prometheus.CounterVec
	JobsProcessed     *prometheus.CounterVec
	JobsRetried       *prometheus.CounterVec
	JobsFailed        *prometheus.CounterVec
	EmailsSent        prometheus.Counter
	EmailsFailed      prometheus.Counter
	NotificationsSent prometheus.Counter
	AuditWriteErrors  prometheus.Counter
	LifecycleRequests *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		JobsEnqueued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sponsorhub_jobs_enqueued_total",
			Help: "Total jobs accepted onto a queue.",
		}, []string{"queue"}),
		JobsDeduplicated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sponsorhub_jobs_deduplicated_total",
			Help: "Total enqueues collapsed by an existing job ID.",
		}, []string{"queue"}),
		JobsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sponsorhub_jobs_processed_total",
			Help: "Total jobs completed successfully.",
		}, []string{"queue"}),
		JobsRetried: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sponsorhub_jobs_retried_total",
			Help: "Total job attempts rescheduled after failure.",
		}, []string{"queue"}),
		JobsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sponsorhub_jobs_failed_total",
			Help: "Total jobs moved to the failed set after exhausting retries.",
		}, []string{"queue"}),
		EmailsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sponsorhub_emails_sent_total",
			Help: "Total email delivery attempts that succeeded.",
		}),
		EmailsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sponsorhub_emails_failed_total",
			Help: "Total email delivery attempts that failed.",
		}),
		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sponsorhub_notifications_created_total",
			Help: "Total in-app notifications created by the processor.",
		}),
		AuditWriteErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sponsorhub_audit_write_errors_total",
			Help: "Total swallowed audit log write failures.",
		}),
		LifecycleRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sponsorhub_lifecycle_requests_total",
			Help: "Total lifecycle view requests by entity type.",
		}, []string{"entity"}),
	}
}
