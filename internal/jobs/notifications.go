package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"sponsorhub/internal/bus"
	"sponsorhub/internal/notification"
	"sponsorhub/internal/platform/metrics"
	"sponsorhub/internal/queue"
	"sponsorhub/internal/records"
	id "sponsorhub/pkg/domain"
	"sponsorhub/pkg/platform/sentinel"
	"sponsorhub/pkg/requestcontext"
)

// notificationContent is the closed per-job-name lookup for in-app
// notification copy.
type notificationContent struct {
	title    string
	message  string
	severity notification.Severity
}

var notificationTemplates = map[string]notificationContent{
	bus.NameProposalSubmitted: {
		title:    "Proposal submitted",
		message:  "Your sponsorship proposal was submitted for review.",
		severity: notification.SeverityInfo,
	},
	bus.NameProposalApproved: {
		title:    "Proposal approved",
		message:  "Your sponsorship proposal was approved.",
		severity: notification.SeveritySuccess,
	},
	bus.NameProposalRejected: {
		title:    "Proposal rejected",
		message:  "Your sponsorship proposal was rejected.",
		severity: notification.SeverityError,
	},
	bus.NameCompanyVerified: {
		title:    "Company verified",
		message:  "Your company passed verification.",
		severity: notification.SeveritySuccess,
	},
	bus.NameCompanyRejected: {
		title:    "Company verification declined",
		message:  "Your company did not pass verification.",
		severity: notification.SeverityWarning,
	},
	bus.NameEventVerified: {
		title:    "Event verified",
		message:  "Your event passed verification.",
		severity: notification.SeveritySuccess,
	},
	bus.NameEventRejected: {
		title:    "Event verification declined",
		message:  "Your event did not pass verification.",
		severity: notification.SeverityWarning,
	},
}

// NotificationProcessor consumes jobs from the notifications queue and
// writes in-app notifications. Proposal jobs address the acting user only;
// verification jobs broadcast to every user linked to the entity. Store
// errors surface so the queue retries them.
type NotificationProcessor struct {
	store   notification.Store
	records Records
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewNotificationProcessor(store notification.Store, recs Records, logger *slog.Logger, m *metrics.Metrics) *NotificationProcessor {
	return &NotificationProcessor{store: store, records: recs, logger: logger, metrics: m}
}

func (p *NotificationProcessor) Process(ctx context.Context, job queue.Job) error {
	content, known := notificationTemplates[job.Name]
	if !known {
		p.logger.Warn("unknown notification job name, acknowledging", "job", job.Name, "job_id", job.ID)
		return nil
	}

	payload, err := decodePayload(job.Payload)
	if err != nil {
		p.logger.Warn("undecodable notification job payload, acknowledging", "job_id", job.ID, "error", err)
		return nil
	}
	tenantID, err := payload.tenantID()
	if err != nil {
		p.logger.Warn("notification job has invalid tenant, acknowledging", "job_id", job.ID, "error", err)
		return nil
	}

	targets, ref, err := p.resolveTargets(ctx, tenantID, payload)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			p.logger.Warn("notification job entity no longer exists, acknowledging",
				"job_id", job.ID,
				"entity_type", payload.EntityType,
				"entity_id", payload.EntityID,
			)
			return nil
		}
		return fmt.Errorf("resolve notification targets for %s: %w", job.ID, err)
	}
	if len(targets) == 0 {
		p.logger.Warn("no notification targets resolved",
			"job", job.Name,
			"entity_type", payload.EntityType,
			"entity_id", payload.EntityID,
		)
		return nil
	}

	now := requestcontext.Now(ctx)
	for _, userID := range targets {
		n := notification.Notification{
			ID:        notificationID(job.ID, userID),
			TenantID:  tenantID,
			UserID:    userID,
			Title:     content.title,
			Message:   content.message,
			Severity:  content.severity,
			Link:      entityLink(ref),
			Entity:    ref,
			CreatedAt: now,
		}
		if err := p.store.Create(ctx, n); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				continue
			}
			return fmt.Errorf("create notification for %s: %w", userID, err)
		}
		if p.metrics != nil {
			p.metrics.NotificationsSent.Inc()
		}
	}
	return nil
}

// resolveTargets returns the user IDs to notify. Proposal jobs go to the
// acting user; verification jobs broadcast to the linked user set.
func (p *NotificationProcessor) resolveTargets(ctx context.Context, tenantID id.TenantID, payload Payload) ([]id.UserID, id.EntityRef, error) {
	switch id.EntityType(payload.EntityType) {
	case id.EntityProposal:
		proposalID, err := id.ParseProposalID(payload.EntityID)
		if err != nil {
			return nil, id.EntityRef{}, err
		}
		ref := id.ProposalRef(proposalID)
		proposal, err := p.records.FindProposal(ctx, tenantID, proposalID)
		if err != nil {
			return nil, ref, err
		}
		return []id.UserID{proposal.CreatedBy}, ref, nil

	case id.EntityCompany:
		companyID, err := id.ParseCompanyID(payload.EntityID)
		if err != nil {
			return nil, id.EntityRef{}, err
		}
		users, err := p.records.ListActiveUsersByCompany(ctx, tenantID, companyID)
		if err != nil {
			return nil, id.CompanyRef(companyID), err
		}
		return userIDs(users), id.CompanyRef(companyID), nil

	case id.EntityEvent:
		eventID, err := id.ParseEventID(payload.EntityID)
		if err != nil {
			return nil, id.EntityRef{}, err
		}
		ref := id.EventRef(eventID)
		event, err := p.records.FindEvent(ctx, tenantID, eventID)
		if err != nil {
			return nil, ref, err
		}
		users, err := p.records.ListActiveUsersByOrganizer(ctx, tenantID, event.OrganizerID, "")
		if err != nil {
			return nil, ref, err
		}
		return userIDs(users), ref, nil

	default:
		return nil, id.EntityRef{}, nil
	}
}

// notificationID derives a stable ID from the job and target user, so a
// retried job re-inserts the same rows and the store's conflict guard
// swallows them instead of duplicating.
func notificationID(jobID string, userID id.UserID) id.NotificationID {
	return id.NotificationID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(jobID+":"+userID.String())))
}

func userIDs(users []records.User) []id.UserID {
	out := make([]id.UserID, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

func entityLink(ref id.EntityRef) string {
	switch ref.Type {
	case id.EntityProposal:
		return "/proposals/" + ref.ID.String()
	case id.EntityCompany:
		return "/companies/" + ref.ID.String()
	case id.EntityEvent:
		return "/events/" + ref.ID.String()
	default:
		return ""
	}
}
