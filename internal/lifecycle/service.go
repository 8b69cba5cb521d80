package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"sponsorhub/internal/audit"
	"sponsorhub/internal/emaillog"
	"sponsorhub/internal/notification"
	"sponsorhub/internal/platform/metrics"
	"sponsorhub/internal/records"
	id "sponsorhub/pkg/domain"
	dErrors "sponsorhub/pkg/domain-errors"
	"sponsorhub/pkg/platform/sentinel"
)

// Records is the read-only record surface the aggregator traverses.
type Records interface {
	FindCompany(ctx context.Context, tenantID id.TenantID, companyID id.CompanyID) (*records.Company, error)
	FindEvent(ctx context.Context, tenantID id.TenantID, eventID id.EventID) (*records.Event, error)
	ListSponsorshipsByCompany(ctx context.Context, tenantID id.TenantID, companyID id.CompanyID) ([]records.Sponsorship, error)
	ListSponsorshipsByEvent(ctx context.Context, tenantID id.TenantID, eventID id.EventID) ([]records.Sponsorship, error)
	ListProposalsBySponsorship(ctx context.Context, tenantID id.TenantID, sponsorshipID id.SponsorshipID) ([]records.Proposal, error)
}

// AuditLog and EmailLog are the query-side surfaces of the append-only logs.
type AuditLog interface {
	QueryByEntities(ctx context.Context, tenantID id.TenantID, refs []id.EntityRef) ([]audit.Entry, error)
}

type EmailLog interface {
	QueryByEntities(ctx context.Context, tenantID id.TenantID, refs []id.EntityRef) ([]emaillog.Entry, error)
}

type Notifications interface {
	QueryByEntity(ctx context.Context, tenantID id.TenantID, ref id.EntityRef) ([]notification.Notification, error)
}

// Service builds lifecycle views. It performs only reads and is safe to
// call concurrently; results drift between calls as async jobs land.
type Service struct {
	records       Records
	auditLog      AuditLog
	emailLog      EmailLog
	notifications Notifications
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(recs Records, auditLog AuditLog, emailLog EmailLog, notifications Notifications, opts ...Option) *Service {
	s := &Service{
		records:       recs,
		auditLog:      auditLog,
		emailLog:      emailLog,
		notifications: notifications,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CompanyLifecycle assembles the timeline and progress view for a company.
// A missing company is the only hard failure; every sub-fetch degrades to
// an empty collection.
func (s *Service) CompanyLifecycle(ctx context.Context, tenantID id.TenantID, companyID id.CompanyID) (*CompanyView, error) {
	if s.metrics != nil {
		s.metrics.LifecycleRequests.WithLabelValues(string(id.EntityCompany)).Inc()
	}

	company, err := s.records.FindCompany(ctx, tenantID, companyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "company not found")
		}
		return nil, fmt.Errorf("find company: %w", err)
	}

	sponsorships, err := s.records.ListSponsorshipsByCompany(ctx, tenantID, companyID)
	if err != nil {
		return nil, fmt.Errorf("list sponsorships: %w", err)
	}
	proposals, err := s.proposalsFor(ctx, tenantID, sponsorships)
	if err != nil {
		return nil, err
	}

	refs := correlationRefs(id.CompanyRef(companyID), proposals)
	auditEntries := s.queryAudit(ctx, tenantID, refs)
	emailEntries := s.queryEmail(ctx, tenantID, refs)
	notifications := s.queryNotifications(ctx, tenantID, id.CompanyRef(companyID))

	b := &builder{}
	b.add(TimelineEntry{
		Type:        EntryCompanyCreated,
		Entity:      id.CompanyRef(companyID),
		Description: fmt.Sprintf("Company %q registered", company.Name),
		Timestamp:   company.CreatedAt,
	})
	b.addAuditEntries(auditEntries)
	b.addSponsorships(sponsorships)
	b.addProposals(proposals)
	b.addEmailEntries(emailEntries)
	b.addNotifications(notifications)

	return &CompanyView{
		Company:  *company,
		Stats:    computeStats(sponsorships, proposals, emailEntries),
		Progress: computeProgress(company.Status, sponsorships, proposals, emailEntries),
		Timeline: b.finish(),
	}, nil
}

// EventLifecycle assembles the timeline and progress view for an event.
// Unlike the company view it charts no notifications.
func (s *Service) EventLifecycle(ctx context.Context, tenantID id.TenantID, eventID id.EventID) (*EventView, error) {
	if s.metrics != nil {
		s.metrics.LifecycleRequests.WithLabelValues(string(id.EntityEvent)).Inc()
	}

	event, err := s.records.FindEvent(ctx, tenantID, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, fmt.Errorf("find event: %w", err)
	}

	sponsorships, err := s.records.ListSponsorshipsByEvent(ctx, tenantID, eventID)
	if err != nil {
		return nil, fmt.Errorf("list sponsorships: %w", err)
	}
	proposals, err := s.proposalsFor(ctx, tenantID, sponsorships)
	if err != nil {
		return nil, err
	}

	refs := correlationRefs(id.EventRef(eventID), proposals)
	auditEntries := s.queryAudit(ctx, tenantID, refs)
	emailEntries := s.queryEmail(ctx, tenantID, refs)

	b := &builder{}
	b.add(TimelineEntry{
		Type:        EntryEventCreated,
		Entity:      id.EventRef(eventID),
		Description: fmt.Sprintf("Event %q created", event.Name),
		Timestamp:   event.CreatedAt,
	})
	b.addAuditEntries(auditEntries)
	b.addSponsorships(sponsorships)
	b.addProposals(proposals)
	b.addEmailEntries(emailEntries)

	return &EventView{
		Event:    *event,
		Stats:    computeStats(sponsorships, proposals, emailEntries),
		Progress: computeProgress(event.Status, sponsorships, proposals, emailEntries),
		Timeline: b.finish(),
	}, nil
}

func (s *Service) proposalsFor(ctx context.Context, tenantID id.TenantID, sponsorships []records.Sponsorship) ([]records.Proposal, error) {
	var out []records.Proposal
	for _, sp := range sponsorships {
		proposals, err := s.records.ListProposalsBySponsorship(ctx, tenantID, sp.ID)
		if err != nil {
			return nil, fmt.Errorf("list proposals for sponsorship %s: %w", sp.ID, err)
		}
		out = append(out, proposals...)
	}
	return out, nil
}

// The log queries degrade to empty slices on failure: a broken audit or
// email store should dent the timeline, not take down the lifecycle view.
func (s *Service) queryAudit(ctx context.Context, tenantID id.TenantID, refs []id.EntityRef) []audit.Entry {
	entries, err := s.auditLog.QueryByEntities(ctx, tenantID, refs)
	if err != nil {
		s.logger.Error("audit log query failed", "error", err)
		return nil
	}
	return entries
}

func (s *Service) queryEmail(ctx context.Context, tenantID id.TenantID, refs []id.EntityRef) []emaillog.Entry {
	entries, err := s.emailLog.QueryByEntities(ctx, tenantID, refs)
	if err != nil {
		s.logger.Error("email log query failed", "error", err)
		return nil
	}
	return entries
}

func (s *Service) queryNotifications(ctx context.Context, tenantID id.TenantID, ref id.EntityRef) []notification.Notification {
	entries, err := s.notifications.QueryByEntity(ctx, tenantID, ref)
	if err != nil {
		s.logger.Error("notification query failed", "error", err)
		return nil
	}
	return entries
}

func correlationRefs(root id.EntityRef, proposals []records.Proposal) []id.EntityRef {
	refs := make([]id.EntityRef, 0, len(proposals)+1)
	refs = append(refs, root)
	for _, p := range proposals {
		refs = append(refs, id.ProposalRef(p.ID))
	}
	return refs
}
