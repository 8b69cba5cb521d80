// Package review implements the mutating workflow operations: verification
// decisions on companies and events, and the proposal submit/decide
// transitions. Every operation follows the same shape: authorize, persist,
// best-effort audit, publish exactly one domain event after the write, and
// invalidate the affected list-view cache.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"sponsorhub/internal/audit"
	"sponsorhub/internal/bus"
	"sponsorhub/internal/records"
	id "sponsorhub/pkg/domain"
	dErrors "sponsorhub/pkg/domain-errors"
	"sponsorhub/pkg/platform/sentinel"
	"sponsorhub/pkg/requestcontext"
)

// Store is the record surface the review workflows mutate.
type Store interface {
	FindCompany(ctx context.Context, tenantID id.TenantID, companyID id.CompanyID) (*records.Company, error)
	UpdateCompany(ctx context.Context, c *records.Company) error
	FindEvent(ctx context.Context, tenantID id.TenantID, eventID id.EventID) (*records.Event, error)
	UpdateEvent(ctx context.Context, e *records.Event) error
	FindSponsorship(ctx context.Context, tenantID id.TenantID, sponsorshipID id.SponsorshipID) (*records.Sponsorship, error)
	CreateSponsorship(ctx context.Context, sp *records.Sponsorship) error
	FindProposal(ctx context.Context, tenantID id.TenantID, proposalID id.ProposalID) (*records.Proposal, error)
	CreateProposal(ctx context.Context, p *records.Proposal) error
	UpdateProposal(ctx context.Context, p *records.Proposal) error
}

// Publisher hands a committed event to the bus.
type Publisher interface {
	Publish(ctx context.Context, event bus.Event) error
}

// Cache invalidates list-view caches after a mutation. Best-effort.
type Cache interface {
	InvalidateEntityLists(ctx context.Context, tenantID id.TenantID, entityType id.EntityType)
}

// Service runs the review workflows.
type Service struct {
	store     Store
	audit     *audit.Recorder
	publisher Publisher
	cache     Cache
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithCache(cache Cache) Option {
	return func(s *Service) { s.cache = cache }
}

func NewService(store Store, recorder *audit.Recorder, publisher Publisher, opts ...Option) *Service {
	s := &Service{
		store:     store,
		audit:     recorder,
		publisher: publisher,
		cache:     noopCache{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// actor is the authenticated caller, pulled from the request context.
type actor struct {
	userID id.UserID
	role   id.Role
}

func callerFrom(ctx context.Context) (actor, error) {
	a := actor{userID: requestcontext.UserID(ctx), role: requestcontext.Role(ctx)}
	if a.userID.IsNil() || !a.role.IsValid() {
		return actor{}, dErrors.New(dErrors.CodeUnauthorized, "missing authenticated caller")
	}
	return a, nil
}

func reviewerFrom(ctx context.Context) (actor, error) {
	a, err := callerFrom(ctx)
	if err != nil {
		return actor{}, err
	}
	if !a.role.CanReview() {
		return actor{}, dErrors.New(dErrors.CodeForbidden, "verification requires a manager or admin role")
	}
	return a, nil
}

func (s *Service) meta(ctx context.Context, a actor, previous, next, notes string) bus.Meta {
	return bus.Meta{
		TenantID:       requestcontext.TenantID(ctx),
		ActorID:        a.userID,
		ActorRole:      a.role,
		PreviousStatus: previous,
		NewStatus:      next,
		ReviewerNotes:  notes,
		OccurredAt:     requestcontext.Now(ctx),
	}
}

// publish emits the event after the write has committed. A publish failure
// is logged and swallowed: the mutation stands, the side effects are lost.
func (s *Service) publish(ctx context.Context, event bus.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("domain event publish failed",
			"event", event.Name(),
			"key", event.Key(),
			"error", err,
		)
	}
}

func (s *Service) record(ctx context.Context, a actor, action audit.Action, entity id.EntityRef, metadata map[string]string) {
	s.audit.Record(ctx, audit.Entry{
		ID:        uuid.New(),
		TenantID:  requestcontext.TenantID(ctx),
		ActorID:   a.userID,
		ActorRole: a.role,
		Action:    action,
		Entity:    entity,
		Metadata:  metadata,
		CreatedAt: requestcontext.Now(ctx),
	})
}

// VerifyCompany moves a pending company to VERIFIED.
func (s *Service) VerifyCompany(ctx context.Context, companyID id.CompanyID, notes string) (*records.Company, error) {
	return s.decideCompany(ctx, companyID, records.VerificationVerified, notes)
}

// RejectCompany moves a pending company to REJECTED. Rejection is a
// completed review, not an error state.
func (s *Service) RejectCompany(ctx context.Context, companyID id.CompanyID, notes string) (*records.Company, error) {
	return s.decideCompany(ctx, companyID, records.VerificationRejected, notes)
}

func (s *Service) decideCompany(ctx context.Context, companyID id.CompanyID, decision records.VerificationStatus, notes string) (*records.Company, error) {
	a, err := reviewerFrom(ctx)
	if err != nil {
		return nil, err
	}
	tenantID := requestcontext.TenantID(ctx)

	company, err := s.store.FindCompany(ctx, tenantID, companyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "company not found")
		}
		return nil, fmt.Errorf("find company: %w", err)
	}
	if company.Status.IsReviewed() {
		return nil, dErrors.Newf(dErrors.CodeConflict, "company already reviewed as %s", company.Status)
	}

	previous := company.Status
	now := requestcontext.Now(ctx)
	company.Status = decision
	company.ReviewerNotes = notes
	company.ReviewedAt = &now
	if err := s.store.UpdateCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("update company: %w", err)
	}

	action := audit.ActionCompanyVerified
	if decision == records.VerificationRejected {
		action = audit.ActionCompanyRejected
	}
	s.record(ctx, a, action, id.CompanyRef(companyID), map[string]string{"notes": notes})

	meta := s.meta(ctx, a, string(previous), string(decision), notes)
	if decision == records.VerificationVerified {
		s.publish(ctx, bus.CompanyVerified{CompanyID: companyID, Meta: meta})
	} else {
		s.publish(ctx, bus.CompanyRejected{CompanyID: companyID, Meta: meta})
	}
	s.cache.InvalidateEntityLists(ctx, tenantID, id.EntityCompany)
	return company, nil
}

// VerifyEvent moves a pending event to VERIFIED.
func (s *Service) VerifyEvent(ctx context.Context, eventID id.EventID, notes string) (*records.Event, error) {
	return s.decideEvent(ctx, eventID, records.VerificationVerified, notes)
}

// RejectEvent moves a pending event to REJECTED.
func (s *Service) RejectEvent(ctx context.Context, eventID id.EventID, notes string) (*records.Event, error) {
	return s.decideEvent(ctx, eventID, records.VerificationRejected, notes)
}

func (s *Service) decideEvent(ctx context.Context, eventID id.EventID, decision records.VerificationStatus, notes string) (*records.Event, error) {
	a, err := reviewerFrom(ctx)
	if err != nil {
		return nil, err
	}
	tenantID := requestcontext.TenantID(ctx)

	event, err := s.store.FindEvent(ctx, tenantID, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	if event.Status.IsReviewed() {
		return nil, dErrors.Newf(dErrors.CodeConflict, "event already reviewed as %s", event.Status)
	}

	previous := event.Status
	now := requestcontext.Now(ctx)
	event.Status = decision
	event.ReviewerNotes = notes
	event.ReviewedAt = &now
	if err := s.store.UpdateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	action := audit.ActionEventVerified
	if decision == records.VerificationRejected {
		action = audit.ActionEventRejected
	}
	s.record(ctx, a, action, id.EventRef(eventID), map[string]string{"notes": notes})

	meta := s.meta(ctx, a, string(previous), string(decision), notes)
	if decision == records.VerificationVerified {
		s.publish(ctx, bus.EventVerified{EventID: eventID, Meta: meta})
	} else {
		s.publish(ctx, bus.EventRejected{EventID: eventID, Meta: meta})
	}
	s.cache.InvalidateEntityLists(ctx, tenantID, id.EntityEvent)
	return event, nil
}

// CreateSponsorship links a company to an event.
func (s *Service) CreateSponsorship(ctx context.Context, companyID id.CompanyID, eventID id.EventID) (*records.Sponsorship, error) {
	a, err := callerFrom(ctx)
	if err != nil {
		return nil, err
	}
	tenantID := requestcontext.TenantID(ctx)

	company, err := s.store.FindCompany(ctx, tenantID, companyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "company not found")
		}
		return nil, fmt.Errorf("find company: %w", err)
	}
	if company.Status != records.VerificationVerified {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "only verified companies can sponsor events")
	}
	event, err := s.store.FindEvent(ctx, tenantID, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	if event.Status != records.VerificationVerified {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "only verified events accept sponsorships")
	}

	sp := &records.Sponsorship{
		ID:        id.SponsorshipID(uuid.New()),
		TenantID:  tenantID,
		CompanyID: companyID,
		EventID:   eventID,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.CreateSponsorship(ctx, sp); err != nil {
		return nil, fmt.Errorf("create sponsorship: %w", err)
	}

	s.record(ctx, a, audit.ActionSponsorshipCreated, id.SponsorshipRef(sp.ID), map[string]string{
		"company_id": companyID.String(),
		"event_id":   eventID.String(),
	})
	s.cache.InvalidateEntityLists(ctx, tenantID, id.EntitySponsorship)
	return sp, nil
}

// CreateProposal opens a draft proposal under a sponsorship.
func (s *Service) CreateProposal(ctx context.Context, sponsorshipID id.SponsorshipID, title string) (*records.Proposal, error) {
	a, err := callerFrom(ctx)
	if err != nil {
		return nil, err
	}
	if title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "proposal title cannot be empty")
	}
	tenantID := requestcontext.TenantID(ctx)

	if _, err := s.store.FindSponsorship(ctx, tenantID, sponsorshipID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "sponsorship not found")
		}
		return nil, fmt.Errorf("find sponsorship: %w", err)
	}

	p := &records.Proposal{
		ID:            id.ProposalID(uuid.New()),
		TenantID:      tenantID,
		SponsorshipID: sponsorshipID,
		Title:         title,
		Status:        records.ProposalDraft,
		CreatedBy:     a.userID,
		CreatedAt:     requestcontext.Now(ctx),
	}
	if err := s.store.CreateProposal(ctx, p); err != nil {
		return nil, fmt.Errorf("create proposal: %w", err)
	}

	s.record(ctx, a, audit.ActionProposalCreated, id.ProposalRef(p.ID), map[string]string{"title": title})
	s.publish(ctx, bus.ProposalCreated{
		ProposalID: p.ID,
		Meta:       s.meta(ctx, a, "", string(records.ProposalDraft), ""),
	})
	s.cache.InvalidateEntityLists(ctx, tenantID, id.EntityProposal)
	return p, nil
}

// SubmitProposal moves a draft proposal into review. Only the proposal's
// creator may submit it.
func (s *Service) SubmitProposal(ctx context.Context, proposalID id.ProposalID) (*records.Proposal, error) {
	a, err := callerFrom(ctx)
	if err != nil {
		return nil, err
	}
	tenantID := requestcontext.TenantID(ctx)

	proposal, err := s.store.FindProposal(ctx, tenantID, proposalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "proposal not found")
		}
		return nil, fmt.Errorf("find proposal: %w", err)
	}
	if proposal.CreatedBy != a.userID && !a.role.CanReview() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the proposal owner can submit it")
	}
	if proposal.Status != records.ProposalDraft {
		return nil, dErrors.Newf(dErrors.CodeConflict, "proposal is %s, only drafts can be submitted", proposal.Status)
	}

	now := requestcontext.Now(ctx)
	proposal.Status = records.ProposalSubmitted
	proposal.SubmittedAt = &now
	if err := s.store.UpdateProposal(ctx, proposal); err != nil {
		return nil, fmt.Errorf("update proposal: %w", err)
	}

	s.record(ctx, a, audit.ActionProposalSubmitted, id.ProposalRef(proposalID), nil)
	s.publish(ctx, bus.ProposalStatusChanged{
		ProposalID: proposalID,
		Meta:       s.meta(ctx, a, string(records.ProposalDraft), string(records.ProposalSubmitted), ""),
	})
	s.cache.InvalidateEntityLists(ctx, tenantID, id.EntityProposal)
	return proposal, nil
}

// DecideProposal approves or rejects a submitted proposal.
func (s *Service) DecideProposal(ctx context.Context, proposalID id.ProposalID, approve bool, notes string) (*records.Proposal, error) {
	a, err := reviewerFrom(ctx)
	if err != nil {
		return nil, err
	}
	tenantID := requestcontext.TenantID(ctx)

	proposal, err := s.store.FindProposal(ctx, tenantID, proposalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "proposal not found")
		}
		return nil, fmt.Errorf("find proposal: %w", err)
	}
	if proposal.Status != records.ProposalSubmitted {
		return nil, dErrors.Newf(dErrors.CodeConflict, "proposal is %s, only submitted proposals can be decided", proposal.Status)
	}

	previous := proposal.Status
	decision := records.ProposalApproved
	action := audit.ActionProposalApproved
	if !approve {
		decision = records.ProposalRejected
		action = audit.ActionProposalRejected
	}

	now := requestcontext.Now(ctx)
	proposal.Status = decision
	proposal.ReviewerNotes = notes
	proposal.ReviewedAt = &now
	if err := s.store.UpdateProposal(ctx, proposal); err != nil {
		return nil, fmt.Errorf("update proposal: %w", err)
	}

	s.record(ctx, a, action, id.ProposalRef(proposalID), map[string]string{"notes": notes})
	s.publish(ctx, bus.ProposalStatusChanged{
		ProposalID: proposalID,
		Meta:       s.meta(ctx, a, string(previous), string(decision), notes),
	})
	s.cache.InvalidateEntityLists(ctx, tenantID, id.EntityProposal)
	return proposal, nil
}
