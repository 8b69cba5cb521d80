package review

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"sponsorhub/internal/audit"
	"sponsorhub/internal/bus"
	"sponsorhub/internal/records"
	id "sponsorhub/pkg/domain"
	dErrors "sponsorhub/pkg/domain-errors"
	"sponsorhub/pkg/requestcontext"
)

type capturingPublisher struct {
	mu     sync.Mutex
	events []bus.Event
	err    error
}

func (p *capturingPublisher) Publish(_ context.Context, event bus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name())
	}
	return out
}

type ReviewSuite struct {
	suite.Suite
	store     *records.Memory
	auditLog  *audit.MemoryStore
	publisher *capturingPublisher
	service   *Service

	tenantID  id.TenantID
	managerID id.UserID
	sponsorID id.UserID
	now       time.Time
}

func (s *ReviewSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = records.NewMemory()
	s.auditLog = audit.NewMemoryStore()
	s.publisher = &capturingPublisher{}
	s.service = NewService(s.store, audit.NewRecorder(s.auditLog, logger), s.publisher, WithLogger(logger))
	s.tenantID = id.TenantID(uuid.New())
	s.managerID = id.UserID(uuid.New())
	s.sponsorID = id.UserID(uuid.New())
	s.now = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
}

func TestReviewSuite(t *testing.T) {
	suite.Run(t, new(ReviewSuite))
}

func (s *ReviewSuite) ctxAs(userID id.UserID, role id.Role) context.Context {
	ctx := requestcontext.WithTenantID(context.Background(), s.tenantID)
	ctx = requestcontext.WithUserID(ctx, userID)
	ctx = requestcontext.WithRole(ctx, role)
	return requestcontext.WithTime(ctx, s.now)
}

func (s *ReviewSuite) seedCompany(status records.VerificationStatus) *records.Company {
	c := &records.Company{
		ID:        id.CompanyID(uuid.New()),
		TenantID:  s.tenantID,
		Name:      "Acme Robotics",
		Status:    status,
		CreatedAt: s.now.Add(-24 * time.Hour),
	}
	s.Require().NoError(s.store.CreateCompany(s.ctxAs(s.managerID, id.RoleManager), c))
	return c
}

func (s *ReviewSuite) seedEvent(status records.VerificationStatus) *records.Event {
	e := &records.Event{
		ID:          id.EventID(uuid.New()),
		TenantID:    s.tenantID,
		OrganizerID: id.OrganizerID(uuid.New()),
		Name:        "TechConf 2026",
		Status:      status,
		CreatedAt:   s.now.Add(-24 * time.Hour),
	}
	s.Require().NoError(s.store.CreateEvent(s.ctxAs(s.managerID, id.RoleManager), e))
	return e
}

func (s *ReviewSuite) seedDraftProposal() *records.Proposal {
	company := s.seedCompany(records.VerificationVerified)
	event := s.seedEvent(records.VerificationVerified)
	sp := &records.Sponsorship{
		ID:        id.SponsorshipID(uuid.New()),
		TenantID:  s.tenantID,
		CompanyID: company.ID,
		EventID:   event.ID,
		CreatedAt: s.now.Add(-time.Hour),
	}
	s.Require().NoError(s.store.CreateSponsorship(context.Background(), sp))
	p := &records.Proposal{
		ID:            id.ProposalID(uuid.New()),
		TenantID:      s.tenantID,
		SponsorshipID: sp.ID,
		Title:         "Gold tier booth",
		Status:        records.ProposalDraft,
		CreatedBy:     s.sponsorID,
		CreatedAt:     s.now.Add(-time.Hour),
	}
	s.Require().NoError(s.store.CreateProposal(context.Background(), p))
	return p
}

func (s *ReviewSuite) TestVerifyCompany() {
	s.Run("verifies pending company and publishes one event", func() {
		company := s.seedCompany(records.VerificationPending)

		updated, err := s.service.VerifyCompany(s.ctxAs(s.managerID, id.RoleManager), company.ID, "looks legitimate")
		s.Require().NoError(err)
		s.Equal(records.VerificationVerified, updated.Status)
		s.Require().NotNil(updated.ReviewedAt)
		s.Equal(s.now, *updated.ReviewedAt)

		s.Equal([]string{bus.NameCompanyVerified}, s.publisher.names())
		meta := s.publisher.events[0].EventMeta()
		s.Equal(s.managerID, meta.ActorID)
		s.Equal("PENDING", meta.PreviousStatus)
		s.Equal("VERIFIED", meta.NewStatus)
		s.Equal("looks legitimate", meta.ReviewerNotes)

		entries := s.auditLog.All()
		s.Require().Len(entries, 1)
		s.Equal(audit.ActionCompanyVerified, entries[0].Action)
	})

	s.Run("rejects non-reviewer roles", func() {
		company := s.seedCompany(records.VerificationPending)
		_, err := s.service.VerifyCompany(s.ctxAs(s.sponsorID, id.RoleSponsor), company.ID, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("conflicts on already reviewed company", func() {
		company := s.seedCompany(records.VerificationRejected)
		_, err := s.service.VerifyCompany(s.ctxAs(s.managerID, id.RoleManager), company.ID, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("not found outside tenant scope", func() {
		_, err := s.service.VerifyCompany(s.ctxAs(s.managerID, id.RoleManager), id.CompanyID(uuid.New()), "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ReviewSuite) TestRejectCompanyPublishesRejectedEvent() {
	company := s.seedCompany(records.VerificationPending)

	updated, err := s.service.RejectCompany(s.ctxAs(s.managerID, id.RoleAdmin), company.ID, "missing registration papers")
	s.Require().NoError(err)
	s.Equal(records.VerificationRejected, updated.Status)
	s.Equal([]string{bus.NameCompanyRejected}, s.publisher.names())
}

func (s *ReviewSuite) TestEventVerification() {
	s.Run("verifies pending event", func() {
		event := s.seedEvent(records.VerificationPending)
		updated, err := s.service.VerifyEvent(s.ctxAs(s.managerID, id.RoleManager), event.ID, "")
		s.Require().NoError(err)
		s.Equal(records.VerificationVerified, updated.Status)
		s.Equal([]string{bus.NameEventVerified}, s.publisher.names())
	})

	s.Run("rejects pending event", func() {
		event := s.seedEvent(records.VerificationPending)
		updated, err := s.service.RejectEvent(s.ctxAs(s.managerID, id.RoleManager), event.ID, "venue unconfirmed")
		s.Require().NoError(err)
		s.Equal(records.VerificationRejected, updated.Status)
		s.Contains(s.publisher.names(), bus.NameEventRejected)
	})
}

func (s *ReviewSuite) TestSubmitProposal() {
	s.Run("owner submits draft", func() {
		proposal := s.seedDraftProposal()

		updated, err := s.service.SubmitProposal(s.ctxAs(s.sponsorID, id.RoleSponsor), proposal.ID)
		s.Require().NoError(err)
		s.Equal(records.ProposalSubmitted, updated.Status)
		s.Require().NotNil(updated.SubmittedAt)
		s.Equal([]string{bus.NameProposalSubmitted}, s.publisher.names())
	})

	s.Run("non-owner cannot submit", func() {
		proposal := s.seedDraftProposal()
		_, err := s.service.SubmitProposal(s.ctxAs(id.UserID(uuid.New()), id.RoleSponsor), proposal.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("resubmission conflicts", func() {
		proposal := s.seedDraftProposal()
		_, err := s.service.SubmitProposal(s.ctxAs(s.sponsorID, id.RoleSponsor), proposal.ID)
		s.Require().NoError(err)
		_, err = s.service.SubmitProposal(s.ctxAs(s.sponsorID, id.RoleSponsor), proposal.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ReviewSuite) TestDecideProposal() {
	submit := func() *records.Proposal {
		proposal := s.seedDraftProposal()
		updated, err := s.service.SubmitProposal(s.ctxAs(s.sponsorID, id.RoleSponsor), proposal.ID)
		s.Require().NoError(err)
		return updated
	}

	s.Run("approves submitted proposal", func() {
		proposal := submit()
		updated, err := s.service.DecideProposal(s.ctxAs(s.managerID, id.RoleManager), proposal.ID, true, "great fit")
		s.Require().NoError(err)
		s.Equal(records.ProposalApproved, updated.Status)
		s.Require().NotNil(updated.ReviewedAt)
		s.Contains(s.publisher.names(), bus.NameProposalApproved)
	})

	s.Run("rejects submitted proposal", func() {
		proposal := submit()
		updated, err := s.service.DecideProposal(s.ctxAs(s.managerID, id.RoleManager), proposal.ID, false, "budget mismatch")
		s.Require().NoError(err)
		s.Equal(records.ProposalRejected, updated.Status)
		s.Contains(s.publisher.names(), bus.NameProposalRejected)
	})

	s.Run("cannot decide a draft", func() {
		proposal := s.seedDraftProposal()
		_, err := s.service.DecideProposal(s.ctxAs(s.managerID, id.RoleManager), proposal.ID, true, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("sponsor cannot decide", func() {
		proposal := submit()
		_, err := s.service.DecideProposal(s.ctxAs(s.sponsorID, id.RoleSponsor), proposal.ID, true, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ReviewSuite) TestCreateSponsorshipRequiresVerifiedPair() {
	company := s.seedCompany(records.VerificationVerified)
	pendingEvent := s.seedEvent(records.VerificationPending)

	_, err := s.service.CreateSponsorship(s.ctxAs(s.sponsorID, id.RoleSponsor), company.ID, pendingEvent.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	verifiedEvent := s.seedEvent(records.VerificationVerified)
	sp, err := s.service.CreateSponsorship(s.ctxAs(s.sponsorID, id.RoleSponsor), company.ID, verifiedEvent.ID)
	s.Require().NoError(err)
	s.Equal(company.ID, sp.CompanyID)
}

func (s *ReviewSuite) TestPublishFailureDoesNotFailMutation() {
	s.publisher.err = errors.New("bus saturated")
	company := s.seedCompany(records.VerificationPending)

	updated, err := s.service.VerifyCompany(s.ctxAs(s.managerID, id.RoleManager), company.ID, "")
	s.Require().NoError(err)
	s.Equal(records.VerificationVerified, updated.Status)

	// The write stuck even though the event was lost.
	found, err := s.store.FindCompany(context.Background(), s.tenantID, company.ID)
	s.Require().NoError(err)
	s.Equal(records.VerificationVerified, found.Status)
}

func (s *ReviewSuite) TestAuditFailureDoesNotFailMutation() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewService(s.store, audit.NewRecorder(failingAuditStore{}, logger), s.publisher, WithLogger(logger))
	company := s.seedCompany(records.VerificationPending)

	updated, err := service.VerifyCompany(s.ctxAs(s.managerID, id.RoleManager), company.ID, "")
	s.Require().NoError(err)
	s.Equal(records.VerificationVerified, updated.Status)
	s.Equal([]string{bus.NameCompanyVerified}, s.publisher.names())
}

type failingAuditStore struct{}

func (failingAuditStore) Append(context.Context, audit.Entry) error {
	return errors.New("audit store down")
}

func (failingAuditStore) QueryByEntities(context.Context, id.TenantID, []id.EntityRef) ([]audit.Entry, error) {
	return nil, errors.New("audit store down")
}
