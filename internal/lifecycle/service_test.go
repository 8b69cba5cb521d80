package lifecycle

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"sponsorhub/internal/audit"
	"sponsorhub/internal/emaillog"
	"sponsorhub/internal/notification"
	"sponsorhub/internal/records"
	id "sponsorhub/pkg/domain"
	dErrors "sponsorhub/pkg/domain-errors"
)

type LifecycleSuite struct {
	suite.Suite
	ctx           context.Context
	records       *records.Memory
	auditLog      *audit.MemoryStore
	emailLog      *emaillog.MemoryStore
	notifications *notification.MemoryStore
	service       *Service

	tenantID id.TenantID
	base     time.Time
}

func (s *LifecycleSuite) SetupTest() {
	s.ctx = context.Background()
	s.records = records.NewMemory()
	s.auditLog = audit.NewMemoryStore()
	s.emailLog = emaillog.NewMemoryStore()
	s.notifications = notification.NewMemoryStore()
	s.service = NewService(s.records, s.auditLog, s.emailLog, s.notifications,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.tenantID = id.TenantID(uuid.New())
	s.base = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}

func (s *LifecycleSuite) seedCompany(status records.VerificationStatus) *records.Company {
	c := &records.Company{
		ID:           id.CompanyID(uuid.New()),
		TenantID:     s.tenantID,
		Name:         "Acme Robotics",
		ContactEmail: "hello@acme.test",
		Status:       status,
		CreatedAt:    s.base,
	}
	if status.IsReviewed() {
		reviewed := s.base.Add(time.Hour)
		c.ReviewedAt = &reviewed
	}
	s.Require().NoError(s.records.CreateCompany(s.ctx, c))
	return c
}

func (s *LifecycleSuite) seedEvent(status records.VerificationStatus) *records.Event {
	e := &records.Event{
		ID:          id.EventID(uuid.New()),
		TenantID:    s.tenantID,
		OrganizerID: id.OrganizerID(uuid.New()),
		Name:        "TechConf 2026",
		Status:      status,
		StartsAt:    s.base.Add(60 * 24 * time.Hour),
		CreatedAt:   s.base,
	}
	s.Require().NoError(s.records.CreateEvent(s.ctx, e))
	return e
}

func (s *LifecycleSuite) seedSponsorship(companyID id.CompanyID, eventID id.EventID, at time.Time) *records.Sponsorship {
	sp := &records.Sponsorship{
		ID:        id.SponsorshipID(uuid.New()),
		TenantID:  s.tenantID,
		CompanyID: companyID,
		EventID:   eventID,
		CreatedAt: at,
	}
	s.Require().NoError(s.records.CreateSponsorship(s.ctx, sp))
	return sp
}

func (s *LifecycleSuite) seedProposal(sponsorshipID id.SponsorshipID, status records.ProposalStatus, submittedAt, reviewedAt *time.Time) *records.Proposal {
	p := &records.Proposal{
		ID:            id.ProposalID(uuid.New()),
		TenantID:      s.tenantID,
		SponsorshipID: sponsorshipID,
		Title:         "Gold tier booth",
		Status:        status,
		CreatedBy:     id.UserID(uuid.New()),
		CreatedAt:     s.base,
		SubmittedAt:   submittedAt,
		ReviewedAt:    reviewedAt,
	}
	s.Require().NoError(s.records.CreateProposal(s.ctx, p))
	return p
}

func (s *LifecycleSuite) appendAudit(action audit.Action, entity id.EntityRef, at time.Time) {
	s.Require().NoError(s.auditLog.Append(s.ctx, audit.Entry{
		ID:        uuid.New(),
		TenantID:  s.tenantID,
		ActorID:   id.UserID(uuid.New()),
		ActorRole: id.RoleManager,
		Action:    action,
		Entity:    entity,
		CreatedAt: at,
	}))
}

func (s *LifecycleSuite) appendEmail(entity id.EntityRef, status emaillog.Status, at time.Time) {
	entry := emaillog.Entry{
		ID:        uuid.New(),
		TenantID:  s.tenantID,
		Recipient: "olga@techconf.test",
		Subject:   "Sponsorship proposal approved",
		JobName:   "proposal.approved",
		Entity:    entity,
		Status:    status,
		CreatedAt: at,
	}
	if status == emaillog.StatusFailed {
		entry.ErrorMessage = "smtp unreachable"
	}
	s.Require().NoError(s.emailLog.Append(s.ctx, entry))
}

func entryTypes(timeline []TimelineEntry) []EntryType {
	out := make([]EntryType, 0, len(timeline))
	for _, e := range timeline {
		out = append(out, e.Type)
	}
	return out
}

// TestPendingCompanyWithoutActivity covers the freshly registered company:
// a single timeline entry and a half-complete review score.
func (s *LifecycleSuite) TestPendingCompanyWithoutActivity() {
	company := s.seedCompany(records.VerificationPending)

	view, err := s.service.CompanyLifecycle(s.ctx, s.tenantID, company.ID)
	s.Require().NoError(err)

	s.Equal([]EntryType{EntryCompanyCreated}, entryTypes(view.Timeline))
	s.Equal(Progress{TotalSteps: 2, CompletedSteps: 1, Percentage: 50}, view.Progress)
	s.Equal(Stats{}, view.Stats)
}

// TestRejectedCompany verifies a rejection counts as a completed review
// step, not a failure.
func (s *LifecycleSuite) TestRejectedCompany() {
	company := s.seedCompany(records.VerificationRejected)
	s.appendAudit(audit.ActionCompanyRejected, id.CompanyRef(company.ID), s.base.Add(time.Hour))

	view, err := s.service.CompanyLifecycle(s.ctx, s.tenantID, company.ID)
	s.Require().NoError(err)

	s.Equal([]EntryType{EntryCompanyCreated, EntryCompanyRejected}, entryTypes(view.Timeline))
	s.Equal(Progress{TotalSteps: 2, CompletedSteps: 2, Percentage: 100}, view.Progress)
}

// TestApprovedProposalWithMixedEmailOutcomes walks the full chain: verified
// company, one sponsorship, one approved proposal, one sent and one failed
// email. The failed email widens the total without completing a step.
func (s *LifecycleSuite) TestApprovedProposalWithMixedEmailOutcomes() {
	company := s.seedCompany(records.VerificationVerified)
	event := s.seedEvent(records.VerificationVerified)
	sp := s.seedSponsorship(company.ID, event.ID, s.base.Add(2*time.Hour))
	submitted := s.base.Add(3 * time.Hour)
	reviewed := s.base.Add(4 * time.Hour)
	proposal := s.seedProposal(sp.ID, records.ProposalApproved, &submitted, &reviewed)

	s.appendEmail(id.ProposalRef(proposal.ID), emaillog.StatusSent, s.base.Add(5*time.Hour))
	s.appendEmail(id.ProposalRef(proposal.ID), emaillog.StatusFailed, s.base.Add(6*time.Hour))

	view, err := s.service.CompanyLifecycle(s.ctx, s.tenantID, company.ID)
	s.Require().NoError(err)

	// Steps: created 1/1, verification 1/1, sponsorship 1/1, submit 1/1,
	// decision 1/1, email sent 1/1, email failed 1/0.
	s.Equal(Progress{TotalSteps: 7, CompletedSteps: 6, Percentage: 86}, view.Progress)
	s.Equal(Stats{
		Sponsorships:      1,
		Proposals:         1,
		ApprovedProposals: 1,
		EmailsSent:        1,
		EmailsFailed:      1,
	}, view.Stats)
	s.Equal([]EntryType{
		EntryCompanyCreated,
		EntrySponsorshipCreated,
		EntryProposalSubmitted,
		EntryProposalApproved,
		EntryEmailSent,
		EntryEmailFailed,
	}, entryTypes(view.Timeline))
}

// TestSubmissionEntriesCollapseWithinOneSecond reproduces duplicate
// submission signals for the same proposal landing within the same second:
// an audit row plus the record-derived entry collapse to one.
func (s *LifecycleSuite) TestSubmissionEntriesCollapseWithinOneSecond() {
	company := s.seedCompany(records.VerificationVerified)
	event := s.seedEvent(records.VerificationVerified)
	sp := s.seedSponsorship(company.ID, event.ID, s.base.Add(time.Hour))
	submitted := s.base.Add(2 * time.Hour)
	proposal := s.seedProposal(sp.ID, records.ProposalSubmitted, &submitted, nil)

	// Two audit rows for the same action in the same second.
	s.appendAudit(audit.ActionProposalSubmitted, id.ProposalRef(proposal.ID), submitted)
	s.appendAudit(audit.ActionProposalSubmitted, id.ProposalRef(proposal.ID), submitted.Add(200*time.Millisecond))

	view, err := s.service.CompanyLifecycle(s.ctx, s.tenantID, company.ID)
	s.Require().NoError(err)

	var submissions int
	for _, e := range view.Timeline {
		if e.Type == EntryProposalSubmitted {
			submissions++
		}
	}
	s.Equal(1, submissions)
}

// TestRejectedProposalCompletesDecisionStep pins the unified decision
// semantics: a rejected proposal completes the decision step in both the
// company and event views.
func (s *LifecycleSuite) TestRejectedProposalCompletesDecisionStep() {
	company := s.seedCompany(records.VerificationVerified)
	event := s.seedEvent(records.VerificationVerified)
	sp := s.seedSponsorship(company.ID, event.ID, s.base.Add(time.Hour))
	submitted := s.base.Add(2 * time.Hour)
	reviewed := s.base.Add(3 * time.Hour)
	s.seedProposal(sp.ID, records.ProposalRejected, &submitted, &reviewed)

	companyView, err := s.service.CompanyLifecycle(s.ctx, s.tenantID, company.ID)
	s.Require().NoError(err)
	s.Equal(Progress{TotalSteps: 5, CompletedSteps: 5, Percentage: 100}, companyView.Progress)

	eventView, err := s.service.EventLifecycle(s.ctx, s.tenantID, event.ID)
	s.Require().NoError(err)
	s.Equal(Progress{TotalSteps: 5, CompletedSteps: 5, Percentage: 100}, eventView.Progress)
}

func (s *LifecycleSuite) TestEventLifecycleSkipsNotifications() {
	event := s.seedEvent(records.VerificationVerified)
	s.Require().NoError(s.notifications.Create(s.ctx, notification.Notification{
		ID:        id.NotificationID(uuid.New()),
		TenantID:  s.tenantID,
		UserID:    id.UserID(uuid.New()),
		Title:     "Event verified",
		Severity:  notification.SeveritySuccess,
		Entity:    id.EventRef(event.ID),
		CreatedAt: s.base.Add(time.Hour),
	}))

	view, err := s.service.EventLifecycle(s.ctx, s.tenantID, event.ID)
	s.Require().NoError(err)
	for _, e := range view.Timeline {
		s.NotEqual(EntryNotification, e.Type)
	}
}

func (s *LifecycleSuite) TestCompanyLifecycleChartsNotifications() {
	company := s.seedCompany(records.VerificationVerified)
	s.Require().NoError(s.notifications.Create(s.ctx, notification.Notification{
		ID:        id.NotificationID(uuid.New()),
		TenantID:  s.tenantID,
		UserID:    id.UserID(uuid.New()),
		Title:     "Company verified",
		Message:   "Your company passed verification.",
		Severity:  notification.SeveritySuccess,
		Entity:    id.CompanyRef(company.ID),
		CreatedAt: s.base.Add(time.Hour),
	}))

	view, err := s.service.CompanyLifecycle(s.ctx, s.tenantID, company.ID)
	s.Require().NoError(err)
	s.Contains(entryTypes(view.Timeline), EntryNotification)
}

func (s *LifecycleSuite) TestMissingRootEntityIsNotFound() {
	_, err := s.service.CompanyLifecycle(s.ctx, s.tenantID, id.CompanyID(uuid.New()))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.EventLifecycle(s.ctx, s.tenantID, id.EventID(uuid.New()))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *LifecycleSuite) TestTenantScopeHidesOtherTenants() {
	company := s.seedCompany(records.VerificationVerified)

	_, err := s.service.CompanyLifecycle(s.ctx, id.TenantID(uuid.New()), company.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *LifecycleSuite) TestTimelineIsChronologicallyOrdered() {
	company := s.seedCompany(records.VerificationVerified)
	event := s.seedEvent(records.VerificationVerified)
	sp := s.seedSponsorship(company.ID, event.ID, s.base.Add(30*time.Minute))
	submitted := s.base.Add(time.Hour)
	reviewed := s.base.Add(90 * time.Minute)
	proposal := s.seedProposal(sp.ID, records.ProposalApproved, &submitted, &reviewed)

	s.appendAudit(audit.ActionCompanyVerified, id.CompanyRef(company.ID), s.base.Add(10*time.Minute))
	s.appendEmail(id.ProposalRef(proposal.ID), emaillog.StatusSent, s.base.Add(2*time.Hour))
	s.appendEmail(id.ProposalRef(proposal.ID), emaillog.StatusFailed, s.base.Add(45*time.Minute))

	view, err := s.service.CompanyLifecycle(s.ctx, s.tenantID, company.ID)
	s.Require().NoError(err)
	for i := 1; i < len(view.Timeline); i++ {
		s.False(view.Timeline[i].Timestamp.Before(view.Timeline[i-1].Timestamp),
			"timeline out of order at index %d", i)
	}
}
