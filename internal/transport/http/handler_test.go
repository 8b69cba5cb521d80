package http

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sponsorhub/internal/audit"
	"sponsorhub/internal/bus"
	"sponsorhub/internal/emaillog"
	"sponsorhub/internal/lifecycle"
	"sponsorhub/internal/notification"
	"sponsorhub/internal/records"
	"sponsorhub/internal/review"
	"sponsorhub/internal/token"
	id "sponsorhub/pkg/domain"
	"sponsorhub/pkg/testutil"
)

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, bus.Event) error { return nil }

type fixture struct {
	router        http.Handler
	records       *records.Memory
	notifications *notification.MemoryStore

	tenantID     id.TenantID
	managerID    id.UserID
	sponsorID    id.UserID
	managerToken string
	sponsorToken string

	companyID id.CompanyID
	eventID   id.EventID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	recs := records.NewMemory()
	auditStore := audit.NewMemoryStore()
	emails := emaillog.NewMemoryStore()
	notifs := notification.NewMemoryStore()

	recorder := audit.NewRecorder(auditStore, logger)
	reviewSvc := review.NewService(recs, recorder, nopPublisher{}, review.WithLogger(logger))
	lifecycleSvc := lifecycle.NewService(recs, auditStore, emails, notifs, lifecycle.WithLogger(logger))

	tokens := token.NewService("handler-test-key")

	f := &fixture{
		records:       recs,
		notifications: notifs,
		tenantID:      id.TenantID(uuid.New()),
		managerID:     id.UserID(uuid.New()),
		sponsorID:     id.UserID(uuid.New()),
		companyID:     id.CompanyID(uuid.New()),
		eventID:       id.EventID(uuid.New()),
	}

	ctx := context.Background()
	organizerID := id.OrganizerID(uuid.New())
	require.NoError(t, recs.CreateCompany(ctx, &records.Company{
		ID:           f.companyID,
		TenantID:     f.tenantID,
		Name:         "Initech",
		ContactEmail: "contact@initech.test",
		Status:       records.VerificationPending,
		CreatedAt:    time.Now().Add(-time.Hour),
	}))
	require.NoError(t, recs.CreateOrganizer(ctx, &records.Organizer{
		ID:           organizerID,
		TenantID:     f.tenantID,
		Name:         "TechConf",
		ContactEmail: "team@techconf.test",
		CreatedAt:    time.Now().Add(-time.Hour),
	}))
	require.NoError(t, recs.CreateEvent(ctx, &records.Event{
		ID:          f.eventID,
		TenantID:    f.tenantID,
		OrganizerID: organizerID,
		Name:        "TechConf 2026",
		Status:      records.VerificationPending,
		StartsAt:    time.Now().Add(30 * 24 * time.Hour),
		CreatedAt:   time.Now().Add(-time.Hour),
	}))

	var err error
	f.managerToken, err = tokens.Issue(f.tenantID, f.managerID, id.RoleManager, time.Hour)
	require.NoError(t, err)
	f.sponsorToken, err = tokens.Issue(f.tenantID, f.sponsorID, id.RoleSponsor, time.Hour)
	require.NoError(t, err)

	h := NewHandler(lifecycleSvc, reviewSvc, notifs, logger)
	f.router = NewRouter(h, tokens, logger)
	return f
}

func (f *fixture) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(t, method, path, body)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return testutil.DoRequest(f.router, req)
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/manager/notifications", "", nil)
	testutil.AssertStatus(t, rec, http.StatusUnauthorized)
}

func TestHealthIsPublic(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", "", nil)
	testutil.AssertStatusOK(t, rec)
	testutil.AssertJSONContains(t, rec, "status", "ok")
}

func TestCompanyLifecycle(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/manager/companies/"+f.companyID.String()+"/lifecycle", f.managerToken, nil)
	testutil.AssertStatusOK(t, rec)

	view := testutil.UnmarshalResponse[lifecycle.CompanyView](t, rec)
	assert.Equal(t, 2, view.Progress.TotalSteps)
	assert.Equal(t, 1, view.Progress.CompletedSteps)
	require.Len(t, view.Timeline, 1)
	assert.Equal(t, lifecycle.EntryCompanyCreated, view.Timeline[0].Type)
}

func TestUnknownDashboardSegmentIs404(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/superuser/companies/"+f.companyID.String()+"/lifecycle", f.managerToken, nil)
	testutil.AssertStatus(t, rec, http.StatusNotFound)
}

func TestVerifyCompany(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/manager/companies/"+f.companyID.String()+"/verify", f.managerToken, reviewRequest{Notes: "docs check out"})
	testutil.AssertStatusOK(t, rec)

	company := testutil.UnmarshalResponse[records.Company](t, rec)
	assert.Equal(t, records.VerificationVerified, company.Status)
	assert.Equal(t, "docs check out", company.ReviewerNotes)

	t.Run("second decision conflicts", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/manager/companies/"+f.companyID.String()+"/verify", f.managerToken, reviewRequest{})
		testutil.AssertStatusAndError(t, rec, http.StatusConflict, "conflict")
	})
}

func TestVerifyCompanyForbiddenForSponsor(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/sponsor/companies/"+f.companyID.String()+"/verify", f.sponsorToken, reviewRequest{})
	testutil.AssertStatusAndError(t, rec, http.StatusForbidden, "forbidden")
}

func TestInvalidCompanyID(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/manager/companies/not-a-uuid/verify", f.managerToken, reviewRequest{})
	testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "bad_request")
}

func TestMalformedBody(t *testing.T) {
	f := newFixture(t)

	req := testutil.NewRequestWithBody(t, http.MethodPost, "/manager/companies/"+f.companyID.String()+"/verify", "{not json")
	req.Header.Set("Authorization", "Bearer "+f.managerToken)
	rec := testutil.DoRequest(f.router, req)
	testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "bad_request")
}

func TestProposalFlow(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/manager/companies/"+f.companyID.String()+"/verify", f.managerToken, reviewRequest{})
	testutil.AssertStatusOK(t, rec)
	rec = f.do(t, http.MethodPost, "/manager/events/"+f.eventID.String()+"/verify", f.managerToken, reviewRequest{})
	testutil.AssertStatusOK(t, rec)

	rec = f.do(t, http.MethodPost, "/sponsor/sponsorships", f.sponsorToken, createSponsorshipRequest{
		CompanyID: f.companyID.String(),
		EventID:   f.eventID.String(),
	})
	testutil.AssertStatus(t, rec, http.StatusCreated)
	sponsorship := testutil.UnmarshalResponse[records.Sponsorship](t, rec)

	rec = f.do(t, http.MethodPost, "/sponsor/proposals", f.sponsorToken, createProposalRequest{
		SponsorshipID: sponsorship.ID.String(),
		Title:         "Gold tier booth",
	})
	testutil.AssertStatus(t, rec, http.StatusCreated)
	proposal := testutil.UnmarshalResponse[records.Proposal](t, rec)
	assert.Equal(t, records.ProposalDraft, proposal.Status)
	assert.Equal(t, f.sponsorID, proposal.CreatedBy)

	rec = f.do(t, http.MethodPost, "/sponsor/proposals/"+proposal.ID.String()+"/submit", f.sponsorToken, nil)
	testutil.AssertStatusOK(t, rec)
	submitted := testutil.UnmarshalResponse[records.Proposal](t, rec)
	assert.Equal(t, records.ProposalSubmitted, submitted.Status)

	rec = f.do(t, http.MethodPost, "/manager/proposals/"+proposal.ID.String()+"/decide", f.managerToken, decideProposalRequest{
		Approve: true,
		Notes:   "approved for gold tier",
	})
	testutil.AssertStatusOK(t, rec)
	decided := testutil.UnmarshalResponse[records.Proposal](t, rec)
	assert.Equal(t, records.ProposalApproved, decided.Status)
	assert.Equal(t, "approved for gold tier", decided.ReviewerNotes)
}

func TestSponsorshipRequiresVerifiedSides(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/sponsor/sponsorships", f.sponsorToken, createSponsorshipRequest{
		CompanyID: f.companyID.String(),
		EventID:   f.eventID.String(),
	})
	testutil.AssertStatusAndError(t, rec, http.StatusConflict, "conflict")
}

func TestNotificationEndpoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seed := func(title string, read bool, createdAt time.Time) id.NotificationID {
		n := notification.Notification{
			ID:        id.NotificationID(uuid.New()),
			TenantID:  f.tenantID,
			UserID:    f.managerID,
			Title:     title,
			Message:   "body",
			Severity:  notification.SeverityInfo,
			Read:      read,
			CreatedAt: createdAt,
		}
		require.NoError(t, f.notifications.Create(ctx, n))
		return n.ID
	}
	base := time.Now().Add(-time.Hour)
	unreadID := seed("Proposal approved", false, base.Add(2*time.Minute))
	seed("Company verified", true, base.Add(time.Minute))

	rec := f.do(t, http.MethodGet, "/manager/notifications", f.managerToken, nil)
	testutil.AssertStatusOK(t, rec)
	list := testutil.UnmarshalResponse[notificationsResponse](t, rec)
	require.Len(t, list.Notifications, 2)

	t.Run("unread filter", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/manager/notifications?unread=true", f.managerToken, nil)
		testutil.AssertStatusOK(t, rec)
		list := testutil.UnmarshalResponse[notificationsResponse](t, rec)
		require.Len(t, list.Notifications, 1)
		assert.Equal(t, "Proposal approved", list.Notifications[0].Title)
	})

	t.Run("invalid limit", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/manager/notifications?limit=abc", f.managerToken, nil)
		testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "bad_request")
	})

	t.Run("mark read", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/manager/notifications/"+unreadID.String()+"/read", f.managerToken, nil)
		testutil.AssertStatus(t, rec, http.StatusNoContent)

		rec = f.do(t, http.MethodGet, "/manager/notifications?unread=true", f.managerToken, nil)
		list := testutil.UnmarshalResponse[notificationsResponse](t, rec)
		assert.Empty(t, list.Notifications)
	})

	t.Run("mark read unknown id", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/manager/notifications/"+uuid.NewString()+"/read", f.managerToken, nil)
		testutil.AssertStatusAndError(t, rec, http.StatusNotFound, "not_found")
	})

	t.Run("mark all read", func(t *testing.T) {
		seed("Event verified", false, base.Add(3*time.Minute))
		rec := f.do(t, http.MethodPost, "/manager/notifications/read-all", f.managerToken, nil)
		testutil.AssertStatus(t, rec, http.StatusNoContent)

		rec = f.do(t, http.MethodGet, "/manager/notifications?unread=true", f.managerToken, nil)
		list := testutil.UnmarshalResponse[notificationsResponse](t, rec)
		assert.Empty(t, list.Notifications)
	})
}

func TestNotificationsAreScopedToCaller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.notifications.Create(ctx, notification.Notification{
		ID:        id.NotificationID(uuid.New()),
		TenantID:  f.tenantID,
		UserID:    f.managerID,
		Title:     "for the manager",
		Severity:  notification.SeverityInfo,
		CreatedAt: time.Now(),
	}))

	rec := f.do(t, http.MethodGet, "/sponsor/notifications", f.sponsorToken, nil)
	testutil.AssertStatusOK(t, rec)
	list := testutil.UnmarshalResponse[notificationsResponse](t, rec)
	assert.Empty(t, list.Notifications)
}
