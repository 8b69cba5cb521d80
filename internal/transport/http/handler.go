// Package http is the REST surface over the lifecycle, review, and
// notification services. Handlers stay thin: decode, delegate, encode.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sponsorhub/internal/lifecycle"
	"sponsorhub/internal/notification"
	"sponsorhub/internal/records"
	"sponsorhub/internal/review"
	id "sponsorhub/pkg/domain"
	dErrors "sponsorhub/pkg/domain-errors"
	"sponsorhub/pkg/platform/httputil"
	"sponsorhub/pkg/platform/sentinel"
	"sponsorhub/pkg/requestcontext"
)

// dashboardPattern constrains the role path segment to the known dashboards.
const dashboardPattern = "{dashboard:admin|manager|organizer|sponsor}"

// Handler wires the API endpoints to their services.
type Handler struct {
	lifecycle     *lifecycle.Service
	review        *review.Service
	notifications notification.Store
	logger        *slog.Logger
}

func NewHandler(lc *lifecycle.Service, rv *review.Service, ns notification.Store, logger *slog.Logger) *Handler {
	return &Handler{
		lifecycle:     lc,
		review:        rv,
		notifications: ns,
		logger:        logger,
	}
}

// Register mounts the authenticated API routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/"+dashboardPattern, func(r chi.Router) {
		r.Get("/companies/{companyID}/lifecycle", h.handleCompanyLifecycle)
		r.Get("/events/{eventID}/lifecycle", h.handleEventLifecycle)

		r.Post("/companies/{companyID}/verify", h.decideCompany(true))
		r.Post("/companies/{companyID}/reject", h.decideCompany(false))
		r.Post("/events/{eventID}/verify", h.decideEvent(true))
		r.Post("/events/{eventID}/reject", h.decideEvent(false))

		r.Post("/sponsorships", h.handleCreateSponsorship)
		r.Post("/proposals", h.handleCreateProposal)
		r.Post("/proposals/{proposalID}/submit", h.handleSubmitProposal)
		r.Post("/proposals/{proposalID}/decide", h.handleDecideProposal)

		r.Get("/notifications", h.handleListNotifications)
		r.Post("/notifications/{notificationID}/read", h.handleMarkRead)
		r.Post("/notifications/read-all", h.handleMarkAllRead)
	})
}

func decodeBody[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return req, false
	}
	return req, true
}

func (h *Handler) handleCompanyLifecycle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	companyID, err := id.ParseCompanyID(chi.URLParam(r, "companyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.lifecycle.CompanyLifecycle(ctx, requestcontext.TenantID(ctx), companyID)
	if err != nil {
		h.logError(ctx, "company lifecycle failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleEventLifecycle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.lifecycle.EventLifecycle(ctx, requestcontext.TenantID(ctx), eventID)
	if err != nil {
		h.logError(ctx, "event lifecycle failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

type reviewRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) decideCompany(verify bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		companyID, err := id.ParseCompanyID(chi.URLParam(r, "companyID"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		req, ok := decodeBody[reviewRequest](w, r)
		if !ok {
			return
		}

		var company *records.Company
		if verify {
			company, err = h.review.VerifyCompany(ctx, companyID, req.Notes)
		} else {
			company, err = h.review.RejectCompany(ctx, companyID, req.Notes)
		}
		if err != nil {
			h.logError(ctx, "company review failed", err)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, company)
	}
}

func (h *Handler) decideEvent(verify bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		req, ok := decodeBody[reviewRequest](w, r)
		if !ok {
			return
		}

		var event *records.Event
		if verify {
			event, err = h.review.VerifyEvent(ctx, eventID, req.Notes)
		} else {
			event, err = h.review.RejectEvent(ctx, eventID, req.Notes)
		}
		if err != nil {
			h.logError(ctx, "event review failed", err)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, event)
	}
}

type createSponsorshipRequest struct {
	CompanyID string `json:"company_id"`
	EventID   string `json:"event_id"`
}

func (h *Handler) handleCreateSponsorship(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := decodeBody[createSponsorshipRequest](w, r)
	if !ok {
		return
	}
	companyID, err := id.ParseCompanyID(req.CompanyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	eventID, err := id.ParseEventID(req.EventID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	sp, err := h.review.CreateSponsorship(ctx, companyID, eventID)
	if err != nil {
		h.logError(ctx, "create sponsorship failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sp)
}

type createProposalRequest struct {
	SponsorshipID string `json:"sponsorship_id"`
	Title         string `json:"title"`
}

func (h *Handler) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := decodeBody[createProposalRequest](w, r)
	if !ok {
		return
	}
	sponsorshipID, err := id.ParseSponsorshipID(req.SponsorshipID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	proposal, err := h.review.CreateProposal(ctx, sponsorshipID, req.Title)
	if err != nil {
		h.logError(ctx, "create proposal failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, proposal)
}

func (h *Handler) handleSubmitProposal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	proposalID, err := id.ParseProposalID(chi.URLParam(r, "proposalID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	proposal, err := h.review.SubmitProposal(ctx, proposalID)
	if err != nil {
		h.logError(ctx, "submit proposal failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, proposal)
}

type decideProposalRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes"`
}

func (h *Handler) handleDecideProposal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	proposalID, err := id.ParseProposalID(chi.URLParam(r, "proposalID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := decodeBody[decideProposalRequest](w, r)
	if !ok {
		return
	}

	proposal, err := h.review.DecideProposal(ctx, proposalID, req.Approve, req.Notes)
	if err != nil {
		h.logError(ctx, "decide proposal failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, proposal)
}

type notificationsResponse struct {
	Notifications []notification.Notification `json:"notifications"`
}

func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := notification.ListFilter{
		UnreadOnly: r.URL.Query().Get("unread") == "true",
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "offset must be a non-negative integer"))
			return
		}
		filter.Offset = offset
	}

	list, err := h.notifications.ListByUser(ctx, requestcontext.TenantID(ctx), requestcontext.UserID(ctx), filter)
	if err != nil {
		h.logError(ctx, "list notifications failed", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list notifications"))
		return
	}
	if list == nil {
		list = []notification.Notification{}
	}
	httputil.WriteJSON(w, http.StatusOK, notificationsResponse{Notifications: list})
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "notificationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	err = h.notifications.MarkRead(ctx, requestcontext.TenantID(ctx), requestcontext.UserID(ctx), notificationID)
	if err != nil {
		httputil.WriteError(w, translateStoreError(err, "notification not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.notifications.MarkAllRead(ctx, requestcontext.TenantID(ctx), requestcontext.UserID(ctx))
	if err != nil {
		h.logError(ctx, "mark all read failed", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "mark all read"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// translateStoreError maps store sentinels to domain error codes so the
// wire layer reports them with the right HTTP status.
func translateStoreError(err error, notFoundMsg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "store failure")
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.Error(msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}
