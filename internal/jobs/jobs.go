// Package jobs connects the domain event bus to the delivery queues: the
// Producer fans each event out into one email job and one in-app
// notification job, and the processors consume those jobs.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sponsorhub/internal/bus"
	"sponsorhub/internal/records"
	id "sponsorhub/pkg/domain"
)

// Job names match domain event names; the set is closed. An unrecognized
// name reaching a processor is version skew, not a transient failure.
var knownJobNames = map[string]struct{}{
	bus.NameProposalSubmitted: {},
	bus.NameProposalApproved:  {},
	bus.NameProposalRejected:  {},
	bus.NameCompanyVerified:   {},
	bus.NameCompanyRejected:   {},
	bus.NameEventVerified:     {},
	bus.NameEventRejected:     {},
}

// Payload is the wire body of a queue job. Deliberately thin: processors
// re-read current records instead of trusting a queued snapshot.
type Payload struct {
	TenantID       string    `json:"tenant_id"`
	EntityType     string    `json:"entity_type"`
	EntityID       string    `json:"entity_id"`
	ActorID        string    `json:"actor_id"`
	ActorRole      string    `json:"actor_role"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	NewStatus      string    `json:"new_status,omitempty"`
	ReviewerNotes  string    `json:"reviewer_notes,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func encodePayload(event bus.Event) ([]byte, error) {
	meta := event.EventMeta()
	ref := event.Entity()
	return json.Marshal(Payload{
		TenantID:       meta.TenantID.String(),
		EntityType:     string(ref.Type),
		EntityID:       ref.ID.String(),
		ActorID:        meta.ActorID.String(),
		ActorRole:      string(meta.ActorRole),
		PreviousStatus: meta.PreviousStatus,
		NewStatus:      meta.NewStatus,
		ReviewerNotes:  meta.ReviewerNotes,
		OccurredAt:     meta.OccurredAt,
	})
}

func decodePayload(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, fmt.Errorf("decode job payload: %w", err)
	}
	return p, nil
}

func (p Payload) tenantID() (id.TenantID, error) {
	return id.ParseTenantID(p.TenantID)
}

// Records is the read-only store surface the processors traverse to resolve
// recipients.
type Records interface {
	FindCompany(ctx context.Context, tenantID id.TenantID, companyID id.CompanyID) (*records.Company, error)
	FindEvent(ctx context.Context, tenantID id.TenantID, eventID id.EventID) (*records.Event, error)
	FindOrganizer(ctx context.Context, tenantID id.TenantID, organizerID id.OrganizerID) (*records.Organizer, error)
	FindSponsorship(ctx context.Context, tenantID id.TenantID, sponsorshipID id.SponsorshipID) (*records.Sponsorship, error)
	FindProposal(ctx context.Context, tenantID id.TenantID, proposalID id.ProposalID) (*records.Proposal, error)
	ListActiveUsersByCompany(ctx context.Context, tenantID id.TenantID, companyID id.CompanyID) ([]records.User, error)
	ListActiveUsersByOrganizer(ctx context.Context, tenantID id.TenantID, organizerID id.OrganizerID, role id.Role) ([]records.User, error)
}
