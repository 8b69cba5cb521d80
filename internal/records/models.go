// Package records holds the domain entities of the sponsorship platform and
// their tenant-scoped stores. The lifecycle and pipeline subsystems consume
// these as plain data-access collaborators; CRUD orchestration around them
// lives elsewhere.
package records

import (
	"time"

	id "sponsorhub/pkg/domain"
)

// VerificationStatus tracks the manager review state of a Company or Event.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationVerified VerificationStatus = "VERIFIED"
	VerificationRejected VerificationStatus = "REJECTED"
)

// IsReviewed reports whether a verification decision has been made.
// A rejection is still a completed review step.
func (s VerificationStatus) IsReviewed() bool {
	return s == VerificationVerified || s == VerificationRejected
}

// ProposalStatus tracks a sponsorship proposal through its workflow.
type ProposalStatus string

const (
	ProposalDraft     ProposalStatus = "DRAFT"
	ProposalSubmitted ProposalStatus = "SUBMITTED"
	ProposalApproved  ProposalStatus = "APPROVED"
	ProposalRejected  ProposalStatus = "REJECTED"
)

// IsTerminal reports whether the proposal has reached a decision.
func (s ProposalStatus) IsTerminal() bool {
	return s == ProposalApproved || s == ProposalRejected
}

// Tenant is an isolated organization's data partition.
type Tenant struct {
	ID        id.TenantID `json:"id"`
	Name      string      `json:"name"`
	CreatedAt time.Time   `json:"created_at"`
}

// Company is a sponsor company registered under a tenant.
type Company struct {
	ID            id.CompanyID       `json:"id"`
	TenantID      id.TenantID        `json:"tenant_id"`
	Name          string             `json:"name"`
	ContactEmail  string             `json:"contact_email"`
	Status        VerificationStatus `json:"status"`
	ReviewerNotes string             `json:"reviewer_notes,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	ReviewedAt    *time.Time         `json:"reviewed_at,omitempty"`
}

// Organizer runs events and receives proposal correspondence.
type Organizer struct {
	ID           id.OrganizerID `json:"id"`
	TenantID     id.TenantID    `json:"tenant_id"`
	Name         string         `json:"name"`
	ContactEmail string         `json:"contact_email"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Event is a sponsorable event owned by an organizer.
type Event struct {
	ID            id.EventID         `json:"id"`
	TenantID      id.TenantID        `json:"tenant_id"`
	OrganizerID   id.OrganizerID     `json:"organizer_id"`
	Name          string             `json:"name"`
	Status        VerificationStatus `json:"status"`
	ReviewerNotes string             `json:"reviewer_notes,omitempty"`
	StartsAt      time.Time          `json:"starts_at"`
	CreatedAt     time.Time          `json:"created_at"`
	ReviewedAt    *time.Time         `json:"reviewed_at,omitempty"`
}

// Sponsorship links a company to an event it sponsors.
type Sponsorship struct {
	ID        id.SponsorshipID `json:"id"`
	TenantID  id.TenantID      `json:"tenant_id"`
	CompanyID id.CompanyID     `json:"company_id"`
	EventID   id.EventID       `json:"event_id"`
	CreatedAt time.Time        `json:"created_at"`
}

// Proposal is a sponsorship offer moving through submission and review.
type Proposal struct {
	ID            id.ProposalID    `json:"id"`
	TenantID      id.TenantID      `json:"tenant_id"`
	SponsorshipID id.SponsorshipID `json:"sponsorship_id"`
	Title         string           `json:"title"`
	Status        ProposalStatus   `json:"status"`
	ReviewerNotes string           `json:"reviewer_notes,omitempty"`
	CreatedBy     id.UserID        `json:"created_by"`
	CreatedAt     time.Time        `json:"created_at"`
	SubmittedAt   *time.Time       `json:"submitted_at,omitempty"`
	ReviewedAt    *time.Time       `json:"reviewed_at,omitempty"`
}

// User is a platform account. Sponsor users link to a Company, organizer
// users link to an Organizer; inactive accounts never receive deliveries.
type User struct {
	ID          id.UserID       `json:"id"`
	TenantID    id.TenantID     `json:"tenant_id"`
	Email       string          `json:"email"`
	Role        id.Role         `json:"role"`
	Active      bool            `json:"active"`
	CompanyID   *id.CompanyID   `json:"company_id,omitempty"`
	OrganizerID *id.OrganizerID `json:"organizer_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
