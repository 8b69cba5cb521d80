// Package bus carries domain events from the mutating review operations to
// the delivery pipeline. Events are published after the state change has been
// persisted; subscribers must tolerate redelivery.
package bus

import (
	"time"

	id "sponsorhub/pkg/domain"
)

// Event names. These double as job names on the delivery queues, so the set
// is closed: adding a variant means adding processor handlers too.
const (
	NameCompanyVerified   = "company.verified"
	NameCompanyRejected   = "company.rejected"
	NameEventVerified     = "event.verified"
	NameEventRejected     = "event.rejected"
	NameProposalCreated   = "proposal.created"
	NameProposalSubmitted = "proposal.submitted"
	NameProposalApproved  = "proposal.approved"
	NameProposalRejected  = "proposal.rejected"
)

// Meta carries the fields every domain event shares. The payload is
// deliberately thin: processors re-read records at processing time rather
// than trusting a snapshot that may have gone stale in the queue.
type Meta struct {
	TenantID       id.TenantID
	ActorID        id.UserID
	ActorRole      id.Role
	PreviousStatus string
	NewStatus      string
	ReviewerNotes  string
	OccurredAt     time.Time
}

// Event is a tagged domain event. Key returns the subject entity's id and is
// used both as the Kafka partition key and in queue idempotency keys.
type Event interface {
	Name() string
	Key() string
	Entity() id.EntityRef
	EventMeta() Meta
}

type CompanyVerified struct {
	CompanyID id.CompanyID
	Meta      Meta
}

func (e CompanyVerified) Name() string { return NameCompanyVerified }
func (e CompanyVerified) Key() string { return e.CompanyID.String() }
func (e CompanyVerified) Entity() id.EntityRef { return id.CompanyRef(e.CompanyID) }
func (e CompanyVerified) EventMeta() Meta { return e.Meta }

type CompanyRejected struct {
	CompanyID id.CompanyID
	Meta      Meta
}

func (e CompanyRejected) Name() string { return NameCompanyRejected }
func (e CompanyRejected) Key() string { return e.CompanyID.String() }
func (e CompanyRejected) Entity() id.EntityRef { return id.CompanyRef(e.CompanyID) }
func (e CompanyRejected) EventMeta() Meta { return e.Meta }

type EventVerified struct {
	EventID id.EventID
	Meta    Meta
}

func (e EventVerified) Name() string { return NameEventVerified }
func (e EventVerified) Key() string { return e.EventID.String() }
func (e EventVerified) Entity() id.EntityRef { return id.EventRef(e.EventID) }
func (e EventVerified) EventMeta() Meta { return e.Meta }

type EventRejected struct {
	EventID id.EventID
	Meta    Meta
}

func (e EventRejected) Name() string { return NameEventRejected }
func (e EventRejected) Key() string { return e.EventID.String() }
func (e EventRejected) Entity() id.EntityRef { return id.EventRef(e.EventID) }
func (e EventRejected) EventMeta() Meta { return e.Meta }

type ProposalCreated struct {
	ProposalID id.ProposalID
	Meta       Meta
}

func (e ProposalCreated) Name() string { return NameProposalCreated }
func (e ProposalCreated) Key() string { return e.ProposalID.String() }
func (e ProposalCreated) Entity() id.EntityRef { return id.ProposalRef(e.ProposalID) }
func (e ProposalCreated) EventMeta() Meta { return e.Meta }

// ProposalStatusChanged covers the submit and decide transitions; its name is
// derived from the new status so downstream handlers stay table-driven.
type ProposalStatusChanged struct {
	ProposalID id.ProposalID
	Meta       Meta
}

func (e ProposalStatusChanged) Name() string {
	switch e.Meta.NewStatus {
	case "SUBMITTED":
		return NameProposalSubmitted
	case "APPROVED":
		return NameProposalApproved
	case "REJECTED":
		return NameProposalRejected
	default:
		return "proposal.status-changed"
	}
}

func (e ProposalStatusChanged) Key() string { return e.ProposalID.String() }
func (e ProposalStatusChanged) Entity() id.EntityRef { return id.ProposalRef(e.ProposalID) }
func (e ProposalStatusChanged) EventMeta() Meta { return e.Meta }
