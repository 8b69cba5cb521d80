// Package audit provides the append-only log of state-changing actions.
// Entries are immutable: never updated, never deleted. Write failures are
// swallowed by the Recorder so business operations are never blocked by
// audit-logging failure.
package audit

import (
	"time"

	"github.com/google/uuid"

	id "sponsorhub/pkg/domain"
)

// Action identifies one state-changing operation. Closed enumeration; the
// lifecycle timeline maps these through its own table and silently drops
// anything it does not chart.
type Action string

const (
	ActionCompanyVerified    Action = "company_verified"
	ActionCompanyRejected    Action = "company_rejected"
	ActionEventVerified      Action = "event_verified"
	ActionEventRejected      Action = "event_rejected"
	ActionSponsorshipCreated Action = "sponsorship_created"
	ActionProposalCreated    Action = "proposal_created"
	ActionProposalSubmitted  Action = "proposal_submitted"
	ActionProposalApproved   Action = "proposal_approved"
	ActionProposalRejected   Action = "proposal_rejected"
)

// Entry records one state-changing action against one entity.
type Entry struct {
	ID        uuid.UUID
	TenantID  id.TenantID
	ActorID   id.UserID
	ActorRole id.Role
	Action    Action
	Entity    id.EntityRef
	Metadata  map[string]string
	CreatedAt time.Time
}
