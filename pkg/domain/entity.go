package domain

import "github.com/google/uuid"

// EntityType names the kinds of records that logs and notifications
// correlate to.
type EntityType string

const (
	EntityCompany     EntityType = "company"
	EntityEvent       EntityType = "event"
	EntitySponsorship EntityType = "sponsorship"
	EntityProposal    EntityType = "proposal"
)

// EntityRef is an untyped correlation handle used by the append-only logs.
// Typed IDs are unwrapped at this boundary so one log schema serves every
// entity kind.
type EntityRef struct {
	Type EntityType `json:"type"`
	ID   uuid.UUID  `json:"id"`
}

func CompanyRef(id CompanyID) EntityRef {
	return EntityRef{Type: EntityCompany, ID: uuid.UUID(id)}
}

func EventRef(id EventID) EntityRef {
	return EntityRef{Type: EntityEvent, ID: uuid.UUID(id)}
}

func SponsorshipRef(id SponsorshipID) EntityRef {
	return EntityRef{Type: EntitySponsorship, ID: uuid.UUID(id)}
}

func ProposalRef(id ProposalID) EntityRef {
	return EntityRef{Type: EntityProposal, ID: uuid.UUID(id)}
}
