// Package domain holds strongly typed identifiers and small domain values
// shared across sponsorhub packages.
//
// Each entity gets its own UUID wrapper type so the compiler rejects
// cross-entity mixups (passing a CompanyID where an EventID is expected).
// Construct IDs via the ParseXxxID helpers at trust boundaries; direct
// casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "sponsorhub/pkg/domain-errors"
)

// Typed identifiers. Distinct types, identical underlying representation.
type (
	TenantID       uuid.UUID
	UserID         uuid.UUID
	CompanyID      uuid.UUID
	EventID        uuid.UUID
	OrganizerID    uuid.UUID
	SponsorshipID  uuid.UUID
	ProposalID     uuid.UUID
	NotificationID uuid.UUID
)

// parseUUID is the single validation choke point for all ID types.
// Invariant: IDs must be valid, non-empty, non-nil UUIDs.
func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid uuid")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil uuid")
	}
	return u, nil
}

func ParseTenantID(s string) (TenantID, error) {
	u, err := parseUUID(s)
	return TenantID(u), err
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	return UserID(u), err
}

func ParseCompanyID(s string) (CompanyID, error) {
	u, err := parseUUID(s)
	return CompanyID(u), err
}

func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s)
	return EventID(u), err
}

func ParseOrganizerID(s string) (OrganizerID, error) {
	u, err := parseUUID(s)
	return OrganizerID(u), err
}

func ParseSponsorshipID(s string) (SponsorshipID, error) {
	u, err := parseUUID(s)
	return SponsorshipID(u), err
}

func ParseProposalID(s string) (ProposalID, error) {
	u, err := parseUUID(s)
	return ProposalID(u), err
}

func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID(s)
	return NotificationID(u), err
}

func (id TenantID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id CompanyID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id OrganizerID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id SponsorshipID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ProposalID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Text marshaling renders IDs as canonical UUID strings in JSON and logs.
func (id TenantID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id UserID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id CompanyID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id EventID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id OrganizerID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id SponsorshipID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id ProposalID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id NotificationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *TenantID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = TenantID(u)
	return nil
}

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

func (id *CompanyID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = CompanyID(u)
	return nil
}

func (id *EventID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = EventID(u)
	return nil
}

func (id *OrganizerID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = OrganizerID(u)
	return nil
}

func (id *SponsorshipID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = SponsorshipID(u)
	return nil
}

func (id *ProposalID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = ProposalID(u)
	return nil
}

func (id *NotificationID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = NotificationID(u)
	return nil
}

func (id TenantID) String() string       { return uuid.UUID(id).String() }
func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id CompanyID) String() string      { return uuid.UUID(id).String() }
func (id EventID) String() string        { return uuid.UUID(id).String() }
func (id OrganizerID) String() string    { return uuid.UUID(id).String() }
func (id SponsorshipID) String() string  { return uuid.UUID(id).String() }
func (id ProposalID) String() string     { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }
