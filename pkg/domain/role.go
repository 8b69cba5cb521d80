package domain

import dErrors "sponsorhub/pkg/domain-errors"

// Role identifies which dashboard a user acts from.
// Invariant: the value must be one of the supported platform roles.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleOrganizer Role = "organizer"
	RoleSponsor   Role = "sponsor"
)

// validRoles is the single source of truth for valid roles.
var validRoles = map[Role]bool{
	RoleAdmin:     true,
	RoleManager:   true,
	RoleOrganizer: true,
	RoleSponsor:   true,
}

// ParseRole constructs a Role from external input.
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanReview reports whether the role may decide verification outcomes.
func (r Role) CanReview() bool {
	return r == RoleAdmin || r == RoleManager
}

func (r Role) String() string {
	return string(r)
}
