package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "sponsorhub/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// IDs must be valid, non-empty, non-nil UUIDs.
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseCompanyID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseCompanyID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseCompanyID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseCompanyID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, CompanyID(validUUID), id)
		assert.False(t, id.IsNil())
	})
}

// TestParseID_SecurityInputs feeds hostile strings through the shared
// validation choke point. All of them must be rejected before reaching
// storage or logs.
func TestParseID_SecurityInputs(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"sql injection", "'; DROP TABLE companies;--", true},
		{"path traversal", "../../etc/passwd", true},
		{"null byte", "123e4567-e89b-12d3\x00a456-426614174000", true},
		{"oversized", uuid.New().String() + uuid.New().String(), true},
		{"zero width space", "123e4567​e89b-12d3-a456-426614174000", true},
		{"empty", "", true},
		{"nil uuid", "00000000-0000-0000-0000-000000000000", true},
		{"surrounding whitespace", " " + uuid.New().String() + " ", true},
		{"uppercase hex", "123E4567-E89B-12D3-A456-426614174000", false},
		{"lowercase hex", "123e4567-e89b-12d3-a456-426614174000", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTenantID(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestAllIDTypes_ConsistentBehavior ensures every ID type validates
// identically; they all funnel through the same parser.
func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	valid := uuid.New().String()
	invalid := []string{"", "invalid", uuid.Nil.String()}

	parsers := map[string]func(string) error{
		"tenant":       func(s string) error { _, err := ParseTenantID(s); return err },
		"user":         func(s string) error { _, err := ParseUserID(s); return err },
		"company":      func(s string) error { _, err := ParseCompanyID(s); return err },
		"event":        func(s string) error { _, err := ParseEventID(s); return err },
		"organizer":    func(s string) error { _, err := ParseOrganizerID(s); return err },
		"sponsorship":  func(s string) error { _, err := ParseSponsorshipID(s); return err },
		"proposal":     func(s string) error { _, err := ParseProposalID(s); return err },
		"notification": func(s string) error { _, err := ParseNotificationID(s); return err },
	}

	for name, parse := range parsers {
		t.Run(name+" accepts valid uuid", func(t *testing.T) {
			require.NoError(t, parse(valid))
		})
		for _, input := range invalid {
			t.Run(name+" rejects "+input, func(t *testing.T) {
				require.Error(t, parse(input))
			})
		}
	}
}

// TestTypeDistinction verifies the compiler enforces type safety.
// This is a compile-time check: if this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	raw := uuid.New()
	companyID := CompanyID(raw)
	eventID := EventID(raw)

	// Same underlying value, distinct types. Assigning one to the other
	// without an explicit conversion does not compile.
	assert.Equal(t, companyID.String(), eventID.String())
	assert.IsType(t, CompanyID{}, companyID)
	assert.IsType(t, EventID{}, eventID)
}

func TestIDJSONRoundTrip(t *testing.T) {
	id, err := ParseNotificationID(uuid.New().String())
	require.NoError(t, err)

	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.JSONEq(t, `"`+id.String()+`"`, string(data))

	var decoded NotificationID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)
}

func TestIDJSONRejectsGarbage(t *testing.T) {
	var id TenantID
	err := json.Unmarshal([]byte(`"definitely-not-a-uuid"`), &id)
	require.Error(t, err)
}
