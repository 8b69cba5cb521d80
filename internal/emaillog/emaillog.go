// Package emaillog provides the append-only log of email delivery attempts.
// Exactly one entry is written per attempt, success or failure; the
// lifecycle view reads these back to surface delivery gaps.
package emaillog

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "sponsorhub/pkg/domain"
)

// Status is the outcome of a single delivery attempt.
type Status string

const (
	StatusSent   Status = "SENT"
	StatusFailed Status = "FAILED"
)

// Entry records one delivery attempt outcome. Immutable.
type Entry struct {
	ID           uuid.UUID
	TenantID     id.TenantID
	Recipient    string
	Subject      string
	JobName      string
	Entity       id.EntityRef
	Status       Status
	ErrorMessage string
	CreatedAt    time.Time
}

// Store persists delivery attempt entries.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	QueryByEntities(ctx context.Context, tenantID id.TenantID, refs []id.EntityRef) ([]Entry, error)
}
