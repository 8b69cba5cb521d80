// Package notification provides per-user in-app notifications with
// read/unread state. Records are created by the notification processor and
// mutated only via mark-read operations.
package notification

import (
	"context"
	"time"

	id "sponsorhub/pkg/domain"
)

// Severity drives badge styling in the dashboards.
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeveritySuccess Severity = "SUCCESS"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

// Notification is addressed to exactly one user.
type Notification struct {
	ID        id.NotificationID `json:"id"`
	TenantID  id.TenantID       `json:"tenant_id"`
	UserID    id.UserID         `json:"user_id"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Severity  Severity          `json:"severity"`
	Link      string            `json:"link"`
	Entity    id.EntityRef      `json:"entity"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}

// ListFilter narrows ListByUser results.
type ListFilter struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}

// Store persists notifications. Only the Read flag is mutable.
type Store interface {
	Create(ctx context.Context, n Notification) error
	ListByUser(ctx context.Context, tenantID id.TenantID, userID id.UserID, filter ListFilter) ([]Notification, error)
	MarkRead(ctx context.Context, tenantID id.TenantID, userID id.UserID, notificationID id.NotificationID) error
	MarkAllRead(ctx context.Context, tenantID id.TenantID, userID id.UserID) error
	QueryByEntity(ctx context.Context, tenantID id.TenantID, ref id.EntityRef) ([]Notification, error)
}
