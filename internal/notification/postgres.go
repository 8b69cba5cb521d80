package notification

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "sponsorhub/pkg/domain"
	"sponsorhub/pkg/platform/sentinel"
)

// PostgresStore persists notifications in the notifications table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, n Notification) error {
	query := `
		INSERT INTO notifications (id, tenant_id, user_id, title, message, severity, link, entity_type, entity_id, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(n.ID),
		uuid.UUID(n.TenantID),
		uuid.UUID(n.UserID),
		n.Title,
		n.Message,
		string(n.Severity),
		n.Link,
		string(n.Entity.Type),
		n.Entity.ID,
		n.Read,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

const notificationSelect = `
	SELECT id, tenant_id, user_id, title, message, severity, link, entity_type, entity_id, read, created_at
	FROM notifications
`

func (s *PostgresStore) ListByUser(ctx context.Context, tenantID id.TenantID, userID id.UserID, filter ListFilter) ([]Notification, error) {
	query := notificationSelect + ` WHERE tenant_id = $1 AND user_id = $2`
	if filter.UnreadOnly {
		query += ` AND NOT read`
	}
	query += ` ORDER BY created_at DESC`

	args := []any{uuid.UUID(tenantID), uuid.UUID(userID)}
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return s.query(ctx, query, args...)
}

func (s *PostgresStore) MarkRead(ctx context.Context, tenantID id.TenantID, userID id.UserID, notificationID id.NotificationID) error {
	query := `
		UPDATE notifications SET read = TRUE
		WHERE tenant_id = $1 AND user_id = $2 AND id = $3
	`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(tenantID), uuid.UUID(userID), uuid.UUID(notificationID))
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) MarkAllRead(ctx context.Context, tenantID id.TenantID, userID id.UserID) error {
	query := `
		UPDATE notifications SET read = TRUE
		WHERE tenant_id = $1 AND user_id = $2 AND NOT read
	`
	if _, err := s.db.ExecContext(ctx, query, uuid.UUID(tenantID), uuid.UUID(userID)); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func (s *PostgresStore) QueryByEntity(ctx context.Context, tenantID id.TenantID, ref id.EntityRef) ([]Notification, error) {
	query := notificationSelect + ` WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3 ORDER BY created_at`
	return s.query(ctx, query, uuid.UUID(tenantID), string(ref.Type), ref.ID)
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]Notification, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var (
			n          Notification
			nID        uuid.UUID
			tnID       uuid.UUID
			uID        uuid.UUID
			severity   string
			entityType string
		)
		err := rows.Scan(&nID, &tnID, &uID, &n.Title, &n.Message, &severity, &n.Link, &entityType, &n.Entity.ID, &n.Read, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.ID = id.NotificationID(nID)
		n.TenantID = id.TenantID(tnID)
		n.UserID = id.UserID(uID)
		n.Severity = Severity(severity)
		n.Entity.Type = id.EntityType(entityType)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}
