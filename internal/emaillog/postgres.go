package emaillog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "sponsorhub/pkg/domain"
)

// PostgresStore persists email log entries in the email_log table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO email_log (id, tenant_id, recipient, subject, job_name, entity_type, entity_id, status, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		uuid.UUID(entry.TenantID),
		entry.Recipient,
		entry.Subject,
		entry.JobName,
		string(entry.Entity.Type),
		entry.Entity.ID,
		string(entry.Status),
		entry.ErrorMessage,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert email log entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) QueryByEntities(ctx context.Context, tenantID id.TenantID, refs []id.EntityRef) ([]Entry, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	entityIDs := make([]uuid.UUID, 0, len(refs))
	for _, ref := range refs {
		entityIDs = append(entityIDs, ref.ID)
	}

	query := `
		SELECT id, tenant_id, recipient, subject, job_name, entity_type, entity_id, status, error_message, created_at
		FROM email_log
		WHERE tenant_id = $1 AND entity_id = ANY($2)
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(tenantID), pq.Array(entityIDs))
	if err != nil {
		return nil, fmt.Errorf("query email log: %w", err)
	}
	defer rows.Close()

	wanted := make(map[id.EntityRef]bool, len(refs))
	for _, ref := range refs {
		wanted[ref] = true
	}

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			tnID       uuid.UUID
			entityType string
			status     string
		)
		err := rows.Scan(&e.ID, &tnID, &e.Recipient, &e.Subject, &e.JobName, &entityType, &e.Entity.ID, &status, &e.ErrorMessage, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan email log entry: %w", err)
		}
		e.TenantID = id.TenantID(tnID)
		e.Entity.Type = id.EntityType(entityType)
		e.Status = Status(status)
		if wanted[e.Entity] {
			out = append(out, e)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate email log: %w", err)
	}
	return out, nil
}
