package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "sponsorhub/pkg/domain"
)

// PostgresStore persists audit entries in the audit_log table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}

	query := `
		INSERT INTO audit_log (id, tenant_id, actor_id, actor_role, action, entity_type, entity_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = s.db.ExecContext(ctx, query,
		entry.ID,
		uuid.UUID(entry.TenantID),
		uuid.UUID(entry.ActorID),
		entry.ActorRole.String(),
		string(entry.Action),
		string(entry.Entity.Type),
		entry.Entity.ID,
		metadata,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
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

	// Matching on entity_id alone over-selects across types; the type check
	// below keeps (type, id) pairs exact.
	query := `
		SELECT id, tenant_id, actor_id, actor_role, action, entity_type, entity_id, metadata, created_at
		FROM audit_log
		WHERE tenant_id = $1 AND entity_id = ANY($2)
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(tenantID), pq.Array(entityIDs))
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
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
			actorID    uuid.UUID
			actorRole  string
			action     string
			entityType string
			metadata   []byte
		)
		err := rows.Scan(&e.ID, &tnID, &actorID, &actorRole, &action, &entityType, &e.Entity.ID, &metadata, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.TenantID = id.TenantID(tnID)
		e.ActorID = id.UserID(actorID)
		e.ActorRole = id.Role(actorRole)
		e.Action = Action(action)
		e.Entity.Type = id.EntityType(entityType)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
			}
		}
		if wanted[e.Entity] {
			out = append(out, e)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return out, nil
}
