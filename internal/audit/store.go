package audit

import (
	"context"

	id "sponsorhub/pkg/domain"
)

// Store persists audit entries and serves the lifecycle read path.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	QueryByEntities(ctx context.Context, tenantID id.TenantID, refs []id.EntityRef) ([]Entry, error)
}
