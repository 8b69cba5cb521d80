package emaillog

import (
	"context"
	"sync"

	id "sponsorhub/pkg/domain"
)

// MemoryStore keeps email log entries in memory for tests and dev-mode runs.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryStore) QueryByEntities(_ context.Context, tenantID id.TenantID, refs []id.EntityRef) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[id.EntityRef]bool, len(refs))
	for _, ref := range refs {
		wanted[ref] = true
	}

	var out []Entry
	for _, e := range s.entries {
		if e.TenantID == tenantID && wanted[e.Entity] {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns every stored entry; test helper.
func (s *MemoryStore) All() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry{}, s.entries...)
}
