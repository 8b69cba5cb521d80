package notification

import (
	"context"
	"sort"
	"sync"

	id "sponsorhub/pkg/domain"
	"sponsorhub/pkg/platform/sentinel"
)

// MemoryStore keeps notifications in memory for tests and dev-mode runs.
type MemoryStore struct {
	mu            sync.RWMutex
	notifications map[id.NotificationID]Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{notifications: make(map[id.NotificationID]Notification)}
}

func (s *MemoryStore) Create(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[n.ID]; ok {
		return sentinel.ErrConflict
	}
	s.notifications[n.ID] = n
	return nil
}

func (s *MemoryStore) ListByUser(_ context.Context, tenantID id.TenantID, userID id.UserID, filter ListFilter) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Notification
	for _, n := range s.notifications {
		if n.TenantID != tenantID || n.UserID != userID {
			continue
		}
		if filter.UnreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}

	// Newest first, matching the dashboard bell menu.
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) MarkRead(_ context.Context, tenantID id.TenantID, userID id.UserID, notificationID id.NotificationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[notificationID]
	if !ok || n.TenantID != tenantID || n.UserID != userID {
		return sentinel.ErrNotFound
	}
	n.Read = true
	s.notifications[notificationID] = n
	return nil
}

func (s *MemoryStore) MarkAllRead(_ context.Context, tenantID id.TenantID, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for nid, n := range s.notifications {
		if n.TenantID == tenantID && n.UserID == userID && !n.Read {
			n.Read = true
			s.notifications[nid] = n
		}
	}
	return nil
}

func (s *MemoryStore) QueryByEntity(_ context.Context, tenantID id.TenantID, ref id.EntityRef) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Notification
	for _, n := range s.notifications {
		if n.TenantID == tenantID && n.Entity == ref {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
