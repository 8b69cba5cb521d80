package records

import (
	"context"
	"sort"
	"sync"

	id "sponsorhub/pkg/domain"
	"sponsorhub/pkg/platform/sentinel"
)

// Memory is an in-memory record store. It favors clarity over performance
// and backs unit tests plus dev-mode runs without Postgres.
type Memory struct {
	mu           sync.RWMutex
	companies    map[id.CompanyID]Company
	organizers   map[id.OrganizerID]Organizer
	events       map[id.EventID]Event
	sponsorships map[id.SponsorshipID]Sponsorship
	proposals    map[id.ProposalID]Proposal
	users        map[id.UserID]User
}

func NewMemory() *Memory {
	return &Memory{
		companies:    make(map[id.CompanyID]Company),
		organizers:   make(map[id.OrganizerID]Organizer),
		events:       make(map[id.EventID]Event),
		sponsorships: make(map[id.SponsorshipID]Sponsorship),
		proposals:    make(map[id.ProposalID]Proposal),
		users:        make(map[id.UserID]User),
	}
}

// ---------------------------------------------------------------------------
// Companies
// ---------------------------------------------------------------------------

func (s *Memory) CreateCompany(_ context.Context, c *Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[c.ID]; ok {
		return sentinel.ErrConflict
	}
	s.companies[c.ID] = *c
	return nil
}

func (s *Memory) FindCompany(_ context.Context, tenantID id.TenantID, companyID id.CompanyID) (*Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[companyID]
	if !ok || c.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	out := c
	return &out, nil
}

func (s *Memory) UpdateCompany(_ context.Context, c *Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.companies[c.ID]
	if !ok || existing.TenantID != c.TenantID {
		return sentinel.ErrNotFound
	}
	s.companies[c.ID] = *c
	return nil
}

// ---------------------------------------------------------------------------
// Organizers
// ---------------------------------------------------------------------------

func (s *Memory) CreateOrganizer(_ context.Context, o *Organizer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.organizers[o.ID]; ok {
		return sentinel.ErrConflict
	}
	s.organizers[o.ID] = *o
	return nil
}

func (s *Memory) FindOrganizer(_ context.Context, tenantID id.TenantID, organizerID id.OrganizerID) (*Organizer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.organizers[organizerID]
	if !ok || o.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	out := o
	return &out, nil
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

func (s *Memory) CreateEvent(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; ok {
		return sentinel.ErrConflict
	}
	s.events[e.ID] = *e
	return nil
}

func (s *Memory) FindEvent(_ context.Context, tenantID id.TenantID, eventID id.EventID) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[eventID]
	if !ok || e.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	out := e
	return &out, nil
}

func (s *Memory) UpdateEvent(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.events[e.ID]
	if !ok || existing.TenantID != e.TenantID {
		return sentinel.ErrNotFound
	}
	s.events[e.ID] = *e
	return nil
}

// ---------------------------------------------------------------------------
// Sponsorships
// ---------------------------------------------------------------------------

func (s *Memory) CreateSponsorship(_ context.Context, sp *Sponsorship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sponsorships[sp.ID]; ok {
		return sentinel.ErrConflict
	}
	s.sponsorships[sp.ID] = *sp
	return nil
}

func (s *Memory) FindSponsorship(_ context.Context, tenantID id.TenantID, sponsorshipID id.SponsorshipID) (*Sponsorship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.sponsorships[sponsorshipID]
	if !ok || sp.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	out := sp
	return &out, nil
}

func (s *Memory) ListSponsorshipsByCompany(_ context.Context, tenantID id.TenantID, companyID id.CompanyID) ([]Sponsorship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Sponsorship
	for _, sp := range s.sponsorships {
		if sp.TenantID == tenantID && sp.CompanyID == companyID {
			out = append(out, sp)
		}
	}
	sortSponsorships(out)
	return out, nil
}

func (s *Memory) ListSponsorshipsByEvent(_ context.Context, tenantID id.TenantID, eventID id.EventID) ([]Sponsorship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Sponsorship
	for _, sp := range s.sponsorships {
		if sp.TenantID == tenantID && sp.EventID == eventID {
			out = append(out, sp)
		}
	}
	sortSponsorships(out)
	return out, nil
}

// ---------------------------------------------------------------------------
// Proposals
// ---------------------------------------------------------------------------

func (s *Memory) CreateProposal(_ context.Context, p *Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.proposals[p.ID]; ok {
		return sentinel.ErrConflict
	}
	s.proposals[p.ID] = *p
	return nil
}

func (s *Memory) FindProposal(_ context.Context, tenantID id.TenantID, proposalID id.ProposalID) (*Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.proposals[proposalID]
	if !ok || p.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	out := p
	return &out, nil
}

func (s *Memory) UpdateProposal(_ context.Context, p *Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.proposals[p.ID]
	if !ok || existing.TenantID != p.TenantID {
		return sentinel.ErrNotFound
	}
	s.proposals[p.ID] = *p
	return nil
}

func (s *Memory) ListProposalsBySponsorship(_ context.Context, tenantID id.TenantID, sponsorshipID id.SponsorshipID) ([]Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Proposal
	for _, p := range s.proposals {
		if p.TenantID == tenantID && p.SponsorshipID == sponsorshipID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func (s *Memory) CreateUser(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return sentinel.ErrConflict
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Memory) FindUser(_ context.Context, tenantID id.TenantID, userID id.UserID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok || u.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	out := u
	return &out, nil
}

func (s *Memory) ListActiveUsersByCompany(_ context.Context, tenantID id.TenantID, companyID id.CompanyID) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []User
	for _, u := range s.users {
		if u.TenantID == tenantID && u.Active && u.CompanyID != nil && *u.CompanyID == companyID {
			out = append(out, u)
		}
	}
	sortUsers(out)
	return out, nil
}

func (s *Memory) ListActiveUsersByOrganizer(_ context.Context, tenantID id.TenantID, organizerID id.OrganizerID, role id.Role) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []User
	for _, u := range s.users {
		if u.TenantID == tenantID && u.Active && u.OrganizerID != nil && *u.OrganizerID == organizerID {
			if role == "" || u.Role == role {
				out = append(out, u)
			}
		}
	}
	sortUsers(out)
	return out, nil
}

func sortSponsorships(sps []Sponsorship) {
	sort.Slice(sps, func(i, j int) bool { return sps[i].CreatedAt.Before(sps[j].CreatedAt) })
}

func sortUsers(users []User) {
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
}
