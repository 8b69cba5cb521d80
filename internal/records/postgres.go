package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "sponsorhub/pkg/domain"
	"sponsorhub/pkg/platform/sentinel"
)

// Postgres is the relational record store. Every query is tenant-scoped;
// a row outside the caller's tenant behaves like a missing row.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// ---------------------------------------------------------------------------
// Companies
// ---------------------------------------------------------------------------

func (s *Postgres) CreateCompany(ctx context.Context, c *Company) error {
	query := `
		INSERT INTO companies (id, tenant_id, name, contact_email, status, reviewer_notes, created_at, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(c.ID), uuid.UUID(c.TenantID), c.Name, c.ContactEmail,
		string(c.Status), c.ReviewerNotes, c.CreatedAt, c.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

func (s *Postgres) FindCompany(ctx context.Context, tenantID id.TenantID, companyID id.CompanyID) (*Company, error) {
	query := `
		SELECT id, tenant_id, name, contact_email, status, reviewer_notes, created_at, reviewed_at
		FROM companies
		WHERE tenant_id = $1 AND id = $2
	`
	row := s.db.QueryRowContext(ctx, query, uuid.UUID(tenantID), uuid.UUID(companyID))
	return scanCompany(row)
}

func (s *Postgres) UpdateCompany(ctx context.Context, c *Company) error {
	query := `
		UPDATE companies
		SET name = $3, contact_email = $4, status = $5, reviewer_notes = $6, reviewed_at = $7
		WHERE tenant_id = $1 AND id = $2
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(c.TenantID), uuid.UUID(c.ID), c.Name, c.ContactEmail,
		string(c.Status), c.ReviewerNotes, c.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	return requireRow(res)
}

// ---------------------------------------------------------------------------
// Organizers
// ---------------------------------------------------------------------------

func (s *Postgres) CreateOrganizer(ctx context.Context, o *Organizer) error {
	query := `
		INSERT INTO organizers (id, tenant_id, name, contact_email, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(o.ID), uuid.UUID(o.TenantID), o.Name, o.ContactEmail, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert organizer: %w", err)
	}
	return nil
}

func (s *Postgres) FindOrganizer(ctx context.Context, tenantID id.TenantID, organizerID id.OrganizerID) (*Organizer, error) {
	query := `
		SELECT id, tenant_id, name, contact_email, created_at
		FROM organizers
		WHERE tenant_id = $1 AND id = $2
	`
	var (
		o    Organizer
		oID  uuid.UUID
		tnID uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(tenantID), uuid.UUID(organizerID)).
		Scan(&oID, &tnID, &o.Name, &o.ContactEmail, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query organizer: %w", err)
	}
	o.ID = id.OrganizerID(oID)
	o.TenantID = id.TenantID(tnID)
	return &o, nil
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

func (s *Postgres) CreateEvent(ctx context.Context, e *Event) error {
	query := `
		INSERT INTO events (id, tenant_id, organizer_id, name, status, reviewer_notes, starts_at, created_at, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(e.ID), uuid.UUID(e.TenantID), uuid.UUID(e.OrganizerID), e.Name,
		string(e.Status), e.ReviewerNotes, e.StartsAt, e.CreatedAt, e.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *Postgres) FindEvent(ctx context.Context, tenantID id.TenantID, eventID id.EventID) (*Event, error) {
	query := `
		SELECT id, tenant_id, organizer_id, name, status, reviewer_notes, starts_at, created_at, reviewed_at
		FROM events
		WHERE tenant_id = $1 AND id = $2
	`
	var (
		e      Event
		eID    uuid.UUID
		tnID   uuid.UUID
		orgID  uuid.UUID
		status string
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(tenantID), uuid.UUID(eventID)).
		Scan(&eID, &tnID, &orgID, &e.Name, &status, &e.ReviewerNotes, &e.StartsAt, &e.CreatedAt, &e.ReviewedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query event: %w", err)
	}
	e.ID = id.EventID(eID)
	e.TenantID = id.TenantID(tnID)
	e.OrganizerID = id.OrganizerID(orgID)
	e.Status = VerificationStatus(status)
	return &e, nil
}

func (s *Postgres) UpdateEvent(ctx context.Context, e *Event) error {
	query := `
		UPDATE events
		SET name = $3, status = $4, reviewer_notes = $5, reviewed_at = $6
		WHERE tenant_id = $1 AND id = $2
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(e.TenantID), uuid.UUID(e.ID), e.Name, string(e.Status), e.ReviewerNotes, e.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return requireRow(res)
}

// ---------------------------------------------------------------------------
// Sponsorships
// ---------------------------------------------------------------------------

func (s *Postgres) CreateSponsorship(ctx context.Context, sp *Sponsorship) error {
	query := `
		INSERT INTO sponsorships (id, tenant_id, company_id, event_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(sp.ID), uuid.UUID(sp.TenantID), uuid.UUID(sp.CompanyID), uuid.UUID(sp.EventID), sp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sponsorship: %w", err)
	}
	return nil
}

func (s *Postgres) FindSponsorship(ctx context.Context, tenantID id.TenantID, sponsorshipID id.SponsorshipID) (*Sponsorship, error) {
	query := `
		SELECT id, tenant_id, company_id, event_id, created_at
		FROM sponsorships
		WHERE tenant_id = $1 AND id = $2
	`
	row := s.db.QueryRowContext(ctx, query, uuid.UUID(tenantID), uuid.UUID(sponsorshipID))
	sp, err := scanSponsorship(row)
	if err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *Postgres) ListSponsorshipsByCompany(ctx context.Context, tenantID id.TenantID, companyID id.CompanyID) ([]Sponsorship, error) {
	query := `
		SELECT id, tenant_id, company_id, event_id, created_at
		FROM sponsorships
		WHERE tenant_id = $1 AND company_id = $2
		ORDER BY created_at
	`
	return s.querySponsorships(ctx, query, uuid.UUID(tenantID), uuid.UUID(companyID))
}

func (s *Postgres) ListSponsorshipsByEvent(ctx context.Context, tenantID id.TenantID, eventID id.EventID) ([]Sponsorship, error) {
	query := `
		SELECT id, tenant_id, company_id, event_id, created_at
		FROM sponsorships
		WHERE tenant_id = $1 AND event_id = $2
		ORDER BY created_at
	`
	return s.querySponsorships(ctx, query, uuid.UUID(tenantID), uuid.UUID(eventID))
}

func (s *Postgres) querySponsorships(ctx context.Context, query string, args ...any) ([]Sponsorship, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sponsorships: %w", err)
	}
	defer rows.Close()

	var out []Sponsorship
	for rows.Next() {
		sp, err := scanSponsorship(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sponsorships: %w", err)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Proposals
// ---------------------------------------------------------------------------

func (s *Postgres) CreateProposal(ctx context.Context, p *Proposal) error {
	query := `
		INSERT INTO proposals (id, tenant_id, sponsorship_id, title, status, reviewer_notes, created_by, created_at, submitted_at, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(p.ID), uuid.UUID(p.TenantID), uuid.UUID(p.SponsorshipID), p.Title,
		string(p.Status), p.ReviewerNotes, uuid.UUID(p.CreatedBy), p.CreatedAt, p.SubmittedAt, p.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("insert proposal: %w", err)
	}
	return nil
}

func (s *Postgres) FindProposal(ctx context.Context, tenantID id.TenantID, proposalID id.ProposalID) (*Proposal, error) {
	query := `
		SELECT id, tenant_id, sponsorship_id, title, status, reviewer_notes, created_by, created_at, submitted_at, reviewed_at
		FROM proposals
		WHERE tenant_id = $1 AND id = $2
	`
	row := s.db.QueryRowContext(ctx, query, uuid.UUID(tenantID), uuid.UUID(proposalID))
	return scanProposal(row)
}

func (s *Postgres) UpdateProposal(ctx context.Context, p *Proposal) error {
	query := `
		UPDATE proposals
		SET title = $3, status = $4, reviewer_notes = $5, submitted_at = $6, reviewed_at = $7
		WHERE tenant_id = $1 AND id = $2
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(p.TenantID), uuid.UUID(p.ID), p.Title, string(p.Status),
		p.ReviewerNotes, p.SubmittedAt, p.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("update proposal: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) ListProposalsBySponsorship(ctx context.Context, tenantID id.TenantID, sponsorshipID id.SponsorshipID) ([]Proposal, error) {
	query := `
		SELECT id, tenant_id, sponsorship_id, title, status, reviewer_notes, created_by, created_at, submitted_at, reviewed_at
		FROM proposals
		WHERE tenant_id = $1 AND sponsorship_id = $2
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(tenantID), uuid.UUID(sponsorshipID))
	if err != nil {
		return nil, fmt.Errorf("query proposals: %w", err)
	}
	defer rows.Close()

	var out []Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proposals: %w", err)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func (s *Postgres) CreateUser(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (id, tenant_id, email, role, active, company_id, organizer_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	var companyID, organizerID *uuid.UUID
	if u.CompanyID != nil {
		v := uuid.UUID(*u.CompanyID)
		companyID = &v
	}
	if u.OrganizerID != nil {
		v := uuid.UUID(*u.OrganizerID)
		organizerID = &v
	}
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(u.ID), uuid.UUID(u.TenantID), u.Email, u.Role.String(), u.Active,
		companyID, organizerID, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Postgres) FindUser(ctx context.Context, tenantID id.TenantID, userID id.UserID) (*User, error) {
	query := userSelect + ` WHERE tenant_id = $1 AND id = $2`
	row := s.db.QueryRowContext(ctx, query, uuid.UUID(tenantID), uuid.UUID(userID))
	return scanUser(row)
}

func (s *Postgres) ListActiveUsersByCompany(ctx context.Context, tenantID id.TenantID, companyID id.CompanyID) ([]User, error) {
	query := userSelect + ` WHERE tenant_id = $1 AND company_id = $2 AND active ORDER BY email`
	return s.queryUsers(ctx, query, uuid.UUID(tenantID), uuid.UUID(companyID))
}

func (s *Postgres) ListActiveUsersByOrganizer(ctx context.Context, tenantID id.TenantID, organizerID id.OrganizerID, role id.Role) ([]User, error) {
	if role == "" {
		query := userSelect + ` WHERE tenant_id = $1 AND organizer_id = $2 AND active ORDER BY email`
		return s.queryUsers(ctx, query, uuid.UUID(tenantID), uuid.UUID(organizerID))
	}
	query := userSelect + ` WHERE tenant_id = $1 AND organizer_id = $2 AND role = $3 AND active ORDER BY email`
	return s.queryUsers(ctx, query, uuid.UUID(tenantID), uuid.UUID(organizerID), role.String())
}

const userSelect = `
	SELECT id, tenant_id, email, role, active, company_id, organizer_id, created_at
	FROM users
`

func (s *Postgres) queryUsers(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Scanning
// ---------------------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (*Company, error) {
	var (
		c      Company
		cID    uuid.UUID
		tnID   uuid.UUID
		status string
	)
	err := row.Scan(&cID, &tnID, &c.Name, &c.ContactEmail, &status, &c.ReviewerNotes, &c.CreatedAt, &c.ReviewedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan company: %w", err)
	}
	c.ID = id.CompanyID(cID)
	c.TenantID = id.TenantID(tnID)
	c.Status = VerificationStatus(status)
	return &c, nil
}

func scanSponsorship(row rowScanner) (*Sponsorship, error) {
	var (
		sp   Sponsorship
		spID uuid.UUID
		tnID uuid.UUID
		coID uuid.UUID
		evID uuid.UUID
	)
	err := row.Scan(&spID, &tnID, &coID, &evID, &sp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan sponsorship: %w", err)
	}
	sp.ID = id.SponsorshipID(spID)
	sp.TenantID = id.TenantID(tnID)
	sp.CompanyID = id.CompanyID(coID)
	sp.EventID = id.EventID(evID)
	return &sp, nil
}

func scanProposal(row rowScanner) (*Proposal, error) {
	var (
		p      Proposal
		pID    uuid.UUID
		tnID   uuid.UUID
		spID   uuid.UUID
		byID   uuid.UUID
		status string
	)
	err := row.Scan(&pID, &tnID, &spID, &p.Title, &status, &p.ReviewerNotes, &byID, &p.CreatedAt, &p.SubmittedAt, &p.ReviewedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan proposal: %w", err)
	}
	p.ID = id.ProposalID(pID)
	p.TenantID = id.TenantID(tnID)
	p.SponsorshipID = id.SponsorshipID(spID)
	p.CreatedBy = id.UserID(byID)
	p.Status = ProposalStatus(status)
	return &p, nil
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u           User
		uID         uuid.UUID
		tnID        uuid.UUID
		role        string
		companyID   *uuid.UUID
		organizerID *uuid.UUID
	)
	err := row.Scan(&uID, &tnID, &u.Email, &role, &u.Active, &companyID, &organizerID, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.ID = id.UserID(uID)
	u.TenantID = id.TenantID(tnID)
	u.Role = id.Role(role)
	if companyID != nil {
		v := id.CompanyID(*companyID)
		u.CompanyID = &v
	}
	if organizerID != nil {
		v := id.OrganizerID(*organizerID)
		u.OrganizerID = &v
	}
	return &u, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
