package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"collegenet/internal/college/models"
	pkgemail "collegenet/pkg/email"
	"collegenet/pkg/platform/sentinel"
)

// uniqueViolation is the postgres error code for unique constraint breaches.
const uniqueViolation = "23505"

// PostgresCollegeStore persists colleges in PostgreSQL. Schema lives in
// migrations/001_init.sql; domain and contact_email carry unique indexes.
type PostgresCollegeStore struct {
	pool *pgxpool.Pool
}

func NewPostgresCollegeStore(pool *pgxpool.Pool) *PostgresCollegeStore {
	return &PostgresCollegeStore{pool: pool}
}

func (s *PostgresCollegeStore) CreateIfDomainAvailable(ctx context.Context, c *models.College) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO colleges (id, name, contact_email, domain, active, approved_by, approved_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Name, c.ContactEmail, c.Domain, c.Active, c.ApprovedBy, c.ApprovedAt, c.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert college: %w", err)
	}
	return nil
}

func (s *PostgresCollegeStore) FindByDomain(ctx context.Context, domain string) (*models.College, error) {
	return s.findWhere(ctx, "domain = $1", domain)
}

func (s *PostgresCollegeStore) FindByContactEmail(ctx context.Context, email string) (*models.College, error) {
	return s.findWhere(ctx, "contact_email = $1", pkgemail.Normalize(email))
}

func (s *PostgresCollegeStore) findWhere(ctx context.Context, where string, arg any) (*models.College, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, contact_email, domain, active, approved_by, approved_at, created_at
		FROM colleges WHERE `+where, arg)

	var c models.College
	err := row.Scan(&c.ID, &c.Name, &c.ContactEmail, &c.Domain, &c.Active, &c.ApprovedBy, &c.ApprovedAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find college: %w", err)
	}
	return &c, nil
}

func (s *PostgresCollegeStore) ListActive(ctx context.Context) ([]*models.College, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, contact_email, domain, active, approved_by, approved_at, created_at
		FROM colleges WHERE active ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list colleges: %w", err)
	}
	defer rows.Close()

	var out []*models.College
	for rows.Next() {
		var c models.College
		if err := rows.Scan(&c.ID, &c.Name, &c.ContactEmail, &c.Domain, &c.Active, &c.ApprovedBy, &c.ApprovedAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan college: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *PostgresCollegeStore) SetActive(ctx context.Context, domain string, active bool) (*models.College, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE colleges SET active = $2 WHERE domain = $1
		RETURNING id, name, contact_email, domain, active, approved_by, approved_at, created_at`,
		domain, active)

	var c models.College
	err := row.Scan(&c.ID, &c.Name, &c.ContactEmail, &c.Domain, &c.Active, &c.ApprovedBy, &c.ApprovedAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("set college active: %w", err)
	}
	return &c, nil
}

// PostgresPendingStore persists pending registrations.
type PostgresPendingStore struct {
	pool *pgxpool.Pool
}

func NewPostgresPendingStore(pool *pgxpool.Pool) *PostgresPendingStore {
	return &PostgresPendingStore{pool: pool}
}

const pendingColumns = `id, name, contact_email, docs_ref, terms_accepted, status, rejection_reason, decided_by, decided_at, created_at`

func (s *PostgresPendingStore) CreateIfEmailAvailable(ctx context.Context, r *models.PendingRegistration) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pending_registrations (`+pendingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.Name, r.ContactEmail, r.DocsRef, r.TermsAccepted, r.Status, r.RejectionReason, r.DecidedBy, r.DecidedAt, r.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert pending registration: %w", err)
	}
	return nil
}

func (s *PostgresPendingStore) FindByID(ctx context.Context, id uuid.UUID) (*models.PendingRegistration, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+pendingColumns+` FROM pending_registrations WHERE id = $1`, id)
	return scanPending(row)
}

func (s *PostgresPendingStore) ListByStatus(ctx context.Context, status models.RegistrationStatus) ([]*models.PendingRegistration, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+pendingColumns+` FROM pending_registrations
		WHERE status = $1 ORDER BY created_at DESC`, status)
	if err != nil {
		return nil, fmt.Errorf("list pending registrations: %w", err)
	}
	defer rows.Close()

	var out []*models.PendingRegistration
	for rows.Next() {
		r, err := scanPending(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Execute loads the row FOR UPDATE inside a transaction so validate and mutate
// see a stable state and concurrent decisions serialize on the row lock.
func (s *PostgresPendingStore) Execute(ctx context.Context, id uuid.UUID,
	validate func(*models.PendingRegistration) error,
	mutate func(*models.PendingRegistration),
) (*models.PendingRegistration, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT `+pendingColumns+` FROM pending_registrations WHERE id = $1 FOR UPDATE`, id)
	r, err := scanPending(row)
	if err != nil {
		return nil, err
	}

	if err := validate(r); err != nil {
		return nil, err
	}
	mutate(r)

	_, err = tx.Exec(ctx, `
		UPDATE pending_registrations
		SET status = $2, rejection_reason = $3, decided_by = $4, decided_at = $5
		WHERE id = $1`,
		r.ID, r.Status, r.RejectionReason, r.DecidedBy, r.DecidedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update pending registration: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return r, nil
}

func scanPending(row pgx.Row) (*models.PendingRegistration, error) {
	var r models.PendingRegistration
	err := row.Scan(&r.ID, &r.Name, &r.ContactEmail, &r.DocsRef, &r.TermsAccepted, &r.Status, &r.RejectionReason, &r.DecidedBy, &r.DecidedAt, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan pending registration: %w", err)
	}
	return &r, nil
}
