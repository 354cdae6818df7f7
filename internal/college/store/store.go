// Package store persists colleges and pending registrations. Implementations
// return sentinel errors; services translate them into domain errors.
package store

import (
	"context"

	"github.com/google/uuid"

	"collegenet/internal/college/models"
)

// CollegeStore holds domain trust records. No delete operation is exposed:
// retirement is via SetActive(false) so the approval history stays intact.
type CollegeStore interface {
	// CreateIfDomainAvailable inserts the record or returns
	// sentinel.ErrConflict when the domain (or contact email) is taken.
	CreateIfDomainAvailable(ctx context.Context, college *models.College) error
	FindByDomain(ctx context.Context, domain string) (*models.College, error)
	FindByContactEmail(ctx context.Context, email string) (*models.College, error)
	// ListActive returns active colleges ordered by name ascending.
	ListActive(ctx context.Context) ([]*models.College, error)
	SetActive(ctx context.Context, domain string, active bool) (*models.College, error)
}

// PendingStore holds registration applications.
type PendingStore interface {
	// CreateIfEmailAvailable inserts the registration or returns
	// sentinel.ErrConflict when the contact email already has one.
	CreateIfEmailAvailable(ctx context.Context, reg *models.PendingRegistration) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PendingRegistration, error)
	// ListByStatus returns registrations newest first.
	ListByStatus(ctx context.Context, status models.RegistrationStatus) ([]*models.PendingRegistration, error)
	// Execute atomically validates then mutates a registration while holding
	// the store's lock (mutex or FOR UPDATE), so pending->terminal happens
	// exactly once under concurrent decisions.
	Execute(ctx context.Context, id uuid.UUID,
		validate func(*models.PendingRegistration) error,
		mutate func(*models.PendingRegistration),
	) (*models.PendingRegistration, error)
}
