// Package store persists accounts. The unique email constraint here is the
// second safety net behind the OTP consume atomicity: if two verifications
// ever raced past consume, the second CreateIfEmailAvailable loses.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"collegenet/internal/account/models"
)

type Store interface {
	// CreateIfEmailAvailable inserts the account or returns
	// sentinel.ErrConflict when the email is taken.
	CreateIfEmailAvailable(ctx context.Context, account *models.Account) error
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	// UpdatePassword stores a new hash and marks the credential as set.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}
