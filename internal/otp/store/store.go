// Package store persists verification codes. Implementations return sentinel
// errors; the ledger service translates them.
package store

import (
	"context"
	"time"

	"collegenet/internal/otp/models"
)

// Store is keyed by (email, purpose).
type Store interface {
	// Replace atomically deletes any record for the key and inserts rec, so
	// concurrent issues never leave two live codes.
	Replace(ctx context.Context, rec models.Record) error

	// FindActive returns the unused, unexpired record for the key, or
	// sentinel.ErrNotFound.
	FindActive(ctx context.Context, email string, purpose models.Purpose, now time.Time) (*models.Record, error)

	// Consume atomically matches (email, code, purpose, unused, unexpired)
	// and marks the record used, returning its profile draft. Exactly one
	// caller ever succeeds per record. Every non-match — wrong code, already
	// used, expired, absent — is sentinel.ErrNotFound so callers cannot tell
	// which.
	Consume(ctx context.Context, email, code string, purpose models.Purpose, now time.Time) (*models.ProfileDraft, error)

	// Delete removes the record for the key. Used to roll back an issue whose
	// notification failed.
	Delete(ctx context.Context, email string, purpose models.Purpose) error
}
