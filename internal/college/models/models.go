// Package models defines the domain trust registry records and the pending
// registration aggregate.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "collegenet/pkg/domain-errors"
	pkgemail "collegenet/pkg/email"
)

// RegistrationStatus is the pending registration workflow state.
type RegistrationStatus string

const (
	StatusPending  RegistrationStatus = "pending"
	StatusApproved RegistrationStatus = "approved"
	StatusRejected RegistrationStatus = "rejected"
)

// Terminal reports whether no further transition is allowed.
func (s RegistrationStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// College is a domain trust record: the assertion that an email domain belongs
// to an approved institution.
//
// Invariants:
//   - Domain is unique across all records
//   - Created only by an approval decision
//   - Immutable after creation except for Active, which is toggled to retire
//     a domain without deleting the approval history
type College struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	ContactEmail string    `json:"contact_email"`
	Domain       string    `json:"domain"`
	Active       bool      `json:"active"`
	ApprovedBy   uuid.UUID `json:"approved_by"`
	ApprovedAt   time.Time `json:"approved_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// PendingRegistration is an institution's self-submitted application to become
// trusted.
//
// Invariants:
//   - ContactEmail is unique among pending registrations
//   - Status transitions: pending -> approved or pending -> rejected, both
//     terminal; a re-submission needs a fresh registration with a new email
type PendingRegistration struct {
	ID              uuid.UUID          `json:"id"`
	Name            string             `json:"name"`
	ContactEmail    string             `json:"contact_email"`
	DocsRef         string             `json:"verification_docs"`
	TermsAccepted   bool               `json:"terms_accepted"`
	Status          RegistrationStatus `json:"status"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
	DecidedBy       *uuid.UUID         `json:"decided_by,omitempty"`
	DecidedAt       *time.Time         `json:"decided_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// NewPendingRegistration validates and constructs a pending registration.
func NewPendingRegistration(id uuid.UUID, name, contactEmail, docsRef string, termsAccepted bool, now time.Time) (*PendingRegistration, error) {
	name = strings.TrimSpace(name)
	contactEmail = pkgemail.Normalize(contactEmail)

	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "college name cannot be empty")
	}
	if contactEmail == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "contact email cannot be empty")
	}
	if _, ok := pkgemail.Domain(contactEmail); !ok {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "contact email must contain a domain")
	}
	if strings.TrimSpace(docsRef) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "verification docs reference cannot be empty")
	}
	if !termsAccepted {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "terms must be accepted")
	}

	return &PendingRegistration{
		ID:            id,
		Name:          name,
		ContactEmail:  contactEmail,
		DocsRef:       strings.TrimSpace(docsRef),
		TermsAccepted: termsAccepted,
		Status:        StatusPending,
		CreatedAt:     now,
	}, nil
}

// Domain derives the trust domain from the contact email.
func (r *PendingRegistration) Domain() string {
	domain, _ := pkgemail.Domain(r.ContactEmail)
	return domain
}

// CanDecide checks the registration is still open for a decision.
// Use with ApplyApproval/ApplyRejection in Execute callbacks.
func (r *PendingRegistration) CanDecide() error {
	if r.Status.Terminal() {
		return dErrors.New(dErrors.CodeInvariantViolation, "registration already decided")
	}
	return nil
}

// ApplyApproval stamps the registration approved. Call CanDecide first.
func (r *PendingRegistration) ApplyApproval(by uuid.UUID, now time.Time) {
	r.Status = StatusApproved
	r.DecidedBy = &by
	r.DecidedAt = &now
}

// ApplyRejection stamps the registration rejected. Call CanDecide first.
func (r *PendingRegistration) ApplyRejection(by uuid.UUID, reason string, now time.Time) {
	r.Status = StatusRejected
	if strings.TrimSpace(reason) == "" {
		reason = "Application rejected"
	}
	r.RejectionReason = strings.TrimSpace(reason)
	r.DecidedBy = &by
	r.DecidedAt = &now
}
