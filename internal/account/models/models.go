// Package models defines the persisted account.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role classifies an account.
type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleAlumni  Role = "alumni"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleStaff || r == RoleAlumni
}

// Account is a full member of the network. The onboarding orchestrator is the
// sole writer at creation time; afterwards the account belongs to its subject.
type Account struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Role           Role      `json:"role"`
	Affiliation    string    `json:"affiliation"`
	GraduationYear int       `json:"graduation_year,omitempty"`

	// PasswordHash always holds a bcrypt hash. For OTP-created accounts it is
	// a random unusable placeholder until the owner sets a real credential;
	// PasswordSet records whether that has happened.
	PasswordHash string `json:"-"`
	PasswordSet  bool   `json:"password_set"`

	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}
