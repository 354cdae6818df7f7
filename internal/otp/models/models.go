// Package models defines the one-time verification code records.
package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Purpose scopes a code to the flow it proves.
type Purpose string

const (
	PurposeStudentVerification Purpose = "student_verification"
	PurposePasswordReset       Purpose = "password_reset"
)

// Valid reports whether p is a known purpose.
func (p Purpose) Valid() bool {
	return p == PurposeStudentVerification || p == PurposePasswordReset
}

// ProfileDraft holds the prospective student's unconfirmed attributes. It
// exists only to bridge the issue/verify handshake: it is returned once on
// consume and must never be persisted anywhere else.
type ProfileDraft struct {
	Name        string    `json:"name"`
	Semester    string    `json:"semester"`
	Gender      string    `json:"gender"`
	CollegeID   uuid.UUID `json:"college_id"`
	CollegeName string    `json:"college_name"`
}

// Record is a short-lived, single-use verification code.
//
// Invariant: at most one unused, unexpired record exists per (email, purpose);
// the store replaces any prior record before inserting a new one.
type Record struct {
	Email     string        `json:"email"`
	Code      string        `json:"code"`
	Purpose   Purpose       `json:"purpose"`
	Used      bool          `json:"used"`
	ExpiresAt time.Time     `json:"expires_at"`
	Profile   *ProfileDraft `json:"profile,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Live reports whether the record can still be consumed at the given time.
func (r *Record) Live(now time.Time) bool {
	return !r.Used && r.ExpiresAt.After(now)
}

// GenerateCode draws a 6-digit code uniformly from 000000-999999.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
