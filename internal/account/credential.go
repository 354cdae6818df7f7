// Package account holds the credential helpers shared by onboarding and auth.
package account

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword bcrypt-hashes a cleartext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// PasswordMatches compares a candidate against a stored hash.
func PasswordMatches(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}

// RandomPlaceholder returns a hashed random credential for accounts created
// via OTP verification. The cleartext is discarded immediately, so the
// account cannot log in until an explicit set-credential step runs.
func RandomPlaceholder() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate placeholder: %w", err)
	}
	return HashPassword(base64.RawStdEncoding.EncodeToString(raw))
}
