package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	dErrors "collegenet/pkg/domain-errors"
)

func TestNew(t *testing.T) {
	t.Run("empty signing key is rejected", func(t *testing.T) {
		_, err := New("", "collegenet", time.Hour)
		require.Error(t, err)
	})

	t.Run("non-positive ttl is rejected", func(t *testing.T) {
		_, err := New("secret", "collegenet", 0)
		require.Error(t, err)
	})
}

func TestMintValidateRoundTrip(t *testing.T) {
	svc, err := New("test-signing-key", "collegenet", 7*24*time.Hour)
	require.NoError(t, err)

	accountID := uuid.New()
	now := time.Now()

	raw, expiresAt, err := svc.Mint(accountID, "student", now)
	require.NoError(t, err)
	require.WithinDuration(t, now.Add(7*24*time.Hour), expiresAt, time.Second)

	claims, err := svc.Validate(raw)
	require.NoError(t, err)
	require.Equal(t, accountID.String(), claims.AccountID)
	require.Equal(t, "student", claims.Role)
}

func TestValidateRejectsExpired(t *testing.T) {
	svc, err := New("test-signing-key", "collegenet", time.Minute)
	require.NoError(t, err)

	raw, _, err := svc.Mint(uuid.New(), "student", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = svc.Validate(raw)
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	require.Contains(t, err.Error(), "expired")
}

func TestValidateRejectsWrongKey(t *testing.T) {
	minter, err := New("key-one", "collegenet", time.Hour)
	require.NoError(t, err)
	validator, err := New("key-two", "collegenet", time.Hour)
	require.NoError(t, err)

	raw, _, err := minter.Mint(uuid.New(), "student", time.Now())
	require.NoError(t, err)

	_, err = validator.Validate(raw)
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc, err := New("test-signing-key", "collegenet", time.Hour)
	require.NoError(t, err)

	_, err = svc.Validate("not-a-token")
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
