package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9')
		}
		seen[code] = true
	}
	// 100 draws from a million values colliding down to a handful would mean
	// a broken generator.
	assert.Greater(t, len(seen), 90)
}

func TestPurposeValid(t *testing.T) {
	assert.True(t, PurposeStudentVerification.Valid())
	assert.True(t, PurposePasswordReset.Valid())
	assert.False(t, Purpose("newsletter").Valid())
	assert.False(t, Purpose("").Valid())
}

func TestRecordLive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := Record{Code: "123456", ExpiresAt: now.Add(time.Minute)}

	assert.True(t, rec.Live(now))
	assert.False(t, rec.Live(now.Add(2*time.Minute)))

	rec.Used = true
	assert.False(t, rec.Live(now))
}
