package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		shouldFail bool
	}{
		{"valid strong password", "SecureP@ss123", false},
		{"valid with symbols", "MyP@ssw0rd!", false},
		{"too short", "Pa@1", true},
		{"missing uppercase", "securepass@123", true},
		{"missing lowercase", "SECUREPASS@123", true},
		{"missing digit", "SecurePass@xyz", true},
		{"missing special character", "SecurePass123", true},
		{"common password", "Password123!", true},
		{"too long", "Aa1@" + strings.Repeat("x", 80), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if !tt.shouldFail {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Equal(t, "invalid password", err.Error())
			var pve *PasswordValidationError
			require.True(t, errors.As(err, &pve))
			assert.NotEmpty(t, pve.Errors)
		})
	}
}

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPasswordWithCost("SecureP@ss123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "SecureP@ss123", hash)

	assert.NoError(t, ComparePassword(hash, "SecureP@ss123"))
	assert.Error(t, ComparePassword(hash, "wrong"))
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPasswordWithCost("", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestHashPassword_DefaultCost(t *testing.T) {
	hash, err := HashPassword("SecureP@ss123")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, BcryptCost, cost)
}
