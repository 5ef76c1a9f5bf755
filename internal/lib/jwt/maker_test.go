package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/warranty-tracker/internal/lib/jwt/jwttest"
)

func TestJWTMaker_ParseToken_ValidCases(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	tokenTTL := 15 * time.Minute
	maker := NewJWTMaker(secretKey)

	tests := []struct {
		name   string
		userID string
		email  string
	}{
		{
			name:   "uuid user id",
			userID: "5b0d7f3e-3c1a-4c55-9f5e-0d6f7a1b2c3d",
			email:  "user@domain.com",
		},
		{
			name:   "without email",
			userID: "user-42",
			email:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := jwttest.Sign(t, secretKey, tt.userID, tt.email, tokenTTL)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, tt.userID, claims.UserID())
			assert.Equal(t, tt.email, claims.Email)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, 2*time.Second)
			assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt.Time, 2*time.Second)
		})
	}
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	maker := NewJWTMaker(secretKey)

	validToken := jwttest.Sign(t, secretKey, "user-1", "user@example.com", 15*time.Minute)

	tests := []struct {
		name      string
		token     string
		wantError bool
	}{
		{
			name:      "empty token",
			token:     "",
			wantError: true,
		},
		{
			name:      "malformed token",
			token:     "invalid.token.here",
			wantError: true,
		},
		{
			name:      "expired token",
			token:     jwttest.Sign(t, secretKey, "user-1", "user@example.com", -time.Hour),
			wantError: true,
		},
		{
			name:      "wrong secret key",
			token:     jwttest.Sign(t, "wrong_secret_key", "user-1", "user@example.com", 15*time.Minute),
			wantError: true,
		},
		{
			name:      "tampered token",
			token:     validToken + "tampered",
			wantError: true,
		},
		{
			name:      "valid token",
			token:     validToken,
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)

			if tt.wantError {
				assert.Error(t, err)
				assert.Nil(t, claims)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, claims)
			}
		})
	}
}

func TestJWTMaker_DifferentSecretKeys(t *testing.T) {
	maker1 := NewJWTMaker("first_secret_key")
	maker2 := NewJWTMaker("different_secret_key")

	token := jwttest.Sign(t, "first_secret_key", "user-1", "", 15*time.Minute)

	claims, err := maker2.ParseToken(token)
	assert.Error(t, err)
	assert.Nil(t, claims)

	claims, err = maker1.ParseToken(token)
	assert.NoError(t, err)
	assert.NotNil(t, claims)
}

func TestJWTMaker_TokenExpiration(t *testing.T) {
	maker := NewJWTMaker("test_secret_key")

	token := jwttest.Sign(t, "test_secret_key", "user-1", "user@example.com", -time.Minute)

	_, err := maker.ParseToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestJWTMaker_ParseToken_RequiresUserID(t *testing.T) {
	maker := NewJWTMaker("test_secret_key")

	token := jwttest.Sign(t, "test_secret_key", "", "user@example.com", time.Minute)

	claims, err := maker.ParseToken(token)
	assert.ErrorIs(t, err, ErrMissingUserID)
	assert.Nil(t, claims)
}

func TestJWTMaker_ParseToken_RejectsOtherAlgorithms(t *testing.T) {
	secretKey := "test_secret_key"
	maker := NewJWTMaker(secretKey)

	claims := CustomClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(secretKey))
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	assert.Error(t, err)
}
