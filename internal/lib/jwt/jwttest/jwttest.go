// Package jwttest выпускает токены для тестов так же, как внешний
// сервис аутентификации: HS256, идентификатор пользователя в sub.
package jwttest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// Sign подписывает токен пользователя userID секретом secret со сроком жизни ttl.
func Sign(t testing.TB, secret, userID, email string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if userID == "" {
		delete(claims, "sub")
	}
	if email != "" {
		claims["email"] = email
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}
