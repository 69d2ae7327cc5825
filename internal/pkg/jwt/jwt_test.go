package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("secret")
	token, err := GenerateToken("user-1", "a@example.com", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "a@example.com", claims.Email)
	require.Equal(t, Issuer, claims.Issuer)
	require.NotEmpty(t, claims.ID)
}

func TestTokensAreUnique(t *testing.T) {
	secret := []byte("secret")
	a, err := GenerateToken("user-1", "", secret, time.Hour)
	require.NoError(t, err)
	b, err := GenerateToken("user-1", "", secret, time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("user-1", "", []byte("secret"), time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(token, []byte("other"))
	require.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	secret := []byte("secret")
	token, err := GenerateToken("user-1", "", secret, -time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(token, secret)
	require.ErrorIs(t, err, jwtlib.ErrTokenExpired)
}

func TestParseTokenRejectsForeignTokens(t *testing.T) {
	secret := []byte("secret")
	sign := func(claims Claims) string {
		token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(secret)
		require.NoError(t, err)
		return token
	}
	exp := jwtlib.NewNumericDate(time.Now().Add(time.Hour))

	_, err := ParseToken(sign(Claims{UserID: "u", RegisteredClaims: jwtlib.RegisteredClaims{
		Issuer: "someone-else", Subject: "u", ExpiresAt: exp,
	}}), secret)
	require.Error(t, err)

	_, err = ParseToken(sign(Claims{UserID: "u", RegisteredClaims: jwtlib.RegisteredClaims{
		Issuer: Issuer, Subject: "u",
	}}), secret)
	require.Error(t, err)

	_, err = ParseToken(sign(Claims{RegisteredClaims: jwtlib.RegisteredClaims{
		Issuer: Issuer, ExpiresAt: exp,
	}}), secret)
	require.ErrorIs(t, err, ErrMissingUser)

	none, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS512, Claims{UserID: "u", RegisteredClaims: jwtlib.RegisteredClaims{
		Issuer: Issuer, Subject: "u", ExpiresAt: exp,
	}}).SignedString(secret)
	require.NoError(t, err)
	_, err = ParseToken(none, secret)
	require.Error(t, err)
}
