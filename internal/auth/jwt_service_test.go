package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.Error(t, err)
	require.EqualError(t, err, "jwt: secret must be provided")
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }

	svc, err := NewJWTService(JWTConfig{
		Secret:         "super-secret",
		Issuer:         "kdufoot",
		Audience:       "https://api.kdufoot.fr",
		AccessTokenTTL: time.Hour,
		Clock:          now,
	})
	require.NoError(t, err)

	perms := []string{"admin:billing"}
	token, err := svc.GenerateAccessToken(AccessTokenInput{
		Subject:     "auth0|123",
		Email:       "coach@club.fr",
		Permissions: perms,
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	perms[0] = "mutated"

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)

	require.Equal(t, "auth0|123", claims.Subject)
	require.Equal(t, "coach@club.fr", claims.Email)
	require.Equal(t, "kdufoot", claims.Issuer)
	require.Equal(t, jwt.ClaimStrings{"https://api.kdufoot.fr"}, claims.Audience)
	require.Equal(t, []string{"admin:billing"}, claims.Permissions)
	require.True(t, claims.IssuedAt.Time.Equal(current))
	require.True(t, claims.ExpiresAt.Time.Equal(current.Add(time.Hour)))
}

func TestValidateAccessTokenInvalidSignature(t *testing.T) {
	now := func() time.Time { return time.Date(2026, 1, 1, 13, 0, 0, 0, time.UTC) }

	issuer, err := NewJWTService(JWTConfig{Secret: "issuer-secret", Clock: now})
	require.NoError(t, err)

	token, err := issuer.GenerateAccessToken(AccessTokenInput{Subject: "auth0|123"})
	require.NoError(t, err)

	verifier, err := NewJWTService(JWTConfig{Secret: "other-secret", Clock: now})
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(token)
	require.Error(t, err)
	require.True(t, errors.Is(err, jwt.ErrTokenSignatureInvalid))
}

func TestValidateAccessTokenExpired(t *testing.T) {
	current := time.Date(2026, 1, 1, 14, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }

	svc, err := NewJWTService(JWTConfig{
		Secret:         "secret",
		AccessTokenTTL: time.Minute,
		Clock:          now,
	})
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken(AccessTokenInput{Subject: "auth0|123"})
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)

	_, err = svc.ValidateAccessToken(token)
	require.Error(t, err)
	require.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestValidateAccessTokenChecksIssuerAndAudience(t *testing.T) {
	other, err := NewJWTService(JWTConfig{Secret: "secret", Issuer: "elsewhere"})
	require.NoError(t, err)
	token, err := other.GenerateAccessToken(AccessTokenInput{Subject: "auth0|123", Audience: []string{"other-api"}})
	require.NoError(t, err)

	byIssuer, err := NewJWTService(JWTConfig{Secret: "secret", Issuer: "kdufoot"})
	require.NoError(t, err)
	_, err = byIssuer.ValidateAccessToken(token)
	require.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)

	byAudience, err := NewJWTService(JWTConfig{Secret: "secret", Audience: "kdufoot-api"})
	require.NoError(t, err)
	_, err = byAudience.ValidateAccessToken(token)
	require.ErrorIs(t, err, jwt.ErrTokenInvalidAudience)
}

func TestJWTServiceVerifyBuildsIdentity(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "secret"})
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken(AccessTokenInput{
		Subject:     "auth0|123",
		Email:       "coach@club.fr",
		Permissions: []string{"admin:users", "admin:billing", "admin:users"},
	})
	require.NoError(t, err)

	identity, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "auth0|123", identity.Subject)
	require.Equal(t, []string{"admin:users", "admin:billing"}, identity.Scopes)
	require.True(t, identity.HasScope("admin:billing"))
	require.False(t, identity.HasScope("admin:auth0"))

	_, err = svc.Verify(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMergeScopes(t *testing.T) {
	require.Equal(t,
		[]string{"read:api", "openid", "admin:users"},
		mergeScopes([]string{"read:api", " "}, "openid admin:users read:api"),
	)
	require.Nil(t, mergeScopes(nil, ""))

	var nilIdentity *Identity
	require.False(t, nilIdentity.HasScope("read:api"))
}
