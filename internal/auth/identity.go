package auth

import (
	"context"
	"errors"
	"slices"
	"strings"
)

// ErrInvalidToken is wrapped by every verification failure.
var ErrInvalidToken = errors.New("auth: invalid token")

// Identity is the caller extracted from a verified bearer token.
type Identity struct {
	Subject    string
	Email      string
	Scopes     []string
	Name       string
	Picture    string
	GivenName  string
	FamilyName string
}

// HasScope reports whether the identity provider granted scope to the token.
func (i *Identity) HasScope(scope string) bool {
	if i == nil {
		return false
	}
	return slices.Contains(i.Scopes, scope)
}

// TokenVerifier turns a raw bearer token into an Identity.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

// mergeScopes joins the permissions array and the space separated scope claim
// issued by Auth0 style providers.
func mergeScopes(permissions []string, scope string) []string {
	seen := make(map[string]struct{}, len(permissions))
	var out []string
	for _, value := range append(permissions, strings.Fields(scope)...) {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
