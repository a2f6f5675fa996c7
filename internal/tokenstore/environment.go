package tokenstore

import (
	"context"

	"github.com/temirov/chronos/internal/githubauth"
)

// EnvironmentStore resolves every user to the process-wide GitHub token.
// It exists for local development where no per-user store is available.
type EnvironmentStore struct {
	environmentLookup githubauth.EnvironmentLookup
}

// NewEnvironmentStore creates a store reading the process environment through lookup.
// A nil lookup yields a store that never finds a token.
func NewEnvironmentStore(environmentLookup githubauth.EnvironmentLookup) *EnvironmentStore {
	return &EnvironmentStore{environmentLookup: environmentLookup}
}

// AccessToken returns the first configured environment token.
func (store *EnvironmentStore) AccessToken(lookupContext context.Context, userIdentifier string) (string, error) {
	if _, identifierError := normalizeUserIdentifier(userIdentifier); identifierError != nil {
		return "", identifierError
	}
	accessToken, found := githubauth.ResolveTokenWithLookup(nil, store.environmentLookup)
	if !found {
		return "", ErrTokenMissing
	}
	return accessToken, nil
}

// Close is a no-op.
func (store *EnvironmentStore) Close() error {
	return nil
}
