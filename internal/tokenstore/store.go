package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

const (
	userNotFoundMessageConstant             = "user not found"
	tokenMissingMessageConstant             = "github token not found"
	userIdentifierMissingMessageConstant    = "user identifier must be provided"
	storeUnavailableTemplateConstant        = "%s token store unavailable: %s"
	storeUnavailableWithoutCauseTemplate    = "%s token store unavailable"
	recordDecodingErrorTemplateConstant     = "token record decoding failed: %w"
	defaultTokenFieldNameConstant           = "githubAccessToken"
	defaultCollectionNameConstant           = "access_tokens"
	unsupportedBackendErrorTemplateConstant = "unsupported token store backend %q"
	backendFirestoreValueConstant           = "firestore"
	backendRedisValueConstant               = "redis"
	backendSQLiteValueConstant              = "sqlite"
	backendFileValueConstant                = "file"
	backendEnvironmentValueConstant         = "environment"
	tokenWriterUnsupportedTemplateConstant  = "%s token store does not support writes"
	tokenValueMissingMessageConstant        = "access token must be provided"
)

var (
	// ErrUserNotFound indicates no record exists for the user identifier.
	ErrUserNotFound = errors.New(userNotFoundMessageConstant)
	// ErrTokenMissing indicates the user record exists but carries no token.
	ErrTokenMissing = errors.New(tokenMissingMessageConstant)
	// ErrUserIdentifierMissing indicates a blank user identifier.
	ErrUserIdentifierMissing = errors.New(userIdentifierMissingMessageConstant)
	// ErrTokenValueMissing indicates a write was attempted with a blank token.
	ErrTokenValueMissing = errors.New(tokenValueMissingMessageConstant)
)

// Backend names a token store implementation.
type Backend string

// Supported backends.
const (
	BackendFirestore   Backend = Backend(backendFirestoreValueConstant)
	BackendRedis       Backend = Backend(backendRedisValueConstant)
	BackendSQLite      Backend = Backend(backendSQLiteValueConstant)
	BackendFile        Backend = Backend(backendFileValueConstant)
	BackendEnvironment Backend = Backend(backendEnvironmentValueConstant)
)

// ParseBackend normalizes a textual backend name.
func ParseBackend(backendValue string) (Backend, error) {
	normalizedBackend := Backend(strings.ToLower(strings.TrimSpace(backendValue)))
	switch normalizedBackend {
	case BackendFirestore, BackendRedis, BackendSQLite, BackendFile, BackendEnvironment:
		return normalizedBackend, nil
	default:
		return "", fmt.Errorf(unsupportedBackendErrorTemplateConstant, backendValue)
	}
}

// Store resolves access tokens by user identifier.
type Store interface {
	AccessToken(lookupContext context.Context, userIdentifier string) (string, error)
	Close() error
}

// Writer stores access tokens; implemented by backends that support seeding.
type Writer interface {
	PutAccessToken(writeContext context.Context, userIdentifier string, accessToken string) error
}

// StoreUnavailableError wraps an I/O fault raised by a backend.
type StoreUnavailableError struct {
	Backend Backend
	Cause   error
}

// Error describes the backend failure.
func (unavailableError StoreUnavailableError) Error() string {
	if unavailableError.Cause == nil {
		return fmt.Sprintf(storeUnavailableWithoutCauseTemplate, unavailableError.Backend)
	}
	return fmt.Sprintf(storeUnavailableTemplateConstant, unavailableError.Backend, unavailableError.Cause)
}

// Unwrap exposes the underlying cause.
func (unavailableError StoreUnavailableError) Unwrap() error {
	return unavailableError.Cause
}

// WriteUnsupportedError indicates the selected backend is read-only.
type WriteUnsupportedError struct {
	Backend Backend
}

// Error describes the unsupported write.
func (unsupportedError WriteUnsupportedError) Error() string {
	return fmt.Sprintf(tokenWriterUnsupportedTemplateConstant, unsupportedError.Backend)
}

// tokenFromRecord reads the token field of a raw document and applies the missing-token rule.
// Non-string scalars are converted; other shapes count as a corrupt record.
func tokenFromRecord(backend Backend, tokenField string, rawRecord map[string]any) (string, error) {
	rawToken, present := rawRecord[selectValue(tokenField, defaultTokenFieldNameConstant)]
	if !present || rawToken == nil {
		return "", ErrTokenMissing
	}

	var accessToken string
	if decodeError := mapstructure.WeakDecode(rawToken, &accessToken); decodeError != nil {
		return "", StoreUnavailableError{Backend: backend, Cause: fmt.Errorf(recordDecodingErrorTemplateConstant, decodeError)}
	}
	accessToken = strings.TrimSpace(accessToken)
	if len(accessToken) == 0 {
		return "", ErrTokenMissing
	}
	return accessToken, nil
}

func normalizeUserIdentifier(userIdentifier string) (string, error) {
	trimmedIdentifier := strings.TrimSpace(userIdentifier)
	if len(trimmedIdentifier) == 0 {
		return "", ErrUserIdentifierMissing
	}
	return trimmedIdentifier, nil
}

func normalizeAccessToken(accessToken string) (string, error) {
	trimmedToken := strings.TrimSpace(accessToken)
	if len(trimmedToken) == 0 {
		return "", ErrTokenValueMissing
	}
	return trimmedToken, nil
}
