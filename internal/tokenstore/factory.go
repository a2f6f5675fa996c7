package tokenstore

import (
	"context"
	"errors"
	"os"

	"go.uber.org/zap"
)

const (
	tokenStoreOpenedMessageConstant     = "token store opened"
	tokenLookupSucceededMessageConstant = "access token resolved"
	tokenLookupFailedMessageConstant    = "access token lookup failed"
	logFieldBackendConstant             = "token_store_backend"
	logFieldUserIdentifierConstant      = "user_uid"
	logFieldCollectionConstant          = "collection"
)

// Open constructs the configured backend and wraps it with lookup logging.
func Open(openContext context.Context, configuration Configuration, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	sanitized := configuration.Sanitize()
	backend, backendError := ParseBackend(sanitized.Backend)
	if backendError != nil {
		return nil, backendError
	}

	var backendStore Store
	var openError error
	switch backend {
	case BackendFirestore:
		backendStore, openError = NewFirestoreStore(openContext, sanitized.Collection, sanitized.TokenField, sanitized.Firestore)
	case BackendRedis:
		backendStore, openError = NewRedisStore(sanitized.Redis, sanitized.TokenField)
	case BackendSQLite:
		backendStore, openError = NewSQLiteStore(openContext, sanitized.Collection, sanitized.SQLite)
	case BackendFile:
		backendStore, openError = NewFileStore(sanitized.File, sanitized.TokenField)
	case BackendEnvironment:
		backendStore = NewEnvironmentStore(os.LookupEnv)
	}
	if openError != nil {
		return nil, openError
	}

	logger.Info(
		tokenStoreOpenedMessageConstant,
		zap.String(logFieldBackendConstant, string(backend)),
		zap.String(logFieldCollectionConstant, sanitized.Collection),
	)

	return NewLoggingStore(backendStore, backend, logger), nil
}

// LoggingStore decorates a Store with structured lookup logging. Tokens are never logged.
type LoggingStore struct {
	Store
	backend Backend
	logger  *zap.Logger
}

// NewLoggingStore wraps store so every lookup outcome is logged.
func NewLoggingStore(store Store, backend Backend, logger *zap.Logger) *LoggingStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingStore{Store: store, backend: backend, logger: logger}
}

// AccessToken delegates to the wrapped store.
func (store *LoggingStore) AccessToken(lookupContext context.Context, userIdentifier string) (string, error) {
	accessToken, lookupError := store.Store.AccessToken(lookupContext, userIdentifier)
	if lookupError != nil {
		logFunction := store.logger.Info
		var unavailableError StoreUnavailableError
		if errors.As(lookupError, &unavailableError) {
			logFunction = store.logger.Error
		}
		logFunction(
			tokenLookupFailedMessageConstant,
			zap.String(logFieldBackendConstant, string(store.backend)),
			zap.String(logFieldUserIdentifierConstant, userIdentifier),
			zap.Error(lookupError),
		)
		return "", lookupError
	}

	store.logger.Debug(
		tokenLookupSucceededMessageConstant,
		zap.String(logFieldBackendConstant, string(store.backend)),
		zap.String(logFieldUserIdentifierConstant, userIdentifier),
	)
	return accessToken, nil
}

// PutAccessToken forwards to the wrapped store when it supports writes.
func (store *LoggingStore) PutAccessToken(writeContext context.Context, userIdentifier string, accessToken string) error {
	writer, supportsWrites := store.Store.(Writer)
	if !supportsWrites {
		return WriteUnsupportedError{Backend: store.backend}
	}
	return writer.PutAccessToken(writeContext, userIdentifier, accessToken)
}
