package tokenstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/chronos/internal/githubauth"
	"github.com/temirov/chronos/internal/tokenstore"
)

func TestOpenSQLiteBackendSupportsWrites(testInstance *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	configuration := tokenstore.DefaultConfiguration()
	configuration.Backend = "sqlite"
	configuration.SQLite.Path = filepath.Join(testInstance.TempDir(), "chronos.db")

	store, openError := tokenstore.Open(context.Background(), configuration, zap.New(observedCore))
	require.NoError(testInstance, openError)
	testInstance.Cleanup(func() {
		_ = store.Close()
	})

	writer, supportsWrites := store.(tokenstore.Writer)
	require.True(testInstance, supportsWrites)
	require.NoError(testInstance, writer.PutAccessToken(context.Background(), testUserIdentifierConstant, testAccessTokenConstant))

	accessToken, lookupError := store.AccessToken(context.Background(), testUserIdentifierConstant)
	require.NoError(testInstance, lookupError)
	require.Equal(testInstance, testAccessTokenConstant, accessToken)

	_, missingError := store.AccessToken(context.Background(), testUnknownUserIdentifierConstant)
	require.ErrorIs(testInstance, missingError, tokenstore.ErrUserNotFound)

	require.Equal(testInstance, 1, observedLogs.FilterMessage("token store opened").Len())
	require.Equal(testInstance, 1, observedLogs.FilterMessage("access token resolved").Len())
	failureEntries := observedLogs.FilterMessage("access token lookup failed").All()
	require.Len(testInstance, failureEntries, 1)
	require.Equal(testInstance, zapcore.InfoLevel, failureEntries[0].Level)
	for _, entry := range observedLogs.All() {
		require.NotContains(testInstance, entry.ContextMap(), "token")
	}
}

func TestOpenEnvironmentBackendRejectsWrites(testInstance *testing.T) {
	testInstance.Setenv(githubauth.EnvChronosGitHubToken, testAccessTokenConstant)
	configuration := tokenstore.DefaultConfiguration()
	configuration.Backend = "environment"

	store, openError := tokenstore.Open(context.Background(), configuration, nil)
	require.NoError(testInstance, openError)

	accessToken, lookupError := store.AccessToken(context.Background(), testUserIdentifierConstant)
	require.NoError(testInstance, lookupError)
	require.Equal(testInstance, testAccessTokenConstant, accessToken)

	writer, supportsWrites := store.(tokenstore.Writer)
	require.True(testInstance, supportsWrites)
	var unsupportedError tokenstore.WriteUnsupportedError
	require.ErrorAs(testInstance, writer.PutAccessToken(context.Background(), testUserIdentifierConstant, "x"), &unsupportedError)
}

func TestOpenRejectsUnknownBackend(testInstance *testing.T) {
	configuration := tokenstore.DefaultConfiguration()
	configuration.Backend = "dynamodb"

	_, openError := tokenstore.Open(context.Background(), configuration, zap.NewNop())
	require.Error(testInstance, openError)
}

func TestOpenFileBackendHonorsTokenField(testInstance *testing.T) {
	configuration := tokenstore.DefaultConfiguration()
	configuration.Backend = "file"
	configuration.TokenField = "accessToken"
	configuration.File.Path = writeTokenFile(testInstance, "user-123:\n  accessToken: tok123\nuser-tokenless:\n  githubAccessToken: ignored\n")

	store, openError := tokenstore.Open(context.Background(), configuration, zap.NewNop())
	require.NoError(testInstance, openError)
	testInstance.Cleanup(func() {
		_ = store.Close()
	})

	runSharedLookupCases(testInstance, store)
}
