package tokenstore_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/temirov/chronos/internal/tokenstore"
)

const (
	testRedisKeyPrefixConstant = "access_tokens:"
	testRedisTokenFieldName    = "githubAccessToken"
	testRedisCustomTokenField  = "accessToken"
)

func newSeededRedisStore(testInstance *testing.T) (*tokenstore.RedisStore, *miniredis.Miniredis) {
	testInstance.Helper()

	redisServer := miniredis.RunT(testInstance)
	redisServer.HSet(testRedisKeyPrefixConstant+testUserIdentifierConstant, testRedisTokenFieldName, testAccessTokenConstant)
	redisServer.HSet(testRedisKeyPrefixConstant+testTokenlessUserIdentifier, "displayName", "No Token")

	store, creationError := tokenstore.NewRedisStore(tokenstore.RedisConfiguration{
		Address:   redisServer.Addr(),
		KeyPrefix: testRedisKeyPrefixConstant,
	}, "")
	require.NoError(testInstance, creationError)
	testInstance.Cleanup(func() {
		_ = store.Close()
	})
	return store, redisServer
}

func TestRedisStoreLookup(testInstance *testing.T) {
	store, _ := newSeededRedisStore(testInstance)
	runSharedLookupCases(testInstance, store)
}

func TestRedisStorePutAccessToken(testInstance *testing.T) {
	store, redisServer := newSeededRedisStore(testInstance)

	require.NoError(testInstance, store.PutAccessToken(context.Background(), "user-new", " fresh-token "))
	require.Equal(testInstance, "fresh-token", redisServer.HGet(testRedisKeyPrefixConstant+"user-new", testRedisTokenFieldName))

	accessToken, lookupError := store.AccessToken(context.Background(), "user-new")
	require.NoError(testInstance, lookupError)
	require.Equal(testInstance, "fresh-token", accessToken)

	require.ErrorIs(testInstance, store.PutAccessToken(context.Background(), "user-new", " "), tokenstore.ErrTokenValueMissing)
}

func TestRedisStoreUnavailable(testInstance *testing.T) {
	store, redisServer := newSeededRedisStore(testInstance)
	redisServer.Close()

	_, lookupError := store.AccessToken(context.Background(), testUserIdentifierConstant)
	var unavailableError tokenstore.StoreUnavailableError
	require.ErrorAs(testInstance, lookupError, &unavailableError)
	require.Equal(testInstance, tokenstore.BackendRedis, unavailableError.Backend)
}

func TestRedisStoreRejectsInvalidURL(testInstance *testing.T) {
	_, creationError := tokenstore.NewRedisStore(tokenstore.RedisConfiguration{URL: "http://not-redis"}, "")
	require.Error(testInstance, creationError)
}

func TestRedisStoreCustomTokenField(testInstance *testing.T) {
	redisServer := miniredis.RunT(testInstance)
	redisServer.HSet(testRedisKeyPrefixConstant+testUserIdentifierConstant, testRedisCustomTokenField, testAccessTokenConstant)
	redisServer.HSet(testRedisKeyPrefixConstant+testTokenlessUserIdentifier, testRedisTokenFieldName, "default-field-ignored")

	store, creationError := tokenstore.NewRedisStore(tokenstore.RedisConfiguration{
		Address:   redisServer.Addr(),
		KeyPrefix: testRedisKeyPrefixConstant,
	}, testRedisCustomTokenField)
	require.NoError(testInstance, creationError)
	testInstance.Cleanup(func() {
		_ = store.Close()
	})

	runSharedLookupCases(testInstance, store)

	require.NoError(testInstance, store.PutAccessToken(context.Background(), "user-new", "fresh-token"))
	require.Equal(testInstance, "fresh-token", redisServer.HGet(testRedisKeyPrefixConstant+"user-new", testRedisCustomTokenField))
	require.Empty(testInstance, redisServer.HGet(testRedisKeyPrefixConstant+"user-new", testRedisTokenFieldName))
}
