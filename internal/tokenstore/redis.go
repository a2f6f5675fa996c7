package tokenstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	redisURLParseErrorTemplateConstant = "unable to parse redis url: %w"
)

// RedisStore reads tokens from hashes stored at <key_prefix><userUid>.
type RedisStore struct {
	client     *redis.Client
	keyPrefix  string
	tokenField string
}

// NewRedisStore creates a Redis-backed store. A URL takes precedence over address settings.
// tokenField names the hash field holding the token.
func NewRedisStore(configuration RedisConfiguration, tokenField string) (*RedisStore, error) {
	var clientOptions *redis.Options
	if redisURL := strings.TrimSpace(configuration.URL); len(redisURL) > 0 {
		parsedOptions, parseError := redis.ParseURL(redisURL)
		if parseError != nil {
			return nil, fmt.Errorf(redisURLParseErrorTemplateConstant, parseError)
		}
		clientOptions = parsedOptions
	} else {
		clientOptions = &redis.Options{
			Addr:     selectValue(configuration.Address, defaultRedisAddressConstant),
			Password: configuration.Password,
			DB:       configuration.DB,
		}
	}

	return &RedisStore{
		client:     redis.NewClient(clientOptions),
		keyPrefix:  selectValue(configuration.KeyPrefix, defaultRedisKeyPrefixConstant),
		tokenField: selectValue(tokenField, defaultTokenFieldNameConstant),
	}, nil
}

// AccessToken resolves the token stored for the user.
func (store *RedisStore) AccessToken(lookupContext context.Context, userIdentifier string) (string, error) {
	normalizedIdentifier, identifierError := normalizeUserIdentifier(userIdentifier)
	if identifierError != nil {
		return "", identifierError
	}

	storedFields, readError := store.client.HGetAll(lookupContext, store.recordKey(normalizedIdentifier)).Result()
	if readError != nil {
		return "", StoreUnavailableError{Backend: BackendRedis, Cause: readError}
	}
	if len(storedFields) == 0 {
		return "", ErrUserNotFound
	}

	rawRecord := make(map[string]any, len(storedFields))
	for fieldName, fieldValue := range storedFields {
		rawRecord[fieldName] = fieldValue
	}

	return tokenFromRecord(BackendRedis, store.tokenField, rawRecord)
}

// PutAccessToken stores or replaces the token for the user.
func (store *RedisStore) PutAccessToken(writeContext context.Context, userIdentifier string, accessToken string) error {
	normalizedIdentifier, identifierError := normalizeUserIdentifier(userIdentifier)
	if identifierError != nil {
		return identifierError
	}
	normalizedToken, tokenError := normalizeAccessToken(accessToken)
	if tokenError != nil {
		return tokenError
	}

	if writeError := store.client.HSet(writeContext, store.recordKey(normalizedIdentifier), store.tokenField, normalizedToken).Err(); writeError != nil {
		return StoreUnavailableError{Backend: BackendRedis, Cause: writeError}
	}
	return nil
}

// Close releases the Redis connection pool.
func (store *RedisStore) Close() error {
	if store == nil || store.client == nil {
		return nil
	}
	return store.client.Close()
}

func (store *RedisStore) recordKey(userIdentifier string) string {
	return store.keyPrefix + userIdentifier
}
