package tokenstore

import (
	"strings"

	pathutils "github.com/temirov/chronos/internal/utils/path"
)

const (
	defaultRedisKeyPrefixConstant  = defaultCollectionNameConstant + ":"
	defaultRedisAddressConstant    = "localhost:6379"
	defaultSQLitePathConstant      = "chronos.db"
	defaultTokenFilePathConstant   = "~/.chronos/tokens.yaml"
	defaultCredentialsFileConstant = "firebase_service_account.json"
)

var tokenStoreHomeDirectoryExpander = pathutils.NewHomeExpander()

// Configuration selects and parameterizes the token store backend.
type Configuration struct {
	Backend    string                 `mapstructure:"backend"`
	Collection string                 `mapstructure:"collection"`
	TokenField string                 `mapstructure:"token_field"`
	Firestore  FirestoreConfiguration `mapstructure:"firestore"`
	Redis      RedisConfiguration     `mapstructure:"redis"`
	SQLite     SQLiteConfiguration    `mapstructure:"sqlite"`
	File       FileConfiguration      `mapstructure:"file"`
}

// FirestoreConfiguration locates the Firestore project holding access tokens.
type FirestoreConfiguration struct {
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// RedisConfiguration describes the Redis server holding access token hashes.
type RedisConfiguration struct {
	URL       string `mapstructure:"url"`
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// SQLiteConfiguration points at the SQLite database file.
type SQLiteConfiguration struct {
	Path string `mapstructure:"path"`
}

// FileConfiguration points at a YAML token file.
type FileConfiguration struct {
	Path string `mapstructure:"path"`
}

// DefaultConfiguration supplies baseline values matching the original Firestore layout.
func DefaultConfiguration() Configuration {
	return Configuration{
		Backend:    string(BackendFirestore),
		Collection: defaultCollectionNameConstant,
		TokenField: defaultTokenFieldNameConstant,
		Firestore: FirestoreConfiguration{
			CredentialsFile: defaultCredentialsFileConstant,
		},
		Redis: RedisConfiguration{
			Address:   defaultRedisAddressConstant,
			KeyPrefix: defaultRedisKeyPrefixConstant,
		},
		SQLite: SQLiteConfiguration{Path: defaultSQLitePathConstant},
		File:   FileConfiguration{Path: defaultTokenFilePathConstant},
	}
}

// Sanitize trims values, expands home-relative paths, and fills blanks with defaults.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration

	sanitized.Backend = selectValue(configuration.Backend, defaults.Backend)
	sanitized.Collection = selectValue(configuration.Collection, defaults.Collection)
	sanitized.TokenField = selectValue(configuration.TokenField, defaults.TokenField)

	sanitized.Firestore.ProjectID = strings.TrimSpace(configuration.Firestore.ProjectID)
	sanitized.Firestore.CredentialsFile = tokenStoreHomeDirectoryExpander.Expand(configuration.Firestore.CredentialsFile)

	sanitized.Redis.URL = strings.TrimSpace(configuration.Redis.URL)
	sanitized.Redis.Address = selectValue(configuration.Redis.Address, defaults.Redis.Address)
	sanitized.Redis.KeyPrefix = selectValue(configuration.Redis.KeyPrefix, sanitized.Collection+":")
	if sanitized.Redis.DB < 0 {
		sanitized.Redis.DB = 0
	}

	sanitized.SQLite.Path = tokenStoreHomeDirectoryExpander.Expand(selectValue(configuration.SQLite.Path, defaults.SQLite.Path))
	sanitized.File.Path = tokenStoreHomeDirectoryExpander.Expand(selectValue(configuration.File.Path, defaults.File.Path))

	return sanitized
}

func selectValue(candidateValue string, fallbackValue string) string {
	trimmedValue := strings.TrimSpace(candidateValue)
	if len(trimmedValue) > 0 {
		return trimmedValue
	}
	return fallbackValue
}
