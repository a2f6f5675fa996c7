package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	_ "modernc.org/sqlite"
)

const (
	sqliteDriverNameConstant          = "sqlite"
	sqliteOpenErrorTemplateConstant   = "unable to open sqlite database %s: %w"
	sqliteSchemaErrorTemplateConstant = "unable to prepare sqlite schema: %w"
	sqliteTableNameInvalidTemplate    = "invalid sqlite table name %q"
	sqliteSchemaTemplateConstant      = "CREATE TABLE IF NOT EXISTS %s (user_uid TEXT PRIMARY KEY, github_access_token TEXT)"
	sqliteSelectTemplateConstant      = "SELECT github_access_token FROM %s WHERE user_uid = ?"
	sqliteUpsertTemplateConstant      = "INSERT INTO %s (user_uid, github_access_token) VALUES (?, ?) ON CONFLICT(user_uid) DO UPDATE SET github_access_token = excluded.github_access_token"
)

var sqliteTableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteStore reads tokens from a single table keyed by user identifier.
type SQLiteStore struct {
	database        *sql.DB
	selectStatement string
	upsertStatement string
}

// NewSQLiteStore opens the database file and creates the token table when absent.
func NewSQLiteStore(openContext context.Context, table string, configuration SQLiteConfiguration) (*SQLiteStore, error) {
	tableName := selectValue(table, defaultCollectionNameConstant)
	if !sqliteTableNamePattern.MatchString(tableName) {
		return nil, fmt.Errorf(sqliteTableNameInvalidTemplate, tableName)
	}

	databasePath := selectValue(configuration.Path, defaultSQLitePathConstant)
	database, openError := sql.Open(sqliteDriverNameConstant, databasePath)
	if openError != nil {
		return nil, fmt.Errorf(sqliteOpenErrorTemplateConstant, databasePath, openError)
	}

	if _, schemaError := database.ExecContext(openContext, fmt.Sprintf(sqliteSchemaTemplateConstant, tableName)); schemaError != nil {
		_ = database.Close()
		return nil, fmt.Errorf(sqliteSchemaErrorTemplateConstant, schemaError)
	}

	return &SQLiteStore{
		database:        database,
		selectStatement: fmt.Sprintf(sqliteSelectTemplateConstant, tableName),
		upsertStatement: fmt.Sprintf(sqliteUpsertTemplateConstant, tableName),
	}, nil
}

// AccessToken resolves the token stored for the user.
func (store *SQLiteStore) AccessToken(lookupContext context.Context, userIdentifier string) (string, error) {
	normalizedIdentifier, identifierError := normalizeUserIdentifier(userIdentifier)
	if identifierError != nil {
		return "", identifierError
	}

	var storedToken sql.NullString
	queryError := store.database.QueryRowContext(lookupContext, store.selectStatement, normalizedIdentifier).Scan(&storedToken)
	switch {
	case errors.Is(queryError, sql.ErrNoRows):
		return "", ErrUserNotFound
	case queryError != nil:
		return "", StoreUnavailableError{Backend: BackendSQLite, Cause: queryError}
	}

	accessToken := strings.TrimSpace(storedToken.String)
	if !storedToken.Valid || len(accessToken) == 0 {
		return "", ErrTokenMissing
	}
	return accessToken, nil
}

// PutAccessToken stores or replaces the token for the user.
func (store *SQLiteStore) PutAccessToken(writeContext context.Context, userIdentifier string, accessToken string) error {
	normalizedIdentifier, identifierError := normalizeUserIdentifier(userIdentifier)
	if identifierError != nil {
		return identifierError
	}
	normalizedToken, tokenError := normalizeAccessToken(accessToken)
	if tokenError != nil {
		return tokenError
	}

	if _, execError := store.database.ExecContext(writeContext, store.upsertStatement, normalizedIdentifier, normalizedToken); execError != nil {
		return StoreUnavailableError{Backend: BackendSQLite, Cause: execError}
	}
	return nil
}

// Close releases the database handle.
func (store *SQLiteStore) Close() error {
	if store == nil || store.database == nil {
		return nil
	}
	return store.database.Close()
}
