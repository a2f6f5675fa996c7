package tokenstore

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	tokenFileReadErrorTemplateConstant  = "unable to read token file %s: %w"
	tokenFileParseErrorTemplateConstant = "unable to parse token file %s: %w"
)

// FileStore serves tokens from a YAML document loaded once at construction:
//
//	user-uid:
//	  githubAccessToken: ghp_example
type FileStore struct {
	records    map[string]map[string]any
	tokenField string
}

// NewFileStore reads and parses the token file. A blank tokenField reads githubAccessToken.
func NewFileStore(configuration FileConfiguration, tokenField string) (*FileStore, error) {
	filePath := selectValue(configuration.Path, defaultTokenFilePathConstant)
	contents, readError := os.ReadFile(filePath)
	if readError != nil {
		return nil, fmt.Errorf(tokenFileReadErrorTemplateConstant, filePath, readError)
	}

	records := map[string]map[string]any{}
	if parseError := yaml.Unmarshal(contents, &records); parseError != nil {
		return nil, fmt.Errorf(tokenFileParseErrorTemplateConstant, filePath, parseError)
	}

	return &FileStore{records: records, tokenField: selectValue(tokenField, defaultTokenFieldNameConstant)}, nil
}

// AccessToken resolves the token stored for the user.
func (store *FileStore) AccessToken(lookupContext context.Context, userIdentifier string) (string, error) {
	normalizedIdentifier, identifierError := normalizeUserIdentifier(userIdentifier)
	if identifierError != nil {
		return "", identifierError
	}
	if contextError := lookupContext.Err(); contextError != nil {
		return "", StoreUnavailableError{Backend: BackendFile, Cause: contextError}
	}

	rawRecord, exists := store.records[normalizedIdentifier]
	if !exists {
		return "", ErrUserNotFound
	}
	return tokenFromRecord(BackendFile, store.tokenField, rawRecord)
}

// Close is a no-op; the file is not held open.
func (store *FileStore) Close() error {
	return nil
}
