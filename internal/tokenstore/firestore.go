package tokenstore

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	firestoreClientErrorTemplateConstant = "unable to create firestore client: %w"
	documentPathSeparatorConstant        = "/"
)

// FirestoreStore reads tokens from <collection>/<userUid>.<tokenField> documents.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	tokenField string
}

// NewFirestoreStore connects to Firestore using the configured service-account file.
// An empty project identifier lets the client detect it from the credentials.
// When FIRESTORE_EMULATOR_HOST is set the client targets the emulator instead.
func NewFirestoreStore(connectContext context.Context, collection string, tokenField string, configuration FirestoreConfiguration) (*FirestoreStore, error) {
	projectIdentifier := strings.TrimSpace(configuration.ProjectID)
	if len(projectIdentifier) == 0 {
		projectIdentifier = firestore.DetectProjectID
	}

	clientOptions := []option.ClientOption{}
	if credentialsFile := strings.TrimSpace(configuration.CredentialsFile); len(credentialsFile) > 0 {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credentialsFile))
	}

	client, clientError := firestore.NewClient(connectContext, projectIdentifier, clientOptions...)
	if clientError != nil {
		return nil, fmt.Errorf(firestoreClientErrorTemplateConstant, clientError)
	}

	return newFirestoreStoreWithClient(client, collection, tokenField), nil
}

func newFirestoreStoreWithClient(client *firestore.Client, collection string, tokenField string) *FirestoreStore {
	return &FirestoreStore{
		client:     client,
		collection: selectValue(collection, defaultCollectionNameConstant),
		tokenField: selectValue(tokenField, defaultTokenFieldNameConstant),
	}
}

// AccessToken resolves the token stored for the user.
func (store *FirestoreStore) AccessToken(lookupContext context.Context, userIdentifier string) (string, error) {
	normalizedIdentifier, identifierError := normalizeUserIdentifier(userIdentifier)
	if identifierError != nil {
		return "", identifierError
	}
	if strings.Contains(normalizedIdentifier, documentPathSeparatorConstant) {
		return "", ErrUserNotFound
	}

	snapshot, getError := store.client.Collection(store.collection).Doc(normalizedIdentifier).Get(lookupContext)
	if getError != nil {
		if status.Code(getError) == codes.NotFound {
			return "", ErrUserNotFound
		}
		return "", StoreUnavailableError{Backend: BackendFirestore, Cause: getError}
	}
	if snapshot == nil || !snapshot.Exists() {
		return "", ErrUserNotFound
	}

	return tokenFromRecord(BackendFirestore, store.tokenField, snapshot.Data())
}

// Close releases the Firestore connection.
func (store *FirestoreStore) Close() error {
	if store == nil || store.client == nil {
		return nil
	}
	return store.client.Close()
}
