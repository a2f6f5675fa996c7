package tokenstore

import "context"

// ClearAccessTokenForTest nulls the token column for a user.
func ClearAccessTokenForTest(clearContext context.Context, store *SQLiteStore, userIdentifier string) error {
	_, execError := store.database.ExecContext(clearContext, "UPDATE access_tokens SET github_access_token = NULL WHERE user_uid = ?", userIdentifier)
	return execError
}
