package pipeline

import "fmt"

const (
	// MissingDataMessage reports absent required request fields.
	MissingDataMessage = "Missing data"
	// UserNotFoundMessage reports an unknown user identifier.
	UserNotFoundMessage = "User not found"
	// TokenNotFoundMessage reports a user without a stored GitHub token.
	TokenNotFoundMessage = "GitHub token not found"
	// UserDataFailureMessage reports a token store fault.
	UserDataFailureMessage = "Failed to fetch user data"
	// BranchCommitFailureMessage reports a failed branch or commit operation.
	BranchCommitFailureMessage = "Failed to create branch and commit"

	errorWithCauseTemplateConstant = "%s: %v"
)

// ValidationError reports a request the caller must correct.
type ValidationError struct {
	Message string
}

// Error returns the validation message.
func (validationError ValidationError) Error() string {
	return validationError.Message
}

// NotFoundError reports a missing user or token.
type NotFoundError struct {
	Message string
	Cause   error
}

// Error returns the not-found message.
func (notFoundError NotFoundError) Error() string {
	return notFoundError.Message
}

// Unwrap exposes the store sentinel.
func (notFoundError NotFoundError) Unwrap() error {
	return notFoundError.Cause
}

// UpstreamError reports a failing collaborator.
type UpstreamError struct {
	Message string
	Cause   error
}

// Error describes the failure and its cause.
func (upstreamError UpstreamError) Error() string {
	if upstreamError.Cause == nil {
		return upstreamError.Message
	}
	return fmt.Sprintf(errorWithCauseTemplateConstant, upstreamError.Message, upstreamError.Cause)
}

// Unwrap exposes the underlying cause.
func (upstreamError UpstreamError) Unwrap() error {
	return upstreamError.Cause
}

// Details returns the cause text for diagnostics.
func (upstreamError UpstreamError) Details() string {
	if upstreamError.Cause == nil {
		return ""
	}
	return upstreamError.Cause.Error()
}
