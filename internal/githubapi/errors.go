package githubapi

import (
	"errors"
	"fmt"
)

const (
	operationErrorMessageTemplateConstant   = "%s operation failed"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	requiredValueMessageConstant            = "value required"
	invalidRepositoryMessageConstant        = "expected owner/name"
	httpClientMissingMessageConstant        = "http client not configured"
	baseURLInvalidTemplateConstant          = "invalid github base url %q: %w"
	tooManyRedirectsMessageConstant         = "stopped after too many redirects"
	crossOriginRedirectTemplateConstant     = "refusing redirect to %s outside the github api origin"
)

// OperationName describes a named GitHub API workflow.
type OperationName string

const (
	resolveDefaultBranchOperationName OperationName = "ResolveDefaultBranch"
	resolveBaseReferenceOperationName OperationName = "ResolveBaseReference"
	createBranchOperationName         OperationName = "CreateBranch"
	lookupFileOperationName           OperationName = "LookupFile"
	commitFileOperationName           OperationName = "CommitFile"
)

var (
	// ErrHTTPClientNotConfigured indicates the factory was constructed without a transport.
	ErrHTTPClientNotConfigured = errors.New(httpClientMissingMessageConstant)
	// ErrTooManyRedirects stops redirect chains.
	ErrTooManyRedirects = errors.New(tooManyRedirectsMessageConstant)
)

// CrossOriginRedirectError reports a redirect to a host other than the configured API origin.
type CrossOriginRedirectError struct {
	Host string
}

// Error names the refused host.
func (redirectError CrossOriginRedirectError) Error() string {
	return fmt.Sprintf(crossOriginRedirectTemplateConstant, redirectError.Host)
}

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps failures of GitHub API operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}
