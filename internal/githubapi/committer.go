package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v66/github"
	"go.uber.org/zap"
)

const (
	repositoryFieldNameConstant     = "repository"
	branchFieldNameConstant         = "branch"
	filePathFieldNameConstant       = "filePath"
	headsReferencePrefixConstant    = "heads/"
	fullReferencePrefixConstant     = "refs/heads/"
	repositorySeparatorConstant     = "/"
	branchCommittedMessageConstant  = "branch committed"
	logFieldRepositoryConstant      = "repository"
	logFieldBranchConstant          = "branch"
	logFieldBaseBranchConstant      = "base_branch"
	logFieldFilePathConstant        = "file_path"
	logFieldCommitShaConstant       = "commit_sha"
	logFieldUpdatedExistingConstant = "updated_existing"
)

// CommitRequest describes a branch to create and the single file to commit on it.
type CommitRequest struct {
	Repository    string
	BaseBranch    string
	BranchName    string
	FilePath      string
	FileContents  string
	CommitMessage string
}

// CommitResult reports the created branch and commit.
type CommitResult struct {
	Branch          string
	CommitSHA       string
	UpdatedExisting bool
}

// BranchCommitter creates branches and commits files through the REST API.
type BranchCommitter struct {
	clientFactory *ClientFactory
	logger        *zap.Logger
}

// NewBranchCommitter builds a committer over the shared client factory.
func NewBranchCommitter(clientFactory *ClientFactory, logger *zap.Logger) *BranchCommitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BranchCommitter{clientFactory: clientFactory, logger: logger}
}

// CreateBranchAndCommit branches from the base head (the repository default when blank)
// and creates or updates FilePath on the new branch.
func (committer *BranchCommitter) CreateBranchAndCommit(commitContext context.Context, accessToken string, request CommitRequest) (CommitResult, error) {
	owner, repositoryName, repositoryError := splitRepository(request.Repository)
	if repositoryError != nil {
		return CommitResult{}, repositoryError
	}
	branchName := strings.TrimSpace(request.BranchName)
	if len(branchName) == 0 {
		return CommitResult{}, InvalidInputError{FieldName: branchFieldNameConstant, Message: requiredValueMessageConstant}
	}
	filePath := strings.Trim(strings.TrimSpace(request.FilePath), repositorySeparatorConstant)
	if len(filePath) == 0 {
		return CommitResult{}, InvalidInputError{FieldName: filePathFieldNameConstant, Message: requiredValueMessageConstant}
	}

	client := committer.clientFactory.ForToken(accessToken)

	baseBranch := strings.TrimSpace(request.BaseBranch)
	if len(baseBranch) == 0 {
		repository, _, getError := client.Repositories.Get(commitContext, owner, repositoryName)
		if getError != nil {
			return CommitResult{}, OperationError{Operation: resolveDefaultBranchOperationName, Cause: getError}
		}
		baseBranch = repository.GetDefaultBranch()
	}

	baseReference, _, referenceError := client.Git.GetRef(commitContext, owner, repositoryName, headsReferencePrefixConstant+baseBranch)
	if referenceError != nil {
		return CommitResult{}, OperationError{Operation: resolveBaseReferenceOperationName, Cause: referenceError}
	}

	newReference := &github.Reference{
		Ref:    github.String(fullReferencePrefixConstant + branchName),
		Object: &github.GitObject{SHA: github.String(baseReference.GetObject().GetSHA())},
	}
	if _, _, createError := client.Git.CreateRef(commitContext, owner, repositoryName, newReference); createError != nil {
		return CommitResult{}, OperationError{Operation: createBranchOperationName, Cause: createError}
	}

	existingSHA, lookupError := lookupFileSHA(commitContext, client, owner, repositoryName, filePath, branchName)
	if lookupError != nil {
		return CommitResult{}, lookupError
	}

	commitMessage := strings.TrimSpace(request.CommitMessage)
	if len(commitMessage) == 0 {
		commitMessage = fmt.Sprintf(committer.clientFactory.Configuration().CommitMessageTemplate, filePath)
	}
	fileOptions := &github.RepositoryContentFileOptions{
		Message: github.String(commitMessage),
		Content: []byte(request.FileContents),
		Branch:  github.String(branchName),
	}

	var contentResponse *github.RepositoryContentResponse
	var commitError error
	if len(existingSHA) > 0 {
		fileOptions.SHA = github.String(existingSHA)
		contentResponse, _, commitError = client.Repositories.UpdateFile(commitContext, owner, repositoryName, filePath, fileOptions)
	} else {
		contentResponse, _, commitError = client.Repositories.CreateFile(commitContext, owner, repositoryName, filePath, fileOptions)
	}
	if commitError != nil {
		return CommitResult{}, OperationError{Operation: commitFileOperationName, Cause: commitError}
	}

	result := CommitResult{Branch: branchName, UpdatedExisting: len(existingSHA) > 0}
	if contentResponse != nil {
		result.CommitSHA = contentResponse.Commit.GetSHA()
	}

	committer.logger.Info(
		branchCommittedMessageConstant,
		zap.String(logFieldRepositoryConstant, owner+repositorySeparatorConstant+repositoryName),
		zap.String(logFieldBaseBranchConstant, baseBranch),
		zap.String(logFieldBranchConstant, branchName),
		zap.String(logFieldFilePathConstant, filePath),
		zap.String(logFieldCommitShaConstant, result.CommitSHA),
		zap.Bool(logFieldUpdatedExistingConstant, result.UpdatedExisting),
	)
	return result, nil
}

func lookupFileSHA(lookupContext context.Context, client *github.Client, owner string, repositoryName string, filePath string, branchName string) (string, error) {
	fileContent, _, response, getError := client.Repositories.GetContents(
		lookupContext,
		owner,
		repositoryName,
		filePath,
		&github.RepositoryContentGetOptions{Ref: branchName},
	)
	if getError != nil {
		var errorResponse *github.ErrorResponse
		if response != nil && response.StatusCode == http.StatusNotFound {
			return "", nil
		}
		if errors.As(getError, &errorResponse) && errorResponse.Response != nil && errorResponse.Response.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", OperationError{Operation: lookupFileOperationName, Cause: getError}
	}
	if fileContent == nil {
		return "", nil
	}
	return fileContent.GetSHA(), nil
}

func splitRepository(repository string) (string, string, error) {
	parts := strings.Split(strings.TrimSpace(repository), repositorySeparatorConstant)
	if len(parts) != 2 || len(strings.TrimSpace(parts[0])) == 0 || len(strings.TrimSpace(parts[1])) == 0 {
		return "", "", InvalidInputError{FieldName: repositoryFieldNameConstant, Message: invalidRepositoryMessageConstant}
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}
