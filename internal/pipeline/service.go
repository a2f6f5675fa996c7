package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/chronos/internal/githubapi"
	"github.com/temirov/chronos/internal/tokenstore"
	"github.com/temirov/chronos/internal/transform"
)

const (
	defaultTransformConcurrencyConstant = 4
	filesFetchedMessageConstant         = "file contents fetched"
	filesProcessedMessageConstant       = "files processed"
	branchCommitSkippedMessageConstant  = "branch commit skipped without repository"
	logFieldUserIdentifierConstant      = "user_uid"
	logFieldRequestedCountConstant      = "requested"
	logFieldFetchedCountConstant        = "fetched"
	logFieldDroppedCountConstant        = "dropped"
	logFieldDegradedCountConstant       = "degraded"
	logFieldBranchConstant              = "branch"
	logFieldFilePathConstant            = "file_path"
)

// TokenSource resolves a user's GitHub token.
type TokenSource interface {
	AccessToken(lookupContext context.Context, userIdentifier string) (string, error)
}

// ContentFetcher reads file contents for a set of locators.
type ContentFetcher interface {
	FetchAll(fetchContext context.Context, accessToken string, locators []string) githubapi.FetchOutcome
}

// Transformer rewrites one text.
type Transformer interface {
	Transform(transformContext context.Context, text string) transform.TransformResult
}

// BranchCommitter creates a branch and commits a file to it.
type BranchCommitter interface {
	CreateBranchAndCommit(commitContext context.Context, accessToken string, request githubapi.CommitRequest) (githubapi.CommitResult, error)
}

// Dependencies groups the collaborators of Service. They are constructed once at start-up.
// ProcessingBudget bounds one ProcessFiles call; files still pending when it elapses
// are dropped or degraded so the response is written in time. Zero means unbounded.
type Dependencies struct {
	Tokens               TokenSource
	Fetcher              ContentFetcher
	Transformer          Transformer
	Committer            BranchCommitter
	TransformConcurrency int
	ProcessingBudget     time.Duration
	Logger               *zap.Logger
}

// FileRequest names the files to read on behalf of a user.
type FileRequest struct {
	FileLocators   []string
	UserIdentifier string
}

// FileContent pairs a locator with its fetched text.
type FileContent struct {
	URL     string
	Content string
}

// ProcessedFile pairs a locator with its rewritten text.
type ProcessedFile struct {
	URL      string
	Content  string
	Degraded bool
}

// ProcessResult holds the rewritten files in request order and the locators that were dropped.
type ProcessResult struct {
	Files   []ProcessedFile
	Dropped []githubapi.DroppedLocator
}

// ModifiedContents lists the rewritten texts in order.
func (result ProcessResult) ModifiedContents() []string {
	contents := make([]string, 0, len(result.Files))
	for _, file := range result.Files {
		contents = append(contents, file.Content)
	}
	return contents
}

// BranchCommitRequest describes a branch to create and a file to commit.
// An empty Repository requests no GitHub work.
type BranchCommitRequest struct {
	UserIdentifier string
	BranchName     string
	FileContents   string
	FilePath       string
	Repository     string
	BaseBranch     string
	CommitMessage  string
}

// BranchCommitResult reports whether GitHub was updated and with which commit.
type BranchCommitResult struct {
	Performed bool
	Branch    string
	CommitSHA string
}

// Service implements the file workflows.
type Service struct {
	tokens               TokenSource
	fetcher              ContentFetcher
	transformer          Transformer
	committer            BranchCommitter
	transformConcurrency int
	processingBudget     time.Duration
	logger               *zap.Logger
}

// NewService wires the collaborators.
func NewService(dependencies Dependencies) *Service {
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	transformConcurrency := dependencies.TransformConcurrency
	if transformConcurrency <= 0 {
		transformConcurrency = defaultTransformConcurrencyConstant
	}
	return &Service{
		tokens:               dependencies.Tokens,
		fetcher:              dependencies.Fetcher,
		transformer:          dependencies.Transformer,
		committer:            dependencies.Committer,
		transformConcurrency: transformConcurrency,
		processingBudget:     dependencies.ProcessingBudget,
		logger:               logger,
	}
}

// FetchFileContents returns the decoded contents of the requested files.
func (service *Service) FetchFileContents(requestContext context.Context, request FileRequest) ([]FileContent, []githubapi.DroppedLocator, error) {
	outcome, fetchError := service.fetch(requestContext, request)
	if fetchError != nil {
		return nil, nil, fetchError
	}

	contents := make([]FileContent, 0, len(outcome.Contents))
	for _, fetched := range outcome.Contents {
		contents = append(contents, FileContent{URL: fetched.Locator, Content: fetched.Text})
	}

	service.logger.Info(
		filesFetchedMessageConstant,
		zap.String(logFieldUserIdentifierConstant, request.UserIdentifier),
		zap.Int(logFieldRequestedCountConstant, len(request.FileLocators)),
		zap.Int(logFieldFetchedCountConstant, len(contents)),
		zap.Int(logFieldDroppedCountConstant, len(outcome.Dropped)),
	)
	return contents, outcome.Dropped, nil
}

// ProcessFiles fetches the requested files and rewrites each one independently.
func (service *Service) ProcessFiles(requestContext context.Context, request FileRequest) (ProcessResult, error) {
	if service.processingBudget > 0 {
		var cancel context.CancelFunc
		requestContext, cancel = context.WithTimeout(requestContext, service.processingBudget)
		defer cancel()
	}

	outcome, fetchError := service.fetch(requestContext, request)
	if fetchError != nil {
		return ProcessResult{}, fetchError
	}

	processedFiles := make([]ProcessedFile, len(outcome.Contents))
	var workerGroup errgroup.Group
	workerGroup.SetLimit(service.transformConcurrency)
	for contentIndex, fetched := range outcome.Contents {
		workerGroup.Go(func() error {
			transformResult := service.transformer.Transform(requestContext, fetched.Text)
			processedFiles[contentIndex] = ProcessedFile{
				URL:      fetched.Locator,
				Content:  transformResult.Text,
				Degraded: transformResult.Degraded,
			}
			return nil
		})
	}
	_ = workerGroup.Wait()

	degradedCount := 0
	for _, processedFile := range processedFiles {
		if processedFile.Degraded {
			degradedCount++
		}
	}

	service.logger.Info(
		filesProcessedMessageConstant,
		zap.String(logFieldUserIdentifierConstant, request.UserIdentifier),
		zap.Int(logFieldRequestedCountConstant, len(request.FileLocators)),
		zap.Int(logFieldFetchedCountConstant, len(processedFiles)),
		zap.Int(logFieldDroppedCountConstant, len(outcome.Dropped)),
		zap.Int(logFieldDegradedCountConstant, degradedCount),
	)
	return ProcessResult{Files: processedFiles, Dropped: outcome.Dropped}, nil
}

// CreateBranchAndCommit commits FileContents to a new branch when a repository is named
// and succeeds without side effects otherwise.
func (service *Service) CreateBranchAndCommit(requestContext context.Context, request BranchCommitRequest) (BranchCommitResult, error) {
	if len(strings.TrimSpace(request.Repository)) == 0 {
		service.logger.Debug(
			branchCommitSkippedMessageConstant,
			zap.String(logFieldBranchConstant, request.BranchName),
			zap.String(logFieldFilePathConstant, request.FilePath),
		)
		return BranchCommitResult{}, nil
	}

	if isBlank(request.UserIdentifier) || isBlank(request.BranchName) || isBlank(request.FilePath) {
		return BranchCommitResult{}, ValidationError{Message: MissingDataMessage}
	}

	accessToken, tokenError := service.resolveToken(requestContext, request.UserIdentifier)
	if tokenError != nil {
		return BranchCommitResult{}, tokenError
	}

	commitResult, commitError := service.committer.CreateBranchAndCommit(requestContext, accessToken, githubapi.CommitRequest{
		Repository:    request.Repository,
		BaseBranch:    request.BaseBranch,
		BranchName:    request.BranchName,
		FilePath:      request.FilePath,
		FileContents:  request.FileContents,
		CommitMessage: request.CommitMessage,
	})
	if commitError != nil {
		var inputError githubapi.InvalidInputError
		if errors.As(commitError, &inputError) {
			return BranchCommitResult{}, ValidationError{Message: inputError.Error()}
		}
		return BranchCommitResult{}, UpstreamError{Message: BranchCommitFailureMessage, Cause: commitError}
	}

	return BranchCommitResult{Performed: true, Branch: commitResult.Branch, CommitSHA: commitResult.CommitSHA}, nil
}

func (service *Service) fetch(requestContext context.Context, request FileRequest) (githubapi.FetchOutcome, error) {
	if len(request.FileLocators) == 0 || isBlank(request.UserIdentifier) {
		return githubapi.FetchOutcome{}, ValidationError{Message: MissingDataMessage}
	}

	accessToken, tokenError := service.resolveToken(requestContext, request.UserIdentifier)
	if tokenError != nil {
		return githubapi.FetchOutcome{}, tokenError
	}

	return service.fetcher.FetchAll(requestContext, accessToken, request.FileLocators), nil
}

func (service *Service) resolveToken(requestContext context.Context, userIdentifier string) (string, error) {
	accessToken, lookupError := service.tokens.AccessToken(requestContext, userIdentifier)
	switch {
	case lookupError == nil:
		return accessToken, nil
	case errors.Is(lookupError, tokenstore.ErrUserNotFound):
		return "", NotFoundError{Message: UserNotFoundMessage, Cause: lookupError}
	case errors.Is(lookupError, tokenstore.ErrTokenMissing):
		return "", NotFoundError{Message: TokenNotFoundMessage, Cause: lookupError}
	case errors.Is(lookupError, tokenstore.ErrUserIdentifierMissing):
		return "", ValidationError{Message: MissingDataMessage}
	default:
		return "", UpstreamError{Message: UserDataFailureMessage, Cause: lookupError}
	}
}

func isBlank(value string) bool {
	return len(strings.TrimSpace(value)) == 0
}
