package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/temirov/chronos/internal/githubapi"
	"github.com/temirov/chronos/internal/mailer"
	"github.com/temirov/chronos/internal/pipeline"
)

const (
	// FetchFileContentsPath returns decoded file contents.
	FetchFileContentsPath = "/fetch_file_contents"
	// ProcessFilesPath fetches and rewrites file contents.
	ProcessFilesPath = "/api/process-files"
	// CreateBranchAndCommitPath creates a branch and commits a file.
	CreateBranchAndCommitPath = "/api/create-branch-and-commit"
	// ContactEmailPath forwards the contact form.
	ContactEmailPath = "/contact_us_email"
	// ProviderRequestEmailPath forwards the API provider request form.
	ProviderRequestEmailPath = "/provider_request_email"
	// QueryAgentPath relays input to the agent.
	QueryAgentPath = "/api/query-agent"

	wildcardOriginConstant     = "*"
	corsMaxAgeConstant         = 12 * time.Hour
	panicRecoveredMessage      = "http handler panicked"
	logFieldPanicValueConstant = "panic"
	internalErrorMessage       = "Internal server error"
)

// FileWorkflows runs the GitHub file operations.
type FileWorkflows interface {
	FetchFileContents(requestContext context.Context, request pipeline.FileRequest) ([]pipeline.FileContent, []githubapi.DroppedLocator, error)
	ProcessFiles(requestContext context.Context, request pipeline.FileRequest) (pipeline.ProcessResult, error)
	CreateBranchAndCommit(requestContext context.Context, request pipeline.BranchCommitRequest) (pipeline.BranchCommitResult, error)
}

// Notifier sends the form notification emails.
type Notifier interface {
	SendContact(sendContext context.Context, submission mailer.ContactSubmission) error
	SendProviderRequest(sendContext context.Context, submission mailer.ProviderRequestSubmission) error
}

// AgentRelay forwards free-form input to the agent.
type AgentRelay interface {
	Query(queryContext context.Context, input json.RawMessage) (json.RawMessage, error)
}

// CORSConfiguration lists the origins allowed to call the API.
type CORSConfiguration struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Dependencies groups the collaborators the router serves.
type Dependencies struct {
	Files  FileWorkflows
	Mailer Notifier
	Agent  AgentRelay
	CORS   CORSConfiguration
	Logger *zap.Logger
}

// NewRouter builds the gin engine with middleware and every route registered.
func NewRouter(dependencies Dependencies) *gin.Engine {
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	handlers := &handlerSet{
		files:  dependencies.Files,
		mailer: dependencies.Mailer,
		agent:  dependencies.Agent,
		logger: logger,
	}

	engine := gin.New()
	engine.Use(
		requestIdentifierMiddleware(),
		accessLogMiddleware(logger),
		gin.CustomRecovery(func(ginContext *gin.Context, recovered any) {
			requestLogger(ginContext, logger).Error(panicRecoveredMessage, zap.Any(logFieldPanicValueConstant, recovered))
			ginContext.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: internalErrorMessage})
		}),
		cors.New(corsConfiguration(dependencies.CORS)),
	)

	engine.POST(FetchFileContentsPath, handlers.fetchFileContents)
	engine.POST(ProcessFilesPath, handlers.processFiles)
	engine.POST(CreateBranchAndCommitPath, handlers.createBranchAndCommit)
	engine.POST(ContactEmailPath, handlers.contactEmail)
	engine.POST(ProviderRequestEmailPath, handlers.providerRequestEmail)
	engine.POST(QueryAgentPath, handlers.queryAgent)

	return engine
}

func corsConfiguration(configuration CORSConfiguration) cors.Config {
	corsSettings := cors.DefaultConfig()
	corsSettings.AllowHeaders = append(corsSettings.AllowHeaders, RequestIDHeader)
	corsSettings.ExposeHeaders = []string{RequestIDHeader}
	corsSettings.MaxAge = corsMaxAgeConstant

	allowedOrigins := make([]string, 0, len(configuration.AllowedOrigins))
	for _, origin := range configuration.AllowedOrigins {
		trimmedOrigin := strings.TrimSpace(origin)
		if len(trimmedOrigin) == 0 {
			continue
		}
		if trimmedOrigin == wildcardOriginConstant {
			corsSettings.AllowAllOrigins = true
			return corsSettings
		}
		allowedOrigins = append(allowedOrigins, trimmedOrigin)
	}
	if len(allowedOrigins) == 0 {
		corsSettings.AllowAllOrigins = true
		return corsSettings
	}
	corsSettings.AllowOrigins = allowedOrigins
	return corsSettings
}
