package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/temirov/chronos/internal/agent"
	"github.com/temirov/chronos/internal/githubapi"
	"github.com/temirov/chronos/internal/httpapi"
	"github.com/temirov/chronos/internal/mailer"
	"github.com/temirov/chronos/internal/pipeline"
	"github.com/temirov/chronos/internal/tokenstore"
	"github.com/temirov/chronos/internal/transform"
)

const (
	tokenStoreOpenErrorTemplateConstant   = "open token store: %w"
	githubClientErrorTemplateConstant     = "configure github client: %w"
	generatorErrorTemplateConstant        = "configure transformer: %w"
	mailTransportErrorTemplateConstant    = "configure mail transport: %w"
	agentClientErrorTemplateConstant      = "configure agent relay: %w"
	componentsAssembledMessageConstant    = "service components assembled"
	processingBudgetTightMessageConstant  = "write timeout leaves no room for a full round of fetch and transform"
	logFieldTransformerProviderConstant   = "transformer_provider"
	logFieldTransformerModelConstant      = "transformer_model"
	logFieldGitHubBaseURLConstant         = "github_base_url"
	logFieldMailRecipientCountConstant    = "mail_recipients"
	logFieldAgentURLConstant              = "agent_url"
	logFieldMaxConcurrentRequestsConstant = "max_concurrent_requests"
	logFieldProcessingBudgetConstant      = "processing_budget"
	logFieldProcessFilesCapacityConstant  = "process_files_capacity"
)

// Components holds the long-lived collaborators built at start-up.
type Components struct {
	Handler    http.Handler
	TokenStore tokenstore.Store
}

// Close releases the token store connection.
func (components *Components) Close() error {
	if components == nil || components.TokenStore == nil {
		return nil
	}
	return components.TokenStore.Close()
}

// Assemble constructs every collaborator once and returns the routed handler.
func Assemble(assemblyContext context.Context, configuration ServiceConfiguration, httpClient *http.Client, logger *zap.Logger) (*Components, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}

	store, storeError := tokenstore.Open(assemblyContext, configuration.TokenStore, logger)
	if storeError != nil {
		return nil, fmt.Errorf(tokenStoreOpenErrorTemplateConstant, storeError)
	}

	components, buildError := buildComponents(assemblyContext, configuration, store, httpClient, logger)
	if buildError != nil {
		return nil, errors.Join(buildError, store.Close())
	}
	return components, nil
}

func buildComponents(assemblyContext context.Context, configuration ServiceConfiguration, store tokenstore.Store, httpClient *http.Client, logger *zap.Logger) (*Components, error) {
	clientFactory, factoryError := githubapi.NewClientFactory(httpClient, configuration.GitHub)
	if factoryError != nil {
		return nil, fmt.Errorf(githubClientErrorTemplateConstant, factoryError)
	}

	transformerConfiguration := configuration.Transformer.Sanitize()
	generator, generatorError := transform.NewGenerator(assemblyContext, transformerConfiguration, httpClient)
	if generatorError != nil {
		return nil, fmt.Errorf(generatorErrorTemplateConstant, generatorError)
	}

	mailConfiguration := configuration.Mail.Sanitize()
	mailTransport, transportError := mailer.NewSMTPTransport(mailConfiguration)
	if transportError != nil {
		return nil, fmt.Errorf(mailTransportErrorTemplateConstant, transportError)
	}

	agentClient, agentError := agent.NewClient(httpClient, configuration.Agent, logger)
	if agentError != nil {
		return nil, fmt.Errorf(agentClientErrorTemplateConstant, agentError)
	}

	githubConfiguration := clientFactory.Configuration()
	processingBudget := ProcessingBudget(configuration)
	processFilesCapacity := ProcessFilesCapacity(configuration)
	if processFilesCapacity == 0 {
		logger.Warn(
			processingBudgetTightMessageConstant,
			zap.Duration(logFieldProcessingBudgetConstant, processingBudget),
		)
	}
	service := pipeline.NewService(pipeline.Dependencies{
		Tokens:               store,
		Fetcher:              githubapi.NewContentFetcher(clientFactory, logger),
		Transformer:          transform.NewContentTransformer(generator, transformerConfiguration.RequestTimeout, logger),
		Committer:            githubapi.NewBranchCommitter(clientFactory, logger),
		TransformConcurrency: githubConfiguration.MaxConcurrentRequests,
		ProcessingBudget:     processingBudget,
		Logger:               logger,
	})

	router := httpapi.NewRouter(httpapi.Dependencies{
		Files:  service,
		Mailer: mailer.NewMailer(mailTransport, mailConfiguration, logger),
		Agent:  agentClient,
		CORS:   configuration.Server.CORS,
		Logger: logger,
	})

	logger.Info(
		componentsAssembledMessageConstant,
		zap.String(logFieldTransformerProviderConstant, transformerConfiguration.Provider),
		zap.String(logFieldTransformerModelConstant, transformerConfiguration.Model),
		zap.String(logFieldGitHubBaseURLConstant, githubConfiguration.BaseURL),
		zap.Int(logFieldMaxConcurrentRequestsConstant, githubConfiguration.MaxConcurrentRequests),
		zap.Duration(logFieldProcessingBudgetConstant, processingBudget),
		zap.Int(logFieldProcessFilesCapacityConstant, processFilesCapacity),
		zap.Int(logFieldMailRecipientCountConstant, len(mailConfiguration.Recipients)),
		zap.String(logFieldAgentURLConstant, configuration.Agent.Sanitize().URL),
	)

	return &Components{Handler: router, TokenStore: store}, nil
}
