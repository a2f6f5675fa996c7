package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/temirov/chronos/internal/agent"
	"github.com/temirov/chronos/internal/githubapi"
	"github.com/temirov/chronos/internal/mailer"
	"github.com/temirov/chronos/internal/pipeline"
)

const (
	invalidRequestBodyMessage       = "Invalid request body"
	filesProcessedMessage           = "Files processed successfully"
	branchCreatedMessage            = "Branch and file created successfully"
	emailSentMessage                = "Email sent successfully"
	emailFailedMessage              = "Failed to send email"
	agentFailedMessage              = "Failed to get response from the agent"
	requestDecodeFailedMessage      = "request body rejected"
	workflowFailedMessage           = "request workflow failed"
	requestDroppedMessageConstant   = "request completed with dropped locators"
	logFieldRouteConstant           = "route"
	logFieldDroppedLocatorsConstant = "dropped_urls"
)

type handlerSet struct {
	files  FileWorkflows
	mailer Notifier
	agent  AgentRelay
	logger *zap.Logger
}

func (handlers *handlerSet) fetchFileContents(ginContext *gin.Context) {
	var payload fileRequestPayload
	if !handlers.bindJSON(ginContext, &payload) {
		return
	}

	contents, dropped, fetchError := handlers.files.FetchFileContents(ginContext.Request.Context(), pipeline.FileRequest{
		FileLocators:   payload.FileURLs,
		UserIdentifier: payload.UserUID,
	})
	if fetchError != nil {
		handlers.respondWithWorkflowError(ginContext, fetchError)
		return
	}
	handlers.logDropped(ginContext, dropped)

	response := make([]fileContentPayload, 0, len(contents))
	for _, content := range contents {
		response = append(response, fileContentPayload{URL: content.URL, Content: content.Content})
	}
	ginContext.JSON(http.StatusOK, response)
}

func (handlers *handlerSet) processFiles(ginContext *gin.Context) {
	var payload fileRequestPayload
	if !handlers.bindJSON(ginContext, &payload) {
		return
	}

	result, processError := handlers.files.ProcessFiles(ginContext.Request.Context(), pipeline.FileRequest{
		FileLocators:   payload.FileURLs,
		UserIdentifier: payload.UserUID,
	})
	if processError != nil {
		handlers.respondWithWorkflowError(ginContext, processError)
		return
	}
	handlers.logDropped(ginContext, result.Dropped)

	files := make([]processedFilePayload, 0, len(result.Files))
	for _, file := range result.Files {
		files = append(files, processedFilePayload{URL: file.URL, Content: file.Content, Degraded: file.Degraded})
	}
	modifiedContents := result.ModifiedContents()
	ginContext.JSON(http.StatusOK, processFilesResponse{
		Message:          filesProcessedMessage,
		ModifiedContents: modifiedContents,
		FileContents:     modifiedContents,
		Files:            files,
		DroppedURLs:      droppedLocatorURLs(result.Dropped),
	})
}

func (handlers *handlerSet) createBranchAndCommit(ginContext *gin.Context) {
	var payload branchCommitPayload
	if !handlers.bindJSON(ginContext, &payload) {
		return
	}

	result, commitError := handlers.files.CreateBranchAndCommit(ginContext.Request.Context(), pipeline.BranchCommitRequest{
		UserIdentifier: payload.UserUID,
		BranchName:     payload.BranchName,
		FileContents:   payload.FileContents,
		FilePath:       payload.FilePath,
		Repository:     payload.Repository,
		BaseBranch:     payload.BaseBranch,
		CommitMessage:  payload.CommitMessage,
	})
	if commitError != nil {
		handlers.respondWithWorkflowError(ginContext, commitError)
		return
	}

	response := branchCommitResponse{Message: branchCreatedMessage}
	if result.Performed {
		response.Branch = result.Branch
		response.CommitSHA = result.CommitSHA
	}
	ginContext.JSON(http.StatusOK, response)
}

func (handlers *handlerSet) contactEmail(ginContext *gin.Context) {
	var payload contactPayload
	if !handlers.bindJSON(ginContext, &payload) {
		return
	}

	sendError := handlers.mailer.SendContact(ginContext.Request.Context(), mailer.ContactSubmission{
		FirstName:   payload.FirstName,
		Surname:     payload.Surname,
		CompanyName: payload.CompanyName,
		Email:       payload.Email,
		Website:     payload.Website,
		Message:     payload.Message,
		APIs:        payload.APIs.String(),
	})
	handlers.respondToEmail(ginContext, sendError)
}

func (handlers *handlerSet) providerRequestEmail(ginContext *gin.Context) {
	var payload providerRequestPayload
	if !handlers.bindJSON(ginContext, &payload) {
		return
	}

	sendError := handlers.mailer.SendProviderRequest(ginContext.Request.Context(), mailer.ProviderRequestSubmission{
		FullName:            payload.FullName,
		CompanyName:         payload.CompanyName,
		WorkEmail:           payload.WorkEmail,
		CompanyURL:          payload.CompanyURL,
		APIIntegration:      payload.APIIntegration,
		Requirements:        payload.Requirements,
		APIDocumentationURL: payload.APIDocumentationURL,
	})
	handlers.respondToEmail(ginContext, sendError)
}

func (handlers *handlerSet) queryAgent(ginContext *gin.Context) {
	var payload agentQueryPayload
	if !handlers.bindJSON(ginContext, &payload) {
		return
	}

	answer, queryError := handlers.agent.Query(ginContext.Request.Context(), payload.Input)
	if queryError != nil {
		_ = ginContext.Error(queryError)
		statusCode := http.StatusBadGateway
		var statusError agent.StatusError
		if errors.As(queryError, &statusError) {
			statusCode = statusError.StatusCode
		}
		ginContext.JSON(statusCode, errorResponse{Error: agentFailedMessage})
		return
	}
	ginContext.Data(http.StatusOK, gin.MIMEJSON, answer)
}

func (handlers *handlerSet) bindJSON(ginContext *gin.Context, target any) bool {
	if bindError := ginContext.ShouldBindJSON(target); bindError != nil {
		requestLogger(ginContext, handlers.logger).Info(
			requestDecodeFailedMessage,
			zap.String(logFieldRouteConstant, ginContext.FullPath()),
			zap.Error(bindError),
		)
		ginContext.JSON(http.StatusBadRequest, errorResponse{Error: invalidRequestBodyMessage})
		return false
	}
	return true
}

func (handlers *handlerSet) respondToEmail(ginContext *gin.Context, sendError error) {
	if sendError != nil {
		_ = ginContext.Error(sendError)
		ginContext.JSON(http.StatusInternalServerError, messageResponse{Message: emailFailedMessage, Error: sendError.Error()})
		return
	}
	ginContext.JSON(http.StatusOK, messageResponse{Message: emailSentMessage})
}

func (handlers *handlerSet) respondWithWorkflowError(ginContext *gin.Context, workflowError error) {
	var validationError pipeline.ValidationError
	var notFoundError pipeline.NotFoundError
	var upstreamError pipeline.UpstreamError

	switch {
	case errors.As(workflowError, &validationError):
		ginContext.JSON(http.StatusBadRequest, errorResponse{Error: validationError.Message})
	case errors.As(workflowError, &notFoundError):
		ginContext.JSON(http.StatusNotFound, errorResponse{Error: notFoundError.Message})
	case errors.As(workflowError, &upstreamError):
		_ = ginContext.Error(workflowError)
		requestLogger(ginContext, handlers.logger).Error(
			workflowFailedMessage,
			zap.String(logFieldRouteConstant, ginContext.FullPath()),
			zap.Error(workflowError),
		)
		ginContext.JSON(http.StatusInternalServerError, errorResponse{Error: upstreamError.Message, Details: upstreamError.Details()})
	default:
		_ = ginContext.Error(workflowError)
		requestLogger(ginContext, handlers.logger).Error(
			workflowFailedMessage,
			zap.String(logFieldRouteConstant, ginContext.FullPath()),
			zap.Error(workflowError),
		)
		ginContext.JSON(http.StatusInternalServerError, errorResponse{Error: internalErrorMessage, Details: workflowError.Error()})
	}
}

func (handlers *handlerSet) logDropped(ginContext *gin.Context, dropped []githubapi.DroppedLocator) {
	if len(dropped) == 0 {
		return
	}
	requestLogger(ginContext, handlers.logger).Info(
		requestDroppedMessageConstant,
		zap.String(logFieldRouteConstant, ginContext.FullPath()),
		zap.Strings(logFieldDroppedLocatorsConstant, droppedLocatorURLs(dropped)),
	)
}

func droppedLocatorURLs(dropped []githubapi.DroppedLocator) []string {
	if len(dropped) == 0 {
		return nil
	}
	locators := make([]string, 0, len(dropped))
	for _, droppedLocator := range dropped {
		locators = append(locators, droppedLocator.Locator)
	}
	return locators
}
