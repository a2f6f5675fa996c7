package githubapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/google/go-github/v66/github"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	locatorDroppedMessageConstant   = "content locator dropped"
	fetchCompletedMessageConstant   = "content fetch completed"
	logFieldLocatorConstant         = "locator"
	logFieldReasonConstant          = "reason"
	logFieldStatusCodeConstant      = "status_code"
	logFieldDetailConstant          = "detail"
	logFieldRequestedCountConstant  = "requested"
	logFieldFetchedCountConstant    = "fetched"
	logFieldDroppedCountConstant    = "dropped"
	missingContentDetailConstant    = "response has no content field"
	invalidUTF8DetailConstant       = "decoded content is not valid UTF-8"
	unsupportedSchemeDetailConstant = "locator must be an absolute http or https URL"
	emptyLocatorDetailConstant      = "locator is empty"
	foreignOriginDetailConstant     = "locator is outside the configured github api base url"
	httpSchemeConstant              = "http"
	httpsSchemeConstant             = "https"
	acceptHeaderNameConstant        = "Accept"
	acceptHeaderValueConstant       = "application/vnd.github+json"
	jsonObjectPrefixConstant        = '{'
)

// DropReason classifies why a locator produced no content.
type DropReason string

const (
	// DropReasonStatus marks a non-success HTTP status.
	DropReasonStatus DropReason = "status"
	// DropReasonMissingContent marks a response without a content field.
	DropReasonMissingContent DropReason = "missing_content"
	// DropReasonDecode marks content that is not valid base64 or UTF-8.
	DropReasonDecode DropReason = "decode"
	// DropReasonTransport marks network failures and timeouts.
	DropReasonTransport DropReason = "transport"
	// DropReasonInvalidLocator marks locators that are not absolute http(s) URLs under the
	// configured API base URL.
	DropReasonInvalidLocator DropReason = "invalid_locator"
)

// FetchedContent pairs a locator with its decoded text.
type FetchedContent struct {
	Locator string
	Text    string
}

// DroppedLocator records a locator the fetcher could not read.
type DroppedLocator struct {
	Locator    string
	Reason     DropReason
	StatusCode int
	Detail     string
}

// FetchOutcome holds fetched contents in input order plus the dropped locators.
type FetchOutcome struct {
	Contents []FetchedContent
	Dropped  []DroppedLocator
}

// DroppedLocators lists the locators that produced no content.
func (outcome FetchOutcome) DroppedLocators() []string {
	locators := make([]string, 0, len(outcome.Dropped))
	for _, dropped := range outcome.Dropped {
		locators = append(locators, dropped.Locator)
	}
	return locators
}

type contentsResponse struct {
	Content  *string `json:"content"`
	Encoding string  `json:"encoding"`
}

type fetchResult struct {
	content FetchedContent
	dropped *DroppedLocator
}

// ContentFetcher reads GitHub contents-API resources with a bounded worker pool.
type ContentFetcher struct {
	clientFactory *ClientFactory
	logger        *zap.Logger
}

// NewContentFetcher builds a fetcher over the shared client factory.
func NewContentFetcher(clientFactory *ClientFactory, logger *zap.Logger) *ContentFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentFetcher{clientFactory: clientFactory, logger: logger}
}

// FetchAll issues one authenticated GET per locator. Per-locator failures never fail the
// call; they are reported in FetchOutcome.Dropped and logged.
func (fetcher *ContentFetcher) FetchAll(fetchContext context.Context, accessToken string, locators []string) FetchOutcome {
	configuration := fetcher.clientFactory.Configuration()
	client := fetcher.clientFactory.ForToken(accessToken)
	results := make([]fetchResult, len(locators))

	var workerGroup errgroup.Group
	workerGroup.SetLimit(configuration.MaxConcurrentRequests)
	for locatorIndex, locator := range locators {
		workerGroup.Go(func() error {
			requestContext, cancel := context.WithTimeout(fetchContext, configuration.RequestTimeout)
			defer cancel()
			results[locatorIndex] = fetcher.fetchOne(requestContext, client, locator)
			return nil
		})
	}
	_ = workerGroup.Wait()

	outcome := FetchOutcome{Contents: make([]FetchedContent, 0, len(locators))}
	for _, result := range results {
		if result.dropped != nil {
			fetcher.logDropped(*result.dropped)
			outcome.Dropped = append(outcome.Dropped, *result.dropped)
			continue
		}
		outcome.Contents = append(outcome.Contents, result.content)
	}

	fetcher.logger.Debug(
		fetchCompletedMessageConstant,
		zap.Int(logFieldRequestedCountConstant, len(locators)),
		zap.Int(logFieldFetchedCountConstant, len(outcome.Contents)),
		zap.Int(logFieldDroppedCountConstant, len(outcome.Dropped)),
	)
	return outcome
}

func (fetcher *ContentFetcher) fetchOne(requestContext context.Context, client *github.Client, locator string) fetchResult {
	if invalidDetail := fetcher.validateLocator(locator); len(invalidDetail) > 0 {
		return droppedResult(locator, DropReasonInvalidLocator, 0, invalidDetail)
	}

	request, requestError := client.NewRequest(http.MethodGet, locator, nil)
	if requestError != nil {
		return droppedResult(locator, DropReasonInvalidLocator, 0, requestError.Error())
	}
	request.Header.Set(acceptHeaderNameConstant, acceptHeaderValueConstant)

	var payload json.RawMessage
	response, doError := client.Do(requestContext, request, &payload)
	if doError != nil {
		var errorResponse *github.ErrorResponse
		if errors.As(doError, &errorResponse) && errorResponse.Response != nil {
			return droppedResult(locator, DropReasonStatus, errorResponse.Response.StatusCode, statusDetail(errorResponse.Response, errorResponse.Message))
		}
		var rateLimitError *github.RateLimitError
		if errors.As(doError, &rateLimitError) && rateLimitError.Response != nil {
			return droppedResult(locator, DropReasonStatus, rateLimitError.Response.StatusCode, statusDetail(rateLimitError.Response, rateLimitError.Message))
		}
		var abuseError *github.AbuseRateLimitError
		if errors.As(doError, &abuseError) && abuseError.Response != nil {
			return droppedResult(locator, DropReasonStatus, abuseError.Response.StatusCode, statusDetail(abuseError.Response, abuseError.Message))
		}
		var syntaxError *json.SyntaxError
		if errors.As(doError, &syntaxError) {
			return droppedResult(locator, DropReasonMissingContent, responseStatusCode(response), doError.Error())
		}
		if statusCode := responseStatusCode(response); statusCode >= http.StatusMultipleChoices {
			return droppedResult(locator, DropReasonStatus, statusCode, statusDetail(response.Response, doError.Error()))
		}
		return droppedResult(locator, DropReasonTransport, responseStatusCode(response), doError.Error())
	}
	statusCode := responseStatusCode(response)
	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return droppedResult(locator, DropReasonStatus, statusCode, http.StatusText(statusCode))
	}

	trimmedPayload := bytes.TrimSpace(payload)
	if len(trimmedPayload) == 0 || trimmedPayload[0] != jsonObjectPrefixConstant {
		return droppedResult(locator, DropReasonMissingContent, statusCode, missingContentDetailConstant)
	}
	var contents contentsResponse
	if decodeError := json.Unmarshal(trimmedPayload, &contents); decodeError != nil || contents.Content == nil {
		return droppedResult(locator, DropReasonMissingContent, statusCode, missingContentDetailConstant)
	}

	decodedText, decodeError := decodeContent(*contents.Content)
	if decodeError != nil {
		return droppedResult(locator, DropReasonDecode, statusCode, decodeError.Error())
	}

	return fetchResult{content: FetchedContent{Locator: locator, Text: decodedText}}
}

func (fetcher *ContentFetcher) logDropped(dropped DroppedLocator) {
	fetcher.logger.Warn(
		locatorDroppedMessageConstant,
		zap.String(logFieldLocatorConstant, dropped.Locator),
		zap.String(logFieldReasonConstant, string(dropped.Reason)),
		zap.Int(logFieldStatusCodeConstant, dropped.StatusCode),
		zap.String(logFieldDetailConstant, dropped.Detail),
	)
}

func droppedResult(locator string, reason DropReason, statusCode int, detail string) fetchResult {
	return fetchResult{dropped: &DroppedLocator{Locator: locator, Reason: reason, StatusCode: statusCode, Detail: detail}}
}

func responseStatusCode(response *github.Response) int {
	if response == nil || response.Response == nil {
		return 0
	}
	return response.StatusCode
}

func (fetcher *ContentFetcher) validateLocator(locator string) string {
	trimmedLocator := strings.TrimSpace(locator)
	if len(trimmedLocator) == 0 {
		return emptyLocatorDetailConstant
	}
	parsedLocator, parseError := url.Parse(trimmedLocator)
	if parseError != nil {
		return parseError.Error()
	}
	if parsedLocator.Scheme != httpSchemeConstant && parsedLocator.Scheme != httpsSchemeConstant {
		return unsupportedSchemeDetailConstant
	}
	if len(parsedLocator.Host) == 0 {
		return unsupportedSchemeDetailConstant
	}
	if !fetcher.clientFactory.AllowsLocator(parsedLocator) {
		return foreignOriginDetailConstant
	}
	return ""
}

// statusDetail prefers the raw response body over the decoded API message.
func statusDetail(response *http.Response, fallback string) string {
	if bodyText := responseBodyText(response); len(bodyText) > 0 {
		return bodyText
	}
	return fallback
}

var base64LineBreakRemover = strings.NewReplacer("\n", "", "\r", "")

func decodeContent(encodedContent string) (string, error) {
	decodedBytes, decodeError := base64.StdEncoding.DecodeString(base64LineBreakRemover.Replace(encodedContent))
	if decodeError != nil {
		return "", decodeError
	}
	if !utf8.Valid(decodedBytes) {
		return "", errors.New(invalidUTF8DetailConstant)
	}
	return string(decodedBytes), nil
}
