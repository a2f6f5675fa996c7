package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultURLConstant             = "http://localhost:8000"
	defaultRequestTimeoutConstant  = 60 * time.Second
	contentTypeHeaderConstant      = "Content-Type"
	jsonContentTypeConstant        = "application/json"
	maximumResponseBytesConstant   = 8 << 20
	invalidURLMessageConstant      = "agent url must be an absolute http or https URL"
	encodeRequestTemplateConstant  = "encode agent request: %w"
	buildRequestTemplateConstant   = "build agent request: %w"
	transportTemplateConstant      = "agent request failed: %w"
	readResponseTemplateConstant   = "read agent response: %w"
	invalidResponseMessageConstant = "agent returned invalid JSON"
	statusErrorTemplateConstant    = "agent responded with status %d"
	queryFailedMessageConstant     = "agent query failed"
	queryCompletedMessageConstant  = "agent query completed"
	logFieldStatusCodeConstant     = "status_code"
	logFieldResponseLengthConstant = "response_length"
	logFieldAgentURLConstant       = "agent_url"
)

var (
	// ErrInvalidURL indicates the agent address is not an absolute HTTP URL.
	ErrInvalidURL = errors.New(invalidURLMessageConstant)
	// ErrInvalidResponse indicates the agent answered 200 with a body that is not JSON.
	ErrInvalidResponse = errors.New(invalidResponseMessageConstant)
)

// Configuration locates the agent process.
type Configuration struct {
	URL            string        `mapstructure:"url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// DefaultConfiguration points at an agent on the local machine.
func DefaultConfiguration() Configuration {
	return Configuration{
		URL:            defaultURLConstant,
		RequestTimeout: defaultRequestTimeoutConstant,
	}
}

// Sanitize fills blank values with defaults.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration
	sanitized.URL = strings.TrimSpace(configuration.URL)
	if len(sanitized.URL) == 0 {
		sanitized.URL = defaults.URL
	}
	if sanitized.RequestTimeout <= 0 {
		sanitized.RequestTimeout = defaults.RequestTimeout
	}
	return sanitized
}

// StatusError reports a non-200 answer from the agent.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error describes the status failure.
func (statusError StatusError) Error() string {
	return fmt.Sprintf(statusErrorTemplateConstant, statusError.StatusCode)
}

type queryRequest struct {
	Input json.RawMessage `json:"input"`
}

// Client posts queries to the agent.
type Client struct {
	httpClient     *http.Client
	url            string
	requestTimeout time.Duration
	logger         *zap.Logger
}

// NewClient builds a client over the shared HTTP client.
func NewClient(httpClient *http.Client, configuration Configuration, logger *zap.Logger) (*Client, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	sanitized := configuration.Sanitize()
	parsedURL, parseError := url.Parse(sanitized.URL)
	if parseError != nil || len(parsedURL.Host) == 0 || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
		return nil, ErrInvalidURL
	}
	return &Client{
		httpClient:     httpClient,
		url:            sanitized.URL,
		requestTimeout: sanitized.RequestTimeout,
		logger:         logger,
	}, nil
}

// Query posts {"input": input} and returns the agent's JSON body.
// A missing input is sent as null.
func (client *Client) Query(queryContext context.Context, input json.RawMessage) (json.RawMessage, error) {
	if len(input) == 0 {
		input = json.RawMessage("null")
	}
	payload, encodeError := json.Marshal(queryRequest{Input: input})
	if encodeError != nil {
		return nil, fmt.Errorf(encodeRequestTemplateConstant, encodeError)
	}

	requestContext, cancel := context.WithTimeout(queryContext, client.requestTimeout)
	defer cancel()

	request, requestError := http.NewRequestWithContext(requestContext, http.MethodPost, client.url, bytes.NewReader(payload))
	if requestError != nil {
		return nil, fmt.Errorf(buildRequestTemplateConstant, requestError)
	}
	request.Header.Set(contentTypeHeaderConstant, jsonContentTypeConstant)

	response, responseError := client.httpClient.Do(request)
	if responseError != nil {
		client.logFailure(0, responseError)
		return nil, fmt.Errorf(transportTemplateConstant, responseError)
	}
	defer response.Body.Close()

	body, readError := io.ReadAll(io.LimitReader(response.Body, maximumResponseBytesConstant))
	if readError != nil {
		client.logFailure(response.StatusCode, readError)
		return nil, fmt.Errorf(readResponseTemplateConstant, readError)
	}

	if response.StatusCode != http.StatusOK {
		statusError := StatusError{StatusCode: response.StatusCode, Body: string(body)}
		client.logFailure(response.StatusCode, statusError)
		return nil, statusError
	}
	if !json.Valid(body) {
		client.logFailure(response.StatusCode, ErrInvalidResponse)
		return nil, ErrInvalidResponse
	}

	client.logger.Debug(
		queryCompletedMessageConstant,
		zap.String(logFieldAgentURLConstant, client.url),
		zap.Int(logFieldResponseLengthConstant, len(body)),
	)
	return json.RawMessage(body), nil
}

func (client *Client) logFailure(statusCode int, cause error) {
	client.logger.Warn(
		queryFailedMessageConstant,
		zap.String(logFieldAgentURLConstant, client.url),
		zap.Int(logFieldStatusCodeConstant, statusCode),
		zap.Error(cause),
	)
}
