package githubapi

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
)

const (
	defaultBaseURLConstant               = "https://api.github.com/"
	defaultUserAgentConstant             = "chronos"
	defaultRequestTimeoutConstant        = 10 * time.Second
	defaultMaxConcurrentRequestsConstant = 4
	defaultCommitMessageTemplate         = "Update %s"
	urlPathSeparatorConstant             = "/"
	maximumRedirectCountConstant         = 10
	maximumErrorBodyBytesConstant        = 4096
)

// Configuration describes how the service reaches GitHub.
type Configuration struct {
	BaseURL               string        `mapstructure:"base_url"`
	UserAgent             string        `mapstructure:"user_agent"`
	RequestTimeout        time.Duration `mapstructure:"request_timeout"`
	MaxConcurrentRequests int           `mapstructure:"max_concurrent_requests"`
	CommitMessageTemplate string        `mapstructure:"commit_message_template"`
}

// DefaultConfiguration supplies public GitHub defaults.
func DefaultConfiguration() Configuration {
	return Configuration{
		BaseURL:               defaultBaseURLConstant,
		UserAgent:             defaultUserAgentConstant,
		RequestTimeout:        defaultRequestTimeoutConstant,
		MaxConcurrentRequests: defaultMaxConcurrentRequestsConstant,
		CommitMessageTemplate: defaultCommitMessageTemplate,
	}
}

// Sanitize fills blank or non-positive values with defaults.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration

	sanitized.BaseURL = strings.TrimSpace(configuration.BaseURL)
	if len(sanitized.BaseURL) == 0 {
		sanitized.BaseURL = defaults.BaseURL
	}
	if !strings.HasSuffix(sanitized.BaseURL, urlPathSeparatorConstant) {
		sanitized.BaseURL += urlPathSeparatorConstant
	}

	sanitized.UserAgent = strings.TrimSpace(configuration.UserAgent)
	if len(sanitized.UserAgent) == 0 {
		sanitized.UserAgent = defaults.UserAgent
	}
	if sanitized.RequestTimeout <= 0 {
		sanitized.RequestTimeout = defaults.RequestTimeout
	}
	if sanitized.MaxConcurrentRequests <= 0 {
		sanitized.MaxConcurrentRequests = defaults.MaxConcurrentRequests
	}
	if !strings.Contains(configuration.CommitMessageTemplate, "%s") {
		sanitized.CommitMessageTemplate = defaults.CommitMessageTemplate
	}

	return sanitized
}

// ClientFactory creates per-token go-github clients over a shared HTTP client.
// It is constructed once at start-up; the returned clients are cheap wrappers.
type ClientFactory struct {
	httpClient    *http.Client
	baseURL       *url.URL
	configuration Configuration
}

// NewClientFactory validates configuration and builds the factory.
func NewClientFactory(httpClient *http.Client, configuration Configuration) (*ClientFactory, error) {
	if httpClient == nil {
		return nil, ErrHTTPClientNotConfigured
	}

	sanitized := configuration.Sanitize()
	baseURL, parseError := url.Parse(sanitized.BaseURL)
	if parseError != nil {
		return nil, fmt.Errorf(baseURLInvalidTemplateConstant, sanitized.BaseURL, parseError)
	}

	return &ClientFactory{httpClient: httpClient, baseURL: baseURL, configuration: sanitized}, nil
}

// Configuration reports the sanitized settings in use.
func (factory *ClientFactory) Configuration() Configuration {
	return factory.configuration
}

// ForToken returns a client authenticating every request with the bearer token.
// Redirects leaving the configured API origin are refused so the token never reaches another host.
func (factory *ClientFactory) ForToken(accessToken string) *github.Client {
	scopedHTTPClient := *factory.httpClient
	scopedHTTPClient.Transport = errorBodyTransport{base: factory.httpClient.Transport}
	scopedHTTPClient.CheckRedirect = factory.checkRedirect

	client := github.NewClient(&scopedHTTPClient).WithAuthToken(accessToken)
	baseURL := *factory.baseURL
	client.BaseURL = &baseURL
	client.UserAgent = factory.configuration.UserAgent
	return client
}

// AllowsLocator reports whether a locator shares the scheme and host of the configured base URL
// and lies under its path.
func (factory *ClientFactory) AllowsLocator(locator *url.URL) bool {
	return factory.sameOrigin(locator) && strings.HasPrefix(locator.EscapedPath(), factory.baseURL.EscapedPath())
}

func (factory *ClientFactory) sameOrigin(candidate *url.URL) bool {
	if candidate == nil {
		return false
	}
	return strings.EqualFold(candidate.Scheme, factory.baseURL.Scheme) && strings.EqualFold(candidate.Host, factory.baseURL.Host)
}

func (factory *ClientFactory) checkRedirect(request *http.Request, via []*http.Request) error {
	if len(via) >= maximumRedirectCountConstant {
		return ErrTooManyRedirects
	}
	if !factory.sameOrigin(request.URL) {
		return CrossOriginRedirectError{Host: request.URL.Host}
	}
	if factory.httpClient.CheckRedirect != nil {
		return factory.httpClient.CheckRedirect(request, via)
	}
	return nil
}

// errorBodyTransport buffers the body of non-success responses so it stays readable after
// go-github has decoded it into an ErrorResponse.
type errorBodyTransport struct {
	base http.RoundTripper
}

func (transport errorBodyTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	baseTransport := transport.base
	if baseTransport == nil {
		baseTransport = http.DefaultTransport
	}
	response, roundTripError := baseTransport.RoundTrip(request)
	if roundTripError != nil || response.StatusCode < http.StatusMultipleChoices {
		return response, roundTripError
	}

	bodyContent, _ := io.ReadAll(io.LimitReader(response.Body, maximumErrorBodyBytesConstant))
	_ = response.Body.Close()
	response.Body = &capturedBody{Reader: bytes.NewReader(bodyContent), content: bodyContent}
	return response, nil
}

type capturedBody struct {
	*bytes.Reader
	content []byte
}

func (body *capturedBody) Close() error {
	return nil
}

// responseBodyText returns the buffered body of a non-success response.
func responseBodyText(response *http.Response) string {
	if response == nil || response.Body == nil {
		return ""
	}
	if captured, isCaptured := response.Body.(*capturedBody); isCaptured {
		return strings.TrimSpace(string(captured.content))
	}
	bodyContent, _ := io.ReadAll(io.LimitReader(response.Body, maximumErrorBodyBytesConstant))
	return strings.TrimSpace(string(bodyContent))
}
