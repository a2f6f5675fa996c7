package transform

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOpenAIModelConstant           = "gpt-3.5-turbo"
	defaultGeminiModelConstant           = "gemini-2.0-flash"
	defaultRequestTimeoutConstant        = 60 * time.Second
	unknownProviderErrorTemplateConstant = "unknown transformer provider %q"
)

// Provider names a completion backend.
type Provider string

const (
	// ProviderOpenAI selects OpenAI chat completions.
	ProviderOpenAI Provider = "openai"
	// ProviderGemini selects the Gemini API.
	ProviderGemini Provider = "gemini"
)

// Configuration selects and parameterizes the completion backend.
type Configuration struct {
	Provider       string        `mapstructure:"provider"`
	Model          string        `mapstructure:"model"`
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// DefaultConfiguration selects OpenAI. The model stays blank so Sanitize picks the
// default for whichever provider ends up configured.
func DefaultConfiguration() Configuration {
	return Configuration{
		Provider:       string(ProviderOpenAI),
		RequestTimeout: defaultRequestTimeoutConstant,
	}
}

// ParseProvider normalizes a provider name.
func ParseProvider(rawProvider string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(rawProvider))) {
	case ProviderOpenAI, "":
		return ProviderOpenAI, nil
	case ProviderGemini:
		return ProviderGemini, nil
	default:
		return "", fmt.Errorf(unknownProviderErrorTemplateConstant, rawProvider)
	}
}

// Sanitize trims values and fills the model and timeout defaults for the provider.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	sanitized.Provider = strings.ToLower(strings.TrimSpace(configuration.Provider))
	if len(sanitized.Provider) == 0 {
		sanitized.Provider = string(ProviderOpenAI)
	}
	sanitized.APIKey = strings.TrimSpace(configuration.APIKey)
	sanitized.BaseURL = strings.TrimSpace(configuration.BaseURL)
	sanitized.Model = strings.TrimSpace(configuration.Model)
	if len(sanitized.Model) == 0 {
		switch Provider(sanitized.Provider) {
		case ProviderGemini:
			sanitized.Model = defaultGeminiModelConstant
		default:
			sanitized.Model = defaultOpenAIModelConstant
		}
	}
	if sanitized.RequestTimeout <= 0 {
		sanitized.RequestTimeout = defaultRequestTimeoutConstant
	}
	return sanitized
}

// NewGenerator constructs the generator for the configured provider.
func NewGenerator(constructContext context.Context, configuration Configuration, httpClient *http.Client) (Generator, error) {
	sanitized := configuration.Sanitize()
	provider, providerError := ParseProvider(sanitized.Provider)
	if providerError != nil {
		return nil, providerError
	}

	switch provider {
	case ProviderGemini:
		return NewGeminiGenerator(constructContext, sanitized, httpClient)
	default:
		return NewOpenAIGenerator(sanitized, httpClient), nil
	}
}
