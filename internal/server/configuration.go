package server

import (
	"strings"
	"time"

	"github.com/temirov/chronos/internal/agent"
	"github.com/temirov/chronos/internal/githubapi"
	"github.com/temirov/chronos/internal/httpapi"
	"github.com/temirov/chronos/internal/mailer"
	"github.com/temirov/chronos/internal/tokenstore"
	"github.com/temirov/chronos/internal/transform"
)

const (
	defaultListenAddressConstant     = ":5000"
	defaultReadHeaderTimeoutConstant = 10 * time.Second
	defaultReadTimeoutConstant       = 30 * time.Second
	defaultWriteTimeoutConstant      = 180 * time.Second
	defaultIdleTimeoutConstant       = 120 * time.Second
	defaultShutdownTimeoutConstant   = 15 * time.Second
	wildcardOriginConstant           = "*"
	configurationKeySeparator        = "."
	serverConfigurationKeyConstant   = "server"
	listenAddressKeyConstant         = "listen_address"
	readHeaderTimeoutKeyConstant     = "read_header_timeout"
	readTimeoutKeyConstant           = "read_timeout"
	writeTimeoutKeyConstant          = "write_timeout"
	idleTimeoutKeyConstant           = "idle_timeout"
	shutdownTimeoutKeyConstant       = "shutdown_timeout"
	corsAllowedOriginsKeyConstant    = "cors.allowed_origins"
	tokenStoreKeyConstant            = "token_store"
	tokenStoreBackendKeyConstant     = "backend"
	tokenStoreCollectionKeyConstant  = "collection"
	tokenStoreTokenFieldKeyConstant  = "token_field"
	githubKeyConstant                = "github"
	githubBaseURLKeyConstant         = "base_url"
	githubRequestTimeoutKeyConstant  = "request_timeout"
	githubConcurrencyKeyConstant     = "max_concurrent_requests"
	transformerKeyConstant           = "transformer"
	transformerProviderKeyConstant   = "provider"
	transformerModelKeyConstant      = "model"
	transformerTimeoutKeyConstant    = "request_timeout"
	mailKeyConstant                  = "mail"
	mailHostKeyConstant              = "host"
	mailPortKeyConstant              = "port"
	mailUseSSLKeyConstant            = "use_ssl"
	mailTimeoutKeyConstant           = "timeout"
	agentKeyConstant                 = "agent"
	agentURLKeyConstant              = "url"
	agentRequestTimeoutKeyConstant   = "request_timeout"
)

// Configuration controls the HTTP listener.
type Configuration struct {
	ListenAddress     string                    `mapstructure:"listen_address"`
	ReadHeaderTimeout time.Duration             `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration             `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration             `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration             `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration             `mapstructure:"shutdown_timeout"`
	CORS              httpapi.CORSConfiguration `mapstructure:"cors"`
}

// ServiceConfiguration groups the configuration of every component the server wires.
type ServiceConfiguration struct {
	Server      Configuration            `mapstructure:"server"`
	TokenStore  tokenstore.Configuration `mapstructure:"token_store"`
	GitHub      githubapi.Configuration  `mapstructure:"github"`
	Transformer transform.Configuration  `mapstructure:"transformer"`
	Mail        mailer.Configuration     `mapstructure:"mail"`
	Agent       agent.Configuration      `mapstructure:"agent"`
}

// DefaultConfiguration listens on the Flask-compatible port with conservative timeouts.
func DefaultConfiguration() Configuration {
	return Configuration{
		ListenAddress:     defaultListenAddressConstant,
		ReadHeaderTimeout: defaultReadHeaderTimeoutConstant,
		ReadTimeout:       defaultReadTimeoutConstant,
		WriteTimeout:      defaultWriteTimeoutConstant,
		IdleTimeout:       defaultIdleTimeoutConstant,
		ShutdownTimeout:   defaultShutdownTimeoutConstant,
		CORS:              httpapi.CORSConfiguration{AllowedOrigins: []string{wildcardOriginConstant}},
	}
}

// DefaultServiceConfiguration combines every component default.
func DefaultServiceConfiguration() ServiceConfiguration {
	return ServiceConfiguration{
		Server:      DefaultConfiguration(),
		TokenStore:  tokenstore.DefaultConfiguration(),
		GitHub:      githubapi.DefaultConfiguration(),
		Transformer: transform.DefaultConfiguration(),
		Mail:        mailer.DefaultConfiguration(),
		Agent:       agent.DefaultConfiguration(),
	}
}

// Sanitize fills blank or non-positive listener values with defaults.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration

	sanitized.ListenAddress = strings.TrimSpace(configuration.ListenAddress)
	if len(sanitized.ListenAddress) == 0 {
		sanitized.ListenAddress = defaults.ListenAddress
	}
	sanitized.ReadHeaderTimeout = positiveDuration(configuration.ReadHeaderTimeout, defaults.ReadHeaderTimeout)
	sanitized.ReadTimeout = positiveDuration(configuration.ReadTimeout, defaults.ReadTimeout)
	sanitized.WriteTimeout = positiveDuration(configuration.WriteTimeout, defaults.WriteTimeout)
	sanitized.IdleTimeout = positiveDuration(configuration.IdleTimeout, defaults.IdleTimeout)
	sanitized.ShutdownTimeout = positiveDuration(configuration.ShutdownTimeout, defaults.ShutdownTimeout)

	return sanitized
}

// DefaultConfigurationValues exposes the component defaults as dotted configuration keys.
func DefaultConfigurationValues() map[string]any {
	defaults := DefaultServiceConfiguration()
	return map[string]any{
		joinKey(serverConfigurationKeyConstant, listenAddressKeyConstant):      defaults.Server.ListenAddress,
		joinKey(serverConfigurationKeyConstant, readHeaderTimeoutKeyConstant):  defaults.Server.ReadHeaderTimeout,
		joinKey(serverConfigurationKeyConstant, readTimeoutKeyConstant):        defaults.Server.ReadTimeout,
		joinKey(serverConfigurationKeyConstant, writeTimeoutKeyConstant):       defaults.Server.WriteTimeout,
		joinKey(serverConfigurationKeyConstant, idleTimeoutKeyConstant):        defaults.Server.IdleTimeout,
		joinKey(serverConfigurationKeyConstant, shutdownTimeoutKeyConstant):    defaults.Server.ShutdownTimeout,
		joinKey(serverConfigurationKeyConstant, corsAllowedOriginsKeyConstant): defaults.Server.CORS.AllowedOrigins,
		joinKey(tokenStoreKeyConstant, tokenStoreBackendKeyConstant):           defaults.TokenStore.Backend,
		joinKey(tokenStoreKeyConstant, tokenStoreCollectionKeyConstant):        defaults.TokenStore.Collection,
		joinKey(tokenStoreKeyConstant, tokenStoreTokenFieldKeyConstant):        defaults.TokenStore.TokenField,
		joinKey(githubKeyConstant, githubBaseURLKeyConstant):                   defaults.GitHub.BaseURL,
		joinKey(githubKeyConstant, githubRequestTimeoutKeyConstant):            defaults.GitHub.RequestTimeout,
		joinKey(githubKeyConstant, githubConcurrencyKeyConstant):               defaults.GitHub.MaxConcurrentRequests,
		joinKey(transformerKeyConstant, transformerProviderKeyConstant):        defaults.Transformer.Provider,
		joinKey(transformerKeyConstant, transformerModelKeyConstant):           defaults.Transformer.Model,
		joinKey(transformerKeyConstant, transformerTimeoutKeyConstant):         defaults.Transformer.RequestTimeout,
		joinKey(mailKeyConstant, mailHostKeyConstant):                          defaults.Mail.Host,
		joinKey(mailKeyConstant, mailPortKeyConstant):                          defaults.Mail.Port,
		joinKey(mailKeyConstant, mailUseSSLKeyConstant):                        defaults.Mail.UseSSL,
		joinKey(mailKeyConstant, mailTimeoutKeyConstant):                       defaults.Mail.Timeout,
		joinKey(agentKeyConstant, agentURLKeyConstant):                         defaults.Agent.URL,
		joinKey(agentKeyConstant, agentRequestTimeoutKeyConstant):              defaults.Agent.RequestTimeout,
	}
}

func joinKey(sectionKey string, valueKey string) string {
	return sectionKey + configurationKeySeparator + valueKey
}

func positiveDuration(candidate time.Duration, fallback time.Duration) time.Duration {
	if candidate > 0 {
		return candidate
	}
	return fallback
}
