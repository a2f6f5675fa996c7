package mailer

import (
	"strings"
	"time"
)

const (
	defaultHostConstant    = "smtp.gmail.com"
	defaultPortConstant    = 465
	defaultTimeoutConstant = 15 * time.Second
)

// Configuration describes the SMTP relay and the notification envelope.
type Configuration struct {
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	UseSSL     bool          `mapstructure:"use_ssl"`
	Username   string        `mapstructure:"username"`
	Password   string        `mapstructure:"password"`
	Sender     string        `mapstructure:"sender"`
	Recipients []string      `mapstructure:"recipients"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// DefaultConfiguration targets Gmail over implicit TLS.
func DefaultConfiguration() Configuration {
	return Configuration{
		Host:    defaultHostConstant,
		Port:    defaultPortConstant,
		UseSSL:  true,
		Timeout: defaultTimeoutConstant,
	}
}

// Sanitize trims values, drops blank recipients and restores defaults for unset fields.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	sanitized.Host = strings.TrimSpace(configuration.Host)
	if len(sanitized.Host) == 0 {
		sanitized.Host = defaultHostConstant
	}
	if sanitized.Port <= 0 {
		sanitized.Port = defaultPortConstant
	}
	if sanitized.Timeout <= 0 {
		sanitized.Timeout = defaultTimeoutConstant
	}
	sanitized.Username = strings.TrimSpace(configuration.Username)
	sanitized.Sender = strings.TrimSpace(configuration.Sender)

	sanitized.Recipients = make([]string, 0, len(configuration.Recipients))
	for _, recipient := range configuration.Recipients {
		trimmedRecipient := strings.TrimSpace(recipient)
		if len(trimmedRecipient) > 0 {
			sanitized.Recipients = append(sanitized.Recipients, trimmedRecipient)
		}
	}
	return sanitized
}
