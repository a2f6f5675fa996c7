package mailer

import (
	"context"
	"fmt"
	"sync"

	"github.com/wneessen/go-mail"
)

const smtpClientErrorTemplateConstant = "unable to configure smtp client for %s:%d: %w"

// Transport delivers composed messages.
type Transport interface {
	Send(sendContext context.Context, message *mail.Msg) error
}

// SMTPTransport delivers messages through one configured SMTP relay.
type SMTPTransport struct {
	mutex  sync.Mutex
	client *mail.Client
}

// NewSMTPTransport configures the relay client. No connection is made until Send.
func NewSMTPTransport(configuration Configuration) (*SMTPTransport, error) {
	sanitized := configuration.Sanitize()
	clientOptions := []mail.Option{
		mail.WithPort(sanitized.Port),
		mail.WithTimeout(sanitized.Timeout),
	}
	if sanitized.UseSSL {
		clientOptions = append(clientOptions, mail.WithSSL())
	} else {
		clientOptions = append(clientOptions, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if len(sanitized.Username) > 0 {
		clientOptions = append(clientOptions,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(sanitized.Username),
			mail.WithPassword(sanitized.Password),
		)
	}

	client, clientError := mail.NewClient(sanitized.Host, clientOptions...)
	if clientError != nil {
		return nil, fmt.Errorf(smtpClientErrorTemplateConstant, sanitized.Host, sanitized.Port, clientError)
	}
	return &SMTPTransport{client: client}, nil
}

// Send dials the relay, delivers the message and closes the connection.
func (transport *SMTPTransport) Send(sendContext context.Context, message *mail.Msg) error {
	transport.mutex.Lock()
	defer transport.mutex.Unlock()
	return transport.client.DialAndSendWithContext(sendContext, message)
}
