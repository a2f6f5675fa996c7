package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

const (
	// NotificationSubject is the subject line of every notification email.
	NotificationSubject = "Contact Form Submission from Cronos"

	contactBodyTemplateConstant = "Name: %s %s\n" +
		"Company: %s\n" +
		"Email: %s\n" +
		"Website: %s\n" +
		"Message: %s\n" +
		"APIs: %s\n"
	providerRequestBodyTemplateConstant = "Name: %s\n" +
		"Company: %s\n" +
		"Email: %s\n" +
		"Website: %s\n" +
		"API Integration: %s\n" +
		"Requirements: %s\n" +
		"API Documentation URL: %s\n"

	senderMissingMessageConstant     = "mail sender not configured"
	recipientsMissingMessageConstant = "mail recipients not configured"
	transportMissingMessageConstant  = "mail transport not configured"
	senderInvalidTemplateConstant    = "invalid sender address: %w"
	recipientInvalidTemplateConstant = "invalid recipient address: %w"
	sendFailedTemplateConstant       = "send %s email: %w"
	notificationSentMessageConstant  = "notification email sent"
	notificationFailedMessage        = "notification email failed"
	logFieldKindConstant             = "kind"
	logFieldRecipientCountConstant   = "recipients"
	contactKindConstant              = "contact"
	providerRequestKindConstant      = "provider_request"
)

var (
	// ErrSenderNotConfigured indicates no sender address is configured.
	ErrSenderNotConfigured = errors.New(senderMissingMessageConstant)
	// ErrRecipientsNotConfigured indicates no recipient address is configured.
	ErrRecipientsNotConfigured = errors.New(recipientsMissingMessageConstant)
	// ErrTransportNotConfigured indicates the mailer has no transport.
	ErrTransportNotConfigured = errors.New(transportMissingMessageConstant)
)

// ContactSubmission holds the fields of the contact form.
type ContactSubmission struct {
	FirstName   string
	Surname     string
	CompanyName string
	Email       string
	Website     string
	Message     string
	APIs        string
}

// ProviderRequestSubmission holds the fields of the API provider request form.
type ProviderRequestSubmission struct {
	FullName            string
	CompanyName         string
	WorkEmail           string
	CompanyURL          string
	APIIntegration      string
	Requirements        string
	APIDocumentationURL string
}

// Mailer composes notification emails and hands them to a Transport.
type Mailer struct {
	transport  Transport
	sender     string
	recipients []string
	logger     *zap.Logger
}

// NewMailer builds a mailer for the configured envelope.
func NewMailer(transport Transport, configuration Configuration, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	sanitized := configuration.Sanitize()
	return &Mailer{
		transport:  transport,
		sender:     sanitized.Sender,
		recipients: sanitized.Recipients,
		logger:     logger,
	}
}

// SendContact emails a contact form submission.
func (mailer *Mailer) SendContact(sendContext context.Context, submission ContactSubmission) error {
	body := fmt.Sprintf(
		contactBodyTemplateConstant,
		submission.FirstName,
		submission.Surname,
		submission.CompanyName,
		submission.Email,
		submission.Website,
		submission.Message,
		submission.APIs,
	)
	return mailer.send(sendContext, contactKindConstant, body)
}

// SendProviderRequest emails an API provider request submission.
func (mailer *Mailer) SendProviderRequest(sendContext context.Context, submission ProviderRequestSubmission) error {
	body := fmt.Sprintf(
		providerRequestBodyTemplateConstant,
		submission.FullName,
		submission.CompanyName,
		submission.WorkEmail,
		submission.CompanyURL,
		submission.APIIntegration,
		submission.Requirements,
		submission.APIDocumentationURL,
	)
	return mailer.send(sendContext, providerRequestKindConstant, body)
}

func (mailer *Mailer) send(sendContext context.Context, kind string, body string) error {
	message, composeError := mailer.compose(body)
	if composeError == nil {
		if mailer.transport == nil {
			composeError = ErrTransportNotConfigured
		} else {
			composeError = mailer.transport.Send(sendContext, message)
		}
	}
	if composeError != nil {
		mailer.logger.Error(
			notificationFailedMessage,
			zap.String(logFieldKindConstant, kind),
			zap.Error(composeError),
		)
		return fmt.Errorf(sendFailedTemplateConstant, kind, composeError)
	}

	mailer.logger.Info(
		notificationSentMessageConstant,
		zap.String(logFieldKindConstant, kind),
		zap.Int(logFieldRecipientCountConstant, len(mailer.recipients)),
	)
	return nil
}

func (mailer *Mailer) compose(body string) (*mail.Msg, error) {
	if len(strings.TrimSpace(mailer.sender)) == 0 {
		return nil, ErrSenderNotConfigured
	}
	if len(mailer.recipients) == 0 {
		return nil, ErrRecipientsNotConfigured
	}

	message := mail.NewMsg()
	if senderError := message.From(mailer.sender); senderError != nil {
		return nil, fmt.Errorf(senderInvalidTemplateConstant, senderError)
	}
	if recipientError := message.To(mailer.recipients...); recipientError != nil {
		return nil, fmt.Errorf(recipientInvalidTemplateConstant, recipientError)
	}
	message.Subject(NotificationSubject)
	message.SetBodyString(mail.TypeTextPlain, body)
	return message, nil
}
