package messaging

import (
	"context"
	"net/mail"

	"fulfillment/internal/pkg/errs"

	resend "github.com/resend/resend-go/v3"
)

const defaultSubject = "Your order update"

type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// EmailTransport sends plain-text e-mails through Resend.
type EmailTransport struct {
	from    string
	subject string
	emails  emailSender
}

func NewEmailTransport(apiKey, from string) (*EmailTransport, error) {
	if apiKey == "" {
		return nil, errs.NewValueIsRequiredError("apiKey")
	}
	if _, err := mail.ParseAddress(from); err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("from", err)
	}
	return newEmailTransport(from, resend.NewClient(apiKey).Emails), nil
}

func newEmailTransport(from string, emails emailSender) *EmailTransport {
	return &EmailTransport{from: from, subject: defaultSubject, emails: emails}
}

func (t *EmailTransport) Send(ctx context.Context, destination, message string) error {
	if _, err := mail.ParseAddress(destination); err != nil {
		return errs.NewMalformedPayloadErrorWithCause("invalid e-mail destination", err)
	}

	_, err := t.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    t.from,
		To:      []string{destination},
		Subject: t.subject,
		Text:    message,
	})
	if err != nil {
		return errs.NewTransportFailureError(destination, err)
	}
	return nil
}
