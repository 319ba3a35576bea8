package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

var (
	phonePattern    = regexp.MustCompile(`^\+?[1-9][0-9]{6,14}$`)
	phoneSeparators = strings.NewReplacer(" ", "", "-", "")
)

// Router picks a transport by the shape of the destination: e-mail addresses
// go to the email transport, E.164 numbers to the phone transport. A nil
// transport makes that shape undeliverable.
type Router struct {
	email ports.MessagingTransport
	phone ports.MessagingTransport
}

func NewRouter(email, phone ports.MessagingTransport) *Router {
	return &Router{email: email, phone: phone}
}

func (r *Router) Send(ctx context.Context, destination, message string) error {
	destination = strings.TrimSpace(destination)

	var transport ports.MessagingTransport
	switch phone := phoneSeparators.Replace(destination); {
	case strings.Contains(destination, "@"):
		transport = r.email
	case phonePattern.MatchString(phone):
		transport = r.phone
		destination = phone
	default:
		return errs.NewMalformedPayloadError(fmt.Sprintf("unrecognized destination %q", destination))
	}

	if transport == nil {
		return errs.NewMalformedPayloadError(fmt.Sprintf("no transport configured for %q", destination))
	}
	return transport.Send(ctx, destination, message)
}

// LogTransport only logs. It stands in for the real transports in local
// development.
type LogTransport struct {
	logger *slog.Logger
}

func NewLogTransport(logger *slog.Logger) *LogTransport {
	return &LogTransport{logger: logger.With("component", "LogTransport")}
}

func (t *LogTransport) Send(ctx context.Context, destination, message string) error {
	t.logger.InfoContext(ctx, "notification", "destination", destination, "message", message)
	return nil
}
