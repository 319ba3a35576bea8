package ports

import "context"

// MessagingTransport delivers a rendered message. Implementations return
// errs.TransportFailureError for retryable failures and
// errs.MalformedPayloadError when the destination or message is rejected.
type MessagingTransport interface {
	Send(ctx context.Context, destination, message string) error
}
