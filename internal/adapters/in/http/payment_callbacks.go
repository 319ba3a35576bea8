package http

import (
	"encoding/json"
	"fmt"
	"strings"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/payment"
	"fulfillment/internal/pkg/errs"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
)

const (
	ProviderGeneric = "generic"
	ProviderStripe  = "stripe"

	stripeOrderMetadataKey = "order_id"
)

// PaymentCallback is a decoded provider callback. Exactly one of
// GenericCallback, StripeCallback or UnrecognizedCallback.
type PaymentCallback interface {
	command() (commands.ProcessPaymentCommand, error)
}

type GenericCallback struct {
	ProviderRef string `json:"providerRef"`
	OrderID     string `json:"orderId"`
	Amount      int64  `json:"amount"`
	Status      string `json:"status"`

	raw []byte
}

func (c GenericCallback) command() (commands.ProcessPaymentCommand, error) {
	status, err := payment.ParseProviderStatus(c.Status)
	if err != nil {
		return commands.ProcessPaymentCommand{}, errs.NewMalformedPayloadErrorWithCause("callback status", err)
	}
	return commands.NewProcessPaymentCommand(ProviderGeneric, c.ProviderRef, c.OrderID, c.Amount, status, c.raw)
}

type StripeCallback struct {
	EventID  string
	OrderRef string
	Amount   int64
	Status   payment.ProviderStatus

	raw []byte
}

func (c StripeCallback) command() (commands.ProcessPaymentCommand, error) {
	return commands.NewProcessPaymentCommand(ProviderStripe, c.EventID, c.OrderRef, c.Amount, c.Status, c.raw)
}

// UnrecognizedCallback keeps whatever could not be decoded so it can be logged.
type UnrecognizedCallback struct {
	Provider string
	Reason   string

	raw []byte
}

func (c UnrecognizedCallback) command() (commands.ProcessPaymentCommand, error) {
	return commands.ProcessPaymentCommand{}, errs.NewMalformedPayloadError(
		fmt.Sprintf("unrecognized %s callback: %s", c.Provider, c.Reason))
}

// DecodeGenericCallback accepts {providerRef, orderId, amount, status}.
func DecodeGenericCallback(body []byte) PaymentCallback {
	var cb GenericCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		return UnrecognizedCallback{Provider: ProviderGeneric, Reason: err.Error(), raw: body}
	}
	if strings.TrimSpace(cb.ProviderRef) == "" {
		return UnrecognizedCallback{Provider: ProviderGeneric, Reason: "providerRef is missing", raw: body}
	}
	if _, err := payment.ParseProviderStatus(cb.Status); err != nil {
		return UnrecognizedCallback{Provider: ProviderGeneric, Reason: err.Error(), raw: body}
	}
	cb.raw = body
	return cb
}

// DecodeStripeCallback verifies the Stripe-Signature header and maps payment
// intent outcomes. The order is read from the intent's order_id metadata and
// the Stripe event id is the idempotency reference.
func DecodeStripeCallback(body []byte, signature, secret string) PaymentCallback {
	if signature == "" {
		return UnrecognizedCallback{Provider: ProviderStripe, Reason: "missing stripe signature header", raw: body}
	}

	event, err := webhook.ConstructEvent(body, signature, secret)
	if err != nil {
		return UnrecognizedCallback{
			Provider: ProviderStripe,
			Reason:   "webhook signature validation failed: " + err.Error(),
			raw:      body,
		}
	}

	var status payment.ProviderStatus
	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		status = payment.StatusSucceeded
	case stripe.EventTypePaymentIntentPaymentFailed:
		status = payment.StatusFailed
	default:
		return UnrecognizedCallback{Provider: ProviderStripe, Reason: "unhandled event type " + string(event.Type), raw: body}
	}

	if event.Data == nil {
		return UnrecognizedCallback{Provider: ProviderStripe, Reason: "missing event data", raw: body}
	}
	var intent stripe.PaymentIntent
	if err = json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return UnrecognizedCallback{Provider: ProviderStripe, Reason: "decode payment intent: " + err.Error(), raw: body}
	}

	return StripeCallback{
		EventID:  event.ID,
		OrderRef: intent.Metadata[stripeOrderMetadataKey],
		Amount:   intent.Amount,
		Status:   status,
		raw:      body,
	}
}
