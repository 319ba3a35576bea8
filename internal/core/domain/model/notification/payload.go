package notification

import (
	"encoding/json"
	"fmt"

	"fulfillment/internal/pkg/errs"
)

type Kind string

const (
	KindOrderStatusChanged Kind = "order_status_changed"
	KindPaymentFailed      Kind = "payment_failed"
)

// Payload is the tagged message document stored on a Job.
type Payload struct {
	Kind    Kind   `json:"kind"`
	OrderID string `json:"orderId,omitempty"`
	Status  string `json:"status,omitempty"`
}

var orderStatusMessages = map[string]string{
	"PAID":       "Payment received for order %s. We are preparing it for dispatch.",
	"ASSIGNED":   "A driver has been assigned to order %s.",
	"PICKED_UP":  "Order %s has been picked up by your driver.",
	"IN_TRANSIT": "Order %s is on its way.",
	"DELIVERED":  "Order %s has been delivered. Enjoy!",
	"CANCELLED":  "Order %s has been cancelled.",
	"REFUNDED":   "Order %s has been refunded.",
}

func (p Payload) Validate() error {
	switch p.Kind {
	case KindOrderStatusChanged:
		if p.OrderID == "" {
			return errs.NewMalformedPayloadError("order status payload without order id")
		}
		if _, ok := orderStatusMessages[p.Status]; !ok {
			return errs.NewMalformedPayloadError(fmt.Sprintf("order status %q has no message", p.Status))
		}
	case KindPaymentFailed:
		if p.OrderID == "" {
			return errs.NewMalformedPayloadError("payment failed payload without order id")
		}
	default:
		return errs.NewMalformedPayloadError(fmt.Sprintf("unrecognized payload kind %q", p.Kind))
	}
	return nil
}

// Render produces the text handed to the messaging transport.
func (p Payload) Render() (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	switch p.Kind {
	case KindOrderStatusChanged:
		return fmt.Sprintf(orderStatusMessages[p.Status], p.OrderID), nil
	case KindPaymentFailed:
		return fmt.Sprintf("Payment for order %s failed. Please retry your checkout.", p.OrderID), nil
	default:
		return "", errs.NewMalformedPayloadError(fmt.Sprintf("unrecognized payload kind %q", p.Kind))
	}
}

func (p Payload) Encode() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(p)
}

func DecodePayload(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, errs.NewMalformedPayloadErrorWithCause("payload is not valid JSON", err)
	}
	if err := p.Validate(); err != nil {
		return Payload{}, err
	}
	return p, nil
}

// Source is implemented by domain events that must reach the customer.
// The unit of work turns every Source it drains into exactly one Job.
type Source interface {
	NotificationTarget() string
	NotificationPayload() Payload
}
