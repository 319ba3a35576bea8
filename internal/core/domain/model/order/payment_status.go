package order

import (
	"fmt"
	"slices"

	"fulfillment/internal/pkg/errs"
)

type PaymentStatus int

const (
	PaymentUnknown PaymentStatus = iota
	PaymentPending
	PaymentPaid
	PaymentFailed
	PaymentRefunded
)

var paymentStatusStrings = map[PaymentStatus]string{
	PaymentPending:  "PENDING",
	PaymentPaid:     "PAID",
	PaymentFailed:   "FAILED",
	PaymentRefunded: "REFUNDED",
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentPaid, PaymentFailed},
	PaymentFailed:  {PaymentPaid},
	PaymentPaid:    {PaymentRefunded},
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	for status, str := range paymentStatusStrings {
		if str == s {
			return status, nil
		}
	}
	return PaymentUnknown, errs.NewValueIsInvalidErrorWithCause("payment status is invalid",
		fmt.Errorf("%q is not a valid payment status", s))
}

func (s PaymentStatus) Validate() error {
	if _, ok := paymentStatusStrings[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("payment status is invalid", fmt.Errorf("%d is not a valid payment status", s))
	}
	return nil
}

func (s PaymentStatus) String() string {
	if str, ok := paymentStatusStrings[s]; ok {
		return str
	}
	return "UNKNOWN"
}

func (s PaymentStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s PaymentStatus) MoveTo(next PaymentStatus) (PaymentStatus, error) {
	if !slices.Contains(paymentTransitions[s], next) {
		return PaymentUnknown, errs.NewInvalidTransitionError("payment", s.String(), "move to "+next.String())
	}
	return next, nil
}
