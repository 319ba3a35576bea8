package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/payment"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrProcessPaymentCommandIsNotConstructed = errors.New(
	"ProcessPaymentCommand must be created via NewProcessPaymentCommand constructor",
)

// ProcessPaymentCommand carries one decoded provider callback.
type ProcessPaymentCommand struct { //nolint:recvcheck //using for validation
	provider    string
	providerRef string
	orderRef    string
	amount      int64
	status      payment.ProviderStatus
	payload     []byte

	guard guard.ConstructorGuard
}

func NewProcessPaymentCommand(
	provider, providerRef, orderRef string,
	amount int64,
	status payment.ProviderStatus,
	payload []byte,
) (ProcessPaymentCommand, error) {
	var errList []error
	if provider == "" {
		errList = append(errList, errs.NewValueIsRequiredError("provider"))
	}
	if providerRef == "" {
		errList = append(errList, errs.NewValueIsRequiredError("providerRef"))
	}
	errList = append(errList, status.Validate())
	if err := errors.Join(errList...); err != nil {
		return ProcessPaymentCommand{}, err
	}

	return ProcessPaymentCommand{
		provider:    provider,
		providerRef: providerRef,
		orderRef:    orderRef,
		amount:      amount,
		status:      status,
		payload:     payload,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (c ProcessPaymentCommand) Validate() error {
	return c.guard.Validate(ErrProcessPaymentCommandIsNotConstructed)
}

func (c ProcessPaymentCommand) Provider() string {
	return c.provider
}

func (c ProcessPaymentCommand) ProviderRef() string {
	return c.providerRef
}

func (c ProcessPaymentCommand) OrderRef() string {
	return c.orderRef
}

func (c ProcessPaymentCommand) Amount() int64 {
	return c.amount
}

func (c ProcessPaymentCommand) Status() payment.ProviderStatus {
	return c.status
}

func (c ProcessPaymentCommand) Payload() []byte {
	return c.payload
}
