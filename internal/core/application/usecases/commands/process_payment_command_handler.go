package commands

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/payment"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

type PaymentOutcome string

const (
	// PaymentApplied means the order changed.
	PaymentApplied PaymentOutcome = "applied"
	// PaymentIgnored means the event was recorded but had nothing to change.
	PaymentIgnored PaymentOutcome = "ignored"
	// PaymentRejected means the event was recorded unprocessed for reconciliation.
	PaymentRejected PaymentOutcome = "rejected"
)

type ProcessPaymentResult struct {
	Outcome PaymentOutcome
	Reason  string
	OrderID *kernel.UUID
}

// ProcessPaymentCommandHandler admits a provider event into the idempotency
// ledger and applies it to the order in the same transaction. A provider
// reference seen before returns errs.DuplicateEventError and changes nothing.
type ProcessPaymentCommandHandler struct {
	uowFactory PaymentUoWFactory
}

func NewProcessPaymentCommandHandler(uowFactory PaymentUoWFactory) ProcessPaymentCommandHandler {
	return ProcessPaymentCommandHandler{
		uowFactory: uowFactory,
	}
}

func (h ProcessPaymentCommandHandler) Handle(ctx context.Context, cmd ProcessPaymentCommand) (ProcessPaymentResult, error) {
	if err := cmd.Validate(); err != nil {
		return ProcessPaymentResult{}, err
	}

	var result ProcessPaymentResult
	err := retryOnConflict(ctx, func() error {
		var err error
		result, err = h.handle(ctx, cmd)
		return err
	})
	return result, err
}

func (h ProcessPaymentCommandHandler) handle(ctx context.Context, cmd ProcessPaymentCommand) (ProcessPaymentResult, error) {
	now := time.Now().UTC()
	event, err := payment.NewEvent(kernel.NewUUID(), cmd.Provider(), cmd.ProviderRef(), cmd.OrderRef(),
		cmd.Amount(), cmd.Status(), cmd.Payload(), now)
	if err != nil {
		return ProcessPaymentResult{}, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return ProcessPaymentResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	ledger := uow.PaymentLedger()
	admitted, err := ledger.Admit(ctx, event)
	if err != nil {
		return ProcessPaymentResult{}, err
	}
	if admitted == payment.Duplicate {
		return ProcessPaymentResult{}, errs.NewDuplicateEventError(cmd.ProviderRef())
	}

	result, err := h.apply(ctx, uow.OrderRepository(), event, now)
	if err != nil {
		return ProcessPaymentResult{}, err
	}

	if err = ledger.Update(ctx, event); err != nil {
		return ProcessPaymentResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return ProcessPaymentResult{}, err
	}

	return result, nil
}

// apply mutates the order, or marks the event rejected when it cannot apply.
func (h ProcessPaymentCommandHandler) apply(
	ctx context.Context, repo ports.OrderRepository, event *payment.Event, now time.Time,
) (ProcessPaymentResult, error) {
	reject := func(reason string) (ProcessPaymentResult, error) {
		event.Reject(reason, now)
		return ProcessPaymentResult{Outcome: PaymentRejected, Reason: reason}, nil
	}

	orderID, err := kernel.UUIDFromString(event.OrderRef())
	if err != nil {
		return reject("unknown order reference")
	}
	o, err := repo.Get(ctx, orderID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return reject("unknown order reference")
	}
	if err != nil {
		return ProcessPaymentResult{}, err
	}

	var applied bool
	switch event.Status() {
	case payment.StatusSucceeded:
		applied, err = o.ConfirmPayment(event.ProviderRef(), event.Amount(), now)
		if err == nil && !applied && o.PaymentRef() != event.ProviderRef() {
			// A second, distinct confirmation for a paid order needs a human.
			result, _ := reject("order already paid by " + o.PaymentRef())
			result.OrderID = &orderID
			return result, nil
		}
	case payment.StatusFailed:
		applied, err = o.FailPayment(now)
	default:
		return reject("unrecognized provider status")
	}

	if errors.Is(err, errs.ErrInvalidTransition) || errors.Is(err, errs.ErrValueIsInvalid) {
		result, _ := reject(err.Error())
		result.OrderID = &orderID
		return result, nil
	}
	if err != nil {
		return ProcessPaymentResult{}, err
	}

	event.MarkProcessed(now)
	if !applied {
		return ProcessPaymentResult{Outcome: PaymentIgnored, OrderID: &orderID}, nil
	}
	if err = repo.Update(ctx, o); err != nil {
		return ProcessPaymentResult{}, err
	}
	return ProcessPaymentResult{Outcome: PaymentApplied, OrderID: &orderID}, nil
}
