package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/payment"
)

// PaymentLedger is the idempotency ledger for provider payment events.
type PaymentLedger interface {
	// Admit records the event unless its provider reference was seen before.
	// It must run in the same transaction as the order mutation it guards.
	Admit(ctx context.Context, event *payment.Event) (payment.AdmitResult, error)

	// Update writes the processed mark or the rejection reason.
	Update(ctx context.Context, event *payment.Event) error
}
