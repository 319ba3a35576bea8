package queries

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrListUnprocessedPaymentsQueryIsNotConstructed = errors.New(
	"ListUnprocessedPaymentsQuery must be created via NewListUnprocessedPaymentsQuery constructor",
)

// ListUnprocessedPaymentsQuery feeds payment reconciliation: events recorded
// in the ledger that never advanced an order, received before the cutoff.
type ListUnprocessedPaymentsQuery struct {
	receivedBefore time.Time
	limit          int
	guard          guard.ConstructorGuard
}

func NewListUnprocessedPaymentsQuery(receivedBefore time.Time, limit int) (ListUnprocessedPaymentsQuery, error) {
	if receivedBefore.IsZero() {
		return ListUnprocessedPaymentsQuery{}, errs.NewValueIsRequiredError("receivedBefore")
	}
	if limit <= 0 || limit > 1000 {
		return ListUnprocessedPaymentsQuery{}, errs.NewValueIsOutOfRangeError("limit", limit, 1, 1000)
	}
	return ListUnprocessedPaymentsQuery{
		receivedBefore: receivedBefore,
		limit:          limit,
		guard:          guard.NewConstructorGuard(),
	}, nil
}

func (q ListUnprocessedPaymentsQuery) Validate() error {
	return q.guard.Validate(ErrListUnprocessedPaymentsQueryIsNotConstructed)
}

func (q ListUnprocessedPaymentsQuery) ReceivedBefore() time.Time {
	return q.receivedBefore
}

func (q ListUnprocessedPaymentsQuery) Limit() int {
	return q.limit
}

type UnprocessedPayment struct {
	ID          kernel.UUID `json:"id"`
	Provider    string      `json:"provider"`
	ProviderRef string      `json:"providerRef"`
	OrderRef    string      `json:"orderRef"`
	Amount      int64       `json:"amount"`
	Status      string      `json:"status"`
	Rejection   string      `json:"rejection"`
	ReceivedAt  time.Time   `json:"receivedAt"`
}
