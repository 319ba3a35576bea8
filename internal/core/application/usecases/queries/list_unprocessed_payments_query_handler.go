package queries

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ListUnprocessedPaymentsQueryHandler struct {
	db *gorm.DB
}

func NewListUnprocessedPaymentsQueryHandler(db *gorm.DB) ListUnprocessedPaymentsQueryHandler {
	return ListUnprocessedPaymentsQueryHandler{db: db}
}

// Handle returns unprocessed events oldest first.
func (h ListUnprocessedPaymentsQueryHandler) Handle(
	ctx context.Context,
	query ListUnprocessedPaymentsQuery,
) ([]UnprocessedPayment, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	payments := make([]UnprocessedPayment, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			provider,
			provider_ref,
			order_ref,
			amount,
			status,
			COALESCE(rejection, ''),
			received_at
		FROM payment_events
		WHERE NOT processed AND received_at < ?
		ORDER BY received_at, id
		LIMIT ?
	`, query.ReceivedBefore(), query.Limit()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p  UnprocessedPayment
			id uuid.UUID
		)
		err = rows.Scan(&id, &p.Provider, &p.ProviderRef, &p.OrderRef, &p.Amount, &p.Status, &p.Rejection, &p.ReceivedAt)
		if err != nil {
			return nil, err
		}
		if p.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}
