// Package paymentrepo is the idempotency ledger of provider payment events.
package paymentrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/payment"

	"github.com/google/uuid"
)

// PaymentEventDTO is the row in payment_events. provider_ref is unique: the
// first insert for a reference wins and every later one is a duplicate.
type PaymentEventDTO struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Provider    string    `gorm:"type:varchar(32);not null"`
	ProviderRef string    `gorm:"not null;uniqueIndex:ux_payment_events_provider_ref"`
	OrderRef    string    `gorm:"not null;index"`
	Amount      int64     `gorm:"not null"`
	Status      string    `gorm:"type:varchar(16);not null"`
	Payload     []byte    `gorm:"type:bytea"`
	Processed   bool      `gorm:"not null;index"`
	Rejection   string
	ReceivedAt  time.Time `gorm:"not null"`
	ProcessedAt *time.Time
}

func (PaymentEventDTO) TableName() string {
	return "payment_events"
}

func fromDomain(e *payment.Event) PaymentEventDTO {
	s := e.Snapshot()
	return PaymentEventDTO{
		ID:          s.ID.Bytes(),
		Provider:    s.Provider,
		ProviderRef: s.ProviderRef,
		OrderRef:    s.OrderRef,
		Amount:      s.Amount,
		Status:      s.Status.String(),
		Payload:     s.Payload,
		Processed:   s.Processed,
		Rejection:   s.Rejection,
		ReceivedAt:  s.ReceivedAt,
		ProcessedAt: s.ProcessedAt,
	}
}

// ToDomain is exported for the reconciliation query.
func ToDomain(dto PaymentEventDTO) (*payment.Event, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	status, err := payment.ParseProviderStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	return payment.Restore(payment.Snapshot{
		ID:          id,
		Provider:    dto.Provider,
		ProviderRef: dto.ProviderRef,
		OrderRef:    dto.OrderRef,
		Amount:      dto.Amount,
		Status:      status,
		Payload:     dto.Payload,
		Processed:   dto.Processed,
		Rejection:   dto.Rejection,
		ReceivedAt:  dto.ReceivedAt,
		ProcessedAt: dto.ProcessedAt,
	})
}
