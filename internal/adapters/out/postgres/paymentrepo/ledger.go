package paymentrepo

import (
	"context"

	"fulfillment/internal/core/domain/model/payment"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentLedger implements ports.PaymentLedger. Admit relies on
// INSERT ... ON CONFLICT DO NOTHING: of two transactions racing on the same
// provider reference, the second blocks until the first finishes and then
// inserts nothing.
type GormPaymentLedger struct {
	db *gorm.DB
}

func NewGormPaymentLedger(db *gorm.DB) *GormPaymentLedger {
	return &GormPaymentLedger{db: db}
}

func (l *GormPaymentLedger) Admit(ctx context.Context, event *payment.Event) (payment.AdmitResult, error) {
	if err := event.Validate(); err != nil {
		return 0, err
	}

	dto := fromDomain(event)
	result := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_ref"}},
			DoNothing: true,
		}).
		Create(&dto)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return payment.Duplicate, nil
	}
	return payment.Fresh, nil
}

// Update records the processing outcome of an admitted event.
func (l *GormPaymentLedger) Update(ctx context.Context, event *payment.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	return l.db.WithContext(ctx).
		Model(&PaymentEventDTO{}).
		Where("id = ?", event.ID().Bytes()).
		Updates(map[string]any{
			"processed":    event.Processed(),
			"rejection":    event.Rejection(),
			"processed_at": event.ProcessedAt(),
		}).Error
}
