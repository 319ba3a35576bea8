// Package orderrepo persists the order aggregate.
package orderrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO is the row in the orders table. Line items are kept as a jsonb
// document since they are never queried on their own.
type OrderDTO struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey"`
	CustomerRef     string        `gorm:"not null"`
	Contact         string        `gorm:"not null"`
	Items           []LineItemDTO `gorm:"type:jsonb;serializer:json;not null"`
	Total           int64         `gorm:"not null"`
	Status          string        `gorm:"type:varchar(16);not null;index:ix_orders_status_paid_at,priority:1"`
	PaymentStatus   string        `gorm:"type:varchar(16);not null"`
	PaymentRef      string
	DriverID        *uuid.UUID `gorm:"type:uuid;index"`
	PlacedAt        time.Time  `gorm:"not null"`
	PaidAt          *time.Time `gorm:"index:ix_orders_status_paid_at,priority:2"`
	PaymentFailedAt *time.Time
	AssignedAt      *time.Time
	PickedUpAt      *time.Time
	InTransitAt     *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	RefundedAt      *time.Time
	Version         int `gorm:"not null"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

type LineItemDTO struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

func fromDomain(o *order.Order) OrderDTO {
	s := o.Snapshot()

	items := make([]LineItemDTO, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, LineItemDTO{
			VariantID: item.VariantID(),
			Quantity:  item.Quantity(),
			UnitPrice: item.UnitPrice(),
		})
	}

	var driverID *uuid.UUID
	if s.DriverID != nil {
		raw := s.DriverID.Bytes()
		driverID = &raw
	}

	return OrderDTO{
		ID:              s.ID.Bytes(),
		CustomerRef:     s.CustomerRef,
		Contact:         s.Contact,
		Items:           items,
		Total:           o.Total(),
		Status:          s.Status.String(),
		PaymentStatus:   s.PaymentStatus.String(),
		PaymentRef:      s.PaymentRef,
		DriverID:        driverID,
		PlacedAt:        s.Timestamps.PlacedAt,
		PaidAt:          s.Timestamps.PaidAt,
		PaymentFailedAt: s.Timestamps.PaymentFailedAt,
		AssignedAt:      s.Timestamps.AssignedAt,
		PickedUpAt:      s.Timestamps.PickedUpAt,
		InTransitAt:     s.Timestamps.InTransitAt,
		DeliveredAt:     s.Timestamps.DeliveredAt,
		CancelledAt:     s.Timestamps.CancelledAt,
		RefundedAt:      s.Timestamps.RefundedAt,
		Version:         s.Version,
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var driverID *kernel.UUID
	if dto.DriverID != nil {
		dID, err := kernel.UUIDFromBytes((*dto.DriverID)[:])
		if err != nil {
			return nil, err
		}
		driverID = &dID
	}

	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}
	paymentStatus, err := order.ParsePaymentStatus(dto.PaymentStatus)
	if err != nil {
		return nil, err
	}

	items := make([]order.LineItem, 0, len(dto.Items))
	for _, in := range dto.Items {
		item, err := order.NewLineItem(in.VariantID, in.Quantity, in.UnitPrice)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return order.Restore(order.Snapshot{
		ID:            id,
		CustomerRef:   dto.CustomerRef,
		Contact:       dto.Contact,
		Items:         items,
		Status:        status,
		PaymentStatus: paymentStatus,
		DriverID:      driverID,
		PaymentRef:    dto.PaymentRef,
		Timestamps: order.Timestamps{
			PlacedAt:        dto.PlacedAt,
			PaidAt:          dto.PaidAt,
			PaymentFailedAt: dto.PaymentFailedAt,
			AssignedAt:      dto.AssignedAt,
			PickedUpAt:      dto.PickedUpAt,
			InTransitAt:     dto.InTransitAt,
			DeliveredAt:     dto.DeliveredAt,
			CancelledAt:     dto.CancelledAt,
			RefundedAt:      dto.RefundedAt,
		},
		Version: dto.Version,
	})
}
