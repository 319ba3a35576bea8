package order

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/notification"
)

const (
	EventStatusChanged = "order.status_changed"
	EventPaymentFailed = "order.payment_failed"
)

type StatusChanged struct {
	OrderID       kernel.UUID   `json:"orderId"`
	Contact       string        `json:"-"`
	From          Status        `json:"from"`
	To            Status        `json:"to"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	DriverID      *kernel.UUID  `json:"driverId,omitempty"`
	At            time.Time     `json:"at"`
}

func (e StatusChanged) EventName() string {
	return EventStatusChanged
}

func (e StatusChanged) AggregateID() kernel.UUID {
	return e.OrderID
}

func (e StatusChanged) OccurredAt() time.Time {
	return e.At
}

func (e StatusChanged) NotificationTarget() string {
	return e.Contact
}

func (e StatusChanged) NotificationPayload() notification.Payload {
	return notification.Payload{
		Kind:    notification.KindOrderStatusChanged,
		OrderID: e.OrderID.String(),
		Status:  e.To.String(),
	}
}

type PaymentRejected struct {
	OrderID kernel.UUID `json:"orderId"`
	Contact string      `json:"-"`
	At      time.Time   `json:"at"`
}

func (e PaymentRejected) EventName() string {
	return EventPaymentFailed
}

func (e PaymentRejected) AggregateID() kernel.UUID {
	return e.OrderID
}

func (e PaymentRejected) OccurredAt() time.Time {
	return e.At
}

func (e PaymentRejected) NotificationTarget() string {
	return e.Contact
}

func (e PaymentRejected) NotificationPayload() notification.Payload {
	return notification.Payload{Kind: notification.KindPaymentFailed, OrderID: e.OrderID.String()}
}
