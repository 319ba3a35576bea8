package task

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
)

const EventStatusChanged = "task.status_changed"

type StatusChanged struct {
	TaskID   kernel.UUID `json:"taskId"`
	OrderID  kernel.UUID `json:"orderId"`
	DriverID kernel.UUID `json:"driverId"`
	From     Status      `json:"from"`
	To       Status      `json:"to"`
	Reason   string      `json:"reason,omitempty"`
	At       time.Time   `json:"at"`
}

func (e StatusChanged) EventName() string {
	return EventStatusChanged
}

func (e StatusChanged) AggregateID() kernel.UUID {
	return e.TaskID
}

func (e StatusChanged) OccurredAt() time.Time {
	return e.At
}
