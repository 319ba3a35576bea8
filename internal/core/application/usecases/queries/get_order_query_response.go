package queries

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
)

type OrderLineItem struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

type ActiveTaskView struct {
	ID          kernel.UUID `json:"id"`
	DriverID    kernel.UUID `json:"driverId"`
	Status      string      `json:"status"`
	Lat         *float64    `json:"lat,omitempty"`
	Lng         *float64    `json:"lng,omitempty"`
	LastGpsPing *time.Time  `json:"lastGpsPing,omitempty"`
}

type GetOrderQueryResponse struct {
	ID            kernel.UUID     `json:"id"`
	CustomerRef   string          `json:"customerRef"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"paymentStatus"`
	Items         []OrderLineItem `json:"items"`
	Total         int64           `json:"total"`
	DriverID      *kernel.UUID    `json:"driverId,omitempty"`
	PlacedAt      time.Time       `json:"placedAt"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
	DeliveredAt   *time.Time      `json:"deliveredAt,omitempty"`
	Version       int             `json:"version"`
	ActiveTask    *ActiveTaskView `json:"activeTask,omitempty"`
}
