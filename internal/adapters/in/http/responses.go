package http

import (
	"time"

	"fulfillment/internal/core/domain/model/conversation"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/task"
)

type orderResponse struct {
	ID            kernel.UUID  `json:"id"`
	Status        string       `json:"status"`
	PaymentStatus string       `json:"paymentStatus"`
	Total         int64        `json:"total"`
	DriverID      *kernel.UUID `json:"driverId,omitempty"`
	PlacedAt      time.Time    `json:"placedAt"`
	Version       int          `json:"version"`
}

func toOrderResponse(o *order.Order) orderResponse {
	return orderResponse{
		ID:            o.ID(),
		Status:        o.Status().String(),
		PaymentStatus: o.PaymentStatus().String(),
		Total:         o.Total(),
		DriverID:      o.DriverID(),
		PlacedAt:      o.Timestamps().PlacedAt,
		Version:       o.Version(),
	}
}

type taskResponse struct {
	ID            kernel.UUID `json:"id"`
	OrderID       kernel.UUID `json:"orderId"`
	DriverID      kernel.UUID `json:"driverId"`
	Status        string      `json:"status"`
	FailureReason string      `json:"failureReason,omitempty"`
	AssignedAt    time.Time   `json:"assignedAt"`
	Version       int         `json:"version"`
}

func toTaskResponse(t *task.Task) taskResponse {
	return taskResponse{
		ID:            t.ID(),
		OrderID:       t.OrderID(),
		DriverID:      t.DriverID(),
		Status:        t.Status().String(),
		FailureReason: t.FailureReason(),
		AssignedAt:    t.Timestamps().AssignedAt,
		Version:       t.Version(),
	}
}

type conversationResponse struct {
	ID            kernel.UUID  `json:"id"`
	UserID        *string      `json:"userId,omitempty"`
	OrderID       *kernel.UUID `json:"orderId,omitempty"`
	Status        string       `json:"status"`
	LastMessageAt *time.Time   `json:"lastMessageAt,omitempty"`
	UnreadCount   int          `json:"unreadCount"`
	Version       int          `json:"version"`
}

func toConversationResponse(c *conversation.Conversation) conversationResponse {
	return conversationResponse{
		ID:            c.ID(),
		UserID:        c.UserID(),
		OrderID:       c.OrderID(),
		Status:        c.Status().String(),
		LastMessageAt: c.LastMessageAt(),
		UnreadCount:   c.UnreadCount(),
		Version:       c.Version(),
	}
}
