// Package conversationrepo persists support conversations.
package conversationrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/conversation"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

type ConversationDTO struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID        *string    `gorm:"index"`
	OrderID       *uuid.UUID `gorm:"type:uuid;index"`
	Status        string     `gorm:"type:varchar(16);not null"`
	LastMessageAt *time.Time
	UnreadCount   int `gorm:"not null"`
	Version       int `gorm:"not null"`
}

func (ConversationDTO) TableName() string {
	return "conversations"
}

func fromDomain(c *conversation.Conversation) ConversationDTO {
	s := c.Snapshot()

	var orderID *uuid.UUID
	if s.OrderID != nil {
		raw := s.OrderID.Bytes()
		orderID = &raw
	}

	return ConversationDTO{
		ID:            s.ID.Bytes(),
		UserID:        s.UserID,
		OrderID:       orderID,
		Status:        s.Status.String(),
		LastMessageAt: s.LastMessageAt,
		UnreadCount:   s.UnreadCount,
		Version:       s.Version,
	}
}

func toDomain(dto ConversationDTO) (*conversation.Conversation, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var orderID *kernel.UUID
	if dto.OrderID != nil {
		oID, err := kernel.UUIDFromBytes((*dto.OrderID)[:])
		if err != nil {
			return nil, err
		}
		orderID = &oID
	}

	status, err := conversation.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	return conversation.Restore(conversation.Snapshot{
		ID:            id,
		UserID:        dto.UserID,
		OrderID:       orderID,
		Status:        status,
		LastMessageAt: dto.LastMessageAt,
		UnreadCount:   dto.UnreadCount,
		Version:       dto.Version,
	})
}
