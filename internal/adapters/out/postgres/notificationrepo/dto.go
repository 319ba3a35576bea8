// Package notificationrepo is the outbox of customer notifications.
package notificationrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/notification"

	"github.com/google/uuid"
)

type JobDTO struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrderID       *uuid.UUID `gorm:"type:uuid;index"`
	Target        string     `gorm:"not null"`
	Payload       []byte     `gorm:"type:bytea;not null"`
	Attempts      int        `gorm:"not null"`
	Status        string     `gorm:"type:varchar(16);not null;index:ix_notification_jobs_due,priority:1"`
	NextAttemptAt time.Time  `gorm:"not null;index:ix_notification_jobs_due,priority:2"`
	LastError     string
	CreatedAt     time.Time `gorm:"not null"`
	SentAt        *time.Time
	Version       int `gorm:"not null"`
}

func (JobDTO) TableName() string {
	return "notification_jobs"
}

func fromDomain(j *notification.Job) JobDTO {
	s := j.Snapshot()

	var orderID *uuid.UUID
	if s.OrderID != nil {
		raw := s.OrderID.Bytes()
		orderID = &raw
	}

	return JobDTO{
		ID:            s.ID.Bytes(),
		OrderID:       orderID,
		Target:        s.Target,
		Payload:       s.Payload,
		Attempts:      s.Attempts,
		Status:        s.Status.String(),
		NextAttemptAt: s.NextAttemptAt,
		LastError:     s.LastError,
		CreatedAt:     s.CreatedAt,
		SentAt:        s.SentAt,
		Version:       s.Version,
	}
}

func toDomain(dto JobDTO) (*notification.Job, error) {
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

	status, err := notification.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	return notification.RestoreJob(notification.Snapshot{
		ID:            id,
		OrderID:       orderID,
		Target:        dto.Target,
		Payload:       dto.Payload,
		Attempts:      dto.Attempts,
		Status:        status,
		NextAttemptAt: dto.NextAttemptAt,
		LastError:     dto.LastError,
		CreatedAt:     dto.CreatedAt,
		SentAt:        dto.SentAt,
		Version:       dto.Version,
	})
}
