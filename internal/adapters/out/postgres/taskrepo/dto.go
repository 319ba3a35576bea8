// Package taskrepo persists driver tasks.
package taskrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/task"

	"github.com/google/uuid"
)

// TaskDTO is the row in the driver_tasks table. At most one row per order may
// hold an active status; migrations add the partial unique index for that.
type TaskDTO struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID `gorm:"type:uuid;not null;index"`
	DriverID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Status        string    `gorm:"type:varchar(16);not null"`
	Lat           *float64
	Lng           *float64
	LastGpsPing   *time.Time
	FailureReason string
	AssignedAt    time.Time `gorm:"not null"`
	PickedUpAt    *time.Time
	InTransitAt   *time.Time
	DeliveredAt   *time.Time
	FailedAt      *time.Time
	Version       int `gorm:"not null"`
}

func (TaskDTO) TableName() string {
	return "driver_tasks"
}

func fromDomain(t *task.Task) TaskDTO {
	s := t.Snapshot()

	dto := TaskDTO{
		ID:            s.ID.Bytes(),
		OrderID:       s.OrderID.Bytes(),
		DriverID:      s.DriverID.Bytes(),
		Status:        s.Status.String(),
		LastGpsPing:   s.LastGpsPing,
		FailureReason: s.FailureReason,
		AssignedAt:    s.Timestamps.AssignedAt,
		PickedUpAt:    s.Timestamps.PickedUpAt,
		InTransitAt:   s.Timestamps.InTransitAt,
		DeliveredAt:   s.Timestamps.DeliveredAt,
		FailedAt:      s.Timestamps.FailedAt,
		Version:       s.Version,
	}
	if s.Position != nil {
		lat, lng := s.Position.Lat(), s.Position.Lng()
		dto.Lat, dto.Lng = &lat, &lng
	}
	return dto
}

func toDomain(dto TaskDTO) (*task.Task, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}
	driverID, err := kernel.UUIDFromBytes(dto.DriverID[:])
	if err != nil {
		return nil, err
	}
	status, err := task.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	var position *kernel.GeoPoint
	if dto.Lat != nil && dto.Lng != nil {
		p, err := kernel.NewGeoPoint(*dto.Lat, *dto.Lng)
		if err != nil {
			return nil, err
		}
		position = &p
	}

	return task.Restore(task.Snapshot{
		ID:            id,
		OrderID:       orderID,
		DriverID:      driverID,
		Status:        status,
		Position:      position,
		LastGpsPing:   dto.LastGpsPing,
		FailureReason: dto.FailureReason,
		Timestamps: task.Timestamps{
			AssignedAt:  dto.AssignedAt,
			PickedUpAt:  dto.PickedUpAt,
			InTransitAt: dto.InTransitAt,
			DeliveredAt: dto.DeliveredAt,
			FailedAt:    dto.FailedAt,
		},
		Version: dto.Version,
	})
}

func toDomainList(dtos []TaskDTO) ([]*task.Task, error) {
	tasks := make([]*task.Task, 0, len(dtos))
	for _, dto := range dtos {
		t, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// ActiveStatusNames lists the stored values of active statuses.
func ActiveStatusNames() []string {
	names := make([]string, 0, len(task.ActiveStatuses))
	for _, s := range task.ActiveStatuses {
		names = append(names, s.String())
	}
	return names
}
