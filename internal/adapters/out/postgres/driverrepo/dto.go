// Package driverrepo persists drivers and their task load.
package driverrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

type DriverDTO struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"not null"`
	Contact     string    `gorm:"not null"`
	Active      bool      `gorm:"not null;index:ix_drivers_active_load,priority:1"`
	Load        int       `gorm:"column:task_load;not null;check:chk_drivers_task_load,task_load >= 0;index:ix_drivers_active_load,priority:2"`
	Lat         *float64
	Lng         *float64
	LastGpsPing *time.Time
	Version     int `gorm:"not null"`
}

func (DriverDTO) TableName() string {
	return "drivers"
}

func fromDomain(d *driver.Driver) DriverDTO {
	s := d.Snapshot()

	dto := DriverDTO{
		ID:          s.ID.Bytes(),
		Name:        s.Name,
		Contact:     s.Contact,
		Active:      s.Active,
		Load:        s.Load,
		LastGpsPing: s.LastGpsPing,
		Version:     s.Version,
	}
	if s.Position != nil {
		lat, lng := s.Position.Lat(), s.Position.Lng()
		dto.Lat, dto.Lng = &lat, &lng
	}
	return dto
}

func toDomain(dto DriverDTO) (*driver.Driver, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
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

	return driver.Restore(driver.Snapshot{
		ID:          id,
		Name:        dto.Name,
		Contact:     dto.Contact,
		Active:      dto.Active,
		Load:        dto.Load,
		Position:    position,
		LastGpsPing: dto.LastGpsPing,
		Version:     dto.Version,
	})
}
