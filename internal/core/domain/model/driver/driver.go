package driver

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrNameIsRequired         = errs.NewValueIsRequiredError("name")
	ErrContactIsRequired      = errs.NewValueIsRequiredError("contact")
	ErrDriverIsNotConstructed = errors.New("Driver must be created via NewDriver or Restore constructor")
	ErrLoadCapReached         = fmt.Errorf("%w: driver load cap reached", errs.ErrNoDriverAvailable)
	ErrDriverInactive         = fmt.Errorf("%w: driver is inactive", errs.ErrNoDriverAvailable)
)

type Snapshot struct {
	ID          kernel.UUID
	Name        string
	Contact     string
	Active      bool
	Load        int
	Position    *kernel.GeoPoint
	LastGpsPing *time.Time
	Version     int
}

type Driver struct {
	id          kernel.UUID
	name        string
	contact     string
	active      bool
	load        int
	position    *kernel.GeoPoint
	lastGpsPing *time.Time
	version     int
	guard       guard.ConstructorGuard
}

// NewDriver registers an active driver with no tasks.
func NewDriver(id kernel.UUID, name, contact string) (*Driver, error) {
	d := &Driver{
		active: true,
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		d.setID(id),
		d.setName(name),
		d.setContact(contact),
	); err != nil {
		return nil, err
	}

	return d, nil
}

func Restore(s Snapshot) (*Driver, error) {
	d := &Driver{
		active:      s.Active,
		position:    s.Position,
		lastGpsPing: s.LastGpsPing,
		version:     s.Version,
		guard:       guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		d.setID(s.ID),
		d.setName(s.Name),
		d.setContact(s.Contact),
		d.setLoad(s.Load),
	); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Driver) IsEqual(other *Driver) bool {
	if other == nil {
		return false
	}
	return d.id.IsEqual(other.id)
}

func (d *Driver) Validate() error {
	if d == nil {
		return ErrDriverIsNotConstructed
	}
	return d.guard.Validate(ErrDriverIsNotConstructed)
}

func (d *Driver) ID() kernel.UUID {
	return d.id
}

func (d *Driver) Name() string {
	return d.name
}

func (d *Driver) Contact() string {
	return d.contact
}

func (d *Driver) IsActive() bool {
	return d.active
}

func (d *Driver) Load() int {
	return d.load
}

func (d *Driver) Position() *kernel.GeoPoint {
	return d.position
}

func (d *Driver) LastGpsPing() *time.Time {
	return d.lastGpsPing
}

func (d *Driver) Version() int {
	return d.version
}

func (d *Driver) Snapshot() Snapshot {
	return Snapshot{
		ID:          d.id,
		Name:        d.name,
		Contact:     d.contact,
		Active:      d.active,
		Load:        d.load,
		Position:    d.position,
		LastGpsPing: d.lastGpsPing,
		Version:     d.version,
	}
}

// MarkSaved is called by the repository after a successful conditional write.
func (d *Driver) MarkSaved() {
	d.version++
}

func (d *Driver) Activate() {
	d.active = true
}

func (d *Driver) Deactivate() {
	d.active = false
}

func (d *Driver) CanTakeTask(loadCap int) bool {
	return d.active && d.load < loadCap
}

func (d *Driver) TakeTask(loadCap int) error {
	if !d.active {
		return ErrDriverInactive
	}
	if d.load >= loadCap {
		return ErrLoadCapReached
	}
	d.load++
	return nil
}

// ForceTakeTask is used by manual assignment, which bypasses the selection
// policy and the load cap but never an inactive driver.
func (d *Driver) ForceTakeTask() error {
	if !d.active {
		return ErrDriverInactive
	}
	d.load++
	return nil
}

// ReleaseTask is called when one of the driver's tasks reaches a terminal state.
func (d *Driver) ReleaseTask() {
	if d.load > 0 {
		d.load--
	}
}

// RecordPosition stamps the driver's last known position. Stale pings are
// ignored and reported as false.
func (d *Driver) RecordPosition(p kernel.GeoPoint, at time.Time) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	if d.lastGpsPing != nil && at.Before(*d.lastGpsPing) {
		return false, nil
	}
	d.position = &p
	d.lastGpsPing = &at
	return true, nil
}

func (d *Driver) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	d.id = id
	return nil
}

func (d *Driver) setName(name string) error {
	if name == "" {
		return ErrNameIsRequired
	}
	d.name = name
	return nil
}

func (d *Driver) setContact(contact string) error {
	if contact == "" {
		return ErrContactIsRequired
	}
	d.contact = contact
	return nil
}

func (d *Driver) setLoad(load int) error {
	if load < 0 {
		return errs.NewValueIsOutOfRangeError("load", load, 0, "unbounded")
	}
	d.load = load
	return nil
}
