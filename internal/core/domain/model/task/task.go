package task

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

// ErrTaskIsNotConstructed is returned by Validate for a Task built as a
// struct literal instead of through NewTask or Restore.
var ErrTaskIsNotConstructed = errors.New("Task must be created via NewTask or Restore constructor")

// Timestamps records when the task entered each status.
type Timestamps struct {
	AssignedAt  time.Time
	PickedUpAt  *time.Time
	InTransitAt *time.Time
	DeliveredAt *time.Time
	FailedAt    *time.Time
}

// Snapshot is the persisted form of a Task.
type Snapshot struct {
	ID            kernel.UUID
	OrderID       kernel.UUID
	DriverID      kernel.UUID
	Status        Status
	Position      *kernel.GeoPoint
	LastGpsPing   *time.Time
	FailureReason string
	Timestamps    Timestamps
	Version       int
}

// Task is one driver's assignment to deliver one order. It is the aggregate
// the Delivery Tracker mutates: GPS pings move its position and the driver
// advances it along ASSIGNED -> PICKED_UP -> IN_TRANSIT -> DELIVERED.
//
// Task keeps these invariants:
//   - Status only moves forward; FAILED is reachable from any active status
//   - DELIVERED and FAILED are terminal: no further transition and no
//     position update
//   - lastGpsPing never moves backwards, so a ping delivered late cannot
//     overwrite a newer position
//   - At most one active task exists per order (enforced by a partial
//     unique index in storage)
//
// The matching order transition and the driver's load are handled by the
// command that advances the task, in the same unit of work.
type Task struct {
	id            kernel.UUID
	orderID       kernel.UUID
	driverID      kernel.UUID
	status        Status
	position      *kernel.GeoPoint
	lastGpsPing   *time.Time
	failureReason string
	timestamps    Timestamps
	version       int
	events        kernel.EventRecorder
	guard         guard.ConstructorGuard
}

// NewTask creates an ASSIGNED task and records its first StatusChanged
// event.
//
// Example:
//
//	tk, err := task.NewTask(kernel.NewUUID(), o.ID(), d.ID(), now)
//	if err != nil {
//	    return err
//	}
//	if err = o.Assign(d.ID(), now); err != nil {
//	    return err
//	}
func NewTask(id, orderID, driverID kernel.UUID, at time.Time) (*Task, error) {
	if err := errors.Join(id.Validate(), orderID.Validate(), driverID.Validate()); err != nil {
		return nil, err
	}

	t := &Task{
		id:         id,
		orderID:    orderID,
		driverID:   driverID,
		status:     Assigned,
		timestamps: Timestamps{AssignedAt: at},
		guard:      guard.NewConstructorGuard(),
	}
	t.events.Record(StatusChanged{
		TaskID: id, OrderID: orderID, DriverID: driverID, From: Unknown, To: Assigned, At: at,
	})
	return t, nil
}

// Restore rebuilds a task from storage without recording events.
func Restore(s Snapshot) (*Task, error) {
	if err := errors.Join(
		s.ID.Validate(),
		s.OrderID.Validate(),
		s.DriverID.Validate(),
		s.Status.Validate(),
	); err != nil {
		return nil, err
	}
	if s.Position != nil {
		if err := s.Position.Validate(); err != nil {
			return nil, err
		}
	}
	if s.Version < 0 {
		return nil, errs.NewVersionIsInvalidError("version", fmt.Errorf("%d is negative", s.Version))
	}

	return &Task{
		id:            s.ID,
		orderID:       s.OrderID,
		driverID:      s.DriverID,
		status:        s.Status,
		position:      s.Position,
		lastGpsPing:   s.LastGpsPing,
		failureReason: s.FailureReason,
		timestamps:    s.Timestamps,
		version:       s.Version,
		guard:         guard.NewConstructorGuard(),
	}, nil
}

func (t *Task) Validate() error {
	if t == nil {
		return ErrTaskIsNotConstructed
	}
	return t.guard.Validate(ErrTaskIsNotConstructed)
}

func (t *Task) ID() kernel.UUID {
	return t.id
}

func (t *Task) OrderID() kernel.UUID {
	return t.orderID
}

func (t *Task) DriverID() kernel.UUID {
	return t.driverID
}

func (t *Task) Status() Status {
	return t.status
}

func (t *Task) Position() *kernel.GeoPoint {
	return t.position
}

func (t *Task) LastGpsPing() *time.Time {
	return t.lastGpsPing
}

func (t *Task) FailureReason() string {
	return t.failureReason
}

func (t *Task) Timestamps() Timestamps {
	return t.timestamps
}

func (t *Task) Version() int {
	return t.version
}

func (t *Task) IsActive() bool {
	return t.status.IsActive()
}

// BelongsTo reports whether driverID is the assigned driver.
func (t *Task) BelongsTo(driverID kernel.UUID) bool {
	return t.driverID.IsEqual(driverID)
}

func (t *Task) Snapshot() Snapshot {
	return Snapshot{
		ID:            t.id,
		OrderID:       t.orderID,
		DriverID:      t.driverID,
		Status:        t.status,
		Position:      t.position,
		LastGpsPing:   t.lastGpsPing,
		FailureReason: t.failureReason,
		Timestamps:    t.timestamps,
		Version:       t.version,
	}
}

func (t *Task) DomainEvents() []kernel.DomainEvent {
	return t.events.DomainEvents()
}

func (t *Task) ClearDomainEvents() {
	t.events.ClearDomainEvents()
}

// MarkSaved is called by the repository after a successful conditional write.
func (t *Task) MarkSaved() {
	t.version++
}

// Advance moves the task along the delivery chain. FAILED goes through Fail.
func (t *Task) Advance(target Status, at time.Time) error {
	if target == Failed {
		return t.Fail("", at)
	}
	nextStatus, err := t.status.AdvanceTo(target)
	if err != nil {
		return err
	}

	switch nextStatus {
	case PickedUp:
		t.timestamps.PickedUpAt = &at
	case InTransit:
		t.timestamps.InTransitAt = &at
	case Delivered:
		t.timestamps.DeliveredAt = &at
	default:
	}
	t.moveTo(nextStatus, "", at)
	return nil
}

// Fail ends an active task. The reason is kept for the admin views and
// travels on the StatusChanged event, which escalates the customer's
// conversation.
func (t *Task) Fail(reason string, at time.Time) error {
	if _, err := t.status.AdvanceTo(Failed); err != nil {
		return err
	}
	t.failureReason = reason
	t.timestamps.FailedAt = &at
	t.moveTo(Failed, reason, at)
	return nil
}

// RecordPosition applies a GPS ping. Pings for terminal tasks and pings older
// than the last applied one are ignored and reported as false.
func (t *Task) RecordPosition(p kernel.GeoPoint, at time.Time) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	if !t.status.IsActive() {
		return false, nil
	}
	if t.lastGpsPing != nil && at.Before(*t.lastGpsPing) {
		return false, nil
	}

	t.position = &p
	t.lastGpsPing = &at
	return true, nil
}

func (t *Task) moveTo(status Status, reason string, at time.Time) {
	from := t.status
	t.status = status
	t.events.Record(StatusChanged{
		TaskID:   t.id,
		OrderID:  t.orderID,
		DriverID: t.driverID,
		From:     from,
		To:       status,
		Reason:   reason,
		At:       at,
	})
}
