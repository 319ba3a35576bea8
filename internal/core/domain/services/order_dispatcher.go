package services

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/driver"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/task"
	"fulfillment/internal/pkg/errs"
)

const DefaultLoadCap = 3

// OrderDispatcher assigns orders to drivers. Among active drivers below the
// load cap it prefers the least loaded, then the most recent GPS ping (drivers
// that never pinged come last), then the lowest driver id.
type OrderDispatcher struct {
	loadCap int
}

func NewOrderDispatcher(loadCap int) OrderDispatcher {
	if loadCap < 1 {
		loadCap = DefaultLoadCap
	}
	return OrderDispatcher{loadCap: loadCap}
}

func (d OrderDispatcher) LoadCap() int {
	return d.loadCap
}

// Dispatch selects a driver, takes one unit of its load, assigns the order and
// creates the task. All three aggregates are mutated only when every step succeeds.
func (d OrderDispatcher) Dispatch(o *order.Order, drivers []*driver.Driver, at time.Time) (*task.Task, *driver.Driver, error) {
	if err := o.Validate(); err != nil {
		return nil, nil, err
	}
	if !o.Status().Can(order.ActionAssign) {
		return nil, nil, errs.NewInvalidTransitionError("order", o.Status().String(), string(order.ActionAssign))
	}

	best, err := d.SelectDriver(drivers)
	if err != nil {
		return nil, nil, err
	}

	t, err := task.NewTask(kernel.NewUUID(), o.ID(), best.ID(), at)
	if err != nil {
		return nil, nil, err
	}
	if err = o.Assign(best.ID(), at); err != nil {
		return nil, nil, err
	}
	if err = best.TakeTask(d.loadCap); err != nil {
		return nil, nil, err
	}

	return t, best, nil
}

// DispatchTo is the manual override: it bypasses the selection policy and the
// load cap, but not the order transition table.
func (d OrderDispatcher) DispatchTo(o *order.Order, drv *driver.Driver, at time.Time) (*task.Task, error) {
	if err := errors.Join(o.Validate(), drv.Validate()); err != nil {
		return nil, err
	}
	if !drv.IsActive() {
		return nil, driver.ErrDriverInactive
	}

	t, err := task.NewTask(kernel.NewUUID(), o.ID(), drv.ID(), at)
	if err != nil {
		return nil, err
	}

	switch {
	case o.Status().Can(order.ActionAssign):
		err = o.Assign(drv.ID(), at)
	case o.Status().Can(order.ActionReassign):
		err = o.Reassign(drv.ID(), at)
	default:
		err = errs.NewInvalidTransitionError("order", o.Status().String(), string(order.ActionAssign))
	}
	if err != nil {
		return nil, err
	}
	if err = drv.ForceTakeTask(); err != nil {
		return nil, err
	}

	return t, nil
}

func (d OrderDispatcher) SelectDriver(drivers []*driver.Driver) (*driver.Driver, error) {
	var best *driver.Driver

	for _, c := range drivers {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if !c.CanTakeTask(d.loadCap) {
			continue
		}
		if best == nil || better(c, best) {
			best = c
		}
	}

	if best == nil {
		return nil, errs.ErrNoDriverAvailable
	}
	return best, nil
}

func better(a, b *driver.Driver) bool {
	if a.Load() != b.Load() {
		return a.Load() < b.Load()
	}

	pa, pb := a.LastGpsPing(), b.LastGpsPing()
	switch {
	case pa != nil && pb == nil:
		return true
	case pa == nil && pb != nil:
		return false
	case pa != nil && pb != nil && !pa.Equal(*pb):
		return pa.After(*pb)
	}

	return a.ID().Less(b.ID())
}
