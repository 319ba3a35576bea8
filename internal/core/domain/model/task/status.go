package task

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

type Status int

const (
	Unknown Status = iota
	Assigned
	PickedUp
	InTransit
	Delivered
	Failed
)

var statusStrings = map[Status]string{
	Assigned:  "ASSIGNED",
	PickedUp:  "PICKED_UP",
	InTransit: "IN_TRANSIT",
	Delivered: "DELIVERED",
	Failed:    "FAILED",
}

// next lists the forward moves of the delivery chain; FAILED is reachable from
// every active state and handled separately.
var next = map[Status]Status{
	Assigned:  PickedUp,
	PickedUp:  InTransit,
	InTransit: Delivered,
}

// ActiveStatuses are the states in which a task counts towards a driver's load.
var ActiveStatuses = []Status{Assigned, PickedUp, InTransit}

func ParseStatus(s string) (Status, error) {
	for status, str := range statusStrings {
		if str == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid task status", s))
}

func (s Status) Validate() error {
	if _, ok := statusStrings[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid task status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := statusStrings[s]; ok {
		return str
	}
	return "UNKNOWN"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s Status) IsActive() bool {
	return s == Assigned || s == PickedUp || s == InTransit
}

func (s Status) IsTerminal() bool {
	return s == Delivered || s == Failed
}

// AdvanceTo validates a move along the delivery chain.
func (s Status) AdvanceTo(target Status) (Status, error) {
	if target == Failed && s.IsActive() {
		return Failed, nil
	}
	if n, ok := next[s]; ok && n == target {
		return target, nil
	}
	return Unknown, errs.NewInvalidTransitionError("task", s.String(), "advance to "+target.String())
}
