package order

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

type Status int

const (
	Unknown Status = iota
	Placed
	Paid
	Assigned
	PickedUp
	InTransit
	Delivered
	Cancelled
	Refunded
)

var statusStrings = map[Status]string{
	Placed:    "PLACED",
	Paid:      "PAID",
	Assigned:  "ASSIGNED",
	PickedUp:  "PICKED_UP",
	InTransit: "IN_TRANSIT",
	Delivered: "DELIVERED",
	Cancelled: "CANCELLED",
	Refunded:  "REFUNDED",
}

// Action names an order transition.
type Action string

const (
	ActionConfirmPayment  Action = "confirm payment"
	ActionAssign          Action = "assign"
	ActionReassign        Action = "reassign"
	ActionConfirmPickup   Action = "confirm pickup"
	ActionStartTransit    Action = "start transit"
	ActionConfirmDelivery Action = "confirm delivery"
	ActionCancel          Action = "cancel"
	ActionRefund          Action = "refund"
)

// transitions is the complete table of declared moves. Anything absent is invalid.
var transitions = map[Action]map[Status]Status{
	ActionConfirmPayment:  {Placed: Paid},
	ActionAssign:          {Paid: Assigned},
	ActionReassign:        {Assigned: Assigned},
	ActionConfirmPickup:   {Assigned: PickedUp},
	ActionStartTransit:    {PickedUp: InTransit},
	ActionConfirmDelivery: {InTransit: Delivered},
	ActionCancel:          {Placed: Cancelled, Paid: Cancelled},
	ActionRefund:          {Paid: Refunded, Assigned: Refunded, PickedUp: Refunded, InTransit: Refunded},
}

func ParseStatus(s string) (Status, error) {
	for status, str := range statusStrings {
		if str == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status", s))
}

func (s Status) Validate() error {
	if _, ok := statusStrings[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
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

func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled || s == Refunded
}

// IsFulfillment reports whether the order is held by a driver or delivered,
// which requires PAID payment.
func (s Status) IsFulfillment() bool {
	return s == Paid || s == Assigned || s == PickedUp || s == InTransit || s == Delivered
}

func (s Status) Can(a Action) bool {
	_, ok := transitions[a][s]
	return ok
}

// Apply returns the state reached by a from s.
func (s Status) Apply(a Action) (Status, error) {
	next, ok := transitions[a][s]
	if !ok {
		return Unknown, errs.NewInvalidTransitionError("order", s.String(), string(a))
	}
	return next, nil
}
