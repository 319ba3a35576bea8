// Package order contains the Order aggregate and its state machine.
//
// An order moves PLACED → PAID → ASSIGNED → PICKED_UP → IN_TRANSIT → DELIVERED,
// can be CANCELLED before a driver holds it and REFUNDED once paid. Payment has
// its own status graph (PENDING → PAID | FAILED, FAILED → PAID, PAID → REFUNDED)
// and PAID payment is a precondition for every fulfillment state.
//
// Every accepted transition stamps its timestamp and records a StatusChanged
// event. Any undeclared move returns errs.InvalidTransitionError and leaves the
// aggregate untouched.
package order
