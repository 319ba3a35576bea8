// Package task models the delivery task a driver holds for one order.
//
// A task moves ASSIGNED → PICKED_UP → IN_TRANSIT → DELIVERED, and can FAIL from
// any active state. DELIVERED and FAILED are terminal: a terminal task never
// re-enters an active state and ignores GPS pings.
package task
