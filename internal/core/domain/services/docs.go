// Package services holds domain logic that spans aggregates. OrderDispatcher
// picks a driver for a paid order and produces the delivery task.
package services
