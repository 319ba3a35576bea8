// Package driver contains the Driver aggregate: a delivery driver with an
// activity flag, a count of active tasks (load) and the last reported position.
package driver
