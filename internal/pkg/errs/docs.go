// Package errs provides the error types shared by the fulfillment application.
//
// Every error kind follows the same pattern:
//   - a sentinel error variable (e.g. ErrValueIsRequired) used with errors.Is
//   - a struct type carrying the details of the failure
//   - constructors with and without a cause
//   - an Error method producing a single-line message
//   - an Unwrap method returning the sentinel
//
// Validation kinds (ValueIsRequired, ValueIsInvalid, ValueIsOutOfRange,
// ObjectNotFound) are raised by domain constructors and repositories.
// Orchestration kinds (InvalidTransition, DuplicateEvent, NoDriverAvailable,
// TransportFailure, MalformedPayload, ConcurrentConflict, Forbidden) are raised
// by state machines, the idempotency ledger, the dispatcher and the messaging
// transports, and are mapped to HTTP statuses by the inbound adapter.
package errs
