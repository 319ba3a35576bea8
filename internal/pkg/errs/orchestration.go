package errs

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrDuplicateEvent     = errors.New("duplicate event")
	ErrNoDriverAvailable  = errors.New("no driver available")
	ErrTransportFailure   = errors.New("transport failure")
	ErrMalformedPayload   = errors.New("malformed payload")
	ErrConcurrentConflict = errors.New("concurrent conflict")
	ErrForbidden          = errors.New("forbidden")
)

// InvalidTransitionError is returned by state machines when the requested
// move is not declared for the current state. The entity is left unchanged.
type InvalidTransitionError struct {
	Entity string
	From   string
	Action string
}

func NewInvalidTransitionError(entity, from, action string) *InvalidTransitionError {
	return &InvalidTransitionError{Entity: entity, From: from, Action: action}
}

func (e *InvalidTransitionError) Error() string {
	return sanitize(fmt.Sprintf("%s: %s cannot %s from %s", ErrInvalidTransition, e.Entity, e.Action, e.From))
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

type DuplicateEventError struct {
	Reference string
}

func NewDuplicateEventError(reference string) *DuplicateEventError {
	return &DuplicateEventError{Reference: reference}
}

func (e *DuplicateEventError) Error() string {
	return sanitize(fmt.Sprintf("%s: %s", ErrDuplicateEvent, e.Reference))
}

func (e *DuplicateEventError) Unwrap() error {
	return ErrDuplicateEvent
}

// TransportFailureError is a retryable delivery failure. Both the sentinel and
// the underlying cause are reachable through errors.Is / errors.As.
type TransportFailureError struct {
	Destination string
	Cause       error
}

func NewTransportFailureError(destination string, cause error) *TransportFailureError {
	return &TransportFailureError{Destination: destination, Cause: cause}
}

func (e *TransportFailureError) Error() string {
	if e.Cause != nil {
		return sanitize(fmt.Sprintf("%s: %s (cause: %v)", ErrTransportFailure, e.Destination, e.Cause))
	}
	return sanitize(fmt.Sprintf("%s: %s", ErrTransportFailure, e.Destination))
}

func (e *TransportFailureError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrTransportFailure}
	}
	return []error{ErrTransportFailure, e.Cause}
}

// MalformedPayloadError is never retried.
type MalformedPayloadError struct {
	Reason string
	Cause  error
}

func NewMalformedPayloadError(reason string) *MalformedPayloadError {
	return &MalformedPayloadError{Reason: reason}
}

func NewMalformedPayloadErrorWithCause(reason string, cause error) *MalformedPayloadError {
	return &MalformedPayloadError{Reason: reason, Cause: cause}
}

func (e *MalformedPayloadError) Error() string {
	if e.Cause != nil {
		return sanitize(fmt.Sprintf("%s: %s (cause: %v)", ErrMalformedPayload, e.Reason, e.Cause))
	}
	return sanitize(fmt.Sprintf("%s: %s", ErrMalformedPayload, e.Reason))
}

func (e *MalformedPayloadError) Unwrap() error {
	return ErrMalformedPayload
}

// ConcurrentConflictError is returned by repositories when a conditional
// write matched no row because another writer bumped the version first.
type ConcurrentConflictError struct {
	Entity string
	ID     any
}

func NewConcurrentConflictError(entity string, id any) *ConcurrentConflictError {
	return &ConcurrentConflictError{Entity: entity, ID: id}
}

func (e *ConcurrentConflictError) Error() string {
	return sanitize(fmt.Sprintf("%s: %s %v was modified concurrently", ErrConcurrentConflict, e.Entity, e.ID))
}

func (e *ConcurrentConflictError) Unwrap() error {
	return ErrConcurrentConflict
}

type ForbiddenError struct {
	Reason string
}

func NewForbiddenError(reason string) *ForbiddenError {
	return &ForbiddenError{Reason: reason}
}

func (e *ForbiddenError) Error() string {
	return sanitize(fmt.Sprintf("%s: %s", ErrForbidden, e.Reason))
}

func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}
