package kernel

import (
	"fmt"

	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
)

// ErrUUIDIsNotConstructed is returned by Validate for the zero UUID, which
// no constructor produces.
var ErrUUIDIsNotConstructed = errs.NewValueIsRequiredError(
	"UUID must be created via NewUUID, UUIDFromString, or UUIDFromBytes")

// UUID is the identifier value object shared by every aggregate: orders,
// driver tasks, drivers, conversations and notification jobs. It wraps
// github.com/google/uuid so the domain never handles the nil UUID by accident.
//
// The zero value is invalid. Build one with NewUUID for new aggregates, with
// UUIDFromString for identifiers arriving over HTTP or in payment metadata,
// and with UUIDFromBytes when restoring rows.
//
// UUID is immutable and safe for concurrent use.
//
// Example usage:
//
//	// A fresh identifier for a placed order
//	orderID := kernel.NewUUID()
//
//	// An identifier taken from a Stripe PaymentIntent's metadata
//	orderID, err := kernel.UUIDFromString(intent.Metadata["order_id"])
//	if err != nil {
//	    return errs.NewValueIsInvalidErrorWithCause("order_id", err)
//	}
//
//	// Comparing the driver on a task with the authenticated driver
//	if !tk.DriverID().IsEqual(driverID) {
//	    return errs.NewForbiddenError("task belongs to another driver")
//	}
type UUID struct {
	id uuid.UUID
}

// NewUUID generates a random (version 4) identifier. It is how every new
// aggregate gets its id.
//
// Example:
//
//	d, err := driver.NewDriver(kernel.NewUUID(), "Ana", "+15550100")
func NewUUID() UUID {
	return UUID{id: uuid.New()}
}

// UUIDFromString parses the textual forms google/uuid understands:
//   - "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
//   - "{6ba7b810-9dad-11d1-80b4-00c04fd430c8}"
//   - "urn:uuid:6ba7b810-9dad-11d1-80b4-00c04fd430c8"
//
// The nil UUID parses without error here; callers that require a real
// identifier follow up with Validate, as command constructors do.
//
// Example:
//
//	taskID, err := kernel.UUIDFromString(c.Param("taskId"))
//	if err != nil {
//	    return fmt.Errorf("invalid task ID: %w", err)
//	}
func UUIDFromString(s string) (UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, fmt.Errorf("invalid UUID format: %w", err)
	}
	return UUID{id: id}, nil
}

// UUIDFromBytes builds a UUID from its 16-byte form. Repositories use it
// when restoring rows; unlike UUIDFromString it rejects the nil UUID.
//
// Example:
//
//	id, err := kernel.UUIDFromBytes(dto.ID[:])
//	if err != nil {
//	    return nil, err
//	}
func UUIDFromBytes(b []byte) (UUID, error) {
	id, err := uuid.FromBytes(b)
	if err != nil {
		return UUID{}, fmt.Errorf("invalid UUID format: %w", err)
	}
	newID := UUID{id: id}
	if err = newID.Validate(); err != nil {
		return UUID{}, err
	}
	return newID, nil
}

// String returns the canonical "xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx" form
// used in logs, HTTP responses, Kafka keys and notification payloads.
func (u UUID) String() string {
	return u.id.String()
}

// Bytes returns the wrapped google/uuid value. It is what DTOs store and
// what gorm binds as a query argument; the domain type itself has no driver
// encoding.
//
// Example:
//
//	db.First(&dto, "id = ?", id.Bytes())
func (u UUID) Bytes() uuid.UUID {
	return u.id
}

// IsEqual reports whether both values identify the same aggregate.
func (u UUID) IsEqual(other UUID) bool {
	return u.id == other.id
}

// Less orders identifiers by their canonical string form. The dispatcher
// uses it as the last tie-break so driver selection is deterministic.
func (u UUID) Less(other UUID) bool {
	return u.id.String() < other.id.String()
}

// MarshalText lets events carrying a UUID serialize as plain strings.
func (u UUID) MarshalText() ([]byte, error) {
	return u.id.MarshalText()
}

// Validate returns ErrUUIDIsNotConstructed for the zero value.
//
// Example:
//
//	func NewCancelOrderCommand(orderID kernel.UUID) (CancelOrderCommand, error) {
//	    if err := orderID.Validate(); err != nil {
//	        return CancelOrderCommand{}, err
//	    }
//	    ...
//	}
func (u UUID) Validate() error {
	if u.id == uuid.Nil {
		return ErrUUIDIsNotConstructed
	}
	return nil
}
