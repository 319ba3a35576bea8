package payment

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrEventIsNotConstructed = errors.New("payment Event must be created via NewEvent or Restore constructor")

type ProviderStatus int

const (
	StatusUnknown ProviderStatus = iota
	StatusSucceeded
	StatusFailed
)

var providerStatusStrings = map[ProviderStatus]string{
	StatusSucceeded: "succeeded",
	StatusFailed:    "failed",
}

func ParseProviderStatus(s string) (ProviderStatus, error) {
	for status, str := range providerStatusStrings {
		if str == s {
			return status, nil
		}
	}
	return StatusUnknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a known provider status", s))
}

func (s ProviderStatus) Validate() error {
	if _, ok := providerStatusStrings[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a known provider status", s))
	}
	return nil
}

func (s ProviderStatus) String() string {
	if str, ok := providerStatusStrings[s]; ok {
		return str
	}
	return "unknown"
}

// AdmitResult is the ledger's answer for a provider reference.
type AdmitResult int

const (
	Fresh AdmitResult = iota + 1
	Duplicate
)

func (r AdmitResult) String() string {
	switch r {
	case Fresh:
		return "fresh"
	case Duplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

type Snapshot struct {
	ID          kernel.UUID
	Provider    string
	ProviderRef string
	OrderRef    string
	Amount      int64
	Status      ProviderStatus
	Payload     []byte
	Processed   bool
	Rejection   string
	ReceivedAt  time.Time
	ProcessedAt *time.Time
}

// Event is a provider callback. OrderRef is kept verbatim so that callbacks
// naming an unknown order are still recorded.
type Event struct {
	id          kernel.UUID
	provider    string
	providerRef string
	orderRef    string
	amount      int64
	status      ProviderStatus
	payload     []byte
	processed   bool
	rejection   string
	receivedAt  time.Time
	processedAt *time.Time
	guard       guard.ConstructorGuard
}

func NewEvent(
	id kernel.UUID,
	provider, providerRef, orderRef string,
	amount int64,
	status ProviderStatus,
	payload []byte,
	at time.Time,
) (*Event, error) {
	var errList []error
	errList = append(errList, id.Validate(), status.Validate())
	if provider == "" {
		errList = append(errList, errs.NewValueIsRequiredError("provider"))
	}
	if providerRef == "" {
		errList = append(errList, errs.NewValueIsRequiredError("providerRef"))
	}
	if amount < 0 {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("amount", fmt.Errorf("%d is negative", amount)))
	}
	if err := errors.Join(errList...); err != nil {
		return nil, err
	}

	return &Event{
		id:          id,
		provider:    provider,
		providerRef: providerRef,
		orderRef:    orderRef,
		amount:      amount,
		status:      status,
		payload:     payload,
		receivedAt:  at,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func Restore(s Snapshot) (*Event, error) {
	if err := errors.Join(s.ID.Validate(), s.Status.Validate()); err != nil {
		return nil, err
	}
	return &Event{
		id:          s.ID,
		provider:    s.Provider,
		providerRef: s.ProviderRef,
		orderRef:    s.OrderRef,
		amount:      s.Amount,
		status:      s.Status,
		payload:     s.Payload,
		processed:   s.Processed,
		rejection:   s.Rejection,
		receivedAt:  s.ReceivedAt,
		processedAt: s.ProcessedAt,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (e *Event) Validate() error {
	if e == nil {
		return ErrEventIsNotConstructed
	}
	return e.guard.Validate(ErrEventIsNotConstructed)
}

func (e *Event) ID() kernel.UUID {
	return e.id
}

func (e *Event) Provider() string {
	return e.provider
}

func (e *Event) ProviderRef() string {
	return e.providerRef
}

func (e *Event) OrderRef() string {
	return e.orderRef
}

func (e *Event) Amount() int64 {
	return e.amount
}

func (e *Event) Status() ProviderStatus {
	return e.status
}

func (e *Event) Payload() []byte {
	return e.payload
}

func (e *Event) Processed() bool {
	return e.processed
}

func (e *Event) Rejection() string {
	return e.rejection
}

func (e *Event) ReceivedAt() time.Time {
	return e.receivedAt
}

func (e *Event) ProcessedAt() *time.Time {
	return e.processedAt
}

func (e *Event) Snapshot() Snapshot {
	return Snapshot{
		ID:          e.id,
		Provider:    e.provider,
		ProviderRef: e.providerRef,
		OrderRef:    e.orderRef,
		Amount:      e.amount,
		Status:      e.status,
		Payload:     e.payload,
		Processed:   e.processed,
		Rejection:   e.rejection,
		ReceivedAt:  e.receivedAt,
		ProcessedAt: e.processedAt,
	}
}

// MarkProcessed records that the event's effect was applied to the order.
func (e *Event) MarkProcessed(at time.Time) {
	e.processed = true
	e.rejection = ""
	e.processedAt = &at
}

// Reject keeps the event in the ledger, unprocessed, for reconciliation.
func (e *Event) Reject(reason string, at time.Time) {
	e.processed = false
	e.rejection = reason
	e.processedAt = &at
}
