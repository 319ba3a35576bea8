package order

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

// ErrOrderIsNotConstructed is returned by Validate for an Order built as a
// struct literal instead of through NewOrder or Restore.
var ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or Restore constructor")

// Timestamps records when each transition was accepted.
type Timestamps struct {
	PlacedAt        time.Time
	PaidAt          *time.Time
	PaymentFailedAt *time.Time
	AssignedAt      *time.Time
	PickedUpAt      *time.Time
	InTransitAt     *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	RefundedAt      *time.Time
}

// Snapshot is the persisted form of an Order.
type Snapshot struct {
	ID            kernel.UUID
	CustomerRef   string
	Contact       string
	Items         []LineItem
	Status        Status
	PaymentStatus PaymentStatus
	DriverID      *kernel.UUID
	PaymentRef    string
	Timestamps    Timestamps
	Version       int
}

// Order is the aggregate root of the fulfillment lifecycle. It owns two
// closed state machines that move together: the fulfillment Status
// (PLACED through DELIVERED, or CANCELLED / REFUNDED) and the PaymentStatus.
//
// Order keeps these invariants:
//   - It has a valid identifier, a customer reference, a contact and at
//     least one line item
//   - Every status change goes through the transition table in status.go;
//     anything else is rejected with errs.ErrInvalidTransition
//   - Fulfillment statuses (ASSIGNED and later) imply payment PAID
//   - ASSIGNED, PICKED_UP, IN_TRANSIT and DELIVERED carry a driver
//   - Each accepted transition records a StatusChanged event and stamps
//     its time in Timestamps
//
// Order is not safe for concurrent use. Concurrent writers are serialized
// by the version column: the repository's conditional update fails with
// errs.ErrConcurrentConflict when another transaction saved first.
type Order struct {
	id          kernel.UUID
	customerRef string
	// contact is where customer notifications go: a phone number or e-mail.
	contact string
	items   []LineItem

	status        Status
	paymentStatus PaymentStatus

	// driverID is set by Assign and kept after delivery for history.
	driverID *kernel.UUID
	// paymentRef is the provider reference that confirmed payment.
	paymentRef string

	timestamps Timestamps
	// version is the value the row had when loaded; MarkSaved bumps it.
	version int
	events  kernel.EventRecorder
	guard   guard.ConstructorGuard
}

// NewOrder creates a PLACED order with payment PENDING. It is the only way
// to create a new order; Restore is for rows read back from storage.
//
// Parameters:
//   - id: identifier of the order (must be a valid UUID)
//   - customerRef: the customer as known to the storefront
//   - contact: phone number or e-mail for notifications
//   - items: at least one valid LineItem
//   - at: placement time, stored as Timestamps.PlacedAt
//
// Every invalid parameter is reported, joined into one error.
//
// Example:
//
//	item, _ := order.NewLineItem("sku-42", 2, 1250)
//	o, err := order.NewOrder(kernel.NewUUID(), "customer-7", "+15550100",
//	    []order.LineItem{item}, time.Now().UTC())
//	if err != nil {
//	    // errs.ErrValueIsRequired or errs.ErrValueIsOutOfRange
//	}
func NewOrder(id kernel.UUID, customerRef, contact string, items []LineItem, at time.Time) (*Order, error) {
	o := &Order{
		status:        Placed,
		paymentStatus: PaymentPending,
		timestamps:    Timestamps{PlacedAt: at},
		guard:         guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerRef(customerRef),
		o.setContact(contact),
		o.setItems(items),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// Restore rebuilds an order from storage and rejects combinations no
// transition could have produced.
func Restore(s Snapshot) (*Order, error) {
	o := &Order{
		driverID:   s.DriverID,
		paymentRef: s.PaymentRef,
		timestamps: s.Timestamps,
		version:    s.Version,
		guard:      guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(s.ID),
		o.setCustomerRef(s.CustomerRef),
		o.setContact(s.Contact),
		o.setItems(s.Items),
		s.Status.Validate(),
		s.PaymentStatus.Validate(),
	); err != nil {
		return nil, err
	}
	if s.Version < 0 {
		return nil, errs.NewVersionIsInvalidError("version", fmt.Errorf("%d is negative", s.Version))
	}
	if err := validateConsistency(s.Status, s.PaymentStatus, s.DriverID); err != nil {
		return nil, err
	}

	o.status = s.Status
	o.paymentStatus = s.PaymentStatus
	return o, nil
}

func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) CustomerRef() string {
	return o.customerRef
}

func (o *Order) Contact() string {
	return o.contact
}

func (o *Order) Items() []LineItem {
	items := make([]LineItem, len(o.items))
	copy(items, o.items)
	return items
}

func (o *Order) Status() Status {
	return o.status
}

func (o *Order) PaymentStatus() PaymentStatus {
	return o.paymentStatus
}

func (o *Order) DriverID() *kernel.UUID {
	return o.driverID
}

// PaymentRef is the provider reference of the payment event that paid the order.
func (o *Order) PaymentRef() string {
	return o.paymentRef
}

func (o *Order) Timestamps() Timestamps {
	return o.timestamps
}

func (o *Order) Version() int {
	return o.version
}

func (o *Order) IsTerminal() bool {
	return o.status.IsTerminal()
}

func (o *Order) Subtotal() int64 {
	var sum int64
	for _, item := range o.items {
		sum += item.Total()
	}
	return sum
}

// Total is the amount the payment provider must confirm. Shipping is priced
// by the checkout collaborator into line items.
func (o *Order) Total() int64 {
	return o.Subtotal()
}

func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:            o.id,
		CustomerRef:   o.customerRef,
		Contact:       o.contact,
		Items:         o.Items(),
		Status:        o.status,
		PaymentStatus: o.paymentStatus,
		DriverID:      o.driverID,
		PaymentRef:    o.paymentRef,
		Timestamps:    o.timestamps,
		Version:       o.version,
	}
}

func (o *Order) DomainEvents() []kernel.DomainEvent {
	return o.events.DomainEvents()
}

func (o *Order) ClearDomainEvents() {
	o.events.ClearDomainEvents()
}

// MarkSaved is called by the repository after a successful conditional write.
func (o *Order) MarkSaved() {
	o.version++
}

// ConfirmPayment applies a provider confirmation: payment PENDING or FAILED
// becomes PAID and the order moves PLACED -> PAID. The confirmed amount must
// equal Total.
//
// It reports false without error when the order is already paid or beyond,
// so a late duplicate from another provider is absorbed rather than failed.
//
// Example:
//
//	applied, err := o.ConfirmPayment("evt_123", 2500, now)
//	switch {
//	case errors.Is(err, errs.ErrValueIsInvalid):
//	    // amount mismatch, the ledger keeps the event unprocessed
//	case err == nil && !applied:
//	    // already paid
//	}
func (o *Order) ConfirmPayment(providerRef string, amount int64, at time.Time) (bool, error) {
	if o.paymentStatus == PaymentPaid || o.paymentStatus == PaymentRefunded {
		if o.status != Cancelled {
			return false, nil
		}
	}
	if providerRef == "" {
		return false, errs.NewValueIsRequiredError("providerRef")
	}

	next, err := o.status.Apply(ActionConfirmPayment)
	if err != nil {
		return false, err
	}
	if amount != o.Total() {
		return false, errs.NewValueIsInvalidErrorWithCause("amount",
			fmt.Errorf("provider confirmed %d, order total is %d", amount, o.Total()))
	}
	payment, err := o.paymentStatus.MoveTo(PaymentPaid)
	if err != nil {
		return false, err
	}

	o.paymentStatus = payment
	o.paymentRef = providerRef
	o.timestamps.PaidAt = &at
	o.moveTo(next, at)
	return true, nil
}

// FailPayment marks the pending payment as failed. Failures reported after
// the order left PLACED are ignored.
func (o *Order) FailPayment(at time.Time) (bool, error) {
	if o.status != Placed || o.paymentStatus == PaymentFailed {
		return false, nil
	}

	payment, err := o.paymentStatus.MoveTo(PaymentFailed)
	if err != nil {
		return false, err
	}

	o.paymentStatus = payment
	o.timestamps.PaymentFailedAt = &at
	o.events.Record(PaymentRejected{OrderID: o.id, Contact: o.contact, At: at})
	return true, nil
}

// Assign moves a PAID order to ASSIGNED for driverID.
func (o *Order) Assign(driverID kernel.UUID, at time.Time) error {
	return o.assign(ActionAssign, driverID, at)
}

// Reassign hands an ASSIGNED order whose task failed to another driver.
func (o *Order) Reassign(driverID kernel.UUID, at time.Time) error {
	return o.assign(ActionReassign, driverID, at)
}

func (o *Order) ConfirmPickup(at time.Time) error {
	if err := o.apply(ActionConfirmPickup, at); err != nil {
		return err
	}
	o.timestamps.PickedUpAt = &at
	return nil
}

func (o *Order) StartTransit(at time.Time) error {
	if err := o.apply(ActionStartTransit, at); err != nil {
		return err
	}
	o.timestamps.InTransitAt = &at
	return nil
}

func (o *Order) ConfirmDelivery(at time.Time) error {
	if err := o.apply(ActionConfirmDelivery, at); err != nil {
		return err
	}
	o.timestamps.DeliveredAt = &at
	return nil
}

// Cancel is only allowed while no driver task is active.
func (o *Order) Cancel(hasActiveTask bool, at time.Time) error {
	if hasActiveTask {
		return errs.NewInvalidTransitionError("order", o.status.String()+" with an active task", string(ActionCancel))
	}
	if err := o.apply(ActionCancel, at); err != nil {
		return err
	}
	o.timestamps.CancelledAt = &at
	return nil
}

// Refund is only allowed while no driver task is active; callers fail the
// active task first.
func (o *Order) Refund(hasActiveTask bool, at time.Time) error {
	if hasActiveTask {
		return errs.NewInvalidTransitionError("order", o.status.String()+" with an active task", string(ActionRefund))
	}
	next, err := o.status.Apply(ActionRefund)
	if err != nil {
		return err
	}
	payment, err := o.paymentStatus.MoveTo(PaymentRefunded)
	if err != nil {
		return err
	}

	o.paymentStatus = payment
	o.timestamps.RefundedAt = &at
	o.moveTo(next, at)
	return nil
}

func (o *Order) assign(action Action, driverID kernel.UUID, at time.Time) error {
	if err := driverID.Validate(); err != nil {
		return err
	}
	next, err := o.status.Apply(action)
	if err != nil {
		return err
	}
	if o.paymentStatus != PaymentPaid {
		return errs.NewInvalidTransitionError("order", "payment "+o.paymentStatus.String(), string(action))
	}

	o.driverID = &driverID
	o.timestamps.AssignedAt = &at
	o.moveTo(next, at)
	return nil
}

func (o *Order) apply(action Action, at time.Time) error {
	next, err := o.status.Apply(action)
	if err != nil {
		return err
	}
	o.moveTo(next, at)
	return nil
}

func (o *Order) moveTo(next Status, at time.Time) {
	from := o.status
	o.status = next
	o.events.Record(StatusChanged{
		OrderID:       o.id,
		Contact:       o.contact,
		From:          from,
		To:            next,
		PaymentStatus: o.paymentStatus,
		DriverID:      o.driverID,
		At:            at,
	})
}

func validateConsistency(status Status, payment PaymentStatus, driverID *kernel.UUID) error {
	switch {
	case status == Placed && payment != PaymentPending && payment != PaymentFailed,
		status.IsFulfillment() && payment != PaymentPaid,
		status == Refunded && payment != PaymentRefunded,
		status == Cancelled && payment == PaymentRefunded:
		return errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("%s cannot have payment %s", status, payment))
	case (status == Assigned || status == PickedUp || status == InTransit || status == Delivered) && driverID == nil:
		return errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("%s requires a driver", status))
	}
	return nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setCustomerRef(ref string) error {
	if ref == "" {
		return errs.NewValueIsRequiredError("customerRef")
	}
	o.customerRef = ref
	return nil
}

func (o *Order) setContact(contact string) error {
	if contact == "" {
		return errs.NewValueIsRequiredError("contact")
	}
	o.contact = contact
	return nil
}

func (o *Order) setItems(items []LineItem) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	o.items = make([]LineItem, len(items))
	copy(o.items, items)
	return nil
}
