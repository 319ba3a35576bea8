package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrPlaceOrderCommandIsNotConstructed = errors.New(
	"PlaceOrderCommand must be created via NewPlaceOrderCommand constructor",
)

// LineItemInput is one checkout line as received from the storefront.
type LineItemInput struct {
	VariantID string
	Quantity  int
	UnitPrice int64
}

type PlaceOrderCommand struct { //nolint:recvcheck //using for validation
	orderID     kernel.UUID
	customerRef string
	contact     string
	items       []order.LineItem

	guard guard.ConstructorGuard
}

func NewPlaceOrderCommand(
	orderID kernel.UUID, customerRef, contact string, items []LineItemInput,
) (PlaceOrderCommand, error) {
	cmd := PlaceOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setCustomerRef(customerRef),
		cmd.setContact(contact),
		cmd.setItems(items),
	); err != nil {
		return PlaceOrderCommand{}, err
	}

	return cmd, nil
}

func (c PlaceOrderCommand) Validate() error {
	return c.guard.Validate(ErrPlaceOrderCommandIsNotConstructed)
}

func (c PlaceOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c PlaceOrderCommand) CustomerRef() string {
	return c.customerRef
}

func (c PlaceOrderCommand) Contact() string {
	return c.contact
}

func (c PlaceOrderCommand) Items() []order.LineItem {
	return c.items
}

func (c *PlaceOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *PlaceOrderCommand) setCustomerRef(ref string) error {
	if ref == "" {
		return errs.NewValueIsRequiredError("customerRef")
	}
	c.customerRef = ref
	return nil
}

func (c *PlaceOrderCommand) setContact(contact string) error {
	if contact == "" {
		return errs.NewValueIsRequiredError("contact")
	}
	c.contact = contact
	return nil
}

func (c *PlaceOrderCommand) setItems(inputs []LineItemInput) error {
	if len(inputs) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	items := make([]order.LineItem, 0, len(inputs))
	for _, in := range inputs {
		item, err := order.NewLineItem(in.VariantID, in.Quantity, in.UnitPrice)
		if err != nil {
			return err
		}
		items = append(items, item)
	}
	c.items = items
	return nil
}
