package order

import (
	"errors"
	"fmt"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

const MaxQuantity = 999

var ErrLineItemIsNotConstructed = errs.NewValueIsRequiredError("line item must be created via NewLineItem")

// LineItem is one ordered product variant. Prices are minor currency units.
type LineItem struct {
	variantID string
	quantity  int
	unitPrice int64
	guard     guard.ConstructorGuard
}

func NewLineItem(variantID string, quantity int, unitPrice int64) (LineItem, error) {
	item := LineItem{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		item.setVariantID(variantID),
		item.setQuantity(quantity),
		item.setUnitPrice(unitPrice),
	); err != nil {
		return LineItem{}, err
	}

	return item, nil
}

func (i LineItem) Validate() error {
	return i.guard.Validate(ErrLineItemIsNotConstructed)
}

func (i LineItem) VariantID() string {
	return i.variantID
}

func (i LineItem) Quantity() int {
	return i.quantity
}

func (i LineItem) UnitPrice() int64 {
	return i.unitPrice
}

func (i LineItem) Total() int64 {
	return int64(i.quantity) * i.unitPrice
}

func (i *LineItem) setVariantID(variantID string) error {
	if variantID == "" {
		return errs.NewValueIsRequiredError("variantId")
	}
	i.variantID = variantID
	return nil
}

func (i *LineItem) setQuantity(quantity int) error {
	if quantity < 1 || quantity > MaxQuantity {
		return errs.NewValueIsOutOfRangeError("quantity", quantity, 1, MaxQuantity)
	}
	i.quantity = quantity
	return nil
}

func (i *LineItem) setUnitPrice(unitPrice int64) error {
	if unitPrice < 0 {
		return errs.NewValueIsInvalidErrorWithCause("unitPrice", fmt.Errorf("%d is negative", unitPrice))
	}
	i.unitPrice = unitPrice
	return nil
}
