package orders

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ItemInput is one entry of an order create/update payload. An entry with ID
// set updates that persisted item; an entry without ID creates a new one.
type ItemInput struct {
	ID          string          `json:"id,omitempty"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Notes       string          `json:"notes,omitempty"`
}

func (in *ItemInput) Validate() error {
	if in.ProductName == "" {
		return fmt.Errorf("%w: product_name is required", ErrValidation)
	}
	if in.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	return nil
}

// ItemPlan is the write-set computed by ReconcileItems. Updates keep their
// persisted IDs, creates get fresh ones at insert time, and every persisted
// item not referenced by the payload lands in DeleteIDs.
type ItemPlan struct {
	Updates   []OrderItem
	Creates   []ItemInput
	DeleteIDs []string
}

// ReconcileItems diffs the incoming payload against the persisted item set.
// This is a full replace: the resulting set equals the payload by content.
// Pure; callers apply the plan inside their transaction.
func ReconcileItems(existing []OrderItem, incoming []ItemInput) (ItemPlan, error) {
	byID := make(map[string]OrderItem, len(existing))
	for _, it := range existing {
		byID[it.ID] = it
	}

	var plan ItemPlan
	keep := make(map[string]bool, len(incoming))

	for _, in := range incoming {
		if in.ID == "" {
			plan.Creates = append(plan.Creates, in)
			continue
		}
		cur, ok := byID[in.ID]
		if !ok {
			return ItemPlan{}, fmt.Errorf("%w: %s", ErrUnknownItemReference, in.ID)
		}
		cur.ProductName = in.ProductName
		cur.Quantity = in.Quantity
		cur.Price = in.Price
		cur.Notes = in.Notes
		plan.Updates = append(plan.Updates, cur)
		keep[in.ID] = true
	}

	for _, it := range existing {
		if !keep[it.ID] {
			plan.DeleteIDs = append(plan.DeleteIDs, it.ID)
		}
	}
	return plan, nil
}
