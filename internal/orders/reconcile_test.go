package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id, name string, qty int, price string) OrderItem {
	return OrderItem{
		ID:          id,
		OrderID:     "order-1",
		ProductName: name,
		Quantity:    qty,
		Price:       decimal.RequireFromString(price),
	}
}

func TestReconcileItems(t *testing.T) {
	existing := []OrderItem{
		item("a", "coffee", 2, "12.340"),
		item("b", "beans", 1, "99.990"),
	}

	t.Run("update create delete", func(t *testing.T) {
		incoming := []ItemInput{
			{ID: "a", ProductName: "coffee", Quantity: 5, Price: decimal.RequireFromString("11.11")},
			{ProductName: "grinder", Quantity: 1, Price: decimal.RequireFromString("45.00")},
		}
		plan, err := ReconcileItems(existing, incoming)
		require.NoError(t, err)

		require.Len(t, plan.Updates, 1)
		assert.Equal(t, "a", plan.Updates[0].ID)
		assert.Equal(t, 5, plan.Updates[0].Quantity)
		assert.True(t, plan.Updates[0].Price.Equal(decimal.RequireFromString("11.11")))

		require.Len(t, plan.Creates, 1)
		assert.Equal(t, "grinder", plan.Creates[0].ProductName)

		// item b was omitted from the payload: full replace deletes it
		assert.Equal(t, []string{"b"}, plan.DeleteIDs)
	})

	t.Run("unknown item id fails whole plan", func(t *testing.T) {
		incoming := []ItemInput{
			{ID: "a", ProductName: "coffee", Quantity: 1, Price: decimal.New(1, 0)},
			{ID: "zzz", ProductName: "ghost", Quantity: 1, Price: decimal.New(1, 0)},
		}
		plan, err := ReconcileItems(existing, incoming)
		assert.ErrorIs(t, err, ErrUnknownItemReference)
		assert.Empty(t, plan.Updates)
		assert.Empty(t, plan.Creates)
		assert.Empty(t, plan.DeleteIDs)
	})

	t.Run("unchanged payload is idempotent", func(t *testing.T) {
		incoming := []ItemInput{
			{ID: "a", ProductName: "coffee", Quantity: 2, Price: decimal.RequireFromString("12.340")},
			{ID: "b", ProductName: "beans", Quantity: 1, Price: decimal.RequireFromString("99.990")},
		}
		plan, err := ReconcileItems(existing, incoming)
		require.NoError(t, err)
		assert.Len(t, plan.Updates, 2)
		assert.Empty(t, plan.Creates)
		assert.Empty(t, plan.DeleteIDs)
	})

	t.Run("empty payload deletes everything", func(t *testing.T) {
		plan, err := ReconcileItems(existing, nil)
		require.NoError(t, err)
		assert.Empty(t, plan.Updates)
		assert.Empty(t, plan.Creates)
		assert.ElementsMatch(t, []string{"a", "b"}, plan.DeleteIDs)
	})

	t.Run("all creates against empty order", func(t *testing.T) {
		plan, err := ReconcileItems(nil, []ItemInput{
			{ProductName: "x", Quantity: 1, Price: decimal.New(5, 0)},
		})
		require.NoError(t, err)
		assert.Len(t, plan.Creates, 1)
		assert.Empty(t, plan.DeleteIDs)
	})
}

func TestItemInputValidate(t *testing.T) {
	ok := ItemInput{ProductName: "coffee", Quantity: 1, Price: decimal.Zero}
	assert.NoError(t, ok.Validate())

	for name, in := range map[string]ItemInput{
		"missing name":   {Quantity: 1, Price: decimal.New(1, 0)},
		"zero quantity":  {ProductName: "x", Quantity: 0, Price: decimal.New(1, 0)},
		"negative price": {ProductName: "x", Quantity: 1, Price: decimal.New(-1, 0)},
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, in.Validate(), ErrValidation)
		})
	}
}

func TestOrderTotalPrice(t *testing.T) {
	o := Order{Items: []OrderItem{
		item("a", "coffee", 2, "12.34"),
		item("b", "beans", 1, "99.99"),
	}}
	assert.Equal(t, "124.670", o.TotalPrice().StringFixed(3))
}
