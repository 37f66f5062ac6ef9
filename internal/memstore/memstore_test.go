package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/ariefcatur/go-order-payments.git/internal/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payment(id, orderID, gatewayID, externalID string) *orders.Payment {
	now := time.Now().UTC()
	return &orders.Payment{
		ID:               id,
		OrderID:          orderID,
		GatewayID:        gatewayID,
		GatewayPaymentID: externalID,
		Status:           orders.PaymentPending,
		PaymentDate:      now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestGatewayPaymentIDUnique(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.WithTx(ctx, func(tx orders.Tx) error {
		return tx.InsertPayment(ctx, payment("p1", "o1", "gw1", "ext-1"))
	}))

	t.Run("insert with a taken external id", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx orders.Tx) error {
			return tx.InsertPayment(ctx, payment("p2", "o2", "gw1", "ext-1"))
		})
		assert.ErrorIs(t, err, orders.ErrValidation)
	})

	t.Run("same external id on another gateway is fine", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx orders.Tx) error {
			return tx.InsertPayment(ctx, payment("p3", "o3", "gw2", "ext-1"))
		})
		assert.NoError(t, err)
	})

	t.Run("backfill onto a taken external id", func(t *testing.T) {
		require.NoError(t, s.WithTx(ctx, func(tx orders.Tx) error {
			return tx.InsertPayment(ctx, payment("p4", "o4", "gw1", ""))
		}))
		err := s.WithTx(ctx, func(tx orders.Tx) error {
			return tx.SetPaymentExternalID(ctx, "p4", "ext-1")
		})
		assert.ErrorIs(t, err, orders.ErrValidation)

		// the rejected backfill leaves the payment untouched
		var got *orders.Payment
		require.NoError(t, s.WithTx(ctx, func(tx orders.Tx) error {
			var err error
			got, err = tx.GetPayment(ctx, "p4")
			return err
		}))
		assert.Empty(t, got.GatewayPaymentID)
	})

	t.Run("backfill to a fresh external id", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx orders.Tx) error {
			return tx.SetPaymentExternalID(ctx, "p4", "ext-2")
		})
		require.NoError(t, err)

		var got *orders.Payment
		require.NoError(t, s.WithTx(ctx, func(tx orders.Tx) error {
			var err error
			got, err = tx.GetPaymentByGatewayRef(ctx, "gw1", "ext-2")
			return err
		}))
		assert.Equal(t, "p4", got.ID)
	})
}
