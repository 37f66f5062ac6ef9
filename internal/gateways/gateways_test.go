package gateways

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ariefcatur/go-order-payments.git/internal/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolve(t *testing.T) {
	r := Default()

	p, err := r.Resolve(&orders.Gateway{Driver: DriverFake})
	require.NoError(t, err)
	assert.IsType(t, &FakeGateway{}, p)

	p, err = r.Resolve(&orders.Gateway{Driver: DriverBankTransfer})
	require.NoError(t, err)
	assert.IsType(t, &BankTransferGateway{}, p)

	_, err = r.Resolve(&orders.Gateway{Driver: "App\\PaymentGateways\\Evil"})
	assert.ErrorIs(t, err, orders.ErrGatewayNotImplemented)

	assert.True(t, r.Known(DriverFake))
	assert.False(t, r.Known("stripe"))
}

func TestFakeGateway(t *testing.T) {
	g := &FakeGateway{}
	assert.NoError(t, g.CheckConfig(nil))
	assert.NoError(t, g.CheckConfig(map[string]string{"anything": "goes"}))

	ext, err := g.InitPayment(context.Background(), &orders.Order{}, &orders.Gateway{}, &orders.Payment{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ext, "fake_"))

	t.Run("finalize", func(t *testing.T) {
		res, err := g.FinalizePayment(&orders.Gateway{}, []byte(`{"payment_id":"fake_1","status":"SUCCESSFUL","notes":"Paid"}`))
		require.NoError(t, err)
		assert.Equal(t, "fake_1", res.GatewayPaymentID)
		assert.Equal(t, orders.PaymentSuccessful, res.Status)
		assert.Equal(t, "Paid", res.Notes)
		assert.Nil(t, res.PaymentDate)
	})

	t.Run("finalize with paid_at", func(t *testing.T) {
		res, err := g.FinalizePayment(&orders.Gateway{}, []byte(`{"payment_id":"fake_1","status":"FAILED","paid_at":"2026-01-02T15:04:05Z"}`))
		require.NoError(t, err)
		require.NotNil(t, res.PaymentDate)
		assert.Equal(t, time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC), res.PaymentDate.UTC())
	})

	t.Run("missing payment_id", func(t *testing.T) {
		_, err := g.FinalizePayment(&orders.Gateway{}, []byte(`{"status":"SUCCESSFUL"}`))
		assert.ErrorIs(t, err, orders.ErrMalformedWebhook)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := g.FinalizePayment(&orders.Gateway{}, []byte(`{"payment_id":"x","status":"paid"}`))
		assert.ErrorIs(t, err, orders.ErrMalformedWebhook)
	})

	t.Run("garbage body", func(t *testing.T) {
		_, err := g.FinalizePayment(&orders.Gateway{}, []byte(`not json`))
		assert.ErrorIs(t, err, orders.ErrMalformedWebhook)
	})
}

func TestBankTransferGateway(t *testing.T) {
	g := &BankTransferGateway{}

	t.Run("config", func(t *testing.T) {
		assert.NoError(t, g.CheckConfig(map[string]string{"account_number": "123", "bank_code": "BCA"}))
		assert.ErrorIs(t, g.CheckConfig(nil), orders.ErrGatewayConfigInvalid)
		assert.ErrorIs(t, g.CheckConfig(map[string]string{"account_number": "123"}), orders.ErrGatewayConfigInvalid)
	})

	t.Run("init payment carries bank code", func(t *testing.T) {
		gw := &orders.Gateway{Config: map[string]string{"bank_code": "BCA"}}
		ext, err := g.InitPayment(context.Background(), &orders.Order{}, gw, &orders.Payment{})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(ext, "bt_BCA_"))
	})

	t.Run("finalize maps bank results", func(t *testing.T) {
		cases := map[string]orders.PaymentStatus{
			"cleared":  orders.PaymentSuccessful,
			"bounced":  orders.PaymentFailed,
			"recalled": orders.PaymentCanceled,
		}
		for result, want := range cases {
			res, err := g.FinalizePayment(&orders.Gateway{}, []byte(`{"reference":"bt_1","result":"`+result+`"}`))
			require.NoError(t, err)
			assert.Equal(t, want, res.Status)
		}
	})

	t.Run("missing reference", func(t *testing.T) {
		_, err := g.FinalizePayment(&orders.Gateway{}, []byte(`{"result":"cleared"}`))
		assert.ErrorIs(t, err, orders.ErrMalformedWebhook)
	})

	t.Run("unknown result", func(t *testing.T) {
		_, err := g.FinalizePayment(&orders.Gateway{}, []byte(`{"reference":"bt_1","result":"pending_review"}`))
		assert.ErrorIs(t, err, orders.ErrMalformedWebhook)
	})
}
