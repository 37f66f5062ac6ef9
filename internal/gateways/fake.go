package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ariefcatur/go-order-payments.git/internal/orders"
	"github.com/google/uuid"
)

const DriverFake = "fake"

// FakeGateway accepts every payment and echoes webhook payloads back.
// Used in development and in tests; no provider API behind it.
type FakeGateway struct{}

func (g *FakeGateway) CheckConfig(config map[string]string) error {
	return nil
}

func (g *FakeGateway) InitPayment(ctx context.Context, order *orders.Order, gw *orders.Gateway, p *orders.Payment) (string, error) {
	// A real provider call would happen here and return its reference.
	return "fake_" + uuid.NewString(), nil
}

type fakeWebhook struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
	PaidAt    string `json:"paid_at,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

func (g *FakeGateway) FinalizePayment(gw *orders.Gateway, payload []byte) (WebhookResult, error) {
	var body fakeWebhook
	if err := json.Unmarshal(payload, &body); err != nil {
		return WebhookResult{}, fmt.Errorf("%w: %v", orders.ErrMalformedWebhook, err)
	}
	if body.PaymentID == "" {
		return WebhookResult{}, fmt.Errorf("%w: missing payment_id", orders.ErrMalformedWebhook)
	}

	status, err := orders.ParsePaymentStatus(body.Status)
	if err != nil {
		return WebhookResult{}, err
	}

	res := WebhookResult{
		GatewayPaymentID: body.PaymentID,
		Status:           status,
		Notes:            body.Notes,
	}
	if body.PaidAt != "" {
		t, err := time.Parse(time.RFC3339, body.PaidAt)
		if err != nil {
			return WebhookResult{}, fmt.Errorf("%w: bad paid_at %q", orders.ErrMalformedWebhook, body.PaidAt)
		}
		res.PaymentDate = &t
	}
	return res, nil
}
