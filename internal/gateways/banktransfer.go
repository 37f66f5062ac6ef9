package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ariefcatur/go-order-payments.git/internal/orders"
	"github.com/google/uuid"
)

const DriverBankTransfer = "banktransfer"

// BankTransferGateway models a manual bank transfer provider: the payment
// reference is handed to the buyer, and the bank's reconciliation feed posts
// the webhook once the transfer clears.
type BankTransferGateway struct{}

func (g *BankTransferGateway) CheckConfig(config map[string]string) error {
	for _, key := range []string{"account_number", "bank_code"} {
		if config[key] == "" {
			return fmt.Errorf("%w: missing %s", orders.ErrGatewayConfigInvalid, key)
		}
	}
	return nil
}

func (g *BankTransferGateway) InitPayment(ctx context.Context, order *orders.Order, gw *orders.Gateway, p *orders.Payment) (string, error) {
	// Transfers carry a reference the payer quotes; bank feeds echo it back.
	return "bt_" + gw.Config["bank_code"] + "_" + uuid.NewString(), nil
}

type bankWebhook struct {
	Reference  string `json:"reference"`
	Result     string `json:"result"` // cleared | bounced | recalled
	ClearedAt  string `json:"cleared_at,omitempty"`
	Remittance string `json:"remittance_info,omitempty"`
}

func (g *BankTransferGateway) FinalizePayment(gw *orders.Gateway, payload []byte) (WebhookResult, error) {
	var body bankWebhook
	if err := json.Unmarshal(payload, &body); err != nil {
		return WebhookResult{}, fmt.Errorf("%w: %v", orders.ErrMalformedWebhook, err)
	}
	if body.Reference == "" {
		return WebhookResult{}, fmt.Errorf("%w: missing reference", orders.ErrMalformedWebhook)
	}

	var status orders.PaymentStatus
	switch body.Result {
	case "cleared":
		status = orders.PaymentSuccessful
	case "bounced":
		status = orders.PaymentFailed
	case "recalled":
		status = orders.PaymentCanceled
	default:
		return WebhookResult{}, fmt.Errorf("%w: unknown result %q", orders.ErrMalformedWebhook, body.Result)
	}

	res := WebhookResult{
		GatewayPaymentID: body.Reference,
		Status:           status,
		Notes:            body.Remittance,
	}
	if body.ClearedAt != "" {
		t, err := time.Parse(time.RFC3339, body.ClearedAt)
		if err != nil {
			return WebhookResult{}, fmt.Errorf("%w: bad cleared_at %q", orders.ErrMalformedWebhook, body.ClearedAt)
		}
		res.PaymentDate = &t
	}
	return res, nil
}
