// Package gateways holds the payment provider plugin contract and the
// registry binding a gateway's stored driver key to an implementation.
// Provider quirks (payload shapes, signatures, reference formats) stay
// behind Plugin; the order/payment core never sees them.
package gateways

import (
	"context"
	"fmt"
	"time"

	"github.com/ariefcatur/go-order-payments.git/internal/orders"
)

// WebhookResult is a provider notification normalized into the core's
// vocabulary. Status must parse via orders.ParsePaymentStatus.
type WebhookResult struct {
	GatewayPaymentID string
	Status           orders.PaymentStatus
	PaymentDate      *time.Time // nil: core defaults to processing time
	Notes            string     // empty: core keeps the existing notes
}

type Plugin interface {
	// CheckConfig validates a gateway's stored config for this provider.
	// Invoked at gateway create/update, never on the payment path.
	CheckConfig(config map[string]string) error

	// InitPayment registers the payment at the provider and returns its
	// reference. Called once per payment, inside the creating transaction;
	// an error here aborts that transaction.
	InitPayment(ctx context.Context, order *orders.Order, gw *orders.Gateway, p *orders.Payment) (externalID string, err error)

	// FinalizePayment normalizes a raw webhook body. The only error it may
	// return is one wrapping orders.ErrMalformedWebhook.
	FinalizePayment(gw *orders.Gateway, payload []byte) (WebhookResult, error)
}

type factory func() Plugin

// Registry maps an allow-listed driver key to a plugin constructor. Keys are
// plain strings stored on the gateway row; anything outside the allow-list
// fails resolution, so config data can never load arbitrary code.
type Registry struct {
	drivers map[string]factory
}

func NewRegistry() *Registry {
	return &Registry{drivers: map[string]factory{}}
}

// Default returns a registry with every built-in driver registered.
func Default() *Registry {
	r := NewRegistry()
	r.Register(DriverFake, func() Plugin { return &FakeGateway{} })
	r.Register(DriverBankTransfer, func() Plugin { return &BankTransferGateway{} })
	return r
}

func (r *Registry) Register(driver string, f factory) {
	r.drivers[driver] = f
}

// Resolve returns the plugin for a persisted gateway record.
func (r *Registry) Resolve(gw *orders.Gateway) (Plugin, error) {
	f, ok := r.drivers[gw.Driver]
	if !ok {
		return nil, fmt.Errorf("%w: %q", orders.ErrGatewayNotImplemented, gw.Driver)
	}
	return f(), nil
}

// Known reports whether a driver key is registered; used by gateway
// create/update validation before any config check runs.
func (r *Registry) Known(driver string) bool {
	_, ok := r.drivers[driver]
	return ok
}
