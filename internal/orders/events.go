package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderConfirmed     = "OrderConfirmed"
	EventOrderCancelled     = "OrderCancelled"
	EventPaymentInitialized = "PaymentInitialized"
	EventPaymentFinalized   = "PaymentFinalized"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type OrderEventPayload struct {
	OrderID    string `json:"order_id"`
	UserID     string `json:"user_id"`
	Status     Status `json:"status"`
	TotalPrice string `json:"total_price"`
	ItemCount  int    `json:"item_count"`
}

type PaymentInitializedPayload struct {
	PaymentID        string `json:"payment_id"`
	OrderID          string `json:"order_id"`
	GatewayID        string `json:"gateway_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Amount           string `json:"amount"`
}

type PaymentFinalizedPayload struct {
	PaymentID        string        `json:"payment_id"`
	OrderID          string        `json:"order_id"`
	GatewayID        string        `json:"gateway_id"`
	GatewayPaymentID string        `json:"gateway_payment_id"`
	Status           PaymentStatus `json:"status"`
}
