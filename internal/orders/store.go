package orders

import (
	"context"
	"time"
)

type Page struct {
	Page    int
	PerPage int
}

// Normalize clamps paging to 1-based pages and at most 100 rows per page.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = 15
	}
	if p.PerPage > 100 {
		p.PerPage = 100
	}
	return p
}

func (p Page) Offset() int { return (p.Page - 1) * p.PerPage }

type OrderFilter struct {
	Status *Status
	From   *time.Time
	To     *time.Time
	Page   Page
}

type PaymentFilter struct {
	OrderID string
	Page    Page
}

// Store opens atomic units of work. Every multi-row write in the workflow
// runs inside exactly one WithTx call: either all of it commits or none.
type Store interface {
	WithTx(ctx context.Context, fn func(Tx) error) error
}

// Tx is the row-level contract the workflow needs from persistence.
// Listings order by descending id; items within an order by ascending id.
type Tx interface {
	InsertUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	InsertOrder(ctx context.Context, o *Order) error
	// GetOrder loads an order with its items, scoped to its owner.
	// Returns ErrNotFound for both absence and ownership mismatch.
	GetOrder(ctx context.Context, id, userID string) (*Order, error)
	ListOrders(ctx context.Context, userID string, f OrderFilter) ([]Order, int, error)
	UpdateOrderHeader(ctx context.Context, id string, orderDate *time.Time, notes *string) error
	UpdateOrderStatus(ctx context.Context, id string, status Status) error
	// DeleteOrder removes the order and all of its items.
	DeleteOrder(ctx context.Context, id string) error

	InsertItem(ctx context.Context, it *OrderItem) error
	UpdateItem(ctx context.Context, it *OrderItem) error
	DeleteItems(ctx context.Context, orderID string, ids []string) error

	InsertGateway(ctx context.Context, g *Gateway) error
	GetGateway(ctx context.Context, id string) (*Gateway, error)
	ListGateways(ctx context.Context) ([]Gateway, error)
	UpdateGateway(ctx context.Context, g *Gateway) error
	DeleteGateway(ctx context.Context, id string) error
	GatewayHasPayments(ctx context.Context, gatewayID string) (bool, error)

	// InsertPayment returns ErrOrderNotPayable when a payment for the same
	// order already exists (unique index on order_id decides races).
	InsertPayment(ctx context.Context, p *Payment) error
	SetPaymentExternalID(ctx context.Context, paymentID, externalID string) error
	OrderHasPayment(ctx context.Context, orderID string) (bool, error)
	GetPayment(ctx context.Context, id string) (*Payment, error)
	GetPaymentByGatewayRef(ctx context.Context, gatewayID, externalID string) (*Payment, error)
	FinalizePayment(ctx context.Context, paymentID string, status PaymentStatus, date time.Time, notes string) error
	ListPayments(ctx context.Context, f PaymentFilter) ([]Payment, int, error)
}
