// Package workflow implements the order/payment transactional workflow:
// order creation and item reconciliation, status transitions, payment
// initiation against a gateway plugin, and webhook finalization.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-order-payments.git/internal/gateways"
	"github.com/ariefcatur/go-order-payments.git/internal/orders"
	"github.com/google/uuid"
)

// Publisher is the slice of the kafka producer the workflow needs.
type Publisher interface {
	Publish(key, value []byte)
}

type Service struct {
	Store     orders.Store
	Gateways  *gateways.Registry
	Events    Publisher // nil disables event publishing
	Finalized Publisher // finalized payments additionally land here; nil disables
	Producer  string    // producer name stamped on event envelopes
}

type OrderInput struct {
	OrderDate time.Time          `json:"order_date"`
	Notes     string             `json:"notes"`
	Items     []orders.ItemInput `json:"items"`
}

type OrderUpdate struct {
	OrderDate *time.Time          `json:"order_date"`
	Notes     *string             `json:"notes"`
	Items     *[]orders.ItemInput `json:"items"`
}

type PaymentRequest struct {
	GatewayID     string `json:"gateway_id"`
	PaymentMethod string `json:"payment_method"`
	Notes         string `json:"notes"`
}

type GatewayInput struct {
	Name   string            `json:"name"`
	Driver string            `json:"driver"`
	Config map[string]string `json:"config"`
}

// CreateOrder opens a PENDING order with at least one item. All rows commit
// together or not at all.
func (s *Service) CreateOrder(ctx context.Context, userID string, in OrderInput) (*orders.Order, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", orders.ErrValidation)
	}
	for i := range in.Items {
		if err := in.Items[i].Validate(); err != nil {
			return nil, err
		}
	}
	if in.OrderDate.IsZero() {
		in.OrderDate = time.Now().UTC()
	}

	now := time.Now().UTC()
	order := &orders.Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    orders.StatusPending,
		OrderDate: in.OrderDate,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.Store.WithTx(ctx, func(tx orders.Tx) error {
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		for _, it := range in.Items {
			row := &orders.OrderItem{
				ID:          uuid.NewString(),
				OrderID:     order.ID,
				ProductName: it.ProductName,
				Quantity:    it.Quantity,
				Price:       it.Price,
				Notes:       it.Notes,
			}
			if err := tx.InsertItem(ctx, row); err != nil {
				return err
			}
			order.Items = append(order.Items, *row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emitOrderEvent(orders.EventOrderCreated, order)
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, userID, orderID string) (*orders.Order, error) {
	var out *orders.Order
	err := s.Store.WithTx(ctx, func(tx orders.Tx) error {
		o, err := tx.GetOrder(ctx, orderID, userID)
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	return out, err
}

func (s *Service) ListOrders(ctx context.Context, userID string, f orders.OrderFilter) ([]orders.Order, int, error) {
	var (
		out   []orders.Order
		total int
	)
	err := s.Store.WithTx(ctx, func(tx orders.Tx) error {
		var err error
		out, total, err = tx.ListOrders(ctx, userID, f)
		return err
	})
	return out, total, err
}

// UpdateOrder mutates the header and reconciles items against the submitted
// list (full replace). Legal only while the order is PENDING.
func (s *Service) UpdateOrder(ctx context.Context, userID, orderID string, in OrderUpdate) (*orders.Order, error) {
	if in.Items != nil {
		if len(*in.Items) == 0 {
			return nil, fmt.Errorf("%w: items cannot be empty, omit the field to keep them", orders.ErrValidation)
		}
		for i := range *in.Items {
			if err := (*in.Items)[i].Validate(); err != nil {
				return nil, err
			}
		}
	}

	var out *orders.Order
	err := s.Store.WithTx(ctx, func(tx orders.Tx) error {
		o, err := tx.GetOrder(ctx, orderID, userID)
		if err != nil {
			return err
		}
		if o.Status != orders.StatusPending {
			return fmt.Errorf("%w: only pending orders can be updated", orders.ErrInvalidTransition)
		}

		if in.OrderDate != nil || in.Notes != nil {
			if err := tx.UpdateOrderHeader(ctx, o.ID, in.OrderDate, in.Notes); err != nil {
				return err
			}
		}

		if in.Items != nil {
			plan, err := orders.ReconcileItems(o.Items, *in.Items)
			if err != nil {
				return err
			}
			for i := range plan.Updates {
				if err := tx.UpdateItem(ctx, &plan.Updates[i]); err != nil {
					return err
				}
			}
			for _, c := range plan.Creates {
				row := &orders.OrderItem{
					ID:          uuid.NewString(),
					OrderID:     o.ID,
					ProductName: c.ProductName,
					Quantity:    c.Quantity,
					Price:       c.Price,
					Notes:       c.Notes,
				}
				if err := tx.InsertItem(ctx, row); err != nil {
					return err
				}
			}
			if err := tx.DeleteItems(ctx, o.ID, plan.DeleteIDs); err != nil {
				return err
			}
		}

		out, err = tx.GetOrder(ctx, orderID, userID)
		return err
	})
	return out, err
}

func (s *Service) ConfirmOrder(ctx context.Context, userID, orderID string) (*orders.Order, error) {
	return s.transition(ctx, userID, orderID, orders.StatusConfirmed, orders.EventOrderConfirmed,
		"only pending orders can be confirmed")
}

func (s *Service) CancelOrder(ctx context.Context, userID, orderID string) (*orders.Order, error) {
	return s.transition(ctx, userID, orderID, orders.StatusCancelled, orders.EventOrderCancelled,
		"only pending orders can be cancelled")
}

func (s *Service) transition(ctx context.Context, userID, orderID string, to orders.Status, event, msg string) (*orders.Order, error) {
	var out *orders.Order
	err := s.Store.WithTx(ctx, func(tx orders.Tx) error {
		o, err := tx.GetOrder(ctx, orderID, userID)
		if err != nil {
			return err
		}
		if !orders.CanTransition(o.Status, to) {
			return fmt.Errorf("%w: %s", orders.ErrInvalidTransition, msg)
		}
		if err := tx.UpdateOrderStatus(ctx, o.ID, to); err != nil {
			return err
		}
		o.Status = to
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emitOrderEvent(event, out)
	return out, nil
}

// DeleteOrder is gated by payment existence, not status: any order without a
// payment may be deleted, and its items go with it.
func (s *Service) DeleteOrder(ctx context.Context, userID, orderID string) error {
	return s.Store.WithTx(ctx, func(tx orders.Tx) error {
		o, err := tx.GetOrder(ctx, orderID, userID)
		if err != nil {
			return err
		}
		paid, err := tx.OrderHasPayment(ctx, o.ID)
		if err != nil {
			return err
		}
		if paid {
			return orders.ErrOrderHasPayment
		}
		return tx.DeleteOrder(ctx, o.ID)
	})
}

// ProcessPayment creates the order's payment and initializes it at the
// gateway. The plugin call runs inside the transaction: if the provider
// rejects the payment no row survives. The unique index on payments.order_id
// decides the race between two concurrent process calls.
func (s *Service) ProcessPayment(ctx context.Context, userID, orderID string, in PaymentRequest) (*orders.Payment, error) {
	var (
		payment *orders.Payment
		order   *orders.Order
	)
	err := s.Store.WithTx(ctx, func(tx orders.Tx) error {
		o, err := tx.GetOrder(ctx, orderID, userID)
		if err != nil {
			return err
		}
		if o.Status != orders.StatusConfirmed {
			return fmt.Errorf("%w: order must be confirmed before processing payment", orders.ErrOrderNotPayable)
		}
		paid, err := tx.OrderHasPayment(ctx, o.ID)
		if err != nil {
			return err
		}
		if paid {
			return fmt.Errorf("%w: order already has a payment", orders.ErrOrderNotPayable)
		}

		gw, err := tx.GetGateway(ctx, in.GatewayID)
		if err != nil {
			return err
		}
		plugin, err := s.Gateways.Resolve(gw)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		p := &orders.Payment{
			ID:            uuid.NewString(),
			OrderID:       o.ID,
			GatewayID:     gw.ID,
			PaymentMethod: in.PaymentMethod,
			PaymentDate:   now,
			Status:        orders.PaymentPending,
			Notes:         in.Notes,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.InsertPayment(ctx, p); err != nil {
			return err
		}

		externalID, err := plugin.InitPayment(ctx, o, gw, p)
		if err != nil {
			return fmt.Errorf("gateway init payment: %w", err)
		}
		if err := tx.SetPaymentExternalID(ctx, p.ID, externalID); err != nil {
			return err
		}
		p.GatewayPaymentID = externalID
		payment = p
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(orders.EventPaymentInitialized, payment.OrderID, orders.PaymentInitializedPayload{
		PaymentID:        payment.ID,
		OrderID:          payment.OrderID,
		GatewayID:        payment.GatewayID,
		GatewayPaymentID: payment.GatewayPaymentID,
		Amount:           order.TotalPrice().StringFixed(3),
	})
	return payment, nil
}

// ApplyWebhook normalizes a provider notification through the gateway's
// plugin and applies the resulting status to the matching payment. Safe to
// re-apply: the same payload overwrites the row with the same values.
func (s *Service) ApplyWebhook(ctx context.Context, gatewayID string, payload []byte) (*orders.Payment, error) {
	var out *orders.Payment
	err := s.Store.WithTx(ctx, func(tx orders.Tx) error {
		gw, err := tx.GetGateway(ctx, gatewayID)
		if err != nil {
			return err
		}
		plugin, err := s.Gateways.Resolve(gw)
		if err != nil {
			return err
		}
		res, err := plugin.FinalizePayment(gw, payload)
		if err != nil {
			return err
		}

		p, err := tx.GetPaymentByGatewayRef(ctx, gw.ID, res.GatewayPaymentID)
		if err != nil {
			return err
		}

		date := time.Now().UTC()
		if res.PaymentDate != nil {
			date = *res.PaymentDate
		}
		notes := p.Notes
		if res.Notes != "" {
			notes = res.Notes
		}
		if err := tx.FinalizePayment(ctx, p.ID, res.Status, date, notes); err != nil {
			return err
		}
		p.Status = res.Status
		p.PaymentDate = date
		p.Notes = notes
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(orders.EventPaymentFinalized, out.OrderID, orders.PaymentFinalizedPayload{
		PaymentID:        out.ID,
		OrderID:          out.OrderID,
		GatewayID:        out.GatewayID,
		GatewayPaymentID: out.GatewayPaymentID,
		Status:           out.Status,
	})
	return out, nil
}

func (s *Service) ListPayments(ctx context.Context, f orders.PaymentFilter) ([]orders.Payment, int, error) {
	var (
		out   []orders.Payment
		total int
	)
	err := s.Store.WithTx(ctx, func(tx orders.Tx) error {
		var err error
		out, total, err = tx.ListPayments(ctx, f)
		return err
	})
	return out, total, err
}

// ---- gateway CRUD ----

func (s *Service) validateGateway(in GatewayInput) error {
	if in.Name == "" || in.Driver == "" {
		return fmt.Errorf("%w: name and driver are required", orders.ErrValidation)
	}
	if !s.Gateways.Known(in.Driver) {
		return fmt.Errorf("%w: %q", orders.ErrGatewayNotImplemented, in.Driver)
	}
	plugin, err := s.Gateways.Resolve(&orders.Gateway{Driver: in.Driver})
	if err != nil {
		return err
	}
	if err := plugin.CheckConfig(in.Config); err != nil {
		if errors.Is(err, orders.ErrGatewayConfigInvalid) {
			return err
		}
		return fmt.Errorf("%w: %v", orders.ErrGatewayConfigInvalid, err)
	}
	return nil
}

func (s *Service) CreateGateway(ctx context.Context, in GatewayInput) (*orders.Gateway, error) {
	if err := s.validateGateway(in); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	gw := &orders.Gateway{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Driver:    in.Driver,
		Config:    in.Config,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if gw.Config == nil {
		gw.Config = map[string]string{}
	}
	err := s.Store.WithTx(ctx, func(tx orders.Tx) error {
		return tx.InsertGateway(ctx, gw)
	})
	if err != nil {
		return nil, err
	}
	return gw, nil
}

func (s *Service) UpdateGateway(ctx context.Context, id string, in GatewayInput) (*orders.Gateway, error) {
	if err := s.validateGateway(in); err != nil {
		return nil, err
	}
	var out *orders.Gateway
	err := s.Store.WithTx(ctx, func(tx orders.Tx) error {
		gw, err := tx.GetGateway(ctx, id)
		if err != nil {
			return err
		}
		gw.Name = in.Name
		gw.Driver = in.Driver
		gw.Config = in.Config
		if gw.Config == nil {
			gw.Config = map[string]string{}
		}
		if err := tx.UpdateGateway(ctx, gw); err != nil {
			return err
		}
		out = gw
		return nil
	})
	return out, err
}

// DeleteGateway is blocked while any payment references the gateway.
func (s *Service) DeleteGateway(ctx context.Context, id string) error {
	return s.Store.WithTx(ctx, func(tx orders.Tx) error {
		if _, err := tx.GetGateway(ctx, id); err != nil {
			return err
		}
		has, err := tx.GatewayHasPayments(ctx, id)
		if err != nil {
			return err
		}
		if has {
			return orders.ErrGatewayHasPayments
		}
		return tx.DeleteGateway(ctx, id)
	})
}

func (s *Service) ListGateways(ctx context.Context) ([]orders.Gateway, error) {
	var out []orders.Gateway
	err := s.Store.WithTx(ctx, func(tx orders.Tx) error {
		var err error
		out, err = tx.ListGateways(ctx)
		return err
	})
	return out, err
}

// ---- events ----

func (s *Service) emitOrderEvent(eventType string, o *orders.Order) {
	s.emit(eventType, o.ID, orders.OrderEventPayload{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		TotalPrice: o.TotalPrice().StringFixed(3),
		ItemCount:  len(o.Items),
	})
}

func (s *Service) emit(eventType, orderID string, payload any) {
	if s.Events == nil && s.Finalized == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	env := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.Producer,
		CorrelationID: orderID,
		Payload:       body,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return
	}
	key := orders.PartitionKey(orderID)
	if s.Events != nil {
		s.Events.Publish(key, value)
	}
	if eventType == orders.EventPaymentFinalized && s.Finalized != nil {
		s.Finalized.Publish(key, value)
	}
}
