// Package memstore is an in-memory orders.Store used by tests and local
// development. Transactions take a full snapshot at begin and restore it on
// error, giving the same commit-or-nothing behavior as the pgx repo; a
// single mutex serializes units of work.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/go-order-payments.git/internal/orders"
)

type data struct {
	users    map[string]orders.User
	orders   map[string]orders.Order // items stripped; kept in items map
	items    map[string]orders.OrderItem
	gateways map[string]orders.Gateway
	payments map[string]orders.Payment
}

func (d *data) clone() *data {
	c := &data{
		users:    make(map[string]orders.User, len(d.users)),
		orders:   make(map[string]orders.Order, len(d.orders)),
		items:    make(map[string]orders.OrderItem, len(d.items)),
		gateways: make(map[string]orders.Gateway, len(d.gateways)),
		payments: make(map[string]orders.Payment, len(d.payments)),
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.orders {
		v.Items = nil
		c.orders[k] = v
	}
	for k, v := range d.items {
		c.items[k] = v
	}
	for k, v := range d.gateways {
		cfg := make(map[string]string, len(v.Config))
		for ck, cv := range v.Config {
			cfg[ck] = cv
		}
		v.Config = cfg
		c.gateways[k] = v
	}
	for k, v := range d.payments {
		c.payments[k] = v
	}
	return c
}

type Store struct {
	mu   sync.Mutex
	d    *data
	seq  int            // insertion counter, stands in for serial row ids
	seqs map[string]int // id -> insertion order
}

func New() *Store {
	return &Store{seqs: map[string]int{}, d: &data{
		users:    map[string]orders.User{},
		orders:   map[string]orders.Order{},
		items:    map[string]orders.OrderItem{},
		gateways: map[string]orders.Gateway{},
		payments: map[string]orders.Payment{},
	}}
}

func (s *Store) WithTx(ctx context.Context, fn func(orders.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.d.clone()
	tx := &memTx{s: s}
	if err := fn(tx); err != nil {
		s.d = snapshot
		return err
	}
	return nil
}

type memTx struct{ s *Store }

// Memstore ids are uuids, so "descending id" listings order by insertion
// counter the way the SQL schema orders by its serial-ish ids.
func (t *memTx) nextSeq(id string) {
	t.s.seq++
	t.s.seqs[id] = t.s.seq
}

// ---- users ----

func (t *memTx) InsertUser(ctx context.Context, u *orders.User) error {
	for _, other := range t.s.d.users {
		if other.Email == u.Email {
			return fmt.Errorf("%w: email already registered", orders.ErrValidation)
		}
	}
	t.s.d.users[u.ID] = *u
	return nil
}

func (t *memTx) GetUser(ctx context.Context, id string) (*orders.User, error) {
	u, ok := t.s.d.users[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return &u, nil
}

func (t *memTx) GetUserByEmail(ctx context.Context, email string) (*orders.User, error) {
	for _, u := range t.s.d.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, orders.ErrNotFound
}

// ---- orders ----

func (t *memTx) InsertOrder(ctx context.Context, o *orders.Order) error {
	cp := *o
	cp.Items = nil
	t.s.d.orders[o.ID] = cp
	t.nextSeq(o.ID)
	return nil
}

func (t *memTx) GetOrder(ctx context.Context, id, userID string) (*orders.Order, error) {
	o, ok := t.s.d.orders[id]
	if !ok || o.UserID != userID {
		return nil, orders.ErrNotFound
	}
	o.Items = t.itemsOf(id)
	return &o, nil
}

func (t *memTx) itemsOf(orderID string) []orders.OrderItem {
	var out []orders.OrderItem
	for _, it := range t.s.d.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return t.s.seqs[out[i].ID] < t.s.seqs[out[j].ID] })
	return out
}

func (t *memTx) ListOrders(ctx context.Context, userID string, f orders.OrderFilter) ([]orders.Order, int, error) {
	var all []orders.Order
	for _, o := range t.s.d.orders {
		if o.UserID != userID {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		if f.From != nil && o.OrderDate.Before(*f.From) {
			continue
		}
		if f.To != nil && o.OrderDate.After(*f.To) {
			continue
		}
		o.Items = t.itemsOf(o.ID)
		all = append(all, o)
	}
	sort.Slice(all, func(i, j int) bool { return t.s.seqs[all[i].ID] > t.s.seqs[all[j].ID] })

	total := len(all)
	page := f.Page.Normalize()
	lo := page.Offset()
	if lo > total {
		lo = total
	}
	hi := lo + page.PerPage
	if hi > total {
		hi = total
	}
	return all[lo:hi], total, nil
}

func (t *memTx) UpdateOrderHeader(ctx context.Context, id string, orderDate *time.Time, notes *string) error {
	o, ok := t.s.d.orders[id]
	if !ok {
		return orders.ErrNotFound
	}
	if orderDate != nil {
		o.OrderDate = *orderDate
	}
	if notes != nil {
		o.Notes = *notes
	}
	o.UpdatedAt = time.Now().UTC()
	t.s.d.orders[id] = o
	return nil
}

func (t *memTx) UpdateOrderStatus(ctx context.Context, id string, status orders.Status) error {
	o, ok := t.s.d.orders[id]
	if !ok {
		return orders.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	t.s.d.orders[id] = o
	return nil
}

func (t *memTx) DeleteOrder(ctx context.Context, id string) error {
	for itemID, it := range t.s.d.items {
		if it.OrderID == id {
			delete(t.s.d.items, itemID)
		}
	}
	delete(t.s.d.orders, id)
	return nil
}

// ---- items ----

func (t *memTx) InsertItem(ctx context.Context, it *orders.OrderItem) error {
	t.s.d.items[it.ID] = *it
	t.nextSeq(it.ID)
	return nil
}

func (t *memTx) UpdateItem(ctx context.Context, it *orders.OrderItem) error {
	cur, ok := t.s.d.items[it.ID]
	if !ok || cur.OrderID != it.OrderID {
		return orders.ErrNotFound
	}
	t.s.d.items[it.ID] = *it
	return nil
}

func (t *memTx) DeleteItems(ctx context.Context, orderID string, ids []string) error {
	for _, id := range ids {
		if it, ok := t.s.d.items[id]; ok && it.OrderID == orderID {
			delete(t.s.d.items, id)
		}
	}
	return nil
}

// ---- gateways ----

func (t *memTx) InsertGateway(ctx context.Context, g *orders.Gateway) error {
	t.s.d.gateways[g.ID] = *g
	t.nextSeq(g.ID)
	return nil
}

func (t *memTx) GetGateway(ctx context.Context, id string) (*orders.Gateway, error) {
	g, ok := t.s.d.gateways[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return &g, nil
}

func (t *memTx) ListGateways(ctx context.Context) ([]orders.Gateway, error) {
	var out []orders.Gateway
	for _, g := range t.s.d.gateways {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return t.s.seqs[out[i].ID] < t.s.seqs[out[j].ID] })
	return out, nil
}

func (t *memTx) UpdateGateway(ctx context.Context, g *orders.Gateway) error {
	if _, ok := t.s.d.gateways[g.ID]; !ok {
		return orders.ErrNotFound
	}
	t.s.d.gateways[g.ID] = *g
	return nil
}

func (t *memTx) DeleteGateway(ctx context.Context, id string) error {
	if _, ok := t.s.d.gateways[id]; !ok {
		return orders.ErrNotFound
	}
	delete(t.s.d.gateways, id)
	return nil
}

func (t *memTx) GatewayHasPayments(ctx context.Context, gatewayID string) (bool, error) {
	for _, p := range t.s.d.payments {
		if p.GatewayID == gatewayID {
			return true, nil
		}
	}
	return false, nil
}

// ---- payments ----

func (t *memTx) InsertPayment(ctx context.Context, p *orders.Payment) error {
	for _, other := range t.s.d.payments {
		if other.OrderID == p.OrderID {
			return fmt.Errorf("%w: order already has a payment", orders.ErrOrderNotPayable)
		}
		if p.GatewayPaymentID != "" && other.GatewayID == p.GatewayID &&
			other.GatewayPaymentID == p.GatewayPaymentID {
			return fmt.Errorf("%w: duplicate gateway payment id %s", orders.ErrValidation, p.GatewayPaymentID)
		}
	}
	t.s.d.payments[p.ID] = *p
	t.nextSeq(p.ID)
	return nil
}

func (t *memTx) SetPaymentExternalID(ctx context.Context, paymentID, externalID string) error {
	p, ok := t.s.d.payments[paymentID]
	if !ok {
		return orders.ErrPaymentNotFound
	}
	for _, other := range t.s.d.payments {
		if other.ID != paymentID && other.GatewayID == p.GatewayID &&
			other.GatewayPaymentID == externalID {
			return fmt.Errorf("%w: duplicate gateway payment id %s", orders.ErrValidation, externalID)
		}
	}
	p.GatewayPaymentID = externalID
	p.UpdatedAt = time.Now().UTC()
	t.s.d.payments[paymentID] = p
	return nil
}

func (t *memTx) OrderHasPayment(ctx context.Context, orderID string) (bool, error) {
	for _, p := range t.s.d.payments {
		if p.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) GetPayment(ctx context.Context, id string) (*orders.Payment, error) {
	p, ok := t.s.d.payments[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return &p, nil
}

func (t *memTx) GetPaymentByGatewayRef(ctx context.Context, gatewayID, externalID string) (*orders.Payment, error) {
	for _, p := range t.s.d.payments {
		if p.GatewayID == gatewayID && p.GatewayPaymentID == externalID && externalID != "" {
			p := p
			return &p, nil
		}
	}
	return nil, orders.ErrPaymentNotFound
}

func (t *memTx) FinalizePayment(ctx context.Context, paymentID string, status orders.PaymentStatus, date time.Time, notes string) error {
	p, ok := t.s.d.payments[paymentID]
	if !ok {
		return orders.ErrPaymentNotFound
	}
	p.Status = status
	p.PaymentDate = date
	p.Notes = notes
	p.UpdatedAt = time.Now().UTC()
	t.s.d.payments[paymentID] = p
	return nil
}

func (t *memTx) ListPayments(ctx context.Context, f orders.PaymentFilter) ([]orders.Payment, int, error) {
	var all []orders.Payment
	for _, p := range t.s.d.payments {
		if f.OrderID != "" && p.OrderID != f.OrderID {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return t.s.seqs[all[i].ID] > t.s.seqs[all[j].ID] })

	total := len(all)
	page := f.Page.Normalize()
	lo := page.Offset()
	if lo > total {
		lo = total
	}
	hi := lo + page.PerPage
	if hi > total {
		hi = total
	}
	return all[lo:hi], total, nil
}
