package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo implements Store on top of pgxpool.
type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) WithTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgxTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgxTx struct{ tx pgx.Tx }

const uniqueViolation = "23505"

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraint
}

// ---- users ----

func (t *pgxTx) InsertUser(ctx context.Context, u *User) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO users(id, name, email, phone, password_hash, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, u.CreatedAt)
	if isUniqueViolation(err, "users_email_key") {
		return fmt.Errorf("%w: email already registered", ErrValidation)
	}
	return err
}

func (t *pgxTx) GetUser(ctx context.Context, id string) (*User, error) {
	return t.scanUser(t.tx.QueryRow(ctx, `
		SELECT id, name, email, phone, password_hash, created_at
		FROM users WHERE id=$1`, id))
}

func (t *pgxTx) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return t.scanUser(t.tx.QueryRow(ctx, `
		SELECT id, name, email, phone, password_hash, created_at
		FROM users WHERE email=$1`, email))
}

func (t *pgxTx) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ---- orders ----

func (t *pgxTx) InsertOrder(ctx context.Context, o *Order) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, status, order_date, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		o.ID, o.UserID, o.Status, o.OrderDate, o.Notes, o.CreatedAt, o.UpdatedAt)
	return err
}

func (t *pgxTx) GetOrder(ctx context.Context, id, userID string) (*Order, error) {
	var o Order
	err := t.tx.QueryRow(ctx, `
		SELECT id, user_id, status, order_date, notes, created_at, updated_at
		FROM orders WHERE id=$1 AND user_id=$2`, id, userID).
		Scan(&o.ID, &o.UserID, &o.Status, &o.OrderDate, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	items, err := t.listItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (t *pgxTx) ListOrders(ctx context.Context, userID string, f OrderFilter) ([]Order, int, error) {
	where := `WHERE user_id=$1`
	args := []any{userID}
	if f.Status != nil {
		args = append(args, *f.Status)
		where += fmt.Sprintf(" AND status=$%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where += fmt.Sprintf(" AND order_date >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where += fmt.Sprintf(" AND order_date <= $%d", len(args))
	}

	var total int
	if err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM orders `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := f.Page.Normalize()
	args = append(args, page.PerPage, page.Offset())
	rows, err := t.tx.Query(ctx, fmt.Sprintf(`
		SELECT id, user_id, status, order_date, notes, created_at, updated_at
		FROM orders %s ORDER BY id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.OrderDate, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range out {
		items, err := t.listItems(ctx, out[i].ID)
		if err != nil {
			return nil, 0, err
		}
		out[i].Items = items
	}
	return out, total, nil
}

func (t *pgxTx) UpdateOrderHeader(ctx context.Context, id string, orderDate *time.Time, notes *string) error {
	set := `updated_at=now()`
	args := []any{id}
	if orderDate != nil {
		args = append(args, *orderDate)
		set += fmt.Sprintf(", order_date=$%d", len(args))
	}
	if notes != nil {
		args = append(args, *notes)
		set += fmt.Sprintf(", notes=$%d", len(args))
	}
	_, err := t.tx.Exec(ctx, `UPDATE orders SET `+set+` WHERE id=$1`, args...)
	return err
}

func (t *pgxTx) UpdateOrderStatus(ctx context.Context, id string, status Status) error {
	ct, err := t.tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (t *pgxTx) DeleteOrder(ctx context.Context, id string) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, id); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	return err
}

// ---- items ----

func (t *pgxTx) listItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, order_id, product_name, quantity, price, notes
		FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductName, &it.Quantity, &it.Price, &it.Notes); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (t *pgxTx) InsertItem(ctx context.Context, it *OrderItem) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO order_items(id, order_id, product_name, quantity, price, notes)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		it.ID, it.OrderID, it.ProductName, it.Quantity, it.Price, it.Notes)
	return err
}

func (t *pgxTx) UpdateItem(ctx context.Context, it *OrderItem) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE order_items SET product_name=$2, quantity=$3, price=$4, notes=$5
		WHERE id=$1 AND order_id=$6`,
		it.ID, it.ProductName, it.Quantity, it.Price, it.Notes, it.OrderID)
	return err
}

func (t *pgxTx) DeleteItems(ctx context.Context, orderID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := t.tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1 AND id = ANY($2)`, orderID, ids)
	return err
}

// ---- gateways ----

func (t *pgxTx) InsertGateway(ctx context.Context, g *Gateway) error {
	cfg, err := json.Marshal(g.Config)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `
		INSERT INTO gateways(id, name, driver, config, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		g.ID, g.Name, g.Driver, cfg, g.CreatedAt, g.UpdatedAt)
	return err
}

func (t *pgxTx) GetGateway(ctx context.Context, id string) (*Gateway, error) {
	var g Gateway
	var cfg []byte
	err := t.tx.QueryRow(ctx, `
		SELECT id, name, driver, config, created_at, updated_at
		FROM gateways WHERE id=$1`, id).
		Scan(&g.ID, &g.Name, &g.Driver, &cfg, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(cfg, &g.Config); err != nil {
		return nil, err
	}
	return &g, nil
}

func (t *pgxTx) ListGateways(ctx context.Context) ([]Gateway, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, name, driver, config, created_at, updated_at
		FROM gateways ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Gateway
	for rows.Next() {
		var g Gateway
		var cfg []byte
		if err := rows.Scan(&g.ID, &g.Name, &g.Driver, &cfg, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(cfg, &g.Config); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (t *pgxTx) UpdateGateway(ctx context.Context, g *Gateway) error {
	cfg, err := json.Marshal(g.Config)
	if err != nil {
		return err
	}
	ct, err := t.tx.Exec(ctx, `
		UPDATE gateways SET name=$2, driver=$3, config=$4, updated_at=now() WHERE id=$1`,
		g.ID, g.Name, g.Driver, cfg)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (t *pgxTx) DeleteGateway(ctx context.Context, id string) error {
	ct, err := t.tx.Exec(ctx, `DELETE FROM gateways WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (t *pgxTx) GatewayHasPayments(ctx context.Context, gatewayID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM payments WHERE gateway_id=$1)`, gatewayID).Scan(&exists)
	return exists, err
}

// ---- payments ----

func (t *pgxTx) InsertPayment(ctx context.Context, p *Payment) error {
	var ext *string
	if p.GatewayPaymentID != "" {
		ext = &p.GatewayPaymentID
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO payments(id, order_id, gateway_id, gateway_payment_id,
		                     payment_method, payment_date, status, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.OrderID, p.GatewayID, ext,
		p.PaymentMethod, p.PaymentDate, p.Status, p.Notes, p.CreatedAt, p.UpdatedAt)
	// order_id is unique: the slower of two concurrent process calls loses here.
	if isUniqueViolation(err, "payments_order_id_key") {
		return fmt.Errorf("%w: order already has a payment", ErrOrderNotPayable)
	}
	return err
}

func (t *pgxTx) SetPaymentExternalID(ctx context.Context, paymentID, externalID string) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE payments SET gateway_payment_id=$2, updated_at=now() WHERE id=$1`,
		paymentID, externalID)
	if isUniqueViolation(err, "payments_gateway_ref_key") {
		return fmt.Errorf("%w: duplicate gateway payment id %s", ErrValidation, externalID)
	}
	return err
}

func (t *pgxTx) OrderHasPayment(ctx context.Context, orderID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM payments WHERE order_id=$1)`, orderID).Scan(&exists)
	return exists, err
}

func (t *pgxTx) GetPayment(ctx context.Context, id string) (*Payment, error) {
	return t.scanPayment(t.tx.QueryRow(ctx, `
		SELECT id, order_id, gateway_id, gateway_payment_id, payment_method,
		       payment_date, status, notes, created_at, updated_at
		FROM payments WHERE id=$1`, id))
}

func (t *pgxTx) GetPaymentByGatewayRef(ctx context.Context, gatewayID, externalID string) (*Payment, error) {
	p, err := t.scanPayment(t.tx.QueryRow(ctx, `
		SELECT id, order_id, gateway_id, gateway_payment_id, payment_method,
		       payment_date, status, notes, created_at, updated_at
		FROM payments WHERE gateway_id=$1 AND gateway_payment_id=$2`, gatewayID, externalID))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	return p, err
}

func (t *pgxTx) scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	var ext *string
	err := row.Scan(&p.ID, &p.OrderID, &p.GatewayID, &ext, &p.PaymentMethod,
		&p.PaymentDate, &p.Status, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if ext != nil {
		p.GatewayPaymentID = *ext
	}
	return &p, nil
}

func (t *pgxTx) FinalizePayment(ctx context.Context, paymentID string, status PaymentStatus, date time.Time, notes string) error {
	ct, err := t.tx.Exec(ctx, `
		UPDATE payments SET status=$2, payment_date=$3, notes=$4, updated_at=now()
		WHERE id=$1`, paymentID, status, date, notes)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrPaymentNotFound
	}
	return nil
}

func (t *pgxTx) ListPayments(ctx context.Context, f PaymentFilter) ([]Payment, int, error) {
	where := ""
	args := []any{}
	if f.OrderID != "" {
		args = append(args, f.OrderID)
		where = "WHERE order_id=$1"
	}

	var total int
	if err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM payments `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := f.Page.Normalize()
	args = append(args, page.PerPage, page.Offset())
	rows, err := t.tx.Query(ctx, fmt.Sprintf(`
		SELECT id, order_id, gateway_id, gateway_payment_id, payment_method,
		       payment_date, status, notes, created_at, updated_at
		FROM payments %s ORDER BY id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		var ext *string
		if err := rows.Scan(&p.ID, &p.OrderID, &p.GatewayID, &ext, &p.PaymentMethod,
			&p.PaymentDate, &p.Status, &p.Notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if ext != nil {
			p.GatewayPaymentID = *ext
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}
