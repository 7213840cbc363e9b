package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/retail-backoffice/internal/listing"
	"github.com/ariefcatur/retail-backoffice/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the Postgres Store. Pool is nil for a Repo bound to a transaction.
type Repo struct {
	DB   postgres.DBTX
	Pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{DB: pool, Pool: pool} }

func (r *Repo) InTx(ctx context.Context, fn func(Store) error) error {
	if r.Pool == nil {
		return fn(r)
	}
	return txErr(postgres.WithTx(ctx, r.Pool, func(tx pgx.Tx) error {
		return fn(&Repo{DB: tx})
	}))
}

// txErr reports a deadlock abort as a stock conflict; the client may retry.
func txErr(err error) error {
	if postgres.IsDeadlock(err) {
		return fmt.Errorf("%w: %v", ErrStockConflict, err)
	}
	return err
}

func (r *Repo) ProductsByID(ctx context.Context, ids []string) (map[string]ProductSnapshot, error) {
	out := make(map[string]ProductSnapshot, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.DB.Query(ctx, `SELECT id, name, price, stock FROM products WHERE id = ANY($1)`, postgres.UUIDArray(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p ProductSnapshot
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *Repo) CustomerExists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM customers WHERE id=$1)`, id).Scan(&ok)
	return ok, err
}

func (r *Repo) DecrementStock(ctx context.Context, productID string, qty int) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`, productID, qty)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (r *Repo) RestoreStock(ctx context.Context, productID string, qty int) error {
	_, err := r.DB.Exec(ctx, `UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1`, productID, qty)
	return err
}

func (r *Repo) InsertOrder(ctx context.Context, o *Order) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO orders(id, subtotal, discount, tax, total, status, payment_method, customer_id, user_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		o.ID, o.Subtotal, o.Discount, o.Tax, o.Total, string(o.Status), string(o.PaymentMethod),
		o.CustomerID, o.UserID, o.CreatedAt, o.UpdatedAt,
	)
	return err
}

func (r *Repo) InsertItems(ctx context.Context, items []OrderItem) error {
	for _, it := range items {
		if _, err := r.DB.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, quantity, price)
			VALUES ($1,$2,$3,$4,$5)`,
			it.ID, it.OrderID, it.ProductID, it.Quantity, it.Price,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) DeleteOrder(ctx context.Context, orderID string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM orders WHERE id=$1`, orderID)
	return err
}

const orderColumns = `id, subtotal, discount, tax, total, status, payment_method, customer_id, user_id, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o             Order
		status, payBy string
	)
	err := row.Scan(&o.ID, &o.Subtotal, &o.Discount, &o.Tax, &o.Total, &status, &payBy,
		&o.CustomerID, &o.UserID, &o.CreatedAt, &o.UpdatedAt)
	o.Status = Status(status)
	o.PaymentMethod = PaymentMethod(payBy)
	return o, err
}

func (r *Repo) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.price
		FROM order_items oi JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY p.name`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repo) ListOrders(ctx context.Context, f Filter) (listing.Page[Order], error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.CustomerID != "" {
		add("customer_id = $%d", f.CustomerID)
	}
	if !f.From.IsZero() {
		add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("created_at < $%d", f.To)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	p := listing.Params{Page: f.Page, PageSize: f.PageSize}
	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+clause, args...).Scan(&total); err != nil {
		return listing.Page[Order]{}, err
	}

	args = append(args, p.Limit(), p.Offset())
	rows, err := r.DB.Query(ctx, fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return listing.Page[Order]{}, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return listing.Page[Order]{}, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return listing.Page[Order]{}, err
	}
	return listing.NewPage(out, p, total), nil
}

func (r *Repo) SetStatus(ctx context.Context, orderID string, from, to Status) (bool, error) {
	ct, err := r.DB.Exec(ctx, `UPDATE orders SET status=$3, updated_at=now() WHERE id=$1 AND status=$2`,
		orderID, string(from), string(to))
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}
