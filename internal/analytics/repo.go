package analytics

import (
	"context"
	"time"

	"github.com/ariefcatur/retail-backoffice/internal/postgres"
	"github.com/shopspring/decimal"
)

// Repo runs read-only aggregations. Only completed orders count as sales.
type Repo struct{ DB postgres.DBTX }

func (r *Repo) Revenue(ctx context.Context, from time.Time) (decimal.Decimal, int, error) {
	var (
		sum   decimal.Decimal
		count int
	)
	err := r.DB.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0), COUNT(*)
		FROM orders WHERE status = 'completed' AND created_at >= $1`, from,
	).Scan(&sum, &count)
	return sum, count, err
}

func (r *Repo) count(ctx context.Context, sql string, args ...any) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, sql, args...).Scan(&n)
	return n, err
}

func (r *Repo) CountCustomers(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM customers`)
}

func (r *Repo) CountProducts(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM products`)
}

func (r *Repo) CountLowStock(ctx context.Context, threshold int) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM products WHERE stock <= $1`, threshold)
}

func (r *Repo) SalesSeries(ctx context.Context, b Bucket, rg Range) ([]SalesPoint, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT date_trunc($1, created_at) AS bucket, COALESCE(SUM(total), 0), COUNT(*)
		FROM orders
		WHERE status = 'completed' AND created_at >= $2 AND created_at < $3
		GROUP BY bucket ORDER BY bucket`, string(b), rg.From, rg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []SalesPoint{}
	for rows.Next() {
		var p SalesPoint
		if err := rows.Scan(&p.Bucket, &p.Revenue, &p.Orders); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) TopProducts(ctx context.Context, rg Range, limit int) ([]TopProduct, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT p.id, p.name, SUM(oi.quantity) AS qty, SUM(oi.quantity * oi.price)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE o.status = 'completed' AND o.created_at >= $1 AND o.created_at < $2
		GROUP BY p.id, p.name
		ORDER BY qty DESC, p.name
		LIMIT $3`, rg.From, rg.To, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TopProduct{}
	for rows.Next() {
		var t TopProduct
		if err := rows.Scan(&t.ProductID, &t.Name, &t.Quantity, &t.Revenue); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
