package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/retail-backoffice/internal/listing"
	"github.com/ariefcatur/retail-backoffice/internal/postgres"
	"github.com/jackc/pgx/v5"
)

type Repo struct{ DB postgres.DBTX }

var sortColumns = map[string]string{
	"name":       "p.name",
	"price":      "p.price",
	"stock":      "p.stock",
	"created_at": "p.created_at",
}

const productColumns = `p.id, p.sku, p.name, p.price, p.stock, p.category_id, c.name, p.created_at, p.updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.Stock, &p.CategoryID, &p.CategoryName, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *Repo) ListProducts(ctx context.Context, f ProductFilter, lowStockThreshold int) (listing.Page[Product], error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(args))))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		add("(p.name ILIKE ? OR p.sku ILIKE ?)", "%"+q+"%")
	}
	if f.CategoryID != "" {
		add("p.category_id = ?", f.CategoryID)
	}
	if f.LowStock {
		add("p.stock <= ?", lowStockThreshold)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	col, ok := sortColumns[f.Sort]
	if !ok {
		col = "p.name"
	}

	p := listing.Params{Page: f.Page, PageSize: f.PageSize}
	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products p`+clause, args...).Scan(&total); err != nil {
		return listing.Page[Product]{}, err
	}

	args = append(args, p.Limit(), p.Offset())
	sql := fmt.Sprintf(`SELECT %s FROM products p LEFT JOIN categories c ON c.id = p.category_id%s
		ORDER BY %s %s, p.id LIMIT $%d OFFSET $%d`,
		productColumns, clause, col, listing.Direction(f.Order), len(args)-1, len(args))
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return listing.Page[Product]{}, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		pr, err := scanProduct(rows)
		if err != nil {
			return listing.Page[Product]{}, err
		}
		out = append(out, pr)
	}
	if err := rows.Err(); err != nil {
		return listing.Page[Product]{}, err
	}
	return listing.NewPage(out, p, total), nil
}

func (r *Repo) GetProduct(ctx context.Context, id string) (*Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+`
		FROM products p LEFT JOIN categories c ON c.id = p.category_id WHERE p.id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) CreateProduct(ctx context.Context, p *Product) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO products(id, sku, name, price, stock, category_id)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		p.ID, p.SKU, p.Name, p.Price, p.Stock, p.CategoryID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapWriteErr(err)
}

// UpdateProduct writes everything but stock, which only moves through stock adjustments and checkout.
func (r *Repo) UpdateProduct(ctx context.Context, p *Product) error {
	err := r.DB.QueryRow(ctx, `
		UPDATE products SET sku=$2, name=$3, price=$4, category_id=$5, updated_at=now()
		WHERE id=$1
		RETURNING stock, created_at, updated_at`,
		p.ID, p.SKU, p.Name, p.Price, p.CategoryID,
	).Scan(&p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrProductNotFound
	}
	return mapWriteErr(err)
}

func (r *Repo) DeleteProduct(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if postgres.IsForeignKeyViolation(err) {
		return ErrProductInUse
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func mapWriteErr(err error) error {
	switch {
	case err == nil:
		return nil
	case postgres.IsUniqueViolation(err):
		return ErrDuplicateSKU
	case postgres.IsForeignKeyViolation(err):
		return ErrCategoryNotFound
	}
	return err
}

func (r *Repo) IncreaseStock(ctx context.Context, id string, qty int) (int, error) {
	return r.stockUpdate(ctx, `UPDATE products SET stock = stock + $2, updated_at = now() WHERE id=$1 RETURNING stock`, id, qty)
}

func (r *Repo) SetStock(ctx context.Context, id string, qty int) (int, error) {
	return r.stockUpdate(ctx, `UPDATE products SET stock = $2, updated_at = now() WHERE id=$1 RETURNING stock`, id, qty)
}

// DecreaseStock is conditional on stock >= qty, like checkout.
func (r *Repo) DecreaseStock(ctx context.Context, id string, qty int) (int, error) {
	stock, err := r.stockUpdate(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id=$1 AND stock >= $2 RETURNING stock`, id, qty)
	if !errors.Is(err, ErrProductNotFound) {
		return stock, err
	}
	// no row: either the product is gone or stock was short
	if _, gerr := r.GetProduct(ctx, id); gerr != nil {
		return 0, gerr
	}
	return 0, ErrInsufficientStock
}

func (r *Repo) stockUpdate(ctx context.Context, sql, id string, qty int) (int, error) {
	var stock int
	err := r.DB.QueryRow(ctx, sql, id, qty).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrProductNotFound
	}
	return stock, err
}

func (r *Repo) StockLevels(ctx context.Context, ids []string) (map[string]int, error) {
	out := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.DB.Query(ctx, `SELECT id, stock FROM products WHERE id = ANY($1)`, postgres.UUIDArray(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id    string
			stock int
		)
		if err := rows.Scan(&id, &stock); err != nil {
			return nil, err
		}
		out[id] = stock
	}
	return out, rows.Err()
}

func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT c.id, c.name, COUNT(p.id), c.created_at
		FROM categories c LEFT JOIN products p ON p.category_id = c.id
		GROUP BY c.id ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ProductCount, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) CreateCategory(ctx context.Context, c *Category) error {
	err := r.DB.QueryRow(ctx, `INSERT INTO categories(id, name) VALUES ($1,$2) RETURNING created_at`,
		c.ID, c.Name).Scan(&c.CreatedAt)
	if postgres.IsUniqueViolation(err) {
		return ErrDuplicateCategory
	}
	return err
}

func (r *Repo) DeleteCategory(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
