package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/retail-backoffice/internal/listing"
	"github.com/ariefcatur/retail-backoffice/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type Repo struct{ DB postgres.DBTX }

const columns = `id, name, email, phone, address, created_at, updated_at`

func (r *Repo) List(ctx context.Context, f Filter) (listing.Page[Customer], error) {
	var (
		clause string
		args   []any
	)
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+q+"%")
		clause = ` WHERE name ILIKE $1 OR email ILIKE $1 OR phone ILIKE $1`
	}

	p := listing.Params{Page: f.Page, PageSize: f.PageSize}
	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM customers`+clause, args...).Scan(&total); err != nil {
		return listing.Page[Customer]{}, err
	}

	args = append(args, p.Limit(), p.Offset())
	rows, err := r.DB.Query(ctx, fmt.Sprintf(`SELECT %s FROM customers%s ORDER BY name, id LIMIT $%d OFFSET $%d`,
		columns, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return listing.Page[Customer]{}, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return listing.Page[Customer]{}, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return listing.Page[Customer]{}, err
	}
	return listing.NewPage(out, p, total), nil
}

func (r *Repo) Get(ctx context.Context, id string) (*Customer, error) {
	var (
		c     Customer
		spent decimal.Decimal
	)
	err := r.DB.QueryRow(ctx, `
		SELECT c.id, c.name, c.email, c.phone, c.address, c.created_at, c.updated_at,
		       COUNT(o.id), COALESCE(SUM(o.total) FILTER (WHERE o.status = 'completed'), 0)
		FROM customers c LEFT JOIN orders o ON o.customer_id = c.id
		WHERE c.id = $1
		GROUP BY c.id`, id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt, &c.OrderCount, &spent)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.TotalSpent = &spent
	return &c, nil
}

func (r *Repo) Create(ctx context.Context, c *Customer) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO customers(id, name, email, phone, address)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Email, c.Phone, c.Address,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if postgres.IsUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *Repo) Update(ctx context.Context, c *Customer) error {
	err := r.DB.QueryRow(ctx, `
		UPDATE customers SET name=$2, email=$3, phone=$4, address=$5, updated_at=now()
		WHERE id=$1
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Email, c.Phone, c.Address,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case postgres.IsUniqueViolation(err):
		return ErrDuplicateEmail
	}
	return err
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM customers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
