package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// stock has no CHECK (stock >= 0); every decrement carries a stock >= qty predicate instead.
const schema = `
CREATE TABLE IF NOT EXISTS categories (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS products (
	id          UUID PRIMARY KEY,
	sku         TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	price       NUMERIC(12,2) NOT NULL,
	stock       INTEGER NOT NULL DEFAULT 0,
	category_id UUID REFERENCES categories(id) ON DELETE SET NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS customers (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT UNIQUE,
	phone      TEXT NOT NULL DEFAULT '',
	address    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS orders (
	id             UUID PRIMARY KEY,
	subtotal       NUMERIC(12,2) NOT NULL,
	discount       NUMERIC(12,2) NOT NULL DEFAULT 0,
	tax            NUMERIC(12,2) NOT NULL DEFAULT 0,
	total          NUMERIC(12,2) NOT NULL,
	status         TEXT NOT NULL,
	payment_method TEXT NOT NULL,
	customer_id    UUID REFERENCES customers(id) ON DELETE SET NULL,
	user_id        TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS order_items (
	id         UUID PRIMARY KEY,
	order_id   UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	product_id UUID NOT NULL REFERENCES products(id),
	quantity   INTEGER NOT NULL,
	price      NUMERIC(12,2) NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);
CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);
CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id);
`

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
