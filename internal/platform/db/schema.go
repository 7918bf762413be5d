package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT categories_name_key UNIQUE (name)
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		barcode TEXT,
		sku TEXT NOT NULL DEFAULT '',
		category_id UUID REFERENCES categories(id),
		stock INTEGER NOT NULL DEFAULT 0,
		min_stock INTEGER NOT NULL DEFAULT 0,
		price NUMERIC(14,2) NOT NULL DEFAULT 0,
		price2 NUMERIC(14,2) NOT NULL DEFAULT 0,
		price3 NUMERIC(14,2) NOT NULL DEFAULT 0,
		cost_price NUMERIC(14,2) NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT products_barcode_key UNIQUE (barcode)
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id UUID PRIMARY KEY,
		customer_number TEXT,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		price_tier TEXT NOT NULL DEFAULT 'PRICE1',
		balance NUMERIC(14,2) NOT NULL DEFAULT 0,
		credit_limit NUMERIC(14,2) NOT NULL DEFAULT 0,
		due_days INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT customers_name_key UNIQUE (name),
		CONSTRAINT customers_customer_number_key UNIQUE (customer_number)
	)`,
	`CREATE TABLE IF NOT EXISTS suppliers (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		balance NUMERIC(14,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT suppliers_name_key UNIQUE (name)
	)`,
	`CREATE TABLE IF NOT EXISTS invoices (
		id UUID PRIMARY KEY,
		kind TEXT NOT NULL CHECK (kind IN ('SALE','PURCHASE')),
		invoice_number TEXT NOT NULL,
		customer_id UUID REFERENCES customers(id),
		supplier_id UUID REFERENCES suppliers(id),
		total_amount NUMERIC(14,2) NOT NULL,
		paid_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
		discount NUMERIC(14,2) NOT NULL DEFAULT 0,
		tax NUMERIC(14,2) NOT NULL DEFAULT 0,
		balance_delta NUMERIC(14,2) NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT invoices_kind_invoice_number_key UNIQUE (kind, invoice_number),
		CHECK (customer_id IS NULL OR supplier_id IS NULL)
	)`,
	`CREATE INDEX IF NOT EXISTS invoices_customer_idx ON invoices (customer_id) WHERE customer_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS invoices_supplier_idx ON invoices (supplier_id) WHERE supplier_id IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS invoice_items (
		id UUID PRIMARY KEY,
		invoice_id UUID NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		line_no INTEGER NOT NULL DEFAULT 0,
		product_id UUID NOT NULL REFERENCES products(id),
		price NUMERIC(14,2) NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		discount NUMERIC(14,2) NOT NULL DEFAULT 0,
		total NUMERIC(14,2) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS invoice_items_invoice_idx ON invoice_items (invoice_id)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id UUID PRIMARY KEY,
		customer_id UUID REFERENCES customers(id),
		supplier_id UUID REFERENCES suppliers(id),
		amount NUMERIC(14,2) NOT NULL CHECK (amount > 0),
		type TEXT NOT NULL CHECK (type IN ('RECEIVE','PAY')),
		payment_method TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK ((customer_id IS NULL) <> (supplier_id IS NULL))
	)`,
	`CREATE TABLE IF NOT EXISTS expenses (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		amount NUMERIC(14,2) NOT NULL CHECK (amount > 0),
		category TEXT NOT NULL DEFAULT '',
		date TIMESTAMPTZ NOT NULL,
		payment_method TEXT NOT NULL,
		receipt_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS cashbox_transactions (
		id UUID PRIMARY KEY,
		type TEXT NOT NULL CHECK (type IN ('INCOME','EXPENSE')),
		amount NUMERIC(14,2) NOT NULL CHECK (amount >= 0),
		description TEXT NOT NULL,
		reference TEXT,
		payment_method TEXT NOT NULL DEFAULT 'CASH',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS cashbox_transactions_created_idx ON cashbox_transactions (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS cashbox_guard (
		id SMALLINT PRIMARY KEY,
		version BIGINT NOT NULL DEFAULT 0
	)`,
	`INSERT INTO cashbox_guard (id) VALUES (1) ON CONFLICT (id) DO NOTHING`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id BIGSERIAL PRIMARY KEY,
		actor TEXT NOT NULL,
		action TEXT NOT NULL,
		entity TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		meta JSONB,
		occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS idempotency_keys (
		scope TEXT NOT NULL,
		key TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (scope, key)
	)`,
	`CREATE INDEX IF NOT EXISTS idempotency_keys_created_at_idx ON idempotency_keys (created_at)`,
}

// Migrate creates the schema when it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("platform/db: migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
