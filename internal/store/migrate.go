package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements create the catalog tables. Every statement is idempotent so
// Migrate can run on each start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS vendors (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS import_batches (
		id          UUID PRIMARY KEY,
		file_name   TEXT NOT NULL DEFAULT '',
		already_b2b BOOLEAN NOT NULL DEFAULT false,
		rows        INTEGER NOT NULL DEFAULT 0,
		warnings    INTEGER NOT NULL DEFAULT 0,
		ip_address  TEXT NOT NULL DEFAULT '',
		user_agent  TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id           BIGSERIAL PRIMARY KEY,
		vendor_id    BIGINT NOT NULL REFERENCES vendors(id),
		sku          TEXT NOT NULL DEFAULT '',
		style        TEXT NOT NULL DEFAULT '',
		color        TEXT NOT NULL DEFAULT '',
		product_type TEXT NOT NULL DEFAULT '',
		pricing_unit TEXT NOT NULL DEFAULT 'EA',
		price        NUMERIC NOT NULL DEFAULT 0,
		cut_cost     NUMERIC NOT NULL DEFAULT 0,
		batch_id     UUID REFERENCES import_batches(id),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`DROP INDEX IF EXISTS products_vendor_sku_idx`,
	`CREATE UNIQUE INDEX IF NOT EXISTS products_vendor_lower_sku_idx
		ON products (vendor_id, lower(sku)) WHERE sku <> ''`,
}

// Migrate creates the vendor, product and batch tables when missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	return nil
}
