// Package store persists converted catalog rows in PostgreSQL.
package store

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/b2bconvert/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// stageColumns is the COPY column order for products_stage.
var stageColumns = []string{
	"line", "vendor_id", "sku", "style", "color",
	"product_type", "pricing_unit", "price", "cut_cost",
}

// Postgres implements core.ProductStore on a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps pool as a ProductStore.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

var _ core.ProductStore = (*Postgres)(nil)

// ImportRows stores rows as one batch inside a single transaction. Vendors are
// created on first sight. A product with a SKU replaces the stored product
// with the same vendor and SKU, compared case-insensitively; within a batch
// the last occurrence wins. Products without a SKU are always appended. The
// result counts products inserted or updated.
func (p *Postgres) ImportRows(ctx context.Context, batch core.ImportBatch, rows []core.CanonicalRow) (int, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	batchID := pgtype.UUID{Bytes: batch.ID, Valid: true}
	if _, err := tx.Exec(ctx,
		`INSERT INTO import_batches (id, file_name, already_b2b, rows, warnings, ip_address, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		batchID, batch.FileName, batch.AlreadyB2B, len(rows), batch.Warnings,
		batch.Meta.IPAddress, batch.Meta.UserAgent, batch.CreatedAt,
	); err != nil {
		return 0, fmt.Errorf("record batch: %w", err)
	}

	vendorIDs, err := upsertVendors(ctx, tx, distinctVendors(rows))
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx,
		`CREATE TEMP TABLE products_stage (
			line         INTEGER,
			vendor_id    BIGINT,
			sku          TEXT,
			style        TEXT,
			color        TEXT,
			product_type TEXT,
			pricing_unit TEXT,
			price        NUMERIC,
			cut_cost     NUMERIC
		) ON COMMIT DROP`,
	); err != nil {
		return 0, fmt.Errorf("create stage table: %w", err)
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"products_stage"},
		stageColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{
				i,
				vendorIDs[r.Manufacturer],
				r.SKU,
				r.StyleName,
				r.ColorName,
				r.ProductType,
				string(r.PricingUnit),
				toPgNumeric(r.Price),
				toPgNumeric(r.CutCost),
			}, nil
		}),
	); err != nil {
		return 0, fmt.Errorf("copy products: %w", err)
	}

	merged, err := tx.Exec(ctx,
		`INSERT INTO products (vendor_id, sku, style, color, product_type, pricing_unit, price, cut_cost, batch_id, updated_at)
		 SELECT DISTINCT ON (vendor_id, lower(sku))
		        vendor_id, sku, style, color, product_type, pricing_unit, price, cut_cost, $1, now()
		   FROM products_stage
		  WHERE sku <> ''
		  ORDER BY vendor_id, lower(sku), line DESC
		 ON CONFLICT (vendor_id, (lower(sku))) WHERE sku <> '' DO UPDATE SET
		        sku          = EXCLUDED.sku,
		        style        = EXCLUDED.style,
		        color        = EXCLUDED.color,
		        product_type = EXCLUDED.product_type,
		        pricing_unit = EXCLUDED.pricing_unit,
		        price        = EXCLUDED.price,
		        cut_cost     = EXCLUDED.cut_cost,
		        batch_id     = EXCLUDED.batch_id,
		        updated_at   = now()`,
		batchID,
	)
	if err != nil {
		return 0, fmt.Errorf("merge products: %w", err)
	}

	appended, err := tx.Exec(ctx,
		`INSERT INTO products (vendor_id, sku, style, color, product_type, pricing_unit, price, cut_cost, batch_id)
		 SELECT vendor_id, sku, style, color, product_type, pricing_unit, price, cut_cost, $1
		   FROM products_stage
		  WHERE sku = ''
		  ORDER BY line`,
		batchID,
	)
	if err != nil {
		return 0, fmt.Errorf("append products: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return int(merged.RowsAffected() + appended.RowsAffected()), nil
}

// upsertVendors returns the id of every named vendor, creating missing ones.
func upsertVendors(ctx context.Context, tx pgx.Tx, names []string) (map[string]int64, error) {
	batch := &pgx.Batch{}
	for _, name := range names {
		batch.Queue(
			`INSERT INTO vendors (name) VALUES ($1)
			 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			 RETURNING id`,
			name,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	ids := make(map[string]int64, len(names))
	for _, name := range names {
		var id int64
		if err := results.QueryRow().Scan(&id); err != nil {
			return nil, fmt.Errorf("upsert vendor %q: %w", name, err)
		}
		ids[name] = id
	}
	return ids, nil
}

// ListProducts returns every stored product ordered by vendor and SKU.
func (p *Postgres) ListProducts(ctx context.Context) ([]core.StoredProduct, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT v.name, p.sku, p.style, p.color, p.product_type, p.pricing_unit,
		        p.price::text, p.cut_cost::text
		   FROM products p
		   JOIN vendors v ON v.id = p.vendor_id
		  ORDER BY v.name, p.sku, p.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []core.StoredProduct{}
	for rows.Next() {
		var (
			sp          core.StoredProduct
			price, cost string
		)
		if err := rows.Scan(&sp.Vendor, &sp.SKU, &sp.Style, &sp.Color, &sp.ProductType, &sp.PricingUnit, &price, &cost); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if sp.Price, err = decimalFromText(price); err != nil {
			return nil, fmt.Errorf("product %s price: %w", sp.SKU, err)
		}
		if sp.CutCost, err = decimalFromText(cost); err != nil {
			return nil, fmt.Errorf("product %s cut cost: %w", sp.SKU, err)
		}
		sp.Currency = core.DefaultCurrency
		products = append(products, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}
