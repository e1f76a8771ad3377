package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// schemaLockID clave del advisory lock que serializa la creación del esquema entre instancias.
const schemaLockID = 7_302_114

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS warehouses (
		id TEXT PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS warehouse_products (
		warehouse_id TEXT NOT NULL REFERENCES warehouses(id),
		product_id   TEXT NOT NULL REFERENCES products(id),
		quantity     BIGINT NOT NULL DEFAULT 0
			CONSTRAINT warehouse_products_quantity_non_negative CHECK (quantity >= 0),
		PRIMARY KEY (warehouse_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS movements (
		id                       TEXT PRIMARY KEY,
		product_id               TEXT NOT NULL REFERENCES products(id),
		source_warehouse_id      TEXT NULL REFERENCES warehouses(id),
		departure_time           TIMESTAMPTZ NULL,
		departure_quantity       BIGINT NULL,
		destination_warehouse_id TEXT NULL REFERENCES warehouses(id),
		arrival_time             TIMESTAMPTZ NULL,
		arrival_quantity         BIGINT NULL
	)`,
}

// Migrate crea las tablas si no existen. Es idempotente.
func Migrate(ctx context.Context, q Querier) error {
	return atomic(ctx, q, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
			return mapError("schema lock", err)
		}
		for i, stmt := range schemaStatements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return mapError(fmt.Sprintf("schema statement %d", i), err)
			}
		}
		return nil
	})
}
