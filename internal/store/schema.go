package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is the DDL applied on startup. Statements are idempotent so the
// service can restart against an existing database.
//
// Conventions: every id is an opaque TEXT uuid, every timestamp is RFC 3339
// UTC TEXT. member_verifications, inventory_movements, and audit_events are
// append-only; rows there are never updated or deleted, and stock is derived
// by summing movements rather than kept in a balance column.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id             TEXT PRIMARY KEY,
		member_number  TEXT NOT NULL UNIQUE,
		first_name     TEXT NOT NULL,
		last_name      TEXT NOT NULL,
		date_of_birth  TEXT,
		phone          TEXT,
		email          TEXT,
		status         TEXT NOT NULL DEFAULT 'PENDING',
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS member_verifications (
		id                    TEXT PRIMARY KEY,
		member_id             TEXT NOT NULL,
		outcome               TEXT NOT NULL,
		verified_by_staff_id  TEXT NOT NULL,
		notes                 TEXT,
		document_ref          TEXT,
		verified_at           TEXT NOT NULL,
		created_at            TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_member_verifications_member
		ON member_verifications(member_id, verified_at)`,
	`CREATE TABLE IF NOT EXISTS suppliers (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		code           TEXT NOT NULL UNIQUE,
		contact_name   TEXT,
		contact_email  TEXT,
		contact_phone  TEXT,
		address        TEXT,
		is_active      INTEGER NOT NULL DEFAULT 1,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id               TEXT PRIMARY KEY,
		sku              TEXT NOT NULL UNIQUE,
		name             TEXT NOT NULL,
		description      TEXT,
		unit_of_measure  TEXT NOT NULL,
		is_active        INTEGER NOT NULL DEFAULT 1,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS inventory_movements (
		id                    TEXT PRIMARY KEY,
		product_id            TEXT NOT NULL,
		movement_type         TEXT NOT NULL,
		quantity              REAL NOT NULL,
		reason                TEXT,
		recorded_by_staff_id  TEXT NOT NULL,
		occurred_at           TEXT NOT NULL,
		created_at            TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_inventory_movements_product
		ON inventory_movements(product_id, occurred_at)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id                   TEXT PRIMARY KEY,
		member_id            TEXT NOT NULL,
		order_number         TEXT NOT NULL UNIQUE,
		status               TEXT NOT NULL DEFAULT 'PLACED',
		ordered_by_staff_id  TEXT NOT NULL,
		ordered_at           TEXT NOT NULL,
		completed_at         TEXT,
		notes                TEXT,
		created_at           TEXT NOT NULL,
		updated_at           TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id          TEXT PRIMARY KEY,
		order_id    TEXT NOT NULL,
		product_id  TEXT NOT NULL,
		quantity    REAL NOT NULL,
		unit_price  REAL NOT NULL,
		created_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order
		ON order_items(order_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS audit_events (
		id           TEXT PRIMARY KEY,
		actor_type   TEXT NOT NULL,
		actor_id     TEXT,
		event_type   TEXT NOT NULL,
		entity_type  TEXT NOT NULL,
		entity_id    TEXT NOT NULL,
		event_data   TEXT NOT NULL,
		occurred_at  TEXT NOT NULL,
		created_at   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_events_occurred
		ON audit_events(occurred_at)`,
}

// Migrate creates any missing tables and indexes.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
