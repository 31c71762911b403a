// Package store owns the durable state of the dispensary hub: connection
// setup for the two supported engines and the schema bootstrap. Every other
// package operates on the *sql.DB it hands out and keeps no state of its own.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// Postgres driver, registered as "postgres".
	_ "github.com/lib/pq"
	// Pure-Go SQLite driver, registered as "sqlite". Chosen over the CGO
	// driver so the service builds on Alpine and test machines without a
	// toolchain.
	_ "modernc.org/sqlite"
)

// Open connects to the database named by databaseURL. URLs with a
// postgres:// or postgresql:// scheme use lib/pq; anything else is treated
// as a SQLite file path (":memory:" included).
//
// Both engines accept the $1 placeholder form, so query text is shared.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		db, err := sql.Open("postgres", databaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		return db, nil
	}

	// WAL keeps readers from blocking the writer; busy_timeout waits for
	// locks instead of failing immediately.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", databaseURL)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", databaseURL, err)
	}

	// SQLite allows one writer at a time; a single pooled connection keeps
	// transactions serialized instead of colliding on SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", databaseURL, err)
	}
	return db, nil
}

// timeLayout is RFC 3339 with a fixed-width fractional second. The width
// matters: RFC3339Nano trims trailing zeros, and trimmed fractions do not
// sort lexically ("…T12:00:00.1Z" > "…T12:00:00.10000001Z" as text).
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// UTCNow returns the current instant in the canonical persisted form.
// All timestamps are stored as RFC 3339 UTC text so lexical order is
// chronological order in both engines.
func UTCNow() string {
	return FormatTime(time.Now())
}

// FormatTime renders t in the canonical persisted form.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
