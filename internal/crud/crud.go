// Package crud is a small generic repository and handler for plain
// single-table resources, the ones with no business rule beyond field
// validation. Anything with an invariant (members, movements, orders) gets a
// hand-written service instead.
package crud

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"dispensaryhub/internal/store"
)

var ErrNotFound = errors.New("not found")

// Resource describes a record shape: its table, its domain columns, and how
// a *T binds to them. Values yields insert/update arguments in column order;
// Scan yields scan destinations for id, the domain columns, created_at, and
// updated_at, in that order. The repository owns id and the timestamps.
type Resource[T any] struct {
	Table   string
	Columns []string
	Values  func(*T) []any
	Scan    func(*T) []any
}

// Repository provides list/get/create/update/delete over one table.
type Repository[T any] struct {
	db  *sql.DB
	res Resource[T]
}

func NewRepository[T any](db *sql.DB, res Resource[T]) *Repository[T] {
	return &Repository[T]{db: db, res: res}
}

func (r *Repository[T]) selectColumns() string {
	return "id, " + strings.Join(r.res.Columns, ", ") + ", created_at, updated_at"
}

func (r *Repository[T]) List(ctx context.Context) ([]T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at DESC`, r.selectColumns(), r.res.Table)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.res.Table, err)
	}
	defer rows.Close()

	records := []T{}
	for rows.Next() {
		var record T
		if err := rows.Scan(r.res.Scan(&record)...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.res.Table, err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *Repository[T]) Get(ctx context.Context, id string) (*T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, r.selectColumns(), r.res.Table)
	var record T
	err := r.db.QueryRowContext(ctx, query, id).Scan(r.res.Scan(&record)...)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", r.res.Table, err)
	}
	return &record, nil
}

func (r *Repository[T]) Create(ctx context.Context, record *T) (*T, error) {
	id := uuid.NewString()
	now := store.UTCNow()

	placeholders := make([]string, 0, len(r.res.Columns)+3)
	for i := 0; i < len(r.res.Columns)+3; i++ {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, %s, created_at, updated_at) VALUES (%s)`,
		r.res.Table, strings.Join(r.res.Columns, ", "), strings.Join(placeholders, ", "))

	args := append([]any{id}, r.res.Values(record)...)
	args = append(args, now, now)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert %s: %w", r.res.Table, err)
	}
	return r.Get(ctx, id)
}

func (r *Repository[T]) Update(ctx context.Context, id string, record *T) (*T, error) {
	assignments := make([]string, 0, len(r.res.Columns)+1)
	for i, col := range r.res.Columns {
		assignments = append(assignments, fmt.Sprintf("%s = $%d", col, i+1))
	}
	assignments = append(assignments, fmt.Sprintf("updated_at = $%d", len(r.res.Columns)+1))

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d`,
		r.res.Table, strings.Join(assignments, ", "), len(r.res.Columns)+2)

	args := append(r.res.Values(record), store.UTCNow(), id)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", r.res.Table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", r.res.Table, err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

// Delete removes the row. Referential cleanup is intentionally absent:
// rows in append-only tables keep referring to the deleted id.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.res.Table), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.res.Table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.res.Table, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
