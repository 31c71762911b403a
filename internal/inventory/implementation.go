package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"dispensaryhub/internal/observability"
	"dispensaryhub/internal/store"
)

// service implements the Service interface.
type service struct {
	db     *sql.DB
	tracer trace.Tracer
}

// NewService creates a new inventory ledger instance.
func NewService(db *sql.DB) Service {
	return &service{
		db:     db,
		tracer: otel.Tracer("dispensaryhub/inventory"),
	}
}

// signedQuantity applies the kind's validation rule and sign convention.
func signedQuantity(kind string, quantity float64) (float64, error) {
	switch kind {
	case KindReceive:
		if quantity <= 0 {
			return 0, ErrInvalidQuantity
		}
		return quantity, nil
	case KindWaste, KindDispense:
		if quantity == 0 {
			return 0, ErrInvalidQuantity
		}
		return -math.Abs(quantity), nil
	case KindAdjust:
		if quantity == 0 {
			return 0, ErrInvalidQuantity
		}
		return quantity, nil
	default:
		return 0, ErrUnknownKind
	}
}

func (s *service) RecordMovement(ctx context.Context, productID, kind string, quantity float64, reason, actorID string) (*Movement, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.record_movement",
		trace.WithAttributes(
			attribute.String("product.id", productID),
			attribute.String("movement.kind", kind),
			attribute.Float64("movement.requested_quantity", quantity),
		),
	)
	defer span.End()

	// DISPENSE is not a public entry point; it only happens as part of an
	// order finalization transaction.
	if kind != KindReceive && kind != KindAdjust && kind != KindWaste {
		return nil, ErrUnknownKind
	}

	stored, err := signedQuantity(kind, quantity)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists string
	err = tx.QueryRowContext(ctx, `SELECT id FROM products WHERE id = $1`, productID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup product: %w", err)
	}

	movement := &Movement{
		ID:           uuid.NewString(),
		ProductID:    productID,
		MovementType: kind,
		Quantity:     stored,
		Reason:       reason,
		RecordedBy:   actorID,
		OccurredAt:   store.UTCNow(),
	}
	movement.CreatedAt = movement.OccurredAt

	if err := insertMovement(ctx, tx, movement); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	observability.MovementsRecorded.WithLabelValues(kind).Inc()
	return movement, nil
}

// Execer is the subset of *sql.Tx and *sql.DB used for appends.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertMovement(ctx context.Context, e Execer, m *Movement) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO inventory_movements (id, product_id, movement_type, quantity, reason, recorded_by_staff_id, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, m.ID, m.ProductID, m.MovementType, m.Quantity, m.Reason, m.RecordedBy, m.OccurredAt, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// Dispense appends one DISPENSE entry on the caller's transaction. It is the
// only way a dispense reaches the ledger, so its atomicity is the caller's:
// if the surrounding order transaction rolls back, so does the entry.
func Dispense(ctx context.Context, e Execer, productID string, quantity float64, reason, actorID, occurredAt string) error {
	stored, err := signedQuantity(KindDispense, quantity)
	if err != nil {
		return err
	}
	return insertMovement(ctx, e, &Movement{
		ID:           uuid.NewString(),
		ProductID:    productID,
		MovementType: KindDispense,
		Quantity:     stored,
		Reason:       reason,
		RecordedBy:   actorID,
		OccurredAt:   occurredAt,
		CreatedAt:    occurredAt,
	})
}

func (s *service) ListMovements(ctx context.Context, productID string) ([]Movement, error) {
	query := `
		SELECT id, product_id, movement_type, quantity, COALESCE(reason, ''), recorded_by_staff_id, occurred_at, created_at
		FROM inventory_movements
	`
	args := []any{}
	if productID != "" {
		query += ` WHERE product_id = $1`
		args = append(args, productID)
	}
	query += ` ORDER BY occurred_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	movements := []Movement{}
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.MovementType, &m.Quantity,
			&m.Reason, &m.RecordedBy, &m.OccurredAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (s *service) Stock(ctx context.Context, productID string) (*StockLevel, error) {
	var exists string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM products WHERE id = $1`, productID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup product: %w", err)
	}

	level := &StockLevel{ProductID: productID}
	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0) FROM inventory_movements WHERE product_id = $1
	`, productID).Scan(&level.Quantity)
	if err != nil {
		return nil, fmt.Errorf("sum movements: %w", err)
	}
	return level, nil
}
