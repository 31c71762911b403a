package orders

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"dispensaryhub/internal/inventory"
	"dispensaryhub/internal/membership"
	"dispensaryhub/internal/observability"
	"dispensaryhub/internal/store"
)

// service implements the Service interface.
type service struct {
	db     *sql.DB
	tracer trace.Tracer
}

// NewService creates a new order lifecycle manager.
func NewService(db *sql.DB) Service {
	return &service{
		db:     db,
		tracer: otel.Tracer("dispensaryhub/orders"),
	}
}

// orderNumber builds a human-readable number from the creation instant plus
// a uuid fragment, so two orders in the same second still get distinct
// numbers.
func orderNumber(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("ORD-%s-%s", t.UTC().Format("20060102150405"), suffix)
}

func (s *service) CreateOrder(ctx context.Context, memberID string, items []ItemInput, actorID, notes string) (*OrderWithItems, error) {
	ctx, span := s.tracer.Start(ctx, "orders.create",
		trace.WithAttributes(
			attribute.String("member.id", memberID),
			attribute.Int("order.item_count", len(items)),
		),
	)
	defer span.End()

	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, item := range items {
		if item.ProductID == "" || item.Quantity <= 0 || item.UnitPrice < 0 {
			return nil, ErrInvalidItem
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Eligibility is read inside the same transaction as the inserts it
	// guards; it is checked here, not prevented against later revocation
	// (finalize checks again).
	if err := membership.RequireVerified(ctx, tx, memberID); err != nil {
		return nil, err
	}

	now := time.Now()
	stamp := store.FormatTime(now)
	orderID := uuid.NewString()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, member_id, order_number, status, ordered_by_staff_id, ordered_at, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, orderID, memberID, orderNumber(now), StatusPlaced, actorID, stamp, notes, stamp, stamp)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, item := range items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, uuid.NewString(), orderID, item.ProductID, item.Quantity, item.UnitPrice, stamp)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return s.GetOrder(ctx, orderID)
}

func (s *service) FinalizeOrder(ctx context.Context, orderID, actorID string) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "orders.finalize",
		trace.WithAttributes(attribute.String("order.id", orderID)),
	)
	defer span.End()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var memberID, number, status string
	err = tx.QueryRowContext(ctx, `
		SELECT member_id, order_number, status FROM orders WHERE id = $1
	`, orderID).Scan(&memberID, &number, &status)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup order: %w", err)
	}
	if status == StatusCompleted {
		return nil, ErrAlreadyFinalized
	}

	// Eligibility can have changed since placement; a reverted member fails
	// finalization.
	if err := membership.RequireVerified(ctx, tx, memberID); err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT product_id, quantity FROM order_items WHERE order_id = $1 ORDER BY created_at, id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	type line struct {
		productID string
		quantity  float64
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.productID, &l.quantity); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}

	now := store.UTCNow()
	reason := fmt.Sprintf("Dispense for order %s", number)
	for _, l := range lines {
		if err := inventory.Dispense(ctx, tx, l.productID, l.quantity, reason, actorID, now); err != nil {
			return nil, fmt.Errorf("record dispense: %w", err)
		}
	}

	// Guarded transition: if a concurrent finalize committed first, zero
	// rows match and this whole transaction, dispenses included, rolls
	// back.
	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $1, completed_at = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`, StatusCompleted, now, now, orderID, StatusPlaced)
	if err != nil {
		return nil, fmt.Errorf("complete order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("complete order: %w", err)
	}
	if affected == 0 {
		return nil, ErrAlreadyFinalized
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	observability.OrdersFinalized.Inc()
	slog.InfoContext(ctx, "order finalized",
		"order_id", orderID, "order_number", number, "lines", len(lines), "actor_id", actorID)

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

const orderColumns = `id, member_id, order_number, status, ordered_by_staff_id,
	ordered_at, COALESCE(completed_at, ''), COALESCE(notes, ''), created_at, updated_at`

func scanOrder(scan func(dest ...any) error) (*Order, error) {
	o := &Order{}
	err := scan(&o.ID, &o.MemberID, &o.OrderNumber, &o.Status, &o.OrderedBy,
		&o.OrderedAt, &o.CompletedAt, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) getOrder(ctx context.Context, id string) (*Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

func (s *service) GetOrder(ctx context.Context, id string) (*OrderWithItems, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, created_at
		FROM order_items WHERE order_id = $1 ORDER BY created_at, id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &OrderWithItems{Order: *order, Items: items}, nil
}

func (s *service) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	list := []Order{}
	for rows.Next() {
		order, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		list = append(list, *order)
	}
	return list, rows.Err()
}
