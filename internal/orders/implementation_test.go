package orders

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispensaryhub/internal/inventory"
	"dispensaryhub/internal/membership"
	"dispensaryhub/internal/store"
)

type fixture struct {
	db        *sql.DB
	members   membership.Service
	inventory inventory.Service
	orders    Service
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, store.Migrate(ctx, db))
	return &fixture{
		db:        db,
		members:   membership.NewService(db),
		inventory: inventory.NewService(db),
		orders:    NewService(db),
	}
}

func (f *fixture) createMember(t *testing.T, verified bool) string {
	t.Helper()
	ctx := context.Background()
	member, err := f.members.Register(ctx, membership.Profile{
		MemberNumber: "MBR-" + uuid.NewString()[:8],
		FirstName:    "Ada",
		LastName:     "Lovelace",
	})
	require.NoError(t, err)
	if verified {
		_, err = f.members.RecordDecision(ctx, member.ID, membership.Decision{
			Outcome: membership.OutcomeVerified,
			ActorID: "staff-1",
		})
		require.NoError(t, err)
	}
	return member.ID
}

func (f *fixture) createProduct(t *testing.T) string {
	t.Helper()
	id := uuid.NewString()
	now := store.UTCNow()
	_, err := f.db.ExecContext(context.Background(), `
		INSERT INTO products (id, sku, name, unit_of_measure, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 1, $5, $6)
	`, id, "SKU-"+id[:8], "Test Product", "g", now, now)
	require.NoError(t, err)
	return id
}

func (f *fixture) countOrders(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&n))
	return n
}

func (f *fixture) dispenses(t *testing.T, productID string) []float64 {
	t.Helper()
	rows, err := f.db.Query(`
		SELECT quantity FROM inventory_movements
		WHERE product_id = $1 AND movement_type = 'DISPENSE'
		ORDER BY created_at
	`, productID)
	require.NoError(t, err)
	defer rows.Close()

	var quantities []float64
	for rows.Next() {
		var q float64
		require.NoError(t, rows.Scan(&q))
		quantities = append(quantities, q)
	}
	return quantities
}

func TestCreateOrderRequiresVerifiedMember(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	memberID := f.createMember(t, false)
	productID := f.createProduct(t)

	_, err := f.orders.CreateOrder(ctx, memberID, []ItemInput{{ProductID: productID, Quantity: 1, UnitPrice: 100}}, "staff-1", "")
	assert.ErrorIs(t, err, membership.ErrIneligibleMember)
	assert.Zero(t, f.countOrders(t))
	assert.Empty(t, f.dispenses(t, productID))
}

func TestCreateOrderUnknownMember(t *testing.T) {
	f := setup(t)
	productID := f.createProduct(t)

	_, err := f.orders.CreateOrder(context.Background(), "no-such-member",
		[]ItemInput{{ProductID: productID, Quantity: 1, UnitPrice: 1}}, "staff-1", "")
	assert.ErrorIs(t, err, membership.ErrMemberNotFound)
}

func TestCreateOrderRejectsEmptyAndInvalidItems(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	memberID := f.createMember(t, true)
	productID := f.createProduct(t)

	_, err := f.orders.CreateOrder(ctx, memberID, nil, "staff-1", "")
	assert.ErrorIs(t, err, ErrEmptyOrder)

	_, err = f.orders.CreateOrder(ctx, memberID, []ItemInput{{ProductID: productID, Quantity: 0, UnitPrice: 1}}, "staff-1", "")
	assert.ErrorIs(t, err, ErrInvalidItem)

	_, err = f.orders.CreateOrder(ctx, memberID, []ItemInput{{ProductID: productID, Quantity: 1, UnitPrice: -1}}, "staff-1", "")
	assert.ErrorIs(t, err, ErrInvalidItem)

	assert.Zero(t, f.countOrders(t))
}

func TestCreateOrderMovesNoStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	memberID := f.createMember(t, true)
	productID := f.createProduct(t)

	result, err := f.orders.CreateOrder(ctx, memberID,
		[]ItemInput{{ProductID: productID, Quantity: 2, UnitPrice: 50}}, "staff-1", "pickup at 5pm")
	require.NoError(t, err)

	assert.Equal(t, StatusPlaced, result.Order.Status)
	assert.Empty(t, result.Order.CompletedAt)
	assert.Equal(t, "pickup at 5pm", result.Order.Notes)
	assert.True(t, strings.HasPrefix(result.Order.OrderNumber, "ORD-"))
	require.Len(t, result.Items, 1)
	assert.Equal(t, 2.0, result.Items[0].Quantity)

	assert.Empty(t, f.dispenses(t, productID))
}

func TestOrderNumbersAreUniqueWithinASecond(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	memberID := f.createMember(t, true)
	productID := f.createProduct(t)

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		result, err := f.orders.CreateOrder(ctx, memberID,
			[]ItemInput{{ProductID: productID, Quantity: 1, UnitPrice: 1}}, "staff-1", "")
		require.NoError(t, err)
		assert.False(t, seen[result.Order.OrderNumber], "duplicate order number %s", result.Order.OrderNumber)
		seen[result.Order.OrderNumber] = true
	}
}

func TestFinalizeOrderDispensesEveryLineOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	memberID := f.createMember(t, true)
	productA := f.createProduct(t)
	productB := f.createProduct(t)

	result, err := f.orders.CreateOrder(ctx, memberID, []ItemInput{
		{ProductID: productA, Quantity: 1, UnitPrice: 100},
		{ProductID: productB, Quantity: 3.5, UnitPrice: 40},
	}, "staff-1", "")
	require.NoError(t, err)

	order, err := f.orders.FinalizeOrder(ctx, result.Order.ID, "staff-2")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, order.Status)
	assert.NotEmpty(t, order.CompletedAt)

	assert.Equal(t, []float64{-1}, f.dispenses(t, productA))
	assert.Equal(t, []float64{-3.5}, f.dispenses(t, productB))

	var reason string
	require.NoError(t, f.db.QueryRow(`
		SELECT reason FROM inventory_movements WHERE product_id = $1 AND movement_type = 'DISPENSE'
	`, productA).Scan(&reason))
	assert.Equal(t, fmt.Sprintf("Dispense for order %s", order.OrderNumber), reason)
}

func TestFinalizeTwiceFailsAndDispensesOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	memberID := f.createMember(t, true)
	productID := f.createProduct(t)

	result, err := f.orders.CreateOrder(ctx, memberID,
		[]ItemInput{{ProductID: productID, Quantity: 1, UnitPrice: 10}}, "staff-1", "")
	require.NoError(t, err)

	_, err = f.orders.FinalizeOrder(ctx, result.Order.ID, "staff-1")
	require.NoError(t, err)

	_, err = f.orders.FinalizeOrder(ctx, result.Order.ID, "staff-1")
	assert.ErrorIs(t, err, ErrAlreadyFinalized)

	assert.Equal(t, []float64{-1}, f.dispenses(t, productID))
}

func TestFinalizeRechecksEligibility(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	memberID := f.createMember(t, true)
	productID := f.createProduct(t)

	result, err := f.orders.CreateOrder(ctx, memberID,
		[]ItemInput{{ProductID: productID, Quantity: 1, UnitPrice: 10}}, "staff-1", "")
	require.NoError(t, err)

	// Verification revoked between placement and finalization.
	_, err = f.members.RecordDecision(ctx, memberID, membership.Decision{
		Outcome: membership.OutcomeRejected,
		ActorID: "staff-1",
	})
	require.NoError(t, err)

	_, err = f.orders.FinalizeOrder(ctx, result.Order.ID, "staff-1")
	assert.ErrorIs(t, err, membership.ErrIneligibleMember)

	// Nothing dispensed, order still PLACED.
	assert.Empty(t, f.dispenses(t, productID))
	fetched, err := f.orders.GetOrder(ctx, result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPlaced, fetched.Order.Status)
}

func TestFinalizeUnknownOrder(t *testing.T) {
	f := setup(t)

	_, err := f.orders.FinalizeOrder(context.Background(), "no-such-order", "staff-1")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCompletedAtSetExactlyWhenCompleted(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	memberID := f.createMember(t, true)
	productID := f.createProduct(t)

	result, err := f.orders.CreateOrder(ctx, memberID,
		[]ItemInput{{ProductID: productID, Quantity: 1, UnitPrice: 10}}, "staff-1", "")
	require.NoError(t, err)
	assert.Empty(t, result.Order.CompletedAt)

	order, err := f.orders.FinalizeOrder(ctx, result.Order.ID, "staff-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, order.Status)
	assert.NotEmpty(t, order.CompletedAt)
	assert.Equal(t, order.CompletedAt, order.UpdatedAt)
}

func TestListOrdersNewestFirst(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	memberID := f.createMember(t, true)
	productID := f.createProduct(t)

	first, err := f.orders.CreateOrder(ctx, memberID,
		[]ItemInput{{ProductID: productID, Quantity: 1, UnitPrice: 1}}, "staff-1", "")
	require.NoError(t, err)
	second, err := f.orders.CreateOrder(ctx, memberID,
		[]ItemInput{{ProductID: productID, Quantity: 1, UnitPrice: 1}}, "staff-1", "")
	require.NoError(t, err)

	list, err := f.orders.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.Order.ID, list[0].ID)
	assert.Equal(t, first.Order.ID, list[1].ID)
}
