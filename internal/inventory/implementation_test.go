package inventory

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"dispensaryhub/internal/store"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, store.Migrate(ctx, db))
	return db
}

func insertProduct(db *sql.DB) (string, error) {
	id := uuid.NewString()
	now := store.UTCNow()
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO products (id, sku, name, unit_of_measure, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 1, $5, $6)
	`, id, "SKU-"+id[:8], "Test Product", "g", now, now)
	return id, err
}

func createProduct(t *testing.T, db *sql.DB) string {
	t.Helper()
	id, err := insertProduct(db)
	require.NoError(t, err)
	return id
}

func TestRecordMovementSignPolicy(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)
	productID := createProduct(t, db)
	ctx := context.Background()

	cases := []struct {
		name      string
		kind      string
		quantity  float64
		want      float64
		wantError error
	}{
		{name: "receive positive", kind: KindReceive, quantity: 5, want: 5},
		{name: "receive zero", kind: KindReceive, quantity: 0, wantError: ErrInvalidQuantity},
		{name: "receive negative", kind: KindReceive, quantity: -1, wantError: ErrInvalidQuantity},
		{name: "waste positive stored negated", kind: KindWaste, quantity: 2, want: -2},
		{name: "waste negative tolerated", kind: KindWaste, quantity: -3, want: -3},
		{name: "waste zero", kind: KindWaste, quantity: 0, wantError: ErrInvalidQuantity},
		{name: "adjust positive kept", kind: KindAdjust, quantity: 4, want: 4},
		{name: "adjust negative kept", kind: KindAdjust, quantity: -2.5, want: -2.5},
		{name: "adjust zero", kind: KindAdjust, quantity: 0, wantError: ErrInvalidQuantity},
		{name: "dispense not public", kind: KindDispense, quantity: 1, wantError: ErrUnknownKind},
		{name: "garbage kind", kind: "TRANSMUTE", quantity: 1, wantError: ErrUnknownKind},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			movement, err := svc.RecordMovement(ctx, productID, tc.kind, tc.quantity, "", "staff-1")
			if tc.wantError != nil {
				assert.ErrorIs(t, err, tc.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, movement.Quantity)
			assert.Equal(t, tc.kind, movement.MovementType)
			assert.Equal(t, "staff-1", movement.RecordedBy)
		})
	}
}

func TestRecordMovementUnknownProduct(t *testing.T) {
	svc := NewService(setupDB(t))

	_, err := svc.RecordMovement(context.Background(), "no-such-product", KindReceive, 1, "", "staff-1")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestInvalidMovementLeavesNoRows(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)
	productID := createProduct(t, db)
	ctx := context.Background()

	_, err := svc.RecordMovement(ctx, productID, KindReceive, -5, "", "staff-1")
	require.ErrorIs(t, err, ErrInvalidQuantity)

	movements, err := svc.ListMovements(ctx, productID)
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestStockIsDerivedFromLedger(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db)
	productID := createProduct(t, db)
	ctx := context.Background()

	_, err := svc.RecordMovement(ctx, productID, KindReceive, 5, "delivery", "staff-1")
	require.NoError(t, err)
	_, err = svc.RecordMovement(ctx, productID, KindWaste, 2, "spoilage", "staff-1")
	require.NoError(t, err)
	require.NoError(t, Dispense(ctx, db, productID, 1, "Dispense for order ORD-test", "staff-1", store.UTCNow()))

	level, err := svc.Stock(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, level.Quantity)

	movements, err := svc.ListMovements(ctx, productID)
	require.NoError(t, err)
	assert.Len(t, movements, 3)
}

func TestStockUnknownProduct(t *testing.T) {
	svc := NewService(setupDB(t))

	_, err := svc.Stock(context.Background(), "no-such-product")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestDispenseStoresNegatedMagnitude(t *testing.T) {
	db := setupDB(t)
	productID := createProduct(t, db)
	ctx := context.Background()

	require.NoError(t, Dispense(ctx, db, productID, 3, "order", "staff-1", store.UTCNow()))

	var quantity float64
	err := db.QueryRowContext(ctx, `
		SELECT quantity FROM inventory_movements WHERE product_id = $1 AND movement_type = 'DISPENSE'
	`, productID).Scan(&quantity)
	require.NoError(t, err)
	assert.Equal(t, -3.0, quantity)
}

// Derived stock must equal the running sum of stored quantities for any
// sequence of valid movements.
func TestStockMatchesLedgerSum(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		db, err := store.Open(ctx, ":memory:")
		if err != nil {
			rt.Fatalf("open store: %v", err)
		}
		defer db.Close()
		if err := store.Migrate(ctx, db); err != nil {
			rt.Fatalf("migrate: %v", err)
		}
		svc := NewService(db)
		productID, err := insertProduct(db)
		if err != nil {
			rt.Fatalf("insert product: %v", err)
		}

		kinds := rapid.SampledFrom([]string{KindReceive, KindAdjust, KindWaste})
		steps := rapid.IntRange(1, 15).Draw(rt, "steps")

		var want float64
		for i := 0; i < steps; i++ {
			kind := kinds.Draw(rt, "kind")
			quantity := float64(rapid.IntRange(1, 50).Draw(rt, "quantity"))
			if kind == KindAdjust && rapid.Bool().Draw(rt, "negate") {
				quantity = -quantity
			}

			movement, err := svc.RecordMovement(ctx, productID, kind, quantity, "", "staff-1")
			if err != nil {
				rt.Fatalf("record movement: %v", err)
			}
			want += movement.Quantity
		}

		level, err := svc.Stock(ctx, productID)
		if err != nil {
			rt.Fatalf("stock: %v", err)
		}
		if level.Quantity != want {
			rt.Fatalf("derived stock = %v, ledger sum = %v", level.Quantity, want)
		}
	})
}
