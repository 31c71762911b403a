package inventory

import "context"

// Service defines the interface for the inventory ledger.
type Service interface {
	// RecordMovement validates the quantity against the kind's rule, applies
	// the kind's sign, and appends exactly one ledger entry. Only RECEIVE,
	// ADJUST, and WASTE are accepted here; DISPENSE entries are written by
	// order finalization.
	RecordMovement(ctx context.Context, productID, kind string, quantity float64, reason, actorID string) (*Movement, error)

	ListMovements(ctx context.Context, productID string) ([]Movement, error)

	// Stock derives the on-hand level by summing the product's ledger.
	Stock(ctx context.Context, productID string) (*StockLevel, error)
}
