package orders

import "context"

// Service defines the interface for the order lifecycle manager.
type Service interface {
	// CreateOrder atomically inserts the PLACED header and every line. The
	// member must be VERIFIED at the instant the transaction checks it.
	// Placing an order moves no stock.
	CreateOrder(ctx context.Context, memberID string, items []ItemInput, actorID, notes string) (*OrderWithItems, error)

	// FinalizeOrder re-checks eligibility, records one DISPENSE per line,
	// and moves the order to COMPLETED in one transaction. Partial
	// dispensing is never observable.
	FinalizeOrder(ctx context.Context, orderID, actorID string) (*Order, error)

	GetOrder(ctx context.Context, id string) (*OrderWithItems, error)
	ListOrders(ctx context.Context) ([]Order, error)
}
