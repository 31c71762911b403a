package inventory

import "errors"

// Movement kinds. The sign of the stored quantity is a function of the kind:
//
//	RECEIVE   +q        q must be > 0
//	WASTE     -|q|      q must be nonzero (a negative waste is tolerated and
//	                    stored as its negated magnitude)
//	ADJUST    q as-is   q must be nonzero
//	DISPENSE  -|q|      internal: reachable only through order finalization
const (
	KindReceive  = "RECEIVE"
	KindAdjust   = "ADJUST"
	KindWaste    = "WASTE"
	KindDispense = "DISPENSE"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidQuantity = errors.New("quantity violates the movement kind's rule")
	ErrUnknownKind     = errors.New("unknown movement kind")
)

// Movement is one append-only ledger entry. Entries are never updated or
// deleted; corrections are offsetting ADJUST entries. On-hand stock for a
// product is the sum of its movement quantities, never a stored balance.
type Movement struct {
	ID           string  `json:"id"`
	ProductID    string  `json:"product_id"`
	MovementType string  `json:"movement_type"`
	Quantity     float64 `json:"quantity"`
	Reason       string  `json:"reason,omitempty"`
	RecordedBy   string  `json:"recorded_by_staff_id"`
	OccurredAt   string  `json:"occurred_at"`
	CreatedAt    string  `json:"created_at"`
}

// StockLevel is the derived on-hand quantity for a product.
type StockLevel struct {
	ProductID string  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}
