package orders

import "errors"

// Order statuses. The lifecycle is PLACED → COMPLETED, forward only;
// COMPLETED is terminal.
const (
	StatusPlaced    = "PLACED"
	StatusCompleted = "COMPLETED"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyOrder    = errors.New("order requires at least one item")
	// ErrAlreadyFinalized is returned on a second finalize for the same
	// order. Finalize is deliberately not idempotent: the repeat call is an
	// error, not a no-op.
	ErrAlreadyFinalized = errors.New("order already finalized")
	ErrInvalidItem      = errors.New("order item quantity must be > 0 and unit price >= 0")
)

// Order is the fulfillment transaction header. CompletedAt is set exactly
// when Status is COMPLETED.
type Order struct {
	ID          string `json:"id"`
	MemberID    string `json:"member_id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	OrderedBy   string `json:"ordered_by_staff_id"`
	OrderedAt   string `json:"ordered_at"`
	CompletedAt string `json:"completed_at,omitempty"`
	Notes       string `json:"notes,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Item is one line of an order. The line set is fixed at creation; there is
// no edit path afterwards.
type Item struct {
	ID        string  `json:"id"`
	OrderID   string  `json:"order_id"`
	ProductID string  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	CreatedAt string  `json:"created_at"`
}

// ItemInput is a requested order line.
type ItemInput struct {
	ProductID string  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// OrderWithItems pairs the header with its lines for responses.
type OrderWithItems struct {
	Order Order  `json:"order"`
	Items []Item `json:"items"`
}
