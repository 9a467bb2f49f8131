package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when no order exists for the given ID.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidID is returned when an order ID is not a well-formed UUID.
	// Distinct from ErrNotFound so callers can answer 400 vs 404.
	ErrInvalidID = errors.New("invalid order ID")
)

// ValidationError carries the itemized structural validation failures for a
// rejected order request.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 1 {
		return e.Messages[0]
	}
	return "order validation failed"
}

// PaymentMethod enumerates the supported payment options.
type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
)

// ParsePaymentMethod validates a payment method string. An empty value
// defaults to cash on delivery.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(s) {
	case "":
		return PaymentCOD, true
	case PaymentCOD, PaymentOnline:
		return PaymentMethod(s), true
	default:
		return "", false
	}
}

// ProductSnapshot captures the catalog fields of a product at order time.
// Later catalog changes never alter historical orders.
type ProductSnapshot struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Category string          `json:"category"`
}

// Item is a single order line: a product snapshot plus a quantity.
type Item struct {
	Product  ProductSnapshot `json:"product"`
	Quantity int             `json:"quantity"`
}

// Customer holds the buyer's contact details embedded in the order.
type Customer struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// Shipping holds the delivery cost and method chosen at checkout.
type Shipping struct {
	Cost    decimal.Decimal
	Method  string
	Address string
}

// Order is the persisted record created from a cart at checkout. It is
// immutable after creation except for Status (and the UpdatedAt bump that
// accompanies a status change); no operation deletes it.
type Order struct {
	ID            string
	OrderNumber   string
	Items         []Item
	Total         decimal.Decimal
	Customer      Customer
	Status        Status
	PaymentMethod PaymentMethod
	Shipping      Shipping
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ListFilter selects and pages the order listing. Zero-valued fields are
// ignored; Page is 1-based.
type ListFilter struct {
	Status string
	Email  string
	Page   int
	Limit  int
}

// Pagination describes the page window of a listing result.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	TotalOrders int
	HasNextPage bool
	HasPrevPage bool
}

// Summary aggregates order counts and revenue across the full order set.
// Revenue excludes cancelled orders.
type Summary struct {
	TotalOrders     int
	PendingOrders   int
	CompletedOrders int
	TotalRevenue    decimal.Decimal
}

// RecentOrder is the trimmed order view returned with summary statistics.
type RecentOrder struct {
	OrderNumber  string
	CustomerName string
	Total        decimal.Decimal
	Status       Status
	CreatedAt    time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, f ListFilter) ([]Order, int, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Order, error)
	Summary(ctx context.Context) (*Summary, error)
	Recent(ctx context.Context, limit int) ([]RecentOrder, error)
}
