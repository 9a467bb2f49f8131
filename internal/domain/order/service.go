package order

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenbasket/storefront/internal/domain/promo"
	"github.com/greenbasket/storefront/internal/domain/shipping"
)

// ErrInvalidStatus is returned when a status update carries a value outside
// the six known statuses.
var ErrInvalidStatus = errors.New("invalid status value")

// emailPattern is the storefront's RFC-lite email check: word characters with
// optional dots/hyphens, an @, a similar domain, and a 2-3 letter TLD.
var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// recentOrdersLimit is how many orders the summary endpoint returns.
const recentOrdersLimit = 5

// ShippingInput is the optional shipping section of a place-order request.
// When District is set, the cost is computed from the shipping policy and any
// client-supplied cost is ignored; otherwise the submitted cost is taken as-is.
type ShippingInput struct {
	Cost     decimal.Decimal
	Method   string
	Address  string
	District string
}

// PlaceOrderRequest holds the input for creating an order.
type PlaceOrderRequest struct {
	Items         []Item
	Total         decimal.Decimal
	Customer      Customer
	PaymentMethod string
	Shipping      *ShippingInput
	PromoCode     string
}

// Service implements order placement, lookup, listing, status updates, and
// summary statistics over a Repository.
type Service struct {
	orders Repository
	promos promo.Validator
	policy shipping.Policy
	now    func() time.Time
}

// NewService creates an order Service with the required domain dependencies.
func NewService(orders Repository, promos promo.Validator, policy shipping.Policy) *Service {
	return &Service{
		orders: orders,
		promos: promos,
		policy: policy,
		now:    time.Now,
	}
}

// Place validates the request, independently recomputes the grand total, and
// persists the order with status pending. The submitted total must equal
// subtotal minus discount plus shipping or the request is rejected.
func (s *Service) Place(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if msgs := validatePlaceRequest(req); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}

	paymentMethod, ok := ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		return nil, &ValidationError{Messages: []string{"invalid payment method"}}
	}

	subtotal := decimal.Zero
	for _, item := range req.Items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		subtotal = subtotal.Add(item.Product.Price.Mul(qty))
	}

	discount := decimal.Zero
	if req.PromoCode != "" {
		// The request carries at most one code, so no code is "current" yet.
		d, err := s.promos.Validate(ctx, req.PromoCode, "", subtotal)
		if err != nil {
			if errors.Is(err, promo.ErrInvalidCode) || errors.Is(err, promo.ErrAlreadyApplied) {
				return nil, err
			}
			return nil, errors.Wrap(err, "validate promo code")
		}
		discount = d.Amount
	}

	ship := resolveShipping(req.Shipping, subtotal, s.policy)

	expected := subtotal.Sub(discount).Add(ship.Cost).Round(2)
	if !req.Total.Round(2).Equal(expected) {
		return nil, &ValidationError{
			Messages: []string{"order total does not match the computed total"},
		}
	}

	now := s.now().UTC()
	o := &Order{
		ID:          uuid.New().String(),
		OrderNumber: NewOrderNumber(now),
		Items:       req.Items,
		Total:       expected,
		Customer: Customer{
			Name:    strings.TrimSpace(req.Customer.Name),
			Email:   strings.ToLower(strings.TrimSpace(req.Customer.Email)),
			Phone:   strings.TrimSpace(req.Customer.Phone),
			Address: strings.TrimSpace(req.Customer.Address),
		},
		Status:        StatusPending,
		PaymentMethod: paymentMethod,
		Shipping:      ship,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

// Get returns the order with the given ID. A malformed UUID yields
// ErrInvalidID, never ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %s", id)
	}
	return o, nil
}

// List returns a page of orders, newest first, optionally filtered by exact
// status and customer email.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Order, Pagination, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}

	orders, total, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, Pagination{}, errors.Wrap(err, "list orders")
	}

	totalPages := (total + f.Limit - 1) / f.Limit
	return orders, Pagination{
		CurrentPage: f.Page,
		TotalPages:  totalPages,
		TotalOrders: total,
		HasNextPage: f.Page < totalPages,
		HasPrevPage: f.Page > 1,
	}, nil
}

// UpdateStatus overwrites the order's status and bumps UpdatedAt. The value
// must be one of the six known statuses; no transition graph is enforced.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*Order, error) {
	parsed, ok := ParseStatus(status)
	if !ok {
		return nil, ErrInvalidStatus
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}

	o, err := s.orders.UpdateStatus(ctx, id, parsed)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "update status of order %s", id)
	}
	return o, nil
}

// Summarize returns aggregate statistics plus the five most recent orders.
func (s *Service) Summarize(ctx context.Context) (*Summary, []RecentOrder, error) {
	summary, err := s.orders.Summary(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "order summary")
	}
	recent, err := s.orders.Recent(ctx, recentOrdersLimit)
	if err != nil {
		return nil, nil, errors.Wrap(err, "recent orders")
	}
	return summary, recent, nil
}

// validatePlaceRequest collects the structural validation failures for req.
func validatePlaceRequest(req PlaceOrderRequest) []string {
	var msgs []string

	if len(req.Items) == 0 {
		msgs = append(msgs, "order must contain at least one item")
	}
	for _, item := range req.Items {
		if item.Product.ID == "" || item.Product.Name == "" {
			msgs = append(msgs, "invalid item structure in order")
			break
		}
		if item.Quantity < 1 {
			msgs = append(msgs, "item quantity must be at least 1")
			break
		}
	}

	if !req.Total.IsPositive() {
		msgs = append(msgs, "order total must be greater than 0")
	}

	if req.Shipping != nil && req.Shipping.Cost.IsNegative() {
		msgs = append(msgs, "shipping cost cannot be negative")
	}

	name := strings.TrimSpace(req.Customer.Name)
	email := strings.TrimSpace(req.Customer.Email)
	switch {
	case name == "" || email == "":
		msgs = append(msgs, "customer name and email are required")
	case !emailPattern.MatchString(strings.ToLower(email)):
		msgs = append(msgs, "please enter a valid email")
	}

	return msgs
}

// resolveShipping produces the persisted shipping section. A district selects
// the policy-computed cost; absent input defaults to free standard shipping.
func resolveShipping(in *ShippingInput, subtotal decimal.Decimal, policy shipping.Policy) Shipping {
	if in == nil {
		return Shipping{Cost: decimal.Zero, Method: "standard"}
	}

	cost := in.Cost
	if in.District != "" {
		cost = policy.Cost(subtotal, in.District)
	}
	method := in.Method
	if method == "" {
		method = "standard"
	}
	return Shipping{
		Cost:    cost,
		Method:  method,
		Address: strings.TrimSpace(in.Address),
	}
}
