// Package promo maps promo codes to fractional subtotal discounts.
package promo

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCode is returned when a promo code is unknown or inactive.
	ErrInvalidCode = errors.New("invalid promo code")
	// ErrAlreadyApplied is returned when a cart already has an active promo
	// code. A code cannot stack with itself or another code.
	ErrAlreadyApplied = errors.New("promo code already applied")
)

// Rule defines a promo code and its fractional discount rate.
type Rule struct {
	Code        string
	Rate        decimal.Decimal // fraction of the subtotal, e.g. 0.10
	Description string
}

// Discount holds a computed discount amount and the rule that produced it.
type Discount struct {
	Code        string
	Amount      decimal.Decimal
	Description string
}

// Repository provides lookup of promo rules by code. Lookups are
// case-insensitive; only active rules are returned.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)
}

// Apply computes the discount for rule against the given subtotal, rounded
// to 2 decimal places and clamped to be non-negative.
func Apply(rule *Rule, subtotal decimal.Decimal) Discount {
	amount := subtotal.Mul(rule.Rate).Round(2)
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return Discount{
		Code:        rule.Code,
		Amount:      amount,
		Description: rule.Description,
	}
}
