// Package shipping computes delivery cost as a pure function of the cart
// subtotal and the destination district.
//
// The storefront historically carried several divergent shipping rules, one
// per screen. This package is the single source of truth: a region-tiered
// policy with a free-shipping threshold, a reduced fee for the home district,
// and a flat fee for everywhere else.
package shipping

import "github.com/shopspring/decimal"

// Policy parameterizes the region-tiered shipping calculation.
type Policy struct {
	// FreeThreshold is the subtotal at or above which shipping is free.
	FreeThreshold decimal.Decimal
	// LocalDistrict is the district served at the reduced LocalFee.
	LocalDistrict string
	// LocalFee applies to deliveries within LocalDistrict.
	LocalFee decimal.Decimal
	// RemoteFee applies to deliveries anywhere else.
	RemoteFee decimal.Decimal
}

// DefaultPolicy returns the storefront's standard shipping policy.
func DefaultPolicy() Policy {
	return Policy{
		FreeThreshold: decimal.NewFromInt(500),
		LocalDistrict: "Rajshahi",
		LocalFee:      decimal.NewFromInt(40),
		RemoteFee:     decimal.NewFromInt(120),
	}
}

// Cost returns the shipping cost for the given subtotal and district.
func (p Policy) Cost(subtotal decimal.Decimal, district string) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(p.FreeThreshold) {
		return decimal.Zero
	}
	if district == p.LocalDistrict {
		return p.LocalFee
	}
	return p.RemoteFee
}
