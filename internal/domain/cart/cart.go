// Package cart implements the pre-checkout cart: a mapping of product to
// quantity with derived totals. Totals are recomputed on every read rather
// than maintained incrementally, so no mutation sequence can drift them.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/greenbasket/storefront/internal/domain/product"
)

// Line is a single cart entry: a unit-price snapshot plus a quantity.
type Line struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Cart maps product IDs to lines. A product appears at most once; adding it
// again increments the existing line's quantity.
type Cart struct {
	lines map[string]*Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{lines: make(map[string]*Line)}
}

// AddItem adds qty units of p to the cart. A non-positive qty is treated as 1.
// If the product is already present its quantity is incremented.
func (c *Cart) AddItem(p product.Product, qty int) {
	if qty <= 0 {
		qty = 1
	}
	if line, ok := c.lines[p.ID]; ok {
		line.Quantity += qty
		return
	}
	c.lines[p.ID] = &Line{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  qty,
	}
}

// SetQuantity overwrites the quantity for productID. A quantity of zero or
// less removes the line. Setting a quantity for an absent product is a no-op.
func (c *Cart) SetQuantity(productID string, qty int) {
	line, ok := c.lines[productID]
	if !ok {
		return
	}
	if qty <= 0 {
		delete(c.lines, productID)
		return
	}
	line.Quantity = qty
}

// RemoveItem deletes the line for productID if present.
func (c *Cart) RemoveItem(productID string) {
	delete(c.lines, productID)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = make(map[string]*Line)
}

// Lines returns a copy of the current cart lines.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.lines))
	for _, line := range c.lines {
		out = append(out, *line)
	}
	return out
}

// Subtotal returns the sum of unit price times quantity across all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range c.lines {
		sum = sum.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return sum
}

// ItemCount returns the total quantity across all lines.
func (c *Cart) ItemCount() int {
	count := 0
	for _, line := range c.lines {
		count += line.Quantity
	}
	return count
}
