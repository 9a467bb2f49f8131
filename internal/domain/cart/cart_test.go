package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/greenbasket/storefront/internal/domain/product"
)

func testProduct(id string, price int64) product.Product {
	return product.Product{
		ID:    id,
		Name:  "Product " + id,
		Price: decimal.NewFromInt(price),
	}
}

func TestAddItem_NewLine(t *testing.T) {
	c := New()
	c.AddItem(testProduct("honey", 550), 2)

	lines := c.Lines()
	assert.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 2, c.ItemCount())
	assert.True(t, decimal.NewFromInt(1100).Equal(c.Subtotal()))
}

func TestAddItem_IncrementsExisting(t *testing.T) {
	c := New()
	c.AddItem(testProduct("honey", 550), 1)
	c.AddItem(testProduct("honey", 550), 3)

	assert.Len(t, c.Lines(), 1)
	assert.Equal(t, 4, c.ItemCount())
}

func TestAddItem_NonPositiveQuantityBecomesOne(t *testing.T) {
	c := New()
	c.AddItem(testProduct("honey", 550), 0)
	c.AddItem(testProduct("ghee", 680), -5)

	assert.Equal(t, 2, c.ItemCount())
}

func TestSetQuantity(t *testing.T) {
	c := New()
	c.AddItem(testProduct("honey", 550), 2)

	c.SetQuantity("honey", 5)
	assert.Equal(t, 5, c.ItemCount())

	// Absent product is a no-op.
	c.SetQuantity("missing", 3)
	assert.Equal(t, 5, c.ItemCount())
}

func TestSetQuantity_ZeroRemovesLine(t *testing.T) {
	c := New()
	c.AddItem(testProduct("honey", 550), 2)
	c.AddItem(testProduct("ghee", 680), 1)

	c.SetQuantity("honey", 0)

	assert.Len(t, c.Lines(), 1)
	assert.True(t, decimal.NewFromInt(680).Equal(c.Subtotal()))
}

func TestRemoveItem(t *testing.T) {
	c := New()
	c.AddItem(testProduct("honey", 550), 2)

	c.RemoveItem("honey")
	c.RemoveItem("honey") // second removal is a no-op

	assert.Empty(t, c.Lines())
	assert.True(t, decimal.Zero.Equal(c.Subtotal()))
}

func TestClear(t *testing.T) {
	c := New()
	c.AddItem(testProduct("honey", 550), 2)
	c.AddItem(testProduct("ghee", 680), 1)

	c.Clear()

	assert.Empty(t, c.Lines())
	assert.Equal(t, 0, c.ItemCount())
	assert.True(t, decimal.Zero.Equal(c.Subtotal()))
}

func TestTotalsRecomputedAfterMutations(t *testing.T) {
	c := New()
	c.AddItem(testProduct("honey", 550), 2)   // 1100
	c.AddItem(testProduct("ghee", 680), 1)    // 680
	c.AddItem(testProduct("dates", 950), 3)   // 2850
	c.SetQuantity("dates", 1)                 // 950
	c.RemoveItem("ghee")                      // 0
	c.AddItem(testProduct("honey", 550), 1)   // +550

	assert.True(t, decimal.NewFromInt(2600).Equal(c.Subtotal()), "got %s", c.Subtotal())
	assert.Equal(t, 4, c.ItemCount())
}
