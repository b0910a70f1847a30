// Package cart holds a shopper's pending purchase at one vendor.
package cart

import (
	"errors"
	"fmt"

	"github.com/abhisek/tapcart/internal/catalog"
)

// DefaultMaxQuantity caps a single line when no stock limit is lower.
const DefaultMaxQuantity = 100

// ErrVendorMismatch is returned when a product from another vendor is added.
var ErrVendorMismatch = errors.New("cart: product belongs to a different vendor")

// Item is one cart line.
type Item struct {
	Product  catalog.Product
	Quantity int
}

// SubtotalCents is price times quantity.
func (i Item) SubtotalCents() int64 {
	return i.Product.PriceCents * int64(i.Quantity)
}

// Cart holds items from a single vendor. The zero value is not usable; use New.
type Cart struct {
	vendor catalog.Vendor
	max    int
	order  []string
	items  map[string]*Item
}

// New creates an empty cart for vendor. maxQty <= 0 uses DefaultMaxQuantity.
func New(vendor catalog.Vendor, maxQty int) *Cart {
	if maxQty <= 0 {
		maxQty = DefaultMaxQuantity
	}
	return &Cart{vendor: vendor, max: maxQty, items: make(map[string]*Item)}
}

// Vendor returns the vendor the cart is bound to.
func (c *Cart) Vendor() catalog.Vendor { return c.vendor }

// Limit is the highest quantity allowed for p.
func (c *Cart) Limit(p catalog.Product) int {
	return min(c.max, max(p.Stock, 0))
}

// Quantity returns the current quantity of a product.
func (c *Cart) Quantity(productID string) int {
	if it, ok := c.items[productID]; ok {
		return it.Quantity
	}
	return 0
}

// SetQuantity clamps q to [0, Limit(p)] and stores it. Zero removes the line.
// It returns the stored quantity.
func (c *Cart) SetQuantity(p catalog.Product, q int) (int, error) {
	if p.VendorID != c.vendor.ID {
		return 0, fmt.Errorf("%w: %s is sold by %s", ErrVendorMismatch, p.ID, p.VendorID)
	}
	q = max(0, min(q, c.Limit(p)))

	if q == 0 {
		c.remove(p.ID)
		return 0, nil
	}
	if it, ok := c.items[p.ID]; ok {
		it.Product = p
		it.Quantity = q
		return q, nil
	}
	c.items[p.ID] = &Item{Product: p, Quantity: q}
	c.order = append(c.order, p.ID)
	return q, nil
}

// Increment adds one unit, stopping at the limit.
func (c *Cart) Increment(p catalog.Product) (int, error) {
	return c.SetQuantity(p, c.Quantity(p.ID)+1)
}

// Decrement removes one unit, flooring at zero.
func (c *Cart) Decrement(p catalog.Product) (int, error) {
	return c.SetQuantity(p, c.Quantity(p.ID)-1)
}

func (c *Cart) remove(id string) {
	if _, ok := c.items[id]; !ok {
		return
	}
	delete(c.items, id)
	for i, o := range c.order {
		if o == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Items returns the lines in the order they were first added.
func (c *Cart) Items() []Item {
	out := make([]Item, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.items[id])
	}
	return out
}

// Count is the total number of units.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// TotalCents sums every line.
func (c *Cart) TotalCents() int64 {
	var total int64
	for _, it := range c.items {
		total += it.SubtotalCents()
	}
	return total
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool { return len(c.order) == 0 }

// Clear removes every line.
func (c *Cart) Clear() {
	c.order = nil
	c.items = make(map[string]*Item)
}

// Clone returns an independent copy of the cart.
func (c *Cart) Clone() *Cart {
	out := New(c.vendor, c.max)
	for _, id := range c.order {
		it := *c.items[id]
		out.items[id] = &it
		out.order = append(out.order, id)
	}
	return out
}
