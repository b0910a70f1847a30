package kiosk

import (
	"github.com/abhisek/tapcart/internal/cart"
	"github.com/abhisek/tapcart/internal/catalog"
)

// Basket keeps one cart per vendor for the kiosk session.
type Basket struct {
	maxQty int
	carts  map[string]*cart.Cart
}

// NewBasket creates an empty basket. maxQty <= 0 uses cart.DefaultMaxQuantity.
func NewBasket(maxQty int) *Basket {
	return &Basket{maxQty: maxQty, carts: make(map[string]*cart.Cart)}
}

// Cart returns the vendor's cart, creating it on first use.
func (b *Basket) Cart(v catalog.Vendor) *cart.Cart {
	if c, ok := b.carts[v.ID]; ok {
		return c
	}
	c := cart.New(v, b.maxQty)
	b.carts[v.ID] = c
	return c
}

// Count is the number of units across every cart.
func (b *Basket) Count() int {
	n := 0
	for _, c := range b.carts {
		n += c.Count()
	}
	return n
}

// TotalCents sums every cart.
func (b *Basket) TotalCents() int64 {
	var total int64
	for _, c := range b.carts {
		total += c.TotalCents()
	}
	return total
}

// Clear empties the vendor's cart after a successful checkout.
func (b *Basket) Clear(vendorID string) {
	if c, ok := b.carts[vendorID]; ok {
		c.Clear()
	}
}
