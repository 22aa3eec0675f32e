package page

import (
	"time"

	"github.com/roach88/cprum/internal/notify"
	"github.com/roach88/cprum/internal/store"
)

// Shipping is the flat rate charged on a non-empty cart.
const (
	Shipping = 4.99
	TaxRate  = 0.07
)

// CartItem is one product line.
type CartItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Qty   int     `json:"qty"`
}

// Cart is the persisted shopping cart.
type Cart struct {
	Items []CartItem `json:"items"`
}

// Totals is the cart summary.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// Totals computes the cart summary.
func (c Cart) Totals() Totals {
	var t Totals
	for _, it := range c.Items {
		t.Subtotal += it.Price * float64(it.Qty)
	}
	if t.Subtotal > 0 {
		t.Shipping = Shipping
	}
	t.Tax = t.Subtotal * TaxRate
	t.Total = t.Subtotal + t.Shipping + t.Tax
	return t
}

// Cart returns the saved cart. Unreadable data reads as empty.
func (p *Page) Cart() Cart {
	var c Cart
	if !p.kv.GetJSON(store.KeyCart, &c) {
		return Cart{Items: []CartItem{}}
	}
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	return c
}

func (p *Page) saveCart(c Cart) {
	p.kv.SetJSON(store.KeyCart, c)
}

// AddToCart adds one of item, merging with an existing line.
func (p *Page) AddToCart(item CartItem) {
	c := p.Cart()
	found := false
	for i := range c.Items {
		if c.Items[i].ID == item.ID {
			c.Items[i].Qty++
			found = true
			break
		}
	}
	if !found {
		item.Qty = 1
		c.Items = append(c.Items, item)
	}
	p.saveCart(c)

	p.Toast(item.Name+" added to cart", notify.KindOK, notify.ToastOptions{TTL: 1800 * time.Millisecond})
	p.Tag("tracepoint", "cart:add", item.ID)
}

// RemoveFromCart drops the line with id.
func (p *Page) RemoveFromCart(id string) {
	c := p.Cart()
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	p.saveCart(c)
	p.Tag("tracepoint", "cart:remove", id)
}

// SetQty sets the quantity of the line with id, at least 1. Returns false
// if there is no such line.
func (p *Page) SetQty(id string, qty int) bool {
	c := p.Cart()
	for i := range c.Items {
		if c.Items[i].ID == id {
			c.Items[i].Qty = max(1, qty)
			p.saveCart(c)
			return true
		}
	}
	return false
}
