package domain

import "fmt"

// CartEntry is a snapshot of a product taken when it was added.
type CartEntry struct {
	Product       Product `json:"product"`
	SelectedColor string  `json:"selected_color,omitempty"`
	Quantity      int     `json:"quantity"`
}

// Subtotal returns price times quantity.
func (e CartEntry) Subtotal() int64 {
	return e.Product.Price * int64(e.Quantity)
}

// Cart is an ordered list of entries. Adding the same product twice yields
// two entries.
type Cart struct {
	Entries []CartEntry `json:"entries"`
}

// Append adds an entry at the end. Quantity below 1 is stored as 1.
func (c *Cart) Append(e CartEntry) {
	if e.Quantity < 1 {
		e.Quantity = 1
	}
	c.Entries = append(c.Entries, e)
}

// Remove deletes the entry at index, keeping the order of the rest.
func (c *Cart) Remove(index int) error {
	if index < 0 || index >= len(c.Entries) {
		return fmt.Errorf("cart index %d out of range [0,%d)", index, len(c.Entries))
	}
	c.Entries = append(c.Entries[:index], c.Entries[index+1:]...)
	return nil
}

// Total is the sum of price times quantity. It is computed on every call.
func (c *Cart) Total() int64 {
	var total int64
	for _, e := range c.Entries {
		total += e.Subtotal()
	}
	return total
}

// Len returns the number of entries.
func (c *Cart) Len() int {
	return len(c.Entries)
}

// IsEmpty reports whether the cart has no entries.
func (c *Cart) IsEmpty() bool {
	return len(c.Entries) == 0
}

// Clear drops every entry.
func (c *Cart) Clear() {
	c.Entries = nil
}
