// Package order implements the purchase order cart and the email
// summary generated from it.
package order

import (
	"slices"
	"strconv"
	"strings"

	"github.com/abfoods/orderdesk/internal/inventory"
)

// Line is one cart entry: a snapshot of the inventory item at add time
// plus the chosen order quantity. Lines are never mutated after they are
// appended; re-uploading inventory does not touch existing lines.
type Line struct {
	inventory.Item
	OrderQty int `json:"orderQty"`
}

// Cart is an ordered sequence of lines. Insertion order is display
// order. The cart is append/remove only; the correction path for a
// wrong quantity is remove and re-add.
type Cart struct {
	lines []Line
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{}
}

// ResolveQty parses pending quantity input text. Anything that is not a
// positive integer, including empty text, falls back to 1. This is
// policy, not an error: the quantity field is optional and defaults to
// one pallet.
func ResolveQty(text string) int {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Add appends a new line for the item and returns it. The same item may
// be added any number of times; each add yields an independent line.
func (c *Cart) Add(item inventory.Item, pendingQty string) Line {
	line := Line{Item: item, OrderQty: ResolveQty(pendingQty)}
	c.lines = append(c.lines, line)
	return line
}

// Remove drops the line at index; later lines shift down by one.
// Out-of-range indices are ignored.
func (c *Cart) Remove(index int) {
	if index < 0 || index >= len(c.lines) {
		return
	}
	c.lines = append(c.lines[:index], c.lines[index+1:]...)
}

// Lines returns a snapshot of the cart in insertion order.
func (c *Cart) Lines() []Line {
	return slices.Clone(c.lines)
}

// Len returns the number of lines in the cart.
func (c *Cart) Len() int {
	return len(c.lines)
}
