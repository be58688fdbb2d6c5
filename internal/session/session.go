// Package session holds the per-browser session state aggregate: the
// inventory store, the cart, the order context and the transient view
// state. All mutation goes through named operations; derived values are
// computed fresh from snapshots on every read.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/abfoods/orderdesk/internal/inventory"
	"github.com/abfoods/orderdesk/internal/order"
)

// ErrUnknownItem is returned when an add-to-cart names an item number
// that is not in the current inventory.
var ErrUnknownItem = errors.New("unknown item")

// ViewState is the transient UI input state: search text, category
// filter and per-item pending quantity text. It is never persisted.
type ViewState struct {
	Search    string            `json:"search"`
	Category  string            `json:"category"`
	QtyInputs map[string]string `json:"qtyInputs"`
}

// Session is the state aggregate for one ordering session.
//
// A mutex guards the aggregate because HTTP handlers may run
// concurrently even for a single browser; semantically each operation
// is still an atomic replacement of an immutable-from-outside snapshot.
type Session struct {
	ID string

	mu        sync.Mutex
	inventory *inventory.Store
	cart      *order.Cart
	order     order.Context
	view      ViewState
	lastSeen  time.Time
}

func newSession(id string) *Session {
	return &Session{
		ID:        id,
		inventory: inventory.NewStore(),
		cart:      order.NewCart(),
		view:      ViewState{QtyInputs: make(map[string]string)},
		lastSeen:  time.Now(),
	}
}

// Ingest replaces the inventory set with a successful parse result and
// returns the item count. Callers parse first: a failed parse never
// reaches Ingest, so prior inventory survives bad uploads. Existing
// cart lines are snapshots and are deliberately left untouched.
func (s *Session) Ingest(items []inventory.Item) int {
	s.inventory.Replace(items)
	return len(items)
}

// FilteredItems returns the inventory view for the current search text
// and category filter, preserving original row order.
func (s *Session) FilteredItems() []inventory.Item {
	s.mu.Lock()
	search, category := s.view.Search, s.view.Category
	s.mu.Unlock()

	return inventory.Filter(s.inventory.Items(), search, category)
}

// Categories returns the filter options: distinct non-empty categories
// from the full inventory, not the filtered view.
func (s *Session) Categories() []string {
	return s.inventory.Categories()
}

// InventoryLen returns the size of the current inventory set.
func (s *Session) InventoryLen() int {
	return s.inventory.Len()
}

// SetSearch updates the live search text.
func (s *Session) SetSearch(q string) {
	s.mu.Lock()
	s.view.Search = q
	s.mu.Unlock()
}

// SetCategory updates the category filter.
func (s *Session) SetCategory(c string) {
	s.mu.Lock()
	s.view.Category = c
	s.mu.Unlock()
}

// SetQtyInput records pending quantity text for an item. The text is
// uncommitted input; it only becomes an order quantity on AddToCart.
func (s *Session) SetQtyInput(itemNumber, text string) {
	s.mu.Lock()
	s.view.QtyInputs[itemNumber] = text
	s.mu.Unlock()
}

// View returns a snapshot of the transient view state.
func (s *Session) View() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()

	inputs := make(map[string]string, len(s.view.QtyInputs))
	for k, v := range s.view.QtyInputs {
		inputs[k] = v
	}
	return ViewState{Search: s.view.Search, Category: s.view.Category, QtyInputs: inputs}
}

// AddToCart appends a cart line for the named item using its pending
// quantity text, then clears that pending text. Returns ErrUnknownItem
// if the item number is not in the current inventory.
func (s *Session) AddToCart(itemNumber string) (order.Line, error) {
	item, ok := s.inventory.Lookup(itemNumber)
	if !ok {
		return order.Line{}, ErrUnknownItem
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	line := s.cart.Add(item, s.view.QtyInputs[itemNumber])
	delete(s.view.QtyInputs, itemNumber)
	return line, nil
}

// RemoveFromCart drops the cart line at index. Out-of-range indices are
// a no-op.
func (s *Session) RemoveFromCart(index int) {
	s.mu.Lock()
	s.cart.Remove(index)
	s.mu.Unlock()
}

// CartLines returns a snapshot of the cart in insertion order.
func (s *Session) CartLines() []order.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines()
}

// SetOrderInfo replaces the purchase order metadata fields.
func (s *Session) SetOrderInfo(info order.Context) {
	s.mu.Lock()
	s.order = info
	s.mu.Unlock()
}

// OrderInfo returns the current purchase order metadata.
func (s *Session) OrderInfo() order.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order
}

// BuildEmail renders the purchase order email draft for the current
// order context and cart.
func (s *Session) BuildEmail(recipient string) order.Email {
	s.mu.Lock()
	octx := s.order
	lines := s.cart.Lines()
	s.mu.Unlock()

	return order.BuildEmail(octx, lines, recipient)
}

// touch records activity for idle expiry.
func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// idleSince reports whether the session has seen no activity since the
// given deadline.
func (s *Session) idleSince(deadline time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen.Before(deadline)
}
