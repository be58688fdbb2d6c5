package inventory

import (
	"slices"
	"sync"
)

// Store holds the current inventory set for one session. The set is
// replaced atomically by each successful ingestion; there is no mutation
// API beyond full replacement.
type Store struct {
	mu       sync.RWMutex
	items    []Item
	byNumber map[string]Item
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{byNumber: make(map[string]Item)}
}

// Replace swaps in a freshly ingested inventory set, discarding the
// previous one. The caller's slice is copied so later mutation cannot
// leak into the store.
func (s *Store) Replace(items []Item) {
	byNumber := make(map[string]Item, len(items))
	for _, it := range items {
		// Duplicate item numbers: last parsed row wins for lookup.
		byNumber[it.ItemNumber] = it
	}

	s.mu.Lock()
	s.items = slices.Clone(items)
	s.byNumber = byNumber
	s.mu.Unlock()
}

// Items returns a snapshot of the inventory in original row order.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Lookup returns the item with the given item number.
func (s *Store) Lookup(itemNumber string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.byNumber[itemNumber]
	return it, ok
}

// Categories returns the distinct non-empty category values present in
// the full inventory, in first-seen order.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, it := range s.items {
		if it.Category == "" || seen[it.Category] {
			continue
		}
		seen[it.Category] = true
		out = append(out, it.Category)
	}
	return out
}

// Len returns the number of items currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
