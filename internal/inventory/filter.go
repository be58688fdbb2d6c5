package inventory

import "strings"

// Filter returns the items matching both predicates, preserving the
// original relative order. An item matches search when its description
// contains it case-insensitively (empty search matches everything), and
// matches category when category is empty or equals the item's category
// exactly (case-sensitive). Filter is a pure function: it never mutates
// its input.
func Filter(items []Item, search, category string) []Item {
	search = strings.ToLower(search)

	out := make([]Item, 0, len(items))
	for _, it := range items {
		if search != "" && !strings.Contains(strings.ToLower(it.Description), search) {
			continue
		}
		if category != "" && it.Category != category {
			continue
		}
		out = append(out, it)
	}
	return out
}
