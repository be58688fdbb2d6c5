// Package inventory implements parsing of uploaded inventory exports and
// the in-memory inventory set for one ordering session.
//
// The expected input is the warehouse "4041" inventory report: a header
// row followed by one row per item. Quantity columns are carried as raw
// cell text; the export mixes integers, decimals and blanks, and the
// ordering flow never does arithmetic on them.
package inventory

import "strings"

// Column headers expected in the inventory export.
const (
	colDescription  = "ITEM DESCRIPTION"
	colDescription2 = "ITEM DESCRIPTION 2"
	colVendor       = "VENDOR"
	colUnitsOnHand  = "OH QTY"
	colCaseQty      = "TIER QTY"
	colPalletUnits  = "PALLET_UNITS"
	colCategory     = "CATEGORY"
	colItemNumber   = "ITEM NUMBER"
)

// Item is one parsed inventory row.
type Item struct {
	Description string `json:"description"`
	Vendor      string `json:"vendor"`
	UnitsOnHand string `json:"unitsOnHand"`
	CaseQty     string `json:"caseQty"`
	PalletUnits string `json:"palletUnits"`
	Category    string `json:"category"`
	ItemNumber  string `json:"itemNumber"`
}

// headerIndex maps lowercased column names to their position in a row.
type headerIndex map[string]int

func makeHeaderIndex(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		idx[strings.ToLower(cleanCell(h))] = i
	}
	return idx
}

// cell returns the cleaned value of the named column, or "" when the
// column is absent from the header or the row is short.
func (idx headerIndex) cell(row []string, col string) string {
	pos, ok := idx[strings.ToLower(col)]
	if !ok || pos >= len(row) {
		return ""
	}
	return cleanCell(row[pos])
}

// cleanCell removes common export artifacts from a cell value: it trims
// whitespace, strips the Excel formula quoting some exports wrap numeric
// text in (="0123"), and drops one matched pair of surrounding quotes.
// Only matched pairs are stripped; a lone trailing quote is real data,
// such as the inch mark in `PIPE 12"`.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	if len(s) >= 2 && s[0] == s[len(s)-1] && (s[0] == '"' || s[0] == '\'') {
		s = s[1 : len(s)-1]
	}

	return s
}

// itemFromRow maps one data row to an Item using the header index.
// The secondary description is appended with a separating space only
// when it is non-empty.
func itemFromRow(row []string, idx headerIndex) Item {
	desc := idx.cell(row, colDescription)
	if d2 := idx.cell(row, colDescription2); d2 != "" {
		desc += " " + d2
	}

	return Item{
		Description: desc,
		Vendor:      idx.cell(row, colVendor),
		UnitsOnHand: idx.cell(row, colUnitsOnHand),
		CaseQty:     idx.cell(row, colCaseQty),
		PalletUnits: idx.cell(row, colPalletUnits),
		Category:    idx.cell(row, colCategory),
		ItemNumber:  idx.cell(row, colItemNumber),
	}
}

// isEmptyRow reports whether every cell in the row is blank.
func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
