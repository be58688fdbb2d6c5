package inventory

import (
	"bytes"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX parses an inventory export saved as an Excel workbook.
// Only the first sheet is read; it must have the same header row as the
// CSV export.
func ParseXLSX(data []byte) ([]Item, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Err: ErrEmptyFile}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	return itemsFromRecords(rows)
}
