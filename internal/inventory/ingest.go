package inventory

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrEmptyFile is returned when the upload has no header row.
var ErrEmptyFile = errors.New("empty file")

// ParseError reports a malformed inventory file. Ingestion is
// all-or-nothing: when a ParseError is returned no items are produced
// and any previously ingested inventory must be left untouched by the
// caller.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid inventory file: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseFile parses an uploaded inventory export, dispatching on the file
// extension: ".xlsx" is read as a workbook, everything else as CSV.
func ParseFile(name string, data []byte) ([]Item, error) {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return ParseXLSX(data)
	}
	return ParseCSV(data)
}

// ParseCSV parses a delimited inventory export. The first row is the
// header; every later row becomes one Item, in file order. Rows with
// unparseable delimiter structure fail the whole parse.
func ParseCSV(data []byte) ([]Item, error) {
	data = sanitizeUTF8(skipBOM(data))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	return itemsFromRecords(records)
}

// itemsFromRecords applies the header mapping to raw records.
// Fully blank rows are skipped; rows missing optional columns are kept
// with empty attributes.
func itemsFromRecords(records [][]string) ([]Item, error) {
	if len(records) == 0 {
		return nil, &ParseError{Err: ErrEmptyFile}
	}

	idx := makeHeaderIndex(records[0])

	items := make([]Item, 0, len(records)-1)
	for _, row := range records[1:] {
		if isEmptyRow(row) {
			continue
		}
		items = append(items, itemFromRow(row, idx))
	}

	return items, nil
}

// skipBOM drops a leading UTF-8 byte order mark, commonly added by
// Windows exports.
func skipBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

// sanitizeUTF8 replaces invalid UTF-8 sequences with the Unicode
// replacement character so the csv reader never chokes on stray bytes
// from legacy encodings.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.Write(data[:size])
			data = data[size:]
		}
	}

	return buf.Bytes()
}
