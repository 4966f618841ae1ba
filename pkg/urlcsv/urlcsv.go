// Package urlcsv reads the tabular input that drives QR stamping.
//
// A table is a CSV document with a header row. Every data record is kept
// in input order with a zero-based index, so record i pairs with page i of
// the PDF being stamped. Records whose cells are all empty are kept too.
// The payload column defaults to "URL" and is matched exactly: case-sensitive
// and without trimming header whitespace. When a header name repeats, the
// first column with that name is used.
//
// Key Types:
//
// - Table: header plus ordered records
// - Record: one data line keyed by column name
// - Row: the (index, URL) pair consumed by the stamper
// - MissingColumnError: returned when the payload column is absent
//
// Main Functions:
//
// - Parse: decodes raw CSV bytes into a Table
// - Table.Rows: extracts the payload column as ordered Rows
// - NormalizeURL: optional http(s) clean-up of a payload
package urlcsv

import (
	"fmt"
	"strings"
)

// DefaultColumn is the header name holding QR payloads.
const DefaultColumn = "URL"

// Table is a parsed CSV document
type Table struct {
	Header  []string // Column names in file order
	Records []Record // Data records in file order
}

// Record is one data line of the table
type Record struct {
	Index  int               // Zero-based position among data records
	Fields map[string]string // Cell values keyed by column name
}

// Row is a single payload destined for the page with the same index
type Row struct {
	Index int    // Zero-based position, pairs with page Index
	URL   string // Payload to encode
}

// MissingColumnError reports that the required payload column is absent.
type MissingColumnError struct {
	Column    string
	Available []string
}

func (e *MissingColumnError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("CSV must contain a '%s' column (no columns found)", e.Column)
	}
	return fmt.Sprintf("CSV must contain a '%s' column (found: %s)",
		e.Column, strings.Join(e.Available, ", "))
}

// HasColumn reports whether the header contains name exactly.
func (t Table) HasColumn(name string) bool {
	for _, h := range t.Header {
		if h == name {
			return true
		}
	}
	return false
}

// Rows returns the values of column as ordered Rows.
func (t Table) Rows(column string) ([]Row, error) {
	if column == "" {
		column = DefaultColumn
	}
	if !t.HasColumn(column) {
		return nil, &MissingColumnError{Column: column, Available: t.Header}
	}

	rows := make([]Row, 0, len(t.Records))
	for _, rec := range t.Records {
		rows = append(rows, Row{
			Index: rec.Index,
			URL:   strings.TrimSpace(rec.Fields[column]),
		})
	}
	return rows, nil
}
