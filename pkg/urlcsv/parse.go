package urlcsv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse converts raw CSV data into a Table.
func Parse(data []byte) (Table, error) {
	var result Table

	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return result, fmt.Errorf("CSV data is empty")
	}

	// Spreadsheet exports are often Latin-1
	if !utf8.Valid(data) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return result, fmt.Errorf("failed to decode ISO-8859-1: %w", err)
		}
		data = decoded
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return result, fmt.Errorf("failed to read CSV header: %w", err)
	}
	// Header names are matched literally
	result.Header = header

	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("failed to read CSV record %d: %w", len(result.Records)+1, err)
		}
		// encoding/csv drops empty lines; delimiter-only records are kept
		// so that record i still pairs with page i.
		rec := Record{
			Index:  len(result.Records),
			Fields: make(map[string]string, len(header)),
		}
		for i, name := range header {
			if _, dup := rec.Fields[name]; dup {
				continue // first column with a repeated name wins
			}
			if i < len(fields) {
				rec.Fields[name] = fields[i]
			} else {
				rec.Fields[name] = ""
			}
		}
		result.Records = append(result.Records, rec)
	}

	return result, nil
}

// ParseRows parses data and extracts column in one step.
func ParseRows(data []byte, column string) ([]Row, error) {
	table, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return table.Rows(column)
}
