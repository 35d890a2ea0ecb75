// Package grid provides header-indexed access to two-dimensional cell grids.
//
// A grid is a slice of rows where row 0 holds the column labels. A [Sheet]
// wraps one snapshot of a grid and exposes it as [Record] values keyed by
// label:
//
//	sheet, err := grid.Read(ctx, ref)
//	if err != nil {
//	    return err
//	}
//	open := sheet.ByColumn("Status", "open")
//	names := sheet.Filter([]string{"Name", "Email"})
//	_, err = sheet.Append(ctx, grid.Record{"Name": "Ada", "Status": "open"})
//
// # Leniency
//
// By default nothing is validated. Short rows yield nil for missing cells and
// unknown column names yield nil values instead of errors. [WithStrict] turns
// on row-length checks at construction and makes [Sheet.Validate] and
// [Sheet.Append] reject labels the header does not contain.
//
// # Snapshots
//
// The header index and data rows are captured when the Sheet is built.
// [Sheet.All], [Sheet.ByColumn] and [Sheet.Filter] never go back to the
// provider; [Sheet.Append] writes through it and does not refresh the
// snapshot.
package grid

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownColumn is returned in strict mode for labels missing from the header.
	ErrUnknownColumn = errors.New("column not found")

	// ErrRaggedRow is returned in strict mode when a data row is not header-length.
	ErrRaggedRow = errors.New("row length does not match header")

	// ErrDetached is returned by Append on a Sheet built without a provider.
	ErrDetached = errors.New("sheet is not bound to a grid")
)

// Record maps header labels to cell values for one data row.
type Record map[string]any

// HeaderIndex maps a header label to its zero-based column position.
type HeaderIndex map[string]int

// MakeHeaderIndex indexes header labels. Duplicate labels resolve to the
// last occurrence.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		idx[h] = i
	}
	return idx
}

// SheetOption configures a Sheet.
type SheetOption func(*Sheet)

// WithStrict enables strict validation. See the package documentation.
func WithStrict() SheetOption {
	return func(s *Sheet) {
		s.strict = true
	}
}

// Sheet is a header-indexed view over one grid snapshot.
type Sheet struct {
	header []string
	index  HeaderIndex
	rows   [][]any
	strict bool

	ref *Ref
}

// NewSheet builds a Sheet from raw grid values. The returned error is always
// nil unless strict mode is on.
func NewSheet(values [][]any, opts ...SheetOption) (*Sheet, error) {
	s := &Sheet{}
	for _, opt := range opts {
		opt(s)
	}

	if len(values) > 0 {
		s.header = make([]string, len(values[0]))
		for i, cell := range values[0] {
			s.header[i] = label(cell)
		}
		s.rows = values[1:]
	}
	s.index = MakeHeaderIndex(s.header)

	if s.strict {
		for i, row := range s.rows {
			if len(row) != len(s.header) {
				return nil, fmt.Errorf("data row %d has %d cells, header has %d: %w",
					i+1, len(row), len(s.header), ErrRaggedRow)
			}
		}
	}

	return s, nil
}

// label turns a header cell into its string label.
func label(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Strict reports whether strict validation is enabled.
func (s *Sheet) Strict() bool {
	return s.strict
}

// Ref returns the grid the sheet was read from, or nil.
func (s *Sheet) Ref() *Ref {
	return s.ref
}

// Len returns the number of data rows.
func (s *Sheet) Len() int {
	return len(s.rows)
}

// Header returns the header labels in grid order.
func (s *Sheet) Header() []string {
	return s.header
}

// HasColumn reports whether column is a header label.
func (s *Sheet) HasColumn(column string) bool {
	_, ok := s.index[column]
	return ok
}

// Validate returns ErrUnknownColumn naming every column that is not a header
// label. It validates regardless of strict mode; callers decide when to ask.
func (s *Sheet) Validate(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if !s.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, strings.Join(missing, ", "))
	}
	return nil
}

// All returns every data row as a Record, in grid order.
func (s *Sheet) All() []Record {
	result := make([]Record, 0, len(s.rows))
	for _, row := range s.rows {
		result = append(result, s.record(row))
	}
	return result
}

// ByColumn returns the full records whose cell in column is LooseEqual to
// value. An unknown column compares as nil, so it only matches a nil value.
func (s *Sheet) ByColumn(column string, value any) []Record {
	pos, known := s.index[column]

	result := make([]Record, 0)
	for _, row := range s.rows {
		var cell any
		if known {
			cell = cellAt(row, pos)
		}
		if LooseEqual(cell, value) {
			result = append(result, s.record(row))
		}
	}
	return result
}

// Filter returns one record per data row holding only the requested columns.
// Unknown columns are present with a nil value. Empty records are dropped,
// which only happens when columns is empty.
func (s *Sheet) Filter(columns []string) []Record {
	result := make([]Record, 0, len(s.rows))
	for _, row := range s.rows {
		rec := make(Record, len(columns))
		for _, c := range columns {
			if pos, ok := s.index[c]; ok {
				rec[c] = cellAt(row, pos)
			} else {
				rec[c] = nil
			}
		}
		if len(rec) == 0 {
			continue
		}
		result = append(result, rec)
	}
	return result
}

// Append writes data as a new row ordered by the header and returns the
// record that was sent: every header label, nil where data had no value.
// The returned record is not re-read from the grid.
func (s *Sheet) Append(ctx context.Context, data Record) (Record, error) {
	if s.ref == nil {
		return nil, ErrDetached
	}

	if s.strict {
		var extra []string
		for k := range data {
			if !s.HasColumn(k) {
				extra = append(extra, k)
			}
		}
		if len(extra) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, strings.Join(extra, ", "))
		}
	}

	result := make(Record, len(s.header))
	row := make([]any, len(s.header))
	for i, h := range s.header {
		v := data[h]
		result[h] = v
		row[i] = v
	}

	if err := s.ref.AppendRow(ctx, row); err != nil {
		return nil, err
	}
	return result, nil
}

// record maps a positional row onto header labels.
func (s *Sheet) record(row []any) Record {
	rec := make(Record, len(s.header))
	for i, h := range s.header {
		rec[h] = cellAt(row, i)
	}
	return rec
}

func cellAt(row []any, i int) any {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}
