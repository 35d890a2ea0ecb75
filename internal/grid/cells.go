package grid

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalRow encodes a positional row as a JSON array for stores that keep
// rows as documents.
func MarshalRow(row []any) ([]byte, error) {
	if row == nil {
		row = []any{}
	}
	b, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	return b, nil
}

// UnmarshalRow decodes a row written by MarshalRow. Whole numbers come back
// as int64, other numbers as float64.
func UnmarshalRow(data []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var row []any
	if err := dec.Decode(&row); err != nil {
		return nil, fmt.Errorf("decode row: %w", err)
	}
	for i, cell := range row {
		row[i] = normalizeNumber(cell)
	}
	if row == nil {
		row = []any{}
	}
	return row, nil
}

func normalizeNumber(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		for i := range t {
			t[i] = normalizeNumber(t[i])
		}
	case map[string]any:
		for k := range t {
			t[k] = normalizeNumber(t[k])
		}
	}
	return v
}
