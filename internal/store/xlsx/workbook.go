// Package xlsx serves grids from the sheets of an Excel workbook.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/JonMunkholm/gridroute/internal/grid"
	"github.com/xuri/excelize/v2"
)

// Workbook is a grid.Provider over one .xlsx file. Every sheet is a grid;
// the sheet's workbook id is the grid id.
type Workbook struct {
	mu   sync.Mutex
	path string
	f    *excelize.File
}

var _ grid.Provider = (*Workbook)(nil)

// Open opens the workbook at path, creating an empty one when the file
// does not exist yet.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if errors.Is(err, os.ErrNotExist) {
		f = excelize.NewFile()
		if err := f.SaveAs(path); err != nil {
			f.Close()
			return nil, fmt.Errorf("create workbook %s: %w", path, err)
		}
		return &Workbook{path: path, f: f}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return &Workbook{path: path, f: f}, nil
}

// Close releases the workbook. Appends are already on disk.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

// Path returns the workbook file.
func (w *Workbook) Path() string {
	return w.path
}

// ListGrids returns the sheets in tab order.
func (w *Workbook) ListGrids(ctx context.Context) ([]grid.Handle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.handles(), nil
}

func (w *Workbook) handles() []grid.Handle {
	ids := make(map[string]int, len(w.f.GetSheetMap()))
	for id, name := range w.f.GetSheetMap() {
		ids[name] = id
	}

	names := w.f.GetSheetList()
	out := make([]grid.Handle, 0, len(names))
	for _, name := range names {
		out = append(out, grid.Handle{ID: int64(ids[name]), Name: name})
	}
	return out
}

// GridByName matches sheet names exactly.
func (w *Workbook) GridByName(ctx context.Context, name string) (grid.Handle, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, h := range w.handles() {
		if h.Name == name {
			return h, true, nil
		}
	}
	return grid.Handle{}, false, nil
}

// sheetName maps a handle back to the current sheet name. Sheets may be
// renamed between calls, so the id is authoritative.
func (w *Workbook) sheetName(h grid.Handle) (string, error) {
	name, ok := w.f.GetSheetMap()[int(h.ID)]
	if !ok {
		return "", fmt.Errorf("%w: sheet id %d", grid.ErrGridNotFound, h.ID)
	}
	return name, nil
}

// FetchValues reads the sheet's used range, blank rows included. Numeric and
// boolean cells come back typed, everything else as text.
func (w *Workbook) FetchValues(ctx context.Context, h grid.Handle) ([][]any, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	sheet, err := w.sheetName(h)
	if err != nil {
		return nil, err
	}

	rows, err := w.usedRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	values := make([][]any, len(rows))
	for r, row := range rows {
		values[r] = make([]any, len(row))
		for c, text := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			typ, err := w.f.GetCellType(sheet, cell)
			if err != nil {
				return nil, fmt.Errorf("cell %s!%s: %w", sheet, cell, err)
			}
			values[r][c] = decodeCell(typ, text)
		}
	}
	return values, nil
}

func decodeCell(typ excelize.CellType, text string) any {
	switch typ {
	case excelize.CellTypeBool:
		return text == "1" || text == "TRUE" || text == "true"
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		// Untyped cells are what SetCellInt and SetCellFloat produce.
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return f
		}
	}
	return text
}

// usedRows returns the raw text of every row up to the sheet's last row
// element. Unlike GetRows it keeps blank rows at the end of the sheet, so
// a blank row appended last still counts.
func (w *Workbook) usedRows(sheet string) ([][]string, error) {
	rows, err := w.f.Rows(sheet)
	if err != nil {
		return nil, err
	}

	var out [][]string
	for rows.Next() {
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, cols)
	}
	if err := rows.Error(); err != nil {
		rows.Close()
		return nil, err
	}
	return out, rows.Close()
}

// AppendRow writes row below the last row and saves the workbook.
func (w *Workbook) AppendRow(ctx context.Context, h grid.Handle, row []any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	sheet, err := w.sheetName(h)
	if err != nil {
		return err
	}

	rows, err := w.usedRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	next := len(rows) + 1
	cell, err := excelize.CoordinatesToCellName(1, next)
	if err != nil {
		return err
	}

	cells := make([]any, len(row))
	copy(cells, row)
	if err := w.f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
	}

	// A row with no values and no attributes is not written out on save.
	// An explicit height keeps a blank row in place.
	if blankRow(row) {
		ht, err := w.f.GetRowHeight(sheet, next)
		if err != nil {
			return fmt.Errorf("row height %s!%d: %w", sheet, next, err)
		}
		if err := w.f.SetRowHeight(sheet, next, ht); err != nil {
			return fmt.Errorf("mark blank row %s!%d: %w", sheet, next, err)
		}
	}

	if err := w.f.Save(); err != nil {
		return fmt.Errorf("save workbook %s: %w", w.path, err)
	}
	return nil
}

func blankRow(row []any) bool {
	for _, v := range row {
		if v != nil && v != "" {
			return false
		}
	}
	return true
}

// Create adds a sheet named name holding values and saves the workbook.
// An existing sheet with that name is overwritten from A1.
func (w *Workbook) Create(ctx context.Context, name string, values [][]any) (grid.Handle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if idx, err := w.f.GetSheetIndex(name); err != nil || idx == -1 {
		if _, err := w.f.NewSheet(name); err != nil {
			return grid.Handle{}, fmt.Errorf("new sheet %s: %w", name, err)
		}
	}

	for r, row := range values {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return grid.Handle{}, err
		}
		cells := make([]any, len(row))
		copy(cells, row)
		if err := w.f.SetSheetRow(name, cell, &cells); err != nil {
			return grid.Handle{}, fmt.Errorf("write %s!%s: %w", name, cell, err)
		}
	}

	if err := w.f.Save(); err != nil {
		return grid.Handle{}, fmt.Errorf("save workbook %s: %w", w.path, err)
	}

	for _, h := range w.handles() {
		if h.Name == name {
			return h, nil
		}
	}
	return grid.Handle{}, fmt.Errorf("%w: %s", grid.ErrGridNotFound, name)
}
