package grid

import (
	"context"
	"errors"
	"fmt"
)

// ErrGridNotFound is returned by providers when a handle no longer refers to
// a grid in the backing store.
var ErrGridNotFound = errors.New("grid not found")

// Handle identifies a single grid inside a provider's backing store.
type Handle struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Provider owns the backing store (a workbook, a database, memory).
// Callers never cache provider state; every call goes to the store.
type Provider interface {
	// ListGrids returns every grid in store order.
	ListGrids(ctx context.Context) ([]Handle, error)

	// GridByName returns the grid with exactly this name.
	// The bool is false when no such grid exists.
	GridByName(ctx context.Context, name string) (Handle, bool, error)

	// FetchValues returns a full snapshot of the grid, header row first.
	FetchValues(ctx context.Context, h Handle) ([][]any, error)

	// AppendRow adds a positional row after the last row of the grid.
	AppendRow(ctx context.Context, h Handle, row []any) error
}

// Ref is a grid handle bound to the provider that owns it.
// A nil *Ref is the "no grid found" marker handed to route handlers.
type Ref struct {
	Handle

	// Table is set when the route asked for table data to be loaded
	// ahead of the handler.
	Table *Sheet

	provider Provider
}

// NewRef binds h to p.
func NewRef(p Provider, h Handle) *Ref {
	return &Ref{Handle: h, provider: p}
}

// Provider returns the provider that owns the grid.
func (r *Ref) Provider() Provider {
	return r.provider
}

// Values fetches the current snapshot of the grid.
func (r *Ref) Values(ctx context.Context) ([][]any, error) {
	values, err := r.provider.FetchValues(ctx, r.Handle)
	if err != nil {
		return nil, fmt.Errorf("fetch grid %q: %w", r.Name, err)
	}
	return values, nil
}

// AppendRow writes a positional row to the end of the grid.
func (r *Ref) AppendRow(ctx context.Context, row []any) error {
	if err := r.provider.AppendRow(ctx, r.Handle, row); err != nil {
		return fmt.Errorf("append to grid %q: %w", r.Name, err)
	}
	return nil
}

// Read fetches the grid behind ref and wraps it in a Sheet whose Append
// writes back through the same provider.
func Read(ctx context.Context, ref *Ref, opts ...SheetOption) (*Sheet, error) {
	if ref == nil {
		return nil, ErrGridNotFound
	}

	values, err := ref.Values(ctx)
	if err != nil {
		return nil, err
	}

	s, err := NewSheet(values, opts...)
	if err != nil {
		return nil, fmt.Errorf("read grid %q: %w", ref.Name, err)
	}
	s.ref = ref
	return s, nil
}
