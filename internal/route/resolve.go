package route

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/gridroute/internal/grid"
)

// TableParam is the request parameter naming the grid for default resolution.
const TableParam = "table"

// Resolver locates the grid a read route should operate on.
// It holds no grid state of its own; every lookup goes to the provider.
type Resolver struct {
	provider  grid.Provider
	sheetOpts []grid.SheetOption
}

// NewResolver creates a Resolver over p. sheetOpts are applied to every
// Sheet the resolver reads.
func NewResolver(p grid.Provider, sheetOpts ...grid.SheetOption) *Resolver {
	return &Resolver{provider: p, sheetOpts: sheetOpts}
}

// Provider returns the underlying grid provider.
func (r *Resolver) Provider() grid.Provider {
	return r.provider
}

// Resolve finds the grid for a request.
//
// With opts.TargetID set, the first grid whose id loosely equals it wins.
// A zero TargetID (nil, "", 0, false) counts as unset, and the "table"
// parameter is looked up by exact name instead. No match is reported as
// (nil, nil); only provider failures return an error.
func (r *Resolver) Resolve(ctx context.Context, params map[string]string, opts Options) (*grid.Ref, error) {
	var (
		ref *grid.Ref
		err error
	)

	if !grid.IsZero(opts.TargetID) {
		ref, err = r.ByID(ctx, opts.TargetID)
	} else {
		ref, err = r.ByName(ctx, params[TableParam])
	}
	if err != nil || ref == nil {
		return nil, err
	}

	if opts.LoadTableData {
		sheet, err := r.Read(ctx, ref)
		if err != nil {
			return nil, err
		}
		ref.Table = sheet
	}

	return ref, nil
}

// ByID scans the provider's grids for the first id loosely equal to id.
func (r *Resolver) ByID(ctx context.Context, id any) (*grid.Ref, error) {
	handles, err := r.provider.ListGrids(ctx)
	if err != nil {
		return nil, fmt.Errorf("list grids: %w", err)
	}

	for _, h := range handles {
		if grid.LooseEqual(h.ID, id) {
			return grid.NewRef(r.provider, h), nil
		}
	}
	return nil, nil
}

// ByName looks up a grid by exact name. A blank name finds nothing.
func (r *Resolver) ByName(ctx context.Context, name string) (*grid.Ref, error) {
	if name == "" {
		return nil, nil
	}

	h, ok, err := r.provider.GridByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("find grid %q: %w", name, err)
	}
	if !ok {
		return nil, nil
	}
	return grid.NewRef(r.provider, h), nil
}

// Read loads ref into a Sheet using the resolver's sheet options.
// A preloaded Ref.Table is returned as is.
func (r *Resolver) Read(ctx context.Context, ref *grid.Ref) (*grid.Sheet, error) {
	if ref != nil && ref.Table != nil {
		return ref.Table, nil
	}
	return grid.Read(ctx, ref, r.sheetOpts...)
}
