package grid

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Provider. It backs tests, the CLI's scratch mode
// and the "memory" store backend.
type Memory struct {
	mu     sync.RWMutex
	order  []int64
	grids  map[int64]*memoryGrid
	nextID int64
}

type memoryGrid struct {
	handle Handle
	values [][]any
}

// NewMemory returns an empty in-memory provider.
func NewMemory() *Memory {
	return &Memory{
		grids:  make(map[int64]*memoryGrid),
		nextID: 1,
	}
}

// Add stores a grid under the given id and name, replacing any grid with the
// same id. Values are copied.
func (m *Memory) Add(id int64, name string, values [][]any) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.add(id, name, values)
}

func (m *Memory) add(id int64, name string, values [][]any) Handle {
	h := Handle{ID: id, Name: name}
	if _, exists := m.grids[id]; !exists {
		m.order = append(m.order, id)
	}
	m.grids[id] = &memoryGrid{handle: h, values: copyValues(values)}
	if id >= m.nextID {
		m.nextID = id + 1
	}
	return h
}

// Create stores a grid under the next free id.
func (m *Memory) Create(name string, values [][]any) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.add(m.nextID, name, values)
}

// ListGrids implements Provider.
func (m *Memory) ListGrids(ctx context.Context) ([]Handle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	handles := make([]Handle, 0, len(m.order))
	for _, id := range m.order {
		handles = append(handles, m.grids[id].handle)
	}
	return handles, nil
}

// GridByName implements Provider.
func (m *Memory) GridByName(ctx context.Context, name string) (Handle, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		if g := m.grids[id]; g.handle.Name == name {
			return g.handle, true, nil
		}
	}
	return Handle{}, false, nil
}

// FetchValues implements Provider. The returned rows are a copy.
func (m *Memory) FetchValues(ctx context.Context, h Handle) ([][]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.grids[h.ID]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrGridNotFound, h.ID)
	}
	return copyValues(g.values), nil
}

// AppendRow implements Provider.
func (m *Memory) AppendRow(ctx context.Context, h Handle, row []any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.grids[h.ID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrGridNotFound, h.ID)
	}
	g.values = append(g.values, append([]any(nil), row...))
	return nil
}

func copyValues(values [][]any) [][]any {
	out := make([][]any, len(values))
	for i, row := range values {
		out[i] = append([]any(nil), row...)
	}
	return out
}
