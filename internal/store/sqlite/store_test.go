package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/gridroute/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestStore opens a fresh database under t.TempDir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Create(ctx, "Kept", [][]any{{"a"}})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	grids, err := s.ListGrids(ctx)
	require.NoError(t, err)
	require.Len(t, grids, 1)
	assert.Equal(t, "Kept", grids[0].Name)
}

func TestStore_ListGridsInCreationOrder(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	empty, err := s.ListGrids(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotNil(t, empty)

	a, err := s.Create(ctx, "Beta", nil)
	require.NoError(t, err)
	b, err := s.Create(ctx, "Alpha", nil)
	require.NoError(t, err)

	grids, err := s.ListGrids(ctx)
	require.NoError(t, err)
	assert.Equal(t, []grid.Handle{a, b}, grids)
}

func TestStore_GridByName(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	first, err := s.Create(ctx, "Dup", nil)
	require.NoError(t, err)
	_, err = s.Create(ctx, "Dup", nil)
	require.NoError(t, err)

	h, ok, err := s.GridByName(ctx, "Dup")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, h)

	_, ok, err = s.GridByName(ctx, "dup")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ValuesRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	h, err := s.Create(ctx, "Orders", [][]any{
		{"id", "item", "price"},
		{1, "bolt", 0.25},
		{2},
	})
	require.NoError(t, err)
	require.NoError(t, s.AppendRow(ctx, h, []any{3, nil, true}))

	values, err := s.FetchValues(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, [][]any{
		{"id", "item", "price"},
		{int64(1), "bolt", 0.25},
		{int64(2)},
		{int64(3), nil, true},
	}, values)
}

func TestStore_UnknownGrid(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, err := s.FetchValues(ctx, grid.Handle{ID: 9})
	assert.ErrorIs(t, err, grid.ErrGridNotFound)

	err = s.AppendRow(ctx, grid.Handle{ID: 9}, []any{1})
	assert.ErrorIs(t, err, grid.ErrGridNotFound)
}

func TestStore_SheetAppend(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	h, err := s.Create(ctx, "People", [][]any{{"name", "age"}})
	require.NoError(t, err)

	ref := grid.NewRef(s, h)
	sheet, err := grid.Read(ctx, ref)
	require.NoError(t, err)

	echo, err := sheet.Append(ctx, grid.Record{"age": 40, "name": "cy"})
	require.NoError(t, err)
	assert.Equal(t, grid.Record{"name": "cy", "age": 40}, echo)

	sheet, err = grid.Read(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []grid.Record{{"name": "cy", "age": int64(40)}}, sheet.All())
}
