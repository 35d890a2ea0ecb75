package actions

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/JonMunkholm/gridroute/internal/grid"
	"github.com/JonMunkholm/gridroute/internal/route"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, sheetOpts ...grid.SheetOption) (*route.Router, *grid.Memory) {
	t.Helper()
	mem := grid.NewMemory()
	mem.Add(42, "Orders", [][]any{
		{"id", "item", "qty"},
		{1, "bolt", 10},
		{2, "nut", 5},
		{3, "bolt", 2},
	})
	mem.Add(7, "Empty", [][]any{{"id"}})

	resolver := route.NewResolver(mem, sheetOpts...)
	rt := route.NewRouter(resolver)
	require.NoError(t, Register(rt, New(resolver)))
	return rt, mem
}

func get(t *testing.T, rt *route.Router, params map[string]string) route.Response {
	t.Helper()
	resp, err := rt.Dispatch(context.Background(), route.VerbGet, route.NewRequest(params))
	require.NoError(t, err)
	return resp
}

func assertGolden(t *testing.T, name string, v any) {
	t.Helper()
	b, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden.json"),
	)
	g.Assert(t, name, append(b, '\n'))
}

func TestList(t *testing.T) {
	rt, _ := newTestRouter(t)
	resp := get(t, rt, map[string]string{"action": "list", "table": "Orders"})
	assertGolden(t, "list_orders", resp)
}

func TestList_TableNotFound(t *testing.T) {
	rt, _ := newTestRouter(t)

	for _, params := range []map[string]string{
		{"action": "list", "table": "Nope"},
		{"action": "list"},
	} {
		resp := get(t, rt, params)
		assert.Equal(t, route.Fail(MsgTableNotFound), resp)
	}
}

func TestHeader(t *testing.T) {
	rt, _ := newTestRouter(t)
	resp := get(t, rt, map[string]string{"action": "header", "table": "Orders"})
	assert.Equal(t, route.OK([]string{"id", "item", "qty"}), resp)
}

func TestFind(t *testing.T) {
	rt, _ := newTestRouter(t)

	resp := get(t, rt, map[string]string{"action": "find", "table": "Orders", "column": "item", "value": "bolt"})
	require.Equal(t, route.StatusOK, resp.Status)
	assert.Len(t, resp.Data, 2)

	// Query values are text; numeric cells still match.
	resp = get(t, rt, map[string]string{"action": "find", "table": "Orders", "column": "qty", "value": "5"})
	assert.Equal(t, []grid.Record{{"id": 2, "item": "nut", "qty": 5}}, resp.Data)

	resp = get(t, rt, map[string]string{"action": "find", "table": "Orders", "column": "colour", "value": "red"})
	assert.Equal(t, []grid.Record{}, resp.Data, "unknown columns match nothing")

	resp = get(t, rt, map[string]string{"action": "find", "table": "Orders"})
	assert.Equal(t, route.Fail(MsgMissingColumn), resp)
}

func TestFind_ValueMustBeSent(t *testing.T) {
	rt, mem := newTestRouter(t)
	mem.Add(8, "Stock", [][]any{
		{"sku", "qty"},
		{"a", 0},
		{"b", ""},
		{"c", 4},
	})

	resp := get(t, rt, map[string]string{"action": "find", "table": "Stock", "column": "qty"})
	assert.Equal(t, route.Fail(MsgMissingValue), resp)

	// An explicit empty value is a loose match for blank and zero cells.
	resp = get(t, rt, map[string]string{"action": "find", "table": "Stock", "column": "qty", "value": ""})
	assert.Equal(t, []grid.Record{
		{"sku": "a", "qty": 0},
		{"sku": "b", "qty": ""},
	}, resp.Data)
}

func TestFind_StrictRejectsUnknownColumn(t *testing.T) {
	rt, _ := newTestRouter(t, grid.WithStrict())

	_, err := rt.Dispatch(context.Background(), route.VerbGet, route.NewRequest(
		map[string]string{"action": "find", "table": "Orders", "column": "colour", "value": "red"}))
	assert.ErrorIs(t, err, grid.ErrUnknownColumn)
}

func TestSelect(t *testing.T) {
	rt, _ := newTestRouter(t)

	resp := get(t, rt, map[string]string{"action": "select", "table": "Orders", "columns": "item, missing"})
	assert.Equal(t, []grid.Record{
		{"item": "bolt", "missing": nil},
		{"item": "nut", "missing": nil},
		{"item": "bolt", "missing": nil},
	}, resp.Data)

	resp = get(t, rt, map[string]string{"action": "select", "table": "Orders"})
	assert.Equal(t, []grid.Record{}, resp.Data)
}

func TestAppend(t *testing.T) {
	rt, mem := newTestRouter(t)

	req := route.NewRequest(map[string]string{"action": "append", "table": "Orders"})
	req.Body = `{"qty": 4, "item": "washer", "id": 4}`

	resp, err := rt.Dispatch(context.Background(), route.VerbPost, req)
	require.NoError(t, err)
	assert.Equal(t, route.OK(grid.Record{"id": int64(4), "item": "washer", "qty": int64(4)}), resp)

	values, err := mem.FetchValues(context.Background(), grid.Handle{ID: 42})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(4), "washer", int64(4)}, values[len(values)-1])
}

func TestAppend_BadRequests(t *testing.T) {
	rt, mem := newTestRouter(t)

	tests := []struct {
		name  string
		table string
		body  string
		want  route.Response
	}{
		{"unknown table", "Nope", `{"id": 1}`, route.Fail(MsgTableNotFound)},
		{"empty body", "Orders", "", route.Fail(MsgInvalidBody)},
		{"array body", "Orders", `[1, 2]`, route.Fail(MsgInvalidBody)},
		{"null body", "Orders", `null`, route.Fail(MsgInvalidBody)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := route.NewRequest(map[string]string{"action": "append", "table": tt.table})
			req.Body = tt.body
			resp, err := rt.Dispatch(context.Background(), route.VerbPost, req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp)
		})
	}

	values, err := mem.FetchValues(context.Background(), grid.Handle{ID: 42})
	require.NoError(t, err)
	assert.Len(t, values, 4, "nothing was written")
}

func TestAppend_StrictRejectsUnknownKeys(t *testing.T) {
	rt, _ := newTestRouter(t, grid.WithStrict())

	req := route.NewRequest(map[string]string{"action": "append", "table": "Orders"})
	req.Body = `{"id": 9, "colour": "red"}`

	_, err := rt.Dispatch(context.Background(), route.VerbPost, req)
	assert.ErrorIs(t, err, grid.ErrUnknownColumn)
}

func TestNotFound_EchoesRequest(t *testing.T) {
	rt, _ := newTestRouter(t)

	resp := get(t, rt, map[string]string{"action": "ghost", "table": "Orders"})
	assertGolden(t, "not_found", resp)

	post, err := rt.Dispatch(context.Background(), route.VerbPost,
		route.NewRequest(map[string]string{"action": "list"}))
	require.NoError(t, err)
	assert.Equal(t, route.MsgActionNotFound, post.Message)
	require.NotNil(t, post.Request)
	assert.Equal(t, "list", post.Request.Action())
}
