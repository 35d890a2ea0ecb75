package actions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/gridroute/internal/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `
routes:
  - action: orders
    handler: list
    target_id: 42
    load_table_data: true
  - action: bolts
    handler: find
    target_id: "42"
`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest))
	require.NoError(t, err)
	require.Len(t, m.Routes, 2)

	assert.Equal(t, "orders", m.Routes[0].Action)
	assert.Equal(t, ActionList, m.Routes[0].Handler)
	assert.Equal(t, 42, m.Routes[0].TargetID)
	assert.True(t, m.Routes[0].LoadTableData)
	assert.Equal(t, "42", m.Routes[1].TargetID)
	assert.False(t, m.Routes[1].LoadTableData)
}

func TestParseManifest_Empty(t *testing.T) {
	m, err := ParseManifest(nil)
	require.NoError(t, err)
	assert.Empty(t, m.Routes)
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown handler", "routes:\n  - action: x\n    handler: delete\n", `unknown handler "delete"`},
		{"missing action", "routes:\n  - handler: list\n", "action is required"},
		{"duplicate", "routes:\n  - {action: x, handler: list}\n  - {action: x, handler: header}\n", `duplicate action "x"`},
		{"unknown key", "routes:\n  - {action: x, handler: list, sheet_id: 3}\n", "sheet_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestManifest_Apply(t *testing.T) {
	rt, _ := newTestRouter(t)
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleManifest), 0o600))

	m, err := LoadManifest(path)
	require.NoError(t, err)

	require.NoError(t, m.Apply(rt, New(rt.Resolver())))

	entry, ok := rt.Entry(route.VerbGet, "orders")
	require.True(t, ok)
	assert.True(t, entry.Options.LoadTableData)

	// The pinned grid wins over the table parameter.
	resp := get(t, rt, map[string]string{"action": "orders", "table": "Empty"})
	require.Equal(t, route.StatusOK, resp.Status)
	assert.Len(t, resp.Data, 3)

	resp = get(t, rt, map[string]string{"action": "bolts", "column": "item", "value": "bolt"})
	assert.Len(t, resp.Data, 2)
}

func TestManifest_BlankTargetIDUsesTableParam(t *testing.T) {
	rt, _ := newTestRouter(t)
	m, err := ParseManifest([]byte("routes:\n  - {action: rows, handler: list, target_id: \"\"}\n"))
	require.NoError(t, err)
	require.NoError(t, m.Apply(rt, New(rt.Resolver())))

	resp := get(t, rt, map[string]string{"action": "rows", "table": "Empty"})
	require.Equal(t, route.StatusOK, resp.Status)
	assert.Empty(t, resp.Data)
}

func TestManifest_ApplyRejectsBuiltinNames(t *testing.T) {
	rt, _ := newTestRouter(t)
	m, err := ParseManifest([]byte("routes:\n  - {action: list, handler: header}\n"))
	require.NoError(t, err)

	err = m.Apply(rt, New(rt.Resolver()))
	assert.ErrorIs(t, err, route.ErrDuplicateRoute)
}

func TestLoadManifest_MissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
