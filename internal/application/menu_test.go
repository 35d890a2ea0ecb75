package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOnOpen_BuildsMenu(t *testing.T) {
	b := New()
	b.RegisterMenuItem("List orders", "list")
	b.RegisterMenuItem("Append order", "append")

	menu := b.RunOnOpen(context.Background(), "")
	assert.Equal(t, Menu{
		Title: DefaultMenuName,
		Items: []MenuItem{
			{Caption: "List orders", Action: "list"},
			{Caption: "Append order", Action: "append"},
		},
		Visible: true,
	}, menu)
}

func TestRunOnOpen_EmptyMenuIsHidden(t *testing.T) {
	b := New()
	menu := b.RunOnOpen(context.Background(), "Tools")
	assert.Equal(t, "Tools", menu.Title)
	assert.False(t, menu.Visible)
	assert.Empty(t, menu.Items)
}

func TestRunOnOpen_HooksAreIsolated(t *testing.T) {
	b := New()
	var order []string

	b.RegisterOnOpen("first", func(ctx context.Context) error {
		order = append(order, "first")
		return errors.New("seed failed")
	})
	b.RegisterOnOpen("second", func(ctx context.Context) error {
		order = append(order, "second")
		panic("boom")
	})
	b.RegisterOnOpen("third", func(ctx context.Context) error {
		order = append(order, "third")
		return nil
	})
	b.RegisterOnOpen("nil", nil)

	b.RunOnOpen(context.Background(), "Start App")
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestRunOnOpen_HooksSeeContext(t *testing.T) {
	type key struct{}
	b := New()

	var got any
	b.RegisterOnOpen("ctx", func(ctx context.Context) error {
		got = ctx.Value(key{})
		return nil
	})

	b.RunOnOpen(context.WithValue(context.Background(), key{}, "v"), "")
	assert.Equal(t, "v", got)
}

func TestMenu_BeforeAndAfterOpen(t *testing.T) {
	b := New()
	_, ok := b.Menu()
	assert.False(t, ok)

	b.RegisterMenuItem("Header", "header")
	b.RunOnOpen(context.Background(), "Start App")

	menu, ok := b.Menu()
	require.True(t, ok)
	assert.True(t, menu.Visible)

	// Items registered after opening do not change the built menu.
	b.RegisterMenuItem("Late", "late")
	menu, _ = b.Menu()
	assert.Len(t, menu.Items, 1)
}

func TestRunHook_RecoversPanic(t *testing.T) {
	err := runHook(context.Background(), func(context.Context) error { panic("bad") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic: bad")
}
