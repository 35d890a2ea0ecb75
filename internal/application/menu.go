// Package application holds the menu model and the on-open lifecycle that
// runs once when the service starts.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// DefaultMenuName is used when RunOnOpen is given a blank name.
const DefaultMenuName = "Start App"

/* ----------------------------------------
	MENU MODEL
---------------------------------------- */

// MenuItem is one entry of the custom menu. Action names the route a client
// should invoke when the item is chosen.
type MenuItem struct {
	Caption string `json:"caption"`
	Action  string `json:"action"`
}

// Menu is the built menu. Visible is false when no items were registered,
// in which case clients should not show it at all.
type Menu struct {
	Title   string     `json:"title"`
	Items   []MenuItem `json:"items"`
	Visible bool       `json:"visible"`
}

// OnOpenHook runs once during RunOnOpen.
type OnOpenHook func(ctx context.Context) error

/* ----------------------------------------
	BOOTSTRAP
---------------------------------------- */

// Bootstrap collects menu items and on-open hooks during startup.
type Bootstrap struct {
	mu    sync.Mutex
	items []MenuItem
	hooks []namedHook
	menu  *Menu
}

type namedHook struct {
	name string
	fn   OnOpenHook
}

// New returns an empty Bootstrap.
func New() *Bootstrap {
	return &Bootstrap{}
}

// RegisterMenuItem appends an item to the menu.
func (b *Bootstrap) RegisterMenuItem(caption, action string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, MenuItem{Caption: caption, Action: action})
}

// RegisterOnOpen appends a hook. name only shows up in logs.
func (b *Bootstrap) RegisterOnOpen(name string, hook OnOpenHook) {
	if hook == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks = append(b.hooks, namedHook{name: name, fn: hook})
}

// RunOnOpen builds the menu, then runs every hook in registration order.
// A failing or panicking hook is logged and the rest still run.
func (b *Bootstrap) RunOnOpen(ctx context.Context, menuName string) Menu {
	if menuName == "" {
		menuName = DefaultMenuName
	}

	b.mu.Lock()
	menu := Menu{
		Title:   menuName,
		Items:   append([]MenuItem{}, b.items...),
		Visible: len(b.items) > 0,
	}
	b.menu = &menu
	hooks := append([]namedHook(nil), b.hooks...)
	b.mu.Unlock()

	failed := 0
	for i, h := range hooks {
		if err := runHook(ctx, h.fn); err != nil {
			failed++
			slog.Error("error in onOpen hook", "hook", h.name, "position", i, "error", err)
		}
	}

	slog.Info("onOpen complete",
		"menu", menu.Title,
		"items", len(menu.Items),
		"visible", menu.Visible,
		"hooks", len(hooks),
		"failed", failed,
	)
	return menu
}

func runHook(ctx context.Context, hook OnOpenHook) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return hook(ctx)
}

// Menu returns the menu built by the last RunOnOpen, and false before it
// has run.
func (b *Bootstrap) Menu() (Menu, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.menu == nil {
		return Menu{}, false
	}
	m := *b.menu
	m.Items = append([]MenuItem{}, m.Items...)
	return m, true
}
