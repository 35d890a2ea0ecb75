// Package actions holds the built-in route handlers. Read actions work on the
// grid the router resolved; write actions look their grid up themselves.
package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JonMunkholm/gridroute/internal/grid"
	"github.com/JonMunkholm/gridroute/internal/logging"
	"github.com/JonMunkholm/gridroute/internal/route"
)

// Built-in action names.
const (
	ActionList   = "list"
	ActionHeader = "header"
	ActionFind   = "find"
	ActionSelect = "select"
	ActionAppend = "append"
)

// Messages returned in error responses.
const (
	MsgTableNotFound = "Table not found"
	MsgMissingColumn = "Missing column parameter"
	MsgMissingValue  = "Missing value parameter"
	MsgInvalidBody   = "Request body must be a JSON object"
)

// Actions serves the built-in handlers against one resolver.
type Actions struct {
	resolver *route.Resolver
}

// New returns handlers that read and write through resolver.
func New(resolver *route.Resolver) *Actions {
	return &Actions{resolver: resolver}
}

// sheet loads the resolved grid. A nil sheet with a nil error means the
// request named no grid that exists.
func (a *Actions) sheet(ctx context.Context, ref *grid.Ref) (*grid.Sheet, error) {
	if ref == nil {
		return nil, nil
	}
	return a.resolver.Read(ctx, ref)
}

// List returns every record of the grid.
func (a *Actions) List(ctx context.Context, req *route.Request, ref *grid.Ref) (route.Response, error) {
	s, err := a.sheet(ctx, ref)
	if err != nil || s == nil {
		return tableNotFound(err)
	}
	return route.OK(s.All()), nil
}

// Header returns the grid's column labels.
func (a *Actions) Header(ctx context.Context, req *route.Request, ref *grid.Ref) (route.Response, error) {
	s, err := a.sheet(ctx, ref)
	if err != nil || s == nil {
		return tableNotFound(err)
	}
	return route.OK(s.Header()), nil
}

// Find returns the records whose column cell loosely equals value. An empty
// value must be sent explicitly; it matches blank and zero cells.
func (a *Actions) Find(ctx context.Context, req *route.Request, ref *grid.Ref) (route.Response, error) {
	column := req.Param("column")
	if column == "" {
		return route.Fail(MsgMissingColumn), nil
	}
	value, ok := req.LookupParam("value")
	if !ok {
		return route.Fail(MsgMissingValue), nil
	}

	s, err := a.sheet(ctx, ref)
	if err != nil || s == nil {
		return tableNotFound(err)
	}
	if s.Strict() {
		if err := s.Validate(column); err != nil {
			return route.Response{}, err
		}
	}
	return route.OK(s.ByColumn(column, value)), nil
}

// Select projects every record onto the comma-separated columns parameter.
func (a *Actions) Select(ctx context.Context, req *route.Request, ref *grid.Ref) (route.Response, error) {
	columns := splitList(req.Param("columns"))

	s, err := a.sheet(ctx, ref)
	if err != nil || s == nil {
		return tableNotFound(err)
	}
	if s.Strict() {
		if err := s.Validate(columns...); err != nil {
			return route.Response{}, err
		}
	}
	return route.OK(s.Filter(columns)), nil
}

// Append decodes the body as one record and appends it to the grid named by
// the table parameter. The response echoes the row as written.
func (a *Actions) Append(ctx context.Context, req *route.Request) (route.Response, error) {
	table := req.Param(route.TableParam)
	ref, err := a.resolver.ByName(ctx, table)
	if err != nil {
		return route.Response{}, err
	}
	if ref == nil {
		return route.Fail(MsgTableNotFound), nil
	}

	record, ok := decodeRecord(req.Body)
	if !ok {
		return route.Fail(MsgInvalidBody), nil
	}

	s, err := a.resolver.Read(ctx, ref)
	if err != nil {
		return route.Response{}, err
	}

	written, err := s.Append(ctx, record)
	if err != nil {
		return route.Response{}, err
	}

	logging.WithFields(ctx, "table", ref.Name, "grid_id", ref.ID).Info("row appended")
	return route.OK(written), nil
}

// NotFound is the default handler for both verbs. It echoes the request so
// callers can see what the router received.
func NotFound(ctx context.Context, req *route.Request) (route.Response, error) {
	resp := route.NotFound()
	resp.Request = req
	return resp, nil
}

func tableNotFound(err error) (route.Response, error) {
	if err != nil {
		return route.Response{}, err
	}
	return route.Fail(MsgTableNotFound), nil
}

func decodeRecord(body string) (grid.Record, bool) {
	if strings.TrimSpace(body) == "" {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	var record grid.Record
	if err := dec.Decode(&record); err != nil || record == nil {
		return nil, false
	}
	for k, v := range record {
		if n, ok := v.(json.Number); ok {
			record[k] = numberValue(n)
		}
	}
	return record, true
}

func numberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Register installs the built-in actions and the NotFound defaults.
func Register(rt *route.Router, a *Actions) error {
	gets := []struct {
		action string
		h      route.GetHandler
	}{
		{ActionList, a.List},
		{ActionHeader, a.Header},
		{ActionFind, a.Find},
		{ActionSelect, a.Select},
	}
	for _, g := range gets {
		if err := rt.RegisterGet(g.action, g.h, route.Options{}); err != nil {
			return fmt.Errorf("register %s: %w", g.action, err)
		}
	}

	if err := rt.RegisterPost(ActionAppend, a.Append); err != nil {
		return fmt.Errorf("register %s: %w", ActionAppend, err)
	}
	if err := rt.RegisterDefaultGet(NotFound); err != nil {
		return err
	}
	return rt.RegisterDefaultPost(NotFound)
}

// getHandler returns the built-in read handler with this name.
func (a *Actions) getHandler(name string) (route.GetHandler, bool) {
	switch name {
	case ActionList:
		return a.List, true
	case ActionHeader:
		return a.Header, true
	case ActionFind:
		return a.Find, true
	case ActionSelect:
		return a.Select, true
	}
	return nil, false
}
