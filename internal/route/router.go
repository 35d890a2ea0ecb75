// Package route dispatches inbound requests to action handlers.
//
// A [Router] keeps two independent route tables, one per [Verb]. Read
// routes get their grid resolved by a [Resolver] before the handler runs;
// write routes are handed the bare request and manage their own grid access.
//
// # Lookup order
//
//  1. Exact match on the request's "action" parameter in the verb's table.
//  2. The verb's default handler, if registered.
//  3. A "not found" [Response]. This fallback never returns an error.
//
// # Registration
//
// Routes are registered once at startup. The first call to
// [Router.Dispatch] seals the router; registering afterwards fails with
// [ErrSealed].
//
//	rt := route.NewRouter(route.NewResolver(provider))
//	rt.RegisterGet("list", listHandler, route.Options{TargetID: 42})
//	rt.RegisterPost("append", appendHandler)
//	rt.RegisterDefaultGet(actions.NotFound)
package route

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JonMunkholm/gridroute/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrDuplicateRoute = errors.New("route already registered")
	ErrSealed         = errors.New("router is sealed")
	ErrEmptyAction    = errors.New("action name is empty")
	ErrNilHandler     = errors.New("handler is nil")
	ErrUnknownVerb    = errors.New("unknown verb")
)

const tracerName = "github.com/JonMunkholm/gridroute/internal/route"

// Dispatch outcomes, used for metrics and span attributes.
const (
	outcomeRouted   = "routed"
	outcomeDefault  = "default"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

// Router maps action names to handlers for each verb.
type Router struct {
	resolver *Resolver
	metrics  *Metrics
	tracer   trace.Tracer

	mu          sync.RWMutex
	get         map[string]Entry
	post        map[string]Entry
	defaultGet  Handler
	defaultPost Handler

	sealed atomic.Bool
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithMetrics records dispatch counts and latency in m.
func WithMetrics(m *Metrics) RouterOption {
	return func(rt *Router) {
		rt.metrics = m
	}
}

// WithTracer overrides the tracer taken from the global otel provider.
func WithTracer(t trace.Tracer) RouterOption {
	return func(rt *Router) {
		rt.tracer = t
	}
}

// NewRouter creates an empty Router resolving read contexts with resolver.
func NewRouter(resolver *Resolver, opts ...RouterOption) *Router {
	rt := &Router{
		resolver: resolver,
		get:      make(map[string]Entry),
		post:     make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.tracer == nil {
		rt.tracer = otel.Tracer(tracerName)
	}
	return rt
}

// Resolver returns the resolver used for read routes.
func (rt *Router) Resolver() *Resolver {
	return rt.resolver
}

// RegisterGet adds a read route.
func (rt *Router) RegisterGet(action string, h GetHandler, opts Options) error {
	if h == nil {
		return fmt.Errorf("register GET %q: %w", action, ErrNilHandler)
	}
	return rt.register(Entry{Action: action, Verb: VerbGet, Get: h, Options: opts})
}

// RegisterPost adds a write route.
func (rt *Router) RegisterPost(action string, h Handler) error {
	if h == nil {
		return fmt.Errorf("register POST %q: %w", action, ErrNilHandler)
	}
	return rt.register(Entry{Action: action, Verb: VerbPost, Post: h})
}

func (rt *Router) register(e Entry) error {
	if e.Action == "" {
		return fmt.Errorf("register %s: %w", e.Verb, ErrEmptyAction)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.sealed.Load() {
		return fmt.Errorf("register %s %q: %w", e.Verb, e.Action, ErrSealed)
	}

	table := rt.get
	if e.Verb == VerbPost {
		table = rt.post
	}
	if _, exists := table[e.Action]; exists {
		return fmt.Errorf("register %s %q: %w", e.Verb, e.Action, ErrDuplicateRoute)
	}
	table[e.Action] = e
	return nil
}

// RegisterDefaultGet sets the handler for read requests with no matching
// route. A later call replaces the earlier handler.
func (rt *Router) RegisterDefaultGet(h Handler) error {
	return rt.setDefault(VerbGet, h)
}

// RegisterDefaultPost sets the handler for write requests with no matching
// route. A later call replaces the earlier handler.
func (rt *Router) RegisterDefaultPost(h Handler) error {
	return rt.setDefault(VerbPost, h)
}

func (rt *Router) setDefault(verb Verb, h Handler) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.sealed.Load() {
		return fmt.Errorf("register default %s: %w", verb, ErrSealed)
	}
	if verb == VerbPost {
		rt.defaultPost = h
	} else {
		rt.defaultGet = h
	}
	return nil
}

// Actions returns the registered action names for verb, sorted.
func (rt *Router) Actions(verb Verb) []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	table := rt.get
	if verb == VerbPost {
		table = rt.post
	}

	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entry returns the route registered for (verb, action).
func (rt *Router) Entry(verb Verb, action string) (Entry, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	if verb == VerbPost {
		e, ok := rt.post[action]
		return e, ok
	}
	e, ok := rt.get[action]
	return e, ok
}

// Dispatch routes req to the handler registered for its action.
//
// Handler and provider failures are returned as errors. A request nobody
// handles yields NotFound() with a nil error.
func (rt *Router) Dispatch(ctx context.Context, verb Verb, req *Request) (resp Response, err error) {
	rt.sealed.Store(true)

	if verb != VerbGet && verb != VerbPost {
		return Response{}, fmt.Errorf("%w: %s", ErrUnknownVerb, verb)
	}
	if req == nil {
		req = NewRequest(nil)
	}

	action := req.Action()
	start := time.Now()

	ctx, span := rt.tracer.Start(ctx, "route.dispatch",
		trace.WithAttributes(
			attribute.String("route.verb", string(verb)),
			attribute.String("route.action", action),
		),
	)
	defer span.End()

	outcome, label := outcomeRouted, action
	defer func() {
		if err != nil {
			outcome = outcomeError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.String("route.outcome", outcome))
		rt.metrics.observe(verb, label, outcome, time.Since(start))
	}()

	logger := logging.WithFields(ctx, "verb", verb, "action", action)

	rt.mu.RLock()
	table, fallback := rt.get, rt.defaultGet
	if verb == VerbPost {
		table, fallback = rt.post, rt.defaultPost
	}
	entry, found := table[action]
	rt.mu.RUnlock()

	switch {
	case found && verb == VerbGet:
		ref, rerr := rt.resolver.Resolve(ctx, req.Params, entry.Options)
		if rerr != nil {
			return Response{}, fmt.Errorf("action %s: %w", action, rerr)
		}
		span.SetAttributes(attribute.Bool("route.grid_found", ref != nil))
		if ref == nil {
			logger.Debug("no grid resolved for read route")
		}
		resp, err = entry.Get(ctx, req, ref)

	case found:
		resp, err = entry.Post(ctx, req)

	case fallback != nil:
		outcome, label = outcomeDefault, "default"
		resp, err = fallback(ctx, req)

	default:
		outcome, label = outcomeNotFound, "unmatched"
		logger.Debug("action not found")
		return NotFound(), nil
	}

	if err != nil {
		return Response{}, fmt.Errorf("action %s: %w", action, err)
	}
	return resp, nil
}
