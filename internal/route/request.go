package route

import (
	"context"

	"github.com/JonMunkholm/gridroute/internal/grid"
)

// Verb is the request class a route is registered under.
type Verb string

const (
	VerbGet  Verb = "GET"  // read routes, context is resolved before the handler runs
	VerbPost Verb = "POST" // write routes, handlers do their own grid access
)

// Request is the transport-neutral form of an inbound request.
type Request struct {
	// Params holds the first value of every query/form parameter.
	Params map[string]string `json:"parameter"`

	// Multi holds every value of every parameter.
	Multi map[string][]string `json:"parameters,omitempty"`

	// Body is the raw request body, if any.
	Body string `json:"postData,omitempty"`

	// ContentType is the body's media type.
	ContentType string `json:"contentType,omitempty"`
}

// NewRequest builds a Request from single-valued parameters.
func NewRequest(params map[string]string) *Request {
	if params == nil {
		params = map[string]string{}
	}
	return &Request{Params: params}
}

// Param returns the named parameter, or "" when absent.
func (r *Request) Param(name string) string {
	if r == nil || r.Params == nil {
		return ""
	}
	return r.Params[name]
}

// LookupParam returns the named parameter and whether it was sent at all.
func (r *Request) LookupParam(name string) (string, bool) {
	if r == nil || r.Params == nil {
		return "", false
	}
	v, ok := r.Params[name]
	return v, ok
}

// Action returns the "action" parameter used for route lookup.
func (r *Request) Action() string {
	return r.Param("action")
}

// Status is the outcome marker carried in every response body.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// MsgActionNotFound is the terminal fallback message.
const MsgActionNotFound = "Action not found"

// Response is the serializable result of a handler. Status and message are
// always present in the encoded form; message is empty on success.
type Response struct {
	Status  Status   `json:"status"`
	Message string   `json:"message"`
	Data    any      `json:"data,omitempty"`
	Request *Request `json:"request,omitempty"`
}

// OK wraps data in a successful response.
func OK(data any) Response {
	return Response{Status: StatusOK, Data: data}
}

// Fail builds an error response with a human-readable message.
func Fail(message string) Response {
	return Response{Status: StatusError, Message: message}
}

// NotFound is the response produced when no route and no default handler
// match an action.
func NotFound() Response {
	return Fail(MsgActionNotFound)
}

// Handler serves write routes and the default routes of both verbs.
type Handler func(ctx context.Context, req *Request) (Response, error)

// GetHandler serves read routes. ref is nil when no grid was found.
type GetHandler func(ctx context.Context, req *Request, ref *grid.Ref) (Response, error)

// Options configures context resolution for a read route.
type Options struct {
	// TargetID pins the route to the grid with this id. Compared with
	// grid.LooseEqual, so 42 and "42" are the same target.
	TargetID any `json:"targetId,omitempty" yaml:"target_id"`

	// LoadTableData preloads the grid into Ref.Table before the handler runs.
	LoadTableData bool `json:"loadTableData,omitempty" yaml:"load_table_data"`
}

// Entry binds an action name to its handler and options.
type Entry struct {
	Action  string
	Verb    Verb
	Get     GetHandler
	Post    Handler
	Options Options
}
