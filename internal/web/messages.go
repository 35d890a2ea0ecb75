package web

// messages.go maps internal errors to client-facing messages with codes
// for support reference.
//
// # Error Codes Reference
//
// Sentinel errors are matched first with errors.Is, then the error text is
// matched case-insensitively against a pattern table. The first match wins.
//
// # Grid Errors (GRID001-GRID099)
//
//	GRID001 - Unknown column: A column is not in the grid header (strict mode)
//	          Action: Check the column names against the header action
//	          Status: 400
//
//	GRID002 - Ragged row: A row length does not match the header (strict mode)
//	          Action: Fix the grid so every row has one cell per column
//	          Status: 422
//
//	GRID003 - Grid missing: The grid disappeared from the store mid-request
//	          Action: Reload the grid list and try again
//	          Status: 404
//
// # Routing Errors (ROUTE001-ROUTE099)
//
//	ROUTE001 - Unsupported verb
//	           Status: 405
//
// # Store Errors (STORE001-STORE099)
//
//	STORE001 - Connection refused: Unable to reach the grid store
//	STORE002 - Connection reset: Store connection was interrupted
//	STORE003 - Locked: The store is busy with another writer
//	STORE004 - Timeout: The store did not answer in time
//	           Status: 503 for all of the above
//
// # Capacity (BUSY001, RATE001)
//
//	BUSY001 - Dispatch slots exhausted, Status: 503
//	RATE001 - Rate limited, Status: 429
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled by the client, Status: 499
//	REQ002 - Request timed out, Status: 504
//	REQ003 - Body too large, Status: 413
//	REQ004 - Unauthorized, Status: 401
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error, Status: 500. Check logs for the request id.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/gridroute/internal/grid"
	"github.com/JonMunkholm/gridroute/internal/route"
)

// StatusClientClosedRequest is nginx's code for a client that went away.
const StatusClientClosedRequest = 499

// UserMessage is the client-facing form of an error.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
	Status  int    // HTTP status
}

type sentinelMessage struct {
	target error
	msg    UserMessage
}

var sentinelMessages = []sentinelMessage{
	{grid.ErrUnknownColumn, UserMessage{
		Message: "Column not found in grid header",
		Action:  "Check the column names against the header action",
		Code:    "GRID001",
		Status:  http.StatusBadRequest,
	}},
	{grid.ErrRaggedRow, UserMessage{
		Message: "Grid has rows that do not match its header",
		Action:  "Fix the grid so every row has one cell per column",
		Code:    "GRID002",
		Status:  http.StatusUnprocessableEntity,
	}},
	{grid.ErrGridNotFound, UserMessage{
		Message: "Grid no longer exists",
		Action:  "Reload the grid list and try again",
		Code:    "GRID003",
		Status:  http.StatusNotFound,
	}},
	{route.ErrUnknownVerb, UserMessage{
		Message: "Unsupported request method",
		Action:  "Use GET or POST",
		Code:    "ROUTE001",
		Status:  http.StatusMethodNotAllowed,
	}},
	{route.ErrBusy, UserMessage{
		Message: "Server is busy with other requests",
		Action:  "Please wait a moment and try again",
		Code:    "BUSY001",
		Status:  http.StatusServiceUnavailable,
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
		Status:  StatusClientClosedRequest,
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Try again later",
		Code:    "REQ002",
		Status:  http.StatusGatewayTimeout,
	}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is matched with strings.Contains on the lowercased error.
// Specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{"connection refused", UserMessage{
		Message: "Unable to reach the grid store",
		Action:  "Please try again in a few moments",
		Code:    "STORE001",
		Status:  http.StatusServiceUnavailable,
	}},
	{"connection reset", UserMessage{
		Message: "Store connection was interrupted",
		Action:  "Please try again",
		Code:    "STORE002",
		Status:  http.StatusServiceUnavailable,
	}},
	{"database is locked", UserMessage{
		Message: "The store is busy with another writer",
		Action:  "Please try again",
		Code:    "STORE003",
		Status:  http.StatusServiceUnavailable,
	}},
	{"timeout", UserMessage{
		Message: "The store did not answer in time",
		Action:  "Try again later",
		Code:    "STORE004",
		Status:  http.StatusServiceUnavailable,
	}},
	{"request body too large", UserMessage{
		Message: "Request body is too large",
		Action:  "Send a smaller body",
		Code:    "REQ003",
		Status:  http.StatusRequestEntityTooLarge,
	}},
	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
		Status:  http.StatusTooManyRequests,
	}},
	{"api key", UserMessage{
		Message: "Missing or invalid API key",
		Action:  "Send a valid X-API-Key header",
		Code:    "REQ004",
		Status:  http.StatusUnauthorized,
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
	Status:  http.StatusInternalServerError,
}

// MapError converts err to a UserMessage. nil maps to the zero value.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.target) {
			return s.msg
		}
	}

	lower := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(lower, p.pattern) {
			return p.msg
		}
	}

	return defaultMessage
}
