package web

// errors.go turns dispatch failures into JSON error responses.
//
// The flow:
//  1. A handler or the store fails and Dispatch returns an error
//  2. handleExec calls respondError(w, r, err)
//  3. The error is mapped via MapError to a status, message and code
//  4. The technical error is logged with the request id for correlation
//  5. The client gets the mapped message, never the raw error text

import (
	"net/http"

	"github.com/JonMunkholm/gridroute/internal/logging"
	"github.com/JonMunkholm/gridroute/internal/route"
)

// ErrorResponse is the body of every error reply from /exec. Status is
// always "error" so clients can branch on the same field as for handler
// responses.
type ErrorResponse struct {
	Status  route.Status `json:"status"`
	Message string       `json:"message"`
	Action  string       `json:"action,omitempty"`
	Code    string       `json:"code"`
}

// respondError logs err and writes its mapped form.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", msg.Status,
		"code", msg.Code,
		"error", err.Error(),
	}
	if msg.Status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	writeJSON(w, msg.Status, ErrorResponse{
		Status:  route.StatusError,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
