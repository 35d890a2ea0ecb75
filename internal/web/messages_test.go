package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/JonMunkholm/gridroute/internal/grid"
	"github.com/JonMunkholm/gridroute/internal/route"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"nil error returns empty", nil, "", 0},
		{"wrapped unknown column", fmt.Errorf("action find: %w", grid.ErrUnknownColumn), "GRID001", http.StatusBadRequest},
		{"ragged row", fmt.Errorf("read grid %q: %w", "T", grid.ErrRaggedRow), "GRID002", http.StatusUnprocessableEntity},
		{"grid vanished", fmt.Errorf("%w: id 4", grid.ErrGridNotFound), "GRID003", http.StatusNotFound},
		{"busy", route.ErrBusy, "BUSY001", http.StatusServiceUnavailable},
		{"unknown verb", fmt.Errorf("%w: PATCH", route.ErrUnknownVerb), "ROUTE001", http.StatusMethodNotAllowed},
		{"deadline beats timeout pattern", fmt.Errorf("timeout: %w", context.DeadlineExceeded), "REQ002", http.StatusGatewayTimeout},
		{"cancelled", context.Canceled, "REQ001", StatusClientClosedRequest},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: Connection Refused"), "STORE001", http.StatusServiceUnavailable},
		{"sqlite locked", errors.New("database is locked"), "STORE003", http.StatusServiceUnavailable},
		{"body too large", errors.New("http: request body too large"), "REQ003", http.StatusRequestEntityTooLarge},
		{"unknown error", errors.New("something odd"), "ERR000", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("MapError() status = %d, want %d", got.Status, tt.wantStatus)
			}
			if tt.err != nil && got.Message == "" {
				t.Error("MapError() message is empty")
			}
		})
	}
}
