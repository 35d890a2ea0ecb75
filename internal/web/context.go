package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/gridroute/internal/logging"
)

// withRequestMetadata adds the client IP and User-Agent to the request
// context so action logs record who changed a grid.
func withRequestMetadata(r *http.Request) context.Context {
	ip := r.RemoteAddr // Already rewritten by TrustedRealIP
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return logging.ContextWithClient(r.Context(), ip, r.Header.Get("User-Agent"))
}
