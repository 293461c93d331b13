package middleware

import (
	"net"
	"net/http"

	"github.com/starshield/warranty/internal/audit"
)

// ClientInfo attaches the caller's address, user agent and request ID to the
// request context so audit entries can be attributed. It must run after
// RequestID and chi's RealIP.
func ClientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.WithClient(r.Context(), audit.Client{
			IPAddress: clientIP(r.RemoteAddr),
			UserAgent: r.UserAgent(),
			RequestID: GetRequestID(r.Context()),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
