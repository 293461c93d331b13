package middleware

import (
	"net/http"
	"strings"

	"github.com/starshield/warranty/internal/api/models"
)

// securityHeaders are set on every response. Bodies carry owner CPF/CNPJ and
// contact details, so nothing may be cached.
var securityHeaders = [][2]string{
	{"Cache-Control", "no-store"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Permissions-Policy", "camera=(), geolocation=(), microphone=()"},
	{"Referrer-Policy", "no-referrer"},
	{"Strict-Transport-Security", "max-age=31536000; includeSubDomains"},
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
}

// SecurityHeaders sets the response hardening headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range securityHeaders {
			h.Set(kv[0], kv[1])
		}
		next.ServeHTTP(w, r)
	})
}

// RequireTLS rejects plain HTTP requests with 403 when enabled. A request is
// plain when it arrived without TLS and the proxy's X-Forwarded-Proto says
// http. Probes under /ops are exempt so load balancers can check over HTTP.
func RequireTLS(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if plainHTTP(r) && !strings.HasPrefix(r.URL.Path, "/ops/") {
				models.NewProblem(models.ProblemTypeTLSRequired, "TLS required", http.StatusForbidden, GetRequestID(r.Context())).
					WithDetail("Use https to reach this endpoint").
					WithInstance(r.URL.Path).
					Write(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func plainHTTP(r *http.Request) bool {
	if r.TLS != nil {
		return false
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "http")
}
