package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/starshield/warranty/internal/api/middleware"
	"github.com/starshield/warranty/internal/audit"
)

func TestClientInfo(t *testing.T) {
	var got audit.Client
	handler := middleware.RequestID(middleware.ClientInfo(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = audit.ClientFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodPost, "/claims", http.NoBody)
	req.RemoteAddr = "203.0.113.7:54321"
	req.Header.Set("User-Agent", "starshield-web/1.0")
	req.Header.Set("X-Request-Id", "req-abc")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "203.0.113.7", got.IPAddress)
	assert.Equal(t, "starshield-web/1.0", got.UserAgent)
	assert.Equal(t, "req-abc", got.RequestID)
	assert.Empty(t, got.ActorID)
}
