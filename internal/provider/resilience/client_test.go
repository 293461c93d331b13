package resilience_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starshield/warranty/internal/provider/resilience"
)

// upstream answers with statuses in order, repeating the last one.
func upstream(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(calls.Add(1)) - 1
		w.WriteHeader(statuses[min(n, len(statuses)-1)])
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func fastConfig(name string) resilience.ClientConfig {
	cfg := resilience.DefaultClientConfig(name)
	cfg.Timeout = 2 * time.Second
	cfg.InitialInterval = time.Millisecond
	cfg.MaxInterval = 5 * time.Millisecond
	return cfg
}

func post(t *testing.T, client *resilience.Client, url, body string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	return client.Do(req)
}

func TestClient_Do_Retries(t *testing.T) {
	tests := []struct {
		name       string
		statuses   []int
		wantStatus int
		wantCalls  int32
	}{
		{"accepted first time", []int{http.StatusOK}, http.StatusOK, 1},
		{"recovers after 5xx", []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusOK}, http.StatusOK, 3},
		{"recovers after throttling", []int{http.StatusTooManyRequests, http.StatusOK}, http.StatusOK, 2},
		{"client error not retried", []int{http.StatusUnprocessableEntity}, http.StatusUnprocessableEntity, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, calls := upstream(t, tt.statuses...)
			client := resilience.NewClient(fastConfig("resend"))

			resp, err := post(t, client, server.URL, `{}`)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestClient_Do_ReturnsLastResponseWhenRetriesRunOut(t *testing.T) {
	server, calls := upstream(t, http.StatusBadGateway)
	cfg := fastConfig("resend")
	cfg.MaxRetries = 2
	cfg.Breaker.ReadyToTrip = func(gobreaker.Counts) bool { return false }
	client := resilience.NewClient(cfg)

	resp, err := post(t, client, server.URL, `{}`)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Do_ReplaysBody(t *testing.T) {
	var bodies []string
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(data))
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := resilience.NewClient(fastConfig("resend"))
	resp, err := post(t, client, server.URL, `{"subject":"Warranty activated"}`)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, []string{`{"subject":"Warranty activated"}`, `{"subject":"Warranty activated"}`}, bodies)
}

func TestClient_Do_BreakerOpens(t *testing.T) {
	server, calls := upstream(t, http.StatusInternalServerError)
	cfg := fastConfig("resend")
	cfg.MaxRetries = 5
	client := resilience.NewClient(cfg)

	resp, err := post(t, client, server.URL, `{}`)
	require.NoError(t, err)
	resp.Body.Close()

	// ShouldTrip opens after three consecutive failures.
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, gobreaker.StateOpen, client.State())

	_, err = post(t, client, server.URL, `{}`)
	require.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Do_ThrottlingDoesNotTrip(t *testing.T) {
	server, _ := upstream(t, http.StatusTooManyRequests)
	cfg := fastConfig("resend")
	cfg.MaxRetries = 4
	client := resilience.NewClient(cfg)

	resp, err := post(t, client, server.URL, `{}`)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, client.State())
}

func TestClient_Do_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := fastConfig("resend")
	cfg.Timeout = 20 * time.Millisecond
	cfg.MaxRetries = 1
	client := resilience.NewClient(cfg)

	_, err := post(t, client, server.URL, `{}`)
	assert.Error(t, err)
}

func TestClient_Do_ContextCancelled(t *testing.T) {
	server, _ := upstream(t, http.StatusOK)
	client := resilience.NewClient(fastConfig("resend"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server.URL, http.NoBody)
	require.NoError(t, err)

	_, err = client.Do(req)
	assert.Error(t, err)
}

func TestShouldTrip(t *testing.T) {
	tests := []struct {
		name   string
		counts gobreaker.Counts
		want   bool
	}{
		{"no traffic", gobreaker.Counts{}, false},
		{"two in a row", gobreaker.Counts{Requests: 2, TotalFailures: 2, ConsecutiveFailures: 2}, false},
		{"three in a row", gobreaker.Counts{Requests: 3, TotalFailures: 3, ConsecutiveFailures: 3}, true},
		{"half of few requests", gobreaker.Counts{Requests: 6, TotalFailures: 3, ConsecutiveFailures: 1}, false},
		{"half of ten", gobreaker.Counts{Requests: 10, TotalFailures: 5, ConsecutiveFailures: 1}, true},
		{"under half of ten", gobreaker.Counts{Requests: 10, TotalFailures: 4, ConsecutiveFailures: 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resilience.ShouldTrip(tt.counts))
		})
	}
}

func TestServerError_Message(t *testing.T) {
	err := &resilience.ServerError{StatusCode: http.StatusBadGateway}
	assert.Equal(t, "provider answered 502 Bad Gateway", err.Error())
}
