package notification_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starshield/warranty/internal/notification"
	"github.com/starshield/warranty/internal/provider/resilience"
)

func testClient() *resilience.Client {
	return resilience.NewClient(resilience.ClientConfig{
		Name:            notification.ProviderName,
		Timeout:         2 * time.Second,
		MaxRetries:      2,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     10 * time.Millisecond,
	})
}

func TestResendNotifier_Send(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"49a3999c-0ce1-4ea6-ab68-afcd6dc2e794"}`))
	}))
	defer server.Close()

	notifier := notification.NewResendNotifier(notification.ResendConfig{
		APIKey:  "re_test",
		From:    "StarShield <garantias@usestarshield.com>",
		BaseURL: server.URL + "/",
		Client:  testClient(),
	})

	err := notifier.Send(context.Background(), notification.Email{
		To:      []string{"maria@example.com"},
		Subject: "Olá",
		HTML:    "<p>Olá</p>",
	})
	require.NoError(t, err)

	assert.Equal(t, "StarShield <garantias@usestarshield.com>", got["from"])
	assert.Equal(t, []any{"maria@example.com"}, got["to"])
	assert.Equal(t, "Olá", got["subject"])
	assert.Equal(t, "<p>Olá</p>", got["html"])
}

func TestResendNotifier_Send_ClientError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"message":"Invalid to field","name":"validation_error"}`))
	}))
	defer server.Close()

	notifier := notification.NewResendNotifier(notification.ResendConfig{
		APIKey:  "re_test",
		BaseURL: server.URL,
		Client:  testClient(),
	})

	err := notifier.Send(context.Background(), notification.Email{To: []string{"not-an-email"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "Invalid to field")
	assert.Equal(t, int32(1), attempts.Load(), "client errors are not retried")
}

func TestResendNotifier_Send_RetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	keys := make(chan string, 2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys <- r.Header.Get("Idempotency-Key")
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":"abc"}`))
	}))
	defer server.Close()

	notifier := notification.NewResendNotifier(notification.ResendConfig{
		APIKey:  "re_test",
		BaseURL: server.URL,
		Client:  testClient(),
	})

	err := notifier.Send(context.Background(), notification.Email{To: []string{"maria@example.com"}})
	require.NoError(t, err)
	assert.Equal(t, int32(2), attempts.Load())

	first, second := <-keys, <-keys
	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
}
