package purchasing_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pampacargo/logistica/pkg/purchasing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPNotifier_NotifyCancellation(t *testing.T) {
	var gotPath string
	var gotBody map[string]int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	notifier := purchasing.NewHTTPNotifier(purchasing.Config{BaseURL: srv.URL})
	err := notifier.NotifyCancellation(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, "/api/cancellation", gotPath)
	assert.Equal(t, int64(42), gotBody["shipping_id"])
}

func TestHTTPNotifier_NotifyCancellation_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	notifier := purchasing.NewHTTPNotifier(purchasing.Config{BaseURL: srv.URL})
	err := notifier.NotifyCancellation(context.Background(), 42)
	assert.Error(t, err)
}

func TestHTTPNotifier_NotifyCancellation_Unreachable(t *testing.T) {
	notifier := purchasing.NewHTTPNotifier(purchasing.Config{BaseURL: "http://127.0.0.1:1"})
	err := notifier.NotifyCancellation(context.Background(), 42)
	assert.Error(t, err)
}

func TestMockNotifier_RecordsNotifications(t *testing.T) {
	mock := purchasing.NewMockNotifier()

	require.NoError(t, mock.NotifyCancellation(context.Background(), 1))
	require.NoError(t, mock.NotifyCancellation(context.Background(), 2))
	assert.Equal(t, []int64{1, 2}, mock.Notified())
}

func TestMockNotifier_SimulateErrors(t *testing.T) {
	mock := purchasing.NewMockNotifier()
	mock.SimulateErrors = true

	err := mock.NotifyCancellation(context.Background(), 1)
	assert.Error(t, err)
	assert.Equal(t, []int64{1}, mock.Notified(), "attempt is recorded even on failure")
}
