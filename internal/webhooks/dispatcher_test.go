package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-importer-service/internal/models"
)

func newTestDispatcher() *Dispatcher {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewDispatcher(2*time.Second, logger)
}

func TestTestDeliverySendsSamplePayload(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	webhook := &models.Webhook{ID: uuid.New(), URL: server.URL, Event: "import.completed", Enabled: true}

	result, err := newTestDispatcher().Test(context.Background(), webhook)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "ok", result.Body)
	assert.Equal(t, "import.completed", received["event"])
	sample, ok := received["sample"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "test", sample["message"])
}

func TestTestDeliveryReportsNon2xxAsResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	webhook := &models.Webhook{ID: uuid.New(), URL: server.URL, Event: "test", Enabled: true}

	result, err := newTestDispatcher().Test(context.Background(), webhook)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, result.StatusCode)
}

func TestTestDeliveryUnreachableTarget(t *testing.T) {
	webhook := &models.Webhook{ID: uuid.New(), URL: "http://127.0.0.1:1", Event: "test", Enabled: true}

	_, err := newTestDispatcher().Test(context.Background(), webhook)
	assert.Error(t, err)
}

func TestNotifyImportCompletedPostsToEveryWebhook(t *testing.T) {
	var payloads []map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		payloads = append(payloads, payload)
	}))
	defer server.Close()

	hooks := []models.Webhook{
		{ID: uuid.New(), URL: server.URL, Event: "import.completed", Enabled: true},
		{ID: uuid.New(), URL: server.URL, Event: "import.completed", Enabled: true},
	}

	newTestDispatcher().NotifyImportCompleted(context.Background(), hooks, "task-1", 2500)

	require.Len(t, payloads, 2)
	data, ok := payloads[0]["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "task-1", data["task_id"])
	assert.Equal(t, float64(2500), data["processed"])
}

func TestNotifyImportCompletedSurvivesFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	hooks := []models.Webhook{
		{ID: uuid.New(), URL: "http://127.0.0.1:1", Event: "import.completed", Enabled: true},
		{ID: uuid.New(), URL: server.URL, Event: "import.completed", Enabled: true},
	}

	// Must not panic and must still reach the healthy target.
	newTestDispatcher().NotifyImportCompleted(context.Background(), hooks, "task-1", 10)
}
