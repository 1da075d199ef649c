// Package webhooks delivers outbound notifications to registered targets.
package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"product-importer-service/internal/models"
)

const maxResponseBody = 64 * 1024

// Dispatcher posts JSON payloads to webhook URLs with a bounded timeout.
// It never retries; failed deliveries are reported to the caller (test
// endpoint) or logged (import notifications).
type Dispatcher struct {
	client *http.Client
	logger *logrus.Entry
}

// DeliveryResult is the observed outcome of one delivery attempt.
type DeliveryResult struct {
	StatusCode int    `json:"status_code"`
	Body       string `json:"body"`
}

func NewDispatcher(timeout time.Duration, logger *logrus.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		client: &http.Client{Timeout: timeout},
		logger: logger.WithField("component", "webhook-dispatcher"),
	}
}

// Test sends a sample payload to the webhook and returns the target's
// response. Network errors are returned as-is; non-2xx responses are still
// results, with the target's status code and body.
func (d *Dispatcher) Test(ctx context.Context, webhook *models.Webhook) (*DeliveryResult, error) {
	payload := map[string]interface{}{
		"event":  webhook.Event,
		"sample": map[string]string{"message": "test"},
	}
	return d.send(ctx, webhook.URL, payload)
}

// NotifyImportCompleted posts an import-completion notification to every
// webhook in hooks. Delivery failures are logged and do not affect the
// import outcome.
func (d *Dispatcher) NotifyImportCompleted(ctx context.Context, hooks []models.Webhook, taskID string, processed int) {
	for i := range hooks {
		hook := &hooks[i]
		payload := map[string]interface{}{
			"event": hook.Event,
			"data": map[string]interface{}{
				"task_id":   taskID,
				"processed": processed,
			},
		}
		if _, err := d.send(ctx, hook.URL, payload); err != nil {
			d.logger.WithFields(logrus.Fields{
				"webhookId": hook.ID.String(),
				"url":       hook.URL,
				"taskId":    taskID,
			}).WithError(err).Warn("Failed to deliver import notification")
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, url string, payload interface{}) (*DeliveryResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	return &DeliveryResult{
		StatusCode: resp.StatusCode,
		Body:       string(respBody),
	}, nil
}
