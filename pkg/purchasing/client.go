// Package purchasing notifies the purchasing service of shipment
// cancellations. The notification is a best-effort compensating signal: its
// failure is logged by the caller and never undoes the cancellation.
package purchasing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Notifier is the one-way cancellation notification port.
type Notifier interface {
	// NotifyCancellation posts the cancelled shipping id to purchasing.
	NotifyCancellation(ctx context.Context, shippingID int64) error
}

// Config holds HTTP notifier configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// HTTPNotifier is the production Notifier implementation.
type HTTPNotifier struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPNotifier creates a notifier posting to the purchasing API.
func NewHTTPNotifier(cfg Config) *HTTPNotifier {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPNotifier{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// cancellationRequest is the purchasing API payload.
type cancellationRequest struct {
	ShippingID int64 `json:"shipping_id"`
}

// NotifyCancellation implements Notifier.
// POST /api/cancellation with {"shipping_id": id}.
func (n *HTTPNotifier) NotifyCancellation(ctx context.Context, shippingID int64) error {
	payload, err := json.Marshal(cancellationRequest{ShippingID: shippingID})
	if err != nil {
		return fmt.Errorf("encoding cancellation payload: %w", err)
	}

	url := n.baseURL + "/api/cancellation"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building cancellation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling purchasing API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("purchasing API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
