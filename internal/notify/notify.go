// Package notify delivers staff alerts. The default notifier writes to the
// process log; a webhook notifier can POST alerts to an external relay.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// LogNotifier records alerts in the process log. It never fails.
type LogNotifier struct{}

// Notify implements the sentin.Notifier interface.
func (LogNotifier) Notify(ctx context.Context, subject, body string) error {
	log.Printf("ALERT (subject: %s): %s", subject, body)
	return nil
}

// WebhookNotifier POSTs alerts as JSON to a relay endpoint, typically a
// mail gateway or paging bridge.
type WebhookNotifier struct {
	endpoint string
	client   *http.Client
}

// NewWebhookNotifier creates a notifier for the given endpoint.
func NewWebhookNotifier(endpoint string, client *http.Client) *WebhookNotifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookNotifier{endpoint: endpoint, client: client}
}

type alertPayload struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Notify implements the sentin.Notifier interface.
func (n *WebhookNotifier) Notify(ctx context.Context, subject, body string) error {
	payload, err := json.Marshal(alertPayload{Subject: subject, Body: body})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("alert relay returned status %d", resp.StatusCode)
	}
	return nil
}
