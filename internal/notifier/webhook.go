package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"TokenBank/internal/model"
)

// Webhook delivers ledger events to an external HTTP endpoint.
type Webhook struct {
	URL        string
	Secret     string
	MaxRetries int
	Client     *http.Client
}

// NewWebhook creates a webhook notifier. An empty URL disables delivery.
func NewWebhook(url, secret string) *Webhook {
	return &Webhook{
		URL:        url,
		Secret:     secret,
		MaxRetries: 3,
		Client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// payload is the JSON body posted for each event.
type payload struct {
	Event   *model.Event `json:"event"`
	Summary string       `json:"summary"`
}

// RecordEvent satisfies the bank's event sink. Delivery happens on a
// background goroutine so a slow endpoint never stalls a ledger operation.
func (w *Webhook) RecordEvent(evt *model.Event) error {
	if w.URL == "" {
		return nil
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := w.SendWithRetry(ctx, evt, w.MaxRetries); err != nil {
			log.Err(err).Msgf("webhook delivery failed for event %s", evt.ID)
		}
	}()
	return nil
}

// Send posts a single event to the configured endpoint.
func (w *Webhook) Send(evt *model.Event) error {
	body, err := json.Marshal(payload{Event: evt, Summary: FormatEvent(evt)})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.Secret != "" {
		req.Header.Set("Authorization", "Bearer "+w.Secret)
	}
	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send event: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry posts an event with exponential backoff retry.
func (w *Webhook) SendWithRetry(ctx context.Context, evt *model.Event, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := w.Send(evt); err != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(i)) * time.Second
			log.Warn().Msgf("webhook send failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}
