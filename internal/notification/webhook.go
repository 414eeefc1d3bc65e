package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// WebhookSource is the "source" field of every webhook event.
const WebhookSource = "cyclewatch"

// WebhookNotifier POSTs each alert as a signal event to an HTTP endpoint.
// Every event carries a fresh ID in the body and in the X-Event-ID header
// so receivers can drop redeliveries.
type WebhookNotifier struct {
	url    string
	client *http.Client
	now    func() time.Time
}

// NewWebhookNotifier creates a webhook notifier posting to url.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}
}

// signalEvent is the JSON body of a webhook delivery.
type signalEvent struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"`
	Asset      string     `json:"asset"`
	Signal     string     `json:"signal"`
	Level      AlertLevel `json:"level"`
	Title      string     `json:"title"`
	Date       string     `json:"date"`
	Price      float64    `json:"price"`
	Confidence int        `json:"confidence"`
	Reasons    []string   `json:"reasons"`
	SentAt     time.Time  `json:"sentAt"`
}

func newSignalEvent(alert Alert, at time.Time) signalEvent {
	reasons := alert.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return signalEvent{
		ID:         uuid.NewString(),
		Source:     WebhookSource,
		Asset:      alert.Asset,
		Signal:     alert.Signal,
		Level:      alert.Level,
		Title:      alert.Title,
		Date:       alert.Date,
		Price:      alert.Price,
		Confidence: alert.Confidence,
		Reasons:    reasons,
		SentAt:     at.UTC(),
	}
}

func (w *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	ev := newSignalEvent(alert, w.now())
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-ID", ev.ID)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: send %s: %w", ev.Signal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("webhook: %s %s rejected with status %d", ev.Asset, ev.Signal, resp.StatusCode)
	}

	log.Printf("[webhook] delivered %s %s for %s (event %s)", ev.Asset, ev.Signal, ev.Date, ev.ID)
	return nil
}
