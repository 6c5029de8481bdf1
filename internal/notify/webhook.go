package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/oszuidwest/waytooloud/internal/util"
)

// webhookTimeout bounds a single webhook delivery.
const webhookTimeout = 10 * time.Second

// WebhookPayload represents the data sent to webhook endpoints.
type WebhookPayload struct {
	Event     string  `json:"event"`
	LimitID   string  `json:"limit_id,omitempty"`
	LimitName string  `json:"limit_name,omitempty"`
	Level     float64 `json:"level"`               // Loudness percentage when the limit fired
	Threshold float64 `json:"threshold,omitempty"` // Limit threshold percentage
	SoundFile string  `json:"sound_file,omitempty"`
	Message   string  `json:"message,omitempty"`
	Timestamp string  `json:"timestamp"`
}

// SendLimitWebhook notifies the configured webhook that a limit fired.
func SendLimitWebhook(webhookURL string, ev FireEvent) error {
	return sendWebhook(webhookURL, &WebhookPayload{
		Event:     EventLimitExceeded,
		LimitID:   ev.LimitID,
		LimitName: ev.LimitName,
		Level:     ev.Level,
		Threshold: ev.Threshold,
		SoundFile: ev.SoundFile,
		Timestamp: timestampUTC(ev.Time),
	})
}

// SendTestWebhook sends a test webhook notification.
func SendTestWebhook(webhookURL string) error {
	if webhookURL == "" {
		return fmt.Errorf("webhook URL not configured")
	}

	return sendWebhook(webhookURL, &WebhookPayload{
		Event:     "test",
		Message:   "This is a test notification from " + AppName,
		Timestamp: timestampUTC(time.Now()),
	})
}

// sendWebhook delivers a notification to the configured webhook endpoint.
func sendWebhook(webhookURL string, payload *WebhookPayload) error {
	if !util.IsConfigured(webhookURL) {
		return nil // Silently skip if not configured
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return util.WrapError("marshal payload", err)
	}

	client := &http.Client{Timeout: webhookTimeout}
	resp, err := client.Post(webhookURL, "application/json", bytes.NewReader(jsonData))
	if err != nil {
		return util.WrapError("send webhook request", err)
	}
	defer util.SafeCloseFunc(resp.Body, "webhook response body")()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
