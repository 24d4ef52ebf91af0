package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// AlertSink escalates repeated failures to an external channel, per
// spec.md §7's requirement that repeated StoreError failures surface
// at error level beyond the log stream itself.
type AlertSink interface {
	Alert(level, message string, fields map[string]interface{}) error
}

type webhookMessage struct {
	Embeds []webhookEmbed `json:"embeds,omitempty"`
}

type webhookEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Timestamp   time.Time      `json:"timestamp"`
	Fields      []webhookField `json:"fields,omitempty"`
}

type webhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// WebhookAlertSink posts alert embeds to a Discord-compatible webhook URL.
type WebhookAlertSink struct {
	webhookURL string
	httpClient *http.Client
}

// NewWebhookAlertSink returns a sink that no-ops when webhookURL is empty.
func NewWebhookAlertSink(webhookURL string) *WebhookAlertSink {
	return &WebhookAlertSink{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *WebhookAlertSink) Alert(level, message string, fields map[string]interface{}) error {
	if c.webhookURL == "" {
		return nil
	}

	embed := webhookEmbed{
		Title:       fmt.Sprintf("%s alert", level),
		Description: message,
		Color:       colorForLevel(level),
		Timestamp:   time.Now(),
	}
	for key, value := range fields {
		embed.Fields = append(embed.Fields, webhookField{
			Name: key, Value: fmt.Sprintf("%v", value), Inline: true,
		})
	}

	payload, err := json.Marshal(webhookMessage{Embeds: []webhookEmbed{embed}})
	if err != nil {
		return fmt.Errorf("marshal alert payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func colorForLevel(level string) int {
	switch level {
	case "error":
		return 0xFF0000
	case "fatal":
		return 0x8B0000
	case "warn":
		return 0xFFA500
	default:
		return 0x808080
	}
}

// NoopAlertSink discards every alert; used when no webhook is configured.
type NoopAlertSink struct{}

func (NoopAlertSink) Alert(string, string, map[string]interface{}) error { return nil }
