// Package notifier pushes pass summaries to Slack.
package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/singura/singura/pkg/report"
)

// SlackClient handles Slack notifications.
type SlackClient struct {
	WebhookURL string
	Channel    string // Optional: Override default channel
}

// NewSlackClient initializes the Slack integration.
func NewSlackClient(webhookURL string, channel string) *SlackClient {
	return &SlackClient{
		WebhookURL: webhookURL,
		Channel:    channel,
	}
}

// SendDetectionReport sends a summary. No-op without a webhook URL.
func (s *SlackClient) SendDetectionReport(summary report.Summary) error {
	if s.WebhookURL == "" {
		return nil
	}
	return s.send(s.constructPayload(summary))
}

// constructPayload builds the message blocks.
func (s *SlackClient) constructPayload(summary report.Summary) map[string]interface{} {
	statusIcon := "🟢"
	if summary.OverallRisk >= 75 {
		statusIcon = "🔴"
	} else if summary.OverallRisk > 0 {
		statusIcon = "🟡"
	}

	blocks := []map[string]interface{}{
		{
			"type": "header",
			"text": map[string]interface{}{
				"type": "plain_text",
				"text": fmt.Sprintf("%s Shadow AI Detection Report", statusIcon),
			},
		},
		{
			"type": "context",
			"elements": []map[string]interface{}{
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Scan Date:* %s | *Organization:* %s",
						time.Now().Format("2006-01-02"), summary.OrganizationID),
				},
			},
		},
		{
			"type": "divider",
		},
		{
			"type": "section",
			"fields": []map[string]interface{}{
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Overall Risk:*\n%.0f/100", summary.OverallRisk),
				},
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Events Analyzed:*\n%d", summary.EventsScanned),
				},
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Patterns / Indicators:*\n%d / %d",
						summary.PatternCount, summary.IndicatorCount),
				},
			},
		},
	}

	if summary.OverallRisk >= 75 && summary.TopDetail != "" {
		blocks = append(blocks, map[string]interface{}{
			"type": "section",
			"text": map[string]interface{}{
				"type": "mrkdwn",
				"text": fmt.Sprintf("⚠️ *Critical Shadow AI Activity*\n%s", summary.TopDetail),
			},
		})
	}

	payload := map[string]interface{}{
		"blocks": blocks,
	}
	if s.Channel != "" {
		payload["channel"] = s.Channel
	}
	return payload
}

func (s *SlackClient) send(payload map[string]interface{}) error {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}
	req, err := http.NewRequest("POST", s.WebhookURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("received non-200 status from slack: %d", resp.StatusCode)
	}
	return nil
}
