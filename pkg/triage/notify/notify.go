// Package notify delivers outbound notifications for high-urgency tickets
// and consolidated storm incidents. Delivery is best-effort and
// fire-and-forget: failures are logged, never retried, never fatal.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/smartsupport/triage-engine/pkg/logging"
	"github.com/smartsupport/triage-engine/pkg/triage"
)

// Sink receives notification texts.
type Sink interface {
	// Deliver sends the text. Implementations swallow delivery errors.
	Deliver(ctx context.Context, text string)
}

// HighUrgencyText formats the alert for a single high-urgency ticket.
func HighUrgencyText(t *triage.Ticket, agentID string) string {
	text := t.Text
	if len(text) > 200 {
		text = text[:200]
	}
	return fmt.Sprintf(
		"High-urgency ticket %s\nCategory: %s\nUrgency: %.2f\nAssigned to: %s\nText: %s",
		t.ID, t.Category, t.Urgency, agentID, text,
	)
}

// StormText formats the consolidated notification for a confirmed storm.
func StormText(inc *triage.Incident) string {
	sample := inc.SampleText
	if len(sample) > 150 {
		sample = sample[:150]
	}
	return fmt.Sprintf(
		"Ticket storm detected\nMaster incident: %s\nTickets suppressed: %d\nSample: %s",
		inc.ID, len(inc.MemberTicketIDs), sample,
	)
}

// WebhookSink posts notifications to a chat webhook (Slack/Discord style
// payload with content and username fields).
type WebhookSink struct {
	url      string
	username string
	client   *http.Client
	logger   logging.Logger
}

// NewWebhookSink creates a webhook sink. The HTTP client uses a short
// timeout so a slow webhook endpoint cannot hold a per-ticket task hostage.
func NewWebhookSink(url, username string, logger logging.Logger) *WebhookSink {
	return &WebhookSink{
		url:      url,
		username: username,
		client:   &http.Client{Timeout: 5 * time.Second},
		logger:   logger.With(logging.F("component", "webhook_sink")),
	}
}

// Deliver posts the text. Failures are logged and dropped.
func (s *WebhookSink) Deliver(ctx context.Context, text string) {
	payload, err := json.Marshal(map[string]string{
		"content":  text,
		"username": s.username,
	})
	if err != nil {
		s.logger.Warn("webhook payload marshal failed", logging.Err(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		s.logger.Warn("webhook request build failed", logging.Err(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("webhook delivery failed", logging.Err(err))
		return
	}
	defer resp.Body.Close()

	s.logger.Debug("webhook fired", logging.F("status", resp.StatusCode))
}

// LogSink writes notifications to the log. Used when no webhook is
// configured and in tests.
type LogSink struct {
	logger logging.Logger
}

// NewLogSink creates a log-only sink.
func NewLogSink(logger logging.Logger) *LogSink {
	return &LogSink{logger: logger.With(logging.F("component", "log_sink"))}
}

// Deliver logs the notification text.
func (s *LogSink) Deliver(ctx context.Context, text string) {
	s.logger.Info("notification", logging.F("text", text))
}

var (
	_ Sink = (*WebhookSink)(nil)
	_ Sink = (*LogSink)(nil)
)
