package notifications

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"slackistrano/internal/messaging"
)

const (
	userAgent       = "Slackistrano-Go/1.0"
	maxResponseBody = 4096
)

// postAsSlackbot sends plain text: the attachment texts joined by newlines,
// or the top-level text when there are no attachments.
func (d *Dispatcher) postAsSlackbot(ctx context.Context, payload messaging.Payload) error {
	channel, _ := payload[messaging.KeyChannel].(string)
	endpoint := slackbotURL(d.provider.Team(), d.provider.Token(), channel)

	return d.send(ctx, endpoint, "text/plain", []byte(slackbotText(payload)))
}

// postAsWebhook sends {"text": ...}. Without attachments that is the payload
// text. With attachments the whole payload lands under "text"; existing
// integrations depend on that shape, see DESIGN.md before changing it.
func (d *Dispatcher) postAsWebhook(ctx context.Context, payload messaging.Payload) error {
	var text any = payload
	if _, ok := payload.Attachments(); !ok {
		text = payload.Text()
	}
	body, err := encodeJSON(map[string]any{messaging.KeyText: text})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	return d.send(ctx, d.provider.Webhook(), "application/json", body)
}

func (d *Dispatcher) send(ctx context.Context, endpoint, contentType string, body []byte) error {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req) //nolint:gosec // endpoint comes from trusted config
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func slackbotURL(team, token, channel string) string {
	return fmt.Sprintf("https://%s.slack.com/services/hooks/slackbot?token=%s&channel=%s",
		team, queryEscape(token), queryEscape(channel))
}

// queryEscape percent-encodes a query value, spaces included.
func queryEscape(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}

func slackbotText(payload messaging.Payload) string {
	attachments, ok := payload.Attachments()
	if !ok {
		return payload.Text()
	}
	lines := make([]string, 0, len(attachments))
	for _, attachment := range attachments {
		lines = append(lines, attachment.Text())
	}
	return strings.Join(lines, "\n")
}
