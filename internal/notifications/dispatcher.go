package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"slackistrano/internal/config"
	"slackistrano/internal/logging"
	"slackistrano/internal/messaging"
)

const logPrefix = "[slackistrano]"

// Dispatcher turns lifecycle events into Slack posts.
type Dispatcher struct {
	provider messaging.Provider
	client   *http.Client
	logger   *slog.Logger
	dryRun   bool
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithDryRun logs intended posts instead of sending them.
func WithDryRun(dryRun bool) Option {
	return func(d *Dispatcher) { d.dryRun = dryRun }
}

// WithLogger sets the sink for delivery reports.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithHTTPClient replaces the outbound HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Dispatcher) {
		if client != nil {
			d.client = client
		}
	}
}

// NewDispatcher builds a dispatcher for provider. A nil provider never
// produces anything.
func NewDispatcher(provider messaging.Provider, opts ...Option) *Dispatcher {
	if provider == nil {
		provider = messaging.Null{}
	}
	d := &Dispatcher{
		provider: provider,
		client:   NewHTTPClient(defaultTimeout, false),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewDispatcherFromConfig wires a dispatcher with the configured HTTP client
// and dry-run setting.
func NewDispatcherFromConfig(cfg *config.Config, provider messaging.Provider, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg == nil {
		return NewDispatcher(provider, WithLogger(logger))
	}
	if cfg.HTTP.InsecureSkipVerify {
		logger.Warn("TLS certificate verification disabled for Slack requests",
			logging.String("setting", "http.insecure_skip_verify"))
	}
	return NewDispatcher(provider,
		WithLogger(logger),
		WithDryRun(cfg.Deploy.DryRun),
		WithHTTPClient(NewHTTPClient(cfg.RequestTimeout(), cfg.HTTP.InsecureSkipVerify)),
	)
}

// DryRun reports whether the dispatcher only logs.
func (d *Dispatcher) DryRun() bool { return d.dryRun }

// Provider returns the provider the dispatcher asks for payloads.
func (d *Dispatcher) Provider() messaging.Provider { return d.provider }

// Process notifies Slack about event. It never fails: events the provider
// does not produce a payload for are ignored, and delivery problems are logged
// per channel without stopping the remaining channels.
func (d *Dispatcher) Process(ctx context.Context, event messaging.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.report(logging.WithContext(ctx, d.logger), fmt.Errorf("panic while processing %s: %v", event, r))
		}
	}()

	payload := d.provider.PayloadFor(event)
	if payload == nil {
		return
	}

	base := messaging.Payload{
		messaging.KeyUsername:  optional(d.provider.Username()),
		messaging.KeyIconURL:   optional(d.provider.IconURL()),
		messaging.KeyIconEmoji: optional(d.provider.IconEmoji()),
	}.Merge(payload)

	logger := logging.WithContext(ctx, d.logger).With(logging.String(logging.FieldEvent, string(event)))
	for _, channel := range d.resolveChannels(event) {
		final := base.Merge(messaging.Payload{messaging.KeyChannel: optional(channel)})
		d.post(ctx, logger.With(logging.String(logging.FieldChannel, channelLabel(channel))), final)
	}
}

// Channels lists the post targets for event, one request each. The webhook
// default channel is reported as "".
func (d *Dispatcher) Channels(event messaging.Event) []string {
	return d.resolveChannels(event)
}

// resolveChannels applies the webhook default: no channels means one post to
// the channel the webhook was created for. Slackbot has no such default.
func (d *Dispatcher) resolveChannels(event messaging.Event) []string {
	channels := d.provider.ChannelsFor(event)
	if !d.provider.ViaSlackbot() && len(channels) == 0 {
		return []string{""}
	}
	return channels
}

func (d *Dispatcher) post(ctx context.Context, logger *slog.Logger, payload messaging.Payload) {
	if d.dryRun {
		d.postDryRun(logger, payload)
		return
	}
	d.report(logger, d.deliver(ctx, payload))
}

func (d *Dispatcher) deliver(ctx context.Context, payload messaging.Payload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during delivery: %v", r)
		}
	}()
	if d.provider.ViaSlackbot() {
		return d.postAsSlackbot(ctx, payload)
	}
	return d.postAsWebhook(ctx, payload)
}

func (d *Dispatcher) report(logger *slog.Logger, err error) {
	var apiErr *APIError
	var transportErr *TransportError
	switch {
	case err == nil:
		logger.Info(logPrefix + " Success: Posted to Slack.")
	case errors.As(err, &apiErr):
		logger.Warn(logPrefix + " Slack API Failure!")
		logger.Warn(fmt.Sprintf("%s   Status: %d", logPrefix, apiErr.StatusCode))
		logger.Warn(fmt.Sprintf("%s   Body: %s", logPrefix, apiErr.Body))
	case errors.As(err, &transportErr):
		logger.Warn(logPrefix + " Error communicating with Slack!")
		logger.Warn(fmt.Sprintf("%s   Error: %s", logPrefix, transportErr.Err.Error()))
	default:
		logger.Warn(logPrefix + " Error notifying Slack!")
		logger.Warn(fmt.Sprintf("%s   Error: %s", logPrefix, err.Error()))
	}
}

func (d *Dispatcher) postDryRun(logger *slog.Logger, payload messaging.Payload) {
	logger.Info(logPrefix + " Slackistrano Dry Run:")
	if d.provider.ViaSlackbot() {
		logger.Info(fmt.Sprintf("%s   Team: %s", logPrefix, d.provider.Team()))
		logger.Info(fmt.Sprintf("%s   Token: %s", logPrefix, d.provider.Token()))
	} else {
		logger.Info(fmt.Sprintf("%s   Webhook: %s", logPrefix, d.provider.Webhook()))
	}
	encoded, err := encodeJSON(payload)
	if err != nil {
		encoded = []byte(fmt.Sprintf("%v", map[string]any(payload)))
	}
	logger.Info(fmt.Sprintf("%s   Payload: %s", logPrefix, encoded))
}

func encodeJSON(value any) ([]byte, error) {
	var buf strings.Builder
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return nil, err
	}
	return []byte(strings.TrimRight(buf.String(), "\n")), nil
}

// optional maps an empty string to a JSON null.
func optional(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func channelLabel(channel string) string {
	if channel == "" {
		return "(default)"
	}
	return channel
}
