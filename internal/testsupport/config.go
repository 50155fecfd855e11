package testsupport

import (
	"testing"

	"slackistrano/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a webhook-mode config for a deployment of "app" to
// "staging" from "main" by "tester". Options are applied in order.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfgVal := config.Default()
	cfgVal.Slack.Webhook = "https://hooks.slack.com/services/T000/B000/XXXX"
	cfgVal.Deploy = config.Deploy{
		Application: "app",
		Stage:       "staging",
		Branch:      "main",
		Deployer:    "tester",
	}
	cfgVal.Server.Bind = "127.0.0.1:0"

	builder := &configBuilder{t: t, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithWebhook points the config at url.
func WithWebhook(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Slack.Webhook = url
	}
}

// WithSlackbot switches the config to slackbot mode.
func WithSlackbot(team, token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Slack.Webhook = ""
		b.cfg.Slack.Team = team
		b.cfg.Slack.Token = token
	}
}

// WithChannels sets the global channel list.
func WithChannels(channels ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Slack.Channels = channels
	}
}

// WithProvider selects a registered messaging provider.
func WithProvider(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Slack.Provider = name
	}
}

// WithDryRun toggles dry-run delivery.
func WithDryRun(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Deploy.DryRun = enabled
	}
}

// WithServerToken requires bearer authentication on the hook receiver.
func WithServerToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.Token = token
	}
}

// WithDisabled turns notifications off.
func WithDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Slack.Enabled = false
	}
}
