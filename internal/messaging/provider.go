package messaging

import (
	"fmt"
	"strings"
)

const (
	defaultUsername = "Slackistrano"
	defaultIconURL  = "https://raw.githubusercontent.com/phallstrom/slackistrano/master/images/slackistrano.png"
)

// Provider decides per-event message content and routing, and owns the
// credentials the dispatcher delivers with.
type Provider interface {
	// PayloadFor returns the message for event, or nil to skip it.
	PayloadFor(event Event) Payload
	// ChannelsFor lists the channels that should receive event.
	ChannelsFor(event Event) []string

	Username() string
	IconURL() string
	IconEmoji() string

	// ViaSlackbot selects token+team delivery instead of the webhook.
	ViaSlackbot() bool
	Team() string
	Token() string
	Webhook() string
}

// Options configures the stock providers.
type Options struct {
	Team    string
	Token   string
	Webhook string

	Channels      []string
	EventChannels map[string][]string

	Username  string
	IconURL   string
	IconEmoji string

	Deploy *DeployContext
}

// base implements the credential, routing and presentation parts of Provider
// along with the stock plain-text templates.
type base struct {
	opts   Options
	deploy *DeployContext
}

func newBase(opts Options) base {
	deploy := opts.Deploy
	if deploy == nil {
		deploy = &DeployContext{}
	}
	return base{opts: opts, deploy: deploy}
}

func (b base) Team() string    { return b.opts.Team }
func (b base) Token() string   { return b.opts.Token }
func (b base) Webhook() string { return b.opts.Webhook }

// ViaSlackbot reports slackbot delivery whenever no webhook is configured.
func (b base) ViaSlackbot() bool {
	return strings.TrimSpace(b.opts.Webhook) == ""
}

func (b base) Username() string {
	if b.opts.Username != "" {
		return b.opts.Username
	}
	return defaultUsername
}

func (b base) IconURL() string {
	if b.opts.IconURL != "" {
		return b.opts.IconURL
	}
	return defaultIconURL
}

func (b base) IconEmoji() string { return b.opts.IconEmoji }

func (b base) ChannelsFor(event Event) []string {
	if channels, ok := b.opts.EventChannels[string(event)]; ok {
		return copyChannels(channels)
	}
	return copyChannels(b.opts.Channels)
}

// PayloadFor renders the stock one-line messages.
func (b base) PayloadFor(event Event) Payload {
	text := b.textFor(event)
	if text == "" {
		return nil
	}
	return Payload{KeyText: text}
}

func (b base) textFor(event Event) string {
	d := b.deploy
	switch event {
	case EventUpdating:
		return fmt.Sprintf("%s has started deploying branch %s of %s to %s", d.deployer(), d.branch(), d.application(), d.stage())
	case EventReverting:
		return fmt.Sprintf("%s has started rolling back branch %s of %s to %s", d.deployer(), d.branch(), d.application(), d.stage())
	case EventUpdated:
		return fmt.Sprintf("%s has finished deploying branch %s of %s to %s", d.deployer(), d.branch(), d.application(), d.stage())
	case EventReverted:
		return fmt.Sprintf("%s has finished rolling back branch of %s to %s", d.deployer(), d.application(), d.stage())
	case EventFailed:
		verb := "rollback"
		if d.deploying() {
			verb = "deploy"
		}
		return fmt.Sprintf("%s has failed to %s branch %s of %s to %s", d.deployer(), verb, d.branch(), d.application(), d.stage())
	default:
		return ""
	}
}

// copyChannels hands out the configured list as-is, blank entries included.
func copyChannels(channels []string) []string {
	out := make([]string, len(channels))
	copy(out, channels)
	return out
}

// Default posts the stock plain-text messages.
type Default struct {
	base
}

// NewDefault builds the stock provider.
func NewDefault(opts Options) *Default {
	return &Default{base: newBase(opts)}
}

// Null never produces a payload. It stands in whenever notifications are
// disabled.
type Null struct{}

func (Null) PayloadFor(Event) Payload   { return nil }
func (Null) ChannelsFor(Event) []string { return nil }
func (Null) Username() string           { return "" }
func (Null) IconURL() string            { return "" }
func (Null) IconEmoji() string          { return "" }
func (Null) ViaSlackbot() bool          { return false }
func (Null) Team() string               { return "" }
func (Null) Token() string              { return "" }
func (Null) Webhook() string            { return "" }
