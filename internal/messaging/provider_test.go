package messaging_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/slack-go/slack"

	"slackistrano/internal/messaging"
)

func testDeploy() *messaging.DeployContext {
	return &messaging.DeployContext{
		Application: "shop",
		Stage:       "production",
		Branch:      "main",
		Deployer:    "alex",
	}
}

func TestDefaultProviderTemplates(t *testing.T) {
	tests := []struct {
		event    messaging.Event
		rollback bool
		want     string
	}{
		{messaging.EventUpdating, false, "alex has started deploying branch main of shop to production"},
		{messaging.EventReverting, true, "alex has started rolling back branch main of shop to production"},
		{messaging.EventUpdated, false, "alex has finished deploying branch main of shop to production"},
		{messaging.EventReverted, true, "alex has finished rolling back branch of shop to production"},
		{messaging.EventFailed, false, "alex has failed to deploy branch main of shop to production"},
		{messaging.EventFailed, true, "alex has failed to rollback branch main of shop to production"},
	}

	for _, tc := range tests {
		t.Run(string(tc.event), func(t *testing.T) {
			deploy := testDeploy()
			deploy.Rollback = tc.rollback
			provider := messaging.NewDefault(messaging.Options{Deploy: deploy})
			payload := provider.PayloadFor(tc.event)
			if payload == nil {
				t.Fatalf("expected payload for %s", tc.event)
			}
			if got := payload.Text(); got != tc.want {
				t.Fatalf("unexpected text: got %q want %q", got, tc.want)
			}
		})
	}
}

func TestDefaultProviderSkipsUnknownEvents(t *testing.T) {
	provider := messaging.NewDefault(messaging.Options{Deploy: testDeploy()})
	for _, event := range []messaging.Event{messaging.EventStarting, "deploy_finished", ""} {
		if payload := provider.PayloadFor(event); payload != nil {
			t.Fatalf("expected nil payload for %q, got %v", event, payload)
		}
	}
}

func TestDefaultProviderFallsBackToUnknownStage(t *testing.T) {
	provider := messaging.NewDefault(messaging.Options{Deploy: &messaging.DeployContext{Deployer: "sam", Application: "api", Branch: "dev"}})
	want := "sam has finished deploying branch dev of api to an unknown stage"
	if got := provider.PayloadFor(messaging.EventUpdated).Text(); got != want {
		t.Fatalf("unexpected text: got %q want %q", got, want)
	}
}

func TestDefaultProviderDeployerFromEnvironment(t *testing.T) {
	t.Setenv("USER", "")
	t.Setenv("USERNAME", "winuser")
	provider := messaging.NewDefault(messaging.Options{Deploy: &messaging.DeployContext{Application: "api", Branch: "dev", Stage: "qa"}})
	want := "winuser has finished deploying branch dev of api to qa"
	if got := provider.PayloadFor(messaging.EventUpdated).Text(); got != want {
		t.Fatalf("unexpected text: got %q want %q", got, want)
	}
}

func TestProviderPresentationDefaults(t *testing.T) {
	provider := messaging.NewDefault(messaging.Options{})
	if provider.Username() != "Slackistrano" {
		t.Fatalf("unexpected username %q", provider.Username())
	}
	if provider.IconURL() == "" {
		t.Fatal("expected stock icon url")
	}
	if provider.IconEmoji() != "" {
		t.Fatalf("expected no icon emoji, got %q", provider.IconEmoji())
	}

	custom := messaging.NewDefault(messaging.Options{Username: "deploybot", IconURL: "https://example.com/i.png", IconEmoji: ":ship:"})
	if custom.Username() != "deploybot" || custom.IconURL() != "https://example.com/i.png" || custom.IconEmoji() != ":ship:" {
		t.Fatalf("expected configured presentation, got %q %q %q", custom.Username(), custom.IconURL(), custom.IconEmoji())
	}
}

func TestProviderDeliveryMode(t *testing.T) {
	webhook := messaging.NewDefault(messaging.Options{Webhook: "https://hooks.example/abc"})
	if webhook.ViaSlackbot() {
		t.Fatal("expected webhook mode when webhook configured")
	}
	slackbot := messaging.NewDefault(messaging.Options{Team: "acme", Token: "T1"})
	if !slackbot.ViaSlackbot() {
		t.Fatal("expected slackbot mode without webhook")
	}
	if slackbot.Team() != "acme" || slackbot.Token() != "T1" {
		t.Fatalf("unexpected credentials %q %q", slackbot.Team(), slackbot.Token())
	}
}

func TestChannelsForUsesEventOverrides(t *testing.T) {
	provider := messaging.NewDefault(messaging.Options{
		Channels:      []string{"#deploys", " ", "#eng"},
		EventChannels: map[string][]string{"failed": {"#ops"}, "starting": {}},
	})

	if got := provider.ChannelsFor(messaging.EventUpdated); !reflect.DeepEqual(got, []string{"#deploys", " ", "#eng"}) {
		t.Fatalf("unexpected default channels %v", got)
	}
	if got := provider.ChannelsFor(messaging.EventFailed); !reflect.DeepEqual(got, []string{"#ops"}) {
		t.Fatalf("unexpected failed channels %v", got)
	}
	if got := provider.ChannelsFor(messaging.EventStarting); len(got) != 0 {
		t.Fatalf("expected explicit empty override, got %v", got)
	}
}

func TestNullProviderProducesNothing(t *testing.T) {
	var provider messaging.Provider = messaging.Null{}
	for _, event := range messaging.KnownEvents() {
		if provider.PayloadFor(event) != nil {
			t.Fatalf("null provider produced payload for %s", event)
		}
	}
	if len(provider.ChannelsFor(messaging.EventUpdated)) != 0 {
		t.Fatal("null provider returned channels")
	}
}

func TestRichProviderBuildsAttachments(t *testing.T) {
	deploy := testDeploy()
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	deploy.MarkStarted(start)
	deploy.MarkFinished(start.Add(95 * time.Second))

	provider := messaging.NewRich(messaging.Options{Deploy: deploy})
	payload := provider.PayloadFor(messaging.EventUpdated)
	typed, ok := payload[messaging.KeyAttachments].([]slack.Attachment)
	if !ok || len(typed) != 1 {
		t.Fatalf("expected one slack attachment, got %v", payload)
	}
	att := typed[0]
	if att.Color != "good" {
		t.Fatalf("unexpected color %q", att.Color)
	}
	if att.Text != "alex has finished deploying branch main of shop to production" || att.Fallback != att.Text {
		t.Fatalf("unexpected attachment text %q / fallback %q", att.Text, att.Fallback)
	}
	if !reflect.DeepEqual(att.MarkdownIn, []string{"text"}) {
		t.Fatalf("unexpected mrkdwn_in %v", att.MarkdownIn)
	}
	if len(att.Fields) != 4 {
		t.Fatalf("expected 4 fields, got %d", len(att.Fields))
	}
	if att.Fields[0].Value != "Production" || !att.Fields[0].Short {
		t.Fatalf("expected short title-cased stage, got %+v", att.Fields[0])
	}
	if att.Fields[3].Title != "Time" || att.Fields[3].Value != "01:35" {
		t.Fatalf("unexpected elapsed time field %+v", att.Fields[3])
	}

	// The generic view still exposes the text for slackbot delivery.
	generic, ok := payload.Attachments()
	if !ok || len(generic) != 1 || generic[0].Text() != att.Text || generic[0]["fallback"] != att.Text {
		t.Fatalf("unexpected generic attachments %v", generic)
	}

	if provider.PayloadFor(messaging.EventStarting) != nil {
		t.Fatal("expected rich provider to skip starting")
	}
	failed := provider.PayloadFor(messaging.EventFailed)[messaging.KeyAttachments].([]slack.Attachment)
	if failed[0].Color != "danger" {
		t.Fatalf("unexpected failed color %q", failed[0].Color)
	}
}

func TestElapsedTimeFormatting(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		elapsed time.Duration
		want    string
	}{
		{"zero", 0, "00:00"},
		{"seconds", 7 * time.Second, "00:07"},
		{"minutes", 12*time.Minute + 3*time.Second, "12:03"},
		{"hours", 2*time.Hour + 5*time.Minute, "02:05:00"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := &messaging.DeployContext{StartedAt: start, FinishedAt: start.Add(tc.elapsed)}
			if got := d.ElapsedTime(); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}

	var missing *messaging.DeployContext
	if got := missing.ElapsedTime(); got != "00:00" {
		t.Fatalf("expected 00:00 for nil context, got %q", got)
	}
}

func TestParseEvent(t *testing.T) {
	cases := map[string]messaging.Event{
		"updated":              messaging.EventUpdated,
		" Failed ":             messaging.EventFailed,
		"slack:deploy:updated": messaging.EventUpdated,
		"deploy_finished":      messaging.Event("deploy_finished"),
	}
	for raw, want := range cases {
		if got := messaging.ParseEvent(raw); got != want {
			t.Fatalf("ParseEvent(%q) = %q, want %q", raw, got, want)
		}
	}
}
