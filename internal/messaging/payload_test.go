package messaging_test

import (
	"testing"

	"github.com/slack-go/slack"

	"slackistrano/internal/messaging"
)

func TestPayloadMergeKeepsOriginal(t *testing.T) {
	base := messaging.Payload{"username": "Slackistrano", "icon_emoji": nil}
	event := messaging.Payload{"text": "hi", "username": "override"}

	merged := base.Merge(event)
	if merged["username"] != "override" {
		t.Fatalf("expected event field to win, got %v", merged["username"])
	}
	if _, ok := merged["icon_emoji"]; !ok {
		t.Fatal("expected nil-valued key to survive merge")
	}
	if base["username"] != "Slackistrano" {
		t.Fatal("merge mutated receiver")
	}
	if _, ok := base["text"]; ok {
		t.Fatal("merge leaked keys into receiver")
	}
}

func TestPayloadAttachmentsShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload messaging.Payload
		want    []string
		present bool
	}{
		{"absent", messaging.Payload{"text": "x"}, nil, false},
		{"typed", messaging.Payload{"attachments": []messaging.Attachment{{"text": "A"}}}, []string{"A"}, true},
		{"maps", messaging.Payload{"attachments": []map[string]any{{"text": "A"}, {"text": "B"}}}, []string{"A", "B"}, true},
		{"decoded", messaging.Payload{"attachments": []any{map[string]any{"text": "A"}, "junk"}}, []string{"A", ""}, true},
		{"empty", messaging.Payload{"attachments": []any{}}, []string{}, true},
		{"slack", messaging.Payload{"attachments": []slack.Attachment{{Text: "A"}, {Color: "good"}}}, []string{"A", ""}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.payload.Attachments()
			if ok != tc.present {
				t.Fatalf("present = %v, want %v", ok, tc.present)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %d attachments, want %d", len(got), len(tc.want))
			}
			for i, att := range got {
				if att.Text() != tc.want[i] {
					t.Fatalf("attachment %d text %q, want %q", i, att.Text(), tc.want[i])
				}
			}
		})
	}
}
