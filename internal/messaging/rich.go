package messaging

import (
	"github.com/slack-go/slack"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	colorGood    = "good"
	colorWarning = "warning"
	colorDanger  = "danger"
)

// Rich posts attachment messages with the deployment facts laid out as
// fields. Every attachment keeps the stock sentence as its text so slackbot
// delivery, which only sends plain text, still reads naturally.
type Rich struct {
	base
	titler cases.Caser
}

// NewRich builds the attachment-based provider.
func NewRich(opts Options) *Rich {
	return &Rich{base: newBase(opts), titler: cases.Title(language.English)}
}

func (r *Rich) PayloadFor(event Event) Payload {
	text := r.textFor(event)
	if text == "" {
		return nil
	}

	var color, title string
	switch event {
	case EventUpdating:
		color, title = colorWarning, "Deploying"
	case EventReverting:
		color, title = colorWarning, "Rolling back"
	case EventUpdated:
		color, title = colorGood, "Deployed"
	case EventReverted:
		color, title = colorGood, "Rolled back"
	case EventFailed:
		color, title = colorDanger, "Deployment failed"
	}

	d := r.deploy
	if app := d.application(); app != "" {
		title = title + " " + app
	}

	fields := []slack.AttachmentField{
		{Title: "Environment", Value: r.titler.String(d.stage()), Short: true},
		{Title: "Branch", Value: d.branch(), Short: true},
		{Title: "Deployer", Value: d.deployer(), Short: true},
	}
	if event == EventUpdated || event == EventReverted || event == EventFailed {
		fields = append(fields, slack.AttachmentField{Title: "Time", Value: d.ElapsedTime(), Short: true})
	}

	return Payload{
		KeyAttachments: []slack.Attachment{{
			Color:      color,
			Title:      title,
			Text:       text,
			Fallback:   text,
			Fields:     fields,
			MarkdownIn: []string{"text"},
		}},
	}
}
