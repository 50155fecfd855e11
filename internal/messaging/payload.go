package messaging

import "github.com/slack-go/slack"

// Payload keys understood by the dispatcher.
const (
	KeyText        = "text"
	KeyAttachments = "attachments"
	KeyUsername    = "username"
	KeyIconURL     = "icon_url"
	KeyIconEmoji   = "icon_emoji"
	KeyChannel     = "channel"
)

// Payload is a Slack message body. Providers hand out fresh payloads and never
// touch them afterwards; the dispatcher only works on merged copies.
type Payload map[string]any

// Attachment is a single Slack attachment. Only its text is interpreted here.
type Attachment map[string]any

// Text returns the top-level text field, or "" when absent.
func (p Payload) Text() string {
	text, _ := p[KeyText].(string)
	return text
}

// Attachments returns the attachment list and whether the payload carries one
// at all. A present but empty list still reports true.
func (p Payload) Attachments() ([]Attachment, bool) {
	raw, ok := p[KeyAttachments]
	if !ok || raw == nil {
		return nil, false
	}
	switch list := raw.(type) {
	case []Attachment:
		return list, true
	case []slack.Attachment:
		out := make([]Attachment, 0, len(list))
		for _, item := range list {
			out = append(out, fromSlack(item))
		}
		return out, true
	case []map[string]any:
		out := make([]Attachment, 0, len(list))
		for _, item := range list {
			out = append(out, Attachment(item))
		}
		return out, true
	case []any:
		out := make([]Attachment, 0, len(list))
		for _, item := range list {
			switch value := item.(type) {
			case Attachment:
				out = append(out, value)
			case map[string]any:
				out = append(out, Attachment(value))
			case slack.Attachment:
				out = append(out, fromSlack(value))
			default:
				out = append(out, Attachment{})
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// Clone returns a shallow copy of the payload.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for key, value := range p {
		out[key] = value
	}
	return out
}

// Merge returns a shallow copy of p overlaid with other. Keys in other win.
func (p Payload) Merge(other Payload) Payload {
	out := p.Clone()
	for key, value := range other {
		out[key] = value
	}
	return out
}

// Text returns the attachment text, or "" when absent.
func (a Attachment) Text() string {
	text, _ := a[KeyText].(string)
	return text
}

// fromSlack flattens the text-bearing parts of a typed attachment.
func fromSlack(a slack.Attachment) Attachment {
	out := Attachment{}
	for key, value := range map[string]string{
		"color":    a.Color,
		"title":    a.Title,
		"pretext":  a.Pretext,
		KeyText:    a.Text,
		"fallback": a.Fallback,
	} {
		if value != "" {
			out[key] = value
		}
	}
	return out
}
