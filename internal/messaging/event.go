package messaging

import "strings"

// Event names a deployment lifecycle point. Events are opaque to the
// dispatcher; providers decide which ones produce messages.
type Event string

const (
	EventStarting  Event = "starting"
	EventUpdating  Event = "updating"
	EventReverting Event = "reverting"
	EventUpdated   Event = "updated"
	EventReverted  Event = "reverted"
	EventFailed    Event = "failed"
)

// KnownEvents lists the lifecycle events the stock hooks emit, in the order a
// deployment (and its rollback) would produce them.
func KnownEvents() []Event {
	return []Event{
		EventStarting,
		EventUpdating,
		EventReverting,
		EventUpdated,
		EventReverted,
		EventFailed,
	}
}

// ParseEvent normalizes user input into an Event. Host task names carry a
// namespace ("slack:deploy:updated"); only the last segment is kept.
func ParseEvent(raw string) Event {
	value := strings.ToLower(strings.TrimSpace(raw))
	if idx := strings.LastIndex(value, ":"); idx >= 0 {
		value = value[idx+1:]
	}
	return Event(value)
}

func (e Event) String() string { return string(e) }
