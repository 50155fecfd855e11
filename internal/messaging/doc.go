// Package messaging decides what Slackistrano says about a deployment and
// where it says it.
//
// A Provider turns a lifecycle Event into a Slack Payload, names the channels
// that should receive it, and owns the presentation metadata and credentials
// used for delivery. Providers are selected by name through the registry so
// configuration can swap the stock messages for the attachment-based ones (or
// silence notifications entirely) without touching the dispatcher.
//
// Returning a nil Payload from PayloadFor is how a provider filters out events
// it does not care about.
package messaging
