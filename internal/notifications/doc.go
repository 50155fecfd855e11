// Package notifications delivers deployment lifecycle events to Slack.
//
// A Dispatcher asks its messaging.Provider for the payload of each event,
// layers the provider's presentation defaults underneath it, fans it out to
// every resolved channel and posts each copy either to the incoming webhook or
// through the slackbot endpoint. In dry-run mode it logs what it would have
// sent instead.
//
// Delivery is strictly best-effort: every failure is logged and swallowed so a
// notification problem can never abort the deployment that triggered it.
package notifications
