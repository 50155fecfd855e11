// Package main hosts the slackistrano CLI entrypoint and command graph.
//
// Deployment hosts call `slackistrano notify <event>` from their lifecycle
// hooks, or wrap the whole deployment with `slackistrano deploy -- <cmd>`.
// The command tree resolves configuration once per run, builds the messaging
// provider and dispatcher, and leaves message content and delivery to the
// internal packages.
package main
