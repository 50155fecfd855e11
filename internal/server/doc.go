// Package server exposes the dispatcher over HTTP so deployment hosts that
// cannot shell out can post lifecycle events instead.
//
// Requests are handled synchronously: the event is fully processed before the
// response is written, and the response never reflects whether Slack accepted
// the message.
package server
