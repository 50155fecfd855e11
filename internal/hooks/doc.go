// Package hooks models the host deployment tool's task callbacks.
//
// A Registry runs callbacks before and after named tasks. Install wires the
// stock Slackistrano mapping (notify on starting, updating, finishing, failing,
// and the rollback equivalents) into a registry, and Runner walks a deploy
// command through those tasks so any shell-driven deployment can reuse it.
package hooks
