// Package config loads, normalizes, and validates Slackistrano configuration.
//
// It supplies repository defaults, reads TOML files (YAML when the file name
// says so), and honours environment fallbacks such as SLACK_WEBHOOK_URL so
// credentials can stay out of checked-in files. The Config type centralizes
// every knob the CLI, the dispatcher and the hook receiver need.
//
// Always obtain settings through this package so downstream code receives
// trimmed credentials, canonical log formats, and clear validation errors.
package config
