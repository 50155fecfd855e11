package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"slackistrano/internal/messaging"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSlack(); err != nil {
		return err
	}
	if err := c.validateHTTP(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSlack() error {
	if !messaging.Registered(c.Slack.Provider) {
		return fmt.Errorf("slack.provider %q is not registered (available: %s)", c.Slack.Provider, strings.Join(messaging.Available(), ", "))
	}
	if !c.Slack.Enabled || c.Slack.Provider == messaging.ProviderNull {
		return nil
	}
	if c.Slack.Webhook != "" {
		parsed, err := url.Parse(c.Slack.Webhook)
		if err != nil {
			return fmt.Errorf("slack.webhook: %w", err)
		}
		if (parsed.Scheme != "https" && parsed.Scheme != "http") || parsed.Host == "" {
			return errors.New("slack.webhook must be an absolute http(s) URL")
		}
		return nil
	}
	if c.Slack.Team == "" || c.Slack.Token == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("slack.webhook or both slack.team and slack.token are required. Set SLACK_WEBHOOK_URL or edit %s (create with 'slackistrano config init')", defaultPath)
	}
	if strings.ContainsAny(c.Slack.Team, "/:?#@ ") {
		return fmt.Errorf("slack.team %q must be a bare workspace name", c.Slack.Team)
	}
	return nil
}

func (c *Config) validateHTTP() error {
	if c.HTTP.RequestTimeout <= 0 {
		return errors.New("http.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json", "auto":
	default:
		return fmt.Errorf("logging.format must be console, json, or auto (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}
