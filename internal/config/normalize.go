package config

import (
	"fmt"
	"os"
	"strings"

	"slackistrano/internal/messaging"
)

func (c *Config) normalize() error {
	c.normalizeSlack()
	c.normalizeDeploy()
	c.normalizeHTTP()
	c.normalizeServer()
	return c.normalizeLogging()
}

func (c *Config) normalizeSlack() {
	c.Slack.Provider = strings.ToLower(strings.TrimSpace(c.Slack.Provider))
	if c.Slack.Provider == "" {
		c.Slack.Provider = defaultProvider
	}

	c.Slack.Webhook = strings.TrimSpace(c.Slack.Webhook)
	if c.Slack.Webhook == "" {
		c.Slack.Webhook = lookupEnv("SLACK_WEBHOOK_URL")
	}
	c.Slack.Team = strings.TrimSpace(c.Slack.Team)
	if c.Slack.Team == "" {
		c.Slack.Team = lookupEnv("SLACK_TEAM")
	}
	c.Slack.Token = strings.TrimSpace(c.Slack.Token)
	if c.Slack.Token == "" {
		c.Slack.Token = lookupEnv("SLACK_TOKEN")
	}

	// Channel entries are passed to Slack verbatim, blanks included.
	if len(c.Slack.Channels) == 0 {
		if channel := lookupEnv("SLACK_CHANNEL"); channel != "" {
			c.Slack.Channels = []string{channel}
		}
	}

	if len(c.Slack.EventChannels) > 0 {
		normalized := make(map[string][]string, len(c.Slack.EventChannels))
		for event, list := range c.Slack.EventChannels {
			key := string(messaging.ParseEvent(event))
			if key == "" {
				continue
			}
			normalized[key] = append(normalized[key], list...)
		}
		c.Slack.EventChannels = normalized
	}

	c.Slack.Username = strings.TrimSpace(c.Slack.Username)
	c.Slack.IconURL = strings.TrimSpace(c.Slack.IconURL)
	c.Slack.IconEmoji = strings.TrimSpace(c.Slack.IconEmoji)
}

func (c *Config) normalizeDeploy() {
	c.Deploy.Application = strings.TrimSpace(c.Deploy.Application)
	c.Deploy.Stage = strings.TrimSpace(c.Deploy.Stage)
	c.Deploy.Branch = strings.TrimSpace(c.Deploy.Branch)
	c.Deploy.Deployer = strings.TrimSpace(c.Deploy.Deployer)
	if c.Deploy.Deployer == "" {
		c.Deploy.Deployer = messaging.DefaultDeployer()
	}
}

func (c *Config) normalizeHTTP() {
	if c.HTTP.RequestTimeout == 0 {
		c.HTTP.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	c.Server.Token = strings.TrimSpace(c.Server.Token)
	if c.Server.Token == "" {
		c.Server.Token = lookupEnv("SLACKISTRANO_SERVER_TOKEN")
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var paths []string
	for _, path := range c.Logging.OutputPaths {
		path = strings.TrimSpace(path)
		switch path {
		case "":
			continue
		case "stdout", "stderr":
		default:
			expanded, err := expandPath(path)
			if err != nil {
				return fmt.Errorf("logging.output_paths: %w", err)
			}
			path = expanded
		}
		paths = append(paths, path)
	}
	c.Logging.OutputPaths = paths
	return nil
}

func lookupEnv(key string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return ""
}
