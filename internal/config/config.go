package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"slackistrano/internal/messaging"
)

//go:embed sample_config.toml
var sampleConfig string

// Slack contains the messaging provider selection, credentials and routing.
type Slack struct {
	Enabled       bool                `toml:"enabled" yaml:"enabled"`
	Provider      string              `toml:"provider" yaml:"provider"`
	Webhook       string              `toml:"webhook" yaml:"webhook"`
	Team          string              `toml:"team" yaml:"team"`
	Token         string              `toml:"token" yaml:"token"`
	Channels      []string            `toml:"channels" yaml:"channels"`
	EventChannels map[string][]string `toml:"event_channels" yaml:"event_channels"`
	Username      string              `toml:"username" yaml:"username"`
	IconURL       string              `toml:"icon_url" yaml:"icon_url"`
	IconEmoji     string              `toml:"icon_emoji" yaml:"icon_emoji"`
}

// Deploy describes the deployment the messages talk about. CLI flags and hook
// receiver requests override these per run.
type Deploy struct {
	Application string `toml:"application" yaml:"application"`
	Stage       string `toml:"stage" yaml:"stage"`
	Branch      string `toml:"branch" yaml:"branch"`
	Deployer    string `toml:"deployer" yaml:"deployer"`
	DryRun      bool   `toml:"dry_run" yaml:"dry_run"`
}

// HTTP contains outbound client settings.
type HTTP struct {
	RequestTimeout     int  `toml:"request_timeout" yaml:"request_timeout"`
	InsecureSkipVerify bool `toml:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// Server contains settings for the HTTP hook receiver.
type Server struct {
	Bind  string `toml:"bind" yaml:"bind"`
	Token string `toml:"token" yaml:"token"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format" yaml:"format"`
	Level  string `toml:"level" yaml:"level"`
	// OutputPaths lists "stdout", "stderr" or file paths. Empty means stderr.
	OutputPaths []string `toml:"output_paths" yaml:"output_paths"`
}

// Config encapsulates all configuration values for Slackistrano.
type Config struct {
	Slack   Slack   `toml:"slack" yaml:"slack"`
	Deploy  Deploy  `toml:"deploy" yaml:"deploy"`
	HTTP    HTTP    `toml:"http" yaml:"http"`
	Server  Server  `toml:"server" yaml:"server"`
	Logging Logging `toml:"logging" yaml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. It returns the
// config, the path that was resolved, and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	if path != "" && !exists {
		return nil, "", false, fmt.Errorf("config file %s does not exist", resolvedPath)
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := decode(file, resolvedPath, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	// Without a file or credentials there is nothing to notify; stay silent
	// instead of failing the deployment that invoked us.
	if !exists && !cfg.hasCredentials() {
		cfg.Slack.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func decode(r io.Reader, path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(r)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	default:
		return toml.NewDecoder(r).Decode(cfg)
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	for _, name := range projectConfigNames {
		projectPath, err := filepath.Abs(name)
		if err != nil {
			return "", false, err
		}
		if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
			return projectPath, true, nil
		}
	}

	return defaultPath, false, nil
}

func (c *Config) hasCredentials() bool {
	return c.Slack.Webhook != "" || c.Slack.Team != "" || c.Slack.Token != ""
}

// RequestTimeout returns the outbound request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.RequestTimeout) * time.Second
}

// DeployContext builds the message context for a run from the [deploy] section.
func (c *Config) DeployContext() *messaging.DeployContext {
	return &messaging.DeployContext{
		Application: c.Deploy.Application,
		Stage:       c.Deploy.Stage,
		Branch:      c.Deploy.Branch,
		Deployer:    c.Deploy.Deployer,
	}
}

// ProviderName returns the provider to build, accounting for the enabled switch.
func (c *Config) ProviderName() string {
	if !c.Slack.Enabled {
		return messaging.ProviderNull
	}
	return c.Slack.Provider
}

// MessagingOptions converts the [slack] section into provider options bound to
// the supplied deploy context.
func (c *Config) MessagingOptions(deploy *messaging.DeployContext) messaging.Options {
	channels := make([]string, len(c.Slack.Channels))
	copy(channels, c.Slack.Channels)

	var eventChannels map[string][]string
	if len(c.Slack.EventChannels) > 0 {
		eventChannels = make(map[string][]string, len(c.Slack.EventChannels))
		for event, list := range c.Slack.EventChannels {
			cp := make([]string, len(list))
			copy(cp, list)
			eventChannels[event] = cp
		}
	}

	return messaging.Options{
		Team:          c.Slack.Team,
		Token:         c.Slack.Token,
		Webhook:       c.Slack.Webhook,
		Channels:      channels,
		EventChannels: eventChannels,
		Username:      c.Slack.Username,
		IconURL:       c.Slack.IconURL,
		IconEmoji:     c.Slack.IconEmoji,
		Deploy:        deploy,
	}
}

// NewProvider builds the configured messaging provider for deploy.
func (c *Config) NewProvider(deploy *messaging.DeployContext) (messaging.Provider, error) {
	return messaging.New(c.ProviderName(), c.MessagingOptions(deploy))
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
