package config

const (
	defaultConfigPath     = "~/.config/slackistrano/config.toml"
	defaultProvider       = "default"
	defaultRequestTimeout = 10
	defaultServerBind     = "127.0.0.1:7490"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

var projectConfigNames = []string{"slackistrano.toml", "slackistrano.yaml", "slackistrano.yml"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Slack: Slack{
			Enabled:  true,
			Provider: defaultProvider,
		},
		HTTP: HTTP{
			RequestTimeout: defaultRequestTimeout,
		},
		Server: Server{
			Bind: defaultServerBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
