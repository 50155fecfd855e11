package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"slackistrano/internal/config"
	"slackistrano/internal/logging"
	"slackistrano/internal/messaging"
	"slackistrano/internal/notifications"
)

const dotenvFile = ".env"

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if err := loadDotenv(); err != nil {
			c.configErr = err
			return
		}
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// loadDotenv exports variables from ./.env without overriding the
// environment. A missing file is fine.
func loadDotenv() error {
	if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", dotenvFile, err)
	}
	return nil
}

func (c *commandContext) logger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.NewFromConfig(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// session bundles what a notifying command needs.
type session struct {
	deploy     *messaging.DeployContext
	dispatcher *notifications.Dispatcher
	logger     *slog.Logger
	ctx        context.Context
}

func (c *commandContext) newSession(cmd *cobra.Command, flags *deployFlags) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	effective := *cfg
	if flags != nil && flags.dryRun {
		effective.Deploy.DryRun = true
	}

	logger, err := c.logger(cmd, &effective)
	if err != nil {
		return nil, err
	}
	ctx, _ := logging.NewCorrelationID(cmd.Context())
	logger = logging.WithContext(ctx, logger)

	deploy := effective.DeployContext()
	if flags != nil {
		flags.apply(deploy)
	}
	provider, err := effective.NewProvider(deploy)
	if err != nil {
		return nil, fmt.Errorf("build messaging provider: %w", err)
	}

	return &session{
		deploy:     deploy,
		dispatcher: notifications.NewDispatcherFromConfig(&effective, provider, logger),
		logger:     logger,
		ctx:        ctx,
	}, nil
}

// silentSession stands in when the notifier cannot be set up, so a
// deployment never depends on Slack configuration.
func (c *commandContext) silentSession(cmd *cobra.Command, flags *deployFlags, cause error) *session {
	logger, err := logging.NewFromConfig(nil, cmd.ErrOrStderr())
	if err != nil {
		logger = logging.NewNop()
	}
	ctx, _ := logging.NewCorrelationID(cmd.Context())
	logger = logging.WithContext(ctx, logger)
	logger.Warn("[slackistrano] Notifications disabled for this run", logging.Error(cause))

	deploy := &messaging.DeployContext{}
	if c.config != nil {
		deploy = c.config.DeployContext()
	}
	if flags != nil {
		flags.apply(deploy)
	}
	return &session{
		deploy:     deploy,
		dispatcher: notifications.NewDispatcher(messaging.Null{}, notifications.WithLogger(logger)),
		logger:     logger,
		ctx:        ctx,
	}
}

// deployFlags overrides the [deploy] section for one run.
type deployFlags struct {
	application string
	stage       string
	branch      string
	deployer    string
	rollback    bool
	dryRun      bool
}

func (f *deployFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.application, "application", "", "Application name (overrides config)")
	cmd.Flags().StringVar(&f.stage, "stage", "", "Deployment stage (overrides config)")
	cmd.Flags().StringVar(&f.branch, "branch", "", "Branch being deployed (overrides config)")
	cmd.Flags().StringVar(&f.deployer, "deployer", "", "Person deploying (overrides config)")
	cmd.Flags().BoolVar(&f.rollback, "rollback", false, "Treat the run as a rollback")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Log the payloads instead of posting them")
}

func (f *deployFlags) apply(deploy *messaging.DeployContext) {
	if v := strings.TrimSpace(f.application); v != "" {
		deploy.Application = v
	}
	if v := strings.TrimSpace(f.stage); v != "" {
		deploy.Stage = v
	}
	if v := strings.TrimSpace(f.branch); v != "" {
		deploy.Branch = v
	}
	if v := strings.TrimSpace(f.deployer); v != "" {
		deploy.Deployer = v
	}
	if f.rollback {
		deploy.Rollback = true
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
