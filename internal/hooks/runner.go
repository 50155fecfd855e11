package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	"slackistrano/internal/logging"
)

// DeployFunc performs the actual deployment work.
type DeployFunc func(ctx context.Context) error

// Runner walks a deployment through the registry tasks.
type Runner struct {
	registry *Registry
	rollback bool
	logger   *slog.Logger
}

// NewRunner builds a runner. Rollback runs use the reverting tasks.
func NewRunner(registry *Registry, rollback bool, logger *slog.Logger) *Runner {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Runner{registry: registry, rollback: rollback, logger: logging.NewComponentLogger(logger, "hooks")}
}

// Run executes deploy between the lifecycle tasks and returns its error
// untouched. On failure the failed task fires instead of finishing.
func (r *Runner) Run(ctx context.Context, deploy DeployFunc) error {
	update, finish := TaskUpdating, TaskFinishing
	if r.rollback {
		update, finish = TaskReverting, TaskFinishingRollback
	}

	_ = r.registry.Invoke(ctx, TaskStarting, nil)

	if err := r.registry.Invoke(ctx, update, deploy); err != nil {
		logging.WithContext(ctx, r.logger).Warn("deployment failed", logging.String("task", update), logging.Error(err))
		_ = r.registry.Invoke(ctx, TaskFailed, nil)
		return err
	}

	_ = r.registry.Invoke(ctx, finish, nil)
	return nil
}

// Command returns a DeployFunc running name with args, streaming its output.
func Command(name string, args []string, stdout, stderr io.Writer) DeployFunc {
	return func(ctx context.Context) error {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		if err := cmd.Run(); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				return &ExitError{Code: exitErr.ExitCode(), Err: err}
			}
			return fmt.Errorf("run deploy command %s: %w", name, err)
		}
		return nil
	}
}

// ExitError carries the exit status of a failed deploy command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("deploy command exited with status %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }
