package main

import (
	"errors"

	"github.com/spf13/cobra"

	"slackistrano/internal/hooks"
)

func newDeployCommand(ctx *commandContext) *cobra.Command {
	flags := &deployFlags{}
	cmd := &cobra.Command{
		Use:   "deploy [flags] -- <command> [args...]",
		Short: "Run a deployment command and notify Slack around it",
		Long: "Run a deployment command between the lifecycle notifications.\n\n" +
			"Slack hears about the start, the update (or rollback), and the finish\n" +
			"or failure. The exit status is the wrapped command's. A broken notifier\n" +
			"configuration is logged and the command runs without notifications.",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.newSession(cmd, flags)
			if err != nil {
				sess = ctx.silentSession(cmd, flags, err)
			}

			registry := hooks.NewRegistry()
			hooks.Install(registry, sess.dispatcher, sess.deploy, nil)
			runner := hooks.NewRunner(registry, sess.deploy.Rollback, sess.logger)

			err = runner.Run(sess.ctx, hooks.Command(args[0], args[1:], cmd.OutOrStdout(), cmd.ErrOrStderr()))
			var exitErr *hooks.ExitError
			if errors.As(err, &exitErr) {
				return &exitStatusError{code: exitErr.Code, err: err}
			}
			return err
		},
	}
	flags.bind(cmd)
	return cmd
}
