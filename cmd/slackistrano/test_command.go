package main

import (
	"github.com/spf13/cobra"

	"slackistrano/internal/hooks"
)

func newTestCommand(ctx *commandContext) *cobra.Command {
	flags := &deployFlags{}
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send every deployment notification once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.newSession(cmd, flags)
			if err != nil {
				return err
			}
			registry := hooks.NewRegistry()
			hooks.Install(registry, sess.dispatcher, sess.deploy, nil)
			hooks.RunTestSequence(sess.ctx, registry)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}
