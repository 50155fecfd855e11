package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"slackistrano/internal/logging"
	"slackistrano/internal/messaging"
)

func newNotifyCommand(ctx *commandContext) *cobra.Command {
	flags := &deployFlags{}
	cmd := &cobra.Command{
		Use:   "notify <event>",
		Short: "Notify Slack about one deployment event",
		Long: "Notify Slack about one deployment event.\n\n" +
			"Delivery problems are logged and never change the exit status, so a\n" +
			"Slack outage cannot fail a deployment.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			event := messaging.ParseEvent(args[0])
			if event == "" {
				return fmt.Errorf("event name is required")
			}
			sess, err := ctx.newSession(cmd, flags)
			if err != nil {
				return err
			}
			sess.logger.Debug("processing event", logging.String(logging.FieldEvent, event.String()))
			sess.dispatcher.Process(sess.ctx, event)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}
