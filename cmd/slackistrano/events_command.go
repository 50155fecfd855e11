package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"slackistrano/internal/messaging"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	flags := &deployFlags{}
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List lifecycle events and the messages they produce",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			deploy := cfg.DeployContext()
			flags.apply(deploy)
			provider, err := cfg.NewProvider(deploy)
			if err != nil {
				return fmt.Errorf("build messaging provider: %w", err)
			}

			headers := []string{"Event", "Message", "Channels"}
			rows := eventRows(provider)
			out := cmd.OutOrStdout()
			if isTerminal(out) {
				fmt.Fprintln(out, renderTable(headers, rows))
				return nil
			}
			writeTSV(out, headers, rows)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func eventRows(provider messaging.Provider) [][]string {
	events := messaging.KnownEvents()
	rows := make([][]string, 0, len(events))
	for _, event := range events {
		payload := provider.PayloadFor(event)
		if payload == nil {
			rows = append(rows, []string{event.String(), "-", "-"})
			continue
		}
		rows = append(rows, []string{event.String(), summarizePayload(payload), channelSummary(provider, event)})
	}
	return rows
}

func summarizePayload(payload messaging.Payload) string {
	if text := payload.Text(); text != "" {
		return text
	}
	attachments, _ := payload.Attachments()
	for _, attachment := range attachments {
		if fallback, ok := attachment["fallback"].(string); ok && fallback != "" {
			return fallback
		}
		if text := attachment.Text(); text != "" {
			return text
		}
	}
	return "(empty)"
}

func channelSummary(provider messaging.Provider, event messaging.Event) string {
	channels := provider.ChannelsFor(event)
	if len(channels) > 0 {
		return strings.Join(channels, ", ")
	}
	if provider.ViaSlackbot() {
		return "(none)"
	}
	return "(webhook default)"
}

func writeTSV(out io.Writer, headers []string, rows [][]string) {
	fmt.Fprintln(out, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(out, strings.Join(row, "\t"))
	}
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
