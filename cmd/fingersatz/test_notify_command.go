package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fingersatz/internal/apiclient"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd.Context(), func(client *apiclient.Client) error {
				resp, err := client.TestNotification(cmd.Context())
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("missing notification response")
				}
				if ctx.jsonMode() {
					return writeJSON(cmd, resp)
				}
				switch {
				case resp.Detail != "":
					fmt.Fprintln(cmd.OutOrStdout(), resp.Detail)
				case resp.Sent:
					fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
				default:
					fmt.Fprintln(cmd.OutOrStdout(), "Notification not sent")
				}
				return nil
			})
		},
	}
}
