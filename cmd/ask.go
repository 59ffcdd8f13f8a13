package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkrv/qabot/internal/application"
)

func newAskCmd(app *app) *cobra.Command {
	var chatID int64
	var userID int64

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Match a question against the knowledge base",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := contextWithTimeout()
			defer cancel()

			if err := app.index.Rebuild(ctx); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}

			answer, ok := app.gateway.HandleMessage(ctx, application.InboundMessage{
				ChatID: chatID,
				UserID: userID,
				Text:   strings.Join(args, " "),
				SentAt: app.clock.Now(),
			})
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no match")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}

	cmd.Flags().Int64Var(&chatID, "chat", 0, "Chat ID to attribute the question to")
	cmd.Flags().Int64Var(&userID, "user", 0, "User ID to attribute the question to")

	return cmd
}
