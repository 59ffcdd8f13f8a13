package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkrv/qabot/internal/application"
)

func newKBCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Inspect and maintain the Q&A knowledge base",
	}

	cmd.AddCommand(
		newKBListCmd(app),
		newKBFindCmd(app),
		newKBAddCmd(app),
		newKBDeleteCmd(app),
	)

	return cmd
}

func newKBListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every Q&A entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := contextWithTimeout()
			defer cancel()

			hydrate(ctx, app, cmd)

			reply, err := adminCommand(ctx, app, "list", "")
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}
}

func newKBFindCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "find <keywords>",
		Short: "Find entries whose question contains the keywords",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := contextWithTimeout()
			defer cancel()

			hydrate(ctx, app, cmd)

			reply, err := adminCommand(ctx, app, "find", strings.Join(args, " "))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}
}

func newKBAddCmd(app *app) *cobra.Command {
	var question string
	var answer string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a Q&A entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := contextWithTimeout()
			defer cancel()

			// Same conversational path a chat admin takes, collapsed into
			// one invocation.
			if _, err := adminCommand(ctx, app, "add", question); err != nil {
				return err
			}
			if _, err := adminCommand(ctx, app, "reply", answer); err != nil {
				return err
			}
			reply, err := adminCommand(ctx, app, "confirm", "")
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}

	cmd.Flags().StringVarP(&question, "question", "q", "", "Question text")
	cmd.Flags().StringVarP(&answer, "answer", "a", "", "Answer text")
	_ = cmd.MarkFlagRequired("question")
	_ = cmd.MarkFlagRequired("answer")

	return cmd
}

func newKBDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a Q&A entry by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := contextWithTimeout()
			defer cancel()

			if _, err := adminCommand(ctx, app, "delete", args[0]); err != nil {
				return err
			}
			reply, err := adminCommand(ctx, app, "confirm", "")
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}
}

func adminCommand(ctx context.Context, app *app, name, args string) (string, error) {
	return app.gateway.HandleAdminCommand(ctx, application.AdminCommand{
		Name: name,
		Args: args,
	})
}

// hydrate fills the snapshot's record list so read-only commands see the
// current knowledge base without spending any embedding calls.
func hydrate(ctx context.Context, app *app, cmd *cobra.Command) {
	if err := app.index.Hydrate(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
}
