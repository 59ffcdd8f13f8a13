package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkrv/qabot/internal/domain"
)

func newWarmCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "warm",
		Short: "Embed every knowledge-base question and prime the vector cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := contextWithTimeout()
			defer cancel()

			err := app.index.Rebuild(ctx)

			var incomplete *domain.IndexIncompleteError
			if errors.As(err, &incomplete) {
				fmt.Fprintf(cmd.OutOrStdout(), "indexed %d record(s); %d failed to embed: %v\n",
					len(app.index.Records())-len(incomplete.Failed), len(incomplete.Failed), incomplete.Failed)
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d record(s)\n", len(app.index.Records()))
			return nil
		},
	}
}
