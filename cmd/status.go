package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkrv/qabot/internal/adapters/render/status"
)

func newStatusCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show credential pool quota usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output := status.Render(app.pool.Snapshot(), status.RenderOptions{Now: app.clock.Now()})
			_, err := fmt.Fprintln(cmd.OutOrStdout(), output)
			return err
		},
	}
}
