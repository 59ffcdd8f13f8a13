package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "qabot",
		Short:         "qabot: embedding-matched group Q&A with a curated knowledge base",
		Long:          "qabot answers questions by cosine-matching them against a curated Q&A knowledge base, spreading embedding calls across a pool of rate-limited credentials and caching vectors between runs.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newAskCmd(app),
		newKBCmd(app),
		newStatusCmd(app),
		newWarmCmd(app),
	)

	return rootCmd
}
