package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the marqueectl command tree.
func NewRootCommand() *cobra.Command {
	var configFlag string
	var baseURLFlag string
	var verbose bool

	ctx := newCommandContext(&configFlag, &baseURLFlag, &verbose)

	rootCmd := &cobra.Command{
		Use:           "marqueectl",
		Short:         "Browse the film catalogue and submit reviews",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "Catalogue service base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")

	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newShowCommand(ctx))
	rootCmd.AddCommand(newReviewCommand(ctx))
	rootCmd.AddCommand(newCompaniesCommand(ctx))

	return rootCmd
}
